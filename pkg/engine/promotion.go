package engine

import (
	"github.com/dewei/SentimentRadar/pkg/model"
)

// PromotionResult 分层晋级率计算结果
type PromotionResult struct {
	Details []model.PromotionDetail `json:"promotion_details"`
	// Overall 整体晋级率 = Σ今日(N+1)板 / Σ昨日N板，无可计算层级时为nil
	Overall *float64 `json:"overall_promotion_rate"`
	// Average 各层级晋级率的算术平均，用于情绪因子
	Average *float64 `json:"avg_promotion_rate"`
}

// CalculatePromotion 计算昨日N板到今日N+1板的晋级率
// 昨日数量为0的层级不参与计算
func CalculatePromotion(today, yesterday model.BoardDistribution) PromotionResult {
	result := PromotionResult{Details: make([]model.PromotionDetail, 0)}

	sumToday, sumYesterday := 0, 0
	rates := make([]float64, 0, MaxPromotionTier)
	for n := 1; n <= MaxPromotionTier; n++ {
		yc := yesterday.Count(n)
		if yc <= 0 {
			continue
		}
		tc := today.Count(n + 1)
		rate := Round1(float64(tc) / float64(yc) * 100)
		result.Details = append(result.Details, model.PromotionDetail{
			FromDays:       n,
			ToDays:         n + 1,
			YesterdayCount: yc,
			TodayCount:     tc,
			Rate:           rate,
		})
		rates = append(rates, rate)
		sumToday += tc
		sumYesterday += yc
	}

	result.Overall = Percent(sumToday, sumYesterday)
	result.Average = Mean(rates)
	return result
}
