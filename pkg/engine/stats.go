package engine

import (
	"sort"

	"github.com/dewei/SentimentRadar/pkg/model"
)

// 昨日涨停今日表现的判定阈值
const (
	BigLossPct       = -5.0 // 跌幅 >= 5% 为大面
	BigHighPct       = 5.0  // 涨幅 >= 5% 且未涨停为大肉
	HighBoardDays    = 3    // 高位股：昨日 >= 3 板
	maxBigLossStocks = 10
)

// ClassifyMove 根据今日涨跌幅补全大面/大肉标记
func ClassifyMove(p *model.YesterdayLimitPerformance) {
	if p.TodayChangePct == nil {
		p.IsBigLoss, p.IsBigHigh = false, false
		return
	}
	change := *p.TodayChangePct
	p.IsBigLoss = change <= BigLossPct
	p.IsBigHigh = change >= BigHighPct && !p.IsLimitUp
}

func avgChange(rows []model.YesterdayLimitPerformance, pick func(model.YesterdayLimitPerformance) *float64) *float64 {
	values := make([]float64, 0, len(rows))
	for _, r := range rows {
		if v := pick(r); v != nil {
			values = append(values, *v)
		}
	}
	m := Mean(values)
	if m == nil {
		return nil
	}
	v := Round2(*m)
	return &v
}

func todayChange(r model.YesterdayLimitPerformance) *float64 { return r.TodayChangePct }
func todayOpen(r model.YesterdayLimitPerformance) *float64   { return r.TodayOpenPct }

// CalculatePremiumStats 昨日涨停股今日溢价统计，没有样本时返回 nil
// 有样本但缺少涨跌幅数据时，所有比率为 nil
func CalculatePremiumStats(rows []model.YesterdayLimitPerformance) *model.PremiumStats {
	total := len(rows)
	if total == 0 {
		return nil
	}
	stats := &model.PremiumStats{SampleSize: total}

	stats.AvgPremium = avgChange(rows, todayChange)
	if stats.AvgPremium == nil {
		return stats
	}
	stats.AvgOpenPremium = avgChange(rows, todayOpen)

	var first, second, high []model.YesterdayLimitPerformance
	promoted, bigLoss, highBigLoss := 0, 0, 0
	for _, r := range rows {
		switch {
		case r.YesterdayContinuousDays >= HighBoardDays:
			high = append(high, r)
			if r.IsBigLoss {
				highBigLoss++
			}
		case r.YesterdayContinuousDays == 2:
			second = append(second, r)
		case r.YesterdayContinuousDays == 1:
			first = append(first, r)
		}
		if r.IsLimitUp {
			promoted++
		}
		if r.IsBigLoss {
			bigLoss++
		}
	}

	stats.FirstBoardPremium = avgChange(first, todayChange)
	stats.SecondBoardPremium = avgChange(second, todayChange)
	stats.HighBoardPremium = avgChange(high, todayChange)
	stats.PromotionCount = promoted
	stats.PromotionRate = Percent(promoted, total)
	stats.BigLossRate = Percent(bigLoss, total)
	stats.HighBoardBigLossRate = Percent(highBigLoss, len(high))
	if stats.HighBoardBigLossRate == nil {
		// 没有高位股时视为无高位大面
		stats.HighBoardBigLossRate = model.Float(0)
	}
	return stats
}

// SummarizeYesterday 昨日涨停今日表现汇总
func SummarizeYesterday(rows []model.YesterdayLimitPerformance) model.YesterdayPerformance {
	perf := model.YesterdayPerformance{
		YesterdayLimitUpCount: len(rows),
		BigLossStocks:         make([]model.BigLossStock, 0),
	}
	if len(rows) == 0 {
		return perf
	}

	perf.TodayAvgChange = avgChange(rows, todayChange)

	var losers []model.YesterdayLimitPerformance
	for _, r := range rows {
		if r.TodayChangePct != nil {
			switch {
			case *r.TodayChangePct > 0:
				perf.UpCount++
			case *r.TodayChangePct < 0:
				perf.DownCount++
			}
		}
		if r.IsBigLoss {
			losers = append(losers, r)
		}
	}
	perf.BigLossCount = len(losers)
	if rate := Percent(len(losers), len(rows)); rate != nil {
		perf.BigLossRate = *rate
	}

	sort.SliceStable(losers, func(i, j int) bool {
		return deref(losers[i].TodayChangePct) < deref(losers[j].TodayChangePct)
	})
	if len(losers) > maxBigLossStocks {
		losers = losers[:maxBigLossStocks]
	}
	for _, r := range losers {
		days := r.YesterdayContinuousDays
		if days < 1 {
			days = 1
		}
		concepts := []string(r.YesterdayConcepts)
		if concepts == nil {
			concepts = []string{}
		}
		perf.BigLossStocks = append(perf.BigLossStocks, model.BigLossStock{
			StockCode:               r.StockCode,
			StockName:               r.StockName,
			TodayChangePct:          deref(r.TodayChangePct),
			YesterdayContinuousDays: days,
			YesterdayOpeningTimes:   r.YesterdayOpeningTimes,
			Concepts:                concepts,
		})
	}
	return perf
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// BuildDashboard 组装情绪仪表盘，含与前一交易日的变化
func BuildDashboard(tradeDate string, today, yesterday *model.MarketSnapshot, promotion PromotionResult,
	stage *model.EmotionStageRecord, premium *model.PremiumStats) model.EmotionDashboard {
	dash := model.EmotionDashboard{
		TradeDate:            tradeDate,
		OverallPromotionRate: promotion.Overall,
		PromotionDetails:     promotion.Details,
		Stage:                stage,
		PremiumStats:         premium,
	}
	if dash.PromotionDetails == nil {
		dash.PromotionDetails = make([]model.PromotionDetail, 0)
	}
	if today == nil {
		return dash
	}

	dash.SpaceHeight = today.SpaceHeight()
	dash.LimitUpCount = today.LimitUpCount
	dash.ExplosionRate = today.ExplosionRate
	if yesterday != nil {
		heightChange := dash.SpaceHeight - yesterday.SpaceHeight()
		limitUpChange := today.LimitUpCount - yesterday.LimitUpCount
		explosionChange := Round1(today.ExplosionRate - yesterday.ExplosionRate)
		dash.SpaceHeightChange = &heightChange
		dash.LimitUpChange = &limitUpChange
		dash.ExplosionRateChange = &explosionChange
	}
	return dash
}
