package engine

import (
	"log"
	"math"

	"github.com/dewei/SentimentRadar/pkg/model"
)

// StageFactors 八个情绪因子的原始值，nil 表示数据缺失
type StageFactors struct {
	BoardHeight          *float64
	LimitUpCount         *float64
	LimitDownCount       *float64
	ExplosionRate        *float64
	AvgPremium           *float64
	BigLossRate          *float64
	HighBoardBigLossRate *float64
	AvgPromotionRate     *float64
}

// NewStageFactors 从市场快照、昨日涨停溢价统计和晋级率组装因子
func NewStageFactors(snapshot *model.MarketSnapshot, premium *model.PremiumStats, promotion PromotionResult) StageFactors {
	var f StageFactors
	if snapshot != nil {
		f.BoardHeight = model.Float(float64(snapshot.SpaceHeight()))
		f.LimitUpCount = model.Float(float64(snapshot.LimitUpCount))
		f.LimitDownCount = model.Float(float64(snapshot.LimitDownCount))
		f.ExplosionRate = model.Float(snapshot.ExplosionRate)
	}
	if premium != nil {
		f.AvgPremium = premium.AvgPremium
		f.BigLossRate = premium.BigLossRate
		f.HighBoardBigLossRate = premium.HighBoardBigLossRate
	}
	f.AvgPromotionRate = promotion.Average
	return f
}

// StageInput 单日情绪判定输入
type StageInput struct {
	TradeDate     string
	Snapshot      *model.MarketSnapshot
	Premium       *model.PremiumStats
	Promotion     PromotionResult
	HadRecentPeak bool
}

// PreviousStageGetter 返回 tradeDate 前一交易日的情绪阶段
// ok=false 表示没有可用的前一日阶段（递归的终止条件）
type PreviousStageGetter func(tradeDate string) (stage model.EmotionStage, ok bool, err error)

// NoPreviousStage 不参考前一日阶段
func NoPreviousStage(string) (model.EmotionStage, bool, error) {
	return "", false, nil
}

// StageClassifier 情绪阶段分类器
type StageClassifier struct {
	t StageThresholds
}

// NewStageClassifier 创建分类器
func NewStageClassifier(t StageThresholds) *StageClassifier {
	return &StageClassifier{t: t}
}

// Thresholds 当前使用的参数
func (c *StageClassifier) Thresholds() StageThresholds {
	return c.t
}

type scoredFactor struct {
	name  string
	table BandTable
	value *float64
}

func (c *StageClassifier) factors(f StageFactors) []scoredFactor {
	return []scoredFactor{
		{model.FactorBoardHeight, c.t.BoardHeight, f.BoardHeight},
		{model.FactorLimitUpCount, c.t.LimitUpCount, f.LimitUpCount},
		{model.FactorLimitDownCount, c.t.LimitDownCount, f.LimitDownCount},
		{model.FactorExplosionRate, c.t.ExplosionRate, f.ExplosionRate},
		{model.FactorAvgPremium, c.t.AvgPremium, f.AvgPremium},
		{model.FactorBigLossRate, c.t.BigLossRate, f.BigLossRate},
		{model.FactorHighBoardBigLoss, c.t.HighBoardBigLossRate, f.HighBoardBigLossRate},
		{model.FactorAvgPromotionRate, c.t.AvgPromotionRate, f.AvgPromotionRate},
	}
}

// ScoreFactors 对八个因子逐一打分，返回原始值、得分与总分
func (c *StageClassifier) ScoreFactors(f StageFactors) (model.FactorMap, model.FactorMap, int) {
	values := make(model.FactorMap, len(model.FactorNames))
	scores := make(model.FactorMap, len(model.FactorNames))
	total := 0
	for _, sf := range c.factors(f) {
		score := sf.table.ScoreOptional(sf.value)
		if sf.value != nil {
			values[sf.name] = *sf.value
		}
		scores[sf.name] = score
		total += int(score)
	}
	return values, scores, total
}

// IsDeteriorating 恶化判断：大面率高、溢价为负且空间板尚未塌陷
func (c *StageClassifier) IsDeteriorating(f StageFactors) bool {
	if f.BigLossRate == nil || f.AvgPremium == nil || f.BoardHeight == nil {
		return false
	}
	return *f.BigLossRate > c.t.DeteriorateBigLossRate &&
		*f.AvgPremium < 0 &&
		int(*f.BoardHeight) >= c.t.DeteriorateMinHeight
}

// StageByScore 按总分分界映射阶段（不含退潮）
func (c *StageClassifier) StageByScore(total int) model.EmotionStage {
	switch {
	case total <= c.t.IceMax:
		return model.StageIce
	case total <= c.t.WarmingMax:
		return model.StageWarming
	case total <= c.t.AccelerateMax:
		return model.StageAccelerate
	default:
		return model.StageClimax
	}
}

// RawStage 计算原始阶段（不带惯性）
func (c *StageClassifier) RawStage(total int, hadRecentPeak, deteriorating bool) model.EmotionStage {
	if hadRecentPeak && deteriorating && total < 0 {
		return model.StageRetreat
	}
	return c.StageByScore(total)
}

// boundary 返回两个相邻阶段之间的分界分数，退潮期按回暖期处理
func (c *StageClassifier) boundary(a, b model.EmotionStage) (int, bool) {
	a, b = inertiaStage(a), inertiaStage(b)
	pair := func(x, y model.EmotionStage) bool {
		return (a == x && b == y) || (a == y && b == x)
	}
	switch {
	case pair(model.StageIce, model.StageWarming):
		return c.t.IceMax, true
	case pair(model.StageWarming, model.StageAccelerate):
		return c.t.WarmingMax, true
	case pair(model.StageAccelerate, model.StageClimax):
		return c.t.AccelerateMax, true
	}
	return 0, false
}

func inertiaStage(s model.EmotionStage) model.EmotionStage {
	if s == model.StageRetreat {
		return model.StageWarming
	}
	return s
}

// ApplyInertia 惯性区间：总分落在相邻阶段分界 ±InertiaBand 内时沿用昨日阶段
func (c *StageClassifier) ApplyInertia(raw, previous model.EmotionStage, total int) (model.EmotionStage, bool) {
	if previous == "" || previous == raw {
		return raw, false
	}
	b, ok := c.boundary(previous, raw)
	if !ok {
		return raw, false
	}
	if int(math.Abs(float64(total-b))) <= c.t.InertiaBand {
		return previous, true
	}
	return raw, false
}

// Empty 无快照时的默认结果：冰点期、全部因子为0
func (c *StageClassifier) Empty(tradeDate string) *model.EmotionStageRecord {
	scores := make(model.FactorMap, len(model.FactorNames))
	for _, name := range model.FactorNames {
		scores[name] = 0
	}
	return &model.EmotionStageRecord{
		TradeDate:        tradeDate,
		FactorValues:     model.FactorMap{},
		FactorScores:     scores,
		StageRaw:         model.StageIce,
		Stage:            model.StageIce,
		StageColor:       model.StageIce.Color(),
		InsufficientData: true,
	}
}

// ProxyStage 用空间板高度近似历史阶段，仅用于判断近期是否出现过高峰
func (c *StageClassifier) ProxyStage(snapshot *model.MarketSnapshot) model.EmotionStage {
	h := snapshot.SpaceHeight()
	switch {
	case h >= c.t.ClimaxProxyHeight:
		return model.StageClimax
	case h >= c.t.AccelerateProxyHeight:
		return model.StageAccelerate
	default:
		return ""
	}
}

// Classify 判定单日情绪阶段
// previous 仅在当日有快照时被调用，返回错误时按无前一日阶段处理
func (c *StageClassifier) Classify(in StageInput, previous PreviousStageGetter) *model.EmotionStageRecord {
	if in.Snapshot == nil {
		return c.Empty(in.TradeDate)
	}

	factors := NewStageFactors(in.Snapshot, in.Premium, in.Promotion)
	values, scores, total := c.ScoreFactors(factors)
	deteriorating := c.IsDeteriorating(factors)
	raw := c.RawStage(total, in.HadRecentPeak, deteriorating)

	var prev model.EmotionStage
	if previous != nil {
		stage, ok, err := previous(in.TradeDate)
		if err != nil {
			log.Printf("获取 %s 前一交易日情绪阶段失败: %v", in.TradeDate, err)
		} else if ok {
			prev = stage
		}
	}

	stage, used := c.ApplyInertia(raw, prev, total)
	if used {
		log.Printf("惯性区间生效: 日期=%s 总分=%d 原始阶段=%s 沿用昨日=%s", in.TradeDate, total, raw, prev)
	}

	return &model.EmotionStageRecord{
		TradeDate:       in.TradeDate,
		FactorValues:    values,
		FactorScores:    scores,
		TotalScore:      total,
		StageRaw:        raw,
		Stage:           stage,
		StageColor:      stage.Color(),
		UsedInertia:     used,
		PreviousStage:   prev,
		HadRecentPeak:   in.HadRecentPeak,
		IsDeteriorating: deteriorating,
	}
}

var defaultClassifier = NewStageClassifier(StageThresholdsV23)

// Classify 使用默认参数判定情绪阶段
func Classify(in StageInput, previous PreviousStageGetter) *model.EmotionStageRecord {
	return defaultClassifier.Classify(in, previous)
}
