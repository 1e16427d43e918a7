package engine

import (
	"github.com/dewei/SentimentRadar/pkg/model"
)

// Op 阈值比较方式
type Op int

const (
	LE Op = iota // value <= bound
	LT           // value < bound
	GE           // value >= bound
	GT           // value > bound
)

func (o Op) match(value, bound float64) bool {
	switch o {
	case LE:
		return value <= bound
	case LT:
		return value < bound
	case GE:
		return value >= bound
	case GT:
		return value > bound
	}
	return false
}

// Band 阈值区间，按顺序匹配，第一个命中的区间给出得分
type Band struct {
	Op    Op
	Bound float64
	Score float64
}

// BandTable 分段打分表
type BandTable struct {
	Name  string
	Bands []Band
	Else  float64 // 所有区间都未命中时的得分
}

// Score 按表打分
func (t BandTable) Score(value float64) float64 {
	for _, b := range t.Bands {
		if b.Op.match(value, b.Bound) {
			return b.Score
		}
	}
	return t.Else
}

// ScoreOptional 缺失值返回中性分0
func (t BandTable) ScoreOptional(value *float64) float64 {
	if value == nil {
		return 0
	}
	return t.Score(*value)
}

// StageThresholds 情绪阶段判定参数
type StageThresholds struct {
	Version string

	BoardHeight          BandTable
	LimitUpCount         BandTable
	LimitDownCount       BandTable
	ExplosionRate        BandTable
	AvgPremium           BandTable
	BigLossRate          BandTable
	HighBoardBigLossRate BandTable
	AvgPromotionRate     BandTable

	// 总分分界：<=IceMax 冰点，<=WarmingMax 回暖，<=AccelerateMax 加速，其余高潮
	IceMax        int
	WarmingMax    int
	AccelerateMax int

	// 惯性区间半宽
	InertiaBand int

	// 退潮判定
	DeteriorateBigLossRate float64
	DeteriorateMinHeight   int
	RecentPeakDays         int
	// 历史阶段缺失时以空间板高度近似：>=ClimaxProxyHeight 视为高潮，>=AccelerateProxyHeight 视为加速
	ClimaxProxyHeight     int
	AccelerateProxyHeight int
}

// StageThresholdsV23 情绪阶段判定 v2.3 参数
var StageThresholdsV23 = StageThresholds{
	Version: "v2.3",
	BoardHeight: BandTable{Name: model.FactorBoardHeight, Bands: []Band{
		{LE, 2, -2}, {LE, 4, -1}, {LE, 6, 1},
	}, Else: 2},
	LimitUpCount: BandTable{Name: model.FactorLimitUpCount, Bands: []Band{
		{LT, 10, -2}, {LT, 30, -1}, {LT, 70, 0}, {LT, 90, 1},
	}, Else: 2},
	LimitDownCount: BandTable{Name: model.FactorLimitDownCount, Bands: []Band{
		{GE, 50, -2}, {GE, 30, -1}, {GE, 10, 0},
	}, Else: 1},
	ExplosionRate: BandTable{Name: model.FactorExplosionRate, Bands: []Band{
		{GT, 50, -2}, {GT, 35, -1}, {GT, 25, 0}, {GT, 15, 1},
	}, Else: 2},
	AvgPremium: BandTable{Name: model.FactorAvgPremium, Bands: []Band{
		{LT, -3, -2}, {LT, -1, -1}, {LT, 1, 0}, {LT, 3, 1},
	}, Else: 2},
	BigLossRate: BandTable{Name: model.FactorBigLossRate, Bands: []Band{
		{GT, 40, -2}, {GT, 30, -1}, {GT, 20, 0}, {GT, 10, 1},
	}, Else: 2},
	HighBoardBigLossRate: BandTable{Name: model.FactorHighBoardBigLoss, Bands: []Band{
		{GT, 50, -2}, {GT, 30, -1}, {GT, 15, 0},
	}, Else: 1},
	AvgPromotionRate: BandTable{Name: model.FactorAvgPromotionRate, Bands: []Band{
		{LT, 15, -2}, {LT, 25, -1}, {LT, 50, 0}, {LT, 60, 1},
	}, Else: 2},

	IceMax:        -6,
	WarmingMax:    0,
	AccelerateMax: 6,
	InertiaBand:   1,

	DeteriorateBigLossRate: 25,
	DeteriorateMinHeight:   4,
	RecentPeakDays:         3,
	ClimaxProxyHeight:      7,
	AccelerateProxyHeight:  5,
}

// PremiumThresholds 溢价评分参数
type PremiumThresholds struct {
	Version string

	SealMinutes    BandTable // 首封距 09:30 的分钟数
	OpeningPenalty BandTable // 开板次数扣分
	TurnoverRate   BandTable
	SealedRatio    BandTable // 封单额/成交额（小数）
	InflowPct      BandTable // 主力净流入占比(%)
	Position       BandTable // 连板天数

	OneWordFloor       float64
	MainLineMinLimitUp int
	TopConcepts        int

	LadderScores map[model.LadderStatus]float64
	StageScores  map[model.EmotionStage]float64
	MarketWeight float64

	LeaderMinDays int
	LeaderBonus   float64

	// 0~10 分等级下限，从高到低
	LevelFloors []LevelFloor
}

// LevelFloor 等级下限
type LevelFloor struct {
	Min   float64
	Level model.PremiumLevel
}

// PremiumThresholdsV20 溢价评分 v2.0 参数
var PremiumThresholdsV20 = PremiumThresholds{
	Version: "v2.0",
	SealMinutes: BandTable{Name: "seal_minutes", Bands: []Band{
		{LE, 0, 2}, {LE, 30, 1.5}, {LE, 210, 1}, {LE, 270, 0},
	}, Else: -1},
	OpeningPenalty: BandTable{Name: "opening_times", Bands: []Band{
		{GE, 2, -1}, {GE, 1, -0.5},
	}, Else: 0},
	TurnoverRate: BandTable{Name: "turnover_rate", Bands: []Band{
		{LT, 5, -1}, {LT, 10, 0}, {LT, 15, 1}, {LT, 20, 2}, {LT, 25, 1},
	}, Else: 1},
	SealedRatio: BandTable{Name: "sealed_ratio", Bands: []Band{
		{GE, 0.10, 2}, {GE, 0.03, 1}, {GE, 0.005, 0},
	}, Else: -2},
	InflowPct: BandTable{Name: "main_net_inflow_pct", Bands: []Band{
		{LE, -10, -2}, {LT, 0, -1}, {LE, 5, 0}, {LE, 10, 1},
	}, Else: 2},
	Position: BandTable{Name: "continuous_days", Bands: []Band{
		{GE, 7, -2}, {GE, 5, -1}, {GE, 3, 0}, {GE, 2, 1},
	}, Else: 2},

	OneWordFloor:       1.0,
	MainLineMinLimitUp: 8,
	TopConcepts:        10,

	LadderScores: map[model.LadderStatus]float64{
		model.LadderComplete: 2,
		model.LadderNormal:   0,
		model.LadderAlone:    -2,
	},
	StageScores: map[model.EmotionStage]float64{
		model.StageIce:        -2,
		model.StageWarming:    -1,
		model.StageRetreat:    -2,
		model.StageAccelerate: 1,
		model.StageClimax:     2,
	},
	MarketWeight: 0.5,

	LeaderMinDays: 5,
	LeaderBonus:   1.0,

	LevelFloors: []LevelFloor{
		{8, model.PremiumExtreme},
		{7, model.PremiumHigh},
		{6, model.PremiumElevated},
		{5, model.PremiumNeutral},
		{4, model.PremiumLow},
	},
}

// 评分范围
const (
	DimensionMin = -2.0
	DimensionMax = 2.0
	MarketMin    = -1.0
	MarketMax    = 1.0
	TotalMin     = -9.0
	TotalMax     = 9.0
	DisplayMax   = 10.0
)

// 概念梯队参数
const (
	LadderHighBoard  = 4 // 高标：连板数 >= 4
	LadderMinTiers   = 3 // 完整梯队所需层级数
	MaxPromotionTier = 9 // 晋级率计算到 9 进 10
)
