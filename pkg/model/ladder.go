package model

// LadderStatus 梯队状态
type LadderStatus string

const (
	LadderComplete LadderStatus = "complete"
	LadderNormal   LadderStatus = "normal"
	LadderAlone    LadderStatus = "alone"
)

// LadderTier 梯队层级
type LadderTier struct {
	Days   int      `json:"days"`
	Count  int      `json:"count"`
	Stocks []string `json:"stocks"`
}

// ConceptLeader 概念龙头
type ConceptLeader struct {
	StockCode      string  `json:"stock_code"`
	StockName      string  `json:"stock_name"`
	ContinuousDays int     `json:"continuous_days"`
	ChangePct      float64 `json:"change_pct"`
}

// ConceptLadderItem 概念梯队项
type ConceptLadderItem struct {
	ConceptName       string         `json:"concept_name"`
	Rank              int            `json:"rank"`
	MaxContinuousDays int            `json:"max_continuous_days"`
	TotalLimitUpCount int            `json:"total_limit_up_count"`
	ConceptChangePct  *float64       `json:"concept_change_pct"`
	LadderStatus      LadderStatus   `json:"ladder_status"`
	IsMainLine        bool           `json:"is_main_line"`
	Leader            *ConceptLeader `json:"leader"`
	Ladder            []LadderTier   `json:"ladder"`
}

// ConceptLadder 概念梯队分析结果
type ConceptLadder struct {
	TradeDate string              `json:"trade_date"`
	Available bool                `json:"available"`
	Concepts  []ConceptLadderItem `json:"concepts"`
}

// TechnicalLevel 技术面/资金面评级
type TechnicalLevel string

const (
	LevelStrong TechnicalLevel = "strong"
	LevelNormal TechnicalLevel = "normal"
	LevelWeak   TechnicalLevel = "weak"
)

// Conclusion 龙头综合结论
type Conclusion string

const (
	ConclusionOpportunity Conclusion = "opportunity"
	ConclusionNeutral     Conclusion = "neutral"
	ConclusionRisk        Conclusion = "risk"
)

// LeaderAnalysis 龙头股深度分析
type LeaderAnalysis struct {
	StockCode      string   `json:"stock_code"`
	StockName      string   `json:"stock_name"`
	ContinuousDays int      `json:"continuous_days"`
	IsTop          bool     `json:"is_top"`
	Concepts       []string `json:"concepts"`
	Industry       string   `json:"industry,omitempty"`

	FirstLimitTime      *string        `json:"first_limit_time"`
	FirstLimitTimeLevel TechnicalLevel `json:"first_limit_time_level"`
	OpeningTimes        int            `json:"opening_times"`
	OpeningTimesLevel   TechnicalLevel `json:"opening_times_level"`
	TurnoverRate        *float64       `json:"turnover_rate"`
	TurnoverRateLevel   TechnicalLevel `json:"turnover_rate_level"`
	MainNetInflowPct    *float64       `json:"main_net_inflow_pct"`
	InflowLevel         TechnicalLevel `json:"main_net_inflow_level"`
	SealedRatio         *float64       `json:"sealed_ratio"`
	SealedRatioLevel    TechnicalLevel `json:"sealed_ratio_level"`

	MainConcept   string       `json:"main_concept,omitempty"`
	LadderStatus  LadderStatus `json:"ladder_status"`
	FollowerCount int          `json:"follower_count"`
	LadderDetail  []LadderTier `json:"ladder_detail"`

	PositiveFactors []string   `json:"positive_factors"`
	NegativeFactors []string   `json:"negative_factors"`
	Conclusion      Conclusion `json:"conclusion"`
	ConclusionText  string     `json:"conclusion_text"`
}
