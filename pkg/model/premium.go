package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PremiumLevel 溢价等级
type PremiumLevel string

const (
	PremiumExtreme  PremiumLevel = "极高"
	PremiumHigh     PremiumLevel = "高"
	PremiumElevated PremiumLevel = "偏高"
	PremiumNeutral  PremiumLevel = "中性"
	PremiumLow      PremiumLevel = "偏低"
	PremiumBottom   PremiumLevel = "低"
)

// PremiumLevels 从高到低排列的全部等级
var PremiumLevels = []PremiumLevel{
	PremiumExtreme, PremiumHigh, PremiumElevated, PremiumNeutral, PremiumLow, PremiumBottom,
}

// Color 等级颜色
func (l PremiumLevel) Color() string {
	switch l {
	case PremiumExtreme:
		return "red"
	case PremiumHigh:
		return "orange"
	case PremiumElevated:
		return "yellow"
	case PremiumNeutral:
		return "gray"
	case PremiumLow:
		return "blue"
	default:
		return "purple"
	}
}

// TechnicalDetail 技术面评分详情
type TechnicalDetail struct {
	FirstLimitTime *string  `json:"first_limit_time"`
	SealMinutes    *int     `json:"seal_minutes"`
	OpeningTimes   int      `json:"opening_times"`
	TurnoverRate   *float64 `json:"turnover_rate"`
	IsOneWord      bool     `json:"is_one_word"`
	TimeScore      float64  `json:"time_score"`
	TurnoverScore  float64  `json:"turnover_score"`
	FinalScore     float64  `json:"final_score"`
}

// CapitalDetail 资金面评分详情
type CapitalDetail struct {
	SealedAmount     *float64 `json:"sealed_amount"`
	Amount           *float64 `json:"amount"`
	SealedRatio      *float64 `json:"sealed_ratio"`
	MainNetInflow    *float64 `json:"main_net_inflow"`
	MainNetInflowPct *float64 `json:"main_net_inflow_pct"`
	SealedScore      float64  `json:"sealed_score"`
	InflowScore      float64  `json:"inflow_score"`
	FinalScore       float64  `json:"final_score"`
}

// ThemeDetail 题材地位评分详情
type ThemeDetail struct {
	MainConcept  string       `json:"main_concept,omitempty"`
	IsInTop10    bool         `json:"is_in_top10"`
	IsMainLine   bool         `json:"is_main_line"`
	LadderStatus LadderStatus `json:"ladder_status"`
	HotScore     float64      `json:"theme_hot_score"`
	LadderScore  float64      `json:"ladder_score"`
	FinalScore   float64      `json:"final_score"`
}

// PositionDetail 位置风险评分详情
type PositionDetail struct {
	ContinuousDays int     `json:"continuous_days"`
	RiskLevel      string  `json:"position_risk_level"`
	FinalScore     float64 `json:"final_score"`
}

// MarketDetail 市场环境评分详情
type MarketDetail struct {
	EmotionStage EmotionStage `json:"emotion_stage"`
	StageColor   string       `json:"emotion_stage_color"`
	RawScore     float64      `json:"raw_score"`
	FinalScore   float64      `json:"final_score"`
}

// PremiumScore 明日溢价概率评分
type PremiumScore struct {
	ID                string       `gorm:"type:uuid;primaryKey" json:"id"`
	StockCode         string       `gorm:"type:varchar(10);not null;uniqueIndex:idx_premium_key,priority:1" json:"stock_code"`
	StockName         string       `gorm:"type:varchar(50)" json:"stock_name"`
	TradeDate         string       `gorm:"type:varchar(10);not null;index;uniqueIndex:idx_premium_key,priority:2" json:"trade_date"`
	ContinuousDays    int          `json:"continuous_days"`
	RawTotal          float64      `gorm:"type:decimal(6,2)" json:"raw_total"`         // -9 ~ +9
	TotalScore        float64      `gorm:"type:decimal(5,2);index" json:"total_score"` // 0 ~ 10
	PremiumLevel      PremiumLevel `gorm:"type:varchar(8);index" json:"premium_level"`
	PremiumLevelColor string       `gorm:"type:varchar(10)" json:"premium_level_color"`
	LeaderBonus       bool         `json:"leader_bonus"`

	// 各维度原始得分
	TechnicalRaw float64 `gorm:"type:decimal(5,2)" json:"technical_raw"`
	CapitalRaw   float64 `gorm:"type:decimal(5,2)" json:"capital_raw"`
	ThemeRaw     float64 `gorm:"type:decimal(5,2)" json:"theme_raw"`
	PositionRaw  float64 `gorm:"type:decimal(5,2)" json:"position_raw"`
	MarketRaw    float64 `gorm:"type:decimal(5,2)" json:"market_raw"`

	// 各维度 0~10 展示分
	TechnicalScore float64 `gorm:"type:decimal(5,2)" json:"technical_score"`
	CapitalScore   float64 `gorm:"type:decimal(5,2)" json:"capital_score"`
	ThemeScore     float64 `gorm:"type:decimal(5,2)" json:"theme_score"`
	PositionScore  float64 `gorm:"type:decimal(5,2)" json:"position_score"`
	MarketScore    float64 `gorm:"type:decimal(5,2)" json:"market_score"`

	TechnicalDetail TechnicalDetail `gorm:"-" json:"technical_detail"`
	CapitalDetail   CapitalDetail   `gorm:"-" json:"capital_detail"`
	ThemeDetail     ThemeDetail     `gorm:"-" json:"theme_detail"`
	PositionDetail  PositionDetail  `gorm:"-" json:"position_detail"`
	MarketDetail    MarketDetail    `gorm:"-" json:"market_detail"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *PremiumScore) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}
