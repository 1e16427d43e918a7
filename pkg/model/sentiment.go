package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EmotionStage 情绪阶段
type EmotionStage string

const (
	StageIce        EmotionStage = "冰点期"
	StageWarming    EmotionStage = "回暖期"
	StageAccelerate EmotionStage = "加速期"
	StageClimax     EmotionStage = "高潮期"
	StageRetreat    EmotionStage = "退潮期"
)

// Color 阶段对应的展示颜色
func (s EmotionStage) Color() string {
	switch s {
	case StageIce:
		return "blue"
	case StageWarming:
		return "yellow"
	case StageAccelerate:
		return "orange"
	case StageClimax:
		return "red"
	case StageRetreat:
		return "green"
	default:
		return "gray"
	}
}

// IsPeak 是否属于情绪高位（加速/高潮）
func (s EmotionStage) IsPeak() bool {
	return s == StageAccelerate || s == StageClimax
}

// Valid 是否为已知阶段
func (s EmotionStage) Valid() bool {
	switch s {
	case StageIce, StageWarming, StageAccelerate, StageClimax, StageRetreat:
		return true
	}
	return false
}

// 因子名称
const (
	FactorBoardHeight      = "board_height"
	FactorLimitUpCount     = "limit_up_count"
	FactorLimitDownCount   = "limit_down_count"
	FactorExplosionRate    = "explosion_rate"
	FactorAvgPremium       = "avg_premium"
	FactorBigLossRate      = "big_loss_rate"
	FactorHighBoardBigLoss = "high_board_big_loss_rate"
	FactorAvgPromotionRate = "avg_promotion_rate"
)

// FactorNames 八个情绪因子，按固定顺序
var FactorNames = []string{
	FactorBoardHeight,
	FactorLimitUpCount,
	FactorLimitDownCount,
	FactorExplosionRate,
	FactorAvgPremium,
	FactorBigLossRate,
	FactorHighBoardBigLoss,
	FactorAvgPromotionRate,
}

// EmotionStageRecord 每日情绪阶段判定结果
type EmotionStageRecord struct {
	ID               string       `gorm:"type:uuid;primaryKey" json:"id"`
	TradeDate        string       `gorm:"type:varchar(10);uniqueIndex;not null" json:"trade_date"`
	FactorValues     FactorMap    `gorm:"type:jsonb" json:"factor_values"` // 缺失的因子不出现
	FactorScores     FactorMap    `gorm:"type:jsonb" json:"factor_scores"`
	TotalScore       int          `json:"total_score"`
	StageRaw         EmotionStage `gorm:"type:varchar(10)" json:"stage_raw"`
	Stage            EmotionStage `gorm:"type:varchar(10);index" json:"stage"`
	StageColor       string       `gorm:"type:varchar(10)" json:"stage_color"`
	UsedInertia      bool         `json:"used_inertia"`
	PreviousStage    EmotionStage `gorm:"type:varchar(10)" json:"previous_stage,omitempty"`
	HadRecentPeak    bool         `json:"had_recent_peak"`
	IsDeteriorating  bool         `json:"is_deteriorating"`
	InsufficientData bool         `json:"insufficient_data"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

func (r *EmotionStageRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// ScoringStage 用于溢价评分的阶段，数据不足时返回空阶段（市场维度按中性计）
func (r *EmotionStageRecord) ScoringStage() EmotionStage {
	if r == nil || r.InsufficientData {
		return ""
	}
	return r.Stage
}

// PromotionDetail 晋级率详情
type PromotionDetail struct {
	FromDays       int     `json:"from_days"`
	ToDays         int     `json:"to_days"`
	YesterdayCount int     `json:"yesterday_count"`
	TodayCount     int     `json:"today_count"`
	Rate           float64 `json:"rate"`
}

// PremiumStats 昨日涨停溢价统计
type PremiumStats struct {
	AvgPremium           *float64 `json:"avg_premium"`
	AvgOpenPremium       *float64 `json:"avg_open_premium"`
	FirstBoardPremium    *float64 `json:"first_board_premium"`
	SecondBoardPremium   *float64 `json:"second_board_premium"`
	HighBoardPremium     *float64 `json:"high_board_premium"`
	PromotionCount       int      `json:"promotion_count"`
	PromotionRate        *float64 `json:"promotion_rate"`
	BigLossRate          *float64 `json:"big_loss_rate"`
	HighBoardBigLossRate *float64 `json:"high_board_big_loss_rate"`
	SampleSize           int      `json:"sample_size"`
}

// BigLossStock 大面个股
type BigLossStock struct {
	StockCode               string   `json:"stock_code"`
	StockName               string   `json:"stock_name"`
	TodayChangePct          float64  `json:"today_change_pct"`
	YesterdayContinuousDays int      `json:"yesterday_continuous_days"`
	YesterdayOpeningTimes   int      `json:"yesterday_opening_times"`
	Concepts                []string `json:"concepts"`
}

// YesterdayPerformance 昨日涨停今日表现汇总
type YesterdayPerformance struct {
	YesterdayLimitUpCount int            `json:"yesterday_limit_up_count"`
	TodayAvgChange        *float64       `json:"today_avg_change"`
	UpCount               int            `json:"up_count"`
	DownCount             int            `json:"down_count"`
	BigLossCount          int            `json:"big_loss_count"`
	BigLossRate           float64        `json:"big_loss_rate"`
	BigLossStocks         []BigLossStock `json:"big_loss_stocks"`
}

// EmotionDashboard 情绪周期仪表盘
type EmotionDashboard struct {
	TradeDate            string              `json:"trade_date"`
	SpaceHeight          int                 `json:"space_height"`
	SpaceHeightChange    *int                `json:"space_height_change"`
	LimitUpCount         int                 `json:"limit_up_count"`
	LimitUpChange        *int                `json:"limit_up_change"`
	ExplosionRate        float64             `json:"explosion_rate"`
	ExplosionRateChange  *float64            `json:"explosion_rate_change"`
	OverallPromotionRate *float64            `json:"overall_promotion_rate"`
	PromotionDetails     []PromotionDetail   `json:"promotion_details"`
	Stage                *EmotionStageRecord `json:"stage"`
	PremiumStats         *PremiumStats       `json:"premium_stats"`
}

// SentimentAnalysis 情绪分析完整数据
type SentimentAnalysis struct {
	TradeDate            string               `json:"trade_date"`
	Dashboard            EmotionDashboard     `json:"emotion_dashboard"`
	YesterdayPerformance YesterdayPerformance `json:"yesterday_performance"`
	ConceptLadder        ConceptLadder        `json:"concept_ladder"`
	LeaderAnalysis       []LeaderAnalysis     `json:"leader_analysis"`
}
