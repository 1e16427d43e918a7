package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LimitType 涨跌停类型
type LimitType string

const (
	LimitUp   LimitType = "limit_up"
	LimitDown LimitType = "limit_down"
)

// Valid 是否为合法的涨跌停类型
func (t LimitType) Valid() bool {
	return t == LimitUp || t == LimitDown
}

// MarketSnapshot 每日市场情绪快照
type MarketSnapshot struct {
	ID             string            `gorm:"type:uuid;primaryKey" json:"id"`
	TradeDate      string            `gorm:"type:varchar(10);uniqueIndex;not null" json:"trade_date"`
	TotalAmount    float64           `gorm:"type:decimal(20,2)" json:"total_amount"` // 两市成交额（元）
	UpCount        int               `json:"up_count"`
	DownCount      int               `json:"down_count"`
	FlatCount      int               `json:"flat_count"`
	LimitUpCount   int               `json:"limit_up_count"`
	LimitDownCount int               `json:"limit_down_count"`
	Distribution   BoardDistribution `gorm:"column:continuous_limit_distribution;type:jsonb" json:"continuous_limit_distribution"`
	ExplodedCount  int               `json:"exploded_count"`
	ExplosionRate  float64           `gorm:"type:decimal(6,2)" json:"explosion_rate"` // 炸板率(%)
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

func (s *MarketSnapshot) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}

// SpaceHeight 空间板高度
func (s *MarketSnapshot) SpaceHeight() int {
	if s == nil {
		return 0
	}
	return s.Distribution.MaxHeight()
}

// LimitStock 涨跌停个股明细
type LimitStock struct {
	ID               string     `gorm:"type:uuid;primaryKey" json:"id"`
	StockCode        string     `gorm:"type:varchar(10);not null;uniqueIndex:idx_limit_stock_key,priority:1" json:"stock_code"`
	StockName        string     `gorm:"type:varchar(50)" json:"stock_name"`
	TradeDate        string     `gorm:"type:varchar(10);not null;index;uniqueIndex:idx_limit_stock_key,priority:2" json:"trade_date"`
	LimitType        LimitType  `gorm:"type:varchar(12);not null;uniqueIndex:idx_limit_stock_key,priority:3" json:"limit_type"`
	ChangePct        float64    `gorm:"type:decimal(8,2)" json:"change_pct"`
	ClosePrice       float64    `gorm:"type:decimal(12,3)" json:"close_price"`
	TurnoverRate     *float64   `gorm:"type:decimal(8,2)" json:"turnover_rate"`
	Amount           *float64   `gorm:"type:decimal(20,2)" json:"amount"`
	FirstLimitTime   *string    `gorm:"type:varchar(8)" json:"first_limit_time"`
	LastLimitTime    *string    `gorm:"type:varchar(8)" json:"last_limit_time"`
	ContinuousDays   int        `gorm:"not null;default:1" json:"continuous_days"`
	OpeningTimes     int        `gorm:"not null;default:0" json:"opening_times"`
	SealedAmount     *float64   `gorm:"type:decimal(20,2)" json:"sealed_amount"`
	MainNetInflow    *float64   `gorm:"type:decimal(20,2)" json:"main_net_inflow"`
	MainNetInflowPct *float64   `gorm:"type:decimal(8,2)" json:"main_net_inflow_pct"`
	Concepts         StringList `gorm:"type:jsonb" json:"concepts"`
	Industry         string     `gorm:"type:varchar(50)" json:"industry"`
	IsStrongLimit    bool       `gorm:"default:false" json:"is_strong_limit"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (s *LimitStock) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}

// MaxConcepts 每只股票保留的概念数量上限
const MaxConcepts = 5

// IsFirstBoard 是否首板
func (s *LimitStock) IsFirstBoard() bool {
	return s.ContinuousDays <= 1
}

// IsOneWord 是否一字板（开盘即封且未开板）
func (s *LimitStock) IsOneWord() bool {
	return s.IsStrongLimit && s.OpeningTimes == 0
}

// IsGrowthBoard 是否创业板/科创板代码
func (s *LimitStock) IsGrowthBoard() bool {
	return strings.HasPrefix(s.StockCode, "300") || strings.HasPrefix(s.StockCode, "688")
}

// HasConcept 是否属于某概念
func (s *LimitStock) HasConcept(name string) bool {
	for _, c := range s.Concepts {
		if c == name {
			return true
		}
	}
	return false
}

// YesterdayLimitPerformance 昨日涨停股今日表现
type YesterdayLimitPerformance struct {
	ID                      string     `gorm:"type:uuid;primaryKey" json:"id"`
	StockCode               string     `gorm:"type:varchar(10);not null;uniqueIndex:idx_yesterday_key,priority:1" json:"stock_code"`
	StockName               string     `gorm:"type:varchar(50)" json:"stock_name"`
	TradeDate               string     `gorm:"type:varchar(10);not null;index;uniqueIndex:idx_yesterday_key,priority:2" json:"trade_date"`
	YesterdayDate           string     `gorm:"type:varchar(10)" json:"yesterday_date"`
	YesterdayContinuousDays int        `json:"yesterday_continuous_days"`
	YesterdayOpeningTimes   int        `json:"yesterday_opening_times"`
	YesterdayConcepts       StringList `gorm:"type:jsonb" json:"yesterday_concepts"`
	TodayOpenPct            *float64   `gorm:"type:decimal(8,2)" json:"today_open_pct"`
	TodayChangePct          *float64   `gorm:"type:decimal(8,2)" json:"today_change_pct"`
	TodayHighPct            *float64   `gorm:"type:decimal(8,2)" json:"today_high_pct"`
	TodayLowPct             *float64   `gorm:"type:decimal(8,2)" json:"today_low_pct"`
	TodayAmount             *float64   `gorm:"type:decimal(20,2)" json:"today_amount"`
	IsLimitUp               bool       `json:"is_limit_up"`
	IsLimitDown             bool       `json:"is_limit_down"`
	IsBigLoss               bool       `json:"is_big_loss"`
	IsBigHigh               bool       `json:"is_big_high"`
	CreatedAt               time.Time  `json:"created_at"`
	UpdatedAt               time.Time  `json:"updated_at"`
}

func (y *YesterdayLimitPerformance) BeforeCreate(tx *gorm.DB) error {
	if y.ID == "" {
		y.ID = uuid.New().String()
	}
	return nil
}

// HotConcept 热门概念
type HotConcept struct {
	ID                   string    `gorm:"type:uuid;primaryKey" json:"id"`
	ConceptName          string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_hot_concept_key,priority:2" json:"concept_name"`
	TradeDate            string    `gorm:"type:varchar(10);not null;index;uniqueIndex:idx_hot_concept_key,priority:1" json:"trade_date"`
	DayChangePct         float64   `gorm:"type:decimal(8,2)" json:"day_change_pct"`
	ChangePct            float64   `gorm:"type:decimal(8,2)" json:"change_pct"` // 近5日涨幅
	LimitUpCount         int       `json:"limit_up_count"`
	TotalCount           int       `json:"total_count"`
	Rank                 int       `gorm:"index" json:"rank"`
	IsMainLine           bool      `json:"is_main_line"`
	LeaderStockCode      string    `gorm:"type:varchar(10)" json:"leader_stock_code"`
	LeaderStockName      string    `gorm:"type:varchar(50)" json:"leader_stock_name"`
	LeaderContinuousDays int       `json:"leader_continuous_days"`
	LeaderChangePct      float64   `gorm:"type:decimal(8,2)" json:"leader_change_pct"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

func (h *HotConcept) BeforeCreate(tx *gorm.DB) error {
	if h.ID == "" {
		h.ID = uuid.New().String()
	}
	return nil
}

// DailyBar 日线行情（用于次日表现）
type DailyBar struct {
	StockCode    string   `json:"stock_code"`
	TradeDate    string   `json:"trade_date"`
	Open         float64  `json:"open"`
	High         float64  `json:"high"`
	Low          float64  `json:"low"`
	Close        float64  `json:"close"`
	PreClose     float64  `json:"pre_close"`
	ChangePct    float64  `json:"change_pct"`
	Amount       float64  `json:"amount"`
	TurnoverRate *float64 `json:"turnover_rate"`
}

// OpenPct 开盘涨幅
func (b *DailyBar) OpenPct() *float64 {
	return b.pctOf(b.Open)
}

// HighPct 最高涨幅
func (b *DailyBar) HighPct() *float64 {
	return b.pctOf(b.High)
}

// LowPct 最低涨幅
func (b *DailyBar) LowPct() *float64 {
	return b.pctOf(b.Low)
}

func (b *DailyBar) pctOf(price float64) *float64 {
	if b.PreClose <= 0 {
		return nil
	}
	v := (price - b.PreClose) / b.PreClose * 100
	return &v
}
