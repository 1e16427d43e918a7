package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PredictionResult 预测准确性
type PredictionResult string

const (
	PredictionCorrect PredictionResult = "correct"
	PredictionWrong   PredictionResult = "wrong"
	PredictionNeutral PredictionResult = "neutral"
	PredictionUnknown PredictionResult = "unknown"
)

// BacktestRecord 溢价评分回测记录
type BacktestRecord struct {
	ID             string       `gorm:"type:uuid;primaryKey" json:"id"`
	StockCode      string       `gorm:"type:varchar(10);not null;uniqueIndex:idx_backtest_key,priority:1" json:"stock_code"`
	StockName      string       `gorm:"type:varchar(50)" json:"stock_name"`
	TradeDate      string       `gorm:"type:varchar(10);not null;index;uniqueIndex:idx_backtest_key,priority:2" json:"trade_date"`
	ContinuousDays int          `json:"continuous_days"`
	TotalScore     float64      `gorm:"type:decimal(5,2);index" json:"total_score"`
	PremiumLevel   PremiumLevel `gorm:"type:varchar(8);index" json:"premium_level"`
	TechnicalScore float64      `gorm:"type:decimal(5,2)" json:"technical_score"`
	CapitalScore   float64      `gorm:"type:decimal(5,2)" json:"capital_score"`
	ThemeScore     float64      `gorm:"type:decimal(5,2)" json:"theme_score"`
	PositionScore  float64      `gorm:"type:decimal(5,2)" json:"position_score"`
	MarketScore    float64      `gorm:"type:decimal(5,2)" json:"market_score"`

	NextTradeDate       string           `gorm:"type:varchar(10)" json:"next_trade_date,omitempty"`
	NextDayChangePct    *float64         `gorm:"type:decimal(8,2)" json:"next_day_change_pct"`
	NextDayClosePrice   *float64         `gorm:"type:decimal(12,3)" json:"next_day_close_price"`
	NextDayTurnoverRate *float64         `gorm:"type:decimal(8,2)" json:"next_day_turnover_rate"`
	IsNextDayLimitUp    bool             `json:"is_next_day_limit_up"`
	IsNextDayLimitDown  bool             `json:"is_next_day_limit_down"`
	PredictionResult    PredictionResult `gorm:"type:varchar(10)" json:"prediction_result"`
	IsProfitable        bool             `json:"is_profitable"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *BacktestRecord) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	return nil
}

// HasNextDay 是否已有次日数据
func (b *BacktestRecord) HasNextDay() bool {
	return b.NextDayChangePct != nil
}

// BacktestFilter 回测查询条件
type BacktestFilter struct {
	StartDate string
	EndDate   string
	MinScore  *float64
	MaxScore  *float64
	Page      int
	PageSize  int
}

// BacktestGroupStats 某一分组的回测统计
type BacktestGroupStats struct {
	Count              int     `json:"count"`
	AvgNextDayPct      float64 `json:"avg_next_day_pct"`
	LimitUpCount       int     `json:"limit_up_count"`
	LimitUpRate        float64 `json:"limit_up_rate"`
	ProfitableCount    int     `json:"profitable_count"`
	ProfitableRate     float64 `json:"profitable_rate"`
	CorrectPredictions int     `json:"correct_predictions"`
	PredictionAccuracy float64 `json:"prediction_accuracy"`
}

// BacktestStats 回测统计
type BacktestStats struct {
	Total   int                                 `json:"total"`
	ByLevel map[PremiumLevel]BacktestGroupStats `json:"by_level"`
	Overall BacktestGroupStats                  `json:"overall"`
}

// BacktestCorrelation 评分与次日涨幅的相关性
type BacktestCorrelation struct {
	SampleSize int                      `json:"sample_size"`
	Overall    *float64                 `json:"overall"`
	ByLevel    map[PremiumLevel]float64 `json:"by_level"`
}
