package collector

import (
	"context"

	"github.com/dewei/SentimentRadar/pkg/model"
)

// MarketDataSource 市场快照与涨跌停池
type MarketDataSource interface {
	GetDailySnapshot(ctx context.Context, date string) (*model.MarketSnapshot, error)
	GetLimitStocks(ctx context.Context, date string, limitType model.LimitType) ([]model.LimitStock, error)
}

// ConceptMembership 概念成分股查询，返回6位代码
type ConceptMembership interface {
	GetConceptMembers(ctx context.Context, concept string) ([]string, error)
}

// HotConceptSource 当日概念板块涨幅榜
type HotConceptSource interface {
	GetHotConcepts(ctx context.Context, date string, topN int) ([]model.HotConcept, error)
}

// DailyBarSource 日线行情，结果以6位代码为键
type DailyBarSource interface {
	GetDailyBars(ctx context.Context, codes []string, date string) (map[string]model.DailyBar, error)
}

// TradingCalendar 交易日历
type TradingCalendar interface {
	// TradingDays 返回 [from, to] 内的交易日，升序
	TradingDays(ctx context.Context, from, to string) ([]string, error)
}
