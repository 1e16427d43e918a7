package repository

import (
	"context"

	"github.com/dewei/SentimentRadar/pkg/model"
)

// LimitStockQuery 涨跌停个股查询条件
type LimitStockQuery struct {
	TradeDate         string
	LimitType         model.LimitType
	MinContinuousDays int
	Codes             []string
	Page              int
	PageSize          int
}

// SnapshotStore 市场快照
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snapshot *model.MarketSnapshot) error
	// GetSnapshot 不存在时返回 model.ErrSnapshotNotFound
	GetSnapshot(ctx context.Context, tradeDate string) (*model.MarketSnapshot, error)
	// PreviousSnapshot 早于 tradeDate 的最近一个快照，不存在时返回 model.ErrSnapshotNotFound
	PreviousSnapshot(ctx context.Context, tradeDate string) (*model.MarketSnapshot, error)
	// RecentSnapshots 早于 tradeDate 的最近 n 个快照，日期降序
	RecentSnapshots(ctx context.Context, tradeDate string, n int) ([]model.MarketSnapshot, error)
}

// LimitStockStore 涨跌停个股
type LimitStockStore interface {
	SaveLimitStocks(ctx context.Context, stocks []model.LimitStock) error
	// GetLimitStock 不存在时返回 model.ErrStockNotFound
	GetLimitStock(ctx context.Context, code, tradeDate string, limitType model.LimitType) (*model.LimitStock, error)
	// ListLimitStocks 按连板数降序，返回当页数据与总数
	ListLimitStocks(ctx context.Context, q LimitStockQuery) ([]model.LimitStock, int64, error)
}

// PerformanceStore 昨日涨停今日表现
type PerformanceStore interface {
	SaveYesterdayPerformance(ctx context.Context, rows []model.YesterdayLimitPerformance) error
	ListYesterdayPerformance(ctx context.Context, tradeDate string) ([]model.YesterdayLimitPerformance, error)
}

// ConceptStore 热门概念
type ConceptStore interface {
	SaveHotConcepts(ctx context.Context, concepts []model.HotConcept) error
	// ListHotConcepts 按排名升序，topN<=0 返回全部
	ListHotConcepts(ctx context.Context, tradeDate string, topN int) ([]model.HotConcept, error)
}

// EmotionStore 情绪阶段
type EmotionStore interface {
	SaveEmotionStage(ctx context.Context, record *model.EmotionStageRecord) error
	// GetEmotionStage 不存在时返回 model.ErrNotFound
	GetEmotionStage(ctx context.Context, tradeDate string) (*model.EmotionStageRecord, error)
	// RecentEmotionStages 早于 tradeDate 的最近 n 条记录，日期降序
	RecentEmotionStages(ctx context.Context, tradeDate string, n int) ([]model.EmotionStageRecord, error)
}

// PremiumStore 溢价评分
type PremiumStore interface {
	SavePremiumScores(ctx context.Context, scores []*model.PremiumScore) error
	// ListPremiumScores 按总分降序，limit<=0 返回全部
	ListPremiumScores(ctx context.Context, tradeDate string, limit int) ([]model.PremiumScore, error)
}

// BacktestStore 回测记录
type BacktestStore interface {
	SaveBacktestRecords(ctx context.Context, records []model.BacktestRecord) error
	// QueryBacktest 按日期降序、总分降序，返回当页数据与总数
	QueryBacktest(ctx context.Context, filter model.BacktestFilter) ([]model.BacktestRecord, int64, error)
	DeleteBacktest(ctx context.Context, ids []string) (int64, error)
}

// Store 持久化能力：按自然键 upsert、按日期过滤、排序与分页
type Store interface {
	SnapshotStore
	LimitStockStore
	PerformanceStore
	ConceptStore
	EmotionStore
	PremiumStore
	BacktestStore
}

// Paginate 统一分页参数
func Paginate(page, pageSize, total int) (start, end int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		return 0, total
	}
	start = (page - 1) * pageSize
	if start > total {
		start = total
	}
	end = start + pageSize
	if end > total {
		end = total
	}
	return start, end
}
