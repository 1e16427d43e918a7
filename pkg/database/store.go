package database

import (
	"context"

	"github.com/dewei/SentimentRadar/pkg/model"
	"github.com/dewei/SentimentRadar/pkg/repository"
)

// Store 以数据库实现 repository.Store
type Store struct {
	db *DB
}

// NewStore 创建数据库存储
func NewStore(db *DB) *Store {
	return &Store{db: db}
}

var _ repository.Store = (*Store)(nil)

func (s *Store) SaveSnapshot(ctx context.Context, snapshot *model.MarketSnapshot) error {
	return s.db.Snapshot().Upsert(ctx, snapshot)
}

func (s *Store) GetSnapshot(ctx context.Context, tradeDate string) (*model.MarketSnapshot, error) {
	return s.db.Snapshot().GetByDate(ctx, tradeDate)
}

func (s *Store) PreviousSnapshot(ctx context.Context, tradeDate string) (*model.MarketSnapshot, error) {
	snapshots, err := s.db.Snapshot().Before(ctx, tradeDate, 1)
	if err != nil {
		return nil, err
	}
	if len(snapshots) == 0 {
		return nil, model.ErrSnapshotNotFound
	}
	return &snapshots[0], nil
}

func (s *Store) RecentSnapshots(ctx context.Context, tradeDate string, n int) ([]model.MarketSnapshot, error) {
	return s.db.Snapshot().Before(ctx, tradeDate, n)
}

func (s *Store) SaveLimitStocks(ctx context.Context, stocks []model.LimitStock) error {
	return s.db.LimitStock().UpsertBatch(ctx, stocks)
}

func (s *Store) GetLimitStock(ctx context.Context, code, tradeDate string, limitType model.LimitType) (*model.LimitStock, error) {
	return s.db.LimitStock().Get(ctx, code, tradeDate, limitType)
}

func (s *Store) ListLimitStocks(ctx context.Context, q repository.LimitStockQuery) ([]model.LimitStock, int64, error) {
	return s.db.LimitStock().List(ctx, q)
}

func (s *Store) SaveYesterdayPerformance(ctx context.Context, rows []model.YesterdayLimitPerformance) error {
	return s.db.Yesterday().UpsertBatch(ctx, rows)
}

func (s *Store) ListYesterdayPerformance(ctx context.Context, tradeDate string) ([]model.YesterdayLimitPerformance, error) {
	return s.db.Yesterday().GetByDate(ctx, tradeDate)
}

func (s *Store) SaveHotConcepts(ctx context.Context, concepts []model.HotConcept) error {
	return s.db.HotConcept().UpsertBatch(ctx, concepts)
}

func (s *Store) ListHotConcepts(ctx context.Context, tradeDate string, topN int) ([]model.HotConcept, error) {
	return s.db.HotConcept().GetByDate(ctx, tradeDate, topN)
}

func (s *Store) SaveEmotionStage(ctx context.Context, record *model.EmotionStageRecord) error {
	return s.db.Emotion().Upsert(ctx, record)
}

func (s *Store) GetEmotionStage(ctx context.Context, tradeDate string) (*model.EmotionStageRecord, error) {
	return s.db.Emotion().GetByDate(ctx, tradeDate)
}

func (s *Store) RecentEmotionStages(ctx context.Context, tradeDate string, n int) ([]model.EmotionStageRecord, error) {
	return s.db.Emotion().Before(ctx, tradeDate, n)
}

func (s *Store) SavePremiumScores(ctx context.Context, scores []*model.PremiumScore) error {
	return s.db.Premium().UpsertBatch(ctx, scores)
}

func (s *Store) ListPremiumScores(ctx context.Context, tradeDate string, limit int) ([]model.PremiumScore, error) {
	return s.db.Premium().GetByDate(ctx, tradeDate, limit)
}

func (s *Store) SaveBacktestRecords(ctx context.Context, records []model.BacktestRecord) error {
	return s.db.Backtest().UpsertBatch(ctx, records)
}

func (s *Store) QueryBacktest(ctx context.Context, filter model.BacktestFilter) ([]model.BacktestRecord, int64, error) {
	return s.db.Backtest().Query(ctx, filter)
}

func (s *Store) DeleteBacktest(ctx context.Context, ids []string) (int64, error) {
	return s.db.Backtest().Delete(ctx, ids)
}
