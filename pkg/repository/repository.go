package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dewei/SentimentRadar/pkg/model"
)

// MemoryStore 内存存储，用于测试与 dry-run
type MemoryStore struct {
	snapshots   map[string]model.MarketSnapshot
	limitStocks map[string]model.LimitStock
	performance map[string]model.YesterdayLimitPerformance
	concepts    map[string]model.HotConcept
	stages      map[string]model.EmotionStageRecord
	premiums    map[string]model.PremiumScore
	backtests   map[string]model.BacktestRecord
	mutex       sync.RWMutex
}

// NewMemoryStore 创建内存存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		snapshots:   make(map[string]model.MarketSnapshot),
		limitStocks: make(map[string]model.LimitStock),
		performance: make(map[string]model.YesterdayLimitPerformance),
		concepts:    make(map[string]model.HotConcept),
		stages:      make(map[string]model.EmotionStageRecord),
		premiums:    make(map[string]model.PremiumScore),
		backtests:   make(map[string]model.BacktestRecord),
	}
}

var _ Store = (*MemoryStore)(nil)

func key(parts ...string) string {
	return strings.Join(parts, "|")
}

// stamp 模拟数据库的 ID 与时间戳：冲突时保留原 ID 与创建时间
func stamp(id *string, created, updated *time.Time, oldID string, oldCreated time.Time) {
	now := time.Now()
	if oldID != "" {
		*id = oldID
		*created = oldCreated
	} else {
		if *id == "" {
			*id = uuid.New().String()
		}
		*created = now
	}
	*updated = now
}

// SaveSnapshot 保存市场快照
func (r *MemoryStore) SaveSnapshot(ctx context.Context, s *model.MarketSnapshot) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	old := r.snapshots[s.TradeDate]
	stamp(&s.ID, &s.CreatedAt, &s.UpdatedAt, old.ID, old.CreatedAt)
	r.snapshots[s.TradeDate] = *s
	return nil
}

// GetSnapshot 获取市场快照
func (r *MemoryStore) GetSnapshot(ctx context.Context, tradeDate string) (*model.MarketSnapshot, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	s, ok := r.snapshots[tradeDate]
	if !ok {
		return nil, model.ErrSnapshotNotFound
	}
	return &s, nil
}

// PreviousSnapshot 前一个有快照的交易日
func (r *MemoryStore) PreviousSnapshot(ctx context.Context, tradeDate string) (*model.MarketSnapshot, error) {
	recent, err := r.RecentSnapshots(ctx, tradeDate, 1)
	if err != nil {
		return nil, err
	}
	if len(recent) == 0 {
		return nil, model.ErrSnapshotNotFound
	}
	return &recent[0], nil
}

// RecentSnapshots 最近 n 个快照
func (r *MemoryStore) RecentSnapshots(ctx context.Context, tradeDate string, n int) ([]model.MarketSnapshot, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var out []model.MarketSnapshot
	for date, s := range r.snapshots {
		if date < tradeDate {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TradeDate > out[j].TradeDate })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// SaveLimitStocks 保存涨跌停个股
func (r *MemoryStore) SaveLimitStocks(ctx context.Context, stocks []model.LimitStock) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for i := range stocks {
		s := &stocks[i]
		k := key(s.StockCode, s.TradeDate, string(s.LimitType))
		old := r.limitStocks[k]
		stamp(&s.ID, &s.CreatedAt, &s.UpdatedAt, old.ID, old.CreatedAt)
		r.limitStocks[k] = *s
	}
	return nil
}

// GetLimitStock 获取单只股票的涨跌停记录
func (r *MemoryStore) GetLimitStock(ctx context.Context, code, tradeDate string, limitType model.LimitType) (*model.LimitStock, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	s, ok := r.limitStocks[key(code, tradeDate, string(limitType))]
	if !ok {
		return nil, model.ErrStockNotFound
	}
	return &s, nil
}

// ListLimitStocks 查询涨跌停个股
func (r *MemoryStore) ListLimitStocks(ctx context.Context, q LimitStockQuery) ([]model.LimitStock, int64, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	codes := make(map[string]bool, len(q.Codes))
	for _, c := range q.Codes {
		codes[c] = true
	}

	var out []model.LimitStock
	for _, s := range r.limitStocks {
		if q.TradeDate != "" && s.TradeDate != q.TradeDate {
			continue
		}
		if q.LimitType != "" && s.LimitType != q.LimitType {
			continue
		}
		if s.ContinuousDays < q.MinContinuousDays {
			continue
		}
		if len(codes) > 0 && !codes[s.StockCode] {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ContinuousDays != out[j].ContinuousDays {
			return out[i].ContinuousDays > out[j].ContinuousDays
		}
		return out[i].StockCode < out[j].StockCode
	})

	start, end := Paginate(q.Page, q.PageSize, len(out))
	return out[start:end], int64(len(out)), nil
}

// SaveYesterdayPerformance 保存昨日涨停今日表现
func (r *MemoryStore) SaveYesterdayPerformance(ctx context.Context, rows []model.YesterdayLimitPerformance) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for i := range rows {
		p := &rows[i]
		k := key(p.StockCode, p.TradeDate)
		old := r.performance[k]
		stamp(&p.ID, &p.CreatedAt, &p.UpdatedAt, old.ID, old.CreatedAt)
		r.performance[k] = *p
	}
	return nil
}

// ListYesterdayPerformance 查询某日的昨日涨停表现
func (r *MemoryStore) ListYesterdayPerformance(ctx context.Context, tradeDate string) ([]model.YesterdayLimitPerformance, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var out []model.YesterdayLimitPerformance
	for _, p := range r.performance {
		if p.TradeDate == tradeDate {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StockCode < out[j].StockCode })
	return out, nil
}

// SaveHotConcepts 保存热门概念
func (r *MemoryStore) SaveHotConcepts(ctx context.Context, concepts []model.HotConcept) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for i := range concepts {
		c := &concepts[i]
		k := key(c.TradeDate, c.ConceptName)
		old := r.concepts[k]
		stamp(&c.ID, &c.CreatedAt, &c.UpdatedAt, old.ID, old.CreatedAt)
		r.concepts[k] = *c
	}
	return nil
}

// ListHotConcepts 查询热门概念
func (r *MemoryStore) ListHotConcepts(ctx context.Context, tradeDate string, topN int) ([]model.HotConcept, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var out []model.HotConcept
	for _, c := range r.concepts {
		if c.TradeDate != tradeDate {
			continue
		}
		if topN > 0 && c.Rank > topN {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rank < out[j].Rank })
	return out, nil
}

// SaveEmotionStage 保存情绪阶段
func (r *MemoryStore) SaveEmotionStage(ctx context.Context, rec *model.EmotionStageRecord) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	old := r.stages[rec.TradeDate]
	stamp(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt, old.ID, old.CreatedAt)
	r.stages[rec.TradeDate] = *rec
	return nil
}

// GetEmotionStage 获取情绪阶段
func (r *MemoryStore) GetEmotionStage(ctx context.Context, tradeDate string) (*model.EmotionStageRecord, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	rec, ok := r.stages[tradeDate]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &rec, nil
}

// RecentEmotionStages 最近 n 条情绪阶段
func (r *MemoryStore) RecentEmotionStages(ctx context.Context, tradeDate string, n int) ([]model.EmotionStageRecord, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var out []model.EmotionStageRecord
	for date, rec := range r.stages {
		if date < tradeDate {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TradeDate > out[j].TradeDate })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// SavePremiumScores 保存溢价评分
func (r *MemoryStore) SavePremiumScores(ctx context.Context, scores []*model.PremiumScore) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, p := range scores {
		k := key(p.StockCode, p.TradeDate)
		old := r.premiums[k]
		stamp(&p.ID, &p.CreatedAt, &p.UpdatedAt, old.ID, old.CreatedAt)
		r.premiums[k] = *p
	}
	return nil
}

// ListPremiumScores 查询某日溢价评分
func (r *MemoryStore) ListPremiumScores(ctx context.Context, tradeDate string, limit int) ([]model.PremiumScore, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var out []model.PremiumScore
	for _, p := range r.premiums {
		if p.TradeDate == tradeDate {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalScore != out[j].TotalScore {
			return out[i].TotalScore > out[j].TotalScore
		}
		return out[i].StockCode < out[j].StockCode
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// SaveBacktestRecords 保存回测记录
func (r *MemoryStore) SaveBacktestRecords(ctx context.Context, records []model.BacktestRecord) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for i := range records {
		b := &records[i]
		k := key(b.StockCode, b.TradeDate)
		old := r.backtests[k]
		stamp(&b.ID, &b.CreatedAt, &b.UpdatedAt, old.ID, old.CreatedAt)
		r.backtests[k] = *b
	}
	return nil
}

// QueryBacktest 查询回测记录
func (r *MemoryStore) QueryBacktest(ctx context.Context, f model.BacktestFilter) ([]model.BacktestRecord, int64, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var out []model.BacktestRecord
	for _, b := range r.backtests {
		if f.StartDate != "" && b.TradeDate < f.StartDate {
			continue
		}
		if f.EndDate != "" && b.TradeDate > f.EndDate {
			continue
		}
		if f.MinScore != nil && b.TotalScore < *f.MinScore {
			continue
		}
		if f.MaxScore != nil && b.TotalScore > *f.MaxScore {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TradeDate != out[j].TradeDate {
			return out[i].TradeDate > out[j].TradeDate
		}
		if out[i].TotalScore != out[j].TotalScore {
			return out[i].TotalScore > out[j].TotalScore
		}
		return out[i].StockCode < out[j].StockCode
	})

	start, end := Paginate(f.Page, f.PageSize, len(out))
	return out[start:end], int64(len(out)), nil
}

// DeleteBacktest 按 ID 删除回测记录
func (r *MemoryStore) DeleteBacktest(ctx context.Context, ids []string) (int64, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	var deleted int64
	for k, b := range r.backtests {
		if wanted[b.ID] {
			delete(r.backtests, k)
			deleted++
		}
	}
	return deleted, nil
}
