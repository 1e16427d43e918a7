package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dewei/SentimentRadar/pkg/model"
)

func TestMemoryStoreSnapshots(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.GetSnapshot(ctx, "2025-01-10")
	assert.True(t, errors.Is(err, model.ErrSnapshotNotFound))

	for _, d := range []string{"2025-01-06", "2025-01-07", "2025-01-08", "2025-01-10"} {
		require.NoError(t, store.SaveSnapshot(ctx, &model.MarketSnapshot{TradeDate: d, LimitUpCount: 10}))
	}

	first, err := store.GetSnapshot(ctx, "2025-01-10")
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)

	// 同日重复保存覆盖数据但保留 ID
	require.NoError(t, store.SaveSnapshot(ctx, &model.MarketSnapshot{TradeDate: "2025-01-10", LimitUpCount: 99}))
	again, err := store.GetSnapshot(ctx, "2025-01-10")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, 99, again.LimitUpCount)

	prev, err := store.PreviousSnapshot(ctx, "2025-01-10")
	require.NoError(t, err)
	assert.Equal(t, "2025-01-08", prev.TradeDate)

	recent, err := store.RecentSnapshots(ctx, "2025-01-10", 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "2025-01-08", recent[0].TradeDate)
	assert.Equal(t, "2025-01-07", recent[1].TradeDate)

	_, err = store.PreviousSnapshot(ctx, "2025-01-06")
	assert.True(t, errors.Is(err, model.ErrSnapshotNotFound))
}

func TestMemoryStoreLimitStocks(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	stocks := []model.LimitStock{
		{StockCode: "600001", TradeDate: "2025-01-10", LimitType: model.LimitUp, ContinuousDays: 1},
		{StockCode: "600002", TradeDate: "2025-01-10", LimitType: model.LimitUp, ContinuousDays: 4},
		{StockCode: "600003", TradeDate: "2025-01-10", LimitType: model.LimitDown, ContinuousDays: 1},
		{StockCode: "600004", TradeDate: "2025-01-09", LimitType: model.LimitUp, ContinuousDays: 3},
	}
	require.NoError(t, store.SaveLimitStocks(ctx, stocks))

	got, total, err := store.ListLimitStocks(ctx, LimitStockQuery{TradeDate: "2025-01-10", LimitType: model.LimitUp})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, "600002", got[0].StockCode)

	got, total, err = store.ListLimitStocks(ctx, LimitStockQuery{TradeDate: "2025-01-10", Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, got, 1)

	got, _, err = store.ListLimitStocks(ctx, LimitStockQuery{MinContinuousDays: 3})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	s, err := store.GetLimitStock(ctx, "600002", "2025-01-10", model.LimitUp)
	require.NoError(t, err)
	assert.Equal(t, 4, s.ContinuousDays)

	_, err = store.GetLimitStock(ctx, "600002", "2025-01-10", model.LimitDown)
	assert.True(t, errors.Is(err, model.ErrStockNotFound))
}

func TestMemoryStoreStagesAndConcepts(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.SaveEmotionStage(ctx, &model.EmotionStageRecord{TradeDate: "2025-01-08", Stage: model.StageClimax}))
	require.NoError(t, store.SaveEmotionStage(ctx, &model.EmotionStageRecord{TradeDate: "2025-01-09", Stage: model.StageWarming}))

	rec, err := store.GetEmotionStage(ctx, "2025-01-09")
	require.NoError(t, err)
	assert.Equal(t, model.StageWarming, rec.Stage)

	_, err = store.GetEmotionStage(ctx, "2025-01-10")
	assert.True(t, errors.Is(err, model.ErrNotFound))

	recent, err := store.RecentEmotionStages(ctx, "2025-01-10", 3)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "2025-01-09", recent[0].TradeDate)

	require.NoError(t, store.SaveHotConcepts(ctx, []model.HotConcept{
		{ConceptName: "B", TradeDate: "2025-01-10", Rank: 2},
		{ConceptName: "A", TradeDate: "2025-01-10", Rank: 1},
		{ConceptName: "C", TradeDate: "2025-01-10", Rank: 11},
	}))
	top, err := store.ListHotConcepts(ctx, "2025-01-10", 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "A", top[0].ConceptName)

	all, err := store.ListHotConcepts(ctx, "2025-01-10", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestMemoryStorePremiumAndBacktest(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.SavePremiumScores(ctx, []*model.PremiumScore{
		{StockCode: "600001", TradeDate: "2025-01-10", TotalScore: 5},
		{StockCode: "600002", TradeDate: "2025-01-10", TotalScore: 8},
	}))
	scores, err := store.ListPremiumScores(ctx, "2025-01-10", 1)
	require.NoError(t, err)
	require.Len(t, scores, 1)
	assert.Equal(t, "600002", scores[0].StockCode)

	records := []model.BacktestRecord{
		{StockCode: "600001", TradeDate: "2025-01-09", TotalScore: 7.5},
		{StockCode: "600002", TradeDate: "2025-01-10", TotalScore: 4},
		{StockCode: "600003", TradeDate: "2025-01-10", TotalScore: 6},
	}
	require.NoError(t, store.SaveBacktestRecords(ctx, records))

	min := 5.0
	got, total, err := store.QueryBacktest(ctx, model.BacktestFilter{MinScore: &min})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, "600003", got[0].StockCode)

	got, _, err = store.QueryBacktest(ctx, model.BacktestFilter{StartDate: "2025-01-10", EndDate: "2025-01-10"})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	n, err := store.DeleteBacktest(ctx, []string{records[0].ID, "missing"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	_, total, _ = store.QueryBacktest(ctx, model.BacktestFilter{})
	assert.Equal(t, int64(2), total)
}

func TestPaginate(t *testing.T) {
	s, e := Paginate(0, 0, 5)
	assert.Equal(t, [2]int{0, 5}, [2]int{s, e})
	s, e = Paginate(2, 2, 5)
	assert.Equal(t, [2]int{2, 4}, [2]int{s, e})
	s, e = Paginate(4, 2, 5)
	assert.Equal(t, [2]int{5, 5}, [2]int{s, e})
}
