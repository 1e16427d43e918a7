package database

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/dewei/SentimentRadar/pkg/model"
	"github.com/dewei/SentimentRadar/pkg/repository"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	// 1. 模拟数据库
	db, mock, err := sqlmock.New()
	require.NoError(t, err, "创建模拟数据库失败")
	t.Cleanup(func() { db.Close() })

	// 2. GORM 连接
	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{})
	require.NoError(t, err, "打开GORM连接失败")

	return NewStore(New(gdb)), mock
}

func TestSaveSnapshotUpsertsOnTradeDate(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "market_snapshots" .* ON CONFLICT \("trade_date"\) DO UPDATE SET`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	snapshot := &model.MarketSnapshot{TradeDate: "2025-01-10", LimitUpCount: 60, Distribution: model.BoardDistribution{1: 50, 2: 8}}
	require.NoError(t, store.SaveSnapshot(context.Background(), snapshot))
	assert.NotEmpty(t, snapshot.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSnapshot(t *testing.T) {
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"id", "trade_date", "limit_up_count", "continuous_limit_distribution", "explosion_rate"}).
		AddRow("b7f8c1de-0000-4000-8000-000000000001", "2025-01-10", 60, `{"1":50,"2":8,"4":1}`, 22.5)
	mock.ExpectQuery(`SELECT \* FROM "market_snapshots" WHERE trade_date = \$1`).WillReturnRows(rows)

	snapshot, err := store.GetSnapshot(context.Background(), "2025-01-10")
	require.NoError(t, err)
	assert.Equal(t, 60, snapshot.LimitUpCount)
	assert.Equal(t, 4, snapshot.SpaceHeight())
	assert.Equal(t, 22.5, snapshot.ExplosionRate)

	mock.ExpectQuery(`SELECT \* FROM "market_snapshots"`).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	_, err = store.GetSnapshot(context.Background(), "2025-01-11")
	assert.True(t, errors.Is(err, model.ErrSnapshotNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPreviousSnapshotEmpty(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT \* FROM "market_snapshots" WHERE trade_date < \$1 ORDER BY trade_date DESC LIMIT`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "trade_date"}))

	_, err := store.PreviousSnapshot(context.Background(), "2025-01-10")
	assert.True(t, errors.Is(err, model.ErrSnapshotNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListLimitStocks(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "limit_stocks" WHERE trade_date = \$1 AND limit_type = \$2`).
		WithArgs("2025-01-10", "limit_up").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(`SELECT \* FROM "limit_stocks" WHERE trade_date = \$1 AND limit_type = \$2 ORDER BY continuous_days DESC, stock_code ASC LIMIT`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "stock_code", "trade_date", "limit_type", "continuous_days", "concepts"}).
			AddRow("id-1", "600100", "2025-01-10", "limit_up", 5, `["机器人","算力"]`).
			AddRow("id-2", "600101", "2025-01-10", "limit_up", 2, nil))

	stocks, total, err := store.ListLimitStocks(context.Background(), repository.LimitStockQuery{
		TradeDate: "2025-01-10",
		LimitType: model.LimitUp,
		Page:      1,
		PageSize:  2,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, stocks, 2)
	assert.Equal(t, model.StringList{"机器人", "算力"}, stocks[0].Concepts)
	assert.Nil(t, stocks[1].Concepts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetEmotionStageNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT \* FROM "emotion_stage_records"`).WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := store.GetEmotionStage(context.Background(), "2025-01-10")
	assert.True(t, errors.Is(err, model.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveLimitStocksEmptyIsNoop(t *testing.T) {
	store, mock := newMockStore(t)
	require.NoError(t, store.SaveLimitStocks(context.Background(), nil))
	require.NoError(t, store.SavePremiumScores(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteBacktest(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "backtest_records" WHERE id IN \(\$1,\$2\)`).
		WithArgs("a", "b").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	n, err := store.DeleteBacktest(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = store.DeleteBacktest(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryBacktestFilters(t *testing.T) {
	store, mock := newMockStore(t)
	min := 7.0

	mock.ExpectQuery(`SELECT count\(\*\) FROM "backtest_records" WHERE trade_date >= \$1 AND total_score >= \$2`).
		WithArgs("2025-01-01", min).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT \* FROM "backtest_records" WHERE trade_date >= \$1 AND total_score >= \$2 ORDER BY trade_date DESC, total_score DESC`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "stock_code", "trade_date", "total_score", "premium_level"}).
			AddRow("id-1", "600100", "2025-01-10", 8.5, "极高"))

	records, total, err := store.QueryBacktest(context.Background(), model.BacktestFilter{StartDate: "2025-01-01", MinScore: &min})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, records, 1)
	assert.Equal(t, model.PremiumExtreme, records[0].PremiumLevel)
	assert.NoError(t, mock.ExpectationsWereMet())
}
