package database

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dewei/SentimentRadar/pkg/model"
)

type SnapshotDB struct {
	db *gorm.DB
}

func (d *DB) Snapshot() *SnapshotDB {
	return &SnapshotDB{db: d.db}
}

var snapshotUpdateColumns = []string{
	"total_amount", "up_count", "down_count", "flat_count", "limit_up_count", "limit_down_count",
	"continuous_limit_distribution", "exploded_count", "explosion_rate", "updated_at",
}

// Upsert 按交易日期覆盖写入
func (s *SnapshotDB) Upsert(ctx context.Context, snapshot *model.MarketSnapshot) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "trade_date"}},
		DoUpdates: clause.AssignmentColumns(snapshotUpdateColumns),
	}).Create(snapshot).Error
	if err != nil {
		return fmt.Errorf("保存市场快照失败: %w", err)
	}
	return nil
}

func (s *SnapshotDB) GetByDate(ctx context.Context, tradeDate string) (*model.MarketSnapshot, error) {
	var snapshot model.MarketSnapshot
	err := s.db.WithContext(ctx).First(&snapshot, "trade_date = ?", tradeDate).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("获取市场快照失败: %w", err)
	}
	return &snapshot, nil
}

// Before 早于 tradeDate 的最近 n 个快照，日期降序
func (s *SnapshotDB) Before(ctx context.Context, tradeDate string, n int) ([]model.MarketSnapshot, error) {
	var snapshots []model.MarketSnapshot
	q := s.db.WithContext(ctx).Where("trade_date < ?", tradeDate).Order("trade_date DESC")
	if n > 0 {
		q = q.Limit(n)
	}
	if err := q.Find(&snapshots).Error; err != nil {
		return nil, fmt.Errorf("查询历史快照失败: %w", err)
	}
	return snapshots, nil
}

// Range 日期区间内的快照，日期升序
func (s *SnapshotDB) Range(ctx context.Context, from, to string) ([]model.MarketSnapshot, error) {
	var snapshots []model.MarketSnapshot
	err := s.db.WithContext(ctx).
		Where("trade_date BETWEEN ? AND ?", from, to).
		Order("trade_date ASC").
		Find(&snapshots).Error
	if err != nil {
		return nil, fmt.Errorf("查询快照区间失败: %w", err)
	}
	return snapshots, nil
}
