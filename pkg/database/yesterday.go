package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dewei/SentimentRadar/pkg/model"
)

type YesterdayDB struct {
	db *gorm.DB
}

func (d *DB) Yesterday() *YesterdayDB {
	return &YesterdayDB{db: d.db}
}

var yesterdayUpdateColumns = []string{
	"stock_name", "yesterday_date", "yesterday_continuous_days", "yesterday_opening_times",
	"yesterday_concepts", "today_open_pct", "today_change_pct", "today_high_pct", "today_low_pct",
	"today_amount", "is_limit_up", "is_limit_down", "is_big_loss", "is_big_high", "updated_at",
}

func (y *YesterdayDB) UpsertBatch(ctx context.Context, rows []model.YesterdayLimitPerformance) error {
	if len(rows) == 0 {
		return nil
	}
	err := y.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "stock_code"}, {Name: "trade_date"}},
		DoUpdates: clause.AssignmentColumns(yesterdayUpdateColumns),
	}).CreateInBatches(rows, 500).Error
	if err != nil {
		return fmt.Errorf("保存昨日涨停表现失败: %w", err)
	}
	return nil
}

func (y *YesterdayDB) GetByDate(ctx context.Context, tradeDate string) ([]model.YesterdayLimitPerformance, error) {
	var rows []model.YesterdayLimitPerformance
	err := y.db.WithContext(ctx).
		Where("trade_date = ?", tradeDate).
		Order("stock_code ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("查询昨日涨停表现失败: %w", err)
	}
	return rows, nil
}
