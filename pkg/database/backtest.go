package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dewei/SentimentRadar/pkg/model"
)

type BacktestDB struct {
	db *gorm.DB
}

func (d *DB) Backtest() *BacktestDB {
	return &BacktestDB{db: d.db}
}

var backtestUpdateColumns = []string{
	"stock_name", "continuous_days", "total_score", "premium_level", "technical_score", "capital_score",
	"theme_score", "position_score", "market_score", "next_trade_date", "next_day_change_pct",
	"next_day_close_price", "next_day_turnover_rate", "is_next_day_limit_up", "is_next_day_limit_down",
	"prediction_result", "is_profitable", "updated_at",
}

func (b *BacktestDB) UpsertBatch(ctx context.Context, records []model.BacktestRecord) error {
	if len(records) == 0 {
		return nil
	}
	err := b.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "stock_code"}, {Name: "trade_date"}},
		DoUpdates: clause.AssignmentColumns(backtestUpdateColumns),
	}).CreateInBatches(records, 500).Error
	if err != nil {
		return fmt.Errorf("保存回测记录失败: %w", err)
	}
	return nil
}

func backtestFilter(f model.BacktestFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.StartDate != "" {
			db = db.Where("trade_date >= ?", f.StartDate)
		}
		if f.EndDate != "" {
			db = db.Where("trade_date <= ?", f.EndDate)
		}
		if f.MinScore != nil {
			db = db.Where("total_score >= ?", *f.MinScore)
		}
		if f.MaxScore != nil {
			db = db.Where("total_score <= ?", *f.MaxScore)
		}
		return db
	}
}

// Query 按交易日期降序、总分降序分页查询
func (b *BacktestDB) Query(ctx context.Context, f model.BacktestFilter) ([]model.BacktestRecord, int64, error) {
	var total int64
	err := b.db.WithContext(ctx).Model(&model.BacktestRecord{}).
		Scopes(backtestFilter(f)).
		Count(&total).Error
	if err != nil {
		return nil, 0, fmt.Errorf("统计回测记录失败: %w", err)
	}

	var records []model.BacktestRecord
	err = b.db.WithContext(ctx).
		Scopes(backtestFilter(f), paginate(f.Page, f.PageSize)).
		Order("trade_date DESC, total_score DESC").
		Find(&records).Error
	if err != nil {
		return nil, 0, fmt.Errorf("查询回测记录失败: %w", err)
	}
	return records, total, nil
}

func (b *BacktestDB) Delete(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := b.db.WithContext(ctx).Where("id IN ?", ids).Delete(&model.BacktestRecord{})
	if result.Error != nil {
		return 0, fmt.Errorf("删除回测记录失败: %w", result.Error)
	}
	return result.RowsAffected, nil
}
