package database

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dewei/SentimentRadar/pkg/model"
	"github.com/dewei/SentimentRadar/pkg/repository"
)

type LimitStockDB struct {
	db *gorm.DB
}

func (d *DB) LimitStock() *LimitStockDB {
	return &LimitStockDB{db: d.db}
}

var limitStockUpdateColumns = []string{
	"stock_name", "change_pct", "close_price", "turnover_rate", "amount", "first_limit_time",
	"last_limit_time", "continuous_days", "opening_times", "sealed_amount", "main_net_inflow",
	"main_net_inflow_pct", "concepts", "industry", "is_strong_limit", "updated_at",
}

// UpsertBatch 按 (股票代码, 交易日期, 涨跌停类型) 批量覆盖写入
func (l *LimitStockDB) UpsertBatch(ctx context.Context, stocks []model.LimitStock) error {
	if len(stocks) == 0 {
		return nil
	}
	err := l.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "stock_code"}, {Name: "trade_date"}, {Name: "limit_type"}},
		DoUpdates: clause.AssignmentColumns(limitStockUpdateColumns),
	}).CreateInBatches(stocks, 500).Error
	if err != nil {
		return fmt.Errorf("保存涨跌停个股失败: %w", err)
	}
	return nil
}

func (l *LimitStockDB) Get(ctx context.Context, code, tradeDate string, limitType model.LimitType) (*model.LimitStock, error) {
	var stock model.LimitStock
	err := l.db.WithContext(ctx).
		Where("stock_code = ? AND trade_date = ? AND limit_type = ?", code, tradeDate, limitType).
		First(&stock).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrStockNotFound
		}
		return nil, fmt.Errorf("获取涨跌停记录失败: %w", err)
	}
	return &stock, nil
}

func limitStockFilter(q repository.LimitStockQuery) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if q.TradeDate != "" {
			db = db.Where("trade_date = ?", q.TradeDate)
		}
		if q.LimitType != "" {
			db = db.Where("limit_type = ?", q.LimitType)
		}
		if q.MinContinuousDays > 0 {
			db = db.Where("continuous_days >= ?", q.MinContinuousDays)
		}
		if len(q.Codes) > 0 {
			db = db.Where("stock_code IN ?", q.Codes)
		}
		return db
	}
}

// List 按连板数降序分页查询，返回当页数据与总数
func (l *LimitStockDB) List(ctx context.Context, q repository.LimitStockQuery) ([]model.LimitStock, int64, error) {
	var total int64
	err := l.db.WithContext(ctx).Model(&model.LimitStock{}).
		Scopes(limitStockFilter(q)).
		Count(&total).Error
	if err != nil {
		return nil, 0, fmt.Errorf("统计涨跌停个股失败: %w", err)
	}

	var stocks []model.LimitStock
	err = l.db.WithContext(ctx).
		Scopes(limitStockFilter(q), paginate(q.Page, q.PageSize)).
		Order("continuous_days DESC, stock_code ASC").
		Find(&stocks).Error
	if err != nil {
		return nil, 0, fmt.Errorf("查询涨跌停个股失败: %w", err)
	}
	return stocks, total, nil
}
