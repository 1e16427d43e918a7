package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dewei/SentimentRadar/pkg/model"
)

type PremiumDB struct {
	db *gorm.DB
}

func (d *DB) Premium() *PremiumDB {
	return &PremiumDB{db: d.db}
}

var premiumUpdateColumns = []string{
	"stock_name", "continuous_days", "raw_total", "total_score", "premium_level", "premium_level_color",
	"leader_bonus", "technical_raw", "capital_raw", "theme_raw", "position_raw", "market_raw",
	"technical_score", "capital_score", "theme_score", "position_score", "market_score", "updated_at",
}

func (p *PremiumDB) UpsertBatch(ctx context.Context, scores []*model.PremiumScore) error {
	if len(scores) == 0 {
		return nil
	}
	err := p.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "stock_code"}, {Name: "trade_date"}},
		DoUpdates: clause.AssignmentColumns(premiumUpdateColumns),
	}).CreateInBatches(scores, 500).Error
	if err != nil {
		return fmt.Errorf("保存溢价评分失败: %w", err)
	}
	return nil
}

// GetByDate 按总分降序，limit<=0 返回全部
func (p *PremiumDB) GetByDate(ctx context.Context, tradeDate string, limit int) ([]model.PremiumScore, error) {
	var scores []model.PremiumScore
	q := p.db.WithContext(ctx).
		Where("trade_date = ?", tradeDate).
		Order("total_score DESC, continuous_days DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&scores).Error; err != nil {
		return nil, fmt.Errorf("查询溢价评分失败: %w", err)
	}
	return scores, nil
}
