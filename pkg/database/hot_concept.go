package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dewei/SentimentRadar/pkg/model"
)

type HotConceptDB struct {
	db *gorm.DB
}

func (d *DB) HotConcept() *HotConceptDB {
	return &HotConceptDB{db: d.db}
}

var hotConceptUpdateColumns = []string{
	"day_change_pct", "change_pct", "limit_up_count", "total_count", "rank", "is_main_line",
	"leader_stock_code", "leader_stock_name", "leader_continuous_days", "leader_change_pct", "updated_at",
}

func (h *HotConceptDB) UpsertBatch(ctx context.Context, concepts []model.HotConcept) error {
	if len(concepts) == 0 {
		return nil
	}
	err := h.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "trade_date"}, {Name: "concept_name"}},
		DoUpdates: clause.AssignmentColumns(hotConceptUpdateColumns),
	}).CreateInBatches(concepts, 200).Error
	if err != nil {
		return fmt.Errorf("保存热门概念失败: %w", err)
	}
	return nil
}

// GetByDate 按排名升序，topN<=0 返回全部
func (h *HotConceptDB) GetByDate(ctx context.Context, tradeDate string, topN int) ([]model.HotConcept, error) {
	var concepts []model.HotConcept
	q := h.db.WithContext(ctx).Where("trade_date = ?", tradeDate)
	if topN > 0 {
		q = q.Where("rank <= ?", topN)
	}
	if err := q.Order("rank ASC").Find(&concepts).Error; err != nil {
		return nil, fmt.Errorf("查询热门概念失败: %w", err)
	}
	return concepts, nil
}
