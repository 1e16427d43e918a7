package database

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dewei/SentimentRadar/pkg/model"
)

type EmotionDB struct {
	db *gorm.DB
}

func (d *DB) Emotion() *EmotionDB {
	return &EmotionDB{db: d.db}
}

var emotionUpdateColumns = []string{
	"factor_values", "factor_scores", "total_score", "stage_raw", "stage", "stage_color",
	"used_inertia", "previous_stage", "had_recent_peak", "is_deteriorating", "insufficient_data", "updated_at",
}

func (e *EmotionDB) Upsert(ctx context.Context, record *model.EmotionStageRecord) error {
	err := e.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "trade_date"}},
		DoUpdates: clause.AssignmentColumns(emotionUpdateColumns),
	}).Create(record).Error
	if err != nil {
		return fmt.Errorf("保存情绪阶段失败: %w", err)
	}
	return nil
}

func (e *EmotionDB) GetByDate(ctx context.Context, tradeDate string) (*model.EmotionStageRecord, error) {
	var record model.EmotionStageRecord
	err := e.db.WithContext(ctx).First(&record, "trade_date = ?", tradeDate).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("获取情绪阶段失败: %w", err)
	}
	return &record, nil
}

// Before 早于 tradeDate 的最近 n 条，日期降序
func (e *EmotionDB) Before(ctx context.Context, tradeDate string, n int) ([]model.EmotionStageRecord, error) {
	var records []model.EmotionStageRecord
	q := e.db.WithContext(ctx).Where("trade_date < ?", tradeDate).Order("trade_date DESC")
	if n > 0 {
		q = q.Limit(n)
	}
	if err := q.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("查询历史情绪阶段失败: %w", err)
	}
	return records, nil
}
