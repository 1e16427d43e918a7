package cache

import (
	"context"
	"log"
	"time"

	"github.com/dewei/SentimentRadar/pkg/model"
)

const (
	stageKeyPrefix  = "sentiment:stage:"
	ladderKeyPrefix = "sentiment:ladder:"
)

// DefaultTTL 默认缓存时长
const DefaultTTL = 12 * time.Hour

// StageCache 情绪阶段与概念梯队缓存，按交易日存储
type StageCache struct {
	backend Cache
	ttl     time.Duration
}

// NewStageCache backend 为 nil 时使用进程内缓存
func NewStageCache(backend Cache, ttl time.Duration) *StageCache {
	if backend == nil {
		backend = NewMemoryCache()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &StageCache{backend: backend, ttl: ttl}
}

// StageKey 情绪阶段缓存键
func StageKey(date string) string {
	return stageKeyPrefix + date
}

// LadderKey 概念梯队缓存键
func LadderKey(date string) string {
	return ladderKeyPrefix + date
}

// GetStage 读取失败按未命中处理
func (c *StageCache) GetStage(ctx context.Context, date string) (*model.EmotionStageRecord, bool) {
	var rec model.EmotionStageRecord
	ok, err := c.backend.Get(ctx, StageKey(date), &rec)
	if err != nil {
		log.Printf("[cache] 读取情绪阶段缓存失败: %v", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	return &rec, true
}

// SetStage 写入情绪阶段
func (c *StageCache) SetStage(ctx context.Context, rec *model.EmotionStageRecord) error {
	return c.backend.Set(ctx, StageKey(rec.TradeDate), rec, c.ttl)
}

// GetLadder 读取概念梯队
func (c *StageCache) GetLadder(ctx context.Context, date string) (*model.ConceptLadder, bool) {
	var ladder model.ConceptLadder
	ok, err := c.backend.Get(ctx, LadderKey(date), &ladder)
	if err != nil {
		log.Printf("[cache] 读取概念梯队缓存失败: %v", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	return &ladder, true
}

// SetLadder 写入概念梯队
func (c *StageCache) SetLadder(ctx context.Context, ladder *model.ConceptLadder) error {
	return c.backend.Set(ctx, LadderKey(ladder.TradeDate), ladder, c.ttl)
}

// Invalidate 清除某日的全部缓存
func (c *StageCache) Invalidate(ctx context.Context, date string) error {
	return c.backend.Delete(ctx, StageKey(date), LadderKey(date))
}
