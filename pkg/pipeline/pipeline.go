package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/dewei/SentimentRadar/pkg/cache"
	"github.com/dewei/SentimentRadar/pkg/collector"
	"github.com/dewei/SentimentRadar/pkg/messaging"
	"github.com/dewei/SentimentRadar/pkg/model"
	"github.com/dewei/SentimentRadar/pkg/monitor"
	"github.com/dewei/SentimentRadar/pkg/repository"
	"github.com/dewei/SentimentRadar/pkg/sentiment"
)

// ErrBusy 上一次运行尚未结束
var ErrBusy = errors.New("流水线正在运行")

// Source 流水线需要的全部行情能力
type Source interface {
	collector.MarketDataSource
	collector.HotConceptSource
	collector.DailyBarSource
	collector.TradingCalendar
}

// ConceptRefresher 刷新概念成分缓存
type ConceptRefresher interface {
	RefreshConcepts(ctx context.Context, concepts []string) int
}

// Publisher 消息发布
type Publisher interface {
	Publish(ctx context.Context, subject string, v interface{}) error
}

// Result 单日运行结果
type Result struct {
	TradeDate      string                    `json:"trade_date"`
	LimitUpCount   int                       `json:"limit_up_count"`
	LimitDownCount int                       `json:"limit_down_count"`
	YesterdayDate  string                    `json:"yesterday_date,omitempty"`
	YesterdayCount int                       `json:"yesterday_count"`
	HotConcepts    int                       `json:"hot_concepts"`
	PremiumScores  int                       `json:"premium_scores"`
	Stage          *model.EmotionStageRecord `json:"stage"`
	Ladder         model.ConceptLadder       `json:"ladder"`
	Duration       time.Duration             `json:"duration"`
}

// PremiumEvent 溢价评分消息
type PremiumEvent struct {
	TradeDate string                `json:"trade_date"`
	Scores    []*model.PremiumScore `json:"scores"`
}

// Pipeline 每日收盘后的采集、判定与评分流程
type Pipeline struct {
	store     repository.Store
	source    Source
	service   *sentiment.Service
	stages    *cache.StageCache
	publisher Publisher
	metrics   *monitor.Metrics
	hotTopN   int
	mu        sync.Mutex
}

// New hotTopN 为采集的热门概念数量
func New(store repository.Store, source Source, service *sentiment.Service, hotTopN int) *Pipeline {
	if hotTopN <= 0 {
		hotTopN = 50
	}
	return &Pipeline{
		store:     store,
		source:    source,
		service:   service,
		publisher: messaging.NopPublisher{},
		hotTopN:   hotTopN,
	}
}

func (p *Pipeline) SetCache(c *cache.StageCache) { p.stages = c }

func (p *Pipeline) SetPublisher(pub Publisher) { p.publisher = pub }

func (p *Pipeline) SetMetrics(m *monitor.Metrics) { p.metrics = m }

// Run 处理单个交易日，同一时间只允许一次运行
func (p *Pipeline) Run(ctx context.Context, tradeDate string) (res *Result, err error) {
	date, err := model.NormalizeTradeDate(tradeDate)
	if err != nil {
		return nil, err
	}
	if !p.mu.TryLock() {
		return nil, ErrBusy
	}
	defer p.mu.Unlock()

	started := time.Now()
	defer func() {
		if p.metrics != nil {
			p.metrics.ObservePipeline(started, err)
		}
	}()

	log.Printf("[pipeline] 开始处理 %s", date)
	res = &Result{TradeDate: date}

	ups, downs, err := p.collectPools(ctx, date)
	if err != nil {
		return nil, err
	}
	res.LimitUpCount, res.LimitDownCount = len(ups), len(downs)

	if err := p.saveSnapshot(ctx, date, ups, downs); err != nil {
		return nil, err
	}

	res.YesterdayDate, res.YesterdayCount, err = p.joinYesterday(ctx, date, append(append([]model.LimitStock{}, ups...), downs...))
	if err != nil {
		return nil, err
	}

	res.HotConcepts, err = p.rankHotConcepts(ctx, date)
	if err != nil {
		return nil, err
	}

	stage, err := p.service.ClassifyEmotionStage(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("判定情绪阶段失败: %w", err)
	}
	if err := p.store.SaveEmotionStage(ctx, stage); err != nil {
		return nil, fmt.Errorf("保存情绪阶段失败: %w", err)
	}
	if p.stages != nil {
		if err := p.stages.SetStage(ctx, stage); err != nil {
			log.Printf("[pipeline] 缓存情绪阶段失败: %v", err)
		}
	}
	if p.metrics != nil {
		p.metrics.ObserveStage(string(stage.Stage), stage.TotalScore)
	}
	p.publish(ctx, messaging.SubjectStage, stage)
	res.Stage = stage

	scores, err := p.service.ScoreDay(ctx, date, stage.ScoringStage())
	if err != nil {
		return nil, fmt.Errorf("计算溢价评分失败: %w", err)
	}
	if len(scores) > 0 {
		if err := p.store.SavePremiumScores(ctx, scores); err != nil {
			return nil, fmt.Errorf("保存溢价评分失败: %w", err)
		}
		p.publish(ctx, messaging.SubjectPremium, PremiumEvent{TradeDate: date, Scores: scores})
	}
	if p.metrics != nil {
		p.metrics.AddPremiumScores(len(scores))
	}
	res.PremiumScores = len(scores)

	ladder, err := p.service.AnalyzeConceptLadder(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("分析概念梯队失败: %w", err)
	}
	if p.stages != nil {
		if err := p.stages.SetLadder(ctx, &ladder); err != nil {
			log.Printf("[pipeline] 缓存概念梯队失败: %v", err)
		}
	}
	p.publish(ctx, messaging.SubjectLadder, ladder)
	res.Ladder = ladder

	res.Duration = time.Since(started)
	log.Printf("[pipeline] %s 完成: 涨停%d 跌停%d 阶段%s 评分%d 耗时%v",
		date, res.LimitUpCount, res.LimitDownCount, stage.Stage, res.PremiumScores, res.Duration)
	return res, nil
}

func (p *Pipeline) publish(ctx context.Context, subject string, v interface{}) {
	if err := p.publisher.Publish(ctx, subject, v); err != nil {
		log.Printf("[pipeline] 发布 %s 失败: %v", subject, err)
	}
}

// collectPools 涨停池失败时中止，跌停池失败只记录日志
func (p *Pipeline) collectPools(ctx context.Context, date string) ([]model.LimitStock, []model.LimitStock, error) {
	ups, err := p.source.GetLimitStocks(ctx, date, model.LimitUp)
	if err != nil {
		return nil, nil, fmt.Errorf("获取涨停池失败: %w", err)
	}
	downs, err := p.source.GetLimitStocks(ctx, date, model.LimitDown)
	if err != nil {
		log.Printf("[pipeline] 获取跌停池失败: %v", err)
		downs = nil
	}

	all := append(append([]model.LimitStock{}, ups...), downs...)
	if len(all) > 0 {
		if err := p.store.SaveLimitStocks(ctx, all); err != nil {
			return nil, nil, fmt.Errorf("保存涨跌停股失败: %w", err)
		}
	}
	return ups, downs, nil
}

// saveSnapshot 数据源快照失败时由涨跌停池汇总
func (p *Pipeline) saveSnapshot(ctx context.Context, date string, ups, downs []model.LimitStock) error {
	snapshot, err := p.source.GetDailySnapshot(ctx, date)
	if err != nil {
		log.Printf("[pipeline] 获取市场快照失败，由涨跌停池汇总: %v", err)
		snapshot = collector.BuildSnapshot(date, ups, downs, nil)
	}
	if err := p.store.SaveSnapshot(ctx, snapshot); err != nil {
		return fmt.Errorf("保存市场快照失败: %w", err)
	}
	return nil
}

// previousDate 交易日历优先，其次是已保存的上一个快照
func (p *Pipeline) previousDate(ctx context.Context, date string) (string, error) {
	prev, err := collector.PreviousTradingDay(ctx, p.source, date)
	if err == nil {
		return prev, nil
	}
	log.Printf("[pipeline] 获取前一交易日失败，使用已保存快照: %v", err)
	snapshot, serr := p.store.PreviousSnapshot(ctx, date)
	if serr != nil {
		return "", serr
	}
	return snapshot.TradeDate, nil
}

func (p *Pipeline) joinYesterday(ctx context.Context, date string, today []model.LimitStock) (string, int, error) {
	prev, err := p.previousDate(ctx, date)
	if errors.Is(err, model.ErrSnapshotNotFound) {
		log.Printf("[pipeline] %s 没有前一交易日数据，跳过昨日涨停表现", date)
		return "", 0, nil
	}
	if err != nil {
		return "", 0, fmt.Errorf("确定前一交易日失败: %w", err)
	}

	yesterday, _, err := p.store.ListLimitStocks(ctx, repository.LimitStockQuery{TradeDate: prev, LimitType: model.LimitUp})
	if err != nil {
		return prev, 0, fmt.Errorf("获取昨日涨停股失败: %w", err)
	}
	if len(yesterday) == 0 {
		yesterday, err = p.source.GetLimitStocks(ctx, prev, model.LimitUp)
		if err != nil {
			log.Printf("[pipeline] 获取 %s 涨停池失败，跳过昨日涨停表现: %v", prev, err)
			return prev, 0, nil
		}
		if len(yesterday) > 0 {
			if err := p.store.SaveLimitStocks(ctx, yesterday); err != nil {
				return prev, 0, fmt.Errorf("保存昨日涨停股失败: %w", err)
			}
		}
	}
	if len(yesterday) == 0 {
		return prev, 0, nil
	}

	codes := make([]string, 0, len(yesterday))
	for _, s := range yesterday {
		codes = append(codes, model.BareCode(s.StockCode))
	}
	bars, err := p.source.GetDailyBars(ctx, codes, date)
	if err != nil {
		log.Printf("[pipeline] 获取日线失败，昨日涨停表现缺少涨跌幅: %v", err)
		bars = nil
	}

	rows := collector.JoinYesterday(date, prev, yesterday, bars, today)
	if err := p.store.SaveYesterdayPerformance(ctx, rows); err != nil {
		return prev, 0, fmt.Errorf("保存昨日涨停表现失败: %w", err)
	}
	return prev, len(rows), nil
}

// rankHotConcepts 保存原始涨幅榜后加载成分股，再补充涨停数、主线和龙头
func (p *Pipeline) rankHotConcepts(ctx context.Context, date string) (int, error) {
	hot, err := p.source.GetHotConcepts(ctx, date, p.hotTopN)
	if err != nil {
		log.Printf("[pipeline] 获取热门概念失败: %v", err)
		return 0, nil
	}
	if len(hot) == 0 {
		return 0, nil
	}
	for i := range hot {
		hot[i].TradeDate = date
	}

	if r, ok := p.source.(ConceptRefresher); ok {
		names := make([]string, 0, len(hot))
		for _, hc := range hot {
			names = append(names, hc.ConceptName)
		}
		n := r.RefreshConcepts(ctx, names)
		log.Printf("[pipeline] 刷新概念成分 %d/%d", n, len(names))
	}

	if err := p.store.SaveHotConcepts(ctx, hot); err != nil {
		return 0, fmt.Errorf("保存热门概念失败: %w", err)
	}
	day, err := p.service.LoadDay(ctx, date)
	if err != nil {
		return 0, err
	}
	ranked := p.service.Ladder().RankHotConcepts(day, hot)
	if err := p.store.SaveHotConcepts(ctx, ranked); err != nil {
		return 0, fmt.Errorf("保存热门概念失败: %w", err)
	}
	return len(ranked), nil
}
