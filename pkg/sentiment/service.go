package sentiment

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/dewei/SentimentRadar/pkg/engine"
	"github.com/dewei/SentimentRadar/pkg/model"
	"github.com/dewei/SentimentRadar/pkg/repository"
)

// ConceptMembership 概念成分查询
type ConceptMembership interface {
	GetConceptMembers(ctx context.Context, concept string) ([]string, error)
}

// Options 情绪服务参数
type Options struct {
	TopConcepts       int
	MainLineMin       int
	MaxRecursionDepth int
	StageThresholds   engine.StageThresholds
	PremiumThresholds engine.PremiumThresholds
}

// DefaultOptions 默认参数
func DefaultOptions() Options {
	return Options{
		TopConcepts:       10,
		MainLineMin:       8,
		MaxRecursionDepth: 30,
		StageThresholds:   engine.StageThresholdsV23,
		PremiumThresholds: engine.PremiumThresholdsV20,
	}
}

// Service 情绪周期、溢价评分与概念梯队服务
type Service struct {
	store      repository.Store
	members    ConceptMembership
	classifier *engine.StageClassifier
	scorer     *engine.PremiumScorer
	ladder     *engine.LadderAnalyzer
	opts       Options
}

// NewService 创建服务，members 为 nil 时只使用涨停记录自带的概念
func NewService(store repository.Store, members ConceptMembership, opts Options) *Service {
	if opts.TopConcepts <= 0 {
		opts.TopConcepts = 10
	}
	if opts.MainLineMin <= 0 {
		opts.MainLineMin = 8
	}
	if opts.MaxRecursionDepth <= 0 {
		opts.MaxRecursionDepth = 30
	}
	if opts.StageThresholds.Version == "" {
		opts.StageThresholds = engine.StageThresholdsV23
	}
	if opts.PremiumThresholds.Version == "" {
		opts.PremiumThresholds = engine.PremiumThresholdsV20
	}
	return &Service{
		store:      store,
		members:    members,
		classifier: engine.NewStageClassifier(opts.StageThresholds),
		scorer:     engine.NewPremiumScorer(opts.PremiumThresholds),
		ladder:     engine.NewLadderAnalyzer(opts.TopConcepts, opts.MainLineMin),
		opts:       opts,
	}
}

// Ladder 概念梯队分析器
func (s *Service) Ladder() *engine.LadderAnalyzer {
	return s.ladder
}

// ClassifyEmotionStage 判定某日情绪阶段，无快照时返回默认冰点记录
func (s *Service) ClassifyEmotionStage(ctx context.Context, tradeDate string) (*model.EmotionStageRecord, error) {
	date, err := model.NormalizeTradeDate(tradeDate)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.store.GetSnapshot(ctx, date)
	if errors.Is(err, model.ErrSnapshotNotFound) {
		log.Printf("%s 无市场快照，返回默认情绪阶段", date)
		return s.classifier.Empty(date), nil
	}
	if err != nil {
		return nil, fmt.Errorf("获取市场快照失败: %w", err)
	}

	in, err := s.stageInput(ctx, date, snapshot)
	if err != nil {
		return nil, err
	}
	memo := make(map[string]model.EmotionStage)
	return s.classifier.Classify(in, s.previousStage(ctx, memo, 0)), nil
}

// stageInput 组装单日判定输入：晋级率、昨日涨停溢价和近期高峰
func (s *Service) stageInput(ctx context.Context, date string, snapshot *model.MarketSnapshot) (engine.StageInput, error) {
	in := engine.StageInput{TradeDate: date, Snapshot: snapshot}

	prev, err := s.previousSnapshot(ctx, date)
	if err != nil {
		return in, err
	}
	if prev != nil {
		in.Promotion = engine.CalculatePromotion(snapshot.Distribution, prev.Distribution)
	}

	rows, err := s.store.ListYesterdayPerformance(ctx, date)
	if err != nil {
		return in, fmt.Errorf("获取昨日涨停表现失败: %w", err)
	}
	in.Premium = engine.CalculatePremiumStats(rows)

	peak, err := s.hadRecentPeak(ctx, date)
	if err != nil {
		return in, err
	}
	in.HadRecentPeak = peak
	return in, nil
}

func (s *Service) previousSnapshot(ctx context.Context, date string) (*model.MarketSnapshot, error) {
	prev, err := s.store.PreviousSnapshot(ctx, date)
	if errors.Is(err, model.ErrSnapshotNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("获取前一交易日快照失败: %w", err)
	}
	return prev, nil
}

// hadRecentPeak 最近 N 个交易日是否出现过加速或高潮
// 优先使用已保存的阶段，缺失时用空间板高度近似
func (s *Service) hadRecentPeak(ctx context.Context, date string) (bool, error) {
	recent, err := s.store.RecentSnapshots(ctx, date, s.opts.StageThresholds.RecentPeakDays)
	if err != nil {
		return false, fmt.Errorf("获取近期快照失败: %w", err)
	}
	for i := range recent {
		rec, err := s.store.GetEmotionStage(ctx, recent[i].TradeDate)
		switch {
		case err == nil:
			if rec.Stage.IsPeak() {
				return true, nil
			}
		case errors.Is(err, model.ErrNotFound):
			if s.classifier.ProxyStage(&recent[i]).IsPeak() {
				return true, nil
			}
		default:
			return false, fmt.Errorf("获取情绪阶段失败: %w", err)
		}
	}
	return false, nil
}

// previousStage 前一交易日阶段：已保存的记录优先，否则递归计算
// memo 在一次判定内按日期缓存，递归深度超过上限时视为无前一日阶段
func (s *Service) previousStage(ctx context.Context, memo map[string]model.EmotionStage, depth int) engine.PreviousStageGetter {
	return func(tradeDate string) (model.EmotionStage, bool, error) {
		prev, err := s.previousSnapshot(ctx, tradeDate)
		if err != nil {
			return "", false, err
		}
		if prev == nil {
			return "", false, nil
		}
		if stage, ok := memo[prev.TradeDate]; ok {
			return stage, true, nil
		}

		rec, err := s.store.GetEmotionStage(ctx, prev.TradeDate)
		if err == nil {
			memo[prev.TradeDate] = rec.Stage
			return rec.Stage, true, nil
		}
		if !errors.Is(err, model.ErrNotFound) {
			return "", false, fmt.Errorf("获取情绪阶段失败: %w", err)
		}

		if depth >= s.opts.MaxRecursionDepth {
			log.Printf("递归计算前一日情绪阶段达到上限(%d)，%s 之前不再回溯", s.opts.MaxRecursionDepth, prev.TradeDate)
			return "", false, nil
		}
		in, err := s.stageInput(ctx, prev.TradeDate, prev)
		if err != nil {
			return "", false, err
		}
		computed := s.classifier.Classify(in, s.previousStage(ctx, memo, depth+1))
		memo[prev.TradeDate] = computed.Stage
		return computed.Stage, true, nil
	}
}

// LoadDay 加载某日涨停池、热门概念与前 N 概念的成分股
func (s *Service) LoadDay(ctx context.Context, tradeDate string) (*engine.DayContext, error) {
	stocks, _, err := s.store.ListLimitStocks(ctx, repository.LimitStockQuery{
		TradeDate: tradeDate,
		LimitType: model.LimitUp,
	})
	if err != nil {
		return nil, fmt.Errorf("获取涨停股失败: %w", err)
	}
	hot, err := s.store.ListHotConcepts(ctx, tradeDate, 0)
	if err != nil {
		return nil, fmt.Errorf("获取热门概念失败: %w", err)
	}

	var members map[string][]string
	if s.members != nil {
		members = make(map[string][]string)
		for _, hc := range hot {
			if hc.Rank < 1 || hc.Rank > s.opts.TopConcepts {
				continue
			}
			codes, err := s.members.GetConceptMembers(ctx, hc.ConceptName)
			if err != nil {
				log.Printf("获取概念 %s 成分股失败，使用涨停记录中的概念: %v", hc.ConceptName, err)
				continue
			}
			members[hc.ConceptName] = codes
		}
	}
	return engine.NewDayContext(tradeDate, stocks, hot, members), nil
}

// stageFor 优先使用调用方提供的阶段，避免批量评分时重复判定
func (s *Service) stageFor(ctx context.Context, date string, cachedStage model.EmotionStage) (model.EmotionStage, error) {
	if cachedStage != "" {
		return cachedStage, nil
	}
	rec, err := s.ClassifyEmotionStage(ctx, date)
	if err != nil {
		return "", err
	}
	return rec.ScoringStage(), nil
}

// ComputePremiumScore 计算个股明日溢价评分，当日无涨停记录返回 nil
func (s *Service) ComputePremiumScore(ctx context.Context, code, tradeDate string, cachedStage model.EmotionStage) (*model.PremiumScore, error) {
	date, err := model.NormalizeTradeDate(tradeDate)
	if err != nil {
		return nil, err
	}

	code = model.BareCode(code)
	if _, err := s.store.GetLimitStock(ctx, code, date, model.LimitUp); err != nil {
		if errors.Is(err, model.ErrStockNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("获取涨停记录失败: %w", err)
	}

	stage, err := s.stageFor(ctx, date, cachedStage)
	if err != nil {
		return nil, err
	}
	day, err := s.LoadDay(ctx, date)
	if err != nil {
		return nil, err
	}
	stock := day.Stock(code)
	if stock == nil {
		return nil, nil
	}

	return s.scorer.Score(engine.PremiumInput{
		Stock:             stock,
		Stage:             stage,
		Theme:             s.scorer.ResolveTheme(stock, day),
		MaxContinuousDays: day.MaxContinuousDays(),
	}), nil
}

// ScoreDay 为某日全部涨停股评分，按总分降序
func (s *Service) ScoreDay(ctx context.Context, tradeDate string, cachedStage model.EmotionStage) ([]*model.PremiumScore, error) {
	date, err := model.NormalizeTradeDate(tradeDate)
	if err != nil {
		return nil, err
	}
	stage, err := s.stageFor(ctx, date, cachedStage)
	if err != nil {
		return nil, err
	}
	day, err := s.LoadDay(ctx, date)
	if err != nil {
		return nil, err
	}
	return s.scorer.ScoreDay(day, stage), nil
}

// AnalyzeConceptLadder 分析某日热门概念梯队
func (s *Service) AnalyzeConceptLadder(ctx context.Context, tradeDate string) (model.ConceptLadder, error) {
	date, err := model.NormalizeTradeDate(tradeDate)
	if err != nil {
		return model.ConceptLadder{}, err
	}
	day, err := s.LoadDay(ctx, date)
	if err != nil {
		return model.ConceptLadder{}, err
	}
	return s.ladder.Analyze(day), nil
}

// GetAnalysis 情绪分析完整数据：仪表盘、昨日涨停表现、概念梯队与龙头分析
func (s *Service) GetAnalysis(ctx context.Context, tradeDate string) (*model.SentimentAnalysis, error) {
	date, err := model.NormalizeTradeDate(tradeDate)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.store.GetSnapshot(ctx, date)
	if err != nil && !errors.Is(err, model.ErrSnapshotNotFound) {
		return nil, fmt.Errorf("获取市场快照失败: %w", err)
	}
	prev, err := s.previousSnapshot(ctx, date)
	if err != nil {
		return nil, err
	}

	var promotion engine.PromotionResult
	if snapshot != nil && prev != nil {
		promotion = engine.CalculatePromotion(snapshot.Distribution, prev.Distribution)
	}

	rows, err := s.store.ListYesterdayPerformance(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("获取昨日涨停表现失败: %w", err)
	}

	stage, err := s.ClassifyEmotionStage(ctx, date)
	if err != nil {
		return nil, err
	}
	day, err := s.LoadDay(ctx, date)
	if err != nil {
		return nil, err
	}

	return &model.SentimentAnalysis{
		TradeDate:            date,
		Dashboard:            engine.BuildDashboard(date, snapshot, prev, promotion, stage, engine.CalculatePremiumStats(rows)),
		YesterdayPerformance: engine.SummarizeYesterday(rows),
		ConceptLadder:        s.ladder.Analyze(day),
		LeaderAnalysis:       engine.AnalyzeLeaders(day),
	}, nil
}
