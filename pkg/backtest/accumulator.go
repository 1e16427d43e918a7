package backtest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/dewei/SentimentRadar/pkg/collector"
	"github.com/dewei/SentimentRadar/pkg/engine"
	"github.com/dewei/SentimentRadar/pkg/model"
	"github.com/dewei/SentimentRadar/pkg/repository"
)

// 预测判定分数线
const (
	HighScoreLine = 7.0
	LowScoreLine  = 5.0
)

// DefaultBatchLimit 单日最多回测的涨停股数量
const DefaultBatchLimit = 50

// SubjectBacktestSaved 回测批次完成后发布的主题
const SubjectBacktestSaved = "backtest.saved"

// Scorer 溢价评分与情绪阶段
type Scorer interface {
	ClassifyEmotionStage(ctx context.Context, date string) (*model.EmotionStageRecord, error)
	ComputePremiumScore(ctx context.Context, code, date string, cachedStage model.EmotionStage) (*model.PremiumScore, error)
	ScoreDay(ctx context.Context, date string, cachedStage model.EmotionStage) ([]*model.PremiumScore, error)
}

// Publisher 消息发布
type Publisher interface {
	Publish(ctx context.Context, subject string, v interface{}) error
}

// BatchResult 单日批量回测结果
type BatchResult struct {
	TradeDate     string `json:"trade_date"`
	NextTradeDate string `json:"next_trade_date"`
	Total         int    `json:"total"`
	Success       int    `json:"success"`
	Fail          int    `json:"fail"`
	Error         string `json:"error,omitempty"`
}

// Accumulator 溢价评分回测：评分、次日表现、预测评估与统计
type Accumulator struct {
	store     repository.Store
	scorer    Scorer
	bars      collector.DailyBarSource
	calendar  collector.TradingCalendar
	publisher Publisher
}

// NewAccumulator bars、calendar 可为 nil
func NewAccumulator(store repository.Store, scorer Scorer, bars collector.DailyBarSource, calendar collector.TradingCalendar) *Accumulator {
	return &Accumulator{
		store:    store,
		scorer:   scorer,
		bars:     bars,
		calendar: calendar,
	}
}

// SetPublisher 设置批次完成通知
func (a *Accumulator) SetPublisher(p Publisher) {
	a.publisher = p
}

// EvaluatePrediction 高分(>=7)次日上涨、低分(<5)次日不涨为正确，中间分数为中性
func EvaluatePrediction(score float64, nextPct *float64) model.PredictionResult {
	if nextPct == nil {
		return model.PredictionUnknown
	}
	switch {
	case score >= HighScoreLine:
		if *nextPct > 0 {
			return model.PredictionCorrect
		}
		return model.PredictionWrong
	case score < LowScoreLine:
		if *nextPct <= 0 {
			return model.PredictionCorrect
		}
		return model.PredictionWrong
	default:
		return model.PredictionNeutral
	}
}

// nextDay 次日表现
type nextDay struct {
	changePct    float64
	closePrice   float64
	turnoverRate *float64
	limitType    model.LimitType
}

// resolveNextDate 未指定次日时先查交易日历，没有日历则取下一个自然日
func (a *Accumulator) resolveNextDate(ctx context.Context, date, next string) (string, error) {
	if next != "" {
		return model.NormalizeTradeDate(next)
	}
	if a.calendar != nil {
		d, err := collector.NextTradingDay(ctx, a.calendar, date)
		if err == nil {
			return d, nil
		}
		log.Printf("[backtest] 获取 %s 的下一交易日失败: %v", date, err)
	}
	t, err := model.ParseTradeDate(date)
	if err != nil {
		return "", err
	}
	return t.AddDate(0, 0, 1).Format(model.TradeDateLayout), nil
}

// fromLimitTable 次日涨跌停表中的记录
func (a *Accumulator) fromLimitTable(ctx context.Context, code, nextDate string) (*nextDay, error) {
	for _, lt := range []model.LimitType{model.LimitUp, model.LimitDown} {
		s, err := a.store.GetLimitStock(ctx, code, nextDate, lt)
		if errors.Is(err, model.ErrStockNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return &nextDay{
			changePct:    s.ChangePct,
			closePrice:   s.ClosePrice,
			turnoverRate: s.TurnoverRate,
			limitType:    s.LimitType,
		}, nil
	}
	return nil, nil
}

// nextDays 批量获取次日表现：先查涨跌停表，其余走日线数据源
func (a *Accumulator) nextDays(ctx context.Context, codes []string, nextDate string) map[string]*nextDay {
	result := make(map[string]*nextDay, len(codes))
	var missing []string
	for _, code := range codes {
		nd, err := a.fromLimitTable(ctx, code, nextDate)
		if err != nil {
			log.Printf("[backtest] 查询 %s %s 涨跌停记录失败: %v", code, nextDate, err)
		}
		if nd != nil {
			result[code] = nd
			continue
		}
		missing = append(missing, code)
	}
	if len(missing) == 0 || a.bars == nil {
		return result
	}

	bars, err := a.bars.GetDailyBars(ctx, missing, nextDate)
	if err != nil {
		log.Printf("[backtest] 获取 %s 日线失败: %v", nextDate, err)
		return result
	}
	for _, code := range missing {
		bar, ok := bars[code]
		if !ok {
			continue
		}
		nd := &nextDay{
			changePct:    bar.ChangePct,
			closePrice:   bar.Close,
			turnoverRate: bar.TurnoverRate,
		}
		if lt, ok := collector.LimitTypeOfChange(bar.ChangePct); ok {
			nd.limitType = lt
		}
		result[code] = nd
	}
	return result
}

// buildRecord 由评分和次日表现生成回测记录
func buildRecord(score *model.PremiumScore, nextDate string, nd *nextDay) model.BacktestRecord {
	rec := model.BacktestRecord{
		StockCode:        score.StockCode,
		StockName:        score.StockName,
		TradeDate:        score.TradeDate,
		ContinuousDays:   score.PositionDetail.ContinuousDays,
		TotalScore:       score.TotalScore,
		PremiumLevel:     score.PremiumLevel,
		TechnicalScore:   score.TechnicalScore,
		CapitalScore:     score.CapitalScore,
		ThemeScore:       score.ThemeScore,
		PositionScore:    score.PositionScore,
		MarketScore:      score.MarketScore,
		PredictionResult: model.PredictionUnknown,
	}
	if nd == nil {
		return rec
	}
	change := nd.changePct
	closePrice := nd.closePrice
	rec.NextTradeDate = nextDate
	rec.NextDayChangePct = &change
	rec.NextDayClosePrice = &closePrice
	rec.NextDayTurnoverRate = nd.turnoverRate
	rec.IsNextDayLimitUp = nd.limitType == model.LimitUp
	rec.IsNextDayLimitDown = nd.limitType == model.LimitDown
	rec.PredictionResult = EvaluatePrediction(score.TotalScore, &change)
	rec.IsProfitable = change > 0
	return rec
}

// SaveRecord 保存单只股票的回测记录，当日无涨停记录时返回 nil
func (a *Accumulator) SaveRecord(ctx context.Context, code, date, next string, cachedStage model.EmotionStage) (*model.BacktestRecord, error) {
	date, err := model.NormalizeTradeDate(date)
	if err != nil {
		return nil, err
	}
	score, err := a.scorer.ComputePremiumScore(ctx, code, date, cachedStage)
	if err != nil {
		return nil, fmt.Errorf("计算溢价评分失败: %w", err)
	}
	if score == nil {
		return nil, nil
	}

	nextDate, err := a.resolveNextDate(ctx, date, next)
	if err != nil {
		return nil, err
	}
	records := []model.BacktestRecord{
		buildRecord(score, nextDate, a.nextDays(ctx, []string{score.StockCode}, nextDate)[score.StockCode]),
	}
	if err := a.store.SaveBacktestRecords(ctx, records); err != nil {
		return nil, err
	}
	return &records[0], nil
}

// BatchSave 回测某日全部涨停股（按连板数降序取前 limit 只），整批只评分一次
func (a *Accumulator) BatchSave(ctx context.Context, date, next string, limit int) (*BatchResult, error) {
	date, err := model.NormalizeTradeDate(date)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultBatchLimit
	}
	start := time.Now()

	stage, err := a.scorer.ClassifyEmotionStage(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("计算情绪阶段失败: %w", err)
	}

	stocks, _, err := a.store.ListLimitStocks(ctx, repository.LimitStockQuery{
		TradeDate: date,
		LimitType: model.LimitUp,
		Page:      1,
		PageSize:  limit,
	})
	if err != nil {
		return nil, err
	}

	nextDate, err := a.resolveNextDate(ctx, date, next)
	if err != nil {
		return nil, err
	}
	result := &BatchResult{TradeDate: date, NextTradeDate: nextDate, Total: len(stocks)}

	dayScores, err := a.scorer.ScoreDay(ctx, date, stage.ScoringStage())
	if err != nil {
		return nil, fmt.Errorf("计算溢价评分失败: %w", err)
	}
	byCode := make(map[string]*model.PremiumScore, len(dayScores))
	for _, score := range dayScores {
		byCode[score.StockCode] = score
	}

	scores := make([]*model.PremiumScore, 0, len(stocks))
	codes := make([]string, 0, len(stocks))
	for _, s := range stocks {
		score, ok := byCode[s.StockCode]
		if !ok {
			log.Printf("[backtest] %s %s 无评分结果", date, s.StockCode)
			result.Fail++
			continue
		}
		scores = append(scores, score)
		codes = append(codes, score.StockCode)
	}

	nextData := a.nextDays(ctx, codes, nextDate)
	records := make([]model.BacktestRecord, 0, len(scores))
	for _, score := range scores {
		records = append(records, buildRecord(score, nextDate, nextData[score.StockCode]))
	}
	if err := a.store.SaveBacktestRecords(ctx, records); err != nil {
		return nil, err
	}
	result.Success = len(records)

	log.Printf("[backtest] %s 回测完成: 共%d只，成功%d，失败%d，耗时%s",
		date, result.Total, result.Success, result.Fail, time.Since(start).Truncate(time.Millisecond))

	if a.publisher != nil {
		if err := a.publisher.Publish(ctx, SubjectBacktestSaved, result); err != nil {
			log.Printf("[backtest] 发布回测结果失败: %v", err)
		}
	}
	return result, nil
}

// Query 回测记录分页查询，默认每页20条
func (a *Accumulator) Query(ctx context.Context, filter model.BacktestFilter) ([]model.BacktestRecord, int64, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	return a.store.QueryBacktest(ctx, filter)
}

// Delete 按ID删除回测记录
func (a *Accumulator) Delete(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return a.store.DeleteBacktest(ctx, ids)
}

// records 全部记录，tradeDate 为空时不过滤日期
func (a *Accumulator) records(ctx context.Context, tradeDate string) ([]model.BacktestRecord, error) {
	filter := model.BacktestFilter{}
	if tradeDate != "" {
		date, err := model.NormalizeTradeDate(tradeDate)
		if err != nil {
			return nil, err
		}
		filter.StartDate, filter.EndDate = date, date
	}
	records, _, err := a.store.QueryBacktest(ctx, filter)
	return records, err
}

// Statistics 按溢价等级与整体统计次日表现，只统计已有次日数据的记录
func (a *Accumulator) Statistics(ctx context.Context, tradeDate string) (*model.BacktestStats, error) {
	records, err := a.records(ctx, tradeDate)
	if err != nil {
		return nil, err
	}
	return Summarize(records), nil
}

// Summarize 汇总回测记录
func Summarize(records []model.BacktestRecord) *model.BacktestStats {
	stats := &model.BacktestStats{
		Total:   len(records),
		ByLevel: make(map[model.PremiumLevel]model.BacktestGroupStats),
	}
	groups := make(map[model.PremiumLevel][]model.BacktestRecord)
	var valid []model.BacktestRecord
	for _, r := range records {
		if !r.HasNextDay() {
			continue
		}
		valid = append(valid, r)
		groups[r.PremiumLevel] = append(groups[r.PremiumLevel], r)
	}
	for level, group := range groups {
		stats.ByLevel[level] = groupStats(group)
	}
	stats.Overall = groupStats(valid)
	return stats
}

func groupStats(group []model.BacktestRecord) model.BacktestGroupStats {
	var g model.BacktestGroupStats
	if len(group) == 0 {
		return g
	}
	sum := 0.0
	for _, r := range group {
		sum += *r.NextDayChangePct
		if r.IsNextDayLimitUp {
			g.LimitUpCount++
		}
		if r.IsProfitable {
			g.ProfitableCount++
		}
		if r.PredictionResult == model.PredictionCorrect {
			g.CorrectPredictions++
		}
	}
	n := float64(len(group))
	g.Count = len(group)
	g.AvgNextDayPct = engine.Round2(sum / n)
	g.LimitUpRate = engine.Round2(float64(g.LimitUpCount) / n * 100)
	g.ProfitableRate = engine.Round2(float64(g.ProfitableCount) / n * 100)
	g.PredictionAccuracy = engine.Round2(float64(g.CorrectPredictions) / n * 100)
	return g
}
