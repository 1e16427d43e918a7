package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dewei/SentimentRadar/pkg/backtest"
	"github.com/dewei/SentimentRadar/pkg/cache"
	"github.com/dewei/SentimentRadar/pkg/export"
	"github.com/dewei/SentimentRadar/pkg/messaging"
	"github.com/dewei/SentimentRadar/pkg/model"
	"github.com/dewei/SentimentRadar/pkg/monitor"
	"github.com/dewei/SentimentRadar/pkg/repository"
	"github.com/dewei/SentimentRadar/pkg/sentiment"
)

// maxExportDays 梯队导出的最大日期跨度
const maxExportDays = 31

// Deps 处理程序依赖，Stages、Analyzer、Monitor 可为空
type Deps struct {
	Store    repository.Store
	Service  *sentiment.Service
	Backtest *backtest.Accumulator
	Analyzer *backtest.Analyzer
	Stages   *cache.StageCache
	Monitor  *monitor.Monitor
}

// Handlers API处理程序
type Handlers struct {
	Deps
	now func() time.Time
}

// NewHandlers 创建API处理程序
func NewHandlers(deps Deps) *Handlers {
	if deps.Stages == nil {
		deps.Stages = cache.NewStageCache(nil, 0)
	}
	return &Handlers{Deps: deps, now: time.Now}
}

type dateQuery struct {
	TradeDate string `form:"trade_date" binding:"omitempty,tradedate"`
}

// resolveDate 未指定日期时使用最近一个有快照的交易日，没有快照时使用今天
func (h *Handlers) resolveDate(ctx context.Context, raw string) (string, error) {
	if raw != "" {
		return model.NormalizeTradeDate(raw)
	}
	tomorrow := h.now().AddDate(0, 0, 1).Format(model.TradeDateLayout)
	latest, err := h.Store.PreviousSnapshot(ctx, tomorrow)
	if err == nil {
		return latest.TradeDate, nil
	}
	if !errors.Is(err, model.ErrSnapshotNotFound) {
		return "", err
	}
	return h.now().Format(model.TradeDateLayout), nil
}

func (h *Handlers) bindDate(c *gin.Context) (string, bool) {
	var q dateQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "无效的请求参数: "+err.Error())
		return "", false
	}
	date, err := h.resolveDate(c.Request.Context(), q.TradeDate)
	if err != nil {
		fail(c, "确定交易日失败", err)
		return "", false
	}
	return date, true
}

// HealthCheck 存活检查
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ReadinessCheck 所有组件健康时就绪
func (h *Handlers) ReadinessCheck(c *gin.Context) {
	if h.Monitor == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
		return
	}
	status := "ready"
	code := http.StatusOK
	if !h.Monitor.Healthy() {
		status = "not_ready"
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{"status": status, "components": h.Monitor.GetAllStatus()})
}

// OnStageMessage 收到新的情绪阶段后清除该日缓存
func (h *Handlers) OnStageMessage(subject string, data []byte) error {
	var rec model.EmotionStageRecord
	if err := messaging.Decode(data, &rec); err != nil {
		return fmt.Errorf("解析情绪阶段消息失败: %w", err)
	}
	if rec.TradeDate == "" {
		return nil
	}
	return h.Stages.Invalidate(context.Background(), rec.TradeDate)
}

// GetEmotionStage 情绪阶段，优先读缓存
func (h *Handlers) GetEmotionStage(c *gin.Context) {
	date, ok := h.bindDate(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if rec, hit := h.Stages.GetStage(ctx, date); hit {
		c.JSON(http.StatusOK, gin.H{"data": rec, "cached": true})
		return
	}

	rec, err := h.Service.ClassifyEmotionStage(ctx, date)
	if err != nil {
		fail(c, "判定情绪阶段失败", err)
		return
	}
	// 无快照时以 404 返回占位阶段，不写缓存
	if rec.InsufficientData {
		c.JSON(http.StatusNotFound, gin.H{"data": rec, "cached": false, "error": model.ErrSnapshotNotFound.Error()})
		return
	}
	if err := h.Stages.SetStage(ctx, rec); err != nil {
		log.Printf("[api] 缓存情绪阶段失败: %v", err)
	}
	c.JSON(http.StatusOK, gin.H{"data": rec, "cached": false})
}

// GetAnalysis 情绪分析完整数据
func (h *Handlers) GetAnalysis(c *gin.Context) {
	date, ok := h.bindDate(c)
	if !ok {
		return
	}
	analysis, err := h.Service.GetAnalysis(c.Request.Context(), date)
	if err != nil {
		fail(c, "获取情绪分析失败", err)
		return
	}
	if stage := analysis.Dashboard.Stage; stage != nil && stage.InsufficientData {
		c.JSON(http.StatusNotFound, gin.H{"data": analysis, "error": model.ErrSnapshotNotFound.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": analysis})
}

func (h *Handlers) ladder(ctx context.Context, date string) (*model.ConceptLadder, error) {
	if ladder, hit := h.Stages.GetLadder(ctx, date); hit {
		return ladder, nil
	}
	ladder, err := h.Service.AnalyzeConceptLadder(ctx, date)
	if err != nil {
		return nil, err
	}
	// 流水线运行前的空梯队不缓存
	if ladder.Available {
		if err := h.Stages.SetLadder(ctx, &ladder); err != nil {
			log.Printf("[api] 缓存概念梯队失败: %v", err)
		}
	}
	return &ladder, nil
}

// GetConceptLadder 概念梯队
func (h *Handlers) GetConceptLadder(c *gin.Context) {
	date, ok := h.bindDate(c)
	if !ok {
		return
	}
	ladder, err := h.ladder(c.Request.Context(), date)
	if err != nil {
		fail(c, "分析概念梯队失败", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": ladder})
}

type rangeQuery struct {
	TradeDate string `form:"trade_date" binding:"omitempty,tradedate"`
	StartDate string `form:"start_date" binding:"omitempty,tradedate"`
	EndDate   string `form:"end_date" binding:"omitempty,tradedate"`
}

// exportDates 单日或区间内的工作日
func (h *Handlers) exportDates(c *gin.Context) ([]string, bool) {
	var q rangeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "无效的请求参数: "+err.Error())
		return nil, false
	}
	if q.StartDate == "" {
		date, err := h.resolveDate(c.Request.Context(), q.TradeDate)
		if err != nil {
			fail(c, "确定交易日失败", err)
			return nil, false
		}
		return []string{date}, true
	}

	start, _ := model.ParseTradeDate(q.StartDate)
	end := start
	if q.EndDate != "" {
		end, _ = model.ParseTradeDate(q.EndDate)
	}
	if end.Before(start) || end.Sub(start) > maxExportDays*24*time.Hour {
		badRequest(c, fmt.Sprintf("日期区间无效，最多 %d 天", maxExportDays))
		return nil, false
	}
	var dates []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		date := d.Format(model.TradeDateLayout)
		if !model.IsWeekend(date) {
			dates = append(dates, date)
		}
	}
	if len(dates) == 0 {
		badRequest(c, "日期区间内没有交易日")
		return nil, false
	}
	return dates, true
}

func attachment(c *gin.Context, filename string, write func() ([]byte, error)) {
	data, err := write()
	if err != nil {
		fail(c, "生成Excel失败", err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, export.ContentType, data)
}

// ExportConceptLadder 概念梯队Excel，每个交易日一个工作表
func (h *Handlers) ExportConceptLadder(c *gin.Context) {
	dates, ok := h.exportDates(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	ladders := make([]*model.ConceptLadder, 0, len(dates))
	for _, d := range dates {
		ladder, err := h.ladder(ctx, d)
		if err != nil {
			fail(c, "分析概念梯队失败", err)
			return
		}
		ladders = append(ladders, ladder)
	}

	attachment(c, export.LadderFilename(dates[0], dates[len(dates)-1]), func() ([]byte, error) {
		f, err := export.LadderWorkbook(ladders)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		buf, err := f.WriteToBuffer()
		if err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	})
}

// GetPremiumScore 个股溢价评分，当日未涨停返回404
func (h *Handlers) GetPremiumScore(c *gin.Context) {
	date, ok := h.bindDate(c)
	if !ok {
		return
	}
	code := model.BareCode(c.Param("code"))
	if len(code) != 6 {
		badRequest(c, "股票代码必须为6位")
		return
	}

	score, err := h.Service.ComputePremiumScore(c.Request.Context(), code, date, "")
	if err != nil {
		fail(c, "计算溢价评分失败", err)
		return
	}
	if score == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("%s 在 %s 没有涨停记录", code, date)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": score})
}

type premiumQuery struct {
	TradeDate string `form:"trade_date" binding:"omitempty,tradedate"`
	Limit     int    `form:"limit" binding:"omitempty,min=1,max=500"`
}

// premiumScores 已保存的评分优先，没有时现场计算
func (h *Handlers) premiumScores(ctx context.Context, date string, limit int) ([]*model.PremiumScore, error) {
	stored, err := h.Store.ListPremiumScores(ctx, date, limit)
	if err != nil {
		return nil, err
	}
	if len(stored) > 0 {
		out := make([]*model.PremiumScore, len(stored))
		for i := range stored {
			out[i] = &stored[i]
		}
		return out, nil
	}

	scores, err := h.Service.ScoreDay(ctx, date, "")
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(scores) > limit {
		scores = scores[:limit]
	}
	return scores, nil
}

// ListPremiumScores 某日全部涨停股评分，按总分降序
func (h *Handlers) ListPremiumScores(c *gin.Context) {
	var q premiumQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "无效的请求参数: "+err.Error())
		return
	}
	ctx := c.Request.Context()
	date, err := h.resolveDate(ctx, q.TradeDate)
	if err != nil {
		fail(c, "确定交易日失败", err)
		return
	}
	scores, err := h.premiumScores(ctx, date, q.Limit)
	if err != nil {
		fail(c, "获取溢价评分失败", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trade_date": date, "total": len(scores), "data": scores})
}

// ExportPremiumScores 溢价评分Excel
func (h *Handlers) ExportPremiumScores(c *gin.Context) {
	date, ok := h.bindDate(c)
	if !ok {
		return
	}
	scores, err := h.premiumScores(c.Request.Context(), date, 0)
	if err != nil {
		fail(c, "获取溢价评分失败", err)
		return
	}
	attachment(c, fmt.Sprintf("premium_scores_%s.xlsx", model.ToCompactDate(date)), func() ([]byte, error) {
		f, err := export.PremiumWorkbook(date, scores)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		buf, err := f.WriteToBuffer()
		if err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	})
}

type limitStockQuery struct {
	TradeDate         string `form:"trade_date" binding:"omitempty,tradedate"`
	LimitType         string `form:"limit_type" binding:"omitempty,oneof=limit_up limit_down"`
	MinContinuousDays int    `form:"min_continuous_days" binding:"omitempty,min=1"`
	Page              int    `form:"page" binding:"omitempty,min=1"`
	PageSize          int    `form:"page_size" binding:"omitempty,min=1,max=200"`
}

// ListLimitStocks 涨跌停个股查询
func (h *Handlers) ListLimitStocks(c *gin.Context) {
	var q limitStockQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "无效的请求参数: "+err.Error())
		return
	}
	ctx := c.Request.Context()
	date, err := h.resolveDate(ctx, q.TradeDate)
	if err != nil {
		fail(c, "确定交易日失败", err)
		return
	}
	if q.Page == 0 {
		q.Page = 1
	}
	if q.PageSize == 0 {
		q.PageSize = 50
	}

	stocks, total, err := h.Store.ListLimitStocks(ctx, repository.LimitStockQuery{
		TradeDate:         date,
		LimitType:         model.LimitType(q.LimitType),
		MinContinuousDays: q.MinContinuousDays,
		Page:              q.Page,
		PageSize:          q.PageSize,
	})
	if err != nil {
		fail(c, "获取涨跌停股失败", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"trade_date": date,
		"total":      total,
		"page":       q.Page,
		"page_size":  q.PageSize,
		"data":       stocks,
	})
}

type hotConceptQuery struct {
	TradeDate string `form:"trade_date" binding:"omitempty,tradedate"`
	TopN      int    `form:"top_n" binding:"omitempty,min=1,max=100"`
}

// ListHotConcepts 热门概念
func (h *Handlers) ListHotConcepts(c *gin.Context) {
	var q hotConceptQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "无效的请求参数: "+err.Error())
		return
	}
	ctx := c.Request.Context()
	date, err := h.resolveDate(ctx, q.TradeDate)
	if err != nil {
		fail(c, "确定交易日失败", err)
		return
	}
	if q.TopN == 0 {
		q.TopN = 10
	}
	concepts, err := h.Store.ListHotConcepts(ctx, date, q.TopN)
	if err != nil {
		fail(c, "获取热门概念失败", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trade_date": date, "data": concepts})
}
