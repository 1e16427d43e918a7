package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dewei/SentimentRadar/pkg/backtest"
	"github.com/dewei/SentimentRadar/pkg/export"
	"github.com/dewei/SentimentRadar/pkg/model"
)

type saveBacktestQuery struct {
	NextTradeDate string `form:"next_trade_date" binding:"omitempty,tradedate"`
	Limit         int    `form:"limit" binding:"omitempty,min=1,max=500"`
}

// SaveBacktest 批量保存某日回测记录
func (h *Handlers) SaveBacktest(c *gin.Context) {
	date, err := model.NormalizeTradeDate(c.Param("trade_date"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	var q saveBacktestQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "无效的请求参数: "+err.Error())
		return
	}
	if q.Limit == 0 {
		q.Limit = backtest.DefaultBatchLimit
	}

	res, err := h.Backtest.BatchSave(c.Request.Context(), date, q.NextTradeDate, q.Limit)
	if err != nil {
		fail(c, "保存回测记录失败", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": res})
}

type backtestQuery struct {
	StartDate string   `form:"start_date" binding:"omitempty,tradedate"`
	EndDate   string   `form:"end_date" binding:"omitempty,tradedate"`
	MinScore  *float64 `form:"min_score" binding:"omitempty,min=0,max=10"`
	MaxScore  *float64 `form:"max_score" binding:"omitempty,min=0,max=10"`
	Page      int      `form:"page" binding:"omitempty,min=1"`
	PageSize  int      `form:"page_size" binding:"omitempty,min=1,max=200"`
}

func (q backtestQuery) filter() model.BacktestFilter {
	f := model.BacktestFilter{
		MinScore: q.MinScore,
		MaxScore: q.MaxScore,
		Page:     q.Page,
		PageSize: q.PageSize,
	}
	f.StartDate, _ = normalizeOptional(q.StartDate)
	f.EndDate, _ = normalizeOptional(q.EndDate)
	return f
}

func normalizeOptional(date string) (string, error) {
	if date == "" {
		return "", nil
	}
	return model.NormalizeTradeDate(date)
}

// QueryBacktest 分页查询回测记录
func (h *Handlers) QueryBacktest(c *gin.Context) {
	var q backtestQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "无效的请求参数: "+err.Error())
		return
	}
	f := q.filter()
	records, total, err := h.Backtest.Query(c.Request.Context(), f)
	if err != nil {
		fail(c, "查询回测记录失败", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": total, "data": records})
}

// BacktestStatistics 回测统计，不指定日期时统计全部
func (h *Handlers) BacktestStatistics(c *gin.Context) {
	var q dateQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "无效的请求参数: "+err.Error())
		return
	}
	date, _ := normalizeOptional(q.TradeDate)
	stats, err := h.Backtest.Statistics(c.Request.Context(), date)
	if err != nil {
		fail(c, "统计回测结果失败", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trade_date": date, "data": stats})
}

// BacktestCorrelation 评分与次日涨幅的相关系数
func (h *Handlers) BacktestCorrelation(c *gin.Context) {
	if h.Analyzer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "相关性分析未启用"})
		return
	}
	var q backtestQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "无效的请求参数: "+err.Error())
		return
	}
	f := q.filter()
	corr, err := h.Backtest.CorrelationRange(c.Request.Context(), h.Analyzer, f.StartDate, f.EndDate)
	if err != nil {
		fail(c, "计算相关系数失败", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": corr})
}

// DeleteBacktest 按ID删除，?id=a&id=b
func (h *Handlers) DeleteBacktest(c *gin.Context) {
	ids := c.QueryArray("id")
	if len(ids) == 0 {
		badRequest(c, "缺少 id 参数")
		return
	}
	n, err := h.Backtest.Delete(c.Request.Context(), ids)
	if err != nil {
		fail(c, "删除回测记录失败", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}

// ExportBacktest 回测明细和统计Excel
func (h *Handlers) ExportBacktest(c *gin.Context) {
	var q backtestQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "无效的请求参数: "+err.Error())
		return
	}
	f := q.filter()
	f.Page, f.PageSize = 0, 0
	records, _, err := h.Store.QueryBacktest(c.Request.Context(), f)
	if err != nil {
		fail(c, "查询回测记录失败", err)
		return
	}
	stats := backtest.Summarize(records)

	attachment(c, export.BacktestFilename(f.StartDate, f.EndDate), func() ([]byte, error) {
		wb, err := export.BacktestWorkbook(records, stats)
		if err != nil {
			return nil, err
		}
		defer wb.Close()
		buf, err := wb.WriteToBuffer()
		if err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	})
}
