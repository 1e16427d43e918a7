package collector

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/dewei/SentimentRadar/pkg/model"
)

// AKShareAdapter AKShare数据适配器，通过 AKTools HTTP 网关访问
type AKShareAdapter struct {
	baseURL string
	http    *resty.Client
}

// NewAKShareAdapter 创建新的AKShare数据适配器
func NewAKShareAdapter(baseURL string, timeout time.Duration) *AKShareAdapter {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &AKShareAdapter{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: resty.New().
			SetTimeout(timeout).
			SetRetryCount(2).
			SetRetryWaitTime(2 * time.Second),
	}
}

// call 调用 /api/public/<fn>，返回记录列表
func (a *AKShareAdapter) call(ctx context.Context, fn string, params map[string]string) ([]row, error) {
	resp, err := a.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(a.baseURL + "/api/public/" + fn)
	if err != nil {
		return nil, fmt.Errorf("%w: 请求AKShare %s 失败: %w", model.ErrUpstream, fn, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%w: AKShare %s 返回状态码 %d", model.ErrUpstream, fn, resp.StatusCode())
	}

	var rows []row
	if err := json.Unmarshal(resp.Body(), &rows); err != nil {
		return nil, fmt.Errorf("%w: 解析AKShare %s 响应失败: %w", model.ErrUpstream, fn, err)
	}
	return rows, nil
}

// GetLimitStocks 东方财富涨停池 / 跌停池，剔除ST
func (a *AKShareAdapter) GetLimitStocks(ctx context.Context, date string, limitType model.LimitType) ([]model.LimitStock, error) {
	fn := "stock_zt_pool_em"
	if limitType == model.LimitDown {
		fn = "stock_zt_pool_dtgc_em"
	}
	rows, err := a.call(ctx, fn, map[string]string{"date": model.ToCompactDate(date)})
	if err != nil {
		return nil, err
	}

	result := make([]model.LimitStock, 0, len(rows))
	for _, r := range rows {
		name := r.str("名称", "股票名称")
		if IsST(name) {
			continue
		}
		code := model.BareCode(r.str("代码", "股票代码"))
		if code == "" {
			continue
		}

		stock := model.LimitStock{
			StockCode:      code,
			StockName:      name,
			TradeDate:      date,
			LimitType:      limitType,
			TurnoverRate:   r.optFloat("换手率"),
			Amount:         r.optFloat("成交额"),
			FirstLimitTime: clockPtr(r.str("首次封板时间", "封板时间")),
			LastLimitTime:  clockPtr(r.str("最后封板时间")),
			OpeningTimes:   r.int("炸板次数", "打开次数", "开板次数"),
			SealedAmount:   r.optFloat("封板资金", "封单金额", "封单资金"),
			Concepts:       SplitConcepts(r.str("所属概念")),
			Industry:       r.str("所属行业"),
		}
		stock.ChangePct, _ = r.float("涨跌幅")
		stock.ClosePrice, _ = r.float("最新价", "现价", "收盘价")
		stock.ContinuousDays = r.int("连板数", "连续跌停", "涨停统计")
		if stock.ContinuousDays < 1 {
			stock.ContinuousDays = 1
		}
		stock.IsStrongLimit = limitType == model.LimitUp && IsStrongLimit(stock.OpeningTimes, stock.FirstLimitTime)
		result = append(result, stock)
	}
	return result, nil
}

// GetHotConcepts 概念板块按当日涨幅排名，取前 topN
func (a *AKShareAdapter) GetHotConcepts(ctx context.Context, date string, topN int) ([]model.HotConcept, error) {
	rows, err := a.call(ctx, "stock_board_concept_name_em", nil)
	if err != nil {
		return nil, err
	}

	concepts := make([]model.HotConcept, 0, len(rows))
	for _, r := range rows {
		name := r.str("板块名称", "名称")
		if name == "" {
			continue
		}
		hc := model.HotConcept{
			ConceptName: name,
			TradeDate:   date,
			TotalCount:  r.int("上涨家数") + r.int("下跌家数"),
		}
		hc.DayChangePct, _ = r.float("涨跌幅")
		concepts = append(concepts, hc)
	}
	sort.SliceStable(concepts, func(i, j int) bool { return concepts[i].DayChangePct > concepts[j].DayChangePct })
	if topN > 0 && len(concepts) > topN {
		concepts = concepts[:topN]
	}
	for i := range concepts {
		concepts[i].Rank = i + 1
	}
	return concepts, nil
}

// GetConceptMembers 概念成分股代码
func (a *AKShareAdapter) GetConceptMembers(ctx context.Context, concept string) ([]string, error) {
	rows, err := a.call(ctx, "stock_board_concept_cons_em", map[string]string{"symbol": concept})
	if err != nil {
		return nil, err
	}
	codes := make([]string, 0, len(rows))
	for _, r := range rows {
		if code := model.BareCode(r.str("代码")); code != "" {
			codes = append(codes, code)
		}
	}
	return codes, nil
}

// MarketActivity 乐咕乐股市场异动统计的涨跌家数，只反映最新交易日
func (a *AKShareAdapter) MarketActivity(ctx context.Context) (*MarketActivity, error) {
	rows, err := a.call(ctx, "stock_market_activity_legu", nil)
	if err != nil {
		return nil, err
	}
	activity := &MarketActivity{}
	for _, r := range rows {
		switch r.str("item") {
		case "上涨":
			activity.UpCount = r.int("value")
		case "下跌":
			activity.DownCount = r.int("value")
		case "平盘":
			activity.FlatCount = r.int("value")
		}
	}
	return activity, nil
}

// GetDailyBars 逐只获取日线（东方财富历史行情），用于 Tushare 不可用时
func (a *AKShareAdapter) GetDailyBars(ctx context.Context, codes []string, date string) (map[string]model.DailyBar, error) {
	compact := model.ToCompactDate(date)
	bars := make(map[string]model.DailyBar, len(codes))
	for _, code := range codes {
		code = model.BareCode(code)
		rows, err := a.call(ctx, "stock_zh_a_hist", map[string]string{
			"symbol":     code,
			"period":     "daily",
			"start_date": compact,
			"end_date":   compact,
			"adjust":     "",
		})
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			continue
		}
		r := rows[len(rows)-1]
		bar := model.DailyBar{
			StockCode:    code,
			TradeDate:    date,
			TurnoverRate: r.optFloat("换手率"),
		}
		bar.Open, _ = r.float("开盘")
		bar.High, _ = r.float("最高")
		bar.Low, _ = r.float("最低")
		bar.Close, _ = r.float("收盘")
		bar.ChangePct, _ = r.float("涨跌幅")
		bar.Amount, _ = r.float("成交额")
		if bar.ChangePct > -100 {
			bar.PreClose = bar.Close / (1 + bar.ChangePct/100)
		}
		bars[code] = bar
	}
	return bars, nil
}

// TradingDays 新浪交易日历，升序
func (a *AKShareAdapter) TradingDays(ctx context.Context, from, to string) ([]string, error) {
	rows, err := a.call(ctx, "tool_trade_date_hist_sina", nil)
	if err != nil {
		return nil, err
	}
	days := make([]string, 0)
	for _, r := range rows {
		d := r.str("trade_date")
		if len(d) > 10 {
			d = d[:10]
		}
		d = model.FromCompactDate(d)
		if d >= from && d <= to {
			days = append(days, d)
		}
	}
	sort.Strings(days)
	return days, nil
}

// LatestTradingDate 上证指数最近一根日线的日期
func (a *AKShareAdapter) LatestTradingDate(ctx context.Context) (string, error) {
	rows, err := a.call(ctx, "stock_zh_index_daily", map[string]string{"symbol": "sh000001"})
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", fmt.Errorf("%w: 指数日线为空", model.ErrUpstream)
	}
	d := rows[len(rows)-1].str("date")
	if len(d) > 10 {
		d = d[:10]
	}
	return model.FromCompactDate(d), nil
}
