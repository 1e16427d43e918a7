package collector

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dewei/SentimentRadar/pkg/model"
)

// dailyBatchSize daily 接口单次请求的代码数量
const dailyBatchSize = 100

// TushareAdapter Tushare数据源适配器
type TushareAdapter struct {
	client *TushareClient
}

// NewTushareAdapter 创建Tushare适配器
func NewTushareAdapter(token, baseURL string, timeout time.Duration) *TushareAdapter {
	return &TushareAdapter{
		client: NewTushareClient(token, baseURL, timeout),
	}
}

// GetLimitStocks 获取涨停或跌停池，剔除ST
func (t *TushareAdapter) GetLimitStocks(ctx context.Context, date string, limitType model.LimitType) ([]model.LimitStock, error) {
	flag := "U"
	if limitType == model.LimitDown {
		flag = "D"
	}
	resp, err := t.client.LimitList(ctx, model.ToCompactDate(date), flag)
	if err != nil {
		return nil, fmt.Errorf("获取涨跌停列表失败: %w", err)
	}
	return t.normalizeLimitStocks(resp, date, limitType), nil
}

func (t *TushareAdapter) normalizeLimitStocks(resp *TushareResponse, date string, limitType model.LimitType) []model.LimitStock {
	rows := resp.Rows()
	result := make([]model.LimitStock, 0, len(rows))
	for _, r := range rows {
		name := r.str("name")
		if IsST(name) {
			continue
		}
		code := model.BareCode(r.str("ts_code"))
		if code == "" {
			continue
		}

		stock := model.LimitStock{
			StockCode:      code,
			StockName:      name,
			TradeDate:      date,
			LimitType:      limitType,
			TurnoverRate:   r.optFloat("turnover_ratio"),
			Amount:         r.optFloat("amount"),
			FirstLimitTime: clockPtr(r.str("first_time")),
			LastLimitTime:  clockPtr(r.str("last_time")),
			OpeningTimes:   r.int("open_times"),
			SealedAmount:   r.optFloat("fd_amount"),
			Concepts:       SplitConcepts(r.str("lu_desc")),
			Industry:       r.str("industry"),
		}
		stock.ChangePct, _ = r.float("pct_chg")
		stock.ClosePrice, _ = r.float("close")

		// limit_times 缺失时使用 up_stat 的第一段
		stock.ContinuousDays = r.int("limit_times", "up_stat")
		if stock.ContinuousDays < 1 {
			stock.ContinuousDays = 1
		}
		stock.IsStrongLimit = limitType == model.LimitUp && IsStrongLimit(stock.OpeningTimes, stock.FirstLimitTime)
		result = append(result, stock)
	}
	return result
}

// GetDailyBars 按代码批量获取某日日线，成交额换算为元
func (t *TushareAdapter) GetDailyBars(ctx context.Context, codes []string, date string) (map[string]model.DailyBar, error) {
	if len(codes) == 0 {
		return map[string]model.DailyBar{}, nil
	}
	tsCodes := make([]string, len(codes))
	for i, code := range codes {
		tsCodes[i] = TsCode(code)
	}

	bars := make(map[string]model.DailyBar, len(codes))
	for start := 0; start < len(tsCodes); start += dailyBatchSize {
		end := start + dailyBatchSize
		if end > len(tsCodes) {
			end = len(tsCodes)
		}
		resp, err := t.client.Daily(ctx, joinCodes(tsCodes[start:end]), model.ToCompactDate(date))
		if err != nil {
			return nil, fmt.Errorf("获取日线行情失败: %w", err)
		}
		for _, r := range resp.Rows() {
			bar := model.DailyBar{
				StockCode: model.BareCode(r.str("ts_code")),
				TradeDate: model.FromCompactDate(r.str("trade_date")),
			}
			bar.Open, _ = r.float("open")
			bar.High, _ = r.float("high")
			bar.Low, _ = r.float("low")
			bar.Close, _ = r.float("close")
			bar.PreClose, _ = r.float("pre_close")
			bar.ChangePct, _ = r.float("pct_chg")
			if amount, ok := r.float("amount"); ok {
				bar.Amount = amount * 1000
			}
			bars[bar.StockCode] = bar
		}
	}
	return bars, nil
}

// TradingDays 交易日历，升序
func (t *TushareAdapter) TradingDays(ctx context.Context, from, to string) ([]string, error) {
	resp, err := t.client.TradeCal(ctx, model.ToCompactDate(from), model.ToCompactDate(to))
	if err != nil {
		return nil, fmt.Errorf("获取交易日历失败: %w", err)
	}
	days := make([]string, 0, len(resp.Data.Items))
	for _, r := range resp.Rows() {
		if r.int("is_open") != 1 {
			continue
		}
		days = append(days, model.FromCompactDate(r.str("cal_date")))
	}
	sort.Strings(days)
	return days, nil
}

// joinCodes 将股票代码列表连接为字符串
func joinCodes(codes []string) string {
	return strings.Join(codes, ",")
}
