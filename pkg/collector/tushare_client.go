package collector

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/dewei/SentimentRadar/pkg/model"
)

// TushareClient Tushare API客户端
type TushareClient struct {
	token   string
	baseURL string
	http    *resty.Client
}

// TushareRequest Tushare API请求结构
type TushareRequest struct {
	APIName string                 `json:"api_name"`
	Token   string                 `json:"token"`
	Params  map[string]interface{} `json:"params,omitempty"`
	Fields  string                 `json:"fields,omitempty"`
}

// TushareResponse Tushare API响应结构
type TushareResponse struct {
	RequestID string `json:"request_id"`
	Code      int    `json:"code"`
	Msg       string `json:"msg"`
	Data      struct {
		Fields []string        `json:"fields"`
		Items  [][]interface{} `json:"items"`
	} `json:"data"`
}

// Rows 按字段名展开 items
func (r *TushareResponse) Rows() []row {
	rows := make([]row, 0, len(r.Data.Items))
	for _, item := range r.Data.Items {
		m := make(row, len(r.Data.Fields))
		for i, field := range r.Data.Fields {
			if i < len(item) {
				m[field] = item[i]
			}
		}
		rows = append(rows, m)
	}
	return rows
}

// NewTushareClient 创建新的Tushare客户端
func NewTushareClient(token, baseURL string, timeout time.Duration) *TushareClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &TushareClient{
		token:   token,
		baseURL: baseURL,
		http: resty.New().
			SetTimeout(timeout).
			SetRetryCount(2).
			SetRetryWaitTime(500 * time.Millisecond),
	}
}

// Execute 执行Tushare API请求
func (c *TushareClient) Execute(ctx context.Context, apiName string, params map[string]interface{}, fields string) (*TushareResponse, error) {
	body, err := json.Marshal(TushareRequest{
		APIName: apiName,
		Token:   c.token,
		Params:  params,
		Fields:  fields,
	})
	if err != nil {
		return nil, fmt.Errorf("序列化请求失败: %w", err)
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: 执行Tushare请求 %s 失败: %w", model.ErrUpstream, apiName, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%w: Tushare %s 返回状态码 %d", model.ErrUpstream, apiName, resp.StatusCode())
	}

	var out TushareResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("%w: 解析Tushare响应失败: %w", model.ErrUpstream, err)
	}
	if out.Code != 0 {
		return nil, fmt.Errorf("%w: Tushare %s 返回错误: %s", model.ErrUpstream, apiName, out.Msg)
	}
	return &out, nil
}

// LimitList 涨跌停列表 limit_list_d，limitType 为 U 或 D
func (c *TushareClient) LimitList(ctx context.Context, tradeDate, limitType string) (*TushareResponse, error) {
	fields := "trade_date,ts_code,industry,name,close,pct_chg,amount,turnover_ratio,fd_amount," +
		"first_time,last_time,open_times,up_stat,limit_times,limit,lu_desc"
	return c.Execute(ctx, "limit_list_d", map[string]interface{}{
		"trade_date": tradeDate,
		"limit_type": limitType,
	}, fields)
}

// Daily 日线行情
func (c *TushareClient) Daily(ctx context.Context, tsCodes, tradeDate string) (*TushareResponse, error) {
	fields := "ts_code,trade_date,open,high,low,close,pre_close,pct_chg,amount"
	return c.Execute(ctx, "daily", map[string]interface{}{
		"ts_code":    tsCodes,
		"trade_date": tradeDate,
	}, fields)
}

// TradeCal 交易日历
func (c *TushareClient) TradeCal(ctx context.Context, startDate, endDate string) (*TushareResponse, error) {
	return c.Execute(ctx, "trade_cal", map[string]interface{}{
		"exchange":   "SSE",
		"start_date": startDate,
		"end_date":   endDate,
		"is_open":    "1",
	}, "cal_date,is_open")
}
