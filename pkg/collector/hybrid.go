package collector

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/dewei/SentimentRadar/pkg/model"
)

// conceptCacheTTL 概念成分缓存有效期
const conceptCacheTTL = 24 * time.Hour

// HybridSource Tushare 优先、AKShare 兜底的组合数据源
type HybridSource struct {
	tushare *TushareAdapter
	akshare *AKShareAdapter
	cache   *ConceptCache
}

var (
	_ MarketDataSource  = (*HybridSource)(nil)
	_ ConceptMembership = (*HybridSource)(nil)
	_ HotConceptSource  = (*HybridSource)(nil)
	_ DailyBarSource    = (*HybridSource)(nil)
	_ TradingCalendar   = (*HybridSource)(nil)
)

// NewHybridSource tushare、akshare、cache 均可为 nil
func NewHybridSource(tushare *TushareAdapter, akshare *AKShareAdapter, cache *ConceptCache) *HybridSource {
	return &HybridSource{tushare: tushare, akshare: akshare, cache: cache}
}

func errNoSource(what string) error {
	return fmt.Errorf("%w: 没有可用的%s数据源", model.ErrUpstream, what)
}

// GetLimitStocks 涨跌停池，缺少概念的个股用缓存补全
func (h *HybridSource) GetLimitStocks(ctx context.Context, date string, limitType model.LimitType) ([]model.LimitStock, error) {
	stocks, err := h.limitStocks(ctx, date, limitType)
	if err != nil {
		return nil, err
	}
	if h.cache != nil {
		for i := range stocks {
			if len(stocks[i].Concepts) > 0 {
				continue
			}
			concepts, err := h.cache.ConceptsOf(ctx, stocks[i].StockCode)
			if err != nil {
				log.Printf("[collector] 读取 %s 概念缓存失败: %v", stocks[i].StockCode, err)
				continue
			}
			stocks[i].Concepts = concepts
		}
	}
	return stocks, nil
}

func (h *HybridSource) limitStocks(ctx context.Context, date string, limitType model.LimitType) ([]model.LimitStock, error) {
	if h.tushare != nil {
		stocks, err := h.tushare.GetLimitStocks(ctx, date, limitType)
		if err == nil && len(stocks) > 0 {
			return stocks, nil
		}
		if err != nil {
			log.Printf("[collector] Tushare 获取 %s %s 失败，切换 AKShare: %v", date, limitType, err)
		}
	}
	if h.akshare == nil {
		return nil, errNoSource("涨跌停")
	}
	return h.akshare.GetLimitStocks(ctx, date, limitType)
}

// GetDailySnapshot 由涨跌停池汇总当日快照，当日数据补充涨跌家数
func (h *HybridSource) GetDailySnapshot(ctx context.Context, date string) (*model.MarketSnapshot, error) {
	ups, err := h.limitStocks(ctx, date, model.LimitUp)
	if err != nil {
		return nil, fmt.Errorf("获取涨停池失败: %w", err)
	}
	downs, err := h.limitStocks(ctx, date, model.LimitDown)
	if err != nil {
		return nil, fmt.Errorf("获取跌停池失败: %w", err)
	}

	var activity *MarketActivity
	if h.akshare != nil && date == time.Now().Format(model.TradeDateLayout) {
		if activity, err = h.akshare.MarketActivity(ctx); err != nil {
			log.Printf("[collector] 获取涨跌家数失败: %v", err)
			activity = nil
		}
	}
	return BuildSnapshot(date, ups, downs, activity), nil
}

// GetConceptMembers 概念成分，缓存未过期时不访问网络
func (h *HybridSource) GetConceptMembers(ctx context.Context, concept string) ([]string, error) {
	if h.cache != nil {
		codes, ok, err := h.cache.Members(ctx, concept, conceptCacheTTL)
		if err != nil {
			log.Printf("[collector] 读取概念缓存失败: %v", err)
		} else if ok {
			return codes, nil
		}
	}
	if h.akshare == nil {
		return nil, errNoSource("概念成分")
	}

	codes, err := h.akshare.GetConceptMembers(ctx, concept)
	if err != nil {
		return nil, err
	}
	if h.cache != nil {
		if err := h.cache.Replace(ctx, concept, codes); err != nil {
			log.Printf("[collector] 写入概念缓存失败: %v", err)
		}
	}
	return codes, nil
}

// RefreshConcepts 预取一批概念的成分，返回成功数量
func (h *HybridSource) RefreshConcepts(ctx context.Context, concepts []string) int {
	refreshed := 0
	for _, name := range concepts {
		if _, err := h.GetConceptMembers(ctx, name); err != nil {
			log.Printf("[collector] 刷新概念 %s 成分失败: %v", name, err)
			continue
		}
		refreshed++
	}
	return refreshed
}

// GetHotConcepts 概念板块涨幅榜
func (h *HybridSource) GetHotConcepts(ctx context.Context, date string, topN int) ([]model.HotConcept, error) {
	if h.akshare == nil {
		return nil, errNoSource("概念板块")
	}
	return h.akshare.GetHotConcepts(ctx, date, topN)
}

// GetDailyBars 日线行情
func (h *HybridSource) GetDailyBars(ctx context.Context, codes []string, date string) (map[string]model.DailyBar, error) {
	if h.tushare != nil {
		bars, err := h.tushare.GetDailyBars(ctx, codes, date)
		if err == nil {
			return bars, nil
		}
		log.Printf("[collector] Tushare 获取日线失败，切换 AKShare: %v", err)
	}
	if h.akshare == nil {
		return nil, errNoSource("日线")
	}
	return h.akshare.GetDailyBars(ctx, codes, date)
}

// TradingDays 交易日历
func (h *HybridSource) TradingDays(ctx context.Context, from, to string) ([]string, error) {
	if h.tushare != nil {
		days, err := h.tushare.TradingDays(ctx, from, to)
		if err == nil && len(days) > 0 {
			return days, nil
		}
		if err != nil {
			log.Printf("[collector] Tushare 获取交易日历失败，切换 AKShare: %v", err)
		}
	}
	if h.akshare == nil {
		return nil, errNoSource("交易日历")
	}
	return h.akshare.TradingDays(ctx, from, to)
}

// calendarWindow 前后查找交易日的自然日范围
const calendarWindow = 20

// PreviousTradingDay 早于 date 的最近交易日
func PreviousTradingDay(ctx context.Context, cal TradingCalendar, date string) (string, error) {
	t, err := model.ParseTradeDate(date)
	if err != nil {
		return "", err
	}
	days, err := cal.TradingDays(ctx,
		t.AddDate(0, 0, -calendarWindow).Format(model.TradeDateLayout),
		t.AddDate(0, 0, -1).Format(model.TradeDateLayout))
	if err != nil {
		return "", err
	}
	if len(days) == 0 {
		return "", fmt.Errorf("%w: %s 之前没有交易日", model.ErrNotFound, date)
	}
	return days[len(days)-1], nil
}

// NextTradingDay 晚于 date 的最近交易日
func NextTradingDay(ctx context.Context, cal TradingCalendar, date string) (string, error) {
	t, err := model.ParseTradeDate(date)
	if err != nil {
		return "", err
	}
	days, err := cal.TradingDays(ctx,
		t.AddDate(0, 0, 1).Format(model.TradeDateLayout),
		t.AddDate(0, 0, calendarWindow).Format(model.TradeDateLayout))
	if err != nil {
		return "", err
	}
	if len(days) == 0 {
		return "", fmt.Errorf("%w: %s 之后没有交易日", model.ErrNotFound, date)
	}
	return days[0], nil
}
