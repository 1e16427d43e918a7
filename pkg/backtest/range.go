package backtest

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dewei/SentimentRadar/pkg/model"
)

// tradingDays [from, to] 的交易日；没有日历时使用工作日
func (a *Accumulator) tradingDays(ctx context.Context, from, to string) ([]string, error) {
	if a.calendar != nil {
		// 多取一段，用于确定最后一天的次日
		end, err := model.ParseTradeDate(to)
		if err != nil {
			return nil, err
		}
		days, err := a.calendar.TradingDays(ctx, from, end.AddDate(0, 0, 20).Format(model.TradeDateLayout))
		if err == nil {
			return days, nil
		}
		log.Printf("[backtest] 获取交易日历失败，按工作日处理: %v", err)
	}

	start, err := model.ParseTradeDate(from)
	if err != nil {
		return nil, err
	}
	end, err := model.ParseTradeDate(to)
	if err != nil {
		return nil, err
	}
	var days []string
	for d := start; !d.After(end.AddDate(0, 0, 7)); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		days = append(days, d.Format(model.TradeDateLayout))
	}
	return days, nil
}

// RunRange 并发回测 [from, to] 内每个交易日，workers 限制同时处理的日期数
// 单日失败记录在结果中，不影响其他日期
func (a *Accumulator) RunRange(ctx context.Context, from, to string, limit, workers int) ([]BatchResult, error) {
	from, err := model.NormalizeTradeDate(from)
	if err != nil {
		return nil, err
	}
	to, err = model.NormalizeTradeDate(to)
	if err != nil {
		return nil, err
	}
	if from > to {
		return nil, fmt.Errorf("%w: 开始日期 %s 晚于结束日期 %s", model.ErrInvalidDate, from, to)
	}
	if workers <= 0 {
		workers = 1
	}

	days, err := a.tradingDays(ctx, from, to)
	if err != nil {
		return nil, err
	}

	type job struct{ date, next string }
	var jobs []job
	for i, d := range days {
		if d < from || d > to {
			continue
		}
		next := ""
		if i+1 < len(days) {
			next = days[i+1]
		}
		jobs = append(jobs, job{date: d, next: next})
	}

	results := make([]BatchResult, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, j := range jobs {
		i, j := i, j
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := a.BatchSave(gctx, j.date, j.next, limit)
			if err != nil {
				log.Printf("[backtest] %s 回测失败: %v", j.date, err)
				results[i] = BatchResult{TradeDate: j.date, NextTradeDate: j.next, Error: err.Error()}
				return nil
			}
			results[i] = *res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
