package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/dewei/SentimentRadar/pkg/app"
	"github.com/dewei/SentimentRadar/pkg/backtest"
	"github.com/dewei/SentimentRadar/pkg/config"
	"github.com/dewei/SentimentRadar/pkg/export"
	"github.com/dewei/SentimentRadar/pkg/model"
)

func main() {
	from := flag.String("from", "", "开始日期")
	to := flag.String("to", "", "结束日期，默认等于开始日期")
	limit := flag.Int("limit", 0, "每日最多回测的涨停股数量")
	workers := flag.Int("workers", 0, "并发处理的日期数")
	xlsx := flag.Bool("xlsx", false, "导出回测明细到 export.dir")
	flag.Parse()

	if *from == "" {
		log.Fatal("必须指定 -from")
	}
	if *to == "" {
		*to = *from
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = config.GetDefaultConfigPath()
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	if *limit <= 0 {
		*limit = cfg.Backtest.Limit
	}
	if *workers <= 0 {
		*workers = cfg.Backtest.Workers
	}

	ctx := context.Background()
	a, err := app.New(ctx, cfg, app.Options{Messaging: true, Analyzer: true})
	if err != nil {
		log.Fatalf("初始化失败: %v", err)
	}
	defer a.Close()

	if err := run(ctx, a, *from, *to, *limit, *workers, *xlsx); err != nil {
		log.Printf("回测失败: %v", err)
		a.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, a *app.App, from, to string, limit, workers int, xlsx bool) error {
	results, err := a.Backtest.RunRange(ctx, from, to, limit, workers)
	if err != nil {
		return err
	}
	sort.Slice(results, func(i, j int) bool { return results[i].TradeDate < results[j].TradeDate })
	for _, r := range results {
		if r.Error != "" {
			log.Printf("%s 失败: %s", r.TradeDate, r.Error)
			continue
		}
		log.Printf("%s -> %s 共%d只，成功%d，失败%d", r.TradeDate, r.NextTradeDate, r.Total, r.Success, r.Fail)
	}

	from, _ = model.NormalizeTradeDate(from)
	to, _ = model.NormalizeTradeDate(to)
	records, _, err := a.Store.QueryBacktest(ctx, model.BacktestFilter{StartDate: from, EndDate: to})
	if err != nil {
		return err
	}
	stats := backtest.Summarize(records)
	printStats(stats)

	if a.Analyzer != nil {
		corr, err := a.Backtest.CorrelationRange(ctx, a.Analyzer, from, to)
		if err != nil {
			log.Printf("计算相关系数失败: %v", err)
		} else if corr.Overall != nil {
			log.Printf("评分与次日涨幅相关系数: %.3f（样本%d）", *corr.Overall, corr.SampleSize)
		}
	}

	if xlsx {
		return writeWorkbook(a.Config.Export.Dir, from, to, records, stats)
	}
	return nil
}

func printStats(stats *model.BacktestStats) {
	o := stats.Overall
	log.Printf("回测样本%d: 平均次日涨幅%.2f%% 盈利率%.1f%% 涨停率%.1f%% 预测准确率%.1f%%",
		stats.Total, o.AvgNextDayPct, o.ProfitableRate, o.LimitUpRate, o.PredictionAccuracy)
	for _, level := range model.PremiumLevels {
		g, ok := stats.ByLevel[level]
		if !ok || g.Count == 0 {
			continue
		}
		log.Printf("  %s: %d只 平均%.2f%% 盈利率%.1f%%", level, g.Count, g.AvgNextDayPct, g.ProfitableRate)
	}
}

func writeWorkbook(dir, from, to string, records []model.BacktestRecord, stats *model.BacktestStats) error {
	f, err := export.BacktestWorkbook(records, stats)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(dir, export.BacktestFilename(from, to))
	if err := f.SaveAs(path); err != nil {
		return err
	}
	log.Printf("已导出 %s", path)
	return nil
}
