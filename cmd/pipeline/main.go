package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dewei/SentimentRadar/pkg/app"
	"github.com/dewei/SentimentRadar/pkg/config"
	"github.com/dewei/SentimentRadar/pkg/model"
	"github.com/dewei/SentimentRadar/pkg/scheduler"
)

func main() {
	date := flag.String("date", "", "只运行一次指定交易日，YYYY-MM-DD 或 YYYYMMDD")
	dryRun := flag.Bool("dry-run", false, "使用内存存储，不写数据库")
	flag.Parse()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = config.GetDefaultConfigPath()
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	ctx := context.Background()
	a, err := app.New(ctx, cfg, app.Options{
		MemoryStore: *dryRun,
		Messaging:   !*dryRun,
		Registerer:  prometheus.DefaultRegisterer,
	})
	if err != nil {
		log.Fatalf("初始化失败: %v", err)
	}
	defer a.Close()

	if *date != "" {
		runOnce(ctx, a, *date)
		return
	}

	log.Println("启动情绪流水线调度...")
	s := scheduler.NewScheduler(scheduler.Specs{
		Pipeline: cfg.Scheduler.PipelineCron,
		Backtest: cfg.Scheduler.BacktestCron,
		Health:   cfg.Scheduler.HealthCron,
	}, a.Pipeline, a.Backtest, a.Source, a.Monitor)
	if cfg.Backtest.Limit > 0 {
		s.SetBacktestLimit(cfg.Backtest.Limit)
	}
	if err := s.Start(); err != nil {
		log.Fatalf("启动调度器失败: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("正在关闭调度器...")
	s.Stop()
}

func runOnce(ctx context.Context, a *app.App, raw string) {
	date, err := model.NormalizeTradeDate(raw)
	if err != nil {
		log.Fatalf("日期无效: %v", err)
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Minute)
	defer cancel()

	res, err := a.Pipeline.Run(ctx, date)
	if err != nil {
		log.Fatalf("流水线运行失败: %v", err)
	}
	log.Printf("%s 完成: 涨停%d 跌停%d 热门概念%d 评分%d 阶段=%s 耗时%s",
		res.TradeDate, res.LimitUpCount, res.LimitDownCount, res.HotConcepts,
		res.PremiumScores, res.Stage.Stage, res.Duration)
	if res.Ladder.Available {
		for _, c := range res.Ladder.Concepts {
			log.Printf("  %d. %s 涨停%d 最高%d板", c.Rank, c.ConceptName, c.TotalLimitUpCount, c.MaxContinuousDays)
		}
	}
}
