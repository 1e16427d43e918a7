package app

import (
	"context"
	"fmt"
	"log"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dewei/SentimentRadar/pkg/backtest"
	"github.com/dewei/SentimentRadar/pkg/cache"
	"github.com/dewei/SentimentRadar/pkg/collector"
	"github.com/dewei/SentimentRadar/pkg/config"
	"github.com/dewei/SentimentRadar/pkg/database"
	"github.com/dewei/SentimentRadar/pkg/messaging"
	"github.com/dewei/SentimentRadar/pkg/monitor"
	"github.com/dewei/SentimentRadar/pkg/pipeline"
	"github.com/dewei/SentimentRadar/pkg/repository"
	"github.com/dewei/SentimentRadar/pkg/sentiment"
)

// Options 组件开关
type Options struct {
	// MemoryStore 使用内存存储，不连接数据库
	MemoryStore bool
	// Messaging 连接NATS，失败时退化为不发布
	Messaging bool
	// Analyzer 打开DuckDB相关性分析
	Analyzer bool
	// Registerer 为 nil 时不注册指标
	Registerer prometheus.Registerer
}

// App 各进程共用的组件
type App struct {
	Config   *config.Config
	Store    repository.Store
	Source   *collector.HybridSource
	Service  *sentiment.Service
	Backtest *backtest.Accumulator
	Analyzer *backtest.Analyzer
	Pipeline *pipeline.Pipeline
	Stages   *cache.StageCache
	NATS     *messaging.NATSClient
	Monitor  *monitor.Monitor
	Metrics  *monitor.Metrics
	closers  []func() error
}

// New 按配置组装组件，数据库连接失败直接返回错误，Redis、NATS 不可用时降级
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	a := &App{Config: cfg}
	a.Metrics = monitor.NewMetrics(opts.Registerer)
	a.Monitor = monitor.NewMonitor(func(component, status, message string) {
		log.Printf("[monitor] 组件 %s 状态变为 %s: %s", component, status, message)
	})
	a.Monitor.SetMetrics(a.Metrics)

	if err := a.openStore(cfg, opts.MemoryStore); err != nil {
		return nil, err
	}
	if err := a.openSource(cfg); err != nil {
		a.Close()
		return nil, err
	}
	a.openCache(ctx, cfg)

	a.Service = sentiment.NewService(a.Store, a.Source, sentiment.Options{
		TopConcepts:       cfg.Engine.TopConcepts,
		MainLineMin:       cfg.Engine.MainLineMin,
		MaxRecursionDepth: cfg.Engine.MaxRecursionDepth,
	})
	a.Backtest = backtest.NewAccumulator(a.Store, a.Service, a.Source, a.Source)
	a.Pipeline = pipeline.New(a.Store, a.Source, a.Service, 0)
	a.Pipeline.SetCache(a.Stages)
	a.Pipeline.SetMetrics(a.Metrics)

	if opts.Messaging {
		a.openMessaging(cfg)
	}
	if opts.Analyzer {
		analyzer, err := backtest.OpenAnalyzer(cfg.Backtest.DuckDBPath)
		if err != nil {
			log.Printf("[app] DuckDB 不可用，相关性分析关闭: %v", err)
		} else {
			a.Analyzer = analyzer
			a.closers = append(a.closers, analyzer.Close)
		}
	}
	return a, nil
}

func (a *App) openStore(cfg *config.Config, memory bool) error {
	if memory {
		log.Println("[app] 使用内存存储")
		a.Store = repository.NewMemoryStore()
		return nil
	}
	db, err := database.Open(cfg)
	if err != nil {
		return err
	}
	a.Store = database.NewStore(db)
	a.closers = append(a.closers, db.Close)
	a.Monitor.RegisterComponent("database", db.Ping)
	return nil
}

func (a *App) openSource(cfg *config.Config) error {
	ds := cfg.DataSources
	var tushare *collector.TushareAdapter
	if ds.Tushare.Token != "" {
		tushare = collector.NewTushareAdapter(ds.Tushare.Token, ds.Tushare.BaseURL, ds.Tushare.Timeout)
	} else {
		log.Println("[app] 未配置 Tushare token，仅使用 AKShare")
	}
	var akshare *collector.AKShareAdapter
	if ds.AKShare.BaseURL != "" {
		akshare = collector.NewAKShareAdapter(ds.AKShare.BaseURL, ds.AKShare.Timeout)
		a.Monitor.RegisterComponent("akshare", monitor.HTTPCheck(ds.AKShare.BaseURL))
	}

	concepts, err := collector.OpenConceptCache(ds.ConceptCachePath)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, concepts.Close)
	a.Source = collector.NewHybridSource(tushare, akshare, concepts)
	return nil
}

func (a *App) openCache(ctx context.Context, cfg *config.Config) {
	if cfg.Redis.Addr == "" {
		a.Stages = cache.NewStageCache(nil, cfg.Redis.TTL)
		return
	}
	rc, err := cache.NewRedisCache(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Printf("[app] Redis 不可用，使用内存缓存: %v", err)
		a.Monitor.UpdateStatus("redis", monitor.StatusDegraded, err.Error())
		a.Stages = cache.NewStageCache(nil, cfg.Redis.TTL)
		return
	}
	a.closers = append(a.closers, rc.Close)
	a.Monitor.RegisterComponent("redis", rc.Ping)
	a.Stages = cache.NewStageCache(rc, cfg.Redis.TTL)
}

func (a *App) openMessaging(cfg *config.Config) {
	if cfg.NATS.URL == "" {
		return
	}
	client, err := messaging.NewNATSClient(cfg.NATS.URL)
	if err != nil {
		log.Printf("[app] NATS 不可用，事件不发布: %v", err)
		a.Monitor.UpdateStatus("nats", monitor.StatusDegraded, err.Error())
		return
	}
	a.NATS = client
	a.closers = append(a.closers, client.Close)
	a.Monitor.RegisterComponent("nats", func(ctx context.Context) error {
		if !client.IsConnected() {
			return fmt.Errorf("NATS 连接已断开")
		}
		return nil
	})
	a.Pipeline.SetPublisher(client)
	a.Backtest.SetPublisher(client)
}

// Close 逆序关闭已打开的资源
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Printf("[app] 关闭资源失败: %v", err)
		}
	}
	a.closers = nil
}
