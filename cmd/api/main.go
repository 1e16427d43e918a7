package main

import (
	"context"
	"log"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dewei/SentimentRadar/pkg/api"
	"github.com/dewei/SentimentRadar/pkg/app"
	"github.com/dewei/SentimentRadar/pkg/config"
	"github.com/dewei/SentimentRadar/pkg/messaging"
)

func main() {
	log.Println("启动API服务...")

	// 加载配置
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
		Messaging:  true,
		Analyzer:   true,
		Registerer: prometheus.DefaultRegisterer,
	})
	if err != nil {
		log.Fatalf("初始化失败: %v", err)
	}
	defer a.Close()
	a.Monitor.RunChecks(ctx)

	handlers := api.NewHandlers(api.Deps{
		Store:    a.Store,
		Service:  a.Service,
		Backtest: a.Backtest,
		Analyzer: a.Analyzer,
		Stages:   a.Stages,
		Monitor:  a.Monitor,
	})

	// 流水线产出新的情绪阶段后清除缓存
	if a.NATS != nil {
		if err := a.NATS.Subscribe("api-stage-cache", messaging.SubjectStage, handlers.OnStageMessage); err != nil {
			log.Printf("订阅情绪阶段失败: %v", err)
		}
	}

	server := api.NewServer(api.ServerOptions{
		Port:         cfg.API.Port,
		ReadTimeout:  cfg.API.ReadTimeout,
		WriteTimeout: cfg.API.WriteTimeout,
	})
	server.SetupRoutes(handlers)
	server.Start()
}
