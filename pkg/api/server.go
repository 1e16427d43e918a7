package api

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chenjiandongx/ginprom"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ServerOptions HTTP服务参数
type ServerOptions struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	AllowOrigins []string
}

// Server API服务器
type Server struct {
	router *gin.Engine
	srv    *http.Server
}

// NewServer 创建API服务器
func NewServer(opts ServerOptions) *Server {
	registerValidators()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(ginprom.PromMiddleware(nil))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	corsConfig.ExposeHeaders = []string{"Content-Disposition"}
	if len(opts.AllowOrigins) > 0 {
		corsConfig.AllowOrigins = opts.AllowOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	router.Use(cors.New(corsConfig))

	if opts.Port == "" {
		opts.Port = "8080"
	}
	srv := &http.Server{
		Addr:         ":" + opts.Port,
		Handler:      router,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	}

	return &Server{router: router, srv: srv}
}

// Router 用于测试
func (s *Server) Router() *gin.Engine {
	return s.router
}

// SetupRoutes 设置路由
func (s *Server) SetupRoutes(h *Handlers) {
	s.router.GET("/health", h.HealthCheck)
	s.router.GET("/ready", h.ReadinessCheck)
	s.router.GET("/metrics", ginprom.PromHandler(promhttp.Handler()))

	v1 := s.router.Group("/api/v1")
	{
		sentiment := v1.Group("/sentiment")
		sentiment.GET("/stage", h.GetEmotionStage)
		sentiment.GET("/analysis", h.GetAnalysis)
		sentiment.GET("/ladder", h.GetConceptLadder)
		sentiment.GET("/ladder/export", h.ExportConceptLadder)

		v1.GET("/premium", h.ListPremiumScores)
		v1.GET("/premium/:code", h.GetPremiumScore)
		v1.GET("/limit-stocks", h.ListLimitStocks)
		v1.GET("/concepts/hot", h.ListHotConcepts)
		v1.GET("/export/premium", h.ExportPremiumScores)

		bt := v1.Group("/backtest")
		bt.POST("/save/:trade_date", h.SaveBacktest)
		bt.GET("/results", h.QueryBacktest)
		bt.GET("/statistics", h.BacktestStatistics)
		bt.GET("/correlation", h.BacktestCorrelation)
		bt.DELETE("/records", h.DeleteBacktest)
		bt.GET("/export", h.ExportBacktest)
	}
}

// Start 启动服务器并阻塞到收到退出信号
func (s *Server) Start() {
	go func() {
		log.Printf("[api] 服务器启动在 %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[api] 启动服务器失败: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("[api] 正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		log.Printf("[api] 服务器关闭失败: %v", err)
		return
	}
	log.Println("[api] 服务器已关闭")
}
