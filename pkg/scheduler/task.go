package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/dewei/SentimentRadar/pkg/backtest"
	"github.com/dewei/SentimentRadar/pkg/collector"
	"github.com/dewei/SentimentRadar/pkg/model"
	"github.com/dewei/SentimentRadar/pkg/monitor"
	"github.com/dewei/SentimentRadar/pkg/pipeline"
)

// PipelineRunner 每日流水线
type PipelineRunner interface {
	Run(ctx context.Context, date string) (*pipeline.Result, error)
}

// BacktestSaver 回测批量保存
type BacktestSaver interface {
	BatchSave(ctx context.Context, date, next string, limit int) (*backtest.BatchResult, error)
}

// Specs cron 表达式，支持秒
type Specs struct {
	Pipeline string
	Backtest string
	Health   string
}

// DefaultSpecs 收盘后16:00跑流水线，16:30回测前一交易日
var DefaultSpecs = Specs{
	Pipeline: "0 0 16 * * 1-5",
	Backtest: "0 30 16 * * 1-5",
	Health:   "@every 5m",
}

// Scheduler 任务调度器
type Scheduler struct {
	cron     *cron.Cron
	specs    Specs
	pipeline PipelineRunner
	backtest BacktestSaver
	calendar collector.TradingCalendar
	monitor  *monitor.Monitor
	limit    int
	timeout  time.Duration
	now      func() time.Time
}

// NewScheduler backtest、calendar、monitor 均可为 nil
func NewScheduler(specs Specs, p PipelineRunner, b BacktestSaver, calendar collector.TradingCalendar, m *monitor.Monitor) *Scheduler {
	loc, err := time.LoadLocation("Asia/Shanghai")
	if err != nil {
		loc = time.FixedZone("CST", 8*3600)
	}
	if specs.Pipeline == "" {
		specs.Pipeline = DefaultSpecs.Pipeline
	}
	if specs.Backtest == "" {
		specs.Backtest = DefaultSpecs.Backtest
	}
	if specs.Health == "" {
		specs.Health = DefaultSpecs.Health
	}
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds(), cron.WithLocation(loc)),
		specs:    specs,
		pipeline: p,
		backtest: b,
		calendar: calendar,
		monitor:  m,
		limit:    backtest.DefaultBatchLimit,
		timeout:  30 * time.Minute,
		now:      func() time.Time { return time.Now().In(loc) },
	}
}

// SetBacktestLimit 每日回测的股票数量上限
func (s *Scheduler) SetBacktestLimit(limit int) {
	if limit > 0 {
		s.limit = limit
	}
}

// Start 注册任务并启动
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.specs.Pipeline, s.runPipeline); err != nil {
		return fmt.Errorf("注册流水线任务失败: %w", err)
	}
	if s.backtest != nil {
		if _, err := s.cron.AddFunc(s.specs.Backtest, s.runBacktest); err != nil {
			return fmt.Errorf("注册回测任务失败: %w", err)
		}
	}
	if s.monitor != nil {
		if _, err := s.cron.AddFunc(s.specs.Health, s.monitorDataHealth); err != nil {
			return fmt.Errorf("注册健康检查任务失败: %w", err)
		}
	}

	s.cron.Start()
	log.Printf("[scheduler] 已启动: 流水线 %q 回测 %q 健康检查 %q", s.specs.Pipeline, s.specs.Backtest, s.specs.Health)
	return nil
}

// Stop 停止调度器并等待运行中的任务结束
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) today() string {
	return s.now().Format(model.TradeDateLayout)
}

// isTradingDay 日历不可用时按工作日判断
func (s *Scheduler) isTradingDay(ctx context.Context, date string) bool {
	if s.calendar != nil {
		days, err := s.calendar.TradingDays(ctx, date, date)
		if err == nil {
			return len(days) > 0
		}
		log.Printf("[scheduler] 获取交易日历失败: %v", err)
	}
	return !model.IsWeekend(date)
}

func (s *Scheduler) runPipeline() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	date := s.today()
	if !s.isTradingDay(ctx, date) {
		log.Printf("[scheduler] %s 非交易日，跳过流水线", date)
		return
	}
	if _, err := s.pipeline.Run(ctx, date); err != nil {
		log.Printf("[scheduler] %s 流水线失败: %v", date, err)
		if s.monitor != nil {
			s.monitor.UpdateStatus("pipeline", monitor.StatusUnhealthy, err.Error())
		}
		return
	}
	if s.monitor != nil {
		s.monitor.UpdateStatus("pipeline", monitor.StatusHealthy, "")
	}
}

// runBacktest 今天的行情作为前一交易日评分的次日数据
func (s *Scheduler) runBacktest() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	today := s.today()
	if !s.isTradingDay(ctx, today) {
		return
	}

	var prev string
	var err error
	if s.calendar != nil {
		prev, err = collector.PreviousTradingDay(ctx, s.calendar, today)
	}
	if s.calendar == nil || err != nil {
		prev = previousWeekday(s.now())
	}

	res, err := s.backtest.BatchSave(ctx, prev, today, s.limit)
	if err != nil {
		log.Printf("[scheduler] %s 回测失败: %v", prev, err)
		return
	}
	log.Printf("[scheduler] %s 回测完成: 成功%d 失败%d", prev, res.Success, res.Fail)
}

func previousWeekday(t time.Time) string {
	d := t.AddDate(0, 0, -1)
	for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
		d = d.AddDate(0, 0, -1)
	}
	return d.Format(model.TradeDateLayout)
}

// monitorDataHealth 检查数据源与存储状态
func (s *Scheduler) monitorDataHealth() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	s.monitor.RunChecks(ctx)
}
