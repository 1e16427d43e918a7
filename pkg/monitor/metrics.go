package monitor

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics 情绪引擎指标
type Metrics struct {
	StageScore       *prometheus.GaugeVec
	PipelineRuns     *prometheus.CounterVec
	PremiumScores    prometheus.Counter
	PipelineDuration prometheus.Histogram
	ComponentUp      *prometheus.GaugeVec
}

// NewMetrics 创建并注册指标，reg 为 nil 时不注册
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		StageScore: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sentiment_stage_total_score",
			Help: "最近一次情绪阶段判定的总分",
		}, []string{"stage"}),
		PipelineRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sentiment_pipeline_runs_total",
			Help: "每日流水线运行次数",
		}, []string{"result"}),
		PremiumScores: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "premium_scores_computed_total",
			Help: "已计算的溢价评分数量",
		}),
		PipelineDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pipeline_duration_seconds",
			Help:    "每日流水线耗时",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		ComponentUp: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sentiment_component_up",
			Help: "组件健康状态，1 为健康",
		}, []string{"component"}),
	}
	if reg != nil {
		reg.MustRegister(m.StageScore, m.PipelineRuns, m.PremiumScores, m.PipelineDuration, m.ComponentUp)
	}
	return m
}

// ObserveStage 只保留当前阶段的分数
func (m *Metrics) ObserveStage(stage string, score int) {
	m.StageScore.Reset()
	m.StageScore.WithLabelValues(stage).Set(float64(score))
}

// ObservePipeline 记录一次流水线运行
func (m *Metrics) ObservePipeline(started time.Time, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.PipelineRuns.WithLabelValues(result).Inc()
	m.PipelineDuration.Observe(time.Since(started).Seconds())
}

// AddPremiumScores 累加评分数量
func (m *Metrics) AddPremiumScores(n int) {
	if n > 0 {
		m.PremiumScores.Add(float64(n))
	}
}

// SetComponentUp 设置组件状态
func (m *Metrics) SetComponentUp(component string, up bool) {
	v := 0.0
	if up {
		v = 1
	}
	m.ComponentUp.WithLabelValues(component).Set(v)
}
