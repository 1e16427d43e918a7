package monitor

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sort"
	"sync"
	"time"
)

const (
	StatusUnknown   = "unknown"
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// HealthStatus 健康状态
type HealthStatus struct {
	Component   string    `json:"component"`
	Status      string    `json:"status"`
	LastChecked time.Time `json:"last_checked"`
	Message     string    `json:"message,omitempty"`
}

// CheckFunc 组件健康检查，返回错误视为不健康
type CheckFunc func(ctx context.Context) error

// Monitor 组件健康注册表
type Monitor struct {
	components map[string]*HealthStatus
	checks     map[string]CheckFunc
	mutex      sync.RWMutex
	alertFunc  func(component, status, message string)
	metrics    *Metrics
}

// NewMonitor alertFunc 在组件状态变为非健康时调用
func NewMonitor(alertFunc func(component, status, message string)) *Monitor {
	return &Monitor{
		components: make(map[string]*HealthStatus),
		checks:     make(map[string]CheckFunc),
		alertFunc:  alertFunc,
	}
}

// SetMetrics 组件状态同步到 Prometheus
func (m *Monitor) SetMetrics(metrics *Metrics) {
	m.metrics = metrics
}

// RegisterComponent 注册组件，check 可为 nil
func (m *Monitor) RegisterComponent(component string, check CheckFunc) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.components[component] = &HealthStatus{
		Component:   component,
		Status:      StatusUnknown,
		LastChecked: time.Now(),
	}
	if check != nil {
		m.checks[component] = check
	}
}

// UpdateStatus 更新组件状态
func (m *Monitor) UpdateStatus(component, status, message string) {
	m.mutex.Lock()
	if _, exists := m.components[component]; !exists {
		m.components[component] = &HealthStatus{Component: component}
	}
	old := m.components[component].Status
	m.components[component].Status = status
	m.components[component].LastChecked = time.Now()
	m.components[component].Message = message
	m.mutex.Unlock()

	if m.metrics != nil {
		m.metrics.SetComponentUp(component, status == StatusHealthy)
	}
	if old != status && status != StatusHealthy && m.alertFunc != nil {
		m.alertFunc(component, status, message)
	}
}

// GetStatus 获取组件状态的副本
func (m *Monitor) GetStatus(component string) *HealthStatus {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if status, exists := m.components[component]; exists {
		s := *status
		return &s
	}
	return nil
}

// GetAllStatus 按组件名排序
func (m *Monitor) GetAllStatus() []HealthStatus {
	m.mutex.RLock()
	statuses := make([]HealthStatus, 0, len(m.components))
	for _, status := range m.components {
		statuses = append(statuses, *status)
	}
	m.mutex.RUnlock()

	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Component < statuses[j].Component })
	return statuses
}

// Healthy 所有组件健康或已降级运行
func (m *Monitor) Healthy() bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	for _, s := range m.components {
		if s.Status != StatusHealthy && s.Status != StatusDegraded {
			return false
		}
	}
	return true
}

// RunChecks 执行全部已注册的检查
func (m *Monitor) RunChecks(ctx context.Context) {
	m.mutex.RLock()
	checks := make(map[string]CheckFunc, len(m.checks))
	for name, fn := range m.checks {
		checks[name] = fn
	}
	m.mutex.RUnlock()

	for name, fn := range checks {
		cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err := fn(cctx)
		cancel()
		if err != nil {
			log.Printf("[monitor] %s 检查失败: %v", name, err)
			m.UpdateStatus(name, StatusUnhealthy, err.Error())
			continue
		}
		m.UpdateStatus(name, StatusHealthy, "")
	}
}

// HTTPCheck 检查HTTP端点，非200视为失败
func HTTPCheck(url string) CheckFunc {
	return func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return fmt.Errorf("HTTP请求失败: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("HTTP状态码非200: %d", resp.StatusCode)
		}
		return nil
	}
}
