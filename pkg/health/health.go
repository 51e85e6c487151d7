package health

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// Status 健康状态
type Status string

const (
	// StatusHealthy 健康
	StatusHealthy Status = "healthy"
	// StatusUnhealthy 不健康
	StatusUnhealthy Status = "unhealthy"
	// StatusDegraded 降级
	StatusDegraded Status = "degraded"
)

// CheckResult 检查结果
type CheckResult struct {
	Status    Status        `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
	Duration  time.Duration `json:"duration"`
	Required  bool          `json:"required"`
	Error     string        `json:"error,omitempty"`
}

// Checker 健康检查器接口
type Checker interface {
	// Check 执行健康检查
	Check(ctx context.Context) CheckResult
	// Name 检查器名称
	Name() string
}

// PingChecker checks a dependency through a ping function. Optional
// dependencies report degraded instead of unhealthy when the ping fails.
type PingChecker struct {
	name     string
	required bool
	pingFn   func(context.Context) error
}

// NewPingChecker 创建检查器
func NewPingChecker(name string, required bool, pingFn func(context.Context) error) *PingChecker {
	return &PingChecker{name: name, required: required, pingFn: pingFn}
}

// Name 返回检查器名称
func (p *PingChecker) Name() string {
	return p.name
}

// Check 执行检查
func (p *PingChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()
	err := p.pingFn(ctx)

	result := CheckResult{
		Status:    StatusHealthy,
		Timestamp: time.Now(),
		Duration:  time.Since(start),
		Required:  p.required,
	}
	if err != nil {
		result.Status = StatusDegraded
		if p.required {
			result.Status = StatusUnhealthy
		}
		result.Error = err.Error()
	}
	return result
}

// HealthChecker 健康检查管理器
type HealthChecker struct {
	service   string
	version   string
	startTime time.Time
	timeout   time.Duration

	mu       sync.RWMutex
	checkers map[string]Checker
}

// NewHealthChecker 创建健康检查管理器
func NewHealthChecker(service, version string) *HealthChecker {
	return &HealthChecker{
		service:   service,
		version:   version,
		startTime: time.Now(),
		timeout:   3 * time.Second,
		checkers:  make(map[string]Checker),
	}
}

// Register 注册检查器
func (h *HealthChecker) Register(checker Checker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checkers[checker.Name()] = checker
}

// Check 执行所有检查
func (h *HealthChecker) Check(ctx context.Context) map[string]CheckResult {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	h.mu.RLock()
	checkers := make([]Checker, 0, len(h.checkers))
	for _, checker := range h.checkers {
		checkers = append(checkers, checker)
	}
	h.mu.RUnlock()

	results := make(map[string]CheckResult, len(checkers))
	var (
		wg  sync.WaitGroup
		rmu sync.Mutex
	)
	for _, checker := range checkers {
		wg.Add(1)
		go func(c Checker) {
			defer wg.Done()
			result := c.Check(ctx)
			rmu.Lock()
			results[c.Name()] = result
			rmu.Unlock()
		}(checker)
	}
	wg.Wait()

	return results
}

// Overall 根据各项结果计算整体状态
func Overall(results map[string]CheckResult) Status {
	status := StatusHealthy
	for _, result := range results {
		switch result.Status {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded:
			status = StatusDegraded
		}
	}
	return status
}

// Response 健康检查响应
type Response struct {
	Status       Status                 `json:"status"`
	Service      string                 `json:"service"`
	Version      string                 `json:"version"`
	Timestamp    string                 `json:"timestamp"`
	Uptime       int64                  `json:"uptime"`
	Dependencies map[string]CheckResult `json:"dependencies,omitempty"`
}

// LivenessHandler reports the process as alive without touching dependencies.
func (h *HealthChecker) LivenessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, h.response(StatusHealthy, nil))
	}
}

// ReadinessHandler 就绪检查（用于K8s）. Only required dependencies gate readiness.
func (h *HealthChecker) ReadinessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		results := h.Check(c.Request.Context())
		status := Overall(results)

		code := http.StatusOK
		if status == StatusUnhealthy {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, h.response(status, results))
	}
}

func (h *HealthChecker) response(status Status, deps map[string]CheckResult) Response {
	return Response{
		Status:       status,
		Service:      h.service,
		Version:      h.version,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		Uptime:       int64(time.Since(h.startTime).Seconds()),
		Dependencies: deps,
	}
}
