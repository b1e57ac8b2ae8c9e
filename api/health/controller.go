package health

import (
	"context"
	"net/http"
	"runtime"
	"sort"
	"sync"
	"time"

	"storefront/config"
	"storefront/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"

	probeTimeout = 2 * time.Second
)

// Pinger checks a backing store; nil for the in-memory backend
type Pinger func(ctx context.Context) error

// Probe one named dependency check. A failing critical probe makes the
// service unhealthy and not ready; other failures only degrade it.
type Probe struct {
	Name     string
	Critical bool
	Check    func(ctx context.Context) error
}

// Database critical probe over the store ping
func Database(ping Pinger) Probe {
	return Probe{Name: "database", Critical: true, Check: ping}
}

// Controller Health check controller
type Controller struct {
	config    *config.Config
	probes    []Probe
	startTime time.Time
}

// NewController probes without a Check are dropped
func NewController(cfg *config.Config, probes ...Probe) *Controller {
	active := make([]Probe, 0, len(probes))
	for _, p := range probes {
		if p.Check != nil {
			active = append(active, p)
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].Name < active[j].Name })
	return &Controller{
		config:    cfg,
		probes:    active,
		startTime: time.Now(),
	}
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/health", c.Health)
	router.GET("/health/live", c.Liveness)
	router.GET("/health/ready", c.Readiness)
}

type HealthResponse struct {
	Status    string           `json:"status"`
	Version   string           `json:"version"`
	Backend   string           `json:"backend"`
	Uptime    string           `json:"uptime"`
	Timestamp string           `json:"timestamp"`
	Checks    map[string]Check `json:"checks,omitempty"`
	System    *SystemInfo      `json:"system,omitempty"`
}

type Check struct {
	Status   string `json:"status"`
	Critical bool   `json:"critical"`
	Message  string `json:"message,omitempty"`
	Latency  string `json:"latency,omitempty"`
}

// SystemInfo development only
type SystemInfo struct {
	GoVersion    string `json:"go_version"`
	NumCPU       int    `json:"num_cpu"`
	NumGoroutine int    `json:"num_goroutine"`
	MemAlloc     uint64 `json:"mem_alloc_bytes"`
}

// Health runs every probe concurrently. Failure details go to the log only.
func (c *Controller) Health(ctx *gin.Context) {
	checks := c.runProbes(ctx.Request.Context(), false)

	status := StatusHealthy
	for _, check := range checks {
		switch {
		case check.Status == StatusHealthy:
		case check.Critical:
			status = StatusUnhealthy
		case status == StatusHealthy:
			status = StatusDegraded
		}
	}

	response := HealthResponse{
		Status:    status,
		Version:   c.config.App.Version,
		Backend:   c.config.Database.Type,
		Uptime:    time.Since(c.startTime).Round(time.Second).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	}
	if c.config.IsDevelopment() {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)
		response.System = &SystemInfo{
			GoVersion:    runtime.Version(),
			NumCPU:       runtime.NumCPU(),
			NumGoroutine: runtime.NumGoroutine(),
			MemAlloc:     memStats.Alloc,
		}
	}

	code := http.StatusOK
	if status == StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	ctx.JSON(code, response)
}

// Liveness process is up; no dependency checks
func (c *Controller) Liveness(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "alive"})
}

// Readiness critical probes only
func (c *Controller) Readiness(ctx *gin.Context) {
	for name, check := range c.runProbes(ctx.Request.Context(), true) {
		if check.Status != StatusHealthy {
			ctx.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "not_ready",
				"message": name + " not available",
			})
			return
		}
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func (c *Controller) runProbes(ctx context.Context, criticalOnly bool) map[string]Check {
	var (
		mu     sync.Mutex
		g      errgroup.Group
		checks = make(map[string]Check, len(c.probes))
	)
	for _, probe := range c.probes {
		if criticalOnly && !probe.Critical {
			continue
		}
		probe := probe
		g.Go(func() error {
			check := runProbe(ctx, probe)
			mu.Lock()
			checks[probe.Name] = check
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return checks
}

func runProbe(ctx context.Context, probe Probe) Check {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	start := time.Now()
	err := probe.Check(ctx)
	check := Check{
		Status:   StatusHealthy,
		Critical: probe.Critical,
		Latency:  time.Since(start).String(),
	}
	if err != nil {
		logger.FromContext(ctx).Warn("Health probe failed",
			zap.String("probe", probe.Name),
			zap.Error(err))
		check.Status = StatusUnhealthy
		check.Message = probe.Name + " not available"
	}
	return check
}
