package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/skillnavigator/roadmap-service/internal/metrics"
)

type HealthResponse struct {
	Status         string            `json:"status"`
	Timestamp      time.Time         `json:"timestamp"`
	Service        string            `json:"service"`
	Version        string            `json:"version"`
	LedgerBackend  string            `json:"ledger_backend"`
	StorageBackend string            `json:"storage_backend"`
	Checks         map[string]string `json:"checks,omitempty"`
	Metrics        metrics.Snapshot  `json:"metrics"`
}

// Pinger is a dependency that can report liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthOptions struct {
	ServiceName    string
	Version        string
	LedgerBackend  string
	StorageBackend string
	Checks         map[string]Pinger
	Metrics        *metrics.Metrics
}

type HealthHandler struct {
	opts HealthOptions
}

func NewHealthHandler(opts HealthOptions) *HealthHandler {
	if opts.Metrics == nil {
		opts.Metrics = metrics.Default()
	}
	return &HealthHandler{opts: opts}
}

// HealthCheck always answers 200; a failing dependency is reported as
// "degraded" with the failing check marked "down".
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	status := "healthy"
	var checks map[string]string
	if len(h.opts.Checks) > 0 {
		checks = make(map[string]string, len(h.opts.Checks))
		for name, p := range h.opts.Checks {
			pingCtx, cancel := context.WithTimeout(c.Request.Context(), 1*time.Second)
			err := p.Ping(pingCtx)
			cancel()

			if err != nil {
				checks[name] = "down"
				status = "degraded"
			} else {
				checks[name] = "up"
			}
		}
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:         status,
		Timestamp:      time.Now().UTC(),
		Service:        h.opts.ServiceName,
		Version:        h.opts.Version,
		LedgerBackend:  h.opts.LedgerBackend,
		StorageBackend: h.opts.StorageBackend,
		Checks:         checks,
		Metrics:        h.opts.Metrics.Snapshot(),
	})
}

func (h *HealthHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.HealthCheck)
	r.GET("/healthz", h.HealthCheck)
}
