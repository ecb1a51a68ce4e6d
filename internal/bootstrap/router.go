package bootstrap

import (
	"github.com/gin-gonic/gin"

	"github.com/skillnavigator/roadmap-service/config"
	httpapi "github.com/skillnavigator/roadmap-service/internal/api/http"
	"github.com/skillnavigator/roadmap-service/internal/api/http/middleware"
	"github.com/skillnavigator/roadmap-service/internal/metrics"
	roadmaphttp "github.com/skillnavigator/roadmap-service/internal/roadmap/http"
)

type RouterDeps struct {
	Config     *config.Config
	Components *Components
	Workflow   roadmaphttp.Runner
	Metrics    *metrics.Metrics
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.CORS())

	healthHandler := httpapi.NewHealthHandler(httpapi.HealthOptions{
		ServiceName:    serviceName,
		Version:        dep.Config.App.Version,
		LedgerBackend:  dep.Config.Ledger.Backend,
		StorageBackend: dep.Config.Storage.Backend,
		Checks:         dep.Components.Checks,
		Metrics:        dep.Metrics,
	})
	healthHandler.RegisterRoutes(r)

	api := r.Group("/api/v1")
	if dep.Config.RateLimit.RPS > 0 {
		limiter := middleware.NewRateLimiter(dep.Config.RateLimit.RPS, dep.Config.RateLimit.Burst)
		api.Use(limiter.Middleware())
	}
	roadmaphttp.New(dep.Workflow).Register(api)

	if dep.Components.LocalStore != nil {
		roadmaphttp.NewArtifactHandler(dep.Components.LocalStore).Register(r)
	}

	return r
}
