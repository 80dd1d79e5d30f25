package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"campaign-import/internal/imports"
	"campaign-import/internal/services/health"
	"campaign-import/internal/shared/config"
	"campaign-import/internal/shared/metrics"
	"campaign-import/internal/shared/server/middleware"
	"campaign-import/internal/shared/server/respond"
)

// Rate limit groups.
const (
	groupRead  = "READ"
	groupWrite = "WRITE"
)

// RouterDeps carries the handlers mounted by NewRouter.
type RouterDeps struct {
	Config        config.Config
	ImportHandler *imports.Handler
	Health        *health.Service
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	rl := deps.Config.RateLimit
	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.RateLimit(middleware.RateLimitConfig{
			GroupFor: rateLimitGroup,
			Rules: map[string]middleware.RateLimitRule{
				groupRead:  {Rate: rl.ReadRPS, Burst: rl.ReadBurst},
				groupWrite: {Rate: rl.WriteRPS, Burst: rl.WriteBurst},
			},
		}),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		if deps.Health == nil {
			respond.OK(c, health.Report{OK: true})
			return
		}
		rep := deps.Health.Status(c.Request.Context())
		status := http.StatusOK
		if !rep.OK {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, rep)
	})
	if deps.ImportHandler != nil {
		deps.ImportHandler.RegisterRoutes(api)
	}

	return r
}

// rateLimitGroup limits uploads and deploys separately from reads. Health and
// metrics are never limited.
func rateLimitGroup(c *gin.Context) string {
	switch c.FullPath() {
	case "/metrics", "/api/v1/health":
		return "NONE"
	}
	if c.Request.Method == http.MethodPost {
		return groupWrite
	}
	return groupRead
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
