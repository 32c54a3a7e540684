package router

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/medicore/hospital-api/internal/handler"
	authhandler "github.com/medicore/hospital-api/internal/handler/auth"
	billinghandler "github.com/medicore/hospital-api/internal/handler/billing"
	hospitalhandler "github.com/medicore/hospital-api/internal/handler/hospital"
	patienthandler "github.com/medicore/hospital-api/internal/handler/patient"
	reporthandler "github.com/medicore/hospital-api/internal/handler/report"
	staffhandler "github.com/medicore/hospital-api/internal/handler/staff"
	visithandler "github.com/medicore/hospital-api/internal/handler/visit"
	"github.com/medicore/hospital-api/internal/middleware"
	"github.com/medicore/hospital-api/internal/model"
)

type Router struct {
	engine    *gin.Engine
	auth      *middleware.AuthMiddleware
	healthH   *handler.HealthHandler
	hospitalH *hospitalhandler.Handler
	authH     *authhandler.Handler
	staffH    *staffhandler.Handler
	patientH  *patienthandler.Handler
	visitH    *visithandler.Handler
	billingH  *billinghandler.Handler
	reportH   *reporthandler.Handler
	metrics   *routerMetrics
}

type routerMetrics struct {
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
}

type Config struct {
	RateLimitRPS   float64
	RateLimitBurst int
	CORSConfig     middleware.CORSConfig
	MetricsPrefix  string
}

func NewRouter(
	auth *middleware.AuthMiddleware,
	healthH *handler.HealthHandler,
	hospitalH *hospitalhandler.Handler,
	authH *authhandler.Handler,
	staffH *staffhandler.Handler,
	patientH *patienthandler.Handler,
	visitH *visithandler.Handler,
	billingH *billinghandler.Handler,
	reportH *reporthandler.Handler,
	config Config,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	r := &Router{
		engine:    engine,
		auth:      auth,
		healthH:   healthH,
		hospitalH: hospitalH,
		authH:     authH,
		staffH:    staffH,
		patientH:  patientH,
		visitH:    visitH,
		billingH:  billingH,
		reportH:   reportH,
		metrics:   initRouterMetrics(config.MetricsPrefix),
	}

	engine.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.ErrorHandler(),
		r.metricsMiddleware(),
	)
	engine.Use(middleware.CORS(config.CORSConfig))

	rateLimiter := middleware.NewRateLimiter(config.RateLimitRPS, config.RateLimitBurst)
	engine.Use(rateLimiter.RateLimit())

	return r
}

func (r *Router) Setup() {
	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.engine.Group("/api/v1")

	health := api.Group("/health")
	{
		health.GET("/live", r.healthH.LivenessCheck)
		health.GET("/ready", r.healthH.ReadinessCheck)
	}

	// Public: signup and credential endpoints.
	r.hospitalH.RegisterPublicRoutes(api)
	r.authH.RegisterPublicRoutes(api)

	protected := api.Group("")
	protected.Use(r.auth.Authenticate())

	r.authH.RegisterRoutes(protected)
	r.patientH.RegisterRoutes(protected)
	r.visitH.RegisterRoutes(protected)
	r.billingH.RegisterRoutes(protected)

	// Owner-scoped management surface.
	owner := protected.Group("")
	owner.Use(r.auth.RequireRole(model.RoleOwner))
	r.hospitalH.RegisterRoutes(owner)
	r.staffH.RegisterRoutes(owner)
	r.reportH.RegisterRoutes(owner)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func initRouterMetrics(prefix string) *routerMetrics {
	return &routerMetrics{
		requestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: prefix + "_request_duration_seconds",
				Help: "Duration of HTTP requests in seconds",
			},
			[]string{"method", "path", "status"},
		),
		requestTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
	}
}

func (r *Router) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()

		c.Next()

		status := fmt.Sprintf("%d", c.Writer.Status())
		duration := time.Since(start).Seconds()

		r.metrics.requestDuration.WithLabelValues(c.Request.Method, path, status).Observe(duration)
		r.metrics.requestTotal.WithLabelValues(c.Request.Method, path, status).Inc()
	}
}
