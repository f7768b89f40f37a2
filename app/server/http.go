// Package server assembles the Echo application: middleware, routes and the
// Prometheus endpoint.
package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/vibast-solutions/ms-go-journal/app/controller"
	httpdto "github.com/vibast-solutions/ms-go-journal/app/dto/http"
	"github.com/vibast-solutions/ms-go-journal/app/middleware"
	"github.com/vibast-solutions/ms-go-journal/app/service"
	"github.com/vibast-solutions/ms-go-journal/app/validation"
	"github.com/vibast-solutions/ms-go-journal/config"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const metricsSubsystem = "journal_http"

type Dependencies struct {
	UserAuthService     service.UserAuthService
	JournalEntryService service.JournalEntryService
	HealthChecks        map[string]controller.DependencyCheck
	// Redis is optional; without it rate limits are kept per process.
	Redis redis.UniversalClient
}

type options struct {
	registry *prometheus.Registry
}

type Option func(*options)

// WithMetricsRegistry registers HTTP metrics with reg and serves /metrics
// from it instead of the default registry.
func WithMetricsRegistry(reg *prometheus.Registry) Option {
	return func(o *options) {
		o.registry = reg
	}
}

func NewHTTPServer(cfg *config.Config, deps Dependencies, opts ...Option) *echo.Echo {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validation.New()
	e.HTTPErrorHandler = httpErrorHandler
	e.IPExtractor = middleware.IPExtractor(cfg.RateLimit.TrustProxy)
	e.Server.ReadHeaderTimeout = 10 * time.Second

	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogRemoteIP:  true,
		LogLatency:   true,
		LogUserAgent: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := logrus.Fields{
				"remote_ip":  v.RemoteIP,
				"host":       v.Host,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"latency_ns": v.Latency.Nanoseconds(),
				"user_agent": v.UserAgent,
			}
			entry := logrus.WithFields(fields)
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			entry.Info("http_request")
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	registerMetrics(e, o.registry)

	healthController := controller.NewHealthController(deps.HealthChecks)
	authController := controller.NewUserAuthController(deps.UserAuthService)
	entryController := controller.NewJournalEntryController(deps.JournalEntryService)
	authMiddleware := middleware.NewAuthMiddleware(deps.UserAuthService)

	e.GET("/", healthController.Root)
	e.GET("/health", healthController.Liveness)
	e.GET("/health/ready", healthController.Readiness)

	var authMiddlewares, entryMiddlewares []echo.MiddlewareFunc
	if cfg.RateLimit.Enabled {
		global := newRateLimiter(deps.Redis, "global", cfg.RateLimit.RequestsPerMinute)
		authMiddlewares = append(authMiddlewares, global, newRateLimiter(deps.Redis, "auth", cfg.RateLimit.AuthRequestsPerMinute))
		entryMiddlewares = append(entryMiddlewares, global)
	}
	entryMiddlewares = append(entryMiddlewares, authMiddleware.RequireAuth)

	auth := e.Group("/auth", authMiddlewares...)
	auth.POST("/signup", authController.Signup)
	auth.POST("/login", authController.Login)
	auth.POST("/refresh", authController.Refresh)
	auth.POST("/forgot-password", authController.ForgotPassword)
	auth.POST("/reset-password", authController.ResetPassword)
	auth.POST("/logout", authController.Logout, authMiddleware.RequireAuth)

	entries := e.Group("/entries", entryMiddlewares...)
	entries.POST("", entryController.Create)
	entries.GET("", entryController.List)
	entries.DELETE("", entryController.DeleteAll)
	entries.GET("/:id", entryController.Get)
	entries.PUT("/:id", entryController.Update)
	entries.DELETE("/:id", entryController.Delete)

	return e
}

func registerMetrics(e *echo.Echo, reg *prometheus.Registry) {
	mwConfig := echoprometheus.MiddlewareConfig{
		Subsystem: metricsSubsystem,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}
	handlerConfig := echoprometheus.HandlerConfig{}
	if reg != nil {
		mwConfig.Registerer = reg
		handlerConfig.Gatherer = reg
	}

	e.Use(echoprometheus.NewMiddlewareWithConfig(mwConfig))
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(handlerConfig))
}

func newRateLimiter(client redis.UniversalClient, scope string, perMinute int) echo.MiddlewareFunc {
	var store middleware.RateLimitStore
	if client != nil {
		store = middleware.NewRedisRateLimitStore(client, scope, perMinute)
	} else {
		store = middleware.NewMemoryRateLimitStore(perMinute)
	}
	return middleware.NewRateLimiter(scope, perMinute, store)
}

// httpErrorHandler renders errors raised by Echo itself, such as unknown
// routes or oversized bodies, in the same {"error": ...} shape as handlers.
func httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := "internal server error"

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		message = fmt.Sprintf("%v", he.Message)
	} else {
		logrus.WithError(err).WithFields(logrus.Fields{
			"method": c.Request().Method,
			"uri":    c.Request().RequestURI,
		}).Error("Unhandled HTTP error")
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, httpdto.ErrorResponse{Error: message})
	}
	if err != nil {
		logrus.WithError(err).Debug("Failed to write error response")
	}
}
