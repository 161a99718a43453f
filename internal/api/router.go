package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/99minutos/tracking-service/docs"
	"github.com/99minutos/tracking-service/internal/api/handler"
	"github.com/99minutos/tracking-service/internal/api/middleware"
	"github.com/99minutos/tracking-service/internal/core/ports"
)

// Options carries the collaborators the router wires into handlers.
type Options struct {
	Tracking ports.TrackingService
	// Limiter enables per-client rate limiting when non-nil.
	Limiter middleware.Limiter
	// JWTSecret enables bearer authentication on tracking routes when set.
	JWTSecret string
	// Dependencies are pinged by the readiness check.
	Dependencies map[string]handler.Pinger
	// Registry receives the HTTP metrics and backs /metrics. Defaults to the
	// global Prometheus registry, where the service metrics live.
	Registry *prometheus.Registry
	Log      zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(opts Options) *echo.Echo {
	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if opts.Registry != nil {
		registerer, gatherer = opts.Registry, opts.Registry
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(opts.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(requestLogger(opts.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "tracking",
		Registerer: registerer,
	}))

	// --- Tracking routes ---
	var mws []echo.MiddlewareFunc
	if opts.JWTSecret != "" {
		mws = append(mws, middleware.Auth(opts.JWTSecret))
	}
	if opts.Limiter != nil {
		mws = append(mws, middleware.RateLimit(opts.Limiter, opts.Log))
	}

	tracking := handler.NewTrackingHandler(opts.Tracking)
	for _, path := range []string{"/tracking", "/api/tracking"} {
		e.GET(path, tracking.Get, mws...)
		e.POST(path, tracking.Post, mws...)
	}

	// --- Health checks and tooling (no auth required) ---
	health := handler.NewHealthHandler(opts.Dependencies)
	e.GET("/health", health.Liveness)
	e.GET("/health/ready", health.Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	e.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusFound, "/swagger/index.html")
	})

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= http.StatusInternalServerError {
				ev = log.Error()
			}
			ev.Err(v.Error).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}
