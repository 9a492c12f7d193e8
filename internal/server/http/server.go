package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	echo "github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/bigp7952/siggil-sub002/internal/config"
	"github.com/bigp7952/siggil-sub002/internal/observability"
	"github.com/bigp7952/siggil-sub002/internal/presentation/http/response"
	"github.com/bigp7952/siggil-sub002/pkg/errorbank"
)

// Module exposes the HTTP server lifecycle to Fx.
var Module = fx.Module("http_server",
	fx.Provide(NewEcho),
	fx.Invoke(Run),
)

// NewEcho configures the Echo router with the shared middleware stack.
func NewEcho(cfg config.Config, obs *observability.Manager, logger *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler(logger)

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.HTTP.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(middleware.BodyLimit(bodyLimit(cfg.Storage.MaxImageBytes)))
	if cfg.Auth.RateLimit > 0 {
		e.Use(rateLimiter(cfg.Auth))
	}

	if obs != nil && obs.TracingEnabled() {
		e.Use(otelecho.Middleware(cfg.Observability.ServiceName))
	}

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	if obs != nil && obs.MetricsEnabled() && obs.MetricsHandler() != nil {
		e.GET(cfg.Observability.PrometheusPath, echo.WrapHandler(obs.MetricsHandler()))
	}

	return e
}

// bodyLimit leaves room for base64 inflation of the largest accepted image.
func bodyLimit(maxImageBytes int) string {
	if maxImageBytes <= 0 {
		maxImageBytes = 5 << 20
	}
	return fmt.Sprintf("%dK", (maxImageBytes*2)>>10)
}

func rateLimiter(cfg config.Auth) echo.MiddlewareFunc {
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:  rate.Limit(cfg.RateLimit),
		Burst: cfg.RateBurst,
	})
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		DenyHandler: func(c echo.Context, _ string, _ error) error {
			return response.New(c).WithError(errorbank.TooManyRequests("too many requests")).Build()
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return response.New(c).WithError(errorbank.BadRequest("cannot identify client", errorbank.WithCause(err))).Build()
		},
	})
}

// errorHandler renders errors escaping handlers in the standard envelope.
func errorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		appErr := toAppError(err)
		if appErr.Kind() == errorbank.KindInternal {
			logger.Error("http request failed",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.Error(err),
			)
		}
		if buildErr := response.New(c).WithError(appErr).Build(); buildErr != nil {
			logger.Warn("failed to write error response", zap.Error(buildErr))
		}
	}
}

func toAppError(err error) *errorbank.AppError {
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		return errorbank.From(err)
	}
	msg := http.StatusText(he.Code)
	if s, ok := he.Message.(string); ok && s != "" {
		msg = s
	}
	switch {
	case he.Code == http.StatusNotFound:
		return errorbank.NotFound(msg)
	case he.Code == http.StatusUnauthorized:
		return errorbank.Unauthorized(msg)
	case he.Code == http.StatusTooManyRequests:
		return errorbank.TooManyRequests(msg)
	case he.Code >= 400 && he.Code < 500:
		return errorbank.BadRequest(msg, errorbank.WithDetail("status", he.Code))
	default:
		return errorbank.Internal("internal error", errorbank.WithCause(err))
	}
}

// Run starts the HTTP server and ties it to the Fx lifecycle.
func Run(lc fx.Lifecycle, cfg config.Config, e *echo.Echo, logger *zap.Logger) {
	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)

	server := &http.Server{
		Addr:    addr,
		Handler: e,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("starting HTTP server", zap.String("addr", addr))
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping HTTP server")
			return server.Shutdown(ctx)
		},
	})
}
