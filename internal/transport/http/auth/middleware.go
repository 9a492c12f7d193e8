package auth

import (
	"context"
	"net/http"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/bigp7952/siggil-sub002/internal/config"
	"github.com/bigp7952/siggil-sub002/internal/presentation/http/response"
	service "github.com/bigp7952/siggil-sub002/internal/service/auth"
	"github.com/bigp7952/siggil-sub002/pkg/errorbank"
)

// ContextKey is where the middleware stores the caller's *auth.Claims.
const ContextKey = "admin"

const loginPath = "/auth/login"

type authenticator interface {
	Login(ctx context.Context, email, password string) (*service.Token, error)
	Parse(raw string) (*service.Claims, error)
	Verify(ctx context.Context, claims *service.Claims) error
	Logout(ctx context.Context, claims *service.Claims) error
}

// PublicPaths lists the routes reachable without a token.
func PublicPaths(cfg config.Config) []string {
	return []string{"/health", cfg.Observability.PrometheusPath, loginPath}
}

// Middleware requires a valid bearer token with an open session on every
// request outside public.
func Middleware(svc authenticator, public ...string) echo.MiddlewareFunc {
	open := make(map[string]struct{}, len(public))
	for _, p := range public {
		open[p] = struct{}{}
	}
	skipper := func(c echo.Context) bool {
		if c.Request().Method == http.MethodOptions {
			return true
		}
		_, ok := open[c.Request().URL.Path]
		return ok
	}

	parse := echojwt.WithConfig(echojwt.Config{
		Skipper:    skipper,
		ContextKey: ContextKey,
		ParseTokenFunc: func(_ echo.Context, raw string) (interface{}, error) {
			return svc.Parse(raw)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			if !errorbank.IsKind(err, errorbank.KindUnauthorized) {
				err = errorbank.Unauthorized("missing or malformed token", errorbank.WithCause(err))
			}
			return response.New(c).WithError(err).Build()
		},
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return parse(func(c echo.Context) error {
			if skipper(c) {
				return next(c)
			}
			claims, ok := ClaimsFrom(c)
			if !ok {
				return response.New(c).WithError(errorbank.Unauthorized("invalid token")).Build()
			}
			if err := svc.Verify(c.Request().Context(), claims); err != nil {
				return response.New(c).WithError(err).Build()
			}
			return next(c)
		})
	}
}

// ClaimsFrom returns the claims the middleware attached to c.
func ClaimsFrom(c echo.Context) (*service.Claims, bool) {
	claims, ok := c.Get(ContextKey).(*service.Claims)
	return claims, ok && claims != nil
}
