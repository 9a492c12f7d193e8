package auth

import (
	"go.uber.org/fx"

	"github.com/labstack/echo/v4"

	"github.com/bigp7952/siggil-sub002/internal/config"
)

// Module wires the admin authentication middleware and routes.
var Module = fx.Options(
	fx.Provide(NewHandler),
	fx.Invoke(func(e *echo.Echo, h *Handler, cfg config.Config) {
		e.Use(Middleware(h.svc, PublicPaths(cfg)...))
		Register(e, h)
	}),
)
