package auth

import (
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"

	"github.com/bigp7952/siggil-sub002/internal/dto"
	"github.com/bigp7952/siggil-sub002/internal/presentation/http/response"
	service "github.com/bigp7952/siggil-sub002/internal/service/auth"
	"github.com/bigp7952/siggil-sub002/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/bigp7952/siggil-sub002/transport/http/auth")

// Handler exposes admin login and logout.
type Handler struct {
	svc authenticator
}

// NewHandler constructs an auth Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo group.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/auth")
	g.POST("/login", h.login)
	g.POST("/logout", h.logout)
	g.GET("/me", h.me)
}

func (h *Handler) login(c echo.Context) error {
	b := response.New(c)

	var payload dto.LoginRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}
	if payload.Email == "" || payload.Password == "" {
		return b.WithError(errorbank.BadRequest("email and password are required")).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "auth.login")
	defer span.End()

	token, err := h.svc.Login(ctx, payload.Email, payload.Password)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(token).Build()
}

func (h *Handler) logout(c echo.Context) error {
	b := response.New(c)

	claims, ok := ClaimsFrom(c)
	if !ok {
		return b.WithError(errorbank.Unauthorized("invalid token")).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "auth.logout")
	defer span.End()

	if err := h.svc.Logout(ctx, claims); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(map[string]string{"status": "logged_out"}).Build()
}

func (h *Handler) me(c echo.Context) error {
	b := response.New(c)

	claims, ok := ClaimsFrom(c)
	if !ok {
		return b.WithError(errorbank.Unauthorized("invalid token")).Build()
	}
	return b.WithData(map[string]any{
		"email":      claims.Email,
		"expires_at": claims.ExpiresAt.Time,
	}).Build()
}
