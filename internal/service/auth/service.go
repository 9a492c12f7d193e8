package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/bigp7952/siggil-sub002/internal/cache"
	"github.com/bigp7952/siggil-sub002/internal/config"
	"github.com/bigp7952/siggil-sub002/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/bigp7952/siggil-sub002/service/auth")

const (
	issuer        = "siggil-admin"
	sessionPrefix = "session:"
)

var errInvalidCredentials = errorbank.Unauthorized("invalid email or password")

// Claims are carried by admin access tokens.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Token is the result of a successful login.
type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Service authenticates the dashboard administrator and tracks sessions so
// tokens can be revoked on logout.
type Service struct {
	secret        []byte
	ttl           time.Duration
	email         string
	passwordHash  []byte
	sessions      cache.Store
	trackSessions bool
	logger        *zap.Logger
	now           func() time.Time
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Config config.Config
	Cache  cache.Store
	Logger *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	track := p.Config.Cache.Enabled && p.Config.Cache.Driver != "noop"
	if !track {
		p.Logger.Warn("cache disabled; admin sessions cannot be revoked before they expire")
	}
	return &Service{
		secret:        []byte(p.Config.Auth.JWTSecret),
		ttl:           p.Config.Auth.TokenTTL,
		email:         strings.ToLower(strings.TrimSpace(p.Config.Auth.AdminEmail)),
		passwordHash:  []byte(p.Config.Auth.AdminPasswordHash),
		sessions:      p.Cache,
		trackSessions: track,
		logger:        p.Logger,
		now:           time.Now,
	}
}

// Login checks the administrator credentials and issues an access token.
func (s *Service) Login(ctx context.Context, email, password string) (*Token, error) {
	ctx, span := serviceTracer.Start(ctx, "AuthService.Login")
	defer span.End()

	if s.email == "" || len(s.passwordHash) == 0 {
		return nil, errorbank.Unauthorized("admin login is not configured")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(s.email)) == 1
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil || !emailOK {
		s.logger.Warn("admin login rejected", zap.String("email", email))
		return nil, errInvalidCredentials
	}

	now := s.now().UTC()
	expires := now.Add(s.ttl)
	claims := &Claims{
		Email: s.email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			Subject:   s.email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "sign failed")
		return nil, errorbank.Internal("failed to issue token", errorbank.WithCause(err))
	}

	if s.trackSessions {
		if err := s.sessions.Set(ctx, sessionPrefix+claims.ID, []byte(claims.Email), s.ttl); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "session store failed")
			return nil, errorbank.Internal("failed to start session", errorbank.WithCause(err))
		}
	}

	s.logger.Info("admin logged in", zap.String("email", claims.Email))
	return &Token{AccessToken: signed, TokenType: "Bearer", ExpiresAt: expires}, nil
}

// Parse validates a raw token and returns its claims.
func (s *Service) Parse(raw string) (*Claims, error) {
	claims := new(Claims)
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, errorbank.Unauthorized("invalid or expired token", errorbank.WithCause(err))
	}
	return claims, nil
}

// Verify reports whether the session behind claims is still open.
func (s *Service) Verify(ctx context.Context, claims *Claims) error {
	if claims == nil || claims.ID == "" {
		return errorbank.Unauthorized("invalid token")
	}
	if !s.trackSessions {
		return nil
	}
	_, err := s.sessions.Get(ctx, sessionPrefix+claims.ID)
	if errors.Is(err, cache.ErrCacheMiss) {
		return errorbank.Unauthorized("session has ended")
	}
	if err != nil {
		return errorbank.Internal("failed to check session", errorbank.WithCause(err))
	}
	return nil
}

// Logout closes the session behind claims.
func (s *Service) Logout(ctx context.Context, claims *Claims) error {
	if claims == nil || claims.ID == "" {
		return errorbank.Unauthorized("invalid token")
	}
	if !s.trackSessions {
		return nil
	}
	if err := s.sessions.Delete(ctx, sessionPrefix+claims.ID); err != nil {
		return errorbank.Internal("failed to end session", errorbank.WithCause(err))
	}
	s.logger.Info("admin logged out", zap.String("email", claims.Email))
	return nil
}

// HashPassword produces the bcrypt hash expected in AUTH_ADMIN_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	if len(password) < 8 {
		return "", errors.New("password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
