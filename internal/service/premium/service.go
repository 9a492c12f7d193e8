package premium

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/bigp7952/siggil-sub002/internal/entity"
	"github.com/bigp7952/siggil-sub002/internal/event"
	"github.com/bigp7952/siggil-sub002/internal/observability"
	repo "github.com/bigp7952/siggil-sub002/internal/repository/premium"
	"github.com/bigp7952/siggil-sub002/internal/service/analytics"
	"github.com/bigp7952/siggil-sub002/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/bigp7952/siggil-sub002/service/premium")

const maxReasonLength = 500

type repository interface {
	List(ctx context.Context, status entity.PremiumStatus) ([]entity.PremiumRequest, error)
	GetByID(ctx context.Context, id string) (*entity.PremiumRequest, error)
	SaveReview(ctx context.Context, request *entity.PremiumRequest) (bool, error)
	Delete(ctx context.Context, id string) error
}

// Service handles the review of premium membership requests.
type Service struct {
	repo         repository
	logger       *zap.Logger
	publisher    *event.Publisher
	invalidator  analytics.Invalidator
	metrics      *observability.Metrics
	now          func() time.Time
	generateCode func() (string, error)
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository  *repo.Repository
	Logger      *zap.Logger
	Publisher   *event.Publisher       `optional:"true"`
	Invalidator analytics.Invalidator  `optional:"true"`
	Metrics     *observability.Metrics `optional:"true"`
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		repo:         p.Repository,
		logger:       p.Logger,
		publisher:    p.Publisher,
		invalidator:  p.Invalidator,
		metrics:      p.Metrics,
		now:          time.Now,
		generateCode: GenerateCode,
	}
}

// List returns premium requests, newest first. An empty status lists all.
func (s *Service) List(ctx context.Context, status string) ([]entity.PremiumRequest, error) {
	var filter entity.PremiumStatus
	if strings.TrimSpace(status) != "" {
		parsed, ok := entity.ParsePremiumStatus(status)
		if !ok {
			return nil, errorbank.BadRequest("unknown premium request status", errorbank.WithDetail("status", status))
		}
		filter = parsed
	}
	ctx, span := serviceTracer.Start(ctx, "PremiumService.List", trace.WithAttributes(attribute.String("premium.status", string(filter))))
	defer span.End()

	requests, err := s.repo.List(ctx, filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load premium requests", errorbank.WithCause(err))
	}
	return requests, nil
}

// Get retrieves a premium request by id.
func (s *Service) Get(ctx context.Context, id string) (*entity.PremiumRequest, error) {
	ctx, span := serviceTracer.Start(ctx, "PremiumService.Get", trace.WithAttributes(attribute.String("premium.id", id)))
	defer span.End()

	request, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("premium request not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load premium request", errorbank.WithCause(err))
	}
	return request, nil
}

// Approve grants premium membership. A code is generated unless one is given.
func (s *Service) Approve(ctx context.Context, id, code string) (*entity.PremiumRequest, error) {
	if strings.TrimSpace(code) == "" {
		generated, err := s.generateCode()
		if err != nil {
			return nil, errorbank.Internal("failed to generate premium code", errorbank.WithCause(err))
		}
		code = generated
	} else {
		normalized, ok := normalizeCode(code)
		if !ok {
			return nil, errorbank.BadRequest("premium code must be 4 to 64 letters, digits or dashes")
		}
		code = normalized
	}

	return s.review(ctx, id, func(r *entity.PremiumRequest) {
		r.Status = string(entity.PremiumApproved)
		r.PremiumCode = code
		r.RejectionReason = ""
	})
}

// Reject declines a request with an optional reason.
func (s *Service) Reject(ctx context.Context, id, reason string) (*entity.PremiumRequest, error) {
	reason = strings.TrimSpace(reason)
	if len(reason) > maxReasonLength {
		return nil, errorbank.BadRequest("rejection reason is too long", errorbank.WithDetail("max_length", maxReasonLength))
	}
	return s.review(ctx, id, func(r *entity.PremiumRequest) {
		r.Status = string(entity.PremiumRejected)
		r.PremiumCode = ""
		r.RejectionReason = reason
	})
}

func (s *Service) review(ctx context.Context, id string, decide func(*entity.PremiumRequest)) (*entity.PremiumRequest, error) {
	ctx, span := serviceTracer.Start(ctx, "PremiumService.Review", trace.WithAttributes(attribute.String("premium.id", id)))
	defer span.End()

	request, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if status := request.EffectiveStatus(); status != entity.PremiumPending {
		return nil, errorbank.Unprocessable("premium request has already been reviewed",
			errorbank.WithDetail("status", string(status)),
		)
	}

	now := s.now().UTC()
	decide(request)
	request.ReviewedAt = &now
	request.UpdatedAt = now

	saved, err := s.repo.SaveReview(ctx, request)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to save review", errorbank.WithCause(err))
	}
	if !saved {
		return nil, errorbank.Unprocessable("premium request has already been reviewed")
	}

	span.SetAttributes(attribute.String("premium.decision", request.Status))
	s.logger.Info("premium request reviewed",
		zap.String("id", request.ID),
		zap.String("decision", request.Status),
	)
	s.metrics.PremiumReviewed(ctx, request.Status)
	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx)
	}
	s.publisher.Publish(ctx, event.PremiumReviewed, "premium-"+request.ID, event.PremiumReviewedData{
		RequestID:   request.ID,
		UserID:      request.UserID,
		Email:       request.Email,
		Decision:    request.Status,
		PremiumCode: request.PremiumCode,
	})
	return request, nil
}

// Delete removes a premium request.
func (s *Service) Delete(ctx context.Context, id string) error {
	ctx, span := serviceTracer.Start(ctx, "PremiumService.Delete", trace.WithAttributes(attribute.String("premium.id", id)))
	defer span.End()

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return errorbank.NotFound("premium request not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return errorbank.Internal("failed to delete premium request", errorbank.WithCause(err))
	}
	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx)
	}
	return nil
}
