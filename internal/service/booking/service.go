// Package booking resolves bookable slots and admits bookings against a
// provider's weekly availability, blocked dates and existing appointments.
package booking

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"bookly/backend/internal/auth"
	"bookly/backend/internal/cache"
	"bookly/backend/internal/domain"
	"bookly/backend/internal/observability/metrics"
	"bookly/backend/internal/store"
)

var tracer = otel.Tracer("bookly.internal.service.booking")

// SlotCache is the optional read-through cache in front of the resolver.
type SlotCache interface {
	Lookup(ctx context.Context, providerID uuid.UUID, date domain.Date) (cache.SlotLookup, error)
	Store(ctx context.Context, lookup cache.SlotLookup, slots []string) error
	InvalidateDate(ctx context.Context, providerID uuid.UUID, date domain.Date) error
	InvalidateProvider(ctx context.Context, providerID uuid.UUID) error
}

type Service struct {
	repo    store.BookingRepository
	cache   SlotCache
	metrics *metrics.BookingMetrics
	log     *slog.Logger
	now     func() time.Time
}

type Option func(*Service)

func WithSlotCache(c SlotCache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

func WithMetrics(m *metrics.BookingMetrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

func NewService(repo store.BookingRepository, opts ...Option) *Service {
	s := &Service{
		repo: repo,
		log:  slog.Default(),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(slog.String("component", "service.booking"))
	return s
}

func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// callerProvider returns the provider profile owned by a provider-role caller.
func (s *Service) callerProvider(ctx context.Context, caller auth.Identity) (domain.Provider, error) {
	if caller.Role != auth.RoleProvider {
		return domain.Provider{}, forbidden("provider role required")
	}
	p, err := s.repo.GetProviderByUserID(ctx, caller.UserID)
	if err != nil {
		if isNotFound(err) {
			return domain.Provider{}, notFound("provider profile")
		}
		return domain.Provider{}, wrapStorage("get caller provider", err)
	}
	return p, nil
}

func (s *Service) invalidateDate(ctx context.Context, providerID uuid.UUID, date domain.Date) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateDate(ctx, providerID, date); err != nil {
		s.log.Warn("slot cache invalidation failed",
			slog.Any("err", err),
			slog.String("provider_id", providerID.String()),
			slog.String("date", date.String()),
		)
	}
}

func (s *Service) invalidateProvider(ctx context.Context, providerID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateProvider(ctx, providerID); err != nil {
		s.log.Warn("slot cache invalidation failed", slog.Any("err", err), slog.String("provider_id", providerID.String()))
	}
}

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
