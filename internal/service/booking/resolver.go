package booking

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"bookly/backend/internal/cache"
	"bookly/backend/internal/domain"
	"bookly/backend/internal/store"
)

// ResolveAvailableSlots returns the bookable "HH:MM" start times for a
// provider on a date. An unknown provider has no slots.
func (s *Service) ResolveAvailableSlots(ctx context.Context, providerID uuid.UUID, date string) (slots []string, err error) {
	if providerID == uuid.Nil {
		return nil, validationError("provider_id is required")
	}
	d, err := domain.ParseDate(date)
	if err != nil {
		return nil, validationError("date must be YYYY-MM-DD")
	}

	ctx, span := startSpan(ctx, "booking.ResolveAvailableSlots",
		attribute.String("bookly.provider_id", providerID.String()),
		attribute.String("bookly.date", d.String()),
	)
	defer func() { endSpan(span, err) }()

	started := s.now()

	var lookup *cache.SlotLookup
	if s.cache != nil {
		l, err := s.cache.Lookup(ctx, providerID, d)
		if err != nil {
			s.log.Warn("slot cache lookup failed", slog.Any("err", err), slog.String("provider_id", providerID.String()))
		} else if l.Hit {
			span.SetAttributes(attribute.Bool("bookly.cache_hit", true))
			s.metrics.ObserveSlotLookup("cache", s.now().Sub(started).Seconds())
			return l.Slots, nil
		} else {
			lookup = &l
		}
	}

	times, err := resolveSlots(ctx, s.repo, providerID, d)
	if err != nil {
		return nil, wrapStorage("resolve slots", err)
	}
	slots = domain.FormatSlots(times)
	s.metrics.ObserveSlotLookup("store", s.now().Sub(started).Seconds())

	if lookup != nil {
		if err := s.cache.Store(ctx, *lookup, slots); err != nil {
			s.log.Warn("slot cache store failed", slog.Any("err", err), slog.String("provider_id", providerID.String()))
		}
	}

	return slots, nil
}

// resolveSlots computes slots from storage. A blocked date short-circuits
// every other read.
func resolveSlots(ctx context.Context, r store.ScheduleReader, providerID uuid.UUID, date domain.Date) ([]domain.TimeOfDay, error) {
	blocked, err := r.IsDateBlocked(ctx, providerID, date)
	if err != nil {
		return nil, err
	}
	if blocked {
		return []domain.TimeOfDay{}, nil
	}

	windows, err := r.ListActiveWindows(ctx, providerID, date.Weekday())
	if err != nil {
		return nil, err
	}
	if len(windows) == 0 {
		return []domain.TimeOfDay{}, nil
	}

	occupiedTimes, err := r.ListOccupiedTimes(ctx, providerID, date)
	if err != nil {
		return nil, err
	}
	occupied := make(map[domain.TimeOfDay]struct{}, len(occupiedTimes))
	for _, t := range occupiedTimes {
		occupied[t] = struct{}{}
	}

	return domain.GenerateSlots(windows, occupied), nil
}

func windowAdmits(windows []domain.AvailabilitySlot, t domain.TimeOfDay) bool {
	for _, w := range windows {
		if w.IsActive && w.Admits(t) {
			return true
		}
	}
	return false
}
