package booking

import (
	"context"
	"strings"
	"time"

	"bookly/backend/internal/auth"
	"bookly/backend/internal/domain"
	"bookly/backend/internal/store"
)

const maxReasonLength = 500

type AddAvailabilityInput struct {
	DayOfWeek int
	StartTime string
	EndTime   string
}

// AddAvailabilitySlot adds a weekly window for the calling provider. Active
// windows on the same weekday may not overlap.
func (s *Service) AddAvailabilitySlot(ctx context.Context, caller auth.Identity, in AddAvailabilityInput) (domain.AvailabilitySlot, error) {
	if caller.UserID == "" {
		return domain.AvailabilitySlot{}, auth.ErrUnauthenticated
	}
	provider, err := s.callerProvider(ctx, caller)
	if err != nil {
		return domain.AvailabilitySlot{}, err
	}

	if !domain.ValidDayOfWeek(in.DayOfWeek) {
		return domain.AvailabilitySlot{}, validationError("day_of_week must be between 0 (Sunday) and 6 (Saturday)")
	}
	start, err := domain.ParseTimeOfDay(in.StartTime)
	if err != nil {
		return domain.AvailabilitySlot{}, validationError("start_time must be HH:MM")
	}
	end, err := domain.ParseTimeOfDay(in.EndTime)
	if err != nil {
		return domain.AvailabilitySlot{}, validationError("end_time must be HH:MM")
	}
	if start >= end {
		return domain.AvailabilitySlot{}, validationError("start_time must be before end_time")
	}

	slot := domain.AvailabilitySlot{
		ProviderID: provider.ID,
		DayOfWeek:  time.Weekday(in.DayOfWeek),
		StartTime:  start,
		EndTime:    end,
		IsActive:   true,
	}

	var created domain.AvailabilitySlot
	err = s.repo.InProviderTransaction(ctx, provider.ID, func(ctx context.Context, tx store.ProviderTx) error {
		existing, err := tx.ListActiveWindows(ctx, provider.ID, slot.DayOfWeek)
		if err != nil {
			return err
		}
		for _, w := range existing {
			if w.Overlaps(slot) {
				return conflictf(ReasonWindowOverlap, "This window overlaps %s-%s on the same day.", w.StartTime, w.EndTime)
			}
		}

		created, err = tx.CreateAvailabilitySlot(ctx, slot)
		return err
	})
	if err != nil {
		return domain.AvailabilitySlot{}, wrapStorage("add availability slot", err)
	}

	s.invalidateProvider(ctx, provider.ID)
	return created, nil
}

type BlockDateInput struct {
	Date   string
	Reason string
}

// BlockDate removes all availability for the calling provider on one date.
// Blocking an already blocked date returns the stored row with created=false.
func (s *Service) BlockDate(ctx context.Context, caller auth.Identity, in BlockDateInput) (domain.BlockedDate, bool, error) {
	if caller.UserID == "" {
		return domain.BlockedDate{}, false, auth.ErrUnauthenticated
	}
	provider, err := s.callerProvider(ctx, caller)
	if err != nil {
		return domain.BlockedDate{}, false, err
	}

	date, err := domain.ParseDate(in.Date)
	if err != nil {
		return domain.BlockedDate{}, false, validationError("date must be YYYY-MM-DD")
	}
	blocked := domain.BlockedDate{ProviderID: provider.ID, BlockedDate: date}
	if reason := strings.TrimSpace(in.Reason); reason != "" {
		if len(reason) > maxReasonLength {
			return domain.BlockedDate{}, false, validationError("reason too long")
		}
		blocked.Reason = &reason
	}

	var (
		out     domain.BlockedDate
		created bool
	)
	err = s.repo.InProviderTransaction(ctx, provider.ID, func(ctx context.Context, tx store.ProviderTx) error {
		var err error
		out, created, err = tx.BlockDate(ctx, blocked)
		return err
	})
	if err != nil {
		return domain.BlockedDate{}, false, wrapStorage("block date", err)
	}

	if created {
		s.invalidateDate(ctx, provider.ID, date)
	}
	return out, created, nil
}

func (s *Service) ListMyAvailability(ctx context.Context, caller auth.Identity) ([]domain.AvailabilitySlot, error) {
	if caller.UserID == "" {
		return nil, auth.ErrUnauthenticated
	}
	provider, err := s.callerProvider(ctx, caller)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ListAvailability(ctx, provider.ID)
	if err != nil {
		return nil, wrapStorage("list availability", err)
	}
	return rows, nil
}

func (s *Service) ListMyBlockedDates(ctx context.Context, caller auth.Identity) ([]domain.BlockedDate, error) {
	if caller.UserID == "" {
		return nil, auth.ErrUnauthenticated
	}
	provider, err := s.callerProvider(ctx, caller)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ListBlockedDates(ctx, provider.ID)
	if err != nil {
		return nil, wrapStorage("list blocked dates", err)
	}
	return rows, nil
}
