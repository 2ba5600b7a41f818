package booking

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"bookly/backend/internal/auth"
	"bookly/backend/internal/domain"
)

func (s *Service) ListProviders(ctx context.Context, providerType string) ([]domain.Provider, error) {
	var filter *domain.ProviderType
	if t := strings.TrimSpace(providerType); t != "" {
		pt := domain.ProviderType(t)
		if !pt.Valid() {
			return nil, validationError("type must be one of doctor, salon, car-rental")
		}
		filter = &pt
	}

	rows, err := s.repo.ListProviders(ctx, filter)
	if err != nil {
		return nil, wrapStorage("list providers", err)
	}
	return rows, nil
}

func (s *Service) ListProviderServices(ctx context.Context, providerID uuid.UUID) ([]domain.Service, error) {
	if providerID == uuid.Nil {
		return nil, validationError("provider_id is required")
	}
	if _, err := s.repo.GetProvider(ctx, providerID); err != nil {
		if isNotFound(err) {
			return nil, notFound("provider")
		}
		return nil, wrapStorage("get provider", err)
	}

	rows, err := s.repo.ListServices(ctx, providerID)
	if err != nil {
		return nil, wrapStorage("list services", err)
	}
	return rows, nil
}

// ListMyBookings lists the caller's own bookings, newest first.
func (s *Service) ListMyBookings(ctx context.Context, caller auth.Identity) ([]domain.AppointmentView, error) {
	if caller.UserID == "" {
		return nil, auth.ErrUnauthenticated
	}
	rows, err := s.repo.ListUserAppointments(ctx, caller.UserID)
	if err != nil {
		return nil, wrapStorage("list user bookings", err)
	}
	return rows, nil
}

// ListProviderBookings lists bookings made with the calling provider, newest first.
func (s *Service) ListProviderBookings(ctx context.Context, caller auth.Identity) ([]domain.AppointmentView, error) {
	if caller.UserID == "" {
		return nil, auth.ErrUnauthenticated
	}
	provider, err := s.callerProvider(ctx, caller)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ListProviderAppointments(ctx, provider.ID)
	if err != nil {
		return nil, wrapStorage("list provider bookings", err)
	}
	return rows, nil
}
