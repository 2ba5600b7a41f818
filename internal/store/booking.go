package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"bookly/backend/internal/domain"
)

type DirectoryReader interface {
	ListProviders(ctx context.Context, providerType *domain.ProviderType) ([]domain.Provider, error)
	GetProvider(ctx context.Context, providerID uuid.UUID) (domain.Provider, error)
	GetProviderByUserID(ctx context.Context, userID string) (domain.Provider, error)
	ListServices(ctx context.Context, providerID uuid.UUID) ([]domain.Service, error)
}

// ScheduleReader holds the reads shared by the slot resolver and the
// admission path.
type ScheduleReader interface {
	IsDateBlocked(ctx context.Context, providerID uuid.UUID, date domain.Date) (bool, error)
	ListActiveWindows(ctx context.Context, providerID uuid.UUID, day time.Weekday) ([]domain.AvailabilitySlot, error)
	ListOccupiedTimes(ctx context.Context, providerID uuid.UUID, date domain.Date) ([]domain.TimeOfDay, error)
	GetAppointment(ctx context.Context, appointmentID uuid.UUID) (domain.Appointment, error)
}

type BookingRepository interface {
	DirectoryReader
	ScheduleReader

	ListAvailability(ctx context.Context, providerID uuid.UUID) ([]domain.AvailabilitySlot, error)
	ListBlockedDates(ctx context.Context, providerID uuid.UUID) ([]domain.BlockedDate, error)
	ListUserAppointments(ctx context.Context, userID string) ([]domain.AppointmentView, error)
	ListProviderAppointments(ctx context.Context, providerID uuid.UUID) ([]domain.AppointmentView, error)

	// InProviderTransaction runs fn in one transaction serialized against
	// every other write for the same provider.
	InProviderTransaction(ctx context.Context, providerID uuid.UUID, fn func(ctx context.Context, tx ProviderTx) error) error

	Ping(ctx context.Context) error
}
