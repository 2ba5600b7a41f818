package store

import (
	"context"

	"github.com/google/uuid"

	"bookly/backend/internal/domain"
)

type ProviderTx interface {
	ScheduleReader

	GetService(ctx context.Context, providerID, serviceID uuid.UUID) (domain.Service, error)

	// CreateAppointment returns ErrSlotTaken when the slot is already held and
	// ErrIdempotencyConflict when the id is already taken.
	CreateAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, appointmentID uuid.UUID, status domain.AppointmentStatus) (domain.Appointment, error)

	CreateAvailabilitySlot(ctx context.Context, slot domain.AvailabilitySlot) (domain.AvailabilitySlot, error)

	// BlockDate reports created=false and the stored row when the date was
	// already blocked.
	BlockDate(ctx context.Context, blocked domain.BlockedDate) (domain.BlockedDate, bool, error)
}
