package booking

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"bookly/backend/internal/auth"
	"bookly/backend/internal/domain"
	"bookly/backend/internal/store"
)

// UpdateBookingStatus moves one of the calling provider's bookings along the
// status graph.
func (s *Service) UpdateBookingStatus(ctx context.Context, caller auth.Identity, appointmentID uuid.UUID, status string) (appt domain.Appointment, err error) {
	if caller.UserID == "" {
		return domain.Appointment{}, auth.ErrUnauthenticated
	}
	if appointmentID == uuid.Nil {
		return domain.Appointment{}, validationError("appointment_id is required")
	}
	target, ok := domain.ParseAppointmentStatus(status)
	if !ok {
		return domain.Appointment{}, validationError("status must be one of pending, confirmed, cancelled, completed")
	}

	provider, err := s.callerProvider(ctx, caller)
	if err != nil {
		return domain.Appointment{}, err
	}

	ctx, span := startSpan(ctx, "booking.UpdateBookingStatus",
		attribute.String("bookly.appointment_id", appointmentID.String()),
		attribute.String("bookly.status", string(target)),
	)
	defer func() { endSpan(span, err) }()

	var from domain.AppointmentStatus
	err = s.repo.InProviderTransaction(ctx, provider.ID, func(ctx context.Context, tx store.ProviderTx) error {
		current, err := tx.GetAppointment(ctx, appointmentID)
		if err != nil {
			if isNotFound(err) {
				return notFound("appointment")
			}
			return err
		}
		if current.ProviderID != provider.ID {
			return notFound("appointment")
		}
		if !current.Status.CanTransitionTo(target) {
			return conflictf(ReasonInvalidTransition, "A %s booking cannot be marked %s.", current.Status, target)
		}

		from = current.Status
		appt, err = tx.UpdateAppointmentStatus(ctx, appointmentID, target)
		return err
	})
	if err != nil {
		return domain.Appointment{}, wrapStorage("update booking status", err)
	}

	s.afterTransition(ctx, appt, from)
	return appt, nil
}

// CancelBooking cancels a pending or confirmed booking. The caller must be the
// user who booked it or the provider it was booked with.
func (s *Service) CancelBooking(ctx context.Context, caller auth.Identity, appointmentID uuid.UUID) (appt domain.Appointment, err error) {
	if caller.UserID == "" {
		return domain.Appointment{}, auth.ErrUnauthenticated
	}
	if appointmentID == uuid.Nil {
		return domain.Appointment{}, validationError("appointment_id is required")
	}

	ctx, span := startSpan(ctx, "booking.CancelBooking",
		attribute.String("bookly.appointment_id", appointmentID.String()),
	)
	defer func() { endSpan(span, err) }()

	current, err := s.repo.GetAppointment(ctx, appointmentID)
	if err != nil {
		if isNotFound(err) {
			return domain.Appointment{}, notFound("appointment")
		}
		return domain.Appointment{}, wrapStorage("get appointment", err)
	}

	allowed, err := s.canCancel(ctx, caller, current)
	if err != nil {
		return domain.Appointment{}, err
	}
	if !allowed {
		return domain.Appointment{}, notFound("appointment")
	}

	var from domain.AppointmentStatus
	err = s.repo.InProviderTransaction(ctx, current.ProviderID, func(ctx context.Context, tx store.ProviderTx) error {
		locked, err := tx.GetAppointment(ctx, appointmentID)
		if err != nil {
			if isNotFound(err) {
				return notFound("appointment")
			}
			return err
		}
		if !locked.Status.CanTransitionTo(domain.AppointmentStatusCancelled) {
			return conflictf(ReasonInvalidTransition, "Only pending or confirmed bookings can be cancelled; this one is %s.", locked.Status)
		}

		from = locked.Status
		appt, err = tx.UpdateAppointmentStatus(ctx, appointmentID, domain.AppointmentStatusCancelled)
		return err
	})
	if err != nil {
		return domain.Appointment{}, wrapStorage("cancel booking", err)
	}

	s.afterTransition(ctx, appt, from)
	return appt, nil
}

func (s *Service) canCancel(ctx context.Context, caller auth.Identity, appt domain.Appointment) (bool, error) {
	if appt.UserID == caller.UserID {
		return true, nil
	}
	if caller.Role != auth.RoleProvider {
		return false, nil
	}
	provider, err := s.repo.GetProviderByUserID(ctx, caller.UserID)
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, wrapStorage("get caller provider", err)
	}
	return provider.ID == appt.ProviderID, nil
}

func (s *Service) afterTransition(ctx context.Context, appt domain.Appointment, from domain.AppointmentStatus) {
	s.metrics.ObserveTransition(string(from), string(appt.Status))
	if !appt.Status.Occupies() {
		s.invalidateDate(ctx, appt.ProviderID, appt.AppointmentDate)
	}
	s.log.Debug("booking status changed",
		slog.String("appointment_id", appt.ID.String()),
		slog.String("from", string(from)),
		slog.String("to", string(appt.Status)),
	)
}
