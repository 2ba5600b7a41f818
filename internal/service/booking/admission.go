package booking

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"bookly/backend/internal/auth"
	"bookly/backend/internal/domain"
	"bookly/backend/internal/store"
)

const maxNotesLength = 2000

type CreateBookingInput struct {
	ProviderID     uuid.UUID
	ServiceID      uuid.UUID
	Date           string
	Time           string
	Notes          string
	IdempotencyKey string
}

// CreateBooking admits a booking for the calling user. Checks run fail-fast
// inside a provider-scoped transaction: service ownership, blocked date,
// window membership, then slot occupancy. The storage unique index is the
// final arbiter when two admissions race.
func (s *Service) CreateBooking(ctx context.Context, caller auth.Identity, in CreateBookingInput) (appt domain.Appointment, err error) {
	if caller.UserID == "" {
		return domain.Appointment{}, auth.ErrUnauthenticated
	}
	if caller.Role != auth.RoleUser {
		return domain.Appointment{}, forbidden("only users can create bookings")
	}

	req, err := parseCreateBooking(caller, in)
	if err != nil {
		s.metrics.ObserveAdmission("invalid")
		return domain.Appointment{}, err
	}

	ctx, span := startSpan(ctx, "booking.CreateBooking",
		attribute.String("bookly.provider_id", req.ProviderID.String()),
		attribute.String("bookly.date", req.AppointmentDate.String()),
		attribute.String("bookly.time", req.AppointmentTime.String()),
	)
	defer func() { endSpan(span, err) }()

	replayed := false
	err = s.repo.InProviderTransaction(ctx, req.ProviderID, func(ctx context.Context, tx store.ProviderTx) error {
		if req.ID != uuid.Nil {
			existing, err := tx.GetAppointment(ctx, req.ID)
			switch {
			case err == nil:
				if !existing.SameRequest(req) {
					return conflict(ReasonIdempotencyKeyReused)
				}
				appt = existing
				replayed = true
				return nil
			case !isNotFound(err):
				return err
			}
		}

		created, err := admit(ctx, tx, req)
		if err != nil {
			return err
		}
		appt = created
		return nil
	})
	if err != nil {
		err = wrapStorage("create booking", err)
		s.metrics.ObserveAdmission(admissionOutcome(err))
		return domain.Appointment{}, err
	}

	if replayed {
		s.metrics.ObserveAdmission("replayed")
		return appt, nil
	}

	s.metrics.ObserveAdmission("created")
	s.invalidateDate(ctx, appt.ProviderID, appt.AppointmentDate)
	s.log.Debug("booking admitted",
		slog.String("appointment_id", appt.ID.String()),
		slog.String("provider_id", appt.ProviderID.String()),
		slog.String("date", appt.AppointmentDate.String()),
		slog.String("time", appt.AppointmentTime.String()),
	)
	return appt, nil
}

func admit(ctx context.Context, tx store.ProviderTx, req domain.Appointment) (domain.Appointment, error) {
	if _, err := tx.GetService(ctx, req.ProviderID, req.ServiceID); err != nil {
		if isNotFound(err) {
			return domain.Appointment{}, notFound("service")
		}
		return domain.Appointment{}, err
	}

	blocked, err := tx.IsDateBlocked(ctx, req.ProviderID, req.AppointmentDate)
	if err != nil {
		return domain.Appointment{}, err
	}
	if blocked {
		return domain.Appointment{}, conflict(ReasonDateBlocked)
	}

	windows, err := tx.ListActiveWindows(ctx, req.ProviderID, req.AppointmentDate.Weekday())
	if err != nil {
		return domain.Appointment{}, err
	}
	if !windowAdmits(windows, req.AppointmentTime) {
		return domain.Appointment{}, conflict(ReasonSlotNotAvailable)
	}

	occupied, err := tx.ListOccupiedTimes(ctx, req.ProviderID, req.AppointmentDate)
	if err != nil {
		return domain.Appointment{}, err
	}
	for _, t := range occupied {
		if t == req.AppointmentTime {
			return domain.Appointment{}, conflict(ReasonAlreadyBooked)
		}
	}

	req.Status = domain.AppointmentStatusPending
	return tx.CreateAppointment(ctx, req)
}

func parseCreateBooking(caller auth.Identity, in CreateBookingInput) (domain.Appointment, error) {
	if in.ProviderID == uuid.Nil {
		return domain.Appointment{}, validationError("provider_id is required")
	}
	if in.ServiceID == uuid.Nil {
		return domain.Appointment{}, validationError("service_id is required")
	}
	if strings.TrimSpace(in.Date) == "" || strings.TrimSpace(in.Time) == "" {
		return domain.Appointment{}, validationError("date and time are required")
	}
	date, err := domain.ParseDate(in.Date)
	if err != nil {
		return domain.Appointment{}, validationError("date must be YYYY-MM-DD")
	}
	tod, err := domain.ParseTimeOfDay(in.Time)
	if err != nil {
		return domain.Appointment{}, validationError("time must be HH:MM")
	}
	notes := strings.TrimSpace(in.Notes)
	if len(notes) > maxNotesLength {
		return domain.Appointment{}, validationError("notes too long")
	}

	appt := domain.Appointment{
		UserID:          caller.UserID,
		ProviderID:      in.ProviderID,
		ServiceID:       in.ServiceID,
		AppointmentDate: date,
		AppointmentTime: tod,
		Notes:           notes,
	}

	key := strings.TrimSpace(in.IdempotencyKey)
	if key != "" {
		if len(key) > 256 {
			return domain.Appointment{}, validationError("idempotency_key too long")
		}
		appt.ID = uuid.NewSHA1(uuid.NameSpaceOID, []byte("bookly:create_booking:"+caller.UserID+":"+key))
	}

	return appt, nil
}

func admissionOutcome(err error) string {
	var (
		cErr *ConflictError
		nErr *NotFoundError
	)
	switch {
	case errors.As(err, &cErr):
		return string(cErr.Reason)
	case errors.As(err, &nErr):
		return "not_found"
	}
	return "error"
}

func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
