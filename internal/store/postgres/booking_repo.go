package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"

	"bookly/backend/internal/domain"
	"bookly/backend/internal/store"
)

const (
	constraintAppointmentsPkey       = "appointments_pkey"
	constraintAppointmentsActiveSlot = "appointments_active_slot_uniq"
	constraintAvailabilityNoOverlap  = "availability_slots_no_overlap"
)

type BookingRepo struct {
	readQueries
	db *bun.DB
}

func NewBookingRepo(db *bun.DB) *BookingRepo {
	return &BookingRepo{readQueries: readQueries{db: db}, db: db}
}

var _ store.BookingRepository = (*BookingRepo)(nil)

// readQueries runs against either the pool or an open transaction.
type readQueries struct {
	db bun.IDB
}

type providerTx struct {
	readQueries
	tx bun.Tx
}

var _ store.ProviderTx = providerTx{}

func (r *BookingRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *BookingRepo) InProviderTransaction(ctx context.Context, providerID uuid.UUID, fn func(ctx context.Context, tx store.ProviderTx) error) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockProviderSchedule(ctx, tx, providerID); err != nil {
			return err
		}
		return fn(ctx, providerTx{readQueries: readQueries{db: tx}, tx: tx})
	})
}

func lockProviderSchedule(ctx context.Context, tx bun.Tx, providerID uuid.UUID) error {
	_, err := tx.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", providerID.String()).Exec(ctx)
	return err
}

func (q readQueries) ListProviders(ctx context.Context, providerType *domain.ProviderType) ([]domain.Provider, error) {
	rows := make([]domain.Provider, 0)
	sel := q.db.NewSelect().Model(&rows)
	if providerType != nil {
		sel = sel.Where("provider_type = ?", string(*providerType))
	}
	if err := sel.OrderExpr("provider_type ASC, display_name ASC").Scan(ctx); err != nil {
		return nil, translateError(err)
	}
	return rows, nil
}

func (q readQueries) GetProvider(ctx context.Context, providerID uuid.UUID) (domain.Provider, error) {
	var p domain.Provider
	err := q.db.NewSelect().
		Model(&p).
		Where("id = ?", providerID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return domain.Provider{}, translateError(err)
	}
	return p, nil
}

func (q readQueries) GetProviderByUserID(ctx context.Context, userID string) (domain.Provider, error) {
	var p domain.Provider
	err := q.db.NewSelect().
		Model(&p).
		Where("user_id = ?", userID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return domain.Provider{}, translateError(err)
	}
	return p, nil
}

func (q readQueries) ListServices(ctx context.Context, providerID uuid.UUID) ([]domain.Service, error) {
	rows := make([]domain.Service, 0)
	err := q.db.NewSelect().
		Model(&rows).
		Where("provider_id = ?", providerID).
		OrderExpr("name ASC").
		Scan(ctx)
	if err != nil {
		return nil, translateError(err)
	}
	return rows, nil
}

func (q readQueries) IsDateBlocked(ctx context.Context, providerID uuid.UUID, date domain.Date) (bool, error) {
	exists, err := q.db.NewSelect().
		Model((*domain.BlockedDate)(nil)).
		Where("provider_id = ?", providerID).
		Where("blocked_date = ?", date).
		Exists(ctx)
	if err != nil {
		return false, translateError(err)
	}
	return exists, nil
}

func (q readQueries) ListActiveWindows(ctx context.Context, providerID uuid.UUID, day time.Weekday) ([]domain.AvailabilitySlot, error) {
	rows := make([]domain.AvailabilitySlot, 0)
	err := q.db.NewSelect().
		Model(&rows).
		Where("provider_id = ?", providerID).
		Where("day_of_week = ?", int(day)).
		Where("is_active").
		OrderExpr("start_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, translateError(err)
	}
	return rows, nil
}

func (q readQueries) ListOccupiedTimes(ctx context.Context, providerID uuid.UUID, date domain.Date) ([]domain.TimeOfDay, error) {
	times := make([]domain.TimeOfDay, 0)
	err := q.db.NewSelect().
		Model((*domain.Appointment)(nil)).
		Column("appointment_time").
		Where("provider_id = ?", providerID).
		Where("appointment_date = ?", date).
		Where("status <> ?", string(domain.AppointmentStatusCancelled)).
		OrderExpr("appointment_time ASC").
		Scan(ctx, &times)
	if err != nil {
		return nil, translateError(err)
	}
	return times, nil
}

func (q readQueries) GetAppointment(ctx context.Context, appointmentID uuid.UUID) (domain.Appointment, error) {
	var a domain.Appointment
	err := q.db.NewSelect().
		Model(&a).
		Where("id = ?", appointmentID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return domain.Appointment{}, translateError(err)
	}
	return a, nil
}

func (q readQueries) ListAvailability(ctx context.Context, providerID uuid.UUID) ([]domain.AvailabilitySlot, error) {
	rows := make([]domain.AvailabilitySlot, 0)
	err := q.db.NewSelect().
		Model(&rows).
		Where("provider_id = ?", providerID).
		OrderExpr("day_of_week ASC, start_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, translateError(err)
	}
	return rows, nil
}

func (q readQueries) ListBlockedDates(ctx context.Context, providerID uuid.UUID) ([]domain.BlockedDate, error) {
	rows := make([]domain.BlockedDate, 0)
	err := q.db.NewSelect().
		Model(&rows).
		Where("provider_id = ?", providerID).
		OrderExpr("blocked_date ASC").
		Scan(ctx)
	if err != nil {
		return nil, translateError(err)
	}
	return rows, nil
}

const appointmentViewQuery = `
SELECT a.id, a.user_id, a.provider_id, a.service_id, a.appointment_date, a.appointment_time,
       a.status, a.notes, a.created_at, a.updated_at,
       p.display_name AS provider_name, p.provider_type,
       s.name AS service_name, s.price AS service_price
FROM appointments AS a
JOIN providers AS p ON p.id = a.provider_id
JOIN services AS s ON s.id = a.service_id
`

func (q readQueries) ListUserAppointments(ctx context.Context, userID string) ([]domain.AppointmentView, error) {
	rows := make([]domain.AppointmentView, 0)
	err := q.db.NewRaw(appointmentViewQuery+
		"WHERE a.user_id = ?\nORDER BY a.appointment_date DESC, a.appointment_time DESC", userID).
		Scan(ctx, &rows)
	if err != nil {
		return nil, translateError(err)
	}
	return rows, nil
}

func (q readQueries) ListProviderAppointments(ctx context.Context, providerID uuid.UUID) ([]domain.AppointmentView, error) {
	rows := make([]domain.AppointmentView, 0)
	err := q.db.NewRaw(appointmentViewQuery+
		"WHERE a.provider_id = ?\nORDER BY a.appointment_date DESC, a.appointment_time DESC", providerID).
		Scan(ctx, &rows)
	if err != nil {
		return nil, translateError(err)
	}
	return rows, nil
}

func (t providerTx) GetService(ctx context.Context, providerID, serviceID uuid.UUID) (domain.Service, error) {
	var s domain.Service
	err := t.tx.NewSelect().
		Model(&s).
		Where("id = ?", serviceID).
		Where("provider_id = ?", providerID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return domain.Service{}, translateError(err)
	}
	return s, nil
}

// GetAppointment locks the row for the rest of the transaction.
func (t providerTx) GetAppointment(ctx context.Context, appointmentID uuid.UUID) (domain.Appointment, error) {
	var a domain.Appointment
	err := t.tx.NewSelect().
		Model(&a).
		Where("id = ?", appointmentID).
		For("UPDATE").
		Limit(1).
		Scan(ctx)
	if err != nil {
		return domain.Appointment{}, translateError(err)
	}
	return a, nil
}

func (t providerTx) CreateAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	m := domain.Appointment{
		ID:              appt.ID,
		UserID:          appt.UserID,
		ProviderID:      appt.ProviderID,
		ServiceID:       appt.ServiceID,
		AppointmentDate: appt.AppointmentDate,
		AppointmentTime: appt.AppointmentTime,
		Status:          appt.Status,
		Notes:           appt.Notes,
		CreatedAt:       appt.CreatedAt,
		UpdatedAt:       appt.UpdatedAt,
	}
	if m.Status == "" {
		m.Status = domain.AppointmentStatusPending
	}

	if _, err := t.tx.NewInsert().Model(&m).Exec(ctx); err != nil {
		return domain.Appointment{}, translateError(err)
	}
	return m, nil
}

func (t providerTx) UpdateAppointmentStatus(ctx context.Context, appointmentID uuid.UUID, status domain.AppointmentStatus) (domain.Appointment, error) {
	var m domain.Appointment
	res, err := t.tx.NewUpdate().
		Model(&m).
		Set("status = ?", string(status)).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", appointmentID).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return domain.Appointment{}, translateError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Appointment{}, err
	}
	if affected == 0 {
		return domain.Appointment{}, store.ErrNotFound
	}
	return m, nil
}

func (t providerTx) CreateAvailabilitySlot(ctx context.Context, slot domain.AvailabilitySlot) (domain.AvailabilitySlot, error) {
	m := domain.AvailabilitySlot{
		ID:         slot.ID,
		ProviderID: slot.ProviderID,
		DayOfWeek:  slot.DayOfWeek,
		StartTime:  slot.StartTime,
		EndTime:    slot.EndTime,
		IsActive:   slot.IsActive,
		CreatedAt:  slot.CreatedAt,
	}

	if _, err := t.tx.NewInsert().Model(&m).Exec(ctx); err != nil {
		return domain.AvailabilitySlot{}, translateError(err)
	}
	return m, nil
}

func (t providerTx) BlockDate(ctx context.Context, blocked domain.BlockedDate) (domain.BlockedDate, bool, error) {
	m := domain.BlockedDate{
		ID:          blocked.ID,
		ProviderID:  blocked.ProviderID,
		BlockedDate: blocked.BlockedDate,
		Reason:      blocked.Reason,
		CreatedAt:   blocked.CreatedAt,
	}

	res, err := t.tx.NewInsert().
		Model(&m).
		On("CONFLICT (provider_id, blocked_date) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return domain.BlockedDate{}, false, translateError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.BlockedDate{}, false, err
	}
	if affected > 0 {
		return m, true, nil
	}

	var existing domain.BlockedDate
	err = t.tx.NewSelect().
		Model(&existing).
		Where("provider_id = ?", blocked.ProviderID).
		Where("blocked_date = ?", blocked.BlockedDate).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return domain.BlockedDate{}, false, translateError(err)
	}
	return existing, false, nil
}

func translateError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case "23505":
		switch pgErr.ConstraintName {
		case constraintAppointmentsActiveSlot:
			return store.ErrSlotTaken
		case constraintAppointmentsPkey:
			return store.ErrIdempotencyConflict
		}
		return store.ErrConflict
	case "23P01":
		if pgErr.ConstraintName == constraintAvailabilityNoOverlap {
			return store.ErrWindowOverlap
		}
		return store.ErrConflict
	case "23503":
		return store.ErrNotFound
	}
	return err
}
