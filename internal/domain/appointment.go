package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
)

func ParseAppointmentStatus(s string) (AppointmentStatus, bool) {
	status := AppointmentStatus(s)
	switch status {
	case AppointmentStatusPending, AppointmentStatusConfirmed, AppointmentStatusCancelled, AppointmentStatusCompleted:
		return status, true
	}
	return "", false
}

var appointmentTransitions = map[AppointmentStatus][]AppointmentStatus{
	AppointmentStatusPending:   {AppointmentStatusConfirmed, AppointmentStatusCancelled},
	AppointmentStatusConfirmed: {AppointmentStatusCompleted, AppointmentStatusCancelled},
}

func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	for _, allowed := range appointmentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s AppointmentStatus) Terminal() bool {
	return len(appointmentTransitions[s]) == 0
}

// Occupies reports whether an appointment in this status holds its
// (provider, date, time) slot.
func (s AppointmentStatus) Occupies() bool {
	return s != AppointmentStatusCancelled
}

type Appointment struct {
	bun.BaseModel `bun:"table:appointments"`

	ID              uuid.UUID         `bun:"id,pk,type:uuid"`
	UserID          string            `bun:"user_id,notnull"`
	ProviderID      uuid.UUID         `bun:"provider_id,notnull,type:uuid"`
	ServiceID       uuid.UUID         `bun:"service_id,notnull,type:uuid"`
	AppointmentDate Date              `bun:"appointment_date,notnull,type:date"`
	AppointmentTime TimeOfDay         `bun:"appointment_time,notnull,type:time"`
	Status          AppointmentStatus `bun:"status,notnull"`
	Notes           string            `bun:"notes"`
	CreatedAt       time.Time         `bun:"created_at,notnull"`
	UpdatedAt       time.Time         `bun:"updated_at,notnull"`
}

func (a *Appointment) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	return stampModel(query, &a.ID, &a.CreatedAt, &a.UpdatedAt)
}

// AppointmentView is an appointment joined with the provider and service
// details a listing shows.
type AppointmentView struct {
	Appointment

	ProviderName string          `bun:"provider_name"`
	ProviderType ProviderType    `bun:"provider_type"`
	ServiceName  string          `bun:"service_name"`
	ServicePrice decimal.Decimal `bun:"service_price"`
}

// SameRequest reports whether two appointments were created from the same
// booking request.
func (a Appointment) SameRequest(b Appointment) bool {
	return a.UserID == b.UserID &&
		a.ProviderID == b.ProviderID &&
		a.ServiceID == b.ServiceID &&
		a.AppointmentDate == b.AppointmentDate &&
		a.AppointmentTime == b.AppointmentTime &&
		a.Notes == b.Notes
}
