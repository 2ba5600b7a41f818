// Package wire holds the JSON shapes shared by the gRPC and REST transports.
package wire

import (
	"time"

	"github.com/shopspring/decimal"

	"bookly/backend/internal/domain"
)

type Provider struct {
	ID           string `json:"id"`
	UserID       string `json:"user_id"`
	ProviderType string `json:"provider_type"`
	DisplayName  string `json:"display_name"`
	Bio          string `json:"bio,omitempty"`
}

// Service carries Price as a fixed two-decimal string.
type Service struct {
	ID          string `json:"id"`
	ProviderID  string `json:"provider_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Price       string `json:"price"`
}

type AvailabilitySlot struct {
	ID         string    `json:"id"`
	ProviderID string    `json:"provider_id"`
	DayOfWeek  int       `json:"day_of_week"`
	StartTime  string    `json:"start_time"`
	EndTime    string    `json:"end_time"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
}

type BlockedDate struct {
	ID          string    `json:"id"`
	ProviderID  string    `json:"provider_id"`
	BlockedDate string    `json:"blocked_date"`
	Reason      *string   `json:"reason"`
	CreatedAt   time.Time `json:"created_at"`
}

type Appointment struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	ProviderID      string    `json:"provider_id"`
	ServiceID       string    `json:"service_id"`
	AppointmentDate string    `json:"appointment_date"`
	AppointmentTime string    `json:"appointment_time"`
	Status          string    `json:"status"`
	Notes           string    `json:"notes,omitempty"`
	ProviderName    string    `json:"provider_name,omitempty"`
	ProviderType    string    `json:"provider_type,omitempty"`
	ServiceName     string    `json:"service_name,omitempty"`
	Price           string    `json:"price,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func FromProvider(p domain.Provider) Provider {
	return Provider{
		ID:           p.ID.String(),
		UserID:       p.UserID,
		ProviderType: string(p.ProviderType),
		DisplayName:  p.DisplayName,
		Bio:          p.Bio,
	}
}

func FromProviders(rows []domain.Provider) []Provider {
	out := make([]Provider, 0, len(rows))
	for _, p := range rows {
		out = append(out, FromProvider(p))
	}
	return out
}

func FromServices(rows []domain.Service) []Service {
	out := make([]Service, 0, len(rows))
	for _, s := range rows {
		out = append(out, Service{
			ID:          s.ID.String(),
			ProviderID:  s.ProviderID.String(),
			Name:        s.Name,
			Description: s.Description,
			Price:       formatPrice(s.Price),
		})
	}
	return out
}

func FromAvailabilitySlot(s domain.AvailabilitySlot) AvailabilitySlot {
	return AvailabilitySlot{
		ID:         s.ID.String(),
		ProviderID: s.ProviderID.String(),
		DayOfWeek:  int(s.DayOfWeek),
		StartTime:  s.StartTime.String(),
		EndTime:    s.EndTime.String(),
		IsActive:   s.IsActive,
		CreatedAt:  s.CreatedAt.UTC(),
	}
}

func FromAvailabilitySlots(rows []domain.AvailabilitySlot) []AvailabilitySlot {
	out := make([]AvailabilitySlot, 0, len(rows))
	for _, s := range rows {
		out = append(out, FromAvailabilitySlot(s))
	}
	return out
}

func FromBlockedDate(b domain.BlockedDate) BlockedDate {
	return BlockedDate{
		ID:          b.ID.String(),
		ProviderID:  b.ProviderID.String(),
		BlockedDate: b.BlockedDate.String(),
		Reason:      b.Reason,
		CreatedAt:   b.CreatedAt.UTC(),
	}
}

func FromBlockedDates(rows []domain.BlockedDate) []BlockedDate {
	out := make([]BlockedDate, 0, len(rows))
	for _, b := range rows {
		out = append(out, FromBlockedDate(b))
	}
	return out
}

func FromAppointment(a domain.Appointment) Appointment {
	return Appointment{
		ID:              a.ID.String(),
		UserID:          a.UserID,
		ProviderID:      a.ProviderID.String(),
		ServiceID:       a.ServiceID.String(),
		AppointmentDate: a.AppointmentDate.String(),
		AppointmentTime: a.AppointmentTime.String(),
		Status:          string(a.Status),
		Notes:           a.Notes,
		CreatedAt:       a.CreatedAt.UTC(),
		UpdatedAt:       a.UpdatedAt.UTC(),
	}
}

func FromAppointmentViews(rows []domain.AppointmentView) []Appointment {
	out := make([]Appointment, 0, len(rows))
	for _, v := range rows {
		a := FromAppointment(v.Appointment)
		a.ProviderName = v.ProviderName
		a.ProviderType = string(v.ProviderType)
		a.ServiceName = v.ServiceName
		a.Price = formatPrice(v.ServicePrice)
		out = append(out, a)
	}
	return out
}

func formatPrice(d decimal.Decimal) string {
	return d.StringFixed(2)
}
