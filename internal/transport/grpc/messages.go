package grpc

import "bookly/backend/internal/transport/wire"

type ListProvidersRequest struct {
	Type string `json:"type,omitempty"`
}

type ListProvidersResponse struct {
	Providers []wire.Provider `json:"providers"`
}

type ListProviderServicesRequest struct {
	ProviderID string `json:"provider_id"`
}

type ListProviderServicesResponse struct {
	Services []wire.Service `json:"services"`
}

type ProviderAvailableSlotsRequest struct {
	ProviderID string `json:"provider_id"`
	Date       string `json:"date"`
}

type ProviderAvailableSlotsResponse struct {
	Slots []string `json:"slots"`
}

type CreateBookingRequest struct {
	ProviderID string `json:"provider_id"`
	ServiceID  string `json:"service_id"`
	Date       string `json:"date"`
	Time       string `json:"time"`
	Notes      string `json:"notes,omitempty"`
}

type BookingResponse struct {
	Appointment wire.Appointment `json:"appointment"`
}

type ListBookingsRequest struct{}

type ListBookingsResponse struct {
	Appointments []wire.Appointment `json:"appointments"`
}

type CancelBookingRequest struct {
	AppointmentID string `json:"appointment_id"`
}

type UpdateBookingStatusRequest struct {
	AppointmentID string `json:"appointment_id"`
	Status        string `json:"status"`
}

type AddAvailabilitySlotRequest struct {
	DayOfWeek int    `json:"day_of_week"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type AvailabilitySlotResponse struct {
	Slot wire.AvailabilitySlot `json:"slot"`
}

type ListAvailabilityRequest struct{}

type ListAvailabilityResponse struct {
	Slots []wire.AvailabilitySlot `json:"slots"`
}

type BlockDateRequest struct {
	Date   string `json:"date"`
	Reason string `json:"reason,omitempty"`
}

type BlockDateResponse struct {
	BlockedDate wire.BlockedDate `json:"blocked_date"`
	Created     bool             `json:"created"`
}

type ListBlockedDatesRequest struct{}

type ListBlockedDatesResponse struct {
	BlockedDates []wire.BlockedDate `json:"blocked_dates"`
}
