package rest

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"bookly/backend/internal/auth"
	"bookly/backend/internal/domain"
	"bookly/backend/internal/service/booking"
	"bookly/backend/internal/transport/wire"
)

type bookingService interface {
	Ping(ctx context.Context) error
	ListProviders(ctx context.Context, providerType string) ([]domain.Provider, error)
	ListProviderServices(ctx context.Context, providerID uuid.UUID) ([]domain.Service, error)
	ResolveAvailableSlots(ctx context.Context, providerID uuid.UUID, date string) ([]string, error)
	CreateBooking(ctx context.Context, caller auth.Identity, in booking.CreateBookingInput) (domain.Appointment, error)
	ListMyBookings(ctx context.Context, caller auth.Identity) ([]domain.AppointmentView, error)
	CancelBooking(ctx context.Context, caller auth.Identity, appointmentID uuid.UUID) (domain.Appointment, error)
	ListProviderBookings(ctx context.Context, caller auth.Identity) ([]domain.AppointmentView, error)
	UpdateBookingStatus(ctx context.Context, caller auth.Identity, appointmentID uuid.UUID, status string) (domain.Appointment, error)
	AddAvailabilitySlot(ctx context.Context, caller auth.Identity, in booking.AddAvailabilityInput) (domain.AvailabilitySlot, error)
	ListMyAvailability(ctx context.Context, caller auth.Identity) ([]domain.AvailabilitySlot, error)
	BlockDate(ctx context.Context, caller auth.Identity, in booking.BlockDateInput) (domain.BlockedDate, bool, error)
	ListMyBlockedDates(ctx context.Context, caller auth.Identity) ([]domain.BlockedDate, error)
}

type Handler struct {
	svc bookingService
	log *slog.Logger
}

func NewHandler(svc bookingService, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		svc: svc,
		log: log.With(slog.String("component", "rest.booking")),
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Ping(r.Context()); err != nil {
		h.log.Error("health check failed", slog.Any("err", err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "error", "database": "unreachable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "database": "connected"})
}

func (h *Handler) ListProviders(w http.ResponseWriter, r *http.Request) {
	rows, err := h.svc.ListProviders(r.Context(), r.URL.Query().Get("type"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, wire.FromProviders(rows))
}

func (h *Handler) ListProviderServices(w http.ResponseWriter, r *http.Request) {
	providerID, ok := h.pathID(w, r, "providerID", "provider_id")
	if !ok {
		return
	}
	rows, err := h.svc.ListProviderServices(r.Context(), providerID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, wire.FromServices(rows))
}

func (h *Handler) ProviderSlots(w http.ResponseWriter, r *http.Request) {
	providerID, ok := h.pathID(w, r, "providerID", "provider_id")
	if !ok {
		return
	}
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if date == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "date query parameter required"})
		return
	}

	slots, err := h.svc.ResolveAvailableSlots(r.Context(), providerID, date)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, slots)
}

type createBookingBody struct {
	ProviderID      string `json:"provider_id"`
	ServiceID       string `json:"service_id"`
	AppointmentDate string `json:"appointment_date"`
	AppointmentTime string `json:"appointment_time"`
	Notes           string `json:"notes"`
}

func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var body createBookingBody
	if !h.decode(w, r, &body) {
		return
	}
	providerID, err := uuid.Parse(body.ProviderID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "provider_id must be a UUID"})
		return
	}
	serviceID, err := uuid.Parse(body.ServiceID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "service_id must be a UUID"})
		return
	}

	appt, err := h.svc.CreateBooking(r.Context(), caller, booking.CreateBookingInput{
		ProviderID:     providerID,
		ServiceID:      serviceID,
		Date:           body.AppointmentDate,
		Time:           body.AppointmentTime,
		Notes:          body.Notes,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	})
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, wire.FromAppointment(appt))
}

func (h *Handler) ListMyBookings(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	rows, err := h.svc.ListMyBookings(r.Context(), caller)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, wire.FromAppointmentViews(rows))
}

func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "bookingID", "booking id")
	if !ok {
		return
	}
	appt, err := h.svc.CancelBooking(r.Context(), caller, id)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, wire.FromAppointment(appt))
}

func (h *Handler) ListProviderBookings(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	rows, err := h.svc.ListProviderBookings(r.Context(), caller)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, wire.FromAppointmentViews(rows))
}

type updateStatusBody struct {
	Status string `json:"status"`
}

func (h *Handler) UpdateBookingStatus(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "bookingID", "booking id")
	if !ok {
		return
	}
	var body updateStatusBody
	if !h.decode(w, r, &body) {
		return
	}
	appt, err := h.svc.UpdateBookingStatus(r.Context(), caller, id, body.Status)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, wire.FromAppointment(appt))
}

type addAvailabilityBody struct {
	DayOfWeek *int   `json:"day_of_week"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

func (h *Handler) AddAvailability(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var body addAvailabilityBody
	if !h.decode(w, r, &body) {
		return
	}
	if body.DayOfWeek == nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "day_of_week is required"})
		return
	}
	slot, err := h.svc.AddAvailabilitySlot(r.Context(), caller, booking.AddAvailabilityInput{
		DayOfWeek: *body.DayOfWeek,
		StartTime: body.StartTime,
		EndTime:   body.EndTime,
	})
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, wire.FromAvailabilitySlot(slot))
}

func (h *Handler) ListAvailability(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	rows, err := h.svc.ListMyAvailability(r.Context(), caller)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, wire.FromAvailabilitySlots(rows))
}

type blockDateBody struct {
	BlockedDate string `json:"blocked_date"`
	Reason      string `json:"reason"`
}

// BlockDate answers 201 for a new block and 200 with the stored row when the
// date was already blocked.
func (h *Handler) BlockDate(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var body blockDateBody
	if !h.decode(w, r, &body) {
		return
	}
	blocked, created, err := h.svc.BlockDate(r.Context(), caller, booking.BlockDateInput{
		Date:   body.BlockedDate,
		Reason: body.Reason,
	})
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, wire.FromBlockedDate(blocked))
}

func (h *Handler) ListBlockedDates(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	rows, err := h.svc.ListMyBlockedDates(r.Context(), caller)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, wire.FromBlockedDates(rows))
}

func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	id, err := auth.Require(r.Context())
	if err != nil {
		writeError(w, r, h.log, err)
		return auth.Identity{}, false
	}
	return id, true
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, param, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil || id == uuid.Nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: label + " must be a UUID"})
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := decodeJSON(w, r, dst); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, errBodyTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		writeJSON(w, status, errorBody{Error: err.Error()})
		return false
	}
	return true
}
