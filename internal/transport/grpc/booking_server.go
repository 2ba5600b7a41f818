package grpc

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"bookly/backend/internal/auth"
	"bookly/backend/internal/domain"
	"bookly/backend/internal/service/booking"
	"bookly/backend/internal/transport/wire"
)

type BookingServer struct {
	svc bookingService
	log *slog.Logger
}

var _ BookingServiceServer = (*BookingServer)(nil)

type bookingService interface {
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

func NewBookingServer(svc bookingService, log *slog.Logger) *BookingServer {
	if log == nil {
		log = slog.Default()
	}
	return &BookingServer{
		svc: svc,
		log: log.With(slog.String("component", "grpc.booking")),
	}
}

func (s *BookingServer) ListProviders(ctx context.Context, req *ListProvidersRequest) (*ListProvidersResponse, error) {
	log := s.log.With(slog.String("rpc", "ListProviders"))
	if req == nil {
		req = &ListProvidersRequest{}
	}

	rows, err := s.svc.ListProviders(ctx, req.Type)
	if err != nil {
		return nil, statusError(log, err)
	}

	log.Debug("providers listed", slog.String("type", req.Type), slog.Int("count", len(rows)))
	return &ListProvidersResponse{Providers: wire.FromProviders(rows)}, nil
}

func (s *BookingServer) ListProviderServices(ctx context.Context, req *ListProviderServicesRequest) (*ListProviderServicesResponse, error) {
	log := s.log.With(slog.String("rpc", "ListProviderServices"))
	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	providerID, err := parseID(req.ProviderID, "provider_id")
	if err != nil {
		log.Warn("invalid request", slog.String("reason", "invalid_uuid"))
		return nil, err
	}

	rows, err := s.svc.ListProviderServices(ctx, providerID)
	if err != nil {
		return nil, statusError(log.With(slog.String("provider_id", req.ProviderID)), err)
	}
	return &ListProviderServicesResponse{Services: wire.FromServices(rows)}, nil
}

func (s *BookingServer) ProviderAvailableSlots(ctx context.Context, req *ProviderAvailableSlotsRequest) (*ProviderAvailableSlotsResponse, error) {
	log := s.log.With(slog.String("rpc", "ProviderAvailableSlots"))
	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	providerID, err := parseID(req.ProviderID, "provider_id")
	if err != nil {
		log.Warn("invalid request", slog.String("reason", "invalid_uuid"))
		return nil, err
	}

	slots, err := s.svc.ResolveAvailableSlots(ctx, providerID, req.Date)
	if err != nil {
		return nil, statusError(log.With(slog.String("provider_id", req.ProviderID), slog.String("date", req.Date)), err)
	}

	log.Debug("slots resolved",
		slog.String("provider_id", req.ProviderID),
		slog.String("date", req.Date),
		slog.Int("count", len(slots)),
	)
	return &ProviderAvailableSlotsResponse{Slots: slots}, nil
}

func (s *BookingServer) CreateBooking(ctx context.Context, req *CreateBookingRequest) (*BookingResponse, error) {
	log := s.log.With(slog.String("rpc", "CreateBooking"))
	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	caller, err := auth.Require(ctx)
	if err != nil {
		return nil, statusError(log, err)
	}
	log = log.With(slog.String("user_id", caller.UserID))

	providerID, err := parseID(req.ProviderID, "provider_id")
	if err != nil {
		log.Warn("invalid request", slog.String("reason", "invalid_uuid"))
		return nil, err
	}
	serviceID, err := parseID(req.ServiceID, "service_id")
	if err != nil {
		log.Warn("invalid request", slog.String("reason", "invalid_uuid"))
		return nil, err
	}

	appt, err := s.svc.CreateBooking(ctx, caller, booking.CreateBookingInput{
		ProviderID:     providerID,
		ServiceID:      serviceID,
		Date:           req.Date,
		Time:           req.Time,
		Notes:          req.Notes,
		IdempotencyKey: idempotencyKey(ctx),
	})
	if err != nil {
		return nil, statusError(log.With(
			slog.String("provider_id", req.ProviderID),
			slog.String("date", req.Date),
			slog.String("time", req.Time),
		), err)
	}

	log.Info("booking created",
		slog.String("appointment_id", appt.ID.String()),
		slog.String("provider_id", appt.ProviderID.String()),
		slog.String("date", appt.AppointmentDate.String()),
		slog.String("time", appt.AppointmentTime.String()),
	)
	return &BookingResponse{Appointment: wire.FromAppointment(appt)}, nil
}

func (s *BookingServer) ListMyBookings(ctx context.Context, req *ListBookingsRequest) (*ListBookingsResponse, error) {
	log := s.log.With(slog.String("rpc", "ListMyBookings"))
	caller, err := auth.Require(ctx)
	if err != nil {
		return nil, statusError(log, err)
	}

	rows, err := s.svc.ListMyBookings(ctx, caller)
	if err != nil {
		return nil, statusError(log.With(slog.String("user_id", caller.UserID)), err)
	}

	log.Debug("bookings listed", slog.String("user_id", caller.UserID), slog.Int("count", len(rows)))
	return &ListBookingsResponse{Appointments: wire.FromAppointmentViews(rows)}, nil
}

func (s *BookingServer) CancelBooking(ctx context.Context, req *CancelBookingRequest) (*BookingResponse, error) {
	log := s.log.With(slog.String("rpc", "CancelBooking"))
	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	caller, err := auth.Require(ctx)
	if err != nil {
		return nil, statusError(log, err)
	}
	id, err := parseID(req.AppointmentID, "appointment_id")
	if err != nil {
		log.Warn("invalid request", slog.String("reason", "invalid_uuid"), slog.String("user_id", caller.UserID))
		return nil, err
	}

	appt, err := s.svc.CancelBooking(ctx, caller, id)
	if err != nil {
		return nil, statusError(log.With(slog.String("appointment_id", id.String()), slog.String("user_id", caller.UserID)), err)
	}

	log.Info("booking cancelled", slog.String("appointment_id", id.String()), slog.String("user_id", caller.UserID))
	return &BookingResponse{Appointment: wire.FromAppointment(appt)}, nil
}

func (s *BookingServer) ListProviderBookings(ctx context.Context, req *ListBookingsRequest) (*ListBookingsResponse, error) {
	log := s.log.With(slog.String("rpc", "ListProviderBookings"))
	caller, err := auth.Require(ctx)
	if err != nil {
		return nil, statusError(log, err)
	}

	rows, err := s.svc.ListProviderBookings(ctx, caller)
	if err != nil {
		return nil, statusError(log.With(slog.String("user_id", caller.UserID)), err)
	}
	return &ListBookingsResponse{Appointments: wire.FromAppointmentViews(rows)}, nil
}

func (s *BookingServer) UpdateBookingStatus(ctx context.Context, req *UpdateBookingStatusRequest) (*BookingResponse, error) {
	log := s.log.With(slog.String("rpc", "UpdateBookingStatus"))
	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	caller, err := auth.Require(ctx)
	if err != nil {
		return nil, statusError(log, err)
	}
	id, err := parseID(req.AppointmentID, "appointment_id")
	if err != nil {
		log.Warn("invalid request", slog.String("reason", "invalid_uuid"), slog.String("user_id", caller.UserID))
		return nil, err
	}

	appt, err := s.svc.UpdateBookingStatus(ctx, caller, id, req.Status)
	if err != nil {
		return nil, statusError(log.With(slog.String("appointment_id", id.String()), slog.String("status", req.Status)), err)
	}

	log.Info("booking status updated", slog.String("appointment_id", id.String()), slog.String("status", string(appt.Status)))
	return &BookingResponse{Appointment: wire.FromAppointment(appt)}, nil
}

func (s *BookingServer) AddAvailabilitySlot(ctx context.Context, req *AddAvailabilitySlotRequest) (*AvailabilitySlotResponse, error) {
	log := s.log.With(slog.String("rpc", "AddAvailabilitySlot"))
	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	caller, err := auth.Require(ctx)
	if err != nil {
		return nil, statusError(log, err)
	}

	slot, err := s.svc.AddAvailabilitySlot(ctx, caller, booking.AddAvailabilityInput{
		DayOfWeek: req.DayOfWeek,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	})
	if err != nil {
		return nil, statusError(log.With(slog.String("user_id", caller.UserID), slog.Int("day_of_week", req.DayOfWeek)), err)
	}

	log.Info("availability slot added",
		slog.String("slot_id", slot.ID.String()),
		slog.String("provider_id", slot.ProviderID.String()),
		slog.Int("day_of_week", int(slot.DayOfWeek)),
	)
	return &AvailabilitySlotResponse{Slot: wire.FromAvailabilitySlot(slot)}, nil
}

func (s *BookingServer) ListMyAvailability(ctx context.Context, req *ListAvailabilityRequest) (*ListAvailabilityResponse, error) {
	log := s.log.With(slog.String("rpc", "ListMyAvailability"))
	caller, err := auth.Require(ctx)
	if err != nil {
		return nil, statusError(log, err)
	}

	rows, err := s.svc.ListMyAvailability(ctx, caller)
	if err != nil {
		return nil, statusError(log.With(slog.String("user_id", caller.UserID)), err)
	}
	return &ListAvailabilityResponse{Slots: wire.FromAvailabilitySlots(rows)}, nil
}

func (s *BookingServer) BlockDate(ctx context.Context, req *BlockDateRequest) (*BlockDateResponse, error) {
	log := s.log.With(slog.String("rpc", "BlockDate"))
	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	caller, err := auth.Require(ctx)
	if err != nil {
		return nil, statusError(log, err)
	}

	blocked, created, err := s.svc.BlockDate(ctx, caller, booking.BlockDateInput{Date: req.Date, Reason: req.Reason})
	if err != nil {
		return nil, statusError(log.With(slog.String("user_id", caller.UserID), slog.String("date", req.Date)), err)
	}

	log.Info("date blocked",
		slog.String("provider_id", blocked.ProviderID.String()),
		slog.String("date", blocked.BlockedDate.String()),
		slog.Bool("created", created),
	)
	return &BlockDateResponse{BlockedDate: wire.FromBlockedDate(blocked), Created: created}, nil
}

func (s *BookingServer) ListMyBlockedDates(ctx context.Context, req *ListBlockedDatesRequest) (*ListBlockedDatesResponse, error) {
	log := s.log.With(slog.String("rpc", "ListMyBlockedDates"))
	caller, err := auth.Require(ctx)
	if err != nil {
		return nil, statusError(log, err)
	}

	rows, err := s.svc.ListMyBlockedDates(ctx, caller)
	if err != nil {
		return nil, statusError(log.With(slog.String("user_id", caller.UserID)), err)
	}
	return &ListBlockedDatesResponse{BlockedDates: wire.FromBlockedDates(rows)}, nil
}

func parseID(raw, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, status.Error(codes.InvalidArgument, field+" must be a UUID")
	}
	return id, nil
}
