package grpc

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"bookly/backend/internal/auth"
	"bookly/backend/internal/domain"
	"bookly/backend/internal/service/booking"
)

type fakeBookingService struct {
	listProvidersFn func(ctx context.Context, providerType string) ([]domain.Provider, error)
	listServicesFn  func(ctx context.Context, providerID uuid.UUID) ([]domain.Service, error)
	resolveFn       func(ctx context.Context, providerID uuid.UUID, date string) ([]string, error)
	createFn        func(ctx context.Context, caller auth.Identity, in booking.CreateBookingInput) (domain.Appointment, error)
	listMineFn      func(ctx context.Context, caller auth.Identity) ([]domain.AppointmentView, error)
	cancelFn        func(ctx context.Context, caller auth.Identity, id uuid.UUID) (domain.Appointment, error)
	listProviderFn  func(ctx context.Context, caller auth.Identity) ([]domain.AppointmentView, error)
	updateStatusFn  func(ctx context.Context, caller auth.Identity, id uuid.UUID, status string) (domain.Appointment, error)
	addSlotFn       func(ctx context.Context, caller auth.Identity, in booking.AddAvailabilityInput) (domain.AvailabilitySlot, error)
	listSlotsFn     func(ctx context.Context, caller auth.Identity) ([]domain.AvailabilitySlot, error)
	blockDateFn     func(ctx context.Context, caller auth.Identity, in booking.BlockDateInput) (domain.BlockedDate, bool, error)
	listBlockedFn   func(ctx context.Context, caller auth.Identity) ([]domain.BlockedDate, error)
}

func (f *fakeBookingService) ListProviders(ctx context.Context, providerType string) ([]domain.Provider, error) {
	if f.listProvidersFn == nil {
		panic("ListProviders not configured")
	}
	return f.listProvidersFn(ctx, providerType)
}

func (f *fakeBookingService) ListProviderServices(ctx context.Context, providerID uuid.UUID) ([]domain.Service, error) {
	if f.listServicesFn == nil {
		panic("ListProviderServices not configured")
	}
	return f.listServicesFn(ctx, providerID)
}

func (f *fakeBookingService) ResolveAvailableSlots(ctx context.Context, providerID uuid.UUID, date string) ([]string, error) {
	if f.resolveFn == nil {
		panic("ResolveAvailableSlots not configured")
	}
	return f.resolveFn(ctx, providerID, date)
}

func (f *fakeBookingService) CreateBooking(ctx context.Context, caller auth.Identity, in booking.CreateBookingInput) (domain.Appointment, error) {
	if f.createFn == nil {
		panic("CreateBooking not configured")
	}
	return f.createFn(ctx, caller, in)
}

func (f *fakeBookingService) ListMyBookings(ctx context.Context, caller auth.Identity) ([]domain.AppointmentView, error) {
	if f.listMineFn == nil {
		panic("ListMyBookings not configured")
	}
	return f.listMineFn(ctx, caller)
}

func (f *fakeBookingService) CancelBooking(ctx context.Context, caller auth.Identity, id uuid.UUID) (domain.Appointment, error) {
	if f.cancelFn == nil {
		panic("CancelBooking not configured")
	}
	return f.cancelFn(ctx, caller, id)
}

func (f *fakeBookingService) ListProviderBookings(ctx context.Context, caller auth.Identity) ([]domain.AppointmentView, error) {
	if f.listProviderFn == nil {
		panic("ListProviderBookings not configured")
	}
	return f.listProviderFn(ctx, caller)
}

func (f *fakeBookingService) UpdateBookingStatus(ctx context.Context, caller auth.Identity, id uuid.UUID, status string) (domain.Appointment, error) {
	if f.updateStatusFn == nil {
		panic("UpdateBookingStatus not configured")
	}
	return f.updateStatusFn(ctx, caller, id, status)
}

func (f *fakeBookingService) AddAvailabilitySlot(ctx context.Context, caller auth.Identity, in booking.AddAvailabilityInput) (domain.AvailabilitySlot, error) {
	if f.addSlotFn == nil {
		panic("AddAvailabilitySlot not configured")
	}
	return f.addSlotFn(ctx, caller, in)
}

func (f *fakeBookingService) ListMyAvailability(ctx context.Context, caller auth.Identity) ([]domain.AvailabilitySlot, error) {
	if f.listSlotsFn == nil {
		panic("ListMyAvailability not configured")
	}
	return f.listSlotsFn(ctx, caller)
}

func (f *fakeBookingService) BlockDate(ctx context.Context, caller auth.Identity, in booking.BlockDateInput) (domain.BlockedDate, bool, error) {
	if f.blockDateFn == nil {
		panic("BlockDate not configured")
	}
	return f.blockDateFn(ctx, caller, in)
}

func (f *fakeBookingService) ListMyBlockedDates(ctx context.Context, caller auth.Identity) ([]domain.BlockedDate, error) {
	if f.listBlockedFn == nil {
		panic("ListMyBlockedDates not configured")
	}
	return f.listBlockedFn(ctx, caller)
}

var testUser = auth.Identity{UserID: "u1", Role: auth.RoleUser}

func TestIdempotencyKey_ReadsHeadersAndTrims(t *testing.T) {
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("idempotency-key", "  abc  "))
	if got := idempotencyKey(ctx); got != "abc" {
		t.Fatalf("idempotencyKey = %q, want %q", got, "abc")
	}

	ctx = metadata.NewIncomingContext(context.Background(), metadata.Pairs("x-idempotency-key", "xyz"))
	if got := idempotencyKey(ctx); got != "xyz" {
		t.Fatalf("idempotencyKey = %q, want %q", got, "xyz")
	}

	if got := idempotencyKey(context.Background()); got != "" {
		t.Fatalf("idempotencyKey without metadata = %q, want empty", got)
	}
}

func TestCreateBooking_RequiresIdentity(t *testing.T) {
	srv := NewBookingServer(&fakeBookingService{}, slog.Default())

	_, err := srv.CreateBooking(context.Background(), &CreateBookingRequest{
		ProviderID: uuid.NewString(),
		ServiceID:  uuid.NewString(),
		Date:       "2024-01-08",
		Time:       "09:00",
	})
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("code = %s, want %s", status.Code(err), codes.Unauthenticated)
	}
}

func TestCreateBooking_RejectsMalformedIDs(t *testing.T) {
	srv := NewBookingServer(&fakeBookingService{}, slog.Default())
	ctx := auth.WithIdentity(context.Background(), testUser)

	_, err := srv.CreateBooking(ctx, &CreateBookingRequest{ProviderID: "p1", ServiceID: uuid.NewString()})
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("code = %s, want %s", status.Code(err), codes.InvalidArgument)
	}
}

func TestCreateBooking_PassesIdempotencyKeyAndCaller(t *testing.T) {
	var (
		gotKey    string
		gotCaller auth.Identity
	)
	providerID := uuid.New()

	srv := NewBookingServer(&fakeBookingService{
		createFn: func(ctx context.Context, caller auth.Identity, in booking.CreateBookingInput) (domain.Appointment, error) {
			gotKey = in.IdempotencyKey
			gotCaller = caller
			return domain.Appointment{
				ID:              uuid.MustParse("00000000-0000-0000-0000-000000000010"),
				ProviderID:      in.ProviderID,
				AppointmentDate: domain.Date{Year: 2024, Month: time.January, Day: 8},
				AppointmentTime: domain.NewTimeOfDay(9, 0),
				Status:          domain.AppointmentStatusPending,
			}, nil
		},
	}, slog.Default())

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("idempotency-key", "k1"))
	ctx = auth.WithIdentity(ctx, testUser)

	resp, err := srv.CreateBooking(ctx, &CreateBookingRequest{
		ProviderID: providerID.String(),
		ServiceID:  uuid.NewString(),
		Date:       "2024-01-08",
		Time:       "09:00",
	})
	if err != nil {
		t.Fatalf("CreateBooking error: %v", err)
	}
	if gotKey != "k1" {
		t.Fatalf("idempotency_key = %q, want %q", gotKey, "k1")
	}
	if gotCaller != testUser {
		t.Fatalf("caller = %+v, want %+v", gotCaller, testUser)
	}
	if resp.Appointment.AppointmentTime != "09:00" || resp.Appointment.AppointmentDate != "2024-01-08" || resp.Appointment.Status != "pending" {
		t.Fatalf("appointment = %+v", resp.Appointment)
	}
}

func TestStatusError_Mapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want codes.Code
	}{
		{name: "unauthenticated", err: auth.ErrUnauthenticated, want: codes.Unauthenticated},
		{name: "not found", err: &booking.NotFoundError{Resource: "service"}, want: codes.NotFound},
		{name: "conflict", err: &booking.ConflictError{Reason: booking.ReasonAlreadyBooked}, want: codes.FailedPrecondition},
		{name: "storage", err: &booking.StorageError{Op: "create", Err: errors.New("pq: boom")}, want: codes.Internal},
		{name: "deadline", err: &booking.StorageError{Op: "create", Err: context.DeadlineExceeded}, want: codes.DeadlineExceeded},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := statusError(slog.Default(), tc.err)
			if status.Code(err) != tc.want {
				t.Fatalf("code = %s, want %s", status.Code(err), tc.want)
			}
		})
	}

	err := statusError(slog.Default(), &booking.StorageError{Op: "create", Err: errors.New("pq: secret detail")})
	if st, _ := status.FromError(err); st.Message() != "internal error" {
		t.Fatalf("message = %q, want generic", st.Message())
	}
}

func TestConflictReason_RoundTrip(t *testing.T) {
	err := statusError(slog.Default(), &booking.ConflictError{Reason: booking.ReasonDateBlocked})
	reason, ok := ConflictReason(err)
	if !ok || reason != booking.ReasonDateBlocked {
		t.Fatalf("reason = %q ok=%v, want %q", reason, ok, booking.ReasonDateBlocked)
	}

	if _, ok := ConflictReason(status.Error(codes.NotFound, "x")); ok {
		t.Fatalf("reason found on non-conflict status")
	}
}

type staticVerifier map[string]auth.Identity

func (v staticVerifier) Verify(token string) (auth.Identity, error) {
	id, ok := v[token]
	if !ok {
		return auth.Identity{}, errors.New("unknown token")
	}
	return id, nil
}

func dialBufconn(t *testing.T, svc bookingService) *grpc.ClientConn {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	server := grpc.NewServer(
		grpc.ForceServerCodec(Codec{}),
		grpc.ChainUnaryInterceptor(
			RequestTimeoutInterceptor(5*time.Second),
			AuthInterceptor(staticVerifier{"good": testUser}, slog.Default()),
		),
	)
	RegisterBookingServiceServer(server, NewBookingServer(svc, slog.Default()))
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(server, healthSrv)

	go func() { _ = server.Serve(lis) }()
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestServer_EndToEndOverJSONCodec(t *testing.T) {
	providerID := uuid.New()
	conn := dialBufconn(t, &fakeBookingService{
		resolveFn: func(ctx context.Context, id uuid.UUID, date string) ([]string, error) {
			if _, ok := ctx.Deadline(); !ok {
				t.Errorf("handler ran without a deadline")
			}
			if id != providerID || date != "2024-01-08" {
				t.Errorf("resolve(%s, %s)", id, date)
			}
			return []string{"09:00", "10:00"}, nil
		},
		listMineFn: func(ctx context.Context, caller auth.Identity) ([]domain.AppointmentView, error) {
			if caller != testUser {
				t.Errorf("caller = %+v", caller)
			}
			return nil, nil
		},
	})
	ctx := context.Background()
	jsonCall := grpc.CallContentSubtype(Codec{}.Name())

	var slots ProviderAvailableSlotsResponse
	err := conn.Invoke(ctx, FullMethod("ProviderAvailableSlots"),
		&ProviderAvailableSlotsRequest{ProviderID: providerID.String(), Date: "2024-01-08"}, &slots, jsonCall)
	if err != nil {
		t.Fatalf("ProviderAvailableSlots: %v", err)
	}
	if len(slots.Slots) != 2 || slots.Slots[0] != "09:00" {
		t.Fatalf("slots = %v", slots.Slots)
	}

	var mine ListBookingsResponse
	err = conn.Invoke(ctx, FullMethod("ListMyBookings"), &ListBookingsRequest{}, &mine, jsonCall)
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("anonymous ListMyBookings code = %s, want Unauthenticated", status.Code(err))
	}

	bad := metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer nope")
	err = conn.Invoke(bad, FullMethod("ListMyBookings"), &ListBookingsRequest{}, &mine, jsonCall)
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("bad token code = %s, want Unauthenticated", status.Code(err))
	}

	good := metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer good")
	if err := conn.Invoke(good, FullMethod("ListMyBookings"), &ListBookingsRequest{}, &mine, jsonCall); err != nil {
		t.Fatalf("ListMyBookings: %v", err)
	}
	if mine.Appointments == nil || len(mine.Appointments) != 0 {
		t.Fatalf("appointments = %#v, want empty list", mine.Appointments)
	}

	hc := healthpb.NewHealthClient(conn)
	resp, err := hc.Check(ctx, &healthpb.HealthCheckRequest{})
	if err != nil {
		t.Fatalf("health check: %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("health status = %s, want SERVING", resp.GetStatus())
	}
}
