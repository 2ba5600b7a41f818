package grpc

import (
	"context"

	"google.golang.org/grpc"
)

const serviceName = "bookly.v1.BookingService"

// BookingServiceServer is the server API for bookly.v1.BookingService.
type BookingServiceServer interface {
	ListProviders(context.Context, *ListProvidersRequest) (*ListProvidersResponse, error)
	ListProviderServices(context.Context, *ListProviderServicesRequest) (*ListProviderServicesResponse, error)
	ProviderAvailableSlots(context.Context, *ProviderAvailableSlotsRequest) (*ProviderAvailableSlotsResponse, error)
	CreateBooking(context.Context, *CreateBookingRequest) (*BookingResponse, error)
	ListMyBookings(context.Context, *ListBookingsRequest) (*ListBookingsResponse, error)
	CancelBooking(context.Context, *CancelBookingRequest) (*BookingResponse, error)
	ListProviderBookings(context.Context, *ListBookingsRequest) (*ListBookingsResponse, error)
	UpdateBookingStatus(context.Context, *UpdateBookingStatusRequest) (*BookingResponse, error)
	AddAvailabilitySlot(context.Context, *AddAvailabilitySlotRequest) (*AvailabilitySlotResponse, error)
	ListMyAvailability(context.Context, *ListAvailabilityRequest) (*ListAvailabilityResponse, error)
	BlockDate(context.Context, *BlockDateRequest) (*BlockDateResponse, error)
	ListMyBlockedDates(context.Context, *ListBlockedDatesRequest) (*ListBlockedDatesResponse, error)
}

func RegisterBookingServiceServer(s grpc.ServiceRegistrar, srv BookingServiceServer) {
	s.RegisterService(&BookingServiceDesc, srv)
}

// FullMethod returns the fully qualified method name used in interceptors.
func FullMethod(method string) string {
	return "/" + serviceName + "/" + method
}

func unaryHandler[Req, Resp any](method string, call func(BookingServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(BookingServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: FullMethod(method),
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(BookingServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var BookingServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*BookingServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler("ListProviders", BookingServiceServer.ListProviders),
		unaryHandler("ListProviderServices", BookingServiceServer.ListProviderServices),
		unaryHandler("ProviderAvailableSlots", BookingServiceServer.ProviderAvailableSlots),
		unaryHandler("CreateBooking", BookingServiceServer.CreateBooking),
		unaryHandler("ListMyBookings", BookingServiceServer.ListMyBookings),
		unaryHandler("CancelBooking", BookingServiceServer.CancelBooking),
		unaryHandler("ListProviderBookings", BookingServiceServer.ListProviderBookings),
		unaryHandler("UpdateBookingStatus", BookingServiceServer.UpdateBookingStatus),
		unaryHandler("AddAvailabilitySlot", BookingServiceServer.AddAvailabilitySlot),
		unaryHandler("ListMyAvailability", BookingServiceServer.ListMyAvailability),
		unaryHandler("BlockDate", BookingServiceServer.BlockDate),
		unaryHandler("ListMyBlockedDates", BookingServiceServer.ListMyBlockedDates),
	},
	Streams: []grpc.StreamDesc{},
}
