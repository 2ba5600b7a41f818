package grpc

import (
	"context"
	"errors"
	"log/slog"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"bookly/backend/internal/auth"
	"bookly/backend/internal/service/booking"
)

const errorDomain = "bookly"

// statusError maps a booking error to a gRPC status. Conflicts carry their
// reason as an ErrorInfo detail. Storage details never leave the server.
func statusError(log *slog.Logger, err error) error {
	var (
		vErr *booking.ValidationError
		nErr *booking.NotFoundError
		cErr *booking.ConflictError
		aErr *booking.AuthorizationError
	)
	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		log.Info("unauthenticated call")
		return status.Error(codes.Unauthenticated, "authentication required")
	case errors.As(err, &vErr):
		log.Warn("invalid request", slog.Any("err", err))
		return status.Error(codes.InvalidArgument, vErr.Error())
	case errors.As(err, &nErr):
		log.Info("not found", slog.String("resource", nErr.Resource))
		return status.Error(codes.NotFound, nErr.Error())
	case errors.As(err, &cErr):
		log.Info("booking conflict", slog.String("reason", string(cErr.Reason)))
		return conflictStatus(cErr)
	case errors.As(err, &aErr):
		log.Warn("permission denied", slog.Any("err", err))
		return status.Error(codes.PermissionDenied, aErr.Error())
	case errors.Is(err, context.DeadlineExceeded):
		log.Warn("deadline exceeded", slog.Any("err", err))
		return status.Error(codes.DeadlineExceeded, "request timed out")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request cancelled")
	}
	log.Error("request failed", slog.Any("err", err))
	return status.Error(codes.Internal, "internal error")
}

func conflictStatus(cErr *booking.ConflictError) error {
	st := status.New(codes.FailedPrecondition, cErr.Error())
	withInfo, err := st.WithDetails(&errdetails.ErrorInfo{
		Reason: string(cErr.Reason),
		Domain: errorDomain,
	})
	if err != nil {
		return st.Err()
	}
	return withInfo.Err()
}

// ConflictReason extracts the booking conflict reason from a status error.
func ConflictReason(err error) (booking.ConflictReason, bool) {
	st, ok := status.FromError(err)
	if !ok {
		return "", false
	}
	for _, d := range st.Details() {
		if info, ok := d.(*errdetails.ErrorInfo); ok && info.Domain == errorDomain {
			return booking.ConflictReason(info.Reason), true
		}
	}
	return "", false
}
