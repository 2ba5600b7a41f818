package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"bookly/backend/internal/auth"
	"bookly/backend/internal/service/booking"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError maps a booking error to a JSON response. Internal failures are
// logged with the request id and answered with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	log = log.With(
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("route", r.Method+" "+r.URL.Path),
	)

	var (
		vErr *booking.ValidationError
		nErr *booking.NotFoundError
		cErr *booking.ConflictError
		aErr *booking.AuthorizationError
	)
	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "Unauthorized"})
	case errors.As(err, &vErr):
		log.Warn("invalid request", slog.Any("err", err))
		writeJSON(w, http.StatusBadRequest, errorBody{Error: vErr.Error()})
	case errors.As(err, &nErr):
		log.Info("not found", slog.String("resource", nErr.Resource))
		writeJSON(w, http.StatusNotFound, errorBody{Error: nErr.Error()})
	case errors.As(err, &cErr):
		log.Info("booking conflict", slog.String("reason", string(cErr.Reason)))
		writeJSON(w, http.StatusConflict, errorBody{Error: cErr.Error(), Reason: string(cErr.Reason)})
	case errors.As(err, &aErr):
		log.Warn("forbidden", slog.Any("err", err))
		writeJSON(w, http.StatusForbidden, errorBody{Error: aErr.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		log.Warn("request timed out", slog.Any("err", err))
		writeJSON(w, http.StatusGatewayTimeout, errorBody{Error: "Request timed out"})
	default:
		log.Error("request failed", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "Internal server error"})
	}
}

var errBodyTooLarge = errors.New("request body too large")

// decodeJSON reads a single JSON object from the request body.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var mbErr *http.MaxBytesError
		switch {
		case errors.As(err, &mbErr):
			return errBodyTooLarge
		case errors.Is(err, io.EOF):
			return errors.New("request body is required")
		}
		return errors.New("request body must be valid JSON")
	}
	return nil
}
