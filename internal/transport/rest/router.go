// Package rest exposes the booking service over JSON/HTTP.
package rest

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Config struct {
	Handler            *Handler
	Verifier           TokenVerifier
	Logger             *slog.Logger
	MetricsHandler     http.Handler
	RateLimiter        *RateLimiter
	CORSAllowedOrigins []string
	RequestTimeout     time.Duration
}

func NewRouter(cfg Config) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	h := cfg.Handler

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(log.With(slog.String("component", "rest.http"))))
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(CORS(cfg.CORSAllowedOrigins))
	}

	r.Get("/health", h.Health)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.Timeout(timeout))
		if cfg.RateLimiter != nil {
			api.Use(cfg.RateLimiter.Middleware)
		}
		api.Use(Authenticate(cfg.Verifier, log))

		api.Get("/providers", h.ListProviders)
		api.Get("/providers/{providerID}/services", h.ListProviderServices)
		api.Get("/providers/{providerID}/slots", h.ProviderSlots)

		api.Route("/user/bookings", func(r chi.Router) {
			r.Get("/", h.ListMyBookings)
			r.Post("/", h.CreateBooking)
			r.Put("/{bookingID}/cancel", h.CancelBooking)
		})

		api.Route("/provider", func(r chi.Router) {
			r.Get("/bookings", h.ListProviderBookings)
			r.Put("/bookings/{bookingID}/status", h.UpdateBookingStatus)
			r.Put("/bookings/{bookingID}/cancel", h.CancelBooking)
			r.Get("/availability", h.ListAvailability)
			r.Post("/availability", h.AddAvailability)
			r.Get("/blocked-dates", h.ListBlockedDates)
			r.Post("/blocked-dates", h.BlockDate)
		})
	})

	return r
}
