package api

import (
	"context"
	"net/http"

	"citabot/internal/app"
	"citabot/internal/config"
	"citabot/internal/logging"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// ReadyFunc reports whether the backing stores answer.
type ReadyFunc func(ctx context.Context) error

// NewRouter mounts the demo API on a chi router.
func NewRouter(a *app.App, ready ReadyFunc, rl config.APIRateLimitConfig, logger *zerolog.Logger) http.Handler {
	h := &handlers{app: a, ready: ready, logger: logging.Component(logger, "api")}
	stream := &eventStream{bus: a.Bus, logger: logging.Component(logger, "stream")}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.logger))
	r.Use(middleware.Recoverer)
	r.Use(countRequests)

	r.Get("/healthz", h.healthz)
	r.Get("/readyz", h.readyz)

	r.Route("/api/v1", func(r chi.Router) {
		// вебсокет не ограничиваем, он один на клиента
		r.Get("/stream", stream.ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(newRateLimiter(rl).Wrap)

			r.Route("/bookings", func(r chi.Router) {
				r.Get("/", h.listBookings)
				r.Get("/pending", h.pendingBookings)
				r.Get("/export", h.exportBookings)
				r.Post("/{id}/validate", h.validateBooking)
				r.Post("/{id}/reject", h.rejectBooking)
			})

			r.Get("/messages", h.listMessages)

			r.Route("/conversation", func(r chi.Router) {
				r.Get("/", h.conversationState)
				r.Post("/start", h.startConversation)
				r.Post("/pay", h.simulatePayment)
				r.Post("/validate", h.validateFromReception)
			})

			r.Route("/screen", func(r chi.Router) {
				r.Get("/", h.getScreen)
				r.Post("/tab", h.selectTab)
				r.Post("/month", h.changeMonth)
			})

			r.Route("/devices/{device}", func(r chi.Router) {
				r.Post("/view", h.setView)
				r.Post("/date", h.selectDate)
				r.Get("/calendar", h.calendarView)
				r.Get("/day", h.dayView)
				r.Get("/payments", h.paymentsView)
			})

			r.Get("/chat", h.chatView)
			r.Get("/info", h.infoView)
			r.Post("/demo/reset", h.resetDemo)
		})
	})

	return r
}
