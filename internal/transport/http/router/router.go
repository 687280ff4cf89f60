package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/baechuer/blood-drive-service/internal/config"
	"github.com/baechuer/blood-drive-service/internal/metrics"
	"github.com/baechuer/blood-drive-service/internal/transport/http/handlers"
	authmw "github.com/baechuer/blood-drive-service/internal/transport/http/middleware"
)

func New(
	h *handlers.EventsHandler,
	p *handlers.ProfileHandler,
	auth *authmw.AuthMiddleware,
	z *handlers.HealthHandler,
	cfg *config.Config,
) http.Handler {
	r := chi.NewRouter()

	r.Use(authmw.RequestID)
	r.Use(authmw.SecurityHeaders)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(authmw.AccessLog)
	r.Use(authmw.Metrics)

	r.Get("/healthz", z.Healthz)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/drive/v1", func(r chi.Router) {
		// probes and scrapes stay outside the limiter
		if cfg.RLEnabled {
			r.Use(httprate.LimitByIP(cfg.RLLimit, cfg.RLWindow))
		}

		r.Get("/events", h.ListPublic)
		r.Get("/events/{event_id}", h.Get)

		r.Group(func(r chi.Router) {
			r.Use(auth.Require)

			r.Post("/events", h.Create)
			r.Patch("/events/{event_id}", h.Update)
			r.Post("/events/{event_id}/cancel", h.Cancel)
			r.Delete("/events/{event_id}", h.Delete)

			r.Get("/events/{event_id}/attendees", h.Roster)
			r.Post("/events/{event_id}/attendees/{donor_id}/attended", h.MarkAttended)

			r.Post("/events/{event_id}/registrations", h.Register)
			r.Delete("/events/{event_id}/registrations/me", h.CancelRegistration)

			r.Get("/organizer/events", h.ListMine)
			r.Get("/me/stats", p.MyStats)
		})
	})

	return r
}
