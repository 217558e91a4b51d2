// EventHub - Campus Event Discovery and Geo-Proximity Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventhub

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/eventhub/internal/middleware"
	"github.com/tomtom215/eventhub/internal/models"
)

// Router binds the Handler to Chi routes.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a Router.
func NewRouter(handler *Handler, mw *ChiMiddleware) *Router {
	if mw == nil {
		mw = NewChiMiddleware(nil)
	}
	return &Router{handler: handler, chiMiddleware: mw}
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	h := router.handler
	r := chi.NewRouter()

	// Applied to all routes, in order.
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(RequestLogger())
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // global so OPTIONS preflight is answered

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", h.HealthLive)
		r.Get("/ready", h.HealthReady)
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(APISecurityHeaders())
		r.Use(middleware.PrometheusMetrics)
		r.Use(middleware.Identity)

		// Reads
		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimitRead())

			r.Get("/events", h.ListEvents)
			r.Get("/events/{id}", h.GetEvent)
			r.Get("/external-events", h.ListExternalEvents)
			r.Get("/external-events/{id}", h.GetExternalEvent)
			r.Get("/all-events", h.ListAllEvents)
			r.Get("/events-near", h.ListEventsNear)

			r.Route("/users/{userID}", func(r chi.Router) {
				r.Get("/liked", h.UserLiked)
				r.Get("/saved", h.UserSaved)
				r.Get("/participated", h.UserParticipated)
				r.Get("/created", h.UserCreated)
			})
		})

		// Writes
		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimitWrite())

			r.Post("/events", h.CreateEvent)
			r.Put("/events/{id}", h.UpdateEvent)
			r.Delete("/events/{id}", h.DeleteEvent)

			r.Post("/events/{id}/like", h.interact(models.OriginNative, like))
			r.Delete("/events/{id}/like", h.interact(models.OriginNative, unlike))
			r.Post("/events/{id}/save", h.interact(models.OriginNative, save))
			r.Delete("/events/{id}/save", h.interact(models.OriginNative, unsave))

			r.Post("/events/{id}/register", h.Register)
			r.Post("/events/{id}/smart-register", h.SmartRegister)
			r.Put("/events/{id}/participation", h.UpdateParticipation)

			r.Post("/external-events/{id}/like", h.interact(models.OriginExternal, like))
			r.Delete("/external-events/{id}/like", h.interact(models.OriginExternal, unlike))
			r.Post("/external-events/{id}/save", h.interact(models.OriginExternal, save))
			r.Delete("/external-events/{id}/save", h.interact(models.OriginExternal, unsave))
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).NotFound("Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).Error(http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
	})

	return r
}
