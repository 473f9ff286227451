package analytics

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"zoo-management/internal/middleware"
	"zoo-management/internal/platform/respond"
	"zoo-management/internal/platform/sentinel"
	"zoo-management/internal/ports/capabilities"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, resolver capabilities.CapabilitiesResolver) {
	r.Route("/analytics", func(ar chi.Router) {
		ar.Use(middleware.RequireAuth)

		ar.Get("/dashboard", valueHandler(svc.Dashboard))
		ar.Get("/revenue-trends", trendHandler(svc.RevenueTrends))
		ar.Get("/visitor-trends", trendHandler(svc.VisitorTrends))
		ar.Get("/ticket-types", valueHandler(svc.TicketTypeDistribution))
		ar.Get("/species", valueHandler(svc.SpeciesDistribution))
		ar.Get("/occupancy", valueHandler(svc.OccupancyRates))

		ar.With(middleware.Require(resolver, capabilities.AnalyticsManage)).
			Post("/cache/invalidate", invalidateHandler(svc))
	})
}

func valueHandler[T any](fn func(context.Context) (T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := fn(r.Context())
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.OK(w, http.StatusOK, v)
	}
}

// trendHandler lee ?days= (default 30).
func trendHandler[T any](fn func(context.Context, int) (T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		days := 0
		if raw := strings.TrimSpace(r.URL.Query().Get("days")); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				respond.Error(w, r, sentinel.Invalid("days must be an integer"))
				return
			}
			days = n
		}
		v, err := fn(r.Context(), days)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.OK(w, http.StatusOK, v)
	}
}

// @Summary Invalidar cache de analytics
// @Tags analytics
// @Produce json
// @Success 200 {object} respond.Envelope
// @Failure 403 {object} respond.Envelope
// @Router /analytics/cache/invalidate [post]
func invalidateHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Invalidate(r.Context()); err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.Message(w, http.StatusOK, "analytics cache cleared")
	}
}
