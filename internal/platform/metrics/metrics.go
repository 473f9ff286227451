package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Métricas de proceso. Se registran una sola vez en el registry por defecto.
var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zoo_http_requests_total",
		Help: "HTTP requests by route pattern, method and status",
	}, []string{"route", "method", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "zoo_http_request_duration_seconds",
		Help:    "HTTP request latency by route pattern",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})

	ticketsIssued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zoo_tickets_issued_total",
		Help: "Tickets issued by ticket type",
	}, []string{"type"})

	ticketValidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zoo_ticket_validations_total",
		Help: "Ticket validation attempts by outcome",
	}, []string{"outcome"})

	ticketIDCollisions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "zoo_ticket_id_collisions_total",
		Help: "Generated ticket ids rejected by the unique index",
	})

	capacityRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "zoo_exhibit_capacity_rejections_total",
		Help: "Animal assignments rejected because the exhibit was full",
	})

	notificationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zoo_notifications_failed_total",
		Help: "Fire-and-forget notifications that failed (mail, events)",
	}, []string{"channel"})

	cacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zoo_cache_requests_total",
		Help: "Analytics cache lookups by result",
	}, []string{"result"})
)

func TicketIssued(ticketType string)    { ticketsIssued.WithLabelValues(ticketType).Inc() }
func TicketValidation(outcome string)   { ticketValidations.WithLabelValues(outcome).Inc() }
func TicketIDCollision()                { ticketIDCollisions.Inc() }
func CapacityRejected()                 { capacityRejections.Inc() }
func NotificationFailed(channel string) { notificationFailures.WithLabelValues(channel).Inc() }

func CacheLookup(hit bool) {
	if hit {
		cacheRequests.WithLabelValues("hit").Inc()
		return
	}
	cacheRequests.WithLabelValues("miss").Inc()
}

// Handler expone /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// HTTP instrumenta cada request usando el route pattern de chi (no el path
// crudo) para no explotar la cardinalidad con ids.
func HTTP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := RoutePattern(r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		httpRequests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		httpDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

func RoutePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
