package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"zoo-management/internal/platform/logger"
	"zoo-management/internal/platform/metrics"
)

// RequestLogger cuelga del contexto un logger con el request_id de chi
// (requiere chimw.RequestID antes) y loguea una línea al terminar.
func RequestLogger(base logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			l := base.With(map[string]any{"request_id": chimw.GetReqID(r.Context())})
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r.WithContext(logger.WithContext(r.Context(), l)))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			fields := map[string]any{
				"method":      r.Method,
				"route":       metrics.RoutePattern(r),
				"status":      status,
				"duration_ms": time.Since(start).Milliseconds(),
			}
			if status >= http.StatusInternalServerError {
				l.Error("request", fields)
				return
			}
			l.Info("request", fields)
		})
	}
}
