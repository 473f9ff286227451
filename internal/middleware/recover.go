package middleware

import (
	"net/http"
	"runtime/debug"

	"zoo-management/internal/platform/logger"
	"zoo-management/internal/platform/respond"
)

// Recover convierte un panic en 500 con envelope y deja el stack en el log.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			logger.FromContext(r.Context()).Error("panic recovered", map[string]any{
				"panic": rec,
				"stack": string(debug.Stack()),
			})
			respond.Fail(w, http.StatusInternalServerError, "internal error")
		}()
		next.ServeHTTP(w, r)
	})
}
