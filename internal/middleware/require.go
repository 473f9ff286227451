package middleware

import (
	"net/http"

	"zoo-management/internal/platform/logger"
	"zoo-management/internal/platform/respond"
	"zoo-management/internal/ports/capabilities"
)

// RequireAuth corta con 401 si el request no trae claims.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetClaims(r.Context()); !ok {
			respond.Fail(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Require exige autenticación y la capability indicada para el rol del principal.
func Require(resolver capabilities.CapabilitiesResolver, capability capabilities.Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := GetClaims(r.Context())
			if !ok {
				respond.Fail(w, http.StatusUnauthorized, "authentication required")
				return
			}

			allowed, err := resolver.HasCapability(r.Context(), capabilities.CapabilityCheck{
				UserID:     claims.UserID,
				Role:       claims.Role,
				Capability: capability,
			})
			if err != nil {
				logger.FromContext(r.Context()).Error("capability check failed", map[string]any{
					"capability": string(capability),
					"error":      err.Error(),
				})
				respond.Fail(w, http.StatusInternalServerError, "internal error")
				return
			}
			if !allowed {
				respond.Fail(w, http.StatusForbidden, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
