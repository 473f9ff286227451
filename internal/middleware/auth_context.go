package middleware

import (
	"context"
	"net/http"
	"strings"

	"zoo-management/internal/platform/logger"
	"zoo-management/internal/ports/auth"
)

type ctxKey string

const claimsKey ctxKey = "claims"

// AuthContext:
// - Si verifier != nil y viene Bearer token => intenta Verify() y setea claims.
// - Si verifier == nil => modo dev: X-Debug-User-ID (+ X-Debug-Role) setean claims.
// - Si no hay claims, el request sigue igual; RequireAuth/Require deciden 401/403.
func AuthContext(verifier auth.AuthVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if verifier == nil {
				uid := strings.TrimSpace(r.Header.Get("X-Debug-User-ID"))
				if uid == "" {
					next.ServeHTTP(w, r)
					return
				}
				claims := auth.Claims{
					UserID: uid,
					Role:   strings.ToLower(strings.TrimSpace(r.Header.Get("X-Debug-Role"))),
				}
				next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
				return
			}

			token := bearerToken(r.Header.Get("Authorization"))
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := verifier.Verify(r.Context(), token)
			if err != nil {
				logger.FromContext(r.Context()).Debug("token rejected", map[string]any{"error": err.Error()})
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
		})
	}
}

func withClaims(ctx context.Context, c auth.Claims) context.Context {
	ctx = context.WithValue(ctx, claimsKey, c)
	l := logger.FromContext(ctx).With(map[string]any{"user_id": c.UserID})
	return logger.WithContext(ctx, l)
}

func GetClaims(ctx context.Context) (auth.Claims, bool) {
	c, ok := ctx.Value(claimsKey).(auth.Claims)
	if !ok || strings.TrimSpace(c.UserID) == "" {
		return auth.Claims{}, false
	}
	return c, true
}

func bearerToken(authHeader string) string {
	parts := strings.SplitN(strings.TrimSpace(authHeader), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
