package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"zoo-management/internal/ports/auth"
	"zoo-management/internal/ports/capabilities"
)

type stubVerifier struct {
	claims auth.Claims
	err    error
}

func (s stubVerifier) Verify(context.Context, string) (auth.Claims, error) { return s.claims, s.err }

type roleResolver map[string][]capabilities.Capability

func (r roleResolver) HasCapability(_ context.Context, in capabilities.CapabilityCheck) (bool, error) {
	for _, c := range r[in.Role] {
		if c == in.Capability {
			return true, nil
		}
	}
	return false, nil
}

func echoClaims(w http.ResponseWriter, r *http.Request) {
	c, ok := GetClaims(r.Context())
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	_, _ = w.Write([]byte(c.UserID + "|" + c.Role))
}

func TestAuthContext_DevHeaders(t *testing.T) {
	h := AuthContext(nil)(http.HandlerFunc(echoClaims))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Debug-User-ID", "u-1")
	req.Header.Set("X-Debug-Role", "Veterinarian")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "u-1|veterinarian", rec.Body.String())
}

func TestAuthContext_BearerToken(t *testing.T) {
	h := AuthContext(stubVerifier{claims: auth.Claims{UserID: "u-2", Role: "admin"}})(http.HandlerFunc(echoClaims))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "u-2|admin", rec.Body.String())

	// token inválido: sigue sin claims
	h = AuthContext(stubVerifier{err: errors.New("expired")})(http.HandlerFunc(echoClaims))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRequire(t *testing.T) {
	resolver := roleResolver{"veterinarian": {capabilities.HealthWrite}}
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	h := AuthContext(nil)(Require(resolver, capabilities.HealthWrite)(ok))

	cases := []struct {
		name, user, role string
		want             int
	}{
		{"anonymous", "", "", http.StatusUnauthorized},
		{"wrong role", "u-1", "visitor", http.StatusForbidden},
		{"allowed", "u-1", "veterinarian", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			if tc.user != "" {
				req.Header.Set("X-Debug-User-ID", tc.user)
				req.Header.Set("X-Debug-Role", tc.role)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestRecover_WritesEnvelope(t *testing.T) {
	h := Recover(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"internal error"}`, rec.Body.String())
}
