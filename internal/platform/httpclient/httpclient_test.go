package httpclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoJSON_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		var in map[string]string
		_ = json.NewDecoder(r.Body).Decode(&in)
		_ = json.NewEncoder(w).Encode(map[string]string{"echo": in["msg"]})
	}))
	defer srv.Close()

	c, err := NewWithBaseURL(srv.URL, time.Second)
	require.NoError(t, err)
	c.Retries, c.Backoff = 2, time.Millisecond

	var out map[string]string
	require.NoError(t, c.DoJSON(context.Background(), http.MethodPost, "echo", nil, map[string]string{"msg": "hi"}, &out))
	assert.Equal(t, "hi", out["echo"])
	assert.Equal(t, int32(3), calls.Load())
}

func TestDoJSON_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c, err := NewWithBaseURL(srv.URL, time.Second)
	require.NoError(t, err)
	c.Retries, c.Backoff = 3, time.Millisecond

	err = c.DoJSON(context.Background(), http.MethodGet, "/x", nil, nil, nil)
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.StatusCode)
	assert.Equal(t, "bad key", httpErr.Body)
	assert.Equal(t, int32(1), calls.Load())
}

func TestResolveURL(t *testing.T) {
	c := New(0)
	_, err := c.resolveURL("/relative")
	assert.Error(t, err)

	u, err := c.resolveURL("https://mail.example.com/send")
	require.NoError(t, err)
	assert.Equal(t, "https://mail.example.com/send", u)

	_, err = NewWithBaseURL("::not a url", time.Second)
	assert.Error(t, err)
}
