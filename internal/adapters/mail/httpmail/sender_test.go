package httpmail

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zoo-management/internal/ports/mail"
)

func TestSender_PostsMessage(t *testing.T) {
	var got messageRequest
	var authHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		authHeader = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	s, err := New(Config{BaseURL: srv.URL, APIKey: "k-1", From: "tickets@zoo.org"})
	require.NoError(t, err)

	err = s.Send(context.Background(), mail.Message{
		To:      "ana@example.com",
		Subject: "Ticket TKT-1-ABCDEFGHI",
		Body:    "hola",
		Tag:     "ticket_confirmation",
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer k-1", authHeader)
	assert.Equal(t, messageRequest{
		From:    "tickets@zoo.org",
		To:      "ana@example.com",
		Subject: "Ticket TKT-1-ABCDEFGHI",
		Text:    "hola",
		Tag:     "ticket_confirmation",
	}, got)
}

func TestSender_SurfacesUpstreamErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid recipient", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	s, err := New(Config{BaseURL: srv.URL, From: "tickets@zoo.org"})
	require.NoError(t, err)

	err = s.Send(context.Background(), mail.Message{To: "x"})
	assert.ErrorContains(t, err, "invalid recipient")

	_, err = New(Config{From: "a@b.c"})
	assert.Error(t, err)
}
