package jwtauth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zoo-management/internal/platform/sentinel"
	"zoo-management/internal/ports/auth"
)

func TestIssueAndVerify(t *testing.T) {
	svc, err := New("s3cret", "zoo", time.Hour)
	require.NoError(t, err)

	tok, err := svc.Issue(context.Background(), auth.Claims{UserID: "u-1", Email: "a@zoo.org", Role: "manager"})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), tok.ExpiresAt, 5*time.Second)

	c, err := svc.Verify(context.Background(), tok.Token)
	require.NoError(t, err)
	assert.Equal(t, auth.Claims{UserID: "u-1", Email: "a@zoo.org", Role: "manager"}, c)
}

func TestVerify_Rejections(t *testing.T) {
	svc, err := New("s3cret", "zoo", time.Hour)
	require.NoError(t, err)
	ctx := context.Background()

	tok, err := svc.Issue(ctx, auth.Claims{UserID: "u-1"})
	require.NoError(t, err)

	other, err := New("different", "zoo", time.Hour)
	require.NoError(t, err)
	_, err = other.Verify(ctx, tok.Token)
	assert.ErrorIs(t, err, sentinel.ErrUnauthenticated)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = svc.Verify(ctx, tok.Token)
	assert.ErrorIs(t, err, ErrTokenExpired)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "u-1", "iss": "zoo"})
	raw, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = other.Verify(ctx, raw)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = New(" ", "zoo", time.Hour)
	assert.Error(t, err)
}
