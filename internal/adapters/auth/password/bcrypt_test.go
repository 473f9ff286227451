package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"zoo-management/internal/platform/sentinel"
)

func TestHasher(t *testing.T) {
	h := New(bcrypt.MinCost)

	hash, err := h.Hash("safari-123")
	require.NoError(t, err)
	assert.NotEqual(t, "safari-123", hash)

	ok, err := h.Compare(hash, "safari-123")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Compare(hash, "wrong")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = h.Compare("not-a-hash", "x")
	assert.Error(t, err)

	_, err = h.Hash(strings.Repeat("a", 80))
	assert.ErrorIs(t, err, sentinel.ErrInvalidInput)
}
