package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zoo-management/internal/platform/sentinel"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{sentinel.ErrNotFound, http.StatusNotFound},
		{sentinel.Invalid("name is required"), http.StatusBadRequest},
		{fmt.Errorf("assign: %w", sentinel.ErrCapacityExceeded), http.StatusConflict},
		{sentinel.ErrAlreadyUsed, http.StatusConflict},
		{sentinel.ErrNotValidToday, http.StatusUnprocessableEntity},
		{sentinel.ErrUnauthenticated, http.StatusUnauthorized},
		{sentinel.ErrForbidden, http.StatusForbidden},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, StatusFor(tc.err), tc.err.Error())
	}
}

func TestError_HidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)

	Error(rec, req, errors.New("mongo: connection refused"))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.False(t, env.Success)
	assert.Equal(t, "internal error", env.Message)
}

func TestParsePage(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/animals", nil)
	p, err := ParsePage(req)
	require.NoError(t, err)
	assert.Equal(t, Page{Page: 1, Limit: DefaultLimit}, p)

	req = httptest.NewRequest(http.MethodGet, "/animals?page=3&limit=20", nil)
	p, err = ParsePage(req)
	require.NoError(t, err)
	assert.Equal(t, 40, p.Offset())

	req = httptest.NewRequest(http.MethodGet, "/animals?limit=500", nil)
	_, err = ParsePage(req)
	assert.ErrorIs(t, err, sentinel.ErrInvalidInput)
}

func TestSliceAndPagination(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	assert.Equal(t, []int{3, 4}, Slice(items, Page{Page: 2, Limit: 2}))
	assert.Equal(t, []int{}, Slice(items, Page{Page: 4, Limit: 2}))
	assert.Equal(t, Pagination{Page: 1, Limit: 2, Total: 5, Pages: 3}, PaginationFor(Page{Page: 1, Limit: 2}, 5))
}
