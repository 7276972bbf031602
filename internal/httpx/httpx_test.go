package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"libraryledger/internal/errs"

	"github.com/stretchr/testify/require"
)

func TestWriteErrorMapsKinds(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{errs.NotFoundf("member 4"), http.StatusNotFound, "NOT_FOUND"},
		{fmt.Errorf("issue: %w", errs.ErrConflict), http.StatusConflict, "CONFLICT"},
		{errs.Invalidf("book_id is required"), http.StatusBadRequest, "INVALID_ARGUMENT"},
		{errs.ErrRateLimited, http.StatusTooManyRequests, "RATE_LIMITED"},
		{errs.Storage("select", fmt.Errorf("password=secret")), http.StatusInternalServerError, "STORAGE"},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		WriteError(rec, tt.err)

		require.Equal(t, tt.status, rec.Code)
		var body ErrorBody
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		require.Equal(t, tt.code, body.Error.Code)
		if tt.status == http.StatusInternalServerError {
			require.Equal(t, "internal error", body.Error.Message)
		}
	}
}

func TestBindValidates(t *testing.T) {
	type req struct {
		BookID string `json:"book_id" validate:"required"`
		Count  int    `json:"count" validate:"gte=0"`
	}

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"count":-1}`))
	var dst req
	err := Bind(r, &dst)
	require.ErrorIs(t, err, errs.ErrInvalidArgument)
	require.Contains(t, err.Error(), "bookid failed required")

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"book_id":"B1","extra":1}`))
	require.ErrorIs(t, Bind(r, &dst), errs.ErrInvalidArgument)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"book_id":"B1","count":2}`))
	require.NoError(t, Bind(r, &dst))
	require.Equal(t, "B1", dst.BookID)
}

func TestQueryHelpers(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?count=5&bad=x&as_of=2024-01-20", nil)

	n, err := IntQuery(r, "count", 20)
	require.NoError(t, err)
	require.Equal(t, 5, n)

	n, err = IntQuery(r, "page", 1)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	_, err = IntQuery(r, "bad", 1)
	require.ErrorIs(t, err, errs.ErrInvalidArgument)

	d, ok, err := DateQuery(r, "as_of")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 20, d.Day())

	_, err = ParseID("0", "member id")
	require.ErrorIs(t, err, errs.ErrInvalidArgument)
	id, err := ParseID("42", "member id")
	require.NoError(t, err)
	require.Equal(t, int64(42), id)
}
