package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStorageKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Storage("insert issuance", cause)

	require.ErrorIs(t, err, ErrStorage)
	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "insert issuance")
}

func TestStorageDoesNotDoubleWrap(t *testing.T) {
	inner := Storage("select member", errors.New("boom"))
	outer := Storage("return book", inner)

	require.Equal(t, inner, outer)
	require.Nil(t, Storage("noop", nil))
}

func TestKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{NotFoundf("member %d", 7), "NOT_FOUND"},
		{fmt.Errorf("issue: %w", ErrConflict), "CONFLICT"},
		{Invalidf("book_id is required"), "INVALID_ARGUMENT"},
		{ErrRateLimited, "RATE_LIMITED"},
		{Storage("ping", errors.New("down")), "STORAGE"},
		{errors.New("other"), "INTERNAL"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, Kind(tt.err))
	}
}
