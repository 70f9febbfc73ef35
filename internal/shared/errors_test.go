package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arenahub/arenahub/internal/platform/httpx"
)

func TestUserSafeMessagePassesTaxonomyWording(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("%w: you can only delete your own uploads", httpx.ErrForbidden), "forbidden: you can only delete your own uploads"},
		{fmt.Errorf("%w: team", httpx.ErrNotFound), "resource not found: team"},
		{fmt.Errorf("%w: unsupported content type", httpx.ErrValidation), "validation failed: unsupported content type"},
		{ErrInvalidCredentials, "invalid credentials"},
		{ErrCSRFTokenMissing, "csrf token missing"},
		{ErrCSRFTokenMismatch, "csrf token mismatch"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, UserSafeMessage(tc.err))
	}
}

func TestUserSafeMessageHidesInternalDetail(t *testing.T) {
	err := errors.New("dial tcp 10.0.0.5:5432: connect: connection refused")
	require.Equal(t, "something went wrong, please try again", UserSafeMessage(err))
	require.Empty(t, UserSafeMessage(nil))
}
