package policyx

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := New(
		Policy{Name: "AdminScope", RequiredScopes: []string{"admin.transport.api", "admin.sports.api"}},
		Policy{Name: "ManagerScope", RequiredScopes: []string{"manager.transport.api", "manager.sports.api"}},
		Policy{Name: "UserScope", RequiredScopes: []string{"user.transport.api"}},
	)
	require.NoError(t, err)
	return r
}

func TestNewRejectsBadConfig(t *testing.T) {
	t.Parallel()

	t.Run("duplicate names", func(t *testing.T) {
		_, err := New(
			Policy{Name: "A", RequiredScopes: []string{"x"}},
			Policy{Name: "A", RequiredScopes: []string{"y"}},
		)
		require.Error(t, err)
	})

	t.Run("empty name", func(t *testing.T) {
		_, err := New(Policy{RequiredScopes: []string{"x"}})
		require.Error(t, err)
	})

	t.Run("no required scopes", func(t *testing.T) {
		_, err := New(Policy{Name: "A"})
		require.Error(t, err)
	})
}

func TestEvaluate(t *testing.T) {
	t.Parallel()
	r := testRegistry(t)

	t.Run("allows when any required scope present", func(t *testing.T) {
		d := r.Evaluate("ManagerScope", []string{"user.transport.api", "manager.sports.api"})
		require.True(t, d.Allowed)
		require.Empty(t, d.MissingScope)
	})

	t.Run("denies with missing scope hint", func(t *testing.T) {
		d := r.Evaluate("ManagerScope", []string{"user.transport.api"})
		require.False(t, d.Allowed)
		require.Equal(t, ReasonInsufficientScope, d.Reason)
		require.Equal(t, "manager.transport.api", d.MissingScope)
	})

	t.Run("accepts space-delimited presented scopes", func(t *testing.T) {
		d := r.Evaluate("AdminScope", []string{"user.transport.api admin.sports.api"})
		require.True(t, d.Allowed)
	})

	t.Run("unknown policy denies", func(t *testing.T) {
		d := r.Evaluate("NoSuchPolicy", []string{"user.transport.api"})
		require.False(t, d.Allowed)
		require.Equal(t, ReasonUnknownPolicy, d.Reason)
	})

	t.Run("empty presented set denies", func(t *testing.T) {
		d := r.Evaluate("UserScope", nil)
		require.False(t, d.Allowed)
		require.Equal(t, "user.transport.api", d.MissingScope)
	})
}
