package service_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tollgate-labs/tollgate/internal/identity/domain"
	"github.com/tollgate-labs/tollgate/internal/identity/service"
	"github.com/tollgate-labs/tollgate/internal/identity/store"
	"github.com/tollgate-labs/tollgate/internal/identity/store/drivers/sqlite"
	"github.com/tollgate-labs/tollgate/pkg/cryptox"
	"github.com/tollgate-labs/tollgate/pkg/idx"
	"github.com/tollgate-labs/tollgate/pkg/jwtx"
)

const testIssuer = "https://identity.example.test"

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "tollgate-service-test-*")
	if err != nil {
		panic(err)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))

	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

// fixture bundles a migrated store with seeded roles, users and clients.
type fixture struct {
	store store.Store
	keys  *jwtx.KeyManager

	managerUser domain.User
	adminUser   domain.User
	plainUser   domain.User

	confidentialClient domain.Client
	publicClient       domain.Client
}

const (
	testPassword         = "Sup3rS3cret$"
	confidentialSecret   = "transport_client_app_secret"
	confidentialClientID = "transport_client_app"
	publicClientID       = "sports_client_app"
	testRedirectURI      = "https://app.example.test/callback"
)

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st, err := sqlite.NewStore("file:" + filepath.Join(t.TempDir(), "identity.db"))
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { st.Close() })

	keys, err := jwtx.NewEphemeralKeyManager(jwtx.KeyManagerOptions{
		Algorithm: jwtx.AlgorithmEdDSA,
		Issuer:    testIssuer,
		NumKeys:   1,
	})
	require.NoError(t, err)

	ctx := context.Background()
	f := &fixture{store: st, keys: keys}

	roleIDs := map[string]string{}
	for _, name := range []string{domain.RoleAdmin, domain.RoleManager, domain.RoleUser} {
		role := domain.Role{ID: idx.New().String(), Name: name}
		require.NoError(t, st.Roles().CreateRole(ctx, role))
		roleIDs[name] = role.ID
	}

	hash, err := cryptox.HashPassword(testPassword)
	require.NoError(t, err)

	seedUser := func(email, name string, roles ...string) domain.User {
		u := domain.User{
			ID:           idx.New().String(),
			Email:        email,
			Name:         name,
			PasswordHash: hash,
			Roles:        roles,
		}
		require.NoError(t, st.Users().CreateUser(ctx, u))
		for _, r := range roles {
			require.NoError(t, st.Users().AssignRole(ctx, u.ID, roleIDs[r]))
		}
		return u
	}

	f.adminUser = seedUser("admin@test.com", "Admin", domain.RoleAdmin)
	f.managerUser = seedUser("manager@test.com", "Manager", domain.RoleManager)
	f.plainUser = seedUser("user@test.com", "User", domain.RoleUser)

	secretHash, err := cryptox.HashPassword(confidentialSecret)
	require.NoError(t, err)

	f.confidentialClient = domain.Client{
		ID:           idx.New().String(),
		ClientID:     confidentialClientID,
		Name:         "Transport Client",
		SecretHash:   secretHash,
		RedirectURIs: []string{testRedirectURI},
		GrantTypes: []string{
			service.GrantPassword,
			service.GrantRefreshToken,
			service.GrantAuthorizationCode,
		},
	}
	require.NoError(t, st.Clients().CreateClient(ctx, f.confidentialClient))

	f.publicClient = domain.Client{
		ID:           idx.New().String(),
		ClientID:     publicClientID,
		Name:         "Sports Client",
		RedirectURIs: []string{testRedirectURI},
		GrantTypes: []string{
			service.GrantAuthorizationCode,
			service.GrantRefreshToken,
		},
	}
	require.NoError(t, st.Clients().CreateClient(ctx, f.publicClient))

	return f
}

func (f *fixture) tokenService(t *testing.T) *service.TokenService {
	t.Helper()
	svc, err := service.NewTokenService(service.TokenServiceConfig{
		Store:      f.store,
		Keys:       f.keys,
		Issuer:     testIssuer,
		AccessTTL:  5 * time.Minute,
		RefreshTTL: time.Hour,
	})
	require.NoError(t, err)
	return svc
}

func (f *fixture) authorizeService(t *testing.T) *service.AuthorizeService {
	t.Helper()
	svc, err := service.NewAuthorizeService(service.AuthorizeServiceConfig{Store: f.store})
	require.NoError(t, err)
	return svc
}

// verify parses and validates an access token against the fixture keys.
func (f *fixture) verify(t *testing.T, token string) jwtx.Claims {
	t.Helper()
	claims, err := f.keys.Verifier.Verify(token)
	require.NoError(t, err)
	return claims
}
