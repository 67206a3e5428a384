package http_test

import (
	"encoding/json"
	nethttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	sportshttp "github.com/tollgate-labs/tollgate/internal/sports/http"
	"github.com/tollgate-labs/tollgate/internal/sports/service"
	"github.com/tollgate-labs/tollgate/pkg/httpx"
	"github.com/tollgate-labs/tollgate/pkg/jwtx"
	"github.com/tollgate-labs/tollgate/pkg/slogx"
)

const (
	testIssuer   = "https://identity.example.test"
	testAudience = "SportsApi"
)

type testEnv struct {
	keys *jwtx.KeyManager
	srv  *httptest.Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	keys, err := jwtx.NewEphemeralKeyManager(jwtx.KeyManagerOptions{
		Algorithm: "EdDSA",
		Issuer:    testIssuer,
	})
	require.NoError(t, err)

	jwks := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		httpx.WriteJSON(w, nethttp.StatusOK, keys.KeySet.PublicJWKS())
	}))
	t.Cleanup(jwks.Close)

	src := jwtx.NewRemoteKeySource(jwks.URL, time.Minute)
	verifier := jwtx.NewCommonEdDSA(src.KeySet, testIssuer, []string{testAudience})

	logger := slogx.New(slogx.Config{Service: "sports-api-test", Level: "error", Format: "text"})
	router := sportshttp.NewRouter(src, verifier, "test", logger)
	router.Matches = service.NewMatchService()
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testEnv{keys: keys, srv: srv}
}

func (e *testEnv) get(t *testing.T, path string, scopes ...string) *nethttp.Response {
	t.Helper()

	req, err := nethttp.NewRequest(nethttp.MethodGet, e.srv.URL+path, nil)
	require.NoError(t, err)

	if len(scopes) > 0 {
		claims := jwtx.NewAccessClaims(
			"user_1", "sess_1",
			scopes, []string{"User"},
			"user@test.com", "user",
			15*time.Minute,
			testIssuer,
			[]string{testAudience},
			time.Now(),
		)
		token, err := e.keys.GetSigner().Sign(claims)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestGameMatchRoutes(t *testing.T) {
	env := newTestEnv(t)

	t.Run("listing fixtures requires admin scope", func(t *testing.T) {
		resp := env.get(t, "/api/gamematch", "user.transport.api")
		require.Equal(t, nethttp.StatusForbidden, resp.StatusCode)
		require.Contains(t, resp.Header.Get("WWW-Authenticate"), "insufficient_scope")
	})

	t.Run("admin scope lists fixtures", func(t *testing.T) {
		resp := env.get(t, "/api/gamematch", "admin.sports.api")
		require.Equal(t, nethttp.StatusOK, resp.StatusCode)

		var matches []map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&matches))
		require.NotEmpty(t, matches)
		require.Contains(t, matches[0], "teamA")
		require.Contains(t, matches[0], "matchDate")
	})

	t.Run("missing token is unauthorized", func(t *testing.T) {
		resp := env.get(t, "/api/gamematch")
		require.Equal(t, nethttp.StatusUnauthorized, resp.StatusCode)
		require.Contains(t, resp.Header.Get("WWW-Authenticate"), "invalid_token")
	})

	t.Run("team lookup requires manager scope", func(t *testing.T) {
		resp := env.get(t, "/api/gamematch/Sharks", "user.transport.api")
		require.Equal(t, nethttp.StatusForbidden, resp.StatusCode)
		require.Contains(t, resp.Header.Get("WWW-Authenticate"), "insufficient_scope")
	})

	t.Run("manager.sports.api fetches a team schedule", func(t *testing.T) {
		resp := env.get(t, "/api/gamematch/Sharks", "user.transport.api", "manager.sports.api")
		require.Equal(t, nethttp.StatusOK, resp.StatusCode)

		var matches []map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&matches))
		require.NotEmpty(t, matches)
		for _, match := range matches {
			require.Equal(t, "Sharks", match["teamA"])
		}
	})
}

func TestSportsWeatherRoute(t *testing.T) {
	env := newTestEnv(t)

	t.Run("manager tier is refused", func(t *testing.T) {
		resp := env.get(t, "/api/weatherforecast", "manager.sports.api")
		require.Equal(t, nethttp.StatusForbidden, resp.StatusCode)
	})

	t.Run("admin.sports.api satisfies the admin policy", func(t *testing.T) {
		resp := env.get(t, "/api/weatherforecast", "admin.sports.api")
		require.Equal(t, nethttp.StatusOK, resp.StatusCode)

		var forecast []map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&forecast))
		require.Len(t, forecast, 5)
	})
}

func TestSportsSystemEndpoints(t *testing.T) {
	env := newTestEnv(t)

	resp := env.get(t, "/livez")
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)

	resp = env.get(t, "/readyz")
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
}
