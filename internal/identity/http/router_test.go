package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	identityhttp "github.com/tollgate-labs/tollgate/internal/identity/http"
	"github.com/tollgate-labs/tollgate/internal/identity/domain"
	"github.com/tollgate-labs/tollgate/internal/identity/service"
	"github.com/tollgate-labs/tollgate/internal/identity/store/drivers/sqlite"
	"github.com/tollgate-labs/tollgate/pkg/cryptox"
	"github.com/tollgate-labs/tollgate/pkg/idx"
	"github.com/tollgate-labs/tollgate/pkg/jwtx"
	"github.com/tollgate-labs/tollgate/pkg/oauth2x"
	"github.com/tollgate-labs/tollgate/pkg/slogx"
)

const (
	testIssuer   = "https://identity.example.test"
	testClientID     = "transport_client_app"
	testClientSecret = "transport_client_app_secret"
	testPassword = "Manager123$"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "tollgate-http-test-*")
	if err != nil {
		panic(err)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))

	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

// newTestServer wires a full identity router against a seeded sqlite store.
func newTestServer(t *testing.T) *httptest.Server {
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

	role := domain.Role{ID: idx.New().String(), Name: domain.RoleManager}
	require.NoError(t, st.Roles().CreateRole(ctx, role))

	hash, err := cryptox.HashPassword(testPassword)
	require.NoError(t, err)
	user := domain.User{
		ID:           idx.New().String(),
		Email:        "manager@test.com",
		Name:         "Manager",
		PasswordHash: hash,
	}
	require.NoError(t, st.Users().CreateUser(ctx, user))
	require.NoError(t, st.Users().AssignRole(ctx, user.ID, role.ID))

	secretHash, err := cryptox.HashPassword(testClientSecret)
	require.NoError(t, err)
	require.NoError(t, st.Clients().CreateClient(ctx, domain.Client{
		ID:           idx.New().String(),
		ClientID:     testClientID,
		Name:         "Transport Client",
		SecretHash:   secretHash,
		RedirectURIs: []string{"https://app.example.test/callback"},
		GrantTypes: []string{
			service.GrantPassword,
			service.GrantRefreshToken,
			service.GrantAuthorizationCode,
		},
	}))

	tokens, err := service.NewTokenService(service.TokenServiceConfig{
		Store:  st,
		Keys:   keys,
		Issuer: testIssuer,
	})
	require.NoError(t, err)

	authorize, err := service.NewAuthorizeService(service.AuthorizeServiceConfig{Store: st})
	require.NoError(t, err)

	logger := slogx.New(slogx.Config{Service: "identity-test", Level: "error"})

	router := identityhttp.NewRouter(keys.KeySet, keys.Verifier, testIssuer, "test", st, logger)
	router.TokenService = tokens
	router.AuthorizeService = authorize
	router.UserService = service.NewUserService(st)
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func postForm(t *testing.T, url string, form map[string]string) *http.Response {
	t.Helper()
	values := make(map[string][]string, len(form))
	for k, v := range form {
		values[k] = []string{v}
	}
	resp, err := http.PostForm(url, values)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestTokenEndpoint(t *testing.T) {
	srv := newTestServer(t)

	t.Run("password grant issues a bearer token", func(t *testing.T) {
		resp := postForm(t, srv.URL+"/connect/token", map[string]string{
			"grant_type":    "password",
			"client_id":     testClientID,
			"client_secret": testClientSecret,
			"username":      "manager@test.com",
			"password":      testPassword,
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "no-store", resp.Header.Get("Cache-Control"))

		var body oauth2x.TokenResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.NotEmpty(t, body.AccessToken)
		require.Equal(t, "Bearer", body.TokenType)
		require.Contains(t, body.Scope, "manager.transport.api")
		require.Empty(t, body.RefreshToken)
	})

	t.Run("offline_access adds a refresh token that can rotate", func(t *testing.T) {
		resp := postForm(t, srv.URL+"/connect/token", map[string]string{
			"grant_type":    "password",
			"client_id":     testClientID,
			"client_secret": testClientSecret,
			"username":      "manager@test.com",
			"password":      testPassword,
			"scope":         "manager.transport.api offline_access",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var first oauth2x.TokenResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&first))
		require.NotEmpty(t, first.RefreshToken)

		resp = postForm(t, srv.URL+"/connect/token", map[string]string{
			"grant_type":    "refresh_token",
			"client_id":     testClientID,
			"client_secret": testClientSecret,
			"refresh_token": first.RefreshToken,
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var second oauth2x.TokenResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&second))
		require.NotEmpty(t, second.AccessToken)
		require.NotEqual(t, first.RefreshToken, second.RefreshToken)
	})

	t.Run("wrong password is invalid_grant", func(t *testing.T) {
		resp := postForm(t, srv.URL+"/connect/token", map[string]string{
			"grant_type":    "password",
			"client_id":     testClientID,
			"client_secret": testClientSecret,
			"username":      "manager@test.com",
			"password":      "nope",
		})
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		var body map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.Equal(t, "invalid_grant", body["error"])
	})

	t.Run("confidential client without its secret is invalid_client", func(t *testing.T) {
		resp := postForm(t, srv.URL+"/connect/token", map[string]string{
			"grant_type": "password",
			"client_id":  testClientID,
			"username":   "manager@test.com",
			"password":   testPassword,
		})
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		var body map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.Equal(t, "invalid_client", body["error"])
	})

	t.Run("unknown grant type is unsupported_grant_type", func(t *testing.T) {
		resp := postForm(t, srv.URL+"/connect/token", map[string]string{
			"grant_type": "client_credentials",
			"client_id":  testClientID,
		})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var body map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.Equal(t, "unsupported_grant_type", body["error"])
	})

	t.Run("JSON bodies are refused", func(t *testing.T) {
		resp, err := http.Post(srv.URL+"/connect/token", "application/json",
			strings.NewReader(`{"grant_type":"password"}`))
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestUserInfoEndpoint(t *testing.T) {
	srv := newTestServer(t)

	login := func(t *testing.T, scope string) string {
		t.Helper()
		form := map[string]string{
			"grant_type":    "password",
			"client_id":     testClientID,
			"client_secret": testClientSecret,
			"username":      "manager@test.com",
			"password":      testPassword,
		}
		if scope != "" {
			form["scope"] = scope
		}
		resp := postForm(t, srv.URL+"/connect/token", form)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var body oauth2x.TokenResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		return body.AccessToken
	}

	get := func(t *testing.T, token string) *http.Response {
		t.Helper()
		req, err := http.NewRequest(http.MethodGet, srv.URL+"/connect/userinfo", nil)
		require.NoError(t, err)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		t.Cleanup(func() { resp.Body.Close() })
		return resp
	}

	t.Run("email claim requires the email scope", func(t *testing.T) {
		resp := get(t, login(t, ""))
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var info oauth2x.UserInfoResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
		require.NotEmpty(t, info.Sub)
		require.Equal(t, []string{domain.RoleManager}, info.Roles)
		require.Empty(t, info.Email, "email scope was not granted")
	})

	t.Run("email and name released with email and profile scopes", func(t *testing.T) {
		resp := get(t, login(t, "manager.transport.api email profile"))
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var info oauth2x.UserInfoResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
		require.Equal(t, "manager@test.com", info.Email)
		require.Equal(t, "Manager", info.Name)
	})

	t.Run("no token is a bearer challenge", func(t *testing.T) {
		resp := get(t, "")
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		require.Contains(t, resp.Header.Get("WWW-Authenticate"), "invalid_token")
	})
}

func TestAuthorizeEndpoint(t *testing.T) {
	srv := newTestServer(t)

	t.Run("GET without a session demands login", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/connect/authorize?response_type=code&client_id=" + testClientID +
			"&redirect_uri=" + url.QueryEscape("https://app.example.test/callback"))
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.Equal(t, "login_required", body["error"])
	})

	t.Run("POST with credentials redirects with a redeemable code", func(t *testing.T) {
		noRedirect := &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}

		form := url.Values{
			"response_type": {"code"},
			"client_id":     {testClientID},
			"redirect_uri":  {"https://app.example.test/callback"},
			"scope":         {"manager.transport.api"},
			"state":         {"xyz"},
			"username":      {"manager@test.com"},
			"password":      {testPassword},
		}
		resp, err := noRedirect.PostForm(srv.URL+"/connect/authorize", form)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusFound, resp.StatusCode)

		location, err := url.Parse(resp.Header.Get("Location"))
		require.NoError(t, err)
		require.Equal(t, "app.example.test", location.Host)
		require.Equal(t, "xyz", location.Query().Get("state"))

		code := location.Query().Get("code")
		require.NotEmpty(t, code)

		tokenResp := postForm(t, srv.URL+"/connect/token", map[string]string{
			"grant_type":    "authorization_code",
			"client_id":     testClientID,
			"client_secret": testClientSecret,
			"code":          code,
			"redirect_uri":  "https://app.example.test/callback",
		})
		require.Equal(t, http.StatusOK, tokenResp.StatusCode)

		var body oauth2x.TokenResponse
		require.NoError(t, json.NewDecoder(tokenResp.Body).Decode(&body))
		require.NotEmpty(t, body.AccessToken)
	})
}

func TestSystemEndpoints(t *testing.T) {
	srv := newTestServer(t)

	t.Run("livez", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/livez")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body oauth2x.HealthResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.Equal(t, "ok", body.Status)
	})

	t.Run("readyz reports database and signer checks", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/readyz")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body oauth2x.HealthResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.Equal(t, "ok", body.Status)
		require.NotNil(t, body.Checks)
		require.Equal(t, "ok", body.Checks.Database)
		require.Equal(t, "ok", body.Checks.Signer)
	})

	t.Run("jwks publishes at least one key", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/.well-known/jwks.json")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var jwks jwtx.JWKS
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&jwks))
		require.NotEmpty(t, jwks.Keys)
	})
}
