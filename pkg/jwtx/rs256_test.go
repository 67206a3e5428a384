package jwtx_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tollgate-labs/tollgate/pkg/cryptox"
	"github.com/tollgate-labs/tollgate/pkg/jwtx"
)

func TestRS256SignAndVerify(t *testing.T) {
	pemKey, err := cryptox.GenerateRSAKey(2048)
	require.NoError(t, err)

	kid := "test-key-rs256"

	signer, err := jwtx.NewSignerRS256(kid, pemKey)
	require.NoError(t, err)
	require.NoError(t, signer.Validate())
	require.Equal(t, "RS256", signer.Alg())
	require.Equal(t, kid, signer.KID())

	now := time.Now().UTC()
	claims := jwtx.NewAccessClaims(
		"user-123",
		"session-rs1",
		[]string{"admin.transport.api", "admin.sports.api"},
		[]string{"Admin"},
		"admin@test.com",
		"admin",
		5*time.Minute,
		exampleIssuer,
		[]string{"TransportApi", "SportsApi"},
		now,
	)

	token, err := signer.Sign(claims)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	keyset := jwtx.NewKeySet()
	require.NoError(t, keyset.AddSigner(signer))

	jwks := keyset.PublicJWKS()
	require.Len(t, jwks.Keys, 1)
	require.Equal(t, "RSA", jwks.Keys[0].Kty)
	require.NotEmpty(t, jwks.Keys[0].N)
	require.NotEmpty(t, jwks.Keys[0].E)

	verifier := jwtx.NewVerifierRS256(keyset, exampleIssuer, []string{"SportsApi"})

	parsed, err := verifier.Verify(token)
	require.NoError(t, err)
	require.Equal(t, claims.Subject, parsed.Subject)
	require.ElementsMatch(t, claims.Scope, parsed.Scope)
	require.ElementsMatch(t, claims.Roles, parsed.Roles)
}

func TestRS256RejectsSmallKey(t *testing.T) {
	_, err := cryptox.GenerateRSAKey(1024)
	require.Error(t, err)
}

func TestRS256VerifyRejectsEdDSAToken(t *testing.T) {
	edPEM, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)
	edSigner, err := jwtx.NewSignerEdDSA("k-ed", edPEM)
	require.NoError(t, err)

	claims := jwtx.NewAccessClaims(
		"user-1", "sess-1", nil, nil, "", "",
		time.Minute, exampleIssuer, nil, time.Now().UTC(),
	)
	token, err := edSigner.Sign(claims)
	require.NoError(t, err)

	keyset := jwtx.NewKeySet()
	require.NoError(t, keyset.AddSigner(edSigner))

	// RS256 verifier must refuse an EdDSA-signed token outright.
	verifier := jwtx.NewVerifierRS256(keyset, exampleIssuer, nil)
	_, err = verifier.Verify(token)
	require.Error(t, err)
}
