package jwtx_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tollgate-labs/tollgate/pkg/cryptox"
	"github.com/tollgate-labs/tollgate/pkg/jwtx"
)

func TestEdDSASignAndVerify(t *testing.T) {
	pemKey, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)

	kid := "test-key-eddsa"

	signer, err := jwtx.NewSignerEdDSA(kid, pemKey)
	require.NoError(t, err)
	require.NotNil(t, signer)
	require.NoError(t, signer.Validate())
	require.Equal(t, "EdDSA", signer.Alg())
	require.Equal(t, kid, signer.KID())

	now := time.Now().UTC()
	claims := jwtx.NewAccessClaims(
		"user-456",
		"session-eddsa1",
		[]string{"user.transport.api", "manager.transport.api"},
		[]string{"Manager"},
		"manager@test.com",
		"manager",
		5*time.Minute,
		exampleIssuer,
		[]string{"TransportApi"},
		now,
	)

	token, err := signer.Sign(claims)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	keyset := jwtx.NewKeySet()
	require.NoError(t, keyset.AddSigner(signer))

	jwks := keyset.PublicJWKS()
	require.Len(t, jwks.Keys, 1)
	require.Equal(t, "OKP", jwks.Keys[0].Kty)
	require.Equal(t, "Ed25519", jwks.Keys[0].Crv)
	require.NotEmpty(t, jwks.Keys[0].X)

	verifier := jwtx.NewVerifierEdDSA(keyset, exampleIssuer, []string{"TransportApi"})

	parsed, err := verifier.Verify(token)
	require.NoError(t, err)
	require.NotNil(t, parsed)

	require.Equal(t, claims.Issuer, parsed.Issuer)
	require.Equal(t, claims.Subject, parsed.Subject)
	require.Equal(t, claims.SID, parsed.SID)
	require.ElementsMatch(t, claims.Audience, parsed.Audience)
	require.ElementsMatch(t, claims.Scope, parsed.Scope)
	require.ElementsMatch(t, claims.Roles, parsed.Roles)
	require.Equal(t, claims.Email, parsed.Email)
}

func TestEdDSAVerifyRejectsWrongAudience(t *testing.T) {
	pemKey, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)

	signer, err := jwtx.NewSignerEdDSA("k1", pemKey)
	require.NoError(t, err)

	claims := jwtx.NewAccessClaims(
		"user-1", "sess-1", nil, nil, "", "",
		time.Minute, exampleIssuer, []string{"SportsApi"}, time.Now().UTC(),
	)
	token, err := signer.Sign(claims)
	require.NoError(t, err)

	keyset := jwtx.NewKeySet()
	require.NoError(t, keyset.AddSigner(signer))

	verifier := jwtx.NewVerifierEdDSA(keyset, exampleIssuer, []string{"TransportApi"})
	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, jwtx.ErrAudience)
}

func TestEdDSAVerifyRejectsUnknownKid(t *testing.T) {
	pemKey, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)

	signer, err := jwtx.NewSignerEdDSA("k1", pemKey)
	require.NoError(t, err)

	claims := jwtx.NewAccessClaims(
		"user-1", "sess-1", nil, nil, "", "",
		time.Minute, exampleIssuer, nil, time.Now().UTC(),
	)
	token, err := signer.Sign(claims)
	require.NoError(t, err)

	// Verify against a keyset holding a different key.
	otherPEM, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)
	other, err := jwtx.NewSignerEdDSA("k2", otherPEM)
	require.NoError(t, err)

	keyset := jwtx.NewKeySet()
	require.NoError(t, keyset.AddSigner(other))

	verifier := jwtx.NewVerifierEdDSA(keyset, exampleIssuer, nil)
	_, err = verifier.Verify(token)
	require.Error(t, err)
}

func TestEdDSAVerifyRejectsExpired(t *testing.T) {
	pemKey, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)

	signer, err := jwtx.NewSignerEdDSA("k1", pemKey)
	require.NoError(t, err)

	claims := jwtx.NewAccessClaims(
		"user-1", "sess-1", nil, nil, "", "",
		time.Minute, exampleIssuer, nil, time.Now().UTC().Add(-time.Hour),
	)
	token, err := signer.Sign(claims)
	require.NoError(t, err)

	keyset := jwtx.NewKeySet()
	require.NoError(t, keyset.AddSigner(signer))

	verifier := jwtx.NewVerifierEdDSA(keyset, exampleIssuer, nil)
	_, err = verifier.Verify(token)
	require.Error(t, err)
}
