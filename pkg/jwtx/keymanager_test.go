package jwtx_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tollgate-labs/tollgate/pkg/jwtx"
)

func TestNewEphemeralKeyManagerEdDSA(t *testing.T) {
	km, err := jwtx.NewEphemeralKeyManager(jwtx.KeyManagerOptions{
		Algorithm: jwtx.AlgorithmEdDSA,
		Issuer:    exampleIssuer,
		Audience:  []string{"TransportApi"},
		NumKeys:   3,
	})
	require.NoError(t, err)
	require.True(t, km.IsReady())
	require.Equal(t, jwtx.AlgorithmEdDSA, km.Algorithm())
	require.Equal(t, 3, km.NumSigners())

	// Every published key has to be an Ed25519 JWK.
	jwks := km.KeySet.PublicJWKS()
	require.Len(t, jwks.Keys, 3)
	for _, k := range jwks.Keys {
		require.Equal(t, "OKP", k.Kty)
	}

	// A token signed by any pool member verifies against the manager.
	signer := km.GetSigner()
	require.NotNil(t, signer)

	claims := jwtx.NewAccessClaims(
		"user-1", "sess-1",
		[]string{"user.transport.api"}, []string{"User"},
		"user@test.com", "user",
		time.Minute, exampleIssuer, []string{"TransportApi"}, time.Now().UTC(),
	)
	token, err := signer.Sign(claims)
	require.NoError(t, err)

	parsed, err := km.Verifier.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", parsed.Subject)
}

func TestNewEphemeralKeyManagerRequiresIssuer(t *testing.T) {
	_, err := jwtx.NewEphemeralKeyManager(jwtx.KeyManagerOptions{
		Algorithm: jwtx.AlgorithmEdDSA,
	})
	require.Error(t, err)
}

func TestNewEphemeralKeyManagerRejectsUnknownAlgorithm(t *testing.T) {
	_, err := jwtx.NewEphemeralKeyManager(jwtx.KeyManagerOptions{
		Algorithm: "HS256",
		Issuer:    exampleIssuer,
	})
	require.Error(t, err)
}

func TestKeyManagerRetire(t *testing.T) {
	km, err := jwtx.NewEphemeralKeyManager(jwtx.KeyManagerOptions{
		Algorithm: jwtx.AlgorithmEdDSA,
		Issuer:    exampleIssuer,
		NumKeys:   2,
	})
	require.NoError(t, err)

	signer := km.GetSigner()
	require.NoError(t, km.RetireSignerByKid(signer.KID()))
	require.Equal(t, 1, km.NumSigners())

	// Tokens signed before retirement still verify: the key stays in the
	// KeySet.
	claims := jwtx.NewAccessClaims(
		"user-1", "sess-1", nil, nil, "", "",
		time.Minute, exampleIssuer, nil, time.Now().UTC(),
	)
	token, err := signer.Sign(claims)
	require.NoError(t, err)
	_, err = km.Verifier.Verify(token)
	require.NoError(t, err)

	// The last key is not retireable.
	last := km.GetSigner()
	require.Error(t, km.RetireSignerByKid(last.KID()))
}
