package jwtx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const remoteJWKSCacheKey = "jwks"

// DefaultJWKSRefreshInterval is how long a fetched JWKS document is trusted
// before the next request triggers a refetch.
const DefaultJWKSRefreshInterval = 5 * time.Minute

// RemoteKeySource keeps a KeySet populated from a remote JWKS endpoint.
// Resource APIs use it to verify tokens minted by the identity service
// without sharing key material.
//
// The fetched document is cached; a refresh only happens once the cache
// entry expires. Signing keys on the issuer side are ephemeral, so a
// restart of the issuer shows up here within one refresh interval.
type RemoteKeySource struct {
	URL     string
	KeySet  *KeySet
	Client  *http.Client
	Refresh time.Duration

	cache *gocache.Cache
}

// NewRemoteKeySource creates a key source that pulls keys from the given
// JWKS URL. No fetch happens until Ensure is called.
func NewRemoteKeySource(url string, refresh time.Duration) *RemoteKeySource {
	if refresh <= 0 {
		refresh = DefaultJWKSRefreshInterval
	}
	return &RemoteKeySource{
		URL:     url,
		KeySet:  NewKeySet(),
		Client:  &http.Client{Timeout: 10 * time.Second},
		Refresh: refresh,
		cache:   gocache.New(refresh, time.Minute),
	}
}

// Ensure makes sure the KeySet holds a reasonably fresh copy of the remote
// key material, fetching the JWKS document if the cached copy has expired.
// On fetch failure the previously loaded keys stay in place.
func (r *RemoteKeySource) Ensure(ctx context.Context) error {
	if _, ok := r.cache.Get(remoteJWKSCacheKey); ok && r.KeySet.IsReady() {
		return nil
	}

	jwks, err := r.fetch(ctx)
	if err != nil {
		if r.KeySet.IsReady() {
			// Stale keys beat no keys.
			return nil
		}
		return err
	}

	if err := r.KeySet.ResetFromJWKS(jwks); err != nil {
		return fmt.Errorf("jwtx: load remote jwks: %w", err)
	}
	r.cache.Set(remoteJWKSCacheKey, time.Now(), r.Refresh)
	return nil
}

// Invalidate drops the cached document so the next Ensure refetches. Call
// this after a verification fails with an unknown kid.
func (r *RemoteKeySource) Invalidate() {
	r.cache.Delete(remoteJWKSCacheKey)
}

func (r *RemoteKeySource) fetch(ctx context.Context) (JWKS, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.URL, nil)
	if err != nil {
		return JWKS{}, fmt.Errorf("jwtx: build jwks request: %w", err)
	}

	resp, err := r.Client.Do(req)
	if err != nil {
		return JWKS{}, fmt.Errorf("jwtx: fetch jwks: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return JWKS{}, fmt.Errorf("jwtx: fetch jwks: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return JWKS{}, fmt.Errorf("jwtx: read jwks body: %w", err)
	}

	var jwks JWKS
	if err := json.Unmarshal(body, &jwks); err != nil {
		return JWKS{}, fmt.Errorf("jwtx: decode jwks: %w", err)
	}
	return jwks, nil
}
