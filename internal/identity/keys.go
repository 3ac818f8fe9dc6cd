// AngelaMos | 2026
// keys.go

package identity

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwk"
)

const minKeyRefresh = 30 * time.Second

// keyCache holds the realm's JWKS for ttl. An unknown kid forces a refresh,
// at most once per minKeyRefresh, so rotated keys are picked up early.
type keyCache struct {
	mu        sync.RWMutex
	set       jwk.Set
	fetchedAt time.Time
	ttl       time.Duration
	fetch     func(ctx context.Context) (jwk.Set, error)
	now       func() time.Time
}

func newKeyCache(ttl time.Duration, fetch func(ctx context.Context) (jwk.Set, error)) *keyCache {
	return &keyCache{ttl: ttl, fetch: fetch, now: time.Now}
}

func (c *keyCache) keySet(ctx context.Context, kid string) (jwk.Set, error) {
	c.mu.RLock()
	set := c.set
	fresh := set != nil && c.now().Sub(c.fetchedAt) < c.ttl
	c.mu.RUnlock()

	if fresh {
		if kid == "" {
			return set, nil
		}
		if _, ok := set.LookupKeyID(kid); ok {
			return set, nil
		}
	}

	return c.refresh(ctx, kid)
}

func (c *keyCache) refresh(ctx context.Context, kid string) (jwk.Set, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.set != nil {
		age := c.now().Sub(c.fetchedAt)
		if age < minKeyRefresh {
			return c.set, nil
		}
		if age < c.ttl {
			if _, ok := c.set.LookupKeyID(kid); ok {
				return c.set, nil
			}
		}
	}

	set, err := c.fetch(ctx)
	if err != nil {
		if c.set != nil {
			slog.WarnContext(ctx, "jwks refresh failed, keeping cached keys", "error", err)
			return c.set, nil
		}
		return nil, err
	}

	c.set = set
	c.fetchedAt = c.now()
	return set, nil
}

// tokenKeyID reads the kid from a compact JWS header without verifying it.
func tokenKeyID(raw string) string {
	header, _, ok := strings.Cut(raw, ".")
	if !ok {
		return ""
	}
	data, err := base64.RawURLEncoding.DecodeString(header)
	if err != nil {
		return ""
	}
	var h struct {
		KeyID string `json:"kid"`
	}
	if err := json.Unmarshal(data, &h); err != nil {
		return ""
	}
	return h.KeyID
}

// decodeClaims reads the payload of a token whose signature is already verified.
func decodeClaims(raw string) (*Claims, error) {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("token has %d segments", len(parts))
	}
	data, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	var claims Claims
	if err := json.Unmarshal(data, &claims); err != nil {
		return nil, fmt.Errorf("unmarshal claims: %w", err)
	}
	return &claims, nil
}
