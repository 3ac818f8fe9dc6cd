// AngelaMos | 2026
// client_test.go

package identity

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/platform-gateway/internal/config"
	"github.com/carterperez-dev/platform-gateway/internal/core"
)

type fakeRealm struct {
	t        *testing.T
	srv      *httptest.Server
	mu       sync.Mutex
	keys     jwk.Set
	jwksHits atomic.Int32
	lastForm url.Values
	lastAuth string
}

func newFakeRealm(t *testing.T) *fakeRealm {
	t.Helper()
	f := &fakeRealm{t: t, keys: jwk.NewSet()}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /realms/acme/protocol/openid-connect/certs", func(w http.ResponseWriter, r *http.Request) {
		f.jwksHits.Add(1)
		f.mu.Lock()
		defer f.mu.Unlock()
		writeJSON(w, http.StatusOK, f.keys)
	})
	mux.HandleFunc("POST /realms/acme/protocol/openid-connect/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		f.mu.Lock()
		f.lastForm = r.PostForm
		f.mu.Unlock()

		switch r.PostForm.Get("grant_type") {
		case "authorization_code":
			if r.PostForm.Get("code") != "good-code" {
				writeJSON(w, http.StatusBadRequest, map[string]string{
					"error":             "invalid_grant",
					"error_description": "Code not valid",
				})
				return
			}
		case "client_credentials", "refresh_token":
		default:
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unsupported_grant_type"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token":  "at-" + r.PostForm.Get("grant_type"),
			"refresh_token": "rt-1",
			"token_type":    "Bearer",
			"expires_in":    300,
		})
	})
	mux.HandleFunc("GET /realms/acme/protocol/openid-connect/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at-1" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_token"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"sub": "sub-1", "email": "ann@acme.test", "preferred_username": "ann",
		})
	})
	mux.HandleFunc("POST /realms/acme/protocol/openid-connect/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("PUT /admin/realms/acme/users/{id}/execute-actions-email", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.lastAuth = r.Header.Get("Authorization")
		f.mu.Unlock()
		var actions []string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&actions))
		assert.Equal(t, []string{"UPDATE_PASSWORD"}, actions)
		if r.PathValue("id") == "missing" {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "User not found"})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("POST /admin/realms/acme/users", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", f.srv.URL+"/admin/realms/acme/users/new-sub-9")
		w.WriteHeader(http.StatusCreated)
	})

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeRealm) publish(key jwk.Key) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pub, err := key.PublicKey()
	require.NoError(f.t, err)

	var kid string
	require.NoError(f.t, key.Get(jwk.KeyIDKey, &kid))
	require.NoError(f.t, pub.Set(jwk.KeyIDKey, kid))
	require.NoError(f.t, pub.Set(jwk.AlgorithmKey, jwa.ES256()))
	require.NoError(f.t, f.keys.AddKey(pub))
}

func (f *fakeRealm) client() *Client {
	return NewClient(config.IdentityConfig{
		ServerURL:    f.srv.URL,
		Realm:        "acme",
		ClientID:     "gateway",
		ClientSecret: "s3cret",
		RedirectURL:  "http://app.test/callback",
		JWKSCacheTTL: time.Hour,
		Timeout:      5 * time.Second,
	}, nil)
}

func (f *fakeRealm) issuer() string {
	return f.srv.URL + "/realms/acme"
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func newSigningKey(t *testing.T, kid string) jwk.Key {
	t.Helper()
	raw, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	key, err := jwk.Import(raw)
	require.NoError(t, err)
	require.NoError(t, key.Set(jwk.KeyIDKey, kid))
	require.NoError(t, key.Set(jwk.AlgorithmKey, jwa.ES256()))
	return key
}

func signToken(t *testing.T, key jwk.Key, issuer string, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewBuilder().
		Issuer(issuer).
		Subject("sub-1").
		JwtID("jti-1").
		IssuedAt(exp.Add(-time.Hour)).
		Expiration(exp).
		Claim("email", "ann@acme.test").
		Claim("tenant_id", "t-1").
		Claim("realm_access", map[string]any{"roles": []string{"admin", "offline_access"}}).
		Claim("groups", []string{"/managers"}).
		Build()
	require.NoError(t, err)

	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.ES256(), key))
	require.NoError(t, err)
	return string(signed)
}

func TestAuthorizationURL(t *testing.T) {
	f := newFakeRealm(t)
	u, err := url.Parse(f.client().AuthorizationURL("st-1"))
	require.NoError(t, err)

	assert.Equal(t, "/realms/acme/protocol/openid-connect/auth", u.Path)
	q := u.Query()
	assert.Equal(t, "openid profile email", q.Get("scope"))
	assert.Equal(t, "st-1", q.Get("state"))
	assert.Equal(t, "gateway", q.Get("client_id"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "http://app.test/callback", q.Get("redirect_uri"))
}

func TestExchangeCode(t *testing.T) {
	f := newFakeRealm(t)
	c := f.client()

	tokens, err := c.ExchangeCode(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, "at-authorization_code", tokens.AccessToken)
	assert.Equal(t, "s3cret", f.lastForm.Get("client_secret"))
	assert.Equal(t, "http://app.test/callback", f.lastForm.Get("redirect_uri"))

	_, err = c.ExchangeCode(context.Background(), "bad-code")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrUnauthorized)
	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, http.StatusBadRequest, perr.Status)
	assert.Contains(t, err.Error(), "Code not valid")
}

func TestUserInfoAndLogout(t *testing.T) {
	f := newFakeRealm(t)
	c := f.client()

	info, err := c.UserInfo(context.Background(), "at-1")
	require.NoError(t, err)
	assert.Equal(t, "sub-1", info.Subject)
	assert.Equal(t, "ann", info.DisplayName())

	_, err = c.UserInfo(context.Background(), "wrong")
	assert.ErrorIs(t, err, core.ErrUpstream)

	assert.NoError(t, c.Logout(context.Background(), "rt-1"))
}

func TestSendPasswordResetUsesServiceToken(t *testing.T) {
	f := newFakeRealm(t)
	c := f.client()

	require.NoError(t, c.SendPasswordReset(context.Background(), "sub-1"))
	assert.Equal(t, "Bearer at-client_credentials", f.lastAuth)

	err := c.SendPasswordReset(context.Background(), "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestCreateUserReturnsSubject(t *testing.T) {
	f := newFakeRealm(t)
	sub, err := f.client().CreateUser(context.Background(), "bo@acme.test", "Bo")
	require.NoError(t, err)
	assert.Equal(t, "new-sub-9", sub)
}

func TestValidateToken(t *testing.T) {
	f := newFakeRealm(t)
	key := newSigningKey(t, "k1")
	f.publish(key)
	c := f.client()
	ctx := context.Background()

	t.Run("valid", func(t *testing.T) {
		claims, err := c.ValidateToken(ctx, signToken(t, key, f.issuer(), time.Now().Add(time.Hour)))
		require.NoError(t, err)
		assert.Equal(t, "sub-1", claims.Subject)
		assert.Equal(t, "jti-1", claims.TokenID)
		assert.Equal(t, "t-1", claims.TenantID)
		assert.Equal(t, []string{"admin", "managers"}, c.Roles(claims))
	})

	t.Run("expired", func(t *testing.T) {
		_, err := c.ValidateToken(ctx, signToken(t, key, f.issuer(), time.Now().Add(-time.Hour)))
		assert.ErrorIs(t, err, core.ErrTokenExpired)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		_, err := c.ValidateToken(ctx, signToken(t, key, "https://evil.test/realms/acme", time.Now().Add(time.Hour)))
		assert.ErrorIs(t, err, core.ErrTokenInvalid)
	})

	t.Run("wrong key", func(t *testing.T) {
		other := newSigningKey(t, "k1")
		_, err := c.ValidateToken(ctx, signToken(t, other, f.issuer(), time.Now().Add(time.Hour)))
		assert.ErrorIs(t, err, core.ErrTokenInvalid)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := c.ValidateToken(ctx, "not.a.token")
		assert.ErrorIs(t, err, core.ErrTokenInvalid)
	})

	assert.Equal(t, int32(1), f.jwksHits.Load())
}

func TestValidateTokenPicksUpRotatedKey(t *testing.T) {
	f := newFakeRealm(t)
	first := newSigningKey(t, "k1")
	f.publish(first)
	c := f.client()
	ctx := context.Background()

	_, err := c.ValidateToken(ctx, signToken(t, first, f.issuer(), time.Now().Add(time.Hour)))
	require.NoError(t, err)

	rotated := newSigningKey(t, "k2")
	f.publish(rotated)
	later := time.Now().Add(time.Minute)
	c.keys.now = func() time.Time { return later }

	_, err = c.ValidateToken(ctx, signToken(t, rotated, f.issuer(), time.Now().Add(time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.jwksHits.Load())
}
