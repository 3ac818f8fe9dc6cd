// AngelaMos | 2026
// client.go

package identity

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/platform-gateway/internal/config"
	"github.com/carterperez-dev/platform-gateway/internal/core"
)

const (
	loginScope    = "openid profile email"
	clockSkew     = 30 * time.Second
	upstreamLabel = "identity"
)

// Client talks to one realm of a Keycloak-style OIDC provider. Every call is
// a single request; failures are returned to the caller as they happen.
type Client struct {
	http    *resty.Client
	cfg     config.IdentityConfig
	issuer  string
	keys    *keyCache
	metrics *core.Metrics
}

func NewClient(cfg config.IdentityConfig, metrics *core.Metrics) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &Client{
		http: resty.New().
			SetBaseURL(strings.TrimRight(cfg.ServerURL, "/")).
			SetTimeout(timeout).
			SetHeader("Accept", "application/json"),
		cfg:     cfg,
		issuer:  cfg.Issuer(),
		metrics: metrics,
	}

	ttl := cfg.JWKSCacheTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	c.keys = newKeyCache(ttl, c.fetchKeys)

	return c
}

func (c *Client) realmPath(parts ...string) string {
	return path.Join(append([]string{"/realms", c.cfg.Realm}, parts...)...)
}

func (c *Client) oidcPath(endpoint string) string {
	return c.realmPath("protocol", "openid-connect", endpoint)
}

func (c *Client) adminPath(parts ...string) string {
	return path.Join(append([]string{"/admin/realms", c.cfg.Realm}, parts...)...)
}

// AuthorizationURL is where the browser is sent to start the code flow.
func (c *Client) AuthorizationURL(state string) string {
	q := url.Values{}
	q.Set("client_id", c.cfg.ClientID)
	q.Set("redirect_uri", c.cfg.RedirectURL)
	q.Set("response_type", "code")
	q.Set("scope", loginScope)
	q.Set("state", state)

	return c.http.BaseURL + c.oidcPath("auth") + "?" + q.Encode()
}

func (c *Client) ExchangeCode(ctx context.Context, code string) (*TokenSet, error) {
	return c.token(ctx, "exchange code", map[string]string{
		"grant_type":   "authorization_code",
		"code":         code,
		"redirect_uri": c.cfg.RedirectURL,
	})
}

func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenSet, error) {
	return c.token(ctx, "refresh token", map[string]string{
		"grant_type":    "refresh_token",
		"refresh_token": refreshToken,
	})
}

func (c *Client) token(ctx context.Context, op string, form map[string]string) (*TokenSet, error) {
	form["client_id"] = c.cfg.ClientID
	if c.cfg.ClientSecret != "" {
		form["client_secret"] = c.cfg.ClientSecret
	}

	var tokens TokenSet
	err := c.do(ctx, op, func(req *resty.Request) (*resty.Response, error) {
		return req.SetFormData(form).SetResult(&tokens).Post(c.oidcPath("token"))
	})
	if err != nil {
		return nil, err
	}
	if tokens.AccessToken == "" {
		return nil, fmt.Errorf("%s: empty access token: %w", op, core.ErrUpstream)
	}
	return &tokens, nil
}

func (c *Client) UserInfo(ctx context.Context, accessToken string) (*UserInfo, error) {
	var info UserInfo
	err := c.do(ctx, "userinfo", func(req *resty.Request) (*resty.Response, error) {
		return req.SetAuthToken(accessToken).SetResult(&info).Get(c.oidcPath("userinfo"))
	})
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// Logout ends the provider session that issued refreshToken.
func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	form := map[string]string{
		"client_id":     c.cfg.ClientID,
		"refresh_token": refreshToken,
	}
	if c.cfg.ClientSecret != "" {
		form["client_secret"] = c.cfg.ClientSecret
	}

	return c.do(ctx, "logout", func(req *resty.Request) (*resty.Response, error) {
		return req.SetFormData(form).Post(c.oidcPath("logout"))
	})
}

// SendPasswordReset asks the provider to email subject an UPDATE_PASSWORD action.
func (c *Client) SendPasswordReset(ctx context.Context, subject string) error {
	adminToken, err := c.serviceToken(ctx)
	if err != nil {
		return err
	}

	return c.do(ctx, "password reset", func(req *resty.Request) (*resty.Response, error) {
		return req.
			SetAuthToken(adminToken).
			SetQueryParam("client_id", c.cfg.ClientID).
			SetHeader("Content-Type", "application/json").
			SetBody([]string{"UPDATE_PASSWORD"}).
			Put(c.adminPath("users", subject, "execute-actions-email"))
	})
}

type newProviderUser struct {
	Username      string `json:"username"`
	Email         string `json:"email"`
	FirstName     string `json:"firstName,omitempty"`
	Enabled       bool   `json:"enabled"`
	EmailVerified bool   `json:"emailVerified"`
}

// CreateUser registers a user in the realm and returns its subject id.
func (c *Client) CreateUser(ctx context.Context, email, name string) (string, error) {
	adminToken, err := c.serviceToken(ctx)
	if err != nil {
		return "", err
	}

	var location string
	err = c.do(ctx, "create user", func(req *resty.Request) (*resty.Response, error) {
		resp, err := req.
			SetAuthToken(adminToken).
			SetHeader("Content-Type", "application/json").
			SetBody(newProviderUser{
				Username:  email,
				Email:     email,
				FirstName: name,
				Enabled:   true,
			}).
			Post(c.adminPath("users"))
		if resp != nil {
			location = resp.Header().Get("Location")
		}
		return resp, err
	})
	if err != nil {
		return "", err
	}

	subject := path.Base(location)
	if location == "" || subject == "." || subject == "/" {
		return "", fmt.Errorf("create user: missing Location header: %w", core.ErrUpstream)
	}
	return subject, nil
}

// serviceToken is a client-credentials token for admin API calls.
func (c *Client) serviceToken(ctx context.Context) (string, error) {
	tokens, err := c.token(ctx, "service token", map[string]string{
		"grant_type": "client_credentials",
	})
	if err != nil {
		return "", err
	}
	return tokens.AccessToken, nil
}

// ValidateToken verifies signature, expiry and issuer before decoding claims.
func (c *Client) ValidateToken(ctx context.Context, raw string) (*Claims, error) {
	set, err := c.keys.keySet(ctx, tokenKeyID(raw))
	if err != nil {
		return nil, fmt.Errorf("validate token: %w", err)
	}

	token, err := jwt.Parse(
		[]byte(raw),
		jwt.WithKeySet(set),
		jwt.WithValidate(true),
		jwt.WithIssuer(c.issuer),
		jwt.WithAcceptableSkew(clockSkew),
	)
	if err != nil {
		if isTokenExpiredError(err) {
			return nil, fmt.Errorf("validate token: %w", core.ErrTokenExpired)
		}
		return nil, fmt.Errorf("validate token: %v: %w", err, core.ErrTokenInvalid)
	}

	subject, ok := token.Subject()
	if !ok || subject == "" {
		return nil, fmt.Errorf("validate token: missing subject: %w", core.ErrTokenInvalid)
	}

	claims, err := decodeClaims(raw)
	if err != nil {
		return nil, fmt.Errorf("validate token: %v: %w", err, core.ErrTokenInvalid)
	}

	return claims, nil
}

// Roles applies ExtractRoles with this client's id and realm.
func (c *Client) Roles(claims *Claims) []string {
	return ExtractRoles(claims, c.cfg.ClientID, c.cfg.Realm)
}

// Ping fetches the realm discovery document.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, "discovery", func(req *resty.Request) (*resty.Response, error) {
		return req.Get(c.realmPath(".well-known", "openid-configuration"))
	})
}

func (c *Client) fetchKeys(ctx context.Context) (jwk.Set, error) {
	var body []byte
	err := c.do(ctx, "jwks", func(req *resty.Request) (*resty.Response, error) {
		resp, err := req.Get(c.oidcPath("certs"))
		if resp != nil {
			body = resp.Body()
		}
		return resp, err
	})
	if err != nil {
		return nil, err
	}

	set, err := jwk.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse jwks: %v: %w", err, core.ErrUpstream)
	}
	return set, nil
}

func (c *Client) do(
	ctx context.Context,
	op string,
	call func(*resty.Request) (*resty.Response, error),
) (err error) {
	ctx, span := core.StartSpan(ctx, "identity."+strings.ReplaceAll(op, " ", "_"),
		attribute.String("identity.realm", c.cfg.Realm),
	)
	start := time.Now()
	defer func() {
		if err != nil {
			core.SetSpanError(ctx, err)
		}
		span.End()
		c.metrics.ObserveUpstream(upstreamLabel, op, err, time.Since(start))
	}()

	perr := &ProviderError{Op: op}
	resp, err := call(c.http.R().SetContext(ctx).SetError(perr))
	if err != nil {
		return fmt.Errorf("%s: %v: %w", op, err, core.ErrUpstream)
	}

	if resp.IsError() {
		perr.Status = resp.StatusCode()
		return perr
	}

	return nil
}

func isTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), `"exp" not satisfied`)
}
