// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/carterperez-dev/platform-gateway/internal/audit"
	"github.com/carterperez-dev/platform-gateway/internal/authz"
	"github.com/carterperez-dev/platform-gateway/internal/config"
	"github.com/carterperez-dev/platform-gateway/internal/core"
	"github.com/carterperez-dev/platform-gateway/internal/identity"
	"github.com/carterperez-dev/platform-gateway/internal/user"
)

const (
	statePrefix     = "oauth_state:"
	blacklistPrefix = "blacklist:"
	stateBytes      = 24
)

// IdentityProvider is the slice of the identity client the login flow uses.
type IdentityProvider interface {
	AuthorizationURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*identity.TokenSet, error)
	Refresh(ctx context.Context, refreshToken string) (*identity.TokenSet, error)
	Logout(ctx context.Context, refreshToken string) error
	ValidateToken(ctx context.Context, raw string) (*identity.Claims, error)
	Roles(claims *identity.Claims) []string
}

// StateStore keeps OAuth state values and revoked token ids.
type StateStore interface {
	Put(ctx context.Context, key, value string, ttl time.Duration) error
	Take(ctx context.Context, key string) (string, error)
	Exists(ctx context.Context, key string) (bool, error)
}

type UserStore interface {
	SyncLogin(ctx context.Context, profile user.LoginProfile) (*user.User, error)
	GetBySubject(ctx context.Context, subject string) (*user.User, error)
	GetByID(ctx context.Context, id string) (*user.User, error)
}

type Service struct {
	idp          IdentityProvider
	users        UserStore
	store        StateStore
	stateTTL     time.Duration
	blacklistTTL time.Duration
	audit        *audit.Recorder
	logger       *slog.Logger
	now          func() time.Time
}

func NewService(
	idp IdentityProvider,
	users UserStore,
	store StateStore,
	cfg config.AuthConfig,
	recorder *audit.Recorder,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	stateTTL := cfg.StateTTL
	if stateTTL <= 0 {
		stateTTL = 10 * time.Minute
	}
	blacklistTTL := cfg.BlacklistTTL
	if blacklistTTL <= 0 {
		blacklistTTL = 15 * time.Minute
	}
	return &Service{
		idp:          idp,
		users:        users,
		store:        store,
		stateTTL:     stateTTL,
		blacklistTTL: blacklistTTL,
		audit:        recorder,
		logger:       logger,
		now:          time.Now,
	}
}

// Login issues a single-use state value and the provider URL carrying it.
func (s *Service) Login(ctx context.Context) (*LoginResponse, error) {
	state, err := core.GenerateSecureToken(stateBytes)
	if err != nil {
		return nil, err
	}
	if err := s.store.Put(ctx, statePrefix+state, "1", s.stateTTL); err != nil {
		return nil, fmt.Errorf("store login state: %w", err)
	}

	return &LoginResponse{URL: s.idp.AuthorizationURL(state), State: state}, nil
}

// Callback completes the authorization-code flow. The state is consumed
// whether or not the exchange succeeds.
func (s *Service) Callback(ctx context.Context, req CallbackRequest) (*AuthResponse, error) {
	if _, err := s.store.Take(ctx, statePrefix+req.State); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.UnauthorizedError("invalid or expired login state")
		}
		return nil, err
	}

	tokens, err := s.idp.ExchangeCode(ctx, req.Code)
	if err != nil {
		return nil, err
	}

	claims, err := s.idp.ValidateToken(ctx, tokens.AccessToken)
	if err != nil {
		return nil, err
	}

	name := claims.Name
	if name == "" {
		name = claims.PreferredUsername
	}

	u, err := s.users.SyncLogin(ctx, user.LoginProfile{
		Subject:   claims.Subject,
		Email:     claims.Email,
		Name:      name,
		AvatarURL: claims.Picture,
		Roles:     s.idp.Roles(claims),
		TenantID:  claims.TenantID,
	})
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, core.ForbiddenError("account is disabled")
	}

	actx := authz.WithPrincipal(ctx, &authz.Principal{UserID: u.ID, TenantID: u.Tenant()})
	s.audit.Record(actx, audit.Entry{
		Action:     "login",
		Resource:   audit.ResourceAuth,
		ResourceID: u.ID,
	})

	return &AuthResponse{User: user.ToUserResponse(u), Tokens: s.tokenResponse(tokens)}, nil
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	tokens, err := s.idp.Refresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	resp := s.tokenResponse(tokens)
	return &resp, nil
}

// Logout revokes the presented access token locally, then ends the provider
// session. A provider failure does not undo the local revocation.
func (s *Service) Logout(ctx context.Context, p *authz.Principal, refreshToken string) error {
	if p.TokenID != "" {
		ttl := s.blacklistTTL
		if !p.TokenExpiry.IsZero() {
			ttl = p.TokenExpiry.Sub(s.now())
		}
		if ttl > 0 {
			if err := s.store.Put(ctx, blacklistPrefix+p.TokenID, p.UserID, ttl); err != nil {
				return fmt.Errorf("revoke access token: %w", err)
			}
		}
	}

	if refreshToken != "" {
		if err := s.idp.Logout(ctx, refreshToken); err != nil {
			s.logger.WarnContext(ctx, "identity provider logout failed", "user_id", p.UserID, "error", err)
		}
	}

	s.audit.Record(ctx, audit.Entry{
		Action:     "logout",
		Resource:   audit.ResourceAuth,
		ResourceID: p.UserID,
	})

	return nil
}

func (s *Service) Me(ctx context.Context, p *authz.Principal) (*MeResponse, error) {
	u, err := s.users.GetByID(ctx, p.UserID)
	if err != nil {
		return nil, err
	}

	return &MeResponse{
		User:         user.ToUserResponse(u),
		Roles:        p.Roles,
		TenantID:     p.TenantID,
		TenantStatus: p.TenantStatus,
		APIKeyID:     p.APIKeyID,
		Permissions:  p.Permissions,
	}, nil
}

func (s *Service) tokenResponse(t *identity.TokenSet) TokenResponse {
	tokenType := t.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	return TokenResponse{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    tokenType,
		ExpiresIn:    t.ExpiresIn,
		ExpiresAt:    s.now().Add(time.Duration(t.ExpiresIn) * time.Second).UTC(),
	}
}
