// AngelaMos | 2026
// service.go

package apikey

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/carterperez-dev/platform-gateway/internal/audit"
	"github.com/carterperez-dev/platform-gateway/internal/authz"
	"github.com/carterperez-dev/platform-gateway/internal/core"
	"github.com/carterperez-dev/platform-gateway/internal/tenant"
)

// WildcardPermission grants every action the key's creator could perform.
const WildcardPermission = "*"

type TenantLookup interface {
	GetByID(ctx context.Context, id string) (*tenant.Tenant, error)
}

type Service struct {
	repo    Repository
	tenants TenantLookup
	audit   *audit.Recorder
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(repo Repository, tenants TenantLookup, recorder *audit.Recorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:    repo,
		tenants: tenants,
		audit:   recorder,
		logger:  logger,
		now:     time.Now,
	}
}

// Created pairs the stored key with the plaintext shown once to the caller.
type Created struct {
	Key       *APIKey
	Plaintext string
}

func (s *Service) Create(ctx context.Context, p *authz.Principal, req CreateAPIKeyRequest) (*Created, error) {
	if err := authz.Authorize(p, authz.ActionAdminAPIKeys, authz.Target{}); err != nil {
		return nil, err
	}
	if p.IsAPIKey() {
		return nil, core.ForbiddenError("api keys cannot mint api keys")
	}

	perms, err := normalizePermissions(req.Permissions)
	if err != nil {
		return nil, err
	}

	if req.ExpiresAt != nil && !req.ExpiresAt.After(s.now()) {
		return nil, core.ValidationError("expiresAt must be in the future")
	}

	if req.TenantID != "" {
		if _, err := s.tenants.GetByID(ctx, req.TenantID); err != nil {
			if errors.Is(err, core.ErrNotFound) {
				return nil, core.NotFoundError("tenant")
			}
			return nil, err
		}
	}

	generated, err := core.GenerateAPIKey()
	if err != nil {
		return nil, fmt.Errorf("generate api key: %w", err)
	}
	hash, err := core.HashSecret(generated.Secret)
	if err != nil {
		return nil, fmt.Errorf("hash api key: %w", err)
	}

	key := &APIKey{
		Name:        strings.TrimSpace(req.Name),
		KeyPrefix:   generated.Prefix,
		KeyHash:     hash,
		Permissions: perms,
		TenantID:    core.NullIfEmpty(req.TenantID),
		CreatedBy:   p.UserID,
		ExpiresAt:   req.ExpiresAt,
	}
	if err := s.repo.Create(ctx, key); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		Action:     "create",
		Resource:   audit.ResourceAPIKey,
		ResourceID: key.ID,
		TenantID:   req.TenantID,
		Metadata:   map[string]any{"prefix": key.KeyPrefix, "permissions": []string(perms)},
	})

	return &Created{Key: key, Plaintext: generated.Plaintext}, nil
}

// normalizePermissions rejects unknown actions, then sorts and dedupes.
func normalizePermissions(perms []string) (core.StringList, error) {
	out := make([]string, 0, len(perms))
	for _, perm := range perms {
		perm = strings.TrimSpace(perm)
		if perm == WildcardPermission {
			return core.StringList{WildcardPermission}, nil
		}
		if _, ok := authz.Policy[authz.Action(perm)]; !ok {
			return nil, core.ValidationError("unknown permission " + perm)
		}
		out = append(out, perm)
	}

	slices.Sort(out)
	return core.StringList(slices.Compact(out)), nil
}

func (s *Service) List(
	ctx context.Context,
	p *authz.Principal,
	filter Filter,
	page core.PageParams,
) ([]APIKey, int, error) {
	if err := authz.Authorize(p, authz.ActionAdminAPIKeys, authz.Target{}); err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, filter, page)
}

func (s *Service) Revoke(ctx context.Context, p *authz.Principal, id string) (*APIKey, error) {
	if err := authz.Authorize(p, authz.ActionAdminAPIKeys, authz.Target{}); err != nil {
		return nil, err
	}

	key, err := s.repo.Revoke(ctx, id)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		Action:     "revoke",
		Resource:   audit.ResourceAPIKey,
		ResourceID: key.ID,
		TenantID:   key.Tenant(),
		Metadata:   map[string]any{"prefix": key.KeyPrefix},
	})

	return key, nil
}

// Authenticate checks a presented gw_<prefix>.<secret> key. Unknown prefixes
// and wrong secrets take the same time and return the same error.
func (s *Service) Authenticate(ctx context.Context, raw string) (*APIKey, error) {
	prefix, secret, ok := core.SplitAPIKey(raw)
	if !ok {
		return nil, core.UnauthorizedError("invalid api key")
	}

	key, err := s.repo.GetByPrefix(ctx, prefix)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return nil, err
	}

	var encoded *string
	if key != nil {
		encoded = &key.KeyHash
	}
	valid, err := core.VerifySecretTimingSafe(secret, encoded)
	if err != nil {
		return nil, fmt.Errorf("verify api key: %w", err)
	}
	if !valid || key == nil {
		return nil, core.UnauthorizedError("invalid api key")
	}

	if !key.IsActive {
		return nil, core.UnauthorizedError("api key revoked")
	}
	if key.Expired(s.now()) {
		return nil, core.UnauthorizedError("api key expired")
	}

	if err := s.repo.TouchLastUsed(ctx, key.ID); err != nil {
		s.logger.WarnContext(ctx, "api key last-used update failed",
			"api_key_id", key.ID,
			"error", err,
		)
	}

	return key, nil
}
