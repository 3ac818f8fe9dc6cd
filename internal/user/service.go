// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/carterperez-dev/platform-gateway/internal/audit"
	"github.com/carterperez-dev/platform-gateway/internal/authz"
	"github.com/carterperez-dev/platform-gateway/internal/core"
)

// IdentityProvider is the slice of the identity client user management needs.
type IdentityProvider interface {
	CreateUser(ctx context.Context, email, name string) (string, error)
	SendPasswordReset(ctx context.Context, subject string) error
}

type Service struct {
	repo  Repository
	idp   IdentityProvider
	audit *audit.Recorder
}

func NewService(repo Repository, idp IdentityProvider, recorder *audit.Recorder) *Service {
	return &Service{repo: repo, idp: idp, audit: recorder}
}

// SyncLogin records a successful login. The first login stores the roles the
// identity provider asserted, minus tenant_owner, which only an ownership
// transfer grants; afterwards the stored roles are authoritative.
func (s *Service) SyncLogin(ctx context.Context, profile LoginProfile) (*User, error) {
	if profile.Subject == "" {
		return nil, fmt.Errorf("sync login: missing subject: %w", core.ErrInvalidInput)
	}

	roles := slices.DeleteFunc(slices.Clone(profile.Roles), func(role string) bool {
		return role == authz.RoleTenantOwner
	})
	if len(roles) == 0 {
		roles = []string{authz.RoleUser}
	}

	name := profile.Name
	if name == "" {
		name = profile.Email
	}

	u := &User{
		IDPSubject: profile.Subject,
		TenantID:   core.NullIfEmpty(profile.TenantID),
		Email:      strings.ToLower(profile.Email),
		Name:       name,
		AvatarURL:  core.NullIfEmpty(profile.AvatarURL),
		Roles:      core.StringList(roles),
	}

	if err := s.repo.UpsertLogin(ctx, u); err != nil {
		return nil, err
	}

	return u, nil
}

func (s *Service) GetBySubject(ctx context.Context, subject string) (*User, error) {
	return s.repo.GetBySubject(ctx, subject)
}

func (s *Service) GetByID(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// load fetches id and checks action against the user's tenant. Users outside
// every tenant are invisible to tenant-level callers.
func (s *Service) load(
	ctx context.Context,
	p *authz.Principal,
	id string,
	action authz.Action,
) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if u.Tenant() == "" && !p.IsSuperAdmin() && !p.IsSelf(u.ID) {
		return nil, fmt.Errorf("load user: %w", core.ErrNotFound)
	}

	target := authz.Target{TenantID: u.Tenant(), UserID: u.ID}
	if err := authz.Authorize(p, action, target); err != nil {
		return nil, err
	}

	return u, nil
}

func (s *Service) Get(ctx context.Context, p *authz.Principal, id string) (*User, error) {
	return s.load(ctx, p, id, authz.ActionUsersRead)
}

func (s *Service) List(
	ctx context.Context,
	p *authz.Principal,
	filter Filter,
	page core.PageParams,
) ([]User, int, error) {
	if err := authz.Authorize(p, authz.ActionUsersRead, authz.Target{TenantID: filter.TenantID}); err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, filter, page)
}

type CreateInput struct {
	Email    string
	Name     string
	TenantID string
	Roles    []string
}

// Create provisions the account in the identity provider first, then mirrors
// it locally with the provider's subject.
func (s *Service) Create(ctx context.Context, p *authz.Principal, in CreateInput) (*User, error) {
	if err := authz.Authorize(p, authz.ActionUsersWrite, authz.Target{TenantID: in.TenantID}); err != nil {
		return nil, err
	}
	if slices.Contains(in.Roles, authz.RoleSuperAdmin) && !p.IsSuperAdmin() {
		return nil, core.ForbiddenError("only platform admins grant super_admin")
	}

	roles := in.Roles
	if len(roles) == 0 {
		roles = []string{authz.RoleUser}
	}

	email := strings.ToLower(in.Email)
	subject, err := s.idp.CreateUser(ctx, email, in.Name)
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, core.DuplicateError("email")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	u := &User{
		IDPSubject: subject,
		TenantID:   core.NullIfEmpty(in.TenantID),
		Email:      email,
		Name:       in.Name,
		Roles:      core.StringList(slices.Compact(slices.Sorted(slices.Values(roles)))),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		Action:     "create",
		Resource:   audit.ResourceUser,
		ResourceID: u.ID,
		TenantID:   in.TenantID,
		Metadata:   map[string]any{"email": email, "roles": []string(u.Roles)},
	})

	return u, nil
}

// Update applies a profile change. Role changes from the caller's own
// profile are dropped; other callers need the roles permission.
func (s *Service) Update(
	ctx context.Context,
	p *authz.Principal,
	id string,
	req UpdateUserRequest,
) (*User, error) {
	u, err := s.load(ctx, p, id, authz.ActionUsersWrite)
	if err != nil {
		return nil, err
	}

	patch := core.NewPatch()
	fields := []string{}

	if req.Name != nil {
		if err := patch.SetField("name", *req.Name); err != nil {
			return nil, err
		}
		fields = append(fields, "name")
	}
	if req.AvatarURL != nil {
		if err := patch.SetField("avatarUrl", core.NullIfEmpty(*req.AvatarURL)); err != nil {
			return nil, err
		}
		fields = append(fields, "avatarUrl")
	}
	if req.Roles != nil && !p.IsSelf(u.ID) {
		target := authz.Target{TenantID: u.Tenant(), UserID: u.ID}
		if err := authz.Authorize(p, authz.ActionUsersRoles, target); err != nil {
			return nil, err
		}
		roles, err := s.checkRoleChange(p, u, *req.Roles)
		if err != nil {
			return nil, err
		}
		patch.Set("roles", roles)
		fields = append(fields, "roles")
	}

	if patch.Empty() {
		return u, nil
	}

	updated, err := s.repo.Update(ctx, u.ID, patch)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		Action:     "update",
		Resource:   audit.ResourceUser,
		ResourceID: u.ID,
		TenantID:   u.Tenant(),
		Metadata:   map[string]any{"fields": fields},
	})

	return updated, nil
}

func (s *Service) UpdateRoles(
	ctx context.Context,
	p *authz.Principal,
	id string,
	roles []string,
) (*User, error) {
	u, err := s.load(ctx, p, id, authz.ActionUsersRoles)
	if err != nil {
		return nil, err
	}
	if p.IsSelf(u.ID) {
		return nil, core.ForbiddenError("cannot change your own roles")
	}

	next, err := s.checkRoleChange(p, u, roles)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, u.ID, core.NewPatch().Set("roles", next))
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		Action:     "update_roles",
		Resource:   audit.ResourceUser,
		ResourceID: u.ID,
		TenantID:   u.Tenant(),
		Metadata:   map[string]any{"from": []string(u.Roles), "to": []string(next)},
	})

	return updated, nil
}

// checkRoleChange returns the normalized role set. The owner role is kept
// when present and can neither be granted nor revoked here.
func (s *Service) checkRoleChange(p *authz.Principal, u *User, roles []string) (core.StringList, error) {
	next := make([]string, 0, len(roles)+1)
	for _, r := range roles {
		switch {
		case r == authz.RoleTenantOwner:
			return nil, core.ValidationError("ownership changes through an ownership transfer")
		case r == authz.RoleSuperAdmin && !p.IsSuperAdmin():
			return nil, core.ForbiddenError("only platform admins grant super_admin")
		case r == authz.RoleSuperAdmin, slices.Contains(authz.AssignableRoles, r):
			next = append(next, r)
		default:
			return nil, core.ValidationError(fmt.Sprintf("unknown role %q", r))
		}
	}

	if u.HasRole(authz.RoleTenantOwner) {
		next = append(next, authz.RoleTenantOwner)
	}
	if len(next) == 0 {
		return nil, core.ValidationError("roles must not be empty")
	}

	slices.Sort(next)
	return core.StringList(slices.Compact(next)), nil
}

func (s *Service) SetActive(
	ctx context.Context,
	p *authz.Principal,
	id string,
	active bool,
) (*User, error) {
	u, err := s.load(ctx, p, id, authz.ActionUsersStatus)
	if err != nil {
		return nil, err
	}

	if !active {
		if p.IsSelf(u.ID) {
			return nil, core.ValidationError("cannot deactivate your own account")
		}
		if u.HasRole(authz.RoleTenantOwner) {
			return nil, core.ValidationError("transfer ownership before deactivating the tenant owner")
		}
	}

	if u.IsActive == active {
		return u, nil
	}

	updated, err := s.repo.Update(ctx, u.ID, core.NewPatch().Set("is_active", active))
	if err != nil {
		return nil, err
	}

	action := "deactivate"
	if active {
		action = "activate"
	}
	s.audit.Record(ctx, audit.Entry{
		Action:     action,
		Resource:   audit.ResourceUser,
		ResourceID: u.ID,
		TenantID:   u.Tenant(),
	})

	return updated, nil
}

// PasswordReset asks the identity provider to email a reset action.
func (s *Service) PasswordReset(ctx context.Context, p *authz.Principal, id string) error {
	u, err := s.load(ctx, p, id, authz.ActionUsersPasswordReset)
	if err != nil {
		return err
	}

	if err := s.idp.SendPasswordReset(ctx, u.IDPSubject); err != nil {
		return fmt.Errorf("password reset: %w", err)
	}

	s.audit.Record(ctx, audit.Entry{
		Action:     "password_reset",
		Resource:   audit.ResourceUser,
		ResourceID: u.ID,
		TenantID:   u.Tenant(),
	})

	return nil
}
