// AngelaMos | 2026
// fakes_test.go

package user

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/carterperez-dev/platform-gateway/internal/audit"
	"github.com/carterperez-dev/platform-gateway/internal/core"
)

type memoryRepo struct {
	mu    sync.Mutex
	users map[string]*User
	seq   int
}

func newMemoryRepo(users ...*User) *memoryRepo {
	m := &memoryRepo{users: map[string]*User{}}
	for _, u := range users {
		u.IsActive = true
		m.users[u.ID] = u
	}
	return m
}

func (m *memoryRepo) nextID() string {
	m.seq++
	return fmt.Sprintf("u-new-%d", m.seq)
}

func (m *memoryRepo) Create(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email || existing.IDPSubject == u.IDPSubject {
			return fmt.Errorf("create user: %w", core.ErrDuplicateKey)
		}
	}
	u.ID = m.nextID()
	u.IsActive = true
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memoryRepo) GetByID(_ context.Context, id string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (m *memoryRepo) GetBySubject(_ context.Context, subject string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.IDPSubject == subject {
			cp := *u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("get user by subject: %w", core.ErrNotFound)
}

func (m *memoryRepo) UpsertLogin(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for _, existing := range m.users {
		if existing.IDPSubject == u.IDPSubject {
			existing.Email = u.Email
			existing.Name = u.Name
			existing.LastLoginAt = &now
			*u = *existing
			return nil
		}
	}
	u.ID = m.nextID()
	u.IsActive = true
	u.LastLoginAt = &now
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memoryRepo) Update(_ context.Context, id string, patch *core.Patch) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("update user: %w", core.ErrNotFound)
	}

	query, args := patch.Build("users", &core.Where{}, "")
	for i, col := range patch.Columns() {
		switch col {
		case "name":
			u.Name = args[i].(string)
		case "avatar_url":
			u.AvatarURL = args[i].(*string)
		case "roles":
			u.Roles = args[i].(core.StringList)
		case "is_active":
			u.IsActive = args[i].(bool)
		default:
			return nil, fmt.Errorf("unexpected column %s in %q", col, query)
		}
	}
	u.UpdatedAt = time.Now()
	cp := *u
	return &cp, nil
}

func (m *memoryRepo) List(_ context.Context, f Filter, page core.PageParams) ([]User, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []User
	for _, u := range m.users {
		if f.TenantID != "" && u.Tenant() != f.TenantID {
			continue
		}
		if f.Role != "" && !u.HasRole(f.Role) {
			continue
		}
		if f.Search != "" && !strings.Contains(u.Email, f.Search) && !strings.Contains(u.Name, f.Search) {
			continue
		}
		out = append(out, *u)
	}
	start := min(page.Offset(), len(out))
	end := min(start+page.Limit, len(out))
	return out[start:end], len(out), nil
}

type fakeIDP struct {
	created []string
	resets  []string
	err     error
}

func (f *fakeIDP) CreateUser(_ context.Context, email, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.created = append(f.created, email)
	return "sub-" + email, nil
}

func (f *fakeIDP) SendPasswordReset(_ context.Context, subject string) error {
	if f.err != nil {
		return f.err
	}
	f.resets = append(f.resets, subject)
	return nil
}

type auditSink struct {
	mu      sync.Mutex
	entries []audit.Log
}

func (a *auditSink) Insert(_ context.Context, entry *audit.Log) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, *entry)
	return nil
}

func (a *auditSink) List(context.Context, audit.Filter, core.PageParams) ([]audit.Log, int, error) {
	return nil, 0, nil
}

func (a *auditSink) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.entries))
	for _, e := range a.entries {
		out = append(out, e.Action)
	}
	return out
}

func tenantPtr(id string) *string {
	return &id
}
