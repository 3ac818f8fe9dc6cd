// AngelaMos | 2026
// entity.go

package user

import (
	"time"

	"github.com/carterperez-dev/platform-gateway/internal/core"
)

// User mirrors an identity-provider account. Rows are never deleted; the
// is_active flag gates sign-in.
type User struct {
	ID          string          `db:"id"`
	IDPSubject  string          `db:"idp_subject"`
	TenantID    *string         `db:"tenant_id"`
	Email       string          `db:"email"`
	Name        string          `db:"name"`
	AvatarURL   *string         `db:"avatar_url"`
	Roles       core.StringList `db:"roles"`
	IsActive    bool            `db:"is_active"`
	LastLoginAt *time.Time      `db:"last_login_at"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

func (u *User) Tenant() string {
	if u.TenantID == nil {
		return ""
	}
	return *u.TenantID
}

func (u *User) HasRole(role string) bool {
	return u.Roles.Contains(role)
}

// Filter fields are ANDed; empty fields are ignored.
type Filter struct {
	Search   string
	TenantID string
	Role     string
	Status   string
	From     *time.Time
	To       *time.Time
}

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// LoginProfile is what a successful identity-provider login tells us.
type LoginProfile struct {
	Subject   string
	Email     string
	Name      string
	AvatarURL string
	Roles     []string
	TenantID  string
}
