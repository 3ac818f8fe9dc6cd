// AngelaMos | 2026
// entity.go

package apikey

import (
	"time"

	"github.com/carterperez-dev/platform-gateway/internal/core"
)

type APIKey struct {
	ID          string          `db:"id"`
	Name        string          `db:"name"`
	KeyPrefix   string          `db:"key_prefix"`
	KeyHash     string          `db:"key_hash"`
	Permissions core.StringList `db:"permissions"`
	TenantID    *string         `db:"tenant_id"`
	CreatedBy   string          `db:"created_by"`
	IsActive    bool            `db:"is_active"`
	ExpiresAt   *time.Time      `db:"expires_at"`
	LastUsedAt  *time.Time      `db:"last_used_at"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

func (k *APIKey) Tenant() string {
	if k.TenantID == nil {
		return ""
	}
	return *k.TenantID
}

func (k *APIKey) Expired(now time.Time) bool {
	return k.ExpiresAt != nil && !now.Before(*k.ExpiresAt)
}

// Usable reports whether the key may authenticate a request at now.
func (k *APIKey) Usable(now time.Time) bool {
	return k.IsActive && !k.Expired(now)
}

const (
	StatusActive  = "active"
	StatusRevoked = "revoked"
)

type Filter struct {
	TenantID string
	Status   string
	Search   string
}
