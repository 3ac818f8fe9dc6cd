// AngelaMos | 2026
// entity.go

package usage

import (
	"slices"
	"time"

	"github.com/carterperez-dev/platform-gateway/internal/core"
)

const (
	ResourceAPICalls  = "api_calls"
	ResourceStorage   = "storage"
	ResourceBandwidth = "bandwidth"
)

var ResourceTypes = []string{ResourceAPICalls, ResourceStorage, ResourceBandwidth}

func ValidResource(resource string) bool {
	return slices.Contains(ResourceTypes, resource)
}

// Record is one metered event. Rows are only ever inserted.
type Record struct {
	ID           string       `db:"id"`
	TenantID     string       `db:"tenant_id"`
	UserID       *string      `db:"user_id"`
	ResourceType string       `db:"resource_type"`
	Amount       int64        `db:"amount"`
	RecordedAt   time.Time    `db:"recorded_at"`
	Metadata     core.JSONMap `db:"metadata"`
}

// Bucket is the per-day total of one resource type.
type Bucket struct {
	Day          time.Time `db:"day"`
	ResourceType string    `db:"resource_type"`
	Total        int64     `db:"total"`
}

// Query selects daily buckets for a tenant in [From, To).
type Query struct {
	TenantID     string
	ResourceType string
	From         time.Time
	To           time.Time
}

// DefaultWindow is how far back usage queries reach without an explicit from.
const DefaultWindow = 30 * 24 * time.Hour

// UserCounts is the membership summary of a tenant, or of the platform.
type UserCounts struct {
	Total  int `db:"total"  json:"total"`
	Active int `db:"active" json:"active"`
}

func monthStart(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
}
