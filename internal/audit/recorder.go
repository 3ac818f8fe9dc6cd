// AngelaMos | 2026
// recorder.go

package audit

import (
	"context"
	"log/slog"
	"maps"

	"github.com/carterperez-dev/platform-gateway/internal/authz"
	"github.com/carterperez-dev/platform-gateway/internal/core"
)

// Entry describes one auditable change. TenantID overrides the caller's
// tenant when the change targets another tenant.
type Entry struct {
	Action     string
	Resource   string
	ResourceID string
	TenantID   string
	Metadata   map[string]any
}

// Recorder writes audit entries for the request in ctx. A failed write is
// logged and never surfaces to the caller.
type Recorder struct {
	repo   Repository
	logger *slog.Logger
}

func NewRecorder(repo Repository, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{repo: repo, logger: logger}
}

func (r *Recorder) Record(ctx context.Context, e Entry) {
	if r == nil || r.repo == nil {
		return
	}

	entry := &Log{
		Action:     e.Action,
		Resource:   e.Resource,
		ResourceID: core.NullIfEmpty(e.ResourceID),
		Metadata:   core.JSONMap(maps.Clone(e.Metadata)),
	}

	tenantID := e.TenantID
	if p, ok := authz.FromContext(ctx); ok {
		entry.UserID = core.NullIfEmpty(p.UserID)
		if tenantID == "" {
			tenantID = p.TenantID
		}
		if p.IsAPIKey() {
			if entry.Metadata == nil {
				entry.Metadata = core.JSONMap{}
			}
			entry.Metadata["apiKeyId"] = p.APIKeyID
		}
	}
	entry.TenantID = core.NullIfEmpty(tenantID)

	info := core.ClientInfoFromContext(ctx)
	entry.IPAddress = core.NullIfEmpty(info.IPAddress)
	entry.UserAgent = core.NullIfEmpty(info.UserAgent)

	if err := r.repo.Insert(ctx, entry); err != nil {
		r.logger.WarnContext(ctx, "audit write failed",
			"action", e.Action,
			"resource", e.Resource,
			"resource_id", e.ResourceID,
			"request_id", info.RequestID,
			"error", err,
		)
	}
}
