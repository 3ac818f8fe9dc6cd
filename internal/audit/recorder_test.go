// AngelaMos | 2026
// recorder_test.go

package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/platform-gateway/internal/authz"
	"github.com/carterperez-dev/platform-gateway/internal/core"
)

func TestRecorderFillsCallerAndOrigin(t *testing.T) {
	repo := &memoryRepo{}
	rec := NewRecorder(repo, nil)

	ctx := authz.WithPrincipal(context.Background(), &authz.Principal{
		UserID:   "u-1",
		TenantID: "t-1",
		APIKeyID: "k-1",
	})
	ctx = core.WithClientInfo(ctx, core.ClientInfo{IPAddress: "10.1.1.1", UserAgent: "cli"})

	rec.Record(ctx, Entry{Action: "create", Resource: ResourceUsage, ResourceID: "r-1"})

	require.Len(t, repo.logs, 1)
	got := repo.logs[0]
	assert.Equal(t, "u-1", deref(got.UserID))
	assert.Equal(t, "t-1", deref(got.TenantID))
	assert.Equal(t, "10.1.1.1", deref(got.IPAddress))
	assert.Equal(t, "cli", deref(got.UserAgent))
	assert.Equal(t, "k-1", got.Metadata["apiKeyId"])
}

func TestRecorderLeavesCallerMetadataUntouched(t *testing.T) {
	repo := &memoryRepo{}
	rec := NewRecorder(repo, nil)
	ctx := authz.WithPrincipal(context.Background(), &authz.Principal{
		UserID:   "u-1",
		TenantID: "t-1",
		APIKeyID: "k-1",
	})

	shared := map[string]any{"plan": "pro"}
	rec.Record(ctx, Entry{Action: "update", Resource: ResourceTenant, Metadata: shared})
	rec.Record(context.Background(), Entry{Action: "update", Resource: ResourceTenant, Metadata: shared})

	assert.Equal(t, map[string]any{"plan": "pro"}, shared)
	require.Len(t, repo.logs, 2)
	assert.Equal(t, "k-1", repo.logs[0].Metadata["apiKeyId"])
	assert.NotContains(t, repo.logs[1].Metadata, "apiKeyId")
}

func TestRecorderTargetTenantOverridesCaller(t *testing.T) {
	repo := &memoryRepo{}
	ctx := authz.WithPrincipal(context.Background(), superAdmin)

	NewRecorder(repo, nil).Record(ctx, Entry{Action: "suspend", Resource: ResourceTenant, TenantID: "t-9"})

	require.Len(t, repo.logs, 1)
	assert.Equal(t, "t-9", deref(repo.logs[0].TenantID))
	assert.Nil(t, repo.logs[0].IPAddress)
}

func TestRecorderSwallowsWriteFailure(t *testing.T) {
	repo := &memoryRepo{err: errors.New("db down")}

	assert.NotPanics(t, func() {
		NewRecorder(repo, nil).Record(context.Background(), Entry{Action: "x", Resource: ResourceAuth})
	})

	var nilRecorder *Recorder
	assert.NotPanics(t, func() {
		nilRecorder.Record(context.Background(), Entry{})
	})
}
