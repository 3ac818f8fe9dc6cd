// AngelaMos | 2026
// entity_test.go

package tenant

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/carterperez-dev/platform-gateway/internal/authz"
	"github.com/carterperez-dev/platform-gateway/internal/core"
)

func TestNextStatus(t *testing.T) {
	tests := []struct {
		current string
		action  string
		want    string
		wantErr bool
	}{
		{authz.TenantStatusPending, ActionActivate, authz.TenantStatusActive, false},
		{authz.TenantStatusActive, ActionSuspend, authz.TenantStatusSuspended, false},
		{authz.TenantStatusSuspended, ActionReactivate, authz.TenantStatusActive, false},
		{authz.TenantStatusPending, ActionCancel, authz.TenantStatusCancelled, false},
		{authz.TenantStatusActive, ActionCancel, authz.TenantStatusCancelled, false},
		{authz.TenantStatusSuspended, ActionCancel, authz.TenantStatusCancelled, false},
		{authz.TenantStatusActive, ActionActivate, "", true},
		{authz.TenantStatusPending, ActionSuspend, "", true},
		{authz.TenantStatusActive, ActionReactivate, "", true},
		{authz.TenantStatusCancelled, ActionReactivate, "", true},
		{authz.TenantStatusCancelled, ActionCancel, "", true},
		{authz.TenantStatusActive, "delete", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.current+"/"+tt.action, func(t *testing.T) {
			got, err := NextStatus(tt.current, tt.action)
			if tt.wantErr {
				assert.Equal(t, http.StatusBadRequest, core.StatusFor(err))
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPlansScaleUp(t *testing.T) {
	order := []string{PlanFree, PlanStarter, PlanProfessional, PlanEnterprise}
	for i := 1; i < len(order); i++ {
		prev, next := Plans[order[i-1]], Plans[order[i]]
		assert.Greater(t, next.MonthlyPrice, prev.MonthlyPrice, order[i])
		assert.Greater(t, next.Limits.RequestsPerMinute, prev.Limits.RequestsPerMinute, order[i])
		assert.Greater(t, next.Limits.Users, prev.Limits.Users, order[i])
	}
}

func TestLimitsRoundTripThroughJSONColumn(t *testing.T) {
	in := Plans[PlanStarter].Limits
	v, err := in.Value()
	assert.NoError(t, err)

	var out Limits
	assert.NoError(t, out.Scan([]byte(v.(string))))
	assert.Equal(t, in, out)
}
