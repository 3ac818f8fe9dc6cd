// AngelaMos | 2026
// dto.go

package usage

import (
	"time"

	"github.com/carterperez-dev/platform-gateway/internal/tenant"
)

type IngestRequest struct {
	TenantID     string         `json:"tenantId"     validate:"omitempty,uuid"`
	ResourceType string         `json:"resourceType" validate:"required,oneof=api_calls storage bandwidth"`
	Amount       int64          `json:"amount"       validate:"min=0"`
	RecordedAt   *time.Time     `json:"recordedAt"`
	Metadata     map[string]any `json:"metadata"`
}

type RecordResponse struct {
	ID           string         `json:"id"`
	TenantID     string         `json:"tenantId"`
	UserID       string         `json:"userId,omitempty"`
	ResourceType string         `json:"resourceType"`
	Amount       int64          `json:"amount"`
	RecordedAt   time.Time      `json:"recordedAt"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

func ToRecordResponse(r *Record) RecordResponse {
	resp := RecordResponse{
		ID:           r.ID,
		TenantID:     r.TenantID,
		ResourceType: r.ResourceType,
		Amount:       r.Amount,
		RecordedAt:   r.RecordedAt,
		Metadata:     r.Metadata,
	}
	if r.UserID != nil {
		resp.UserID = *r.UserID
	}
	return resp
}

type BucketResponse struct {
	Day          string `json:"day"`
	ResourceType string `json:"resourceType"`
	Total        int64  `json:"total"`
}

func ToBucketResponseList(buckets []Bucket) []BucketResponse {
	out := make([]BucketResponse, len(buckets))
	for i, b := range buckets {
		out[i] = BucketResponse{
			Day:          b.Day.UTC().Format(time.DateOnly),
			ResourceType: b.ResourceType,
			Total:        b.Total,
		}
	}
	return out
}

type UsageTotals struct {
	APICalls  int64 `json:"apiCalls"`
	Storage   int64 `json:"storage"`
	Bandwidth int64 `json:"bandwidth"`
}

type TenantSummary struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Plan   string `json:"plan"`
	Status string `json:"status"`
}

// TenantStats is the dashboard for one tenant. Usage covers the current
// calendar month (UTC).
type TenantStats struct {
	Scope             string        `json:"scope"`
	Tenant            TenantSummary `json:"tenant"`
	Users             UserCounts    `json:"users"`
	Usage             UsageTotals   `json:"usage"`
	Limits            tenant.Limits `json:"limits"`
	APICallsRemaining int64         `json:"apiCallsRemaining"`
	AuditEvents30d    int           `json:"auditEvents30d"`
}

type PlatformStats struct {
	Scope             string         `json:"scope"`
	Tenants           map[string]int `json:"tenants"`
	TotalTenants      int            `json:"totalTenants"`
	Users             UserCounts     `json:"users"`
	APICallsThisMonth int64          `json:"apiCallsThisMonth"`
	MonthlyRevenue    int64          `json:"monthlyRecurringRevenue"`
	AuditEvents30d    int            `json:"auditEvents30d"`
}

const (
	ScopeTenant   = "tenant"
	ScopePlatform = "platform"
)
