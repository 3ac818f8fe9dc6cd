// AngelaMos | 2026
// dto.go

package audit

import (
	"time"
)

type LogResponse struct {
	ID         string         `json:"id"`
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	ResourceID string         `json:"resourceId,omitempty"`
	UserID     string         `json:"userId,omitempty"`
	TenantID   string         `json:"tenantId,omitempty"`
	IPAddress  string         `json:"ipAddress,omitempty"`
	UserAgent  string         `json:"userAgent,omitempty"`
	Metadata   map[string]any `json:"metadata"`
	CreatedAt  time.Time      `json:"createdAt"`
}

func ToLogResponse(l *Log) LogResponse {
	metadata := map[string]any(l.Metadata)
	if metadata == nil {
		metadata = map[string]any{}
	}

	return LogResponse{
		ID:         l.ID,
		Action:     l.Action,
		Resource:   l.Resource,
		ResourceID: deref(l.ResourceID),
		UserID:     deref(l.UserID),
		TenantID:   deref(l.TenantID),
		IPAddress:  deref(l.IPAddress),
		UserAgent:  deref(l.UserAgent),
		Metadata:   metadata,
		CreatedAt:  l.CreatedAt,
	}
}

func ToLogResponseList(logs []Log) []LogResponse {
	out := make([]LogResponse, len(logs))
	for i := range logs {
		out[i] = ToLogResponse(&logs[i])
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
