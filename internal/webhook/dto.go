// AngelaMos | 2026
// dto.go

package webhook

import (
	"time"
)

type CreateEndpointRequest struct {
	URL    string   `json:"url"    validate:"required,url,max=2048"`
	Events []string `json:"events" validate:"required,min=1,max=50,dive,required,max=100"`
}

type EndpointResponse struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Events    []string  `json:"events"`
	IsActive  bool      `json:"isActive"`
	CreatedBy string    `json:"createdBy,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreatedEndpointResponse is the only response that carries the signing secret.
type CreatedEndpointResponse struct {
	EndpointResponse
	Secret string `json:"secret"`
}

func ToEndpointResponse(e *Endpoint) EndpointResponse {
	resp := EndpointResponse{
		ID:        e.ID,
		URL:       e.URL,
		Events:    []string(e.Events),
		IsActive:  e.IsActive,
		CreatedAt: e.CreatedAt,
	}
	if e.CreatedBy != nil {
		resp.CreatedBy = *e.CreatedBy
	}
	return resp
}

func ToEndpointResponseList(endpoints []Endpoint) []EndpointResponse {
	out := make([]EndpointResponse, len(endpoints))
	for i := range endpoints {
		out[i] = ToEndpointResponse(&endpoints[i])
	}
	return out
}

// AckResponse is returned to the processor for every verified event.
type AckResponse struct {
	Received bool   `json:"received"`
	EventID  string `json:"eventId"`
	Result   string `json:"result"`
}
