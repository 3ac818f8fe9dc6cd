// AngelaMos | 2026
// service.go

package webhook

import (
	"context"
	"errors"
	"slices"

	"github.com/carterperez-dev/platform-gateway/internal/audit"
	"github.com/carterperez-dev/platform-gateway/internal/authz"
	"github.com/carterperez-dev/platform-gateway/internal/core"
)

const secretBytes = 32

// Service manages the registry of outbound webhook endpoints.
type Service struct {
	repo  Repository
	audit *audit.Recorder
}

func NewService(repo Repository, recorder *audit.Recorder) *Service {
	return &Service{repo: repo, audit: recorder}
}

func (s *Service) List(ctx context.Context, p *authz.Principal, page core.PageParams) ([]Endpoint, int, error) {
	if err := authz.Authorize(p, authz.ActionAdminWebhooks, authz.Target{}); err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, page)
}

// Create stores the endpoint with a freshly generated signing secret.
func (s *Service) Create(ctx context.Context, p *authz.Principal, req CreateEndpointRequest) (*Endpoint, error) {
	if err := authz.Authorize(p, authz.ActionAdminWebhooks, authz.Target{}); err != nil {
		return nil, err
	}
	if len(req.Events) == 0 {
		return nil, core.ValidationError("events must not be empty")
	}

	events := slices.Clone(req.Events)
	slices.Sort(events)
	events = slices.Compact(events)

	token, err := core.GenerateSecureToken(secretBytes)
	if err != nil {
		return nil, err
	}

	e := &Endpoint{
		URL:       req.URL,
		Events:    core.StringList(events),
		Secret:    "whsec_" + token,
		IsActive:  true,
		CreatedBy: core.NullIfEmpty(p.UserID),
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		Action:     "create",
		Resource:   audit.ResourceWebhook,
		ResourceID: e.ID,
		Metadata:   map[string]any{"url": e.URL, "events": events},
	})

	return e, nil
}

func (s *Service) Delete(ctx context.Context, p *authz.Principal, id string) error {
	if err := authz.Authorize(p, authz.ActionAdminWebhooks, authz.Target{}); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.NotFoundError("webhook endpoint")
		}
		return err
	}

	s.audit.Record(ctx, audit.Entry{
		Action:     "delete",
		Resource:   audit.ResourceWebhook,
		ResourceID: id,
	})

	return nil
}
