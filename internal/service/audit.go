package service

import (
	"context"

	"github.com/sakif/identity-facade/internal/model"
	"github.com/sakif/identity-facade/internal/repository"
)

// AuditPage is one page of the audit trail, newest first.
type AuditPage struct {
	Events []model.AuditEvent `json:"events"`
	Limit  int                `json:"limit"`
	Offset int                `json:"offset"`
}

// AuditService reads the audit trail written by IdentityService.
type AuditService struct {
	repo repository.AuditRepository
}

func NewAuditService(repo repository.AuditRepository) *AuditService {
	return &AuditService{repo: repo}
}

// List returns one page. Limit and offset are normalized first, and the page
// reports the values actually applied.
func (s *AuditService) List(ctx context.Context, opts repository.ListOptions) (*AuditPage, error) {
	opts = opts.Normalize()
	events, err := s.repo.List(ctx, opts)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []model.AuditEvent{}
	}
	return &AuditPage{Events: events, Limit: opts.Limit, Offset: opts.Offset}, nil
}
