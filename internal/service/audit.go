package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"medsecure/internal/model"
	"medsecure/internal/repository"
)

// AuditListResult is the service-level DTO for paginated audit entries.
type AuditListResult struct {
	Items []model.AuditEntry `json:"data"`
	Total int                `json:"total"`
}

// AuditService records and lists append-only audit entries.
type AuditService interface {
	// Record appends one audit entry. It is fire-and-forget: a failed
	// write is logged and swallowed so that the triggering operation
	// still succeeds. An audit outage must not take file operations
	// down with it.
	Record(ctx context.Context, actorID *string, action string, details map[string]any)

	// List returns audit entries, newest first. Admin only.
	List(ctx context.Context, actor model.Identity, limit, offset int) (*AuditListResult, error)
}

type auditService struct {
	repo repository.AuditRepository
	log  *zap.Logger
}

// NewAuditService constructs a new AuditService.
func NewAuditService(repo repository.AuditRepository, log *zap.Logger) AuditService {
	return &auditService{repo: repo, log: log}
}

func (s *auditService) Record(ctx context.Context, actorID *string, action string, details map[string]any) {
	entry := &model.AuditEntry{
		ID:        uuid.New().String(),
		UserID:    actorID,
		Action:    action,
		Details:   details,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.repo.Append(ctx, entry); err != nil {
		s.log.Warn("audit write failed",
			zap.String("action", action),
			zap.Error(err),
		)
	}
}

func (s *auditService) List(ctx context.Context, actor model.Identity, limit, offset int) (*AuditListResult, error) {
	if !actor.Role.IsAdmin() {
		return nil, ErrAccessDenied
	}
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.repo.List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &AuditListResult{Items: res.Items, Total: res.Total}, nil
}
