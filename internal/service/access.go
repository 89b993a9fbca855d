package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"medsecure/internal/model"
	"medsecure/internal/repository"
)

// RequestListResult is the service-level DTO for paginated requests.
type RequestListResult struct {
	Items []model.AuthorizationRequest `json:"data"`
	Total int                          `json:"total"`
}

// UserListResult is the service-level DTO for paginated users.
type UserListResult struct {
	Items []model.User `json:"data"`
	Total int          `json:"total"`
}

// AccessService owns the role-upgrade workflow: authorization requests,
// admin decisions, and direct role changes.
type AccessService interface {
	// SubmitRequest files a new authorization request for the caller.
	// Any authenticated user may submit one.
	SubmitRequest(ctx context.Context, actor model.Identity, description, reason string) (*model.AuthorizationRequest, error)

	// ListRequests returns requests, newest first. Admin only.
	ListRequests(ctx context.Context, actor model.Identity, limit, offset int) (*RequestListResult, error)

	// DecideRequest approves or rejects a pending request. Approval
	// upgrades the requester to the authorized role. The status update is
	// a compare-and-swap: a request that has already been decided returns
	// ErrAlreadyDecided and never applies a second role change. Admin only.
	DecideRequest(ctx context.Context, actor model.Identity, requestID string, decision model.RequestStatus) (*model.AuthorizationRequest, error)

	// ListUsers returns user accounts. Admin only.
	ListUsers(ctx context.Context, actor model.Identity, limit, offset int) (*UserListResult, error)

	// SetRole sets a user's role directly, without a request. Admin only.
	SetRole(ctx context.Context, actor model.Identity, userID string, role model.Role) error
}

type accessService struct {
	users    repository.UserRepository
	requests repository.RequestRepository
	audit    AuditService
}

// NewAccessService constructs a new AccessService.
func NewAccessService(users repository.UserRepository, requests repository.RequestRepository, audit AuditService) AccessService {
	return &accessService{users: users, requests: requests, audit: audit}
}

func (s *accessService) SubmitRequest(ctx context.Context, actor model.Identity, description, reason string) (*model.AuthorizationRequest, error) {
	user, err := s.users.FindByID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	req := &model.AuthorizationRequest{
		ID:          uuid.New().String(),
		UserID:      user.ID,
		UserEmail:   user.Email,
		UserName:    user.Name,
		Description: description,
		Reason:      reason,
		Status:      model.StatusPending,
		CreatedAt:   time.Now().UTC(),
	}

	stored, err := s.requests.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	s.audit.Record(ctx, &actor.UserID, "Authorization request submitted by "+user.Name, map[string]any{
		"requestId": stored.ID,
		"action":    "request_submitted",
	})

	return stored, nil
}

func (s *accessService) ListRequests(ctx context.Context, actor model.Identity, limit, offset int) (*RequestListResult, error) {
	if !actor.Role.IsAdmin() {
		return nil, ErrAccessDenied
	}
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.requests.List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &RequestListResult{Items: res.Items, Total: res.Total}, nil
}

func (s *accessService) DecideRequest(ctx context.Context, actor model.Identity, requestID string, decision model.RequestStatus) (*model.AuthorizationRequest, error) {
	if !actor.Role.IsAdmin() {
		return nil, ErrAccessDenied
	}
	if !decision.Decision() {
		return nil, ErrInvalidDecision
	}

	req, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	applied, err := s.requests.UpdateStatusIfPending(ctx, requestID, decision)
	if err != nil {
		return nil, fmt.Errorf("update request status: %w", err)
	}
	if !applied {
		return nil, ErrAlreadyDecided
	}
	req.Status = decision

	if decision == model.StatusApproved {
		if err := s.users.UpdateRole(ctx, req.UserID, model.RoleAuthorized); err != nil {
			return nil, fmt.Errorf("upgrade requester role: %w", err)
		}
		s.audit.Record(ctx, &actor.UserID, "Access granted to "+req.UserName+" - upgraded to authorized", map[string]any{
			"userId":    req.UserID,
			"requestId": req.ID,
			"action":    "role_upgrade",
		})
	} else {
		s.audit.Record(ctx, &actor.UserID, "Authorization request rejected for "+req.UserName, map[string]any{
			"userId":    req.UserID,
			"requestId": req.ID,
			"action":    "request_rejected",
		})
	}

	return req, nil
}

func (s *accessService) ListUsers(ctx context.Context, actor model.Identity, limit, offset int) (*UserListResult, error) {
	if !actor.Role.IsAdmin() {
		return nil, ErrAccessDenied
	}
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.users.List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &UserListResult{Items: res.Items, Total: res.Total}, nil
}

func (s *accessService) SetRole(ctx context.Context, actor model.Identity, userID string, role model.Role) error {
	if !actor.Role.IsAdmin() {
		return ErrAccessDenied
	}
	if !role.Valid() {
		return ErrInvalidRole
	}

	if err := s.users.UpdateRole(ctx, userID, role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("update role: %w", err)
	}

	s.audit.Record(ctx, &actor.UserID, "Role updated for "+userID+" to "+string(role), map[string]any{
		"userId":  userID,
		"newRole": string(role),
		"action":  "role_updated",
	})

	return nil
}
