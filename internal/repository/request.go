package repository

import (
	"context"

	"medsecure/internal/model"
)

// RequestRepository defines data access for authorization requests.
type RequestRepository interface {
	// Create inserts a new request record and returns the stored row.
	Create(ctx context.Context, r *model.AuthorizationRequest) (*model.AuthorizationRequest, error)

	// FindByID returns a request by ID.
	FindByID(ctx context.Context, id string) (*model.AuthorizationRequest, error)

	// List returns a paginated list of requests, newest first.
	List(ctx context.Context, pq PageQuery) (*PageResult[model.AuthorizationRequest], error)

	// UpdateStatusIfPending moves a request to the given terminal status
	// only if it is still pending, and reports whether the transition was
	// applied. The conditional update is what keeps concurrent decisions
	// on the same request from both winning.
	UpdateStatusIfPending(ctx context.Context, id string, status model.RequestStatus) (bool, error)
}
