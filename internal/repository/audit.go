package repository

import (
	"context"

	"medsecure/internal/model"
)

// AuditRepository defines data access for the append-only audit log.
// Entries are never updated or deleted.
type AuditRepository interface {
	// Append inserts a new audit entry and returns the stored row.
	Append(ctx context.Context, e *model.AuditEntry) (*model.AuditEntry, error)

	// List returns a paginated list of audit entries, newest first.
	List(ctx context.Context, pq PageQuery) (*PageResult[model.AuditEntry], error)
}
