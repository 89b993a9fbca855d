package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"medsecure/internal/model"
	"medsecure/internal/repository"
)

// AuditPostgres is a PostgreSQL implementation of repository.AuditRepository.
// The table is append-only; no update or delete statements exist here.
type AuditPostgres struct {
	db *sql.DB
}

// NewAuditPostgres creates a new AuditPostgres repository.
func NewAuditPostgres(db *sql.DB) *AuditPostgres {
	return &AuditPostgres{db: db}
}

var _ repository.AuditRepository = (*AuditPostgres)(nil)

// Append inserts a new audit entry and returns the stored record.
func (r *AuditPostgres) Append(ctx context.Context, e *model.AuditEntry) (*model.AuditEntry, error) {
	details := e.Details
	if details == nil {
		details = map[string]any{}
	}
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return nil, fmt.Errorf("marshal details: %w", err)
	}

	const q = `
		INSERT INTO audit_logs (id, user_id, action, details, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, user_id, action, details, created_at
	`
	row := r.db.QueryRowContext(ctx, q, e.ID, e.UserID, e.Action, detailsJSON, e.CreatedAt)

	var out model.AuditEntry
	var rawDetails []byte
	if err := row.Scan(&out.ID, &out.UserID, &out.Action, &rawDetails, &out.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(rawDetails, &out.Details); err != nil {
		return nil, fmt.Errorf("unmarshal details: %w", err)
	}
	return &out, nil
}

// List returns audit entries using LIMIT/OFFSET pagination and a total
// count, newest first.
func (r *AuditPostgres) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.AuditEntry], error) {
	const qCount = `SELECT COUNT(*) FROM audit_logs`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `
		SELECT id, user_id, action, details, created_at
		FROM audit_logs
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.QueryContext(ctx, qList, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.AuditEntry, 0)
	for rows.Next() {
		var e model.AuditEntry
		var rawDetails []byte
		if err := rows.Scan(&e.ID, &e.UserID, &e.Action, &rawDetails, &e.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(rawDetails, &e.Details); err != nil {
			return nil, fmt.Errorf("unmarshal details: %w", err)
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.AuditEntry]{Items: items, Total: total}, nil
}
