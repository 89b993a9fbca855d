package postgres

import (
	"context"
	"database/sql"

	"medsecure/internal/model"
	"medsecure/internal/repository"
)

// RequestPostgres is a PostgreSQL implementation of repository.RequestRepository.
type RequestPostgres struct {
	db *sql.DB
}

// NewRequestPostgres creates a new RequestPostgres repository.
func NewRequestPostgres(db *sql.DB) *RequestPostgres {
	return &RequestPostgres{db: db}
}

var _ repository.RequestRepository = (*RequestPostgres)(nil)

// Create inserts a new authorization request row and returns the stored record.
func (r *RequestPostgres) Create(ctx context.Context, req *model.AuthorizationRequest) (*model.AuthorizationRequest, error) {
	const q = `
		INSERT INTO authorization_requests (id, user_id, user_email, user_name, description, reason, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, user_id, user_email, user_name, description, reason, status, created_at
	`
	row := r.db.QueryRowContext(ctx, q,
		req.ID,
		req.UserID,
		req.UserEmail,
		req.UserName,
		req.Description,
		req.Reason,
		req.Status,
		req.CreatedAt,
	)
	var out model.AuthorizationRequest
	if err := row.Scan(
		&out.ID,
		&out.UserID,
		&out.UserEmail,
		&out.UserName,
		&out.Description,
		&out.Reason,
		&out.Status,
		&out.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &out, nil
}

// FindByID fetches a single request by ID.
func (r *RequestPostgres) FindByID(ctx context.Context, id string) (*model.AuthorizationRequest, error) {
	const q = `
		SELECT id, user_id, user_email, user_name, description, reason, status, created_at
		FROM authorization_requests
		WHERE id = $1
	`
	row := r.db.QueryRowContext(ctx, q, id)
	var req model.AuthorizationRequest
	if err := row.Scan(
		&req.ID,
		&req.UserID,
		&req.UserEmail,
		&req.UserName,
		&req.Description,
		&req.Reason,
		&req.Status,
		&req.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &req, nil
}

// List returns requests using LIMIT/OFFSET pagination and a total count,
// newest first.
func (r *RequestPostgres) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.AuthorizationRequest], error) {
	const qCount = `SELECT COUNT(*) FROM authorization_requests`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `
		SELECT id, user_id, user_email, user_name, description, reason, status, created_at
		FROM authorization_requests
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.QueryContext(ctx, qList, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.AuthorizationRequest, 0)
	for rows.Next() {
		var req model.AuthorizationRequest
		if err := rows.Scan(
			&req.ID,
			&req.UserID,
			&req.UserEmail,
			&req.UserName,
			&req.Description,
			&req.Reason,
			&req.Status,
			&req.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, req)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.AuthorizationRequest]{Items: items, Total: total}, nil
}

// UpdateStatusIfPending performs a compare-and-swap on the status column.
func (r *RequestPostgres) UpdateStatusIfPending(ctx context.Context, id string, status model.RequestStatus) (bool, error) {
	const q = `
		UPDATE authorization_requests
		SET status = $2
		WHERE id = $1 AND status = 'pending'
	`
	res, err := r.db.ExecContext(ctx, q, id, status)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
