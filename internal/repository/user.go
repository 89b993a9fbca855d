package repository

import (
	"context"

	"medsecure/internal/model"
)

// UserRepository defines data access for user accounts using SQL queries only.
// No business logic here, strictly persistence operations.
type UserRepository interface {
	// Create inserts a new user record and returns the stored row.
	Create(ctx context.Context, u *model.User) (*model.User, error)

	// FindByID returns a user by ID.
	FindByID(ctx context.Context, id string) (*model.User, error)

	// List returns a paginated list of users with a total count.
	List(ctx context.Context, pq PageQuery) (*PageResult[model.User], error)

	// UpdateRole sets the user's role. Returns sql.ErrNoRows if the user
	// does not exist.
	UpdateRole(ctx context.Context, id string, role model.Role) error
}
