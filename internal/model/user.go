package model

import "time"

// Role is the access tier of a platform user.
type Role string

const (
	// RoleUser is the default tier assigned on account creation.
	RoleUser Role = "user"
	// RoleAuthorized is granted through an approved authorization request.
	RoleAuthorized Role = "authorized"
	// RoleAdmin is assigned administratively and is not otherwise reachable.
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAuthorized, RoleAdmin:
		return true
	}
	return false
}

// CanUseVault reports whether the role may invoke file encryption,
// decryption, and the analysis endpoint.
func (r Role) CanUseVault() bool {
	return r == RoleAuthorized || r == RoleAdmin
}

// IsAdmin reports whether the role grants administrative access.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// User represents a platform account.
// This is a pure domain model with no database-specific dependencies or tags.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}
