package model

// Identity is the authenticated caller as established by the external
// identity provider. The role is refreshed from the users table on every
// request rather than trusted from the token.
type Identity struct {
	UserID string
	Email  string
	Role   Role
}
