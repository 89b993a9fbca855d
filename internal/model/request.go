package model

import "time"

// RequestStatus is the lifecycle state of an authorization request.
// Requests move from pending to exactly one of approved or rejected;
// both are terminal.
type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusApproved RequestStatus = "approved"
	StatusRejected RequestStatus = "rejected"
)

// Decision reports whether s is a valid terminal state for a request.
func (s RequestStatus) Decision() bool {
	return s == StatusApproved || s == StatusRejected
}

// AuthorizationRequest is a user's application for the authorized role.
type AuthorizationRequest struct {
	ID          string        `json:"id"`
	UserID      string        `json:"user_id"`
	UserEmail   string        `json:"user_email"`
	UserName    string        `json:"user_name"`
	Description string        `json:"description"`
	Reason      string        `json:"reason"`
	Status      RequestStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
}
