package model

import "time"

// AuditEntry is an append-only record of a sensitive action.
// UserID is nil when the action had no authenticated actor.
type AuditEntry struct {
	ID        string         `json:"id"`
	UserID    *string        `json:"user_id"`
	Action    string         `json:"action"`
	Details   map[string]any `json:"details"`
	CreatedAt time.Time      `json:"created_at"`
}
