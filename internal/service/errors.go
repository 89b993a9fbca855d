package service

import "errors"

var (
	// ErrAccessDenied means the caller's role does not permit the operation.
	ErrAccessDenied = errors.New("access restricted")
	// ErrNotFound means the referenced record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyDecided means the authorization request is no longer pending.
	ErrAlreadyDecided = errors.New("request already decided")
	// ErrInvalidRole means the requested role is not one of user/authorized/admin.
	ErrInvalidRole = errors.New("invalid role")
	// ErrInvalidDecision means a decision must be approved or rejected.
	ErrInvalidDecision = errors.New("decision must be approved or rejected")
	// ErrAnalysisDisabled means no analysis endpoint is configured.
	ErrAnalysisDisabled = errors.New("analysis endpoint not configured")
	// ErrStoreUnavailable wraps vault/object-store failures.
	ErrStoreUnavailable = errors.New("storage unavailable")
)
