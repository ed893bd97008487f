package service

import "errors"

// Expected-condition failures. Callers branch on these with errors.Is; only
// store-unreachable conditions surface as other (wrapped) errors.
var (
	// ErrUnauthorized indicates login with no matching active account.
	ErrUnauthorized = errors.New("invalid credentials")
	// ErrNoToken indicates a call that presented no session token at all.
	ErrNoToken = errors.New("no session token")
	// ErrSessionNotFound indicates a token that matches no session row.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired indicates a session past its expiry.
	ErrSessionExpired = errors.New("session expired")
	// ErrSessionRevoked indicates a session ended by logout.
	ErrSessionRevoked = errors.New("session revoked")
	// ErrForbidden indicates an authenticated caller with insufficient role.
	ErrForbidden = errors.New("insufficient permissions")
	// ErrInvalidTransition indicates a workflow precondition violation.
	ErrInvalidTransition = errors.New("invalid workflow transition")
	// ErrNotFound indicates a missing entity.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a concurrent transition won the race.
	ErrConflict = errors.New("request state changed concurrently")
)
