package shared

import "fmt"

// Top-level error categories. Specific sentinels below wrap one of these
// so callers can match either the precise condition or the category with
// [errors.Is].
var ErrNotImplemented = fmt.Errorf("not implemented")

var (
	ErrValidation      = fmt.Errorf("invalid input")
	ErrNotFound        = fmt.Errorf("not found")
	ErrConflict        = fmt.Errorf("conflict")
	ErrPermission      = fmt.Errorf("permission denied")
	ErrExternalService = fmt.Errorf("external service error")
	ErrAuthExpired     = fmt.Errorf("authorization expired")
)

var (
	// Social graph errors
	ErrBlockedPair     = fmt.Errorf("%w: users block each other", ErrPermission)
	ErrSelfReference   = fmt.Errorf("%w: operation cannot target its own actor", ErrValidation)
	ErrInvalidDecision = fmt.Errorf("%w: unknown friend request decision", ErrValidation)
	ErrUsernameTaken   = fmt.Errorf("%w: username already in use", ErrConflict)

	// Engagement errors
	ErrNotAuthor = fmt.Errorf("%w: actor does not own this resource", ErrPermission)

	// Token lifecycle errors
	ErrNoConnection  = fmt.Errorf("%w: no provider connection", ErrAuthExpired)
	ErrRefreshFailed = fmt.Errorf("%w: token refresh failed", ErrAuthExpired)
	ErrStaleExchange = fmt.Errorf("%w: no authorization attempt in flight", ErrAuthExpired)
)
