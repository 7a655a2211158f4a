package authz

import "errors"

var (
	// ErrAuthenticationRequired means no usable credential was presented.
	ErrAuthenticationRequired = errors.New("authz: authentication required")
	// ErrForbidden means the caller authenticated but lacks the required
	// permission. Always distinct from authentication failure.
	ErrForbidden = errors.New("authz: forbidden")
)
