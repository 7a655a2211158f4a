package account

import "errors"

var (
	ErrNotFound       = errors.New("account: not found")
	ErrAlreadyExists  = errors.New("account: already exists")
	ErrMissingFields  = errors.New("account: missing required fields")
	ErrInvalidInput   = errors.New("account: invalid input")
	ErrBadCredentials = errors.New("account: bad credentials")
)
