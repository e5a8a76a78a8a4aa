package ovhapi

import "errors"

// Error categories. Every error returned by Client wraps exactly one of them.
var (
	ErrConfiguration      = errors.New("ovh client configuration error")
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrBadParameters      = errors.New("bad parameters")
	ErrAPI                = errors.New("ovh api error")
)
