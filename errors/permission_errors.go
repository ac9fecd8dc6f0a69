// errors/permission_errors.go
package errors

import "errors"

var (
	ErrValidation          = errors.New("invalid request data")
	ErrInvalidUserName     = errors.New("invalid userName for policies")
	ErrUpstreamUnavailable = errors.New("report server unavailable")
	ErrUpstreamWrite       = errors.New("failed to set permissions")
	ErrInternalServer      = errors.New("internal server error")
)
