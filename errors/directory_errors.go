// errors/directory_errors.go
package errors

import "errors"

var (
	ErrDirectoryNotConfigured = errors.New("active directory configuration is required")
	ErrUserNotFound           = errors.New("user not found")
	ErrGroupNotFound          = errors.New("group not found")
)
