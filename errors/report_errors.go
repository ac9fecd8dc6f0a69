// errors/report_errors.go
package errors

import "errors"

var (
	ErrItemNotFound = errors.New("item not found")
	ErrRenameFailed = errors.New("failed to rename item")
)
