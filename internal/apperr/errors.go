package apperr

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidPayload = errors.New("invalid payload")
	ErrUnknownFlavor  = errors.New("unknown flavor")
)
