package apperrors

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrUnknownProvider = errors.New("unknown weather provider")
	ErrInvalidInput    = errors.New("invalid input")
)
