package signet

import "errors"

var (
	// ErrNotFound is returned when an object does not exist in the store
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
	// ErrMissingParameter is returned when a required request parameter is empty
	ErrMissingParameter = errors.New("missing parameter")
	// ErrUnsupportedMediaType is returned when a content type is not in the allowlist
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	// ErrUnauthorized is returned when signature verification fails
	ErrUnauthorized = errors.New("unauthorized")
)
