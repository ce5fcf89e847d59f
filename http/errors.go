package http

import "errors"

// ErrOriginNotAllowed is returned when a request's Origin is outside the allowlist.
var ErrOriginNotAllowed = errors.New("origin not allowed")

// ErrInvalidBody is returned when a request body cannot be decoded.
var ErrInvalidBody = errors.New("invalid request body")
