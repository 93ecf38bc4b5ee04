package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores, config adapters and the
// token service return these (optionally wrapped); the HTTP layer maps them
// to status codes with errors.Is.
//
//   - ErrNotFound: entity does not exist in store
//   - ErrExpired: token has expired
//   - ErrInvalidState: entity in wrong state for requested operation
//   - ErrUnavailable: backing service temporarily unavailable
//   - ErrInvalidInput: request could not be understood
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrExpired      = errors.New("expired")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
	ErrInvalidInput = errors.New("invalid input")
)
