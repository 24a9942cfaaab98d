// Package common defines shared constants, sentinel errors and small random
// helpers used across the authkeeper server, its repositories and the admin
// CLI. Callers should use errors.Is to match the error values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// ErrorInternal marks failures unrelated to the request, such as the
	// random source failing.
	ErrorInternal = errors.New("internal error")

	// Account flow errors. Messages are deliberately generic so they can be
	// shown to callers without revealing which accounts exist.
	ErrDuplicateEmail         = errors.New("email already registered")
	ErrInvalidCredentials     = errors.New("invalid email or password")
	ErrAccountDisabled        = errors.New("account is disabled")
	ErrUnauthenticated        = errors.New("not authenticated")
	ErrForbidden              = errors.New("user inactive")
	ErrInvalidOrExpiredToken  = errors.New("invalid or expired token")
	ErrUnknownTokenKind       = errors.New("unknown token kind")
	ErrUnsupportedSigningAlgo = errors.New("unsupported signing algorithm")

	// ErrTransportFailure wraps outbound mail delivery failures. It is logged
	// and never surfaced to end users.
	ErrTransportFailure = errors.New("transport failure")
)
