package errors

import (
	"errors"
	"fmt"
)

// Error taxonomy for the session client. Decode failures are recovered
// locally and never reach callers; refresh failures are fatal to the session;
// everything else propagates unchanged so callers render their own error UI.
var (
	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotAuthenticated   = errors.New("not authenticated")

	// Token errors
	ErrNoRefreshToken       = errors.New("no refresh token stored")
	ErrRefreshFailed        = errors.New("token refresh failed")
	ErrSessionUnrecoverable = errors.New("session unrecoverable")

	// Backend errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrBackend      = errors.New("backend error")

	// Store errors
	ErrStoreUnavailable = errors.New("token store unavailable")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
