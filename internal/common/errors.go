// Package common defines shared sentinel errors used across the service
// layers of FileVault. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("already exists")

	// Authorization errors.
	ErrorUnauthenticated = errors.New("unauthenticated")
	ErrorForbidden       = errors.New("forbidden")

	// Validation errors.
	ErrorInvalidArgument      = errors.New("invalid argument")
	ErrorPayloadTooLarge      = errors.New("payload too large")
	ErrorUnsupportedMediaType = errors.New("unsupported media type")

	// Share-link lifecycle errors.
	ErrorExpired        = errors.New("expired")
	ErrorFileNotInScope = errors.New("file not in shared folder")

	// Blob-store errors. Any failed or timed-out storage call surfaces as
	// this single sentinel; retries are a caller concern, not the server's.
	ErrorStorageUnavailable = errors.New("storage unavailable")

	// Generic/internal flow control.
	ErrorInternal = errors.New("internal error")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)
