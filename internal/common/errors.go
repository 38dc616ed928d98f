// Package common defines shared constants and sentinel errors used across
// client and server layers of PlantKeeper. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Local store errors.
	ErrQueueOverflow = errors.New("local store queue overflow")
	ErrCorruption    = errors.New("corrupt cached data")

	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Import/backup errors.
	ErrMalformedArchive = errors.New("malformed archive")
	ErrInvalidArchive   = errors.New("invalid archive")

	// Remote mirror errors.
	ErrRemoteTimeout     = errors.New("remote operation timed out")
	ErrRemoteUnavailable = errors.New("remote store unavailable")

	// Auth errors.
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidToken     = errors.New("invalid token")
	ErrTokenExpired     = errors.New("token expired")
	ErrRefreshExpired   = errors.New("refresh token expired")

	// Service-level errors.
	ErrInternal = errors.New("internal error")
)
