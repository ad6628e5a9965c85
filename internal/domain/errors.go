package domain

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailExists        = errors.New("email already registered")
	ErrTagExhausted       = errors.New("no free tag for username")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserBanned         = errors.New("user banned")
	ErrTokenNotFound      = errors.New("token not found")
	ErrTokenRevoked       = errors.New("token revoked")
	ErrTokenExpired       = errors.New("token expired")
	ErrDeviceNotFound     = errors.New("device not found")
	ErrFileNotFound       = errors.New("file not found")
	ErrCodeNotFound       = errors.New("verification code not found")
	ErrCodeExpired        = errors.New("verification code expired")
)

// Validation failures. These cross the service boundary so transports can
// map them to client errors instead of treating them as server faults.
var (
	ErrEmptyPassword   = errors.New("empty password")
	ErrEmptyCredential = errors.New("empty credential(s)")
	ErrInvalidStatus   = errors.New("invalid status type")
	ErrInvalidIcon     = errors.New("invalid icon reference")
	ErrEmptyFileName   = errors.New("empty file name")
)
