package impl

import "disbroad/internal/domain"

// Aliases keep call sites in this package short; the sentinels live in
// domain so transports can match on them.
var (
	ErrEmptyPassword   = domain.ErrEmptyPassword
	ErrEmptyCredential = domain.ErrEmptyCredential
	ErrInvalidStatus   = domain.ErrInvalidStatus
	ErrInvalidIcon     = domain.ErrInvalidIcon
	ErrEmptyFileName   = domain.ErrEmptyFileName
)
