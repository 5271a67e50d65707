package jukebox

import (
	"errors"

	"EternalJukebox/core/spotify"
)

var (
	// ErrNotConfigured means no provider credential is set. Only cached
	// results can be served.
	ErrNotConfigured = spotify.ErrNotConfigured
	// ErrNotFound means the upstream said no or produced nothing usable.
	ErrNotFound = errors.New("not found")
	// ErrTransientFailure means every attempt failed on transport or parse
	// errors. Callers treat it like ErrNotFound.
	ErrTransientFailure = errors.New("transient failure")
)

// maxAttempts bounds every provider retry loop.
const maxAttempts = 3
