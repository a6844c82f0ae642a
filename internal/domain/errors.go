package domain

import "errors"

// Common domain errors
var (
	// ErrIdentityNotFound signals that a platform reports the watched
	// identity as nonexistent or deleted. It is the terminal probe fault:
	// the monitor deactivates the entry instead of retrying. Probes wrap
	// this sentinel so callers classify with errors.Is rather than by
	// matching message text.
	ErrIdentityNotFound = errors.New("identity not found")

	// ErrDuplicateWatch is returned when a watch with the same
	// (guild, platform, identity) key already exists
	ErrDuplicateWatch = errors.New("watch already exists")

	// ErrWatchNotFound is returned when a watch entry cannot be found
	ErrWatchNotFound = errors.New("watch not found")

	// ErrChannelGone signals a permanent delivery fault: the destination
	// channel no longer exists or the notifier may not post to it
	ErrChannelGone = errors.New("destination channel gone")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
)
