package schedule

import "errors"

var (
	// ErrNoContent is returned when a channel has no schedulable entries.
	// It is non-fatal: callers fall back to an idle/placeholder state.
	ErrNoContent = errors.New("channel has no content to schedule")

	// ErrChannelNotFound is returned when the named channel does not exist
	ErrChannelNotFound = errors.New("channel not found")
)
