// Package channel provides business logic for channel and lineup operations.
package channel

import "errors"

var (
	// ErrChannelNotFound is returned when a channel doesn't exist
	ErrChannelNotFound = errors.New("channel not found")

	// ErrDuplicateChannelNumber is returned when a channel number is taken
	ErrDuplicateChannelNumber = errors.New("channel number already in use")

	// ErrDuplicateChannelName is returned when a channel name already exists
	ErrDuplicateChannelName = errors.New("channel name already exists")

	// ErrNoSchedule is returned when a channel has no time-slot schedule
	ErrNoSchedule = errors.New("channel has no schedule")
)
