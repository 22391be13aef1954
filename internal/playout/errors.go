package playout

import "errors"

var (
	// ErrLineupDrift is returned when the clock walks off the end of the
	// lineup while the channel claims a positive loop duration. It means the
	// channel's cached duration no longer matches the lineup item sum. The
	// single resolution fails; the channel degrades to an offline placeholder.
	ErrLineupDrift = errors.New("channel duration does not match lineup item sum")

	// ErrEmptyLineup is returned when a channel has no lineup items at all
	ErrEmptyLineup = errors.New("channel lineup is empty")
)
