package game

import "errors"

var (
	// ErrInvalidArgument marks a rejected command argument, e.g. a challenge without a duration.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidState marks a command that does not apply to the current session state.
	ErrInvalidState = errors.New("invalid state")
)
