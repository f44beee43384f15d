package jobs

import "errors"

var (
	// ErrNotFound indicates the requested job id does not exist.
	ErrNotFound = errors.New("job not found")
	// ErrTerminal indicates an operation was refused because the job already
	// reached a terminal status.
	ErrTerminal = errors.New("job already in terminal state")
)
