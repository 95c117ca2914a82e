package formstate

import "errors"

var (
	// ErrNoSubmitHandler is returned by Submit when no handler is configured.
	ErrNoSubmitHandler = errors.New("formstate: no submit handler configured")
	// ErrNilUpdater is returned when an update function is nil.
	ErrNilUpdater = errors.New("formstate: updater is nil")
)
