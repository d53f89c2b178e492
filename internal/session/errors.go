package session

import "errors"

var (
	// ErrNotFound is returned for an unknown tab index (and, by the
	// dispatcher, for an unknown command name).
	ErrNotFound = errors.New("not found")

	// ErrNoActiveTab is returned when a command needs a tab and none is open.
	ErrNoActiveTab = errors.New("no open pages available")

	// ErrPreconditionFailed is returned when a pending modal state blocks a
	// command, or a command that resolves a modal state finds none.
	ErrPreconditionFailed = errors.New("precondition failed")

	// ErrSessionLifecycleConflict is returned when a session is requested
	// while the previous one is still being torn down.
	ErrSessionLifecycleConflict = errors.New("another browser context is being closed")
)

// gateError carries a user-facing modal gate message.
type gateError struct {
	msg string
}

func (e *gateError) Error() string { return e.msg }
func (e *gateError) Unwrap() error { return ErrPreconditionFailed }
