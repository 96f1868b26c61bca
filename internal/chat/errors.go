package chat

import (
	"errors"
	"fmt"
)

var (
	// ErrNotReady is wrapped by every construction failure.
	ErrNotReady = errors.New("chat engine not ready")

	// ErrEmptyMessage is returned for blank input; nothing is recorded.
	ErrEmptyMessage = errors.New("message was empty")
)

// ModelInvocationError reports a failed or canceled model call. The user's
// message stays in memory; no assistant turn is recorded.
type ModelInvocationError struct {
	Key string
	Err error
}

func (e *ModelInvocationError) Error() string {
	return fmt.Sprintf("model invocation failed for %q: %v", e.Key, e.Err)
}

func (e *ModelInvocationError) Unwrap() error { return e.Err }

// PersistError reports that a reply was produced and recorded in memory but
// the store could not be written. Reply holds the text so callers can still
// show it.
type PersistError struct {
	Key   string
	Reply string
	Err   error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("could not save conversation %q: %v", e.Key, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }
