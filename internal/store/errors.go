package store

import (
	"errors"
	"fmt"
)

// ErrConflict indicates the remote store rejected a write because it
// would violate a uniqueness constraint.
var ErrConflict = errors.New("store: conflict")

// TransportError wraps a network-level failure talking to the store.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("store: %s: transport failure: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RemoteError indicates the store answered with an unexpected status.
type RemoteError struct {
	Op     string
	Status int
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("store: %s: remote store rejected request with status %d", e.Op, e.Status)
}

// Is lets a 409 RemoteError satisfy errors.Is(err, ErrConflict).
func (e *RemoteError) Is(target error) bool {
	return target == ErrConflict && e.Status == 409
}
