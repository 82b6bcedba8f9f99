package orderflow

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrAlreadyTerminal   = errors.New("order already in a terminal status")
	ErrMissingReason     = errors.New("cancellation reason is required")
	ErrNotPermitted      = errors.New("actor not permitted to change order status")
)

// TransitionError carries the rejected edge. It matches ErrInvalidTransition with errors.Is.
type TransitionError struct {
	From Status
	To   Status
}

func (e TransitionError) Error() string {
	return fmt.Sprintf("invalid status transition %q -> %q", e.From, e.To)
}

func (e TransitionError) Unwrap() error {
	return ErrInvalidTransition
}
