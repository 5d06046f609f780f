package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrSeatUnavailable = errors.New("seat not available or does not exist")
	ErrHoldExpired     = errors.New("seat hold has expired")
	ErrAlreadyRefunded = errors.New("refund already processed")
)

// InvalidTransitionError reports a state change that is not a legal edge from
// the booking's current state.
type InvalidTransitionError struct {
	From BookingState
	To   BookingState
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %s to %s", e.From, e.To)
}

func IsInvalidTransition(err error) bool {
	var ite *InvalidTransitionError
	return errors.As(err, &ite)
}
