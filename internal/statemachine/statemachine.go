// Package statemachine is the single choke point for booking state changes:
// every state mutation goes through Transition, which validates the edge
// against a constant adjacency table and appends an audit record.
package statemachine

import (
	"context"

	"github.com/Domenick1991/seatreserve/internal/domain"
)

var validTransitions = map[domain.BookingState][]domain.BookingState{
	domain.BookingStateInitiated:      {domain.BookingStateSeatHeld},
	domain.BookingStateSeatHeld:       {domain.BookingStatePaymentPending, domain.BookingStateExpired},
	domain.BookingStatePaymentPending: {domain.BookingStateConfirmed, domain.BookingStateSeatHeld},
	domain.BookingStateConfirmed:      {domain.BookingStateCancelled},
	domain.BookingStateCancelled:      {domain.BookingStateRefunded},
	domain.BookingStateExpired:        {},
	domain.BookingStateRefunded:       {},
}

// Recorder persists the two writes of an accepted transition. Both calls run
// inside the caller's transaction, so they commit or roll back together.
type Recorder interface {
	UpdateState(ctx context.Context, id int64, state domain.BookingState) error
	AppendTransition(ctx context.Context, t *domain.Transition) error
}

// CanTransition is a pure lookup with no side effects.
func CanTransition(from, to domain.BookingState) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Transition moves the booking to the requested state and records the
// transition. On an illegal edge it returns InvalidTransitionError and
// leaves the booking and its history untouched.
func Transition(ctx context.Context, rec Recorder, booking *domain.Booking, to domain.BookingState, notes string) error {
	from := booking.State
	if !CanTransition(from, to) {
		return &domain.InvalidTransitionError{From: from, To: to}
	}

	if err := rec.UpdateState(ctx, booking.ID, to); err != nil {
		return err
	}
	if err := rec.AppendTransition(ctx, &domain.Transition{
		BookingID: booking.ID,
		FromState: from,
		ToState:   to,
		Notes:     notes,
	}); err != nil {
		return err
	}

	booking.State = to
	return nil
}
