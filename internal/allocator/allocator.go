// Package allocator owns seat availability: no other code flips the
// is_available flag.
package allocator

import (
	"context"
	"errors"

	"github.com/Domenick1991/seatreserve/internal/domain"
	"github.com/Domenick1991/seatreserve/internal/repository"
)

type Allocator interface {
	Acquire(ctx context.Context, r repository.Repositories, flightID int64, seatNumber string) (*domain.Seat, error)
	Release(ctx context.Context, r repository.Repositories, seatID int64) error
}

type SeatAllocator struct{}

func New() *SeatAllocator {
	return &SeatAllocator{}
}

// Acquire claims the seat exclusively. The flight row is locked first, which
// gives concurrent acquisitions on the same flight a consistent order; the
// seat row is then locked and re-read so the availability check cannot race.
// Must run inside the same transaction as the booking update that follows.
func (a *SeatAllocator) Acquire(ctx context.Context, r repository.Repositories, flightID int64, seatNumber string) (*domain.Seat, error) {
	if _, err := r.Flights.GetForUpdate(ctx, flightID); err != nil {
		return nil, err
	}

	seat, err := r.Seats.GetForUpdate(ctx, flightID, seatNumber)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrSeatUnavailable
		}
		return nil, err
	}
	if !seat.IsAvailable {
		return nil, domain.ErrSeatUnavailable
	}

	if err := r.Seats.SetAvailability(ctx, seat.ID, false); err != nil {
		return nil, err
	}
	seat.IsAvailable = false
	return seat, nil
}

// Release makes the seat available again. No-op in effect when the seat is
// already available.
func (a *SeatAllocator) Release(ctx context.Context, r repository.Repositories, seatID int64) error {
	seat, err := r.Seats.GetByIDForUpdate(ctx, seatID)
	if err != nil {
		return err
	}
	if seat.IsAvailable {
		return nil
	}
	return r.Seats.SetAvailability(ctx, seat.ID, true)
}

var _ Allocator = (*SeatAllocator)(nil)
