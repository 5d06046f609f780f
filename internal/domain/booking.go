package domain

import "time"

type BookingState string

const (
	BookingStateInitiated      BookingState = "INITIATED"
	BookingStateSeatHeld       BookingState = "SEAT_HELD"
	BookingStatePaymentPending BookingState = "PAYMENT_PENDING"
	BookingStateConfirmed      BookingState = "CONFIRMED"
	BookingStateCancelled      BookingState = "CANCELLED"
	BookingStateExpired        BookingState = "EXPIRED"
	BookingStateRefunded       BookingState = "REFUNDED"
)

type Booking struct {
	ID                int64
	Reference         string
	FlightID          int64
	SeatID            *int64
	PassengerName     string
	PassengerEmail    string
	State             BookingState
	AmountCents       int64
	SeatHoldExpiresAt *time.Time
	PaymentID         *string
	RefundID          *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IsSeatHoldExpired reports whether the booking's hold has lapsed. A hold can
// only lapse while the booking is still in SEAT_HELD; bookings that moved on
// (or never held a seat) are never considered lapsed.
func (b *Booking) IsSeatHoldExpired(now time.Time) bool {
	if b.State != BookingStateSeatHeld || b.SeatHoldExpiresAt == nil {
		return false
	}
	return now.After(*b.SeatHoldExpiresAt)
}

// Transition is an append-only audit record of one accepted state change.
type Transition struct {
	ID        int64
	BookingID int64
	FromState BookingState
	ToState   BookingState
	Notes     string
	CreatedAt time.Time
}
