package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Domenick1991/seatreserve/internal/domain"
	"github.com/jackc/pgx/v5"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	GetForUpdate(ctx context.Context, id int64) (*domain.Booking, error)
	List(ctx context.Context) ([]domain.Booking, error)
	UpdateState(ctx context.Context, id int64, state domain.BookingState) error
	SetSeatHold(ctx context.Context, id int64, seatID int64, expiresAt time.Time) error
	SetPaymentID(ctx context.Context, id int64, paymentID string) error
	SetRefundID(ctx context.Context, id int64, refundID string) error
	AppendTransition(ctx context.Context, t *domain.Transition) error
	ListTransitions(ctx context.Context, bookingID int64) ([]domain.Transition, error)
	ListLapsedHeldIDs(ctx context.Context, deadline time.Time) ([]int64, error)
}

type PGBookingRepository struct {
	db Querier
}

const bookingColumns = `id, booking_reference, flight_id, seat_id, passenger_name, passenger_email, state, amount_cents, seat_hold_expires_at, payment_id, refund_id, created_at, updated_at`

func (r *PGBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	return r.db.QueryRow(ctx, `INSERT INTO bookings (booking_reference, flight_id, passenger_name, passenger_email, state, amount_cents)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`,
		booking.Reference, booking.FlightID, booking.PassengerName, booking.PassengerEmail, booking.State, booking.AmountCents).
		Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	return r.get(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id)
}

// GetForUpdate locks the booking row, serializing concurrent operations on
// the same booking for the rest of the transaction.
func (r *PGBookingRepository) GetForUpdate(ctx context.Context, id int64) (*domain.Booking, error) {
	return r.get(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1 FOR UPDATE`, id)
}

func (r *PGBookingRepository) get(ctx context.Context, query string, id int64) (*domain.Booking, error) {
	var b domain.Booking
	if err := scanBooking(r.db.QueryRow(ctx, query, id), &b); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *PGBookingRepository) List(ctx context.Context) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		var b domain.Booking
		if err := scanBooking(rows, &b); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func (r *PGBookingRepository) UpdateState(ctx context.Context, id int64, state domain.BookingState) error {
	return r.exec(ctx, `UPDATE bookings SET state=$1, updated_at=now() WHERE id=$2`, state, id)
}

func (r *PGBookingRepository) SetSeatHold(ctx context.Context, id int64, seatID int64, expiresAt time.Time) error {
	return r.exec(ctx, `UPDATE bookings SET seat_id=$1, seat_hold_expires_at=$2, updated_at=now() WHERE id=$3`, seatID, expiresAt, id)
}

func (r *PGBookingRepository) SetPaymentID(ctx context.Context, id int64, paymentID string) error {
	return r.exec(ctx, `UPDATE bookings SET payment_id=$1, updated_at=now() WHERE id=$2`, paymentID, id)
}

func (r *PGBookingRepository) SetRefundID(ctx context.Context, id int64, refundID string) error {
	return r.exec(ctx, `UPDATE bookings SET refund_id=$1, updated_at=now() WHERE id=$2`, refundID, id)
}

func (r *PGBookingRepository) exec(ctx context.Context, query string, args ...any) error {
	cmd, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PGBookingRepository) AppendTransition(ctx context.Context, t *domain.Transition) error {
	return r.db.QueryRow(ctx, `INSERT INTO booking_state_transitions (booking_id, from_state, to_state, notes)
		VALUES ($1, $2, $3, $4) RETURNING id, created_at`,
		t.BookingID, t.FromState, t.ToState, t.Notes).Scan(&t.ID, &t.CreatedAt)
}

func (r *PGBookingRepository) ListTransitions(ctx context.Context, bookingID int64) ([]domain.Transition, error) {
	rows, err := r.db.Query(ctx, `SELECT id, booking_id, from_state, to_state, notes, created_at FROM booking_state_transitions WHERE booking_id=$1 ORDER BY created_at`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transitions := make([]domain.Transition, 0)
	for rows.Next() {
		var t domain.Transition
		if err := rows.Scan(&t.ID, &t.BookingID, &t.FromState, &t.ToState, &t.Notes, &t.CreatedAt); err != nil {
			return nil, err
		}
		transitions = append(transitions, t)
	}
	return transitions, rows.Err()
}

// ListLapsedHeldIDs selects sweep candidates: bookings still in SEAT_HELD
// whose hold deadline is strictly before the given time.
func (r *PGBookingRepository) ListLapsedHeldIDs(ctx context.Context, deadline time.Time) ([]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM bookings WHERE state=$1 AND seat_hold_expires_at < $2`, domain.BookingStateSeatHeld, deadline)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanBooking(row pgx.Row, b *domain.Booking) error {
	return row.Scan(&b.ID, &b.Reference, &b.FlightID, &b.SeatID, &b.PassengerName, &b.PassengerEmail, &b.State, &b.AmountCents, &b.SeatHoldExpiresAt, &b.PaymentID, &b.RefundID, &b.CreatedAt, &b.UpdatedAt)
}

var _ BookingRepository = (*PGBookingRepository)(nil)
