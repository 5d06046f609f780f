package repository

import (
	"context"
	"errors"

	"github.com/Domenick1991/seatreserve/internal/domain"
	"github.com/jackc/pgx/v5"
)

type SeatRepository interface {
	ListByFlight(ctx context.Context, flightID int64) ([]domain.Seat, error)
	GetForUpdate(ctx context.Context, flightID int64, seatNumber string) (*domain.Seat, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.Seat, error)
	SetAvailability(ctx context.Context, id int64, available bool) error
	Create(ctx context.Context, seat *domain.Seat) error
}

type PGSeatRepository struct {
	db Querier
}

func (r *PGSeatRepository) ListByFlight(ctx context.Context, flightID int64) ([]domain.Seat, error) {
	rows, err := r.db.Query(ctx, `SELECT id, flight_id, seat_number, is_available FROM seats WHERE flight_id=$1 ORDER BY id`, flightID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seats := make([]domain.Seat, 0)
	for rows.Next() {
		var s domain.Seat
		if err := rows.Scan(&s.ID, &s.FlightID, &s.SeatNumber, &s.IsAvailable); err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	return seats, rows.Err()
}

// GetForUpdate locks and re-reads the seat row so the availability flag seen
// by the caller cannot change until the transaction finishes.
func (r *PGSeatRepository) GetForUpdate(ctx context.Context, flightID int64, seatNumber string) (*domain.Seat, error) {
	return r.get(ctx, `SELECT id, flight_id, seat_number, is_available FROM seats WHERE flight_id=$1 AND seat_number=$2 FOR UPDATE`, flightID, seatNumber)
}

func (r *PGSeatRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Seat, error) {
	return r.get(ctx, `SELECT id, flight_id, seat_number, is_available FROM seats WHERE id=$1 FOR UPDATE`, id)
}

func (r *PGSeatRepository) get(ctx context.Context, query string, args ...any) (*domain.Seat, error) {
	var s domain.Seat
	if err := r.db.QueryRow(ctx, query, args...).Scan(&s.ID, &s.FlightID, &s.SeatNumber, &s.IsAvailable); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *PGSeatRepository) SetAvailability(ctx context.Context, id int64, available bool) error {
	cmd, err := r.db.Exec(ctx, `UPDATE seats SET is_available=$1 WHERE id=$2`, available, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PGSeatRepository) Create(ctx context.Context, seat *domain.Seat) error {
	return r.db.QueryRow(ctx, `INSERT INTO seats (flight_id, seat_number, is_available)
		VALUES ($1, $2, $3) RETURNING id`,
		seat.FlightID, seat.SeatNumber, seat.IsAvailable).Scan(&seat.ID)
}

var _ SeatRepository = (*PGSeatRepository)(nil)
