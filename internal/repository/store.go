package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is satisfied by both *pgxpool.Pool and pgx.Tx, so the same
// repository code serves plain reads and transactional work.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repositories bundles the per-aggregate repositories bound to one querier.
// Inside WithinTx all of them share the same transaction.
type Repositories struct {
	Flights  FlightRepository
	Seats    SeatRepository
	Bookings BookingRepository
}

// Store is the atomic unit of work boundary: everything done by fn commits
// or rolls back together.
type Store interface {
	WithinTx(ctx context.Context, fn func(r Repositories) error) error
	Repos() Repositories
}

type PGStore struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

func (s *PGStore) WithinTx(ctx context.Context, fn func(r Repositories) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(newRepositories(tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Repos returns repositories bound to the pool, for reads that do not need
// transaction scope.
func (s *PGStore) Repos() Repositories {
	return newRepositories(s.pool)
}

func newRepositories(q Querier) Repositories {
	return Repositories{
		Flights:  &PGFlightRepository{db: q},
		Seats:    &PGSeatRepository{db: q},
		Bookings: &PGBookingRepository{db: q},
	}
}

var _ Store = (*PGStore)(nil)
