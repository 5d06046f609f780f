package repository

import (
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
)

func TestNewStore(t *testing.T) {
	pool := &pgxpool.Pool{}
	store := NewStore(pool)
	assert.NotNil(t, store)

	repos := store.Repos()
	assert.NotNil(t, repos.Flights)
	assert.NotNil(t, repos.Seats)
	assert.NotNil(t, repos.Bookings)
}
