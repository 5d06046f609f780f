package allocator

import (
	"context"
	"testing"
	"time"

	"github.com/Domenick1991/seatreserve/internal/domain"
	"github.com/Domenick1991/seatreserve/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockFlightRepository struct {
	mock.Mock
}

func (m *MockFlightRepository) List(ctx context.Context) ([]domain.Flight, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockFlightRepository) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlightRepository) GetForUpdate(ctx context.Context, id int64) (*domain.Flight, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlightRepository) Create(ctx context.Context, flight *domain.Flight) error {
	args := m.Called(ctx, flight)
	return args.Error(0)
}

type MockSeatRepository struct {
	mock.Mock
}

func (m *MockSeatRepository) ListByFlight(ctx context.Context, flightID int64) ([]domain.Seat, error) {
	args := m.Called(ctx, flightID)
	return args.Get(0).([]domain.Seat), args.Error(1)
}

func (m *MockSeatRepository) GetForUpdate(ctx context.Context, flightID int64, seatNumber string) (*domain.Seat, error) {
	args := m.Called(ctx, flightID, seatNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Seat), args.Error(1)
}

func (m *MockSeatRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Seat, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Seat), args.Error(1)
}

func (m *MockSeatRepository) SetAvailability(ctx context.Context, id int64, available bool) error {
	args := m.Called(ctx, id, available)
	return args.Error(0)
}

func (m *MockSeatRepository) Create(ctx context.Context, seat *domain.Seat) error {
	args := m.Called(ctx, seat)
	return args.Error(0)
}

func testRepos(flights *MockFlightRepository, seats *MockSeatRepository) repository.Repositories {
	return repository.Repositories{Flights: flights, Seats: seats}
}

func TestAcquire_Success(t *testing.T) {
	flights := &MockFlightRepository{}
	seats := &MockSeatRepository{}
	a := New()
	ctx := context.Background()

	flight := &domain.Flight{ID: 1, FlightNumber: "AI101", TotalSeats: 180, DepartureTime: time.Now()}
	seat := &domain.Seat{ID: 42, FlightID: 1, SeatNumber: "12A", IsAvailable: true}

	flights.On("GetForUpdate", ctx, int64(1)).Return(flight, nil).Once()
	seats.On("GetForUpdate", ctx, int64(1), "12A").Return(seat, nil).Once()
	seats.On("SetAvailability", ctx, int64(42), false).Return(nil).Once()

	got, err := a.Acquire(ctx, testRepos(flights, seats), 1, "12A")

	assert.NoError(t, err)
	assert.Equal(t, int64(42), got.ID)
	assert.False(t, got.IsAvailable)
	flights.AssertExpectations(t)
	seats.AssertExpectations(t)
}

func TestAcquire_SeatTaken(t *testing.T) {
	flights := &MockFlightRepository{}
	seats := &MockSeatRepository{}
	a := New()
	ctx := context.Background()

	flights.On("GetForUpdate", ctx, int64(1)).Return(&domain.Flight{ID: 1}, nil).Once()
	seats.On("GetForUpdate", ctx, int64(1), "12A").Return(&domain.Seat{ID: 42, FlightID: 1, SeatNumber: "12A", IsAvailable: false}, nil).Once()

	got, err := a.Acquire(ctx, testRepos(flights, seats), 1, "12A")

	assert.Nil(t, got)
	assert.ErrorIs(t, err, domain.ErrSeatUnavailable)
	seats.AssertNotCalled(t, "SetAvailability")
}

func TestAcquire_SeatMissing(t *testing.T) {
	flights := &MockFlightRepository{}
	seats := &MockSeatRepository{}
	a := New()
	ctx := context.Background()

	flights.On("GetForUpdate", ctx, int64(1)).Return(&domain.Flight{ID: 1}, nil).Once()
	seats.On("GetForUpdate", ctx, int64(1), "99Z").Return(nil, domain.ErrNotFound).Once()

	got, err := a.Acquire(ctx, testRepos(flights, seats), 1, "99Z")

	assert.Nil(t, got)
	assert.ErrorIs(t, err, domain.ErrSeatUnavailable)
}

func TestAcquire_FlightMissing(t *testing.T) {
	flights := &MockFlightRepository{}
	seats := &MockSeatRepository{}
	a := New()
	ctx := context.Background()

	flights.On("GetForUpdate", ctx, int64(9)).Return(nil, domain.ErrNotFound).Once()

	got, err := a.Acquire(ctx, testRepos(flights, seats), 9, "12A")

	assert.Nil(t, got)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	seats.AssertNotCalled(t, "GetForUpdate")
}

func TestRelease(t *testing.T) {
	flights := &MockFlightRepository{}
	seats := &MockSeatRepository{}
	a := New()
	ctx := context.Background()

	seats.On("GetByIDForUpdate", ctx, int64(42)).Return(&domain.Seat{ID: 42, IsAvailable: false}, nil).Once()
	seats.On("SetAvailability", ctx, int64(42), true).Return(nil).Once()

	err := a.Release(ctx, testRepos(flights, seats), 42)

	assert.NoError(t, err)
	seats.AssertExpectations(t)
}

func TestRelease_AlreadyAvailable(t *testing.T) {
	flights := &MockFlightRepository{}
	seats := &MockSeatRepository{}
	a := New()
	ctx := context.Background()

	seats.On("GetByIDForUpdate", ctx, int64(42)).Return(&domain.Seat{ID: 42, IsAvailable: true}, nil).Once()

	err := a.Release(ctx, testRepos(flights, seats), 42)

	assert.NoError(t, err)
	seats.AssertNotCalled(t, "SetAvailability")
}
