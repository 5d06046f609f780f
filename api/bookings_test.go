package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Domenick1991/seatreserve/internal/domain"
	"github.com/Domenick1991/seatreserve/internal/service/booking"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockBookingUseCase is a mock implementation of booking.BookingUseCase
type MockBookingUseCase struct {
	mock.Mock
}

func (m *MockBookingUseCase) CreateBooking(ctx context.Context, input booking.CreateBookingInput) (*domain.Booking, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) HoldSeat(ctx context.Context, bookingID int64, seatNumber string) (*domain.Booking, error) {
	args := m.Called(ctx, bookingID, seatNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) InitiatePayment(ctx context.Context, bookingID int64) (*domain.Booking, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) ProcessPayment(ctx context.Context, bookingID int64, method string) (*domain.Booking, bool, error) {
	args := m.Called(ctx, bookingID, method)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*domain.Booking), args.Bool(1), args.Error(2)
}

func (m *MockBookingUseCase) CancelBooking(ctx context.Context, bookingID int64) (*domain.Booking, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) ProcessRefund(ctx context.Context, bookingID int64) (*domain.Booking, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) ExpireBooking(ctx context.Context, bookingID int64) (*domain.Booking, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) ExpireLapsedBookings(ctx context.Context) ([]domain.Booking, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) GetBooking(ctx context.Context, bookingID int64) (*domain.Booking, []domain.Transition, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*domain.Booking), args.Get(1).([]domain.Transition), args.Error(2)
}

func (m *MockBookingUseCase) ListBookings(ctx context.Context) ([]domain.Booking, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func TestBookingHandler_create(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	input := booking.CreateBookingInput{
		FlightID:       1,
		SeatNumber:     "12A",
		PassengerName:  "Jane",
		PassengerEmail: "jane@x.com",
	}
	body, _ := json.Marshal(input)
	c.Request = httptest.NewRequest("POST", "/bookings", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	created := &domain.Booking{
		ID:             1,
		Reference:      "BK1234567890",
		FlightID:       1,
		PassengerName:  "Jane",
		PassengerEmail: "jane@x.com",
		State:          domain.BookingStateInitiated,
		AmountCents:    550000,
	}

	mockService.On("CreateBooking", c.Request.Context(), input).Return(created, nil)

	handler.create(c)

	assert.Equal(t, http.StatusCreated, w.Code)

	var response bookingResponse
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, "BK1234567890", response.Reference)
	assert.Equal(t, string(domain.BookingStateInitiated), response.State)

	mockService.AssertExpectations(t)
}

func TestBookingHandler_holdSeat(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	body, _ := json.Marshal(holdSeatRequest{SeatNumber: "12A"})
	c.Params = gin.Params{{Key: "id", Value: "1"}}
	c.Request = httptest.NewRequest("POST", "/bookings/1/hold-seat", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	seatID := int64(42)
	held := &domain.Booking{
		ID:        1,
		Reference: "BK1234567890",
		FlightID:  1,
		SeatID:    &seatID,
		State:     domain.BookingStateSeatHeld,
	}

	mockService.On("HoldSeat", c.Request.Context(), int64(1), "12A").Return(held, nil)

	handler.holdSeat(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response bookingResponse
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, string(domain.BookingStateSeatHeld), response.State)
	assert.Equal(t, int64(42), *response.SeatID)

	mockService.AssertExpectations(t)
}

func TestBookingHandler_holdSeat_Unavailable(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	body, _ := json.Marshal(holdSeatRequest{SeatNumber: "12A"})
	c.Params = gin.Params{{Key: "id", Value: "1"}}
	c.Request = httptest.NewRequest("POST", "/bookings/1/hold-seat", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	mockService.On("HoldSeat", c.Request.Context(), int64(1), "12A").Return(nil, domain.ErrSeatUnavailable)

	handler.holdSeat(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	mockService.AssertExpectations(t)
}

func TestBookingHandler_processPayment_Declined(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	body, _ := json.Marshal(processPaymentRequest{PaymentMethod: "card"})
	c.Params = gin.Params{{Key: "id", Value: "1"}}
	c.Request = httptest.NewRequest("POST", "/bookings/1/process-payment", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	held := &domain.Booking{ID: 1, Reference: "BK1234567890", State: domain.BookingStateSeatHeld}
	mockService.On("ProcessPayment", c.Request.Context(), int64(1), "card").Return(held, false, nil)

	handler.processPayment(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response bookingResponse
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.NotNil(t, response.PaymentSuccess)
	assert.False(t, *response.PaymentSuccess)
	assert.Equal(t, string(domain.BookingStateSeatHeld), response.State)

	mockService.AssertExpectations(t)
}

func TestBookingHandler_refund_AlreadyRefunded(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Params = gin.Params{{Key: "id", Value: "1"}}
	c.Request = httptest.NewRequest("POST", "/bookings/1/refund", nil)

	mockService.On("ProcessRefund", c.Request.Context(), int64(1)).Return(nil, domain.ErrAlreadyRefunded)

	handler.refund(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	mockService.AssertExpectations(t)
}

func TestBookingHandler_initiatePayment_HoldExpired(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Params = gin.Params{{Key: "id", Value: "1"}}
	c.Request = httptest.NewRequest("POST", "/bookings/1/initiate-payment", nil)

	mockService.On("InitiatePayment", c.Request.Context(), int64(1)).Return(nil, domain.ErrHoldExpired)

	handler.initiatePayment(c)

	assert.Equal(t, http.StatusGone, w.Code)
	mockService.AssertExpectations(t)
}

func TestBookingHandler_get_WithTransitions(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Params = gin.Params{{Key: "id", Value: "1"}}
	c.Request = httptest.NewRequest("GET", "/bookings/1", nil)

	b := &domain.Booking{ID: 1, Reference: "BK1234567890", State: domain.BookingStateSeatHeld}
	transitions := []domain.Transition{
		{BookingID: 1, FromState: domain.BookingStateInitiated, ToState: domain.BookingStateSeatHeld, Notes: "Seat 12A held"},
	}

	mockService.On("GetBooking", c.Request.Context(), int64(1)).Return(b, transitions, nil)

	handler.get(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response bookingResponse
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Len(t, response.Transitions, 1)
	assert.Equal(t, string(domain.BookingStateSeatHeld), response.Transitions[0].ToState)

	mockService.AssertExpectations(t)
}

func TestBookingHandler_invalidID(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Params = gin.Params{{Key: "id", Value: "abc"}}
	c.Request = httptest.NewRequest("POST", "/bookings/abc/cancel", nil)

	handler.cancel(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "CancelBooking")
}
