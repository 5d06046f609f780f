package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Domenick1991/seatreserve/internal/domain"
	"github.com/Domenick1991/seatreserve/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type holdSeatRequest struct {
	SeatNumber string `json:"seat_number"`
}

type processPaymentRequest struct {
	PaymentMethod string `json:"payment_method"`
}

type transitionResponse struct {
	FromState string `json:"from_state"`
	ToState   string `json:"to_state"`
	Notes     string `json:"notes"`
	CreatedAt string `json:"created_at"`
}

type bookingResponse struct {
	ID                int64                `json:"id"`
	Reference         string               `json:"booking_reference"`
	FlightID          int64                `json:"flight_id"`
	SeatID            *int64               `json:"seat_id,omitempty"`
	PassengerName     string               `json:"passenger_name"`
	PassengerEmail    string               `json:"passenger_email"`
	State             string               `json:"state"`
	AmountCents       int64                `json:"amount_cents"`
	SeatHoldExpiresAt *string              `json:"seat_hold_expires_at,omitempty"`
	PaymentID         *string              `json:"payment_id,omitempty"`
	RefundID          *string              `json:"refund_id,omitempty"`
	PaymentSuccess    *bool                `json:"payment_success,omitempty"`
	Transitions       []transitionResponse `json:"transitions,omitempty"`
	CreatedAt         string               `json:"created_at"`
	UpdatedAt         string               `json:"updated_at"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.GET("/", h.list)
	router.POST("/", h.create)
	router.GET("/:id", h.get)
	router.POST("/:id/hold-seat", h.holdSeat)
	router.POST("/:id/initiate-payment", h.initiatePayment)
	router.POST("/:id/process-payment", h.processPayment)
	router.POST("/:id/cancel", h.cancel)
	router.POST("/:id/refund", h.refund)
}

func (h *BookingHandler) list(c *gin.Context) {
	bookings, err := h.service.ListBookings(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]bookingResponse, 0, len(bookings))
	for i := range bookings {
		resp = append(resp, toBookingResponse(&bookings[i], nil, nil))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req booking.CreateBookingInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.service.CreateBooking(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toBookingResponse(created, nil, nil))
}

func (h *BookingHandler) get(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}

	b, transitions, err := h.service.GetBooking(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(b, transitions, nil))
}

func (h *BookingHandler) holdSeat(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}

	var req holdSeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	b, err := h.service.HoldSeat(c.Request.Context(), id, req.SeatNumber)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(b, nil, nil))
}

func (h *BookingHandler) initiatePayment(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}

	b, err := h.service.InitiatePayment(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(b, nil, nil))
}

func (h *BookingHandler) processPayment(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}

	req := processPaymentRequest{PaymentMethod: "card"}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	b, success, err := h.service.ProcessPayment(c.Request.Context(), id, req.PaymentMethod)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(b, nil, &success))
}

func (h *BookingHandler) cancel(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}

	b, err := h.service.CancelBooking(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(b, nil, nil))
}

func (h *BookingHandler) refund(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}

	b, err := h.service.ProcessRefund(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(b, nil, nil))
}

func bookingID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id"})
		return 0, false
	}
	return id, true
}

// writeError maps the service error taxonomy onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrSeatUnavailable), errors.Is(err, domain.ErrAlreadyRefunded):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrHoldExpired):
		c.JSON(http.StatusGone, gin.H{"error": err.Error()})
	case domain.IsInvalidTransition(err):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}

func toBookingResponse(b *domain.Booking, transitions []domain.Transition, paymentSuccess *bool) bookingResponse {
	resp := bookingResponse{
		ID:             b.ID,
		Reference:      b.Reference,
		FlightID:       b.FlightID,
		SeatID:         b.SeatID,
		PassengerName:  b.PassengerName,
		PassengerEmail: b.PassengerEmail,
		State:          string(b.State),
		AmountCents:    b.AmountCents,
		PaymentID:      b.PaymentID,
		RefundID:       b.RefundID,
		PaymentSuccess: paymentSuccess,
		CreatedAt:      b.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      b.UpdatedAt.Format(time.RFC3339),
	}
	if b.SeatHoldExpiresAt != nil {
		v := b.SeatHoldExpiresAt.Format(time.RFC3339)
		resp.SeatHoldExpiresAt = &v
	}
	for _, t := range transitions {
		resp.Transitions = append(resp.Transitions, transitionResponse{
			FromState: string(t.FromState),
			ToState:   string(t.ToState),
			Notes:     t.Notes,
			CreatedAt: t.CreatedAt.Format(time.RFC3339),
		})
	}
	return resp
}
