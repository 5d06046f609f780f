package booking

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Domenick1991/seatreserve/internal/allocator"
	"github.com/Domenick1991/seatreserve/internal/domain"
	"github.com/Domenick1991/seatreserve/internal/kafka"
	"github.com/Domenick1991/seatreserve/internal/payment"
	"github.com/Domenick1991/seatreserve/internal/repository"
	"github.com/Domenick1991/seatreserve/internal/statemachine"
	"github.com/google/uuid"
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error)
	HoldSeat(ctx context.Context, bookingID int64, seatNumber string) (*domain.Booking, error)
	InitiatePayment(ctx context.Context, bookingID int64) (*domain.Booking, error)
	ProcessPayment(ctx context.Context, bookingID int64, method string) (*domain.Booking, bool, error)
	CancelBooking(ctx context.Context, bookingID int64) (*domain.Booking, error)
	ProcessRefund(ctx context.Context, bookingID int64) (*domain.Booking, error)
	ExpireBooking(ctx context.Context, bookingID int64) (*domain.Booking, error)
	ExpireLapsedBookings(ctx context.Context) ([]domain.Booking, error)
	GetBooking(ctx context.Context, bookingID int64) (*domain.Booking, []domain.Transition, error)
	ListBookings(ctx context.Context) ([]domain.Booking, error)
}

type Cache interface {
	AcquireSeatLock(ctx context.Context, flightID int64, seatNumber string, ttl time.Duration) (bool, error)
	ReleaseSeatLock(ctx context.Context, flightID int64, seatNumber string) error
	GetFlights(ctx context.Context) ([]domain.Flight, error)
	SetFlights(ctx context.Context, flights []domain.Flight) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type BookingService struct {
	store              repository.Store
	allocator          allocator.Allocator
	gateway            payment.Gateway
	refunder           payment.Refunder
	cache              Cache
	producer           Producer
	bookingTopic       string
	notificationsTopic string
	holdTTL            time.Duration
	now                func() time.Time
}

type CreateBookingInput struct {
	FlightID       int64  `json:"flight_id"`
	SeatNumber     string `json:"seat_number"`
	PassengerName  string `json:"passenger_name"`
	PassengerEmail string `json:"passenger_email"`
}

type BookingServiceOption func(*BookingService)

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

// WithClock overrides the wall clock, used by tests to force lapses.
func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		s.now = now
	}
}

func NewBookingService(
	store repository.Store,
	alloc allocator.Allocator,
	gateway payment.Gateway,
	refunder payment.Refunder,
	cache Cache,
	producer Producer,
	bookingTopic string,
	holdTTL time.Duration,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		store:        store,
		allocator:    alloc,
		gateway:      gateway,
		refunder:     refunder,
		cache:        cache,
		producer:     producer,
		bookingTopic: bookingTopic,
		holdTTL:      holdTTL,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// CreateBooking registers a new booking in INITIATED against an existing
// flight. The seat number is accepted with the rest of the passenger input
// but the seat itself is only claimed by the subsequent HoldSeat call.
func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error) {
	if input.PassengerName == "" {
		return nil, errors.New("passenger name is required")
	}
	if input.PassengerEmail == "" {
		return nil, errors.New("passenger email is required")
	}

	var b *domain.Booking
	err := s.store.WithinTx(ctx, func(r repository.Repositories) error {
		flight, err := r.Flights.GetForUpdate(ctx, input.FlightID)
		if err != nil {
			return err
		}

		b = &domain.Booking{
			Reference:      newBookingReference(),
			FlightID:       flight.ID,
			PassengerName:  input.PassengerName,
			PassengerEmail: input.PassengerEmail,
			State:          domain.BookingStateInitiated,
			AmountCents:    flight.PriceCents,
		}
		return r.Bookings.Create(ctx, b)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, "booking_created", b, input.SeatNumber)
	return b, nil
}

// HoldSeat claims the seat exclusively and starts the hold window. If the
// booking's previous hold has already lapsed the booking is expired instead,
// that side effect commits, and ErrHoldExpired is returned.
func (s *BookingService) HoldSeat(ctx context.Context, bookingID int64, seatNumber string) (*domain.Booking, error) {
	if seatNumber == "" {
		return nil, errors.New("seat number is required")
	}

	var (
		b        *domain.Booking
		lapsed   bool
		locked   bool
		flightID int64
	)

	// Advisory fast path: contenders for the same seat fail on the redis
	// lock without ever reaching the database. The row lock inside the
	// transaction remains the authority.
	if s.cache != nil {
		pre, err := s.store.Repos().Bookings.GetByID(ctx, bookingID)
		if err != nil {
			return nil, err
		}
		flightID = pre.FlightID
		ok, err := s.cache.AcquireSeatLock(ctx, flightID, seatNumber, s.holdTTL)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, domain.ErrSeatUnavailable
		}
		locked = true
	}

	err := s.store.WithinTx(ctx, func(r repository.Repositories) error {
		var err error
		b, err = r.Bookings.GetForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}

		if b.IsSeatHoldExpired(s.now()) {
			lapsed = true
			return s.expireInTx(ctx, r, b, "Seat hold expired")
		}

		seat, err := s.allocator.Acquire(ctx, r, b.FlightID, seatNumber)
		if err != nil {
			return err
		}

		expiresAt := s.now().Add(s.holdTTL)
		if err := r.Bookings.SetSeatHold(ctx, b.ID, seat.ID, expiresAt); err != nil {
			return err
		}
		b.SeatID = &seat.ID
		b.SeatHoldExpiresAt = &expiresAt

		return statemachine.Transition(ctx, r.Bookings, b, domain.BookingStateSeatHeld,
			fmt.Sprintf("Seat %s held until %s", seatNumber, expiresAt.Format(time.RFC3339)))
	})
	if err != nil {
		if locked {
			_ = s.cache.ReleaseSeatLock(ctx, flightID, seatNumber)
		}
		return nil, err
	}
	if lapsed {
		if locked {
			_ = s.cache.ReleaseSeatLock(ctx, flightID, seatNumber)
		}
		s.publish(ctx, "booking_expired", b, "")
		return b, domain.ErrHoldExpired
	}

	s.publish(ctx, "seat_held", b, seatNumber)
	return b, nil
}

// InitiatePayment moves a held booking to PAYMENT_PENDING, expiring it first
// when the hold has lapsed.
func (s *BookingService) InitiatePayment(ctx context.Context, bookingID int64) (*domain.Booking, error) {
	var (
		b      *domain.Booking
		lapsed bool
	)
	err := s.store.WithinTx(ctx, func(r repository.Repositories) error {
		var err error
		b, err = r.Bookings.GetForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}

		if b.IsSeatHoldExpired(s.now()) {
			lapsed = true
			return s.expireInTx(ctx, r, b, "Seat hold expired")
		}

		return statemachine.Transition(ctx, r.Bookings, b, domain.BookingStatePaymentPending, "Payment initiated")
	})
	if err != nil {
		return nil, err
	}
	if lapsed {
		s.publish(ctx, "booking_expired", b, "")
		return b, domain.ErrHoldExpired
	}

	s.publish(ctx, "payment_pending", b, "")
	return b, nil
}

// ProcessPayment charges the booking through the payment gateway. Decline is
// a normal outcome: the booking drops back to SEAT_HELD, the original hold
// deadline deliberately stays as it was, and success=false is returned
// without an error.
func (s *BookingService) ProcessPayment(ctx context.Context, bookingID int64, method string) (*domain.Booking, bool, error) {
	var (
		b       *domain.Booking
		lapsed  bool
		success bool
	)
	err := s.store.WithinTx(ctx, func(r repository.Repositories) error {
		var err error
		b, err = r.Bookings.GetForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}

		if b.IsSeatHoldExpired(s.now()) {
			lapsed = true
			return s.expireInTx(ctx, r, b, "Seat hold expired")
		}

		result, err := s.gateway.Attempt(ctx, method)
		if err != nil {
			return err
		}

		if !result.Success {
			return statemachine.Transition(ctx, r.Bookings, b, domain.BookingStateSeatHeld,
				fmt.Sprintf("Payment failed: %s", result.PaymentID))
		}

		if err := r.Bookings.SetPaymentID(ctx, b.ID, result.PaymentID); err != nil {
			return err
		}
		b.PaymentID = &result.PaymentID
		success = true

		return statemachine.Transition(ctx, r.Bookings, b, domain.BookingStateConfirmed,
			fmt.Sprintf("Payment successful: %s", result.PaymentID))
	})
	if err != nil {
		return nil, false, err
	}
	if lapsed {
		s.publish(ctx, "booking_expired", b, "")
		return b, false, domain.ErrHoldExpired
	}

	if success {
		s.publish(ctx, "booking_confirmed", b, "")
	} else {
		s.publish(ctx, "payment_failed", b, "")
	}
	return b, success, nil
}

// CancelBooking cancels a confirmed booking and returns its seat to the pool.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID int64) (*domain.Booking, error) {
	var (
		b          *domain.Booking
		seatNumber string
	)
	err := s.store.WithinTx(ctx, func(r repository.Repositories) error {
		var err error
		b, err = r.Bookings.GetForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}

		if err := statemachine.Transition(ctx, r.Bookings, b, domain.BookingStateCancelled, "Booking cancelled by user"); err != nil {
			return err
		}

		seatNumber, err = s.releaseSeat(ctx, r, b)
		return err
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil && seatNumber != "" {
		_ = s.cache.ReleaseSeatLock(ctx, b.FlightID, seatNumber)
	}
	s.publish(ctx, "booking_cancelled", b, seatNumber)
	return b, nil
}

// ProcessRefund refunds a cancelled booking exactly once; the stored
// refund id is the guard against a second refund.
func (s *BookingService) ProcessRefund(ctx context.Context, bookingID int64) (*domain.Booking, error) {
	var b *domain.Booking
	err := s.store.WithinTx(ctx, func(r repository.Repositories) error {
		var err error
		b, err = r.Bookings.GetForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}

		if b.RefundID != nil {
			return domain.ErrAlreadyRefunded
		}

		refundID, err := s.refunder.Attempt(ctx)
		if err != nil {
			return err
		}
		if err := r.Bookings.SetRefundID(ctx, b.ID, refundID); err != nil {
			return err
		}
		b.RefundID = &refundID

		return statemachine.Transition(ctx, r.Bookings, b, domain.BookingStateRefunded,
			fmt.Sprintf("Refund processed: %s", refundID))
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, "booking_refunded", b, "")
	return b, nil
}

// ExpireBooking releases the booking's seat and marks it EXPIRED. Safe to
// call redundantly: the state machine rejects the transition once the
// booking has moved on, and the rollback then undoes the seat release.
func (s *BookingService) ExpireBooking(ctx context.Context, bookingID int64) (*domain.Booking, error) {
	var (
		b          *domain.Booking
		seatNumber string
	)
	err := s.store.WithinTx(ctx, func(r repository.Repositories) error {
		var err error
		b, err = r.Bookings.GetForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}

		seatNumber, err = s.releaseSeat(ctx, r, b)
		if err != nil {
			return err
		}

		return statemachine.Transition(ctx, r.Bookings, b, domain.BookingStateExpired, "Seat hold expired automatically")
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil && seatNumber != "" {
		_ = s.cache.ReleaseSeatLock(ctx, b.FlightID, seatNumber)
	}
	s.publish(ctx, "booking_expired", b, seatNumber)
	return b, nil
}

// ExpireLapsedBookings is one sweep: every booking still in SEAT_HELD whose
// hold deadline has passed is expired. Candidates are processed
// independently; a booking that raced into another state is logged and
// skipped.
func (s *BookingService) ExpireLapsedBookings(ctx context.Context) ([]domain.Booking, error) {
	ids, err := s.store.Repos().Bookings.ListLapsedHeldIDs(ctx, s.now())
	if err != nil {
		return nil, err
	}

	var expired []domain.Booking
	for _, id := range ids {
		b, err := s.ExpireBooking(ctx, id)
		if err != nil {
			log.Printf("expire booking %d: %v", id, err)
			continue
		}
		expired = append(expired, *b)
	}
	return expired, nil
}

func (s *BookingService) GetBooking(ctx context.Context, bookingID int64) (*domain.Booking, []domain.Transition, error) {
	r := s.store.Repos()
	b, err := r.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, nil, err
	}
	transitions, err := r.Bookings.ListTransitions(ctx, bookingID)
	if err != nil {
		return nil, nil, err
	}
	return b, transitions, nil
}

func (s *BookingService) ListBookings(ctx context.Context) ([]domain.Booking, error) {
	return s.store.Repos().Bookings.List(ctx)
}

// expireInTx is the lapse side effect shared by the three lapse checks:
// release the seat, then record the EXPIRED transition. The caller commits
// it and surfaces ErrHoldExpired afterwards.
func (s *BookingService) expireInTx(ctx context.Context, r repository.Repositories, b *domain.Booking, note string) error {
	if _, err := s.releaseSeat(ctx, r, b); err != nil {
		return err
	}
	return statemachine.Transition(ctx, r.Bookings, b, domain.BookingStateExpired, note)
}

// releaseSeat returns the held seat (if any) to the pool through the
// allocator and reports its seat number for event payloads and advisory
// lock cleanup.
func (s *BookingService) releaseSeat(ctx context.Context, r repository.Repositories, b *domain.Booking) (string, error) {
	if b.SeatID == nil {
		return "", nil
	}
	seat, err := r.Seats.GetByIDForUpdate(ctx, *b.SeatID)
	if err != nil {
		return "", err
	}
	if err := s.allocator.Release(ctx, r, seat.ID); err != nil {
		return "", err
	}
	return seat.SeatNumber, nil
}

func (s *BookingService) publish(ctx context.Context, eventType string, b *domain.Booking, seatNumber string) {
	if s.producer == nil || s.bookingTopic == "" {
		return
	}
	event := kafka.BookingEvent{
		Type:              eventType,
		Reference:         b.Reference,
		FlightID:          b.FlightID,
		SeatNumber:        seatNumber,
		PassengerEmail:    b.PassengerEmail,
		State:             string(b.State),
		SeatHoldExpiresAt: b.SeatHoldExpiresAt,
	}
	if err := s.producer.Publish(ctx, s.bookingTopic, b.Reference, event); err != nil {
		log.Printf("publish %s event for booking %s: %v", eventType, b.Reference, err)
	}
	if s.notificationsTopic != "" {
		if err := s.producer.Publish(ctx, s.notificationsTopic, b.Reference, event); err != nil {
			log.Printf("publish %s notification for booking %s: %v", eventType, b.Reference, err)
		}
	}
}

func newBookingReference() string {
	u := uuid.New()
	return "BK" + strings.ToUpper(hex.EncodeToString(u[:]))[:10]
}

var _ BookingUseCase = (*BookingService)(nil)
