package email

import (
	"context"
	"fmt"

	"github.com/Domenick1991/seatreserve/internal/kafka"
)

type Sender struct{}

func NewSender() *Sender {
	return &Sender{}
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	fmt.Printf("send email to %s: booking %s %s (flight %d seat %s)\n",
		event.PassengerEmail, event.Reference, event.Type, event.FlightID, event.SeatNumber)
	return nil
}
