package domain

import "time"

type Flight struct {
	ID            int64
	FlightNumber  string
	Origin        string
	Destination   string
	DepartureTime time.Time
	TotalSeats    int
	PriceCents    int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Seat struct {
	ID          int64
	FlightID    int64
	SeatNumber  string
	IsAvailable bool
}
