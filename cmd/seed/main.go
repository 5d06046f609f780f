package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/Domenick1991/seatreserve/config"
	"github.com/Domenick1991/seatreserve/internal/domain"
	"github.com/Domenick1991/seatreserve/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
)

var seatLetters = []string{"A", "B", "C", "D", "E", "F"}

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	store := repository.NewStore(pool)

	flights := []domain.Flight{
		{FlightNumber: "AI101", Origin: "Delhi", Destination: "Mumbai", DepartureTime: time.Now().AddDate(0, 0, 7), TotalSeats: 180, PriceCents: 550000},
		{FlightNumber: "SG202", Origin: "Bangalore", Destination: "Goa", DepartureTime: time.Now().AddDate(0, 0, 10), TotalSeats: 150, PriceCents: 420000},
		{FlightNumber: "UK303", Origin: "Chennai", Destination: "Kolkata", DepartureTime: time.Now().AddDate(0, 0, 5), TotalSeats: 120, PriceCents: 680000},
	}

	for i := range flights {
		f := &flights[i]
		err := store.WithinTx(ctx, func(r repository.Repositories) error {
			if err := r.Flights.Create(ctx, f); err != nil {
				return err
			}
			// Six seats per row, rows filled until total_seats is reached.
			rows := f.TotalSeats / len(seatLetters)
			for row := 1; row <= rows; row++ {
				for _, letter := range seatLetters {
					seat := &domain.Seat{
						FlightID:    f.ID,
						SeatNumber:  fmt.Sprintf("%d%s", row, letter),
						IsAvailable: true,
					}
					if err := r.Seats.Create(ctx, seat); err != nil {
						return err
					}
				}
			}
			return nil
		})
		if err != nil {
			log.Printf("seed flight %s: %v", f.FlightNumber, err)
			continue
		}
		log.Printf("created flight %s with %d seats", f.FlightNumber, f.TotalSeats)
	}

	log.Println("database seeding completed")
}
