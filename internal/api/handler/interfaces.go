package handler

import (
	"context"

	"github.com/sanosuguru/go-flight-seat-reservation/internal/application"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/booking"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/flight"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/seat"
)

// ReservationServiceInterface は予約サービスのインターフェース
type ReservationServiceInterface interface {
	Reserve(ctx context.Context, input application.ReserveInput) (*booking.Booking, error)
	GetBooking(ctx context.Context, id string) (*booking.Booking, error)
	GetBookingByReference(ctx context.Context, reference string) (*booking.Booking, error)
	GetUserBookings(ctx context.Context, userID string, limit, offset int) ([]*booking.Booking, error)
	PromoteToAwaitingPayment(ctx context.Context, bookingID string) (*booking.Booking, error)
	PromoteToConfirmed(ctx context.Context, bookingID string) (*booking.Booking, error)
	CancelBooking(ctx context.Context, input application.CancelBookingInput) (*booking.Booking, error)
}

// AvailabilityServiceInterface は空席照会サービスのインターフェース
type AvailabilityServiceInterface interface {
	Check(ctx context.Context, input application.CheckAvailabilityInput) (*application.AvailabilityResult, error)
	GetAvailableSeats(ctx context.Context, flightID string, cabin seat.Cabin) ([]*seat.Seat, error)
	CountAvailable(ctx context.Context, flightID string, cabin seat.Cabin) (int, error)
}

// InventoryServiceInterface はフライト・シートマップ管理のインターフェース
type InventoryServiceInterface interface {
	CreateFlight(ctx context.Context, input application.CreateFlightInput) (*flight.Flight, error)
	GetFlight(ctx context.Context, id string) (*flight.Flight, error)
	CreateSeatMap(ctx context.Context, input application.CreateSeatMapInput) ([]*seat.Seat, error)
}

// SweepServiceInterface は期限切れ予約スイープのインターフェース
type SweepServiceInterface interface {
	RunSweep(ctx context.Context) (application.SweepResult, error)
}
