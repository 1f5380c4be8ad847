package application

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/flight"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/seat"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/pkg/logger"
)

// InventoryService はフライトとシートマップの登録を提供する
// 予約コアの管理用サーフェス。運賃テーブルやスケジュール管理は
// 外部コラボレーターの責務とする
type InventoryService struct {
	flightRepo flight.Repository
	seatRepo   seat.Repository
}

func NewInventoryService(fr flight.Repository, sr seat.Repository) *InventoryService {
	return &InventoryService{flightRepo: fr, seatRepo: sr}
}

type CreateFlightInput struct {
	FlightNumber string
	Origin       string
	Destination  string
	DepartureAt  time.Time
	ArrivalAt    time.Time
	BasePrice    int
}

// CreateFlight は新しいフライトを登録する
func (s *InventoryService) CreateFlight(ctx context.Context, input CreateFlightInput) (*flight.Flight, error) {
	f := flight.NewFlight(input.FlightNumber, input.Origin, input.Destination, input.DepartureAt, input.ArrivalAt, input.BasePrice)
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if err := s.flightRepo.Create(ctx, f); err != nil {
		return nil, err
	}
	logger.Info("フライトを登録",
		zap.String("flight_id", f.ID),
		zap.String("flight_number", f.FlightNumber),
	)
	return f, nil
}

// GetFlight はIDからフライトを取得する
func (s *InventoryService) GetFlight(ctx context.Context, id string) (*flight.Flight, error) {
	return s.flightRepo.GetByID(ctx, id)
}

type SeatSpec struct {
	SeatNumber string
	Cabin      seat.Cabin
	Row        int
	Column     string
}

type CreateSeatMapInput struct {
	FlightID string
	Seats    []SeatSpec
}

// CreateSeatMap はフライトのシートマップを一括登録する
func (s *InventoryService) CreateSeatMap(ctx context.Context, input CreateSeatMapInput) ([]*seat.Seat, error) {
	if _, err := s.flightRepo.GetByID(ctx, input.FlightID); err != nil {
		return nil, err
	}

	seats := make([]*seat.Seat, len(input.Seats))
	for i, spec := range input.Seats {
		se := seat.NewSeat(input.FlightID, spec.SeatNumber, spec.Cabin, spec.Row, spec.Column)
		if err := se.Validate(); err != nil {
			return nil, err
		}
		seats[i] = se
	}
	if err := s.seatRepo.CreateBulk(ctx, seats); err != nil {
		return nil, err
	}
	logger.Info("シートマップを登録",
		zap.String("flight_id", input.FlightID),
		zap.Int("seats", len(seats)),
	)
	return seats, nil
}
