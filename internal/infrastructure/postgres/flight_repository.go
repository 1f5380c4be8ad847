package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/flight"
)

type flightRow struct {
	ID           string    `db:"id"`
	FlightNumber string    `db:"flight_number"`
	Origin       string    `db:"origin"`
	Destination  string    `db:"destination"`
	DepartureAt  time.Time `db:"departure_at"`
	ArrivalAt    time.Time `db:"arrival_at"`
	BasePrice    int       `db:"base_price"`
	Status       string    `db:"status"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r *flightRow) toEntity() *flight.Flight {
	return &flight.Flight{
		ID: r.ID, FlightNumber: r.FlightNumber,
		Origin: r.Origin, Destination: r.Destination,
		DepartureAt: r.DepartureAt, ArrivalAt: r.ArrivalAt,
		BasePrice: r.BasePrice, Status: flight.Status(r.Status),
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

type FlightRepository struct{ db *sqlx.DB }

func NewFlightRepository(db *sqlx.DB) *FlightRepository { return &FlightRepository{db: db} }

func (r *FlightRepository) Create(ctx context.Context, f *flight.Flight) error {
	query := `INSERT INTO flights (flight_number, origin, destination, departure_at, arrival_at, base_price, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	if err := r.db.QueryRowContext(ctx, query, f.FlightNumber, f.Origin, f.Destination, f.DepartureAt, f.ArrivalAt, f.BasePrice, string(f.Status), f.CreatedAt, f.UpdatedAt).Scan(&f.ID); err != nil {
		return fmt.Errorf("フライト作成に失敗: %w", err)
	}
	return nil
}

func (r *FlightRepository) GetByID(ctx context.Context, id string) (*flight.Flight, error) {
	query := `SELECT id, flight_number, origin, destination, departure_at, arrival_at, base_price, status, created_at, updated_at FROM flights WHERE id = $1`
	var row flightRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, flight.ErrFlightNotFound
		}
		return nil, fmt.Errorf("フライト取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

var _ flight.Repository = (*FlightRepository)(nil)
