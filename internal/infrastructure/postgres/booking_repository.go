package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/booking"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/seat"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/transaction"
)

type bookingRow struct {
	ID                 string          `db:"id"`
	Reference          string          `db:"reference"`
	UserID             string          `db:"user_id"`
	FlightID           string          `db:"flight_id"`
	Cabin              string          `db:"cabin"`
	Passengers         json.RawMessage `db:"passengers"`
	TotalAmount        int             `db:"total_amount"`
	Status             string          `db:"status"`
	CancellationReason sql.NullString  `db:"cancellation_reason"`
	ConfirmedAt        *time.Time      `db:"confirmed_at"`
	CancelledAt        *time.Time      `db:"cancelled_at"`
	CreatedAt          time.Time       `db:"created_at"`
	UpdatedAt          time.Time       `db:"updated_at"`
}

const bookingColumns = `id, reference, user_id, flight_id, cabin, passengers, total_amount, status, cancellation_reason, confirmed_at, cancelled_at, created_at, updated_at`

type BookingRepository struct{ db *sqlx.DB }

func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) Create(ctx context.Context, tx transaction.Tx, b *booking.Booking) error {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return fmt.Errorf("トランザクションが不正です")
	}

	passengers, err := json.Marshal(b.Passengers)
	if err != nil {
		return fmt.Errorf("搭乗者情報のシリアライズに失敗: %w", err)
	}

	query := `INSERT INTO bookings (reference, user_id, flight_id, cabin, passengers, total_amount, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	if err := sqlxTx.QueryRowContext(ctx, query, b.Reference, b.UserID, b.FlightID, string(b.Cabin), passengers, b.TotalAmount, string(b.Status), b.CreatedAt, b.UpdatedAt).Scan(&b.ID); err != nil {
		var pgErr *pq.Error
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.Constraint == "bookings_reference_key" {
			return booking.ErrReferenceConflict
		}
		return fmt.Errorf("予約作成に失敗: %w", err)
	}

	for _, seatID := range b.SeatIDs {
		if _, err := sqlxTx.ExecContext(ctx, `INSERT INTO booked_seats (booking_id, seat_id) VALUES ($1, $2)`, b.ID, seatID); err != nil {
			return fmt.Errorf("予約座席関連付けに失敗: %w", err)
		}
	}
	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id string) (*booking.Booking, error) {
	var row bookingRow
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, booking.ErrBookingNotFound
		}
		return nil, fmt.Errorf("予約取得に失敗: %w", err)
	}
	return r.hydrate(ctx, &row)
}

func (r *BookingRepository) GetByIDTx(ctx context.Context, tx transaction.Tx, id string) (*booking.Booking, error) {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return nil, fmt.Errorf("トランザクションが不正です")
	}
	var row bookingRow
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1 FOR UPDATE`
	if err := sqlxTx.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, booking.ErrBookingNotFound
		}
		return nil, fmt.Errorf("予約取得に失敗: %w", err)
	}
	seatIDs, err := r.getSeatIDsTx(ctx, sqlxTx, row.ID)
	if err != nil {
		return nil, err
	}
	return row.toEntity(seatIDs)
}

func (r *BookingRepository) GetByReference(ctx context.Context, reference string) (*booking.Booking, error) {
	var row bookingRow
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE reference = $1`
	if err := r.db.GetContext(ctx, &row, query, reference); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, booking.ErrBookingNotFound
		}
		return nil, fmt.Errorf("予約取得に失敗: %w", err)
	}
	return r.hydrate(ctx, &row)
}

func (r *BookingRepository) GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*booking.Booking, error) {
	var rows []bookingRow
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	if err := r.db.SelectContext(ctx, &rows, query, userID, limit, offset); err != nil {
		return nil, fmt.Errorf("予約一覧取得に失敗: %w", err)
	}
	return r.hydrateAll(ctx, rows)
}

func (r *BookingRepository) Update(ctx context.Context, tx transaction.Tx, b *booking.Booking) error {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return fmt.Errorf("トランザクションが不正です")
	}
	query := `UPDATE bookings SET status = $1, cancellation_reason = $2, confirmed_at = $3, cancelled_at = $4, updated_at = $5 WHERE id = $6`
	reason := sql.NullString{String: b.CancellationReason, Valid: b.CancellationReason != ""}
	result, err := sqlxTx.ExecContext(ctx, query, string(b.Status), reason, b.ConfirmedAt, b.CancelledAt, b.UpdatedAt, b.ID)
	if err != nil {
		return fmt.Errorf("予約更新に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return booking.ErrBookingNotFound
	}
	return nil
}

const activeBySeatsQuery = `SELECT ` + bookingColumns + ` FROM bookings WHERE status <> 'cancelled' AND id IN (SELECT booking_id FROM booked_seats WHERE seat_id = ANY($1))`

func (r *BookingRepository) GetActiveBySeatIDs(ctx context.Context, seatIDs []string) ([]*booking.Booking, error) {
	var rows []bookingRow
	if err := r.db.SelectContext(ctx, &rows, activeBySeatsQuery, pq.Array(seatIDs)); err != nil {
		return nil, fmt.Errorf("座席の予約状況取得に失敗: %w", err)
	}
	return r.hydrateAll(ctx, rows)
}

func (r *BookingRepository) GetActiveBySeatIDsTx(ctx context.Context, tx transaction.Tx, seatIDs []string) ([]*booking.Booking, error) {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return nil, fmt.Errorf("トランザクションが不正です")
	}
	var rows []bookingRow
	if err := sqlxTx.SelectContext(ctx, &rows, activeBySeatsQuery, pq.Array(seatIDs)); err != nil {
		return nil, fmt.Errorf("座席の予約状況取得に失敗: %w", err)
	}
	result := make([]*booking.Booking, len(rows))
	for i, row := range rows {
		b, err := row.toEntity(nil)
		if err != nil {
			return nil, err
		}
		seatIDs, err := r.getSeatIDsTx(ctx, sqlxTx, row.ID)
		if err != nil {
			return nil, err
		}
		b.SeatIDs = seatIDs
		result[i] = b
	}
	return result, nil
}

func (r *BookingRepository) GetExpiredPending(ctx context.Context, olderThan time.Duration) ([]*booking.Booking, error) {
	var rows []bookingRow
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE status = 'pending' AND created_at < NOW() - $1::interval ORDER BY created_at`
	interval := fmt.Sprintf("%d seconds", int(olderThan.Seconds()))
	if err := r.db.SelectContext(ctx, &rows, query, interval); err != nil {
		return nil, fmt.Errorf("期限切れ予約取得に失敗: %w", err)
	}
	return r.hydrateAll(ctx, rows)
}

func (r *BookingRepository) CountActiveSeatsByFlightAndCabin(ctx context.Context, flightID string, cabin seat.Cabin) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM booked_seats bs JOIN bookings b ON b.id = bs.booking_id WHERE b.flight_id = $1 AND b.cabin = $2 AND b.status <> 'cancelled'`
	if err := r.db.GetContext(ctx, &count, query, flightID, string(cabin)); err != nil {
		return 0, fmt.Errorf("占有座席数の取得に失敗: %w", err)
	}
	return count, nil
}

func (r *BookingRepository) getSeatIDs(ctx context.Context, bookingID string) ([]string, error) {
	var seatIDs []string
	if err := r.db.SelectContext(ctx, &seatIDs, `SELECT seat_id FROM booked_seats WHERE booking_id = $1`, bookingID); err != nil {
		return nil, fmt.Errorf("座席ID取得に失敗: %w", err)
	}
	return seatIDs, nil
}

func (r *BookingRepository) getSeatIDsTx(ctx context.Context, tx *sqlx.Tx, bookingID string) ([]string, error) {
	var seatIDs []string
	if err := tx.SelectContext(ctx, &seatIDs, `SELECT seat_id FROM booked_seats WHERE booking_id = $1`, bookingID); err != nil {
		return nil, fmt.Errorf("座席ID取得に失敗: %w", err)
	}
	return seatIDs, nil
}

func (r *BookingRepository) hydrate(ctx context.Context, row *bookingRow) (*booking.Booking, error) {
	seatIDs, err := r.getSeatIDs(ctx, row.ID)
	if err != nil {
		return nil, err
	}
	return row.toEntity(seatIDs)
}

func (r *BookingRepository) hydrateAll(ctx context.Context, rows []bookingRow) ([]*booking.Booking, error) {
	result := make([]*booking.Booking, len(rows))
	for i, row := range rows {
		b, err := r.hydrate(ctx, &row)
		if err != nil {
			return nil, err
		}
		result[i] = b
	}
	return result, nil
}

func (row *bookingRow) toEntity(seatIDs []string) (*booking.Booking, error) {
	var passengers []booking.Passenger
	if len(row.Passengers) > 0 {
		if err := json.Unmarshal(row.Passengers, &passengers); err != nil {
			return nil, fmt.Errorf("搭乗者情報のデシリアライズに失敗: %w", err)
		}
	}
	return &booking.Booking{
		ID: row.ID, Reference: row.Reference,
		UserID: row.UserID, FlightID: row.FlightID,
		Cabin: seat.Cabin(row.Cabin), Passengers: passengers,
		SeatIDs: seatIDs, TotalAmount: row.TotalAmount,
		Status:             booking.Status(row.Status),
		CancellationReason: row.CancellationReason.String,
		ConfirmedAt:        row.ConfirmedAt, CancelledAt: row.CancelledAt,
		CreatedAt: row.CreatedAt, UpdatedAt: row.UpdatedAt,
	}, nil
}

var _ booking.Repository = (*BookingRepository)(nil)
