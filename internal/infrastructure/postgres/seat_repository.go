package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/seat"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/transaction"
)

type seatRow struct {
	ID         string    `db:"id"`
	FlightID   string    `db:"flight_id"`
	SeatNumber string    `db:"seat_number"`
	Cabin      string    `db:"cabin"`
	Row        int       `db:"row"`
	Column     string    `db:"col"`
	IsBlocked  bool      `db:"is_blocked"`
	CreatedAt  time.Time `db:"created_at"`
}

func (r *seatRow) toEntity() *seat.Seat {
	return &seat.Seat{
		ID: r.ID, FlightID: r.FlightID, SeatNumber: r.SeatNumber,
		Cabin: seat.Cabin(r.Cabin), Row: r.Row, Column: r.Column,
		IsBlocked: r.IsBlocked, CreatedAt: r.CreatedAt,
	}
}

const seatColumns = `id, flight_id, seat_number, cabin, row, col, is_blocked, created_at`

type SeatRepository struct{ db *sqlx.DB }

func NewSeatRepository(db *sqlx.DB) *SeatRepository { return &SeatRepository{db: db} }

func (r *SeatRepository) Create(ctx context.Context, s *seat.Seat) error {
	query := `INSERT INTO seats (flight_id, seat_number, cabin, row, col, is_blocked, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	return r.db.QueryRowContext(ctx, query, s.FlightID, s.SeatNumber, string(s.Cabin), s.Row, s.Column, s.IsBlocked, s.CreatedAt).Scan(&s.ID)
}

func (r *SeatRepository) CreateBulk(ctx context.Context, seats []*seat.Seat) error {
	if len(seats) == 0 {
		return nil
	}

	// バッチサイズごとに分割してマルチバリューINSERTを実行
	const batchSize = 1000
	for i := 0; i < len(seats); i += batchSize {
		end := i + batchSize
		if end > len(seats) {
			end = len(seats)
		}
		if err := r.createBulkBatch(ctx, seats[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (r *SeatRepository) createBulkBatch(ctx context.Context, seats []*seat.Seat) error {
	query := `INSERT INTO seats (flight_id, seat_number, cabin, row, col, is_blocked, created_at) VALUES `
	args := make([]interface{}, 0, len(seats)*7)
	placeholders := make([]string, 0, len(seats))

	for i, s := range seats {
		base := i * 7
		placeholders = append(placeholders, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7))
		args = append(args, s.FlightID, s.SeatNumber, string(s.Cabin), s.Row, s.Column, s.IsBlocked, s.CreatedAt)
	}

	query += strings.Join(placeholders, ", ")
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("座席一括作成に失敗: %w", err)
	}
	return nil
}

func (r *SeatRepository) GetByFlightAndNumbers(ctx context.Context, flightID string, cabin seat.Cabin, seatNumbers []string) ([]*seat.Seat, error) {
	query := `SELECT ` + seatColumns + ` FROM seats WHERE flight_id = $1 AND cabin = $2 AND seat_number = ANY($3) AND NOT is_blocked ORDER BY id`
	var rows []seatRow
	if err := r.db.SelectContext(ctx, &rows, query, flightID, string(cabin), pq.Array(seatNumbers)); err != nil {
		return nil, fmt.Errorf("座席取得に失敗: %w", err)
	}
	return toSeatEntities(rows), nil
}

// GetForReservation は対象座席を行ロック付きで取得する
// 座席IDの昇順でロックを取ることで、重なり合う座席集合を扱う
// トランザクション同士の循環待ちを防ぐ
func (r *SeatRepository) GetForReservation(ctx context.Context, tx transaction.Tx, flightID string, cabin seat.Cabin, seatNumbers []string) ([]*seat.Seat, error) {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return nil, fmt.Errorf("トランザクションが不正です")
	}
	query := `SELECT ` + seatColumns + ` FROM seats WHERE flight_id = $1 AND cabin = $2 AND seat_number = ANY($3) AND NOT is_blocked ORDER BY id FOR UPDATE`
	var rows []seatRow
	if err := sqlxTx.SelectContext(ctx, &rows, query, flightID, string(cabin), pq.Array(seatNumbers)); err != nil {
		return nil, fmt.Errorf("座席ロック取得に失敗: %w", err)
	}
	return toSeatEntities(rows), nil
}

func (r *SeatRepository) GetByFlightAndCabin(ctx context.Context, flightID string, cabin seat.Cabin) ([]*seat.Seat, error) {
	query := `SELECT ` + seatColumns + ` FROM seats WHERE flight_id = $1 AND cabin = $2 ORDER BY row, col`
	var rows []seatRow
	if err := r.db.SelectContext(ctx, &rows, query, flightID, string(cabin)); err != nil {
		return nil, fmt.Errorf("座席一覧取得に失敗: %w", err)
	}
	return toSeatEntities(rows), nil
}

func (r *SeatRepository) CountByFlightAndCabin(ctx context.Context, flightID string, cabin seat.Cabin) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM seats WHERE flight_id = $1 AND cabin = $2 AND NOT is_blocked`, flightID, string(cabin))
	return count, err
}

func toSeatEntities(rows []seatRow) []*seat.Seat {
	seats := make([]*seat.Seat, len(rows))
	for i, row := range rows {
		seats[i] = row.toEntity()
	}
	return seats
}

var _ seat.Repository = (*SeatRepository)(nil)
