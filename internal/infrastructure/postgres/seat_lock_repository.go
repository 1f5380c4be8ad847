package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/seatlock"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/transaction"
)

type seatLockRow struct {
	ID        string    `db:"id"`
	FlightID  string    `db:"flight_id"`
	SeatID    string    `db:"seat_id"`
	BookingID string    `db:"booking_id"`
	SessionID string    `db:"session_id"`
	ExpiresAt time.Time `db:"expires_at"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r *seatLockRow) toEntity() *seatlock.SeatLock {
	return &seatlock.SeatLock{
		ID: r.ID, FlightID: r.FlightID, SeatID: r.SeatID,
		BookingID: r.BookingID, SessionID: r.SessionID,
		ExpiresAt: r.ExpiresAt, Status: seatlock.Status(r.Status),
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

const seatLockColumns = `id, flight_id, seat_id, booking_id, session_id, expires_at, status, created_at, updated_at`

type SeatLockRepository struct{ db *sqlx.DB }

func NewSeatLockRepository(db *sqlx.DB) *SeatLockRepository {
	return &SeatLockRepository{db: db}
}

func (r *SeatLockRepository) CreateBulk(ctx context.Context, tx transaction.Tx, locks []*seatlock.SeatLock) error {
	if len(locks) == 0 {
		return nil
	}
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return fmt.Errorf("トランザクションが不正です")
	}

	query := `INSERT INTO seat_locks (flight_id, seat_id, booking_id, session_id, expires_at, status, created_at, updated_at) VALUES `
	args := make([]interface{}, 0, len(locks)*8)
	placeholders := make([]string, 0, len(locks))
	for i, l := range locks {
		base := i * 8
		placeholders = append(placeholders, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8))
		args = append(args, l.FlightID, l.SeatID, l.BookingID, l.SessionID, l.ExpiresAt, string(l.Status), l.CreatedAt, l.UpdatedAt)
	}

	query += strings.Join(placeholders, ", ")
	if _, err := sqlxTx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("シートロック作成に失敗: %w", err)
	}
	return nil
}

const activeLocksQuery = `SELECT ` + seatLockColumns + ` FROM seat_locks WHERE seat_id = ANY($1) AND status = 'active'`

func (r *SeatLockRepository) GetActiveBySeatIDs(ctx context.Context, seatIDs []string) ([]*seatlock.SeatLock, error) {
	var rows []seatLockRow
	if err := r.db.SelectContext(ctx, &rows, activeLocksQuery, pq.Array(seatIDs)); err != nil {
		return nil, fmt.Errorf("シートロック取得に失敗: %w", err)
	}
	return toSeatLockEntities(rows), nil
}

func (r *SeatLockRepository) GetActiveBySeatIDsTx(ctx context.Context, tx transaction.Tx, seatIDs []string) ([]*seatlock.SeatLock, error) {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return nil, fmt.Errorf("トランザクションが不正です")
	}
	var rows []seatLockRow
	if err := sqlxTx.SelectContext(ctx, &rows, activeLocksQuery, pq.Array(seatIDs)); err != nil {
		return nil, fmt.Errorf("シートロック取得に失敗: %w", err)
	}
	return toSeatLockEntities(rows), nil
}

// ReleaseByBookingID は予約に紐づくActiveロックを全てReleasedにする
// ロック個別のexpires_atには関知しない（予約の期限が支配する）
func (r *SeatLockRepository) ReleaseByBookingID(ctx context.Context, tx transaction.Tx, bookingID string) (int, error) {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return 0, fmt.Errorf("トランザクションが不正です")
	}
	query := `UPDATE seat_locks SET status = 'released', updated_at = NOW() WHERE booking_id = $1 AND status = 'active'`
	result, err := sqlxTx.ExecContext(ctx, query, bookingID)
	if err != nil {
		return 0, fmt.Errorf("シートロック解放に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	return int(rows), nil
}

func toSeatLockEntities(rows []seatLockRow) []*seatlock.SeatLock {
	locks := make([]*seatlock.SeatLock, len(rows))
	for i, row := range rows {
		locks[i] = row.toEntity()
	}
	return locks
}

var _ seatlock.Repository = (*SeatLockRepository)(nil)
