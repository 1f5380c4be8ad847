package booking

import (
	"context"
	"time"

	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/seat"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/transaction"
)

// Repository は予約リポジトリのインターフェース
type Repository interface {
	// Create は予約と座席の関連付けを作成する（トランザクション必須）
	// 参照コードの一意制約違反は ErrReferenceConflict を返す
	Create(ctx context.Context, tx transaction.Tx, booking *Booking) error

	// GetByID はIDから予約を取得する
	GetByID(ctx context.Context, id string) (*Booking, error)

	// GetByIDTx はIDから予約を行ロック付きで取得する（トランザクション必須）
	// 状態遷移の同時実行を直列化するために使用する
	GetByIDTx(ctx context.Context, tx transaction.Tx, id string) (*Booking, error)

	// GetByReference は参照コードから予約を取得する
	GetByReference(ctx context.Context, reference string) (*Booking, error)

	// GetByUserID はユーザーIDから予約一覧を取得する
	GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*Booking, error)

	// Update は予約の状態を更新する（トランザクション必須）
	Update(ctx context.Context, tx transaction.Tx, booking *Booking) error

	// GetActiveBySeatIDs は指定座席を参照するキャンセル済みでない予約を取得する
	GetActiveBySeatIDs(ctx context.Context, seatIDs []string) ([]*Booking, error)

	// GetActiveBySeatIDsTx はGetActiveBySeatIDsのトランザクション内版
	// 予約トランザクションの再検証で使用する
	GetActiveBySeatIDsTx(ctx context.Context, tx transaction.Tx, seatIDs []string) ([]*Booking, error)

	// GetExpiredPending は作成から指定時間を超えた保留中予約を取得する
	GetExpiredPending(ctx context.Context, olderThan time.Duration) ([]*Booking, error)

	// CountActiveSeatsByFlightAndCabin はキャンセル済みでない予約が
	// 占有する座席数を取得する（稼働率計算用）
	CountActiveSeatsByFlightAndCabin(ctx context.Context, flightID string, cabin seat.Cabin) (int, error)
}
