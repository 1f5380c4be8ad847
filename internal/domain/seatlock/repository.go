package seatlock

import (
	"context"

	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/transaction"
)

// Repository はシートロックリポジトリのインターフェース
type Repository interface {
	// CreateBulk は複数のロックを一括作成する（トランザクション必須）
	CreateBulk(ctx context.Context, tx transaction.Tx, locks []*SeatLock) error

	// GetActiveBySeatIDs は指定座席のActiveロックを取得する
	// 期限切れの扱いは呼び出し側の判定（Blocks）に委ねる
	GetActiveBySeatIDs(ctx context.Context, seatIDs []string) ([]*SeatLock, error)

	// GetActiveBySeatIDsTx はGetActiveBySeatIDsのトランザクション内版
	GetActiveBySeatIDsTx(ctx context.Context, tx transaction.Tx, seatIDs []string) ([]*SeatLock, error)

	// ReleaseByBookingID は予約に紐づく全ActiveロックをReleasedにする
	// 解放は必ず予約の状態遷移と同一トランザクションで行う
	ReleaseByBookingID(ctx context.Context, tx transaction.Tx, bookingID string) (int, error)
}
