package seat

import (
	"context"

	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/transaction"
)

// Repository は座席リポジトリのインターフェース
type Repository interface {
	// Create は新しい座席を作成する
	Create(ctx context.Context, seat *Seat) error

	// CreateBulk は複数の座席を一括作成する（シートマップ生成用）
	CreateBulk(ctx context.Context, seats []*Seat) error

	// GetByFlightAndNumbers はフライト・キャビン・座席番号の組で座席を取得する
	// 販売停止席（IsBlocked）は含まれない
	GetByFlightAndNumbers(ctx context.Context, flightID string, cabin Cabin, seatNumbers []string) ([]*Seat, error)

	// GetForReservation は予約トランザクション内で対象座席を行ロック付きで取得する
	// デッドロック回避のため座席IDの昇順に取得する（トランザクション必須）
	GetForReservation(ctx context.Context, tx transaction.Tx, flightID string, cabin Cabin, seatNumbers []string) ([]*Seat, error)

	// GetByFlightAndCabin はフライト・キャビンの全座席を取得する
	GetByFlightAndCabin(ctx context.Context, flightID string, cabin Cabin) ([]*Seat, error)

	// CountByFlightAndCabin はキャビンの座席数（=キャビン定員）を取得する
	CountByFlightAndCabin(ctx context.Context, flightID string, cabin Cabin) (int, error)
}
