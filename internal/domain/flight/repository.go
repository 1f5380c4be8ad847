package flight

import "context"

// Repository はフライトリポジトリのインターフェース
// 予約コアは読み取り専用で参照する（Createはシード・テスト用）
type Repository interface {
	// Create は新しいフライトを作成する
	Create(ctx context.Context, flight *Flight) error

	// GetByID はIDからフライトを取得する
	GetByID(ctx context.Context, id string) (*Flight, error)
}
