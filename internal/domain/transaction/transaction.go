package transaction

import "context"

// Tx はトランザクションを表すインターフェース
// ドメイン層がインフラ層（sqlx等）に依存しないようにするための抽象化
type Tx interface {
	// Commit はトランザクションをコミットする
	Commit() error
	// Rollback はトランザクションをロールバックする
	Rollback() error
}

// Manager はトランザクションを管理するインターフェース
type Manager interface {
	// Begin は新しいトランザクションを開始する（デフォルト分離レベル）
	Begin(ctx context.Context) (Tx, error)

	// BeginSerializable はSERIALIZABLE分離レベルのトランザクションを開始する
	// 予約プロトコルの排他はこの分離レベルに依存する
	BeginSerializable(ctx context.Context) (Tx, error)
}
