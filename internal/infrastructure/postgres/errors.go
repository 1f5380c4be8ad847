package postgres

import (
	"errors"

	"github.com/lib/pq"
)

// PostgreSQLのエラーコード分類
// 業務上の拒否（別セッションが先にコミットした等）とは区別される、
// リトライ可能な一時的競合の判定に使用する
const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeUniqueViolation      = "23505"
)

func pgCode(err error) pq.ErrorCode {
	var pgErr *pq.Error
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsSerializationFailure はSERIALIZABLE分離下のコミット時競合かを返す
func IsSerializationFailure(err error) bool {
	return pgCode(err) == codeSerializationFailure
}

// IsDeadlockDetected はデッドロック検出エラーかを返す
func IsDeadlockDetected(err error) bool {
	return pgCode(err) == codeDeadlockDetected
}

// IsUniqueViolation は一意制約違反かを返す
func IsUniqueViolation(err error) bool {
	return pgCode(err) == codeUniqueViolation
}

// IsTransientConflict はリトライで解消しうる競合エラーかを返す
// 一意制約違反も含む: 参照コード衝突は再生成で解消し、
// シートロックの部分一意インデックス違反はリトライ後の再検証で
// 座席名つきの業務エラーに変換される
func IsTransientConflict(err error) bool {
	switch pgCode(err) {
	case codeSerializationFailure, codeDeadlockDetected, codeUniqueViolation:
		return true
	}
	return false
}
