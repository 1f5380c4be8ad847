package application

import (
	"errors"
	"fmt"
	"strings"
)

// ConflictReason は座席が予約できない理由を表す
// 文字列は呼び出し側（APIクライアント）への契約値
type ConflictReason string

const (
	ConflictNotInCabin      ConflictReason = "does not exist in cabin"
	ConflictAlreadyBooked   ConflictReason = "already booked"
	ConflictTemporarilyHeld ConflictReason = "temporarily held"
)

// SeatConflict は座席単位の競合内容を表す
type SeatConflict struct {
	SeatNumber string         `json:"seat_number"`
	Reason     ConflictReason `json:"reason"`
}

// SeatConflictError は予約できない座席を列挙するビジネスエラー
// 一時的なインフラ競合と異なり、リトライ対象にはならない
type SeatConflictError struct {
	Conflicts []SeatConflict
}

func (e *SeatConflictError) Error() string {
	parts := make([]string, len(e.Conflicts))
	for i, c := range e.Conflicts {
		parts[i] = fmt.Sprintf("%s (%s)", c.SeatNumber, c.Reason)
	}
	return "予約できない座席があります: " + strings.Join(parts, ", ")
}

// HasReason は指定理由の競合を含むかを返す
func (e *SeatConflictError) HasReason(reason ConflictReason) bool {
	for _, c := range e.Conflicts {
		if c.Reason == reason {
			return true
		}
	}
	return false
}

// Application 層のエラー定義
var (
	// ErrConcurrencyExhausted はシリアライゼーション競合のリトライ上限到達を表す
	// ビジネス上の拒否ではなく一時的なインフラ障害として扱う
	ErrConcurrencyExhausted = errors.New("予約の競合が解消されませんでした。しばらくしてから再試行してください")

	// ErrSeatCountMismatch は座席数と搭乗者数の不一致を表す
	ErrSeatCountMismatch = errors.New("座席数と搭乗者数が一致しません")

	// ErrNoSeatsRequested は座席指定なしの予約要求を表す
	ErrNoSeatsRequested = errors.New("座席が指定されていません")

	// ErrDuplicateSeatNumbers は同一座席の重複指定を表す
	ErrDuplicateSeatNumbers = errors.New("同じ座席が重複して指定されています")
)
