package seatlock

import "errors"

// SeatLock ドメインのエラー定義
var (
	ErrSeatLockNotFound  = errors.New("シートロックが見つかりません")
	ErrSeatAlreadyLocked = errors.New("座席は他のセッションにロックされています")
	ErrFlightIDRequired  = errors.New("フライトIDは必須です")
	ErrSeatIDRequired    = errors.New("座席IDは必須です")
	ErrBookingIDRequired = errors.New("予約IDは必須です")
	ErrSessionIDRequired = errors.New("セッションIDは必須です")
)
