package booking

import "errors"

// Booking ドメインのエラー定義
var (
	ErrBookingNotFound         = errors.New("予約が見つかりません")
	ErrBookingAlreadyCancelled = errors.New("予約は既にキャンセルされています")
	ErrBookingAlreadyConfirmed = errors.New("予約は既に確定されています")
	ErrInvalidStateTransition  = errors.New("許可されていない状態遷移です")
	ErrReferenceConflict       = errors.New("予約参照コードが衝突しました")
	ErrForbidden               = errors.New("この予約を操作する権限がありません")
	ErrUserIDRequired          = errors.New("ユーザーIDは必須です")
	ErrFlightIDRequired        = errors.New("フライトIDは必須です")
	ErrSeatIDsRequired         = errors.New("座席IDは必須です")
	ErrPassengerCountMismatch  = errors.New("搭乗者数と座席数が一致しません")
)
