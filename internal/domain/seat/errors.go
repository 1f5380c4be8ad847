package seat

import "errors"

// Seat ドメインのエラー定義
var (
	ErrSeatNotFound       = errors.New("座席が見つかりません")
	ErrFlightIDRequired   = errors.New("フライトIDは必須です")
	ErrSeatNumberRequired = errors.New("座席番号は必須です")
	ErrInvalidCabin       = errors.New("キャビンクラスが不正です")
	ErrInvalidRow         = errors.New("座席の行番号は1以上である必要があります")
)
