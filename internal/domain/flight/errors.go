package flight

import "errors"

// Flight ドメインのエラー定義
var (
	ErrFlightNotFound       = errors.New("フライトが見つかりません")
	ErrFlightNotBookable    = errors.New("フライトは予約を受け付けていません")
	ErrFlightNumberRequired = errors.New("フライト番号は必須です")
	ErrInvalidBasePrice     = errors.New("基本運賃は0以上である必要があります")
	ErrInvalidFlightTime    = errors.New("到着時刻は出発時刻より後である必要があります")
)
