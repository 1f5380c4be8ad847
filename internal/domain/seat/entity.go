package seat

import "time"

// Cabin はキャビンクラスを表す
type Cabin string

const (
	CabinEconomy  Cabin = "economy"
	CabinBusiness Cabin = "business"
	CabinFirst    Cabin = "first"
)

// IsValid はキャビンクラスが定義済みかを返す
func (c Cabin) IsValid() bool {
	switch c {
	case CabinEconomy, CabinBusiness, CabinFirst:
		return true
	}
	return false
}

// Seat は座席エンティティを表す
// シートマップ生成後は不変で、フライトが存在する限り削除されない
// 予約状態は座席自体ではなく Booking / SeatLock 側が持つ
type Seat struct {
	ID         string
	FlightID   string
	SeatNumber string
	Cabin      Cabin
	Row        int
	Column     string
	IsBlocked  bool // 運用上の販売停止席
	CreatedAt  time.Time
}

// NewSeat は新しい座席を作成する
func NewSeat(flightID, seatNumber string, cabin Cabin, row int, column string) *Seat {
	return &Seat{
		FlightID:   flightID,
		SeatNumber: seatNumber,
		Cabin:      cabin,
		Row:        row,
		Column:     column,
		IsBlocked:  false,
		CreatedAt:  time.Now(),
	}
}

// Validate は座席の検証を行う
func (s *Seat) Validate() error {
	if s.FlightID == "" {
		return ErrFlightIDRequired
	}
	if s.SeatNumber == "" {
		return ErrSeatNumberRequired
	}
	if !s.Cabin.IsValid() {
		return ErrInvalidCabin
	}
	if s.Row <= 0 {
		return ErrInvalidRow
	}
	return nil
}
