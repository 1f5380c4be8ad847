package flight

import "time"

// Status はフライトの状態を表す
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusDeparted  Status = "departed"
	StatusCancelled Status = "cancelled"
)

// Flight はフライトエンティティを表す
// 運賃テーブルやフライトCRUDは外部コラボレーターの責務のため、
// 予約コアが必要とする読み取り属性のみを持つ
type Flight struct {
	ID           string
	FlightNumber string
	Origin       string
	Destination  string
	DepartureAt  time.Time
	ArrivalAt    time.Time
	BasePrice    int // エコノミー基準の基本運賃（最小通貨単位）
	Status       Status
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewFlight は新しいフライトを作成する
func NewFlight(flightNumber, origin, destination string, departureAt, arrivalAt time.Time, basePrice int) *Flight {
	now := time.Now()
	return &Flight{
		FlightNumber: flightNumber,
		Origin:       origin,
		Destination:  destination,
		DepartureAt:  departureAt,
		ArrivalAt:    arrivalAt,
		BasePrice:    basePrice,
		Status:       StatusScheduled,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// IsBookable はフライトが予約を受け付けるかを返す
func (f *Flight) IsBookable() bool {
	return f.Status == StatusScheduled
}

// Validate はフライトの検証を行う
func (f *Flight) Validate() error {
	if f.FlightNumber == "" {
		return ErrFlightNumberRequired
	}
	if f.BasePrice < 0 {
		return ErrInvalidBasePrice
	}
	if f.ArrivalAt.Before(f.DepartureAt) {
		return ErrInvalidFlightTime
	}
	return nil
}
