package booking

import (
	"time"

	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/seat"
)

// Status は予約の状態を表す
type Status string

const (
	StatusPending         Status = "pending"
	StatusAwaitingPayment Status = "awaiting_payment"
	StatusConfirmed       Status = "confirmed"
	StatusCancelled       Status = "cancelled"
)

// Passenger は搭乗者情報を表す（構造化ブロブとしてJSONB保存される）
type Passenger struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	PassportNumber string `json:"passport_number,omitempty"`
}

// Booking は予約エンティティを表す
// 物理削除はされず、キャンセルは状態遷移のみで表現される
type Booking struct {
	ID                 string
	Reference          string // 短い予約参照コード（衝突はDBの一意制約で検出）
	UserID             string
	FlightID           string
	Cabin              seat.Cabin
	Passengers         []Passenger
	SeatIDs            []string
	TotalAmount        int
	Status             Status
	CancellationReason string
	ConfirmedAt        *time.Time
	CancelledAt        *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NewBooking は新しい保留中予約を作成する
func NewBooking(userID, flightID string, cabin seat.Cabin, seatIDs []string, passengers []Passenger, totalAmount int) *Booking {
	now := time.Now()
	return &Booking{
		Reference:   NewReference(),
		UserID:      userID,
		FlightID:    flightID,
		Cabin:       cabin,
		Passengers:  passengers,
		SeatIDs:     seatIDs,
		TotalAmount: totalAmount,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// IsActive は予約が座席を占有しているか（キャンセル済みでないか）を返す
func (b *Booking) IsActive() bool {
	return b.Status != StatusCancelled
}

// IsPending は予約が保留中かを返す
func (b *Booking) IsPending() bool {
	return b.Status == StatusPending
}

// HoldsLocks は予約がActiveなSeatLockを伴う状態かを返す
func (b *Booking) HoldsLocks() bool {
	return b.Status == StatusPending || b.Status == StatusAwaitingPayment
}

// MarkAwaitingPayment は決済開始を記録する（Pendingからのみ遷移可能）
func (b *Booking) MarkAwaitingPayment() error {
	switch b.Status {
	case StatusPending:
		b.Status = StatusAwaitingPayment
		b.UpdatedAt = time.Now()
		return nil
	case StatusCancelled:
		return ErrBookingAlreadyCancelled
	case StatusConfirmed:
		return ErrBookingAlreadyConfirmed
	default:
		return ErrInvalidStateTransition
	}
}

// Confirm は予約を確定する
// PendingからConfirmedへの直接遷移は許可しない（決済開始を経由すること）
func (b *Booking) Confirm() error {
	switch b.Status {
	case StatusAwaitingPayment:
		now := time.Now()
		b.Status = StatusConfirmed
		b.ConfirmedAt = &now
		b.UpdatedAt = now
		return nil
	case StatusCancelled:
		return ErrBookingAlreadyCancelled
	case StatusConfirmed:
		return ErrBookingAlreadyConfirmed
	default:
		return ErrInvalidStateTransition
	}
}

// Cancel は予約をキャンセルする
// キャンセル済み予約の再キャンセルはビジネスエラーとして拒否する
func (b *Booking) Cancel(reason string) error {
	switch b.Status {
	case StatusCancelled:
		return ErrBookingAlreadyCancelled
	case StatusConfirmed:
		return ErrBookingAlreadyConfirmed
	}
	now := time.Now()
	b.Status = StatusCancelled
	b.CancellationReason = reason
	b.CancelledAt = &now
	b.UpdatedAt = now
	return nil
}

// Validate は予約の検証を行う
func (b *Booking) Validate() error {
	if b.UserID == "" {
		return ErrUserIDRequired
	}
	if b.FlightID == "" {
		return ErrFlightIDRequired
	}
	if !b.Cabin.IsValid() {
		return seat.ErrInvalidCabin
	}
	if len(b.SeatIDs) == 0 {
		return ErrSeatIDsRequired
	}
	if len(b.Passengers) != len(b.SeatIDs) {
		return ErrPassengerCountMismatch
	}
	return nil
}
