package seatlock

import "time"

// Status はシートロックの状態を表す
type Status string

const (
	StatusActive   Status = "active"
	StatusReleased Status = "released"
)

// SeatLock は座席への時限付きソフトクレームを表す
// 決済が完了していない予約が座席を無期限に塞がないための仕組みで、
// ロック自体は予約を構成しない。ExpiresAtの経過は空席判定上の
// 助言値であり、正式な解放は必ず予約の状態遷移かスイーパーを経由する
type SeatLock struct {
	ID        string
	FlightID  string
	SeatID    string
	BookingID string
	SessionID string // ロック保有セッション（ユーザー）の識別子
	ExpiresAt time.Time
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewSeatLock は新しいActiveロックを作成する
func NewSeatLock(flightID, seatID, bookingID, sessionID string, ttl time.Duration) *SeatLock {
	now := time.Now()
	return &SeatLock{
		FlightID:  flightID,
		SeatID:    seatID,
		BookingID: bookingID,
		SessionID: sessionID,
		ExpiresAt: now.Add(ttl),
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsActive はロックがActive状態かを返す
func (l *SeatLock) IsActive() bool {
	return l.Status == StatusActive
}

// IsExpired はロックの期限が経過したかを返す（助言値）
func (l *SeatLock) IsExpired() bool {
	return time.Now().After(l.ExpiresAt)
}

// IsHeldBy はロックが指定セッションの保有かを返す
func (l *SeatLock) IsHeldBy(sessionID string) bool {
	return l.SessionID == sessionID
}

// Blocks はロックが指定セッションの予約試行を妨げるかを返す
// 自セッションのロックと期限切れロックは妨げない
func (l *SeatLock) Blocks(sessionID string) bool {
	return l.IsActive() && !l.IsExpired() && !l.IsHeldBy(sessionID)
}

// Release はロックを解放済みにする
func (l *SeatLock) Release() {
	l.Status = StatusReleased
	l.UpdatedAt = time.Now()
}

// Validate はロックの検証を行う
func (l *SeatLock) Validate() error {
	if l.FlightID == "" {
		return ErrFlightIDRequired
	}
	if l.SeatID == "" {
		return ErrSeatIDRequired
	}
	if l.BookingID == "" {
		return ErrBookingIDRequired
	}
	if l.SessionID == "" {
		return ErrSessionIDRequired
	}
	return nil
}
