package application

import (
	"context"

	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/booking"
)

// 予約状態変更の通知イベント種別
const (
	EventBookingCreated         = "booking.created"
	EventBookingAwaitingPayment = "booking.awaiting_payment"
	EventBookingConfirmed       = "booking.confirmed"
	EventBookingCancelled       = "booking.cancelled"
)

// Notifier は予約状態変更の通知シンクを表す
// 通知はベストエフォートで、失敗しても予約処理を失敗させてはならない
type Notifier interface {
	NotifyBookingStatusChanged(ctx context.Context, b *booking.Booking, event string) error
}
