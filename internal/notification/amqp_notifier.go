package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/booking"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/pkg/logger"
)

// BookingStatusEvent はキューに発行する予約状態変更イベント
type BookingStatusEvent struct {
	Event      string    `json:"event"`
	BookingID  string    `json:"booking_id"`
	Reference  string    `json:"reference"`
	UserID     string    `json:"user_id"`
	FlightID   string    `json:"flight_id"`
	Status     string    `json:"status"`
	SeatCount  int       `json:"seat_count"`
	OccurredAt time.Time `json:"occurred_at"`
}

// AMQPNotifier は予約状態の変更をRabbitMQキューに発行する
// 接続は発行ごとに張り直す。発行頻度は状態遷移に限られるため、
// 常駐接続の再接続管理より単純さを優先する
type AMQPNotifier struct {
	url   string
	queue string
}

func NewAMQPNotifier(url, queue string) *AMQPNotifier {
	return &AMQPNotifier{url: url, queue: queue}
}

// NotifyBookingStatusChanged は状態変更イベントを永続メッセージとして発行する
func (n *AMQPNotifier) NotifyBookingStatusChanged(ctx context.Context, b *booking.Booking, event string) error {
	conn, err := amqp.Dial(n.url)
	if err != nil {
		return fmt.Errorf("ブローカーへの接続に失敗: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("チャネルのオープンに失敗: %w", err)
	}
	defer ch.Close()

	// 冪等なキュー宣言。durableでブローカー再起動後もメッセージを保持
	if _, err := ch.QueueDeclare(n.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("キュー宣言に失敗: %w", err)
	}

	body, err := json.Marshal(BookingStatusEvent{
		Event:      event,
		BookingID:  b.ID,
		Reference:  b.Reference,
		UserID:     b.UserID,
		FlightID:   b.FlightID,
		Status:     string(b.Status),
		SeatCount:  len(b.SeatIDs),
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("イベントのシリアライズに失敗: %w", err)
	}

	if err := ch.PublishWithContext(ctx, "", n.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	}); err != nil {
		return fmt.Errorf("メッセージの発行に失敗: %w", err)
	}

	logger.Debug("予約状態イベントを発行",
		zap.String("event", event),
		zap.String("booking_id", b.ID),
	)
	return nil
}
