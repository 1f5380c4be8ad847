package application

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/booking"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/flight"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/seat"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/seatlock"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/transaction"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/infrastructure/postgres"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/pkg/logger"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/pkg/metrics"
)

// SystemActor はスイーパー等のシステム処理を表すアクター識別子
const SystemActor = "system"

// Quoter は予約総額の見積もりインターフェース
type Quoter interface {
	Quote(ctx context.Context, flightID string, cabin seat.Cabin, seatCount int) (int, error)
}

// ReservationService は座席の確保と予約の状態遷移を提供する
// 二重予約の防止はプロセス内のロックではなく、SERIALIZABLE分離の
// データベーストランザクションに依存する（複数インスタンスでの水平
// スケールを前提とするため）
type ReservationService struct {
	txm         transaction.Manager
	flightRepo  flight.Repository
	seatRepo    seat.Repository
	bookingRepo booking.Repository
	lockRepo    seatlock.Repository
	quoter      Quoter

	notifier Notifier
	cache    AvailabilityCache
	metrics  *metrics.Metrics

	lockTTL        time.Duration
	maxRetries     int
	retryBaseDelay time.Duration
	txTimeout      time.Duration
}

// ReservationOption はReservationServiceの設定オプション
type ReservationOption func(*ReservationService)

// WithLockTTL はシートロックの保持期間を設定する
func WithLockTTL(d time.Duration) ReservationOption {
	return func(s *ReservationService) {
		if d > 0 {
			s.lockTTL = d
		}
	}
}

// WithRetryPolicy はシリアライゼーション競合時のリトライ方針を設定する
func WithRetryPolicy(maxRetries int, baseDelay time.Duration) ReservationOption {
	return func(s *ReservationService) {
		if maxRetries > 0 {
			s.maxRetries = maxRetries
		}
		if baseDelay > 0 {
			s.retryBaseDelay = baseDelay
		}
	}
}

// WithTxTimeout は予約トランザクションのタイムアウトを設定する
func WithTxTimeout(d time.Duration) ReservationOption {
	return func(s *ReservationService) {
		if d > 0 {
			s.txTimeout = d
		}
	}
}

// WithNotifier は通知シンクを設定する
func WithNotifier(n Notifier) ReservationOption {
	return func(s *ReservationService) { s.notifier = n }
}

// WithAvailabilityCache は空席数キャッシュを設定する
func WithAvailabilityCache(c AvailabilityCache) ReservationOption {
	return func(s *ReservationService) { s.cache = c }
}

// WithMetrics はメトリクスを設定する
func WithMetrics(m *metrics.Metrics) ReservationOption {
	return func(s *ReservationService) { s.metrics = m }
}

func NewReservationService(
	txm transaction.Manager,
	fr flight.Repository,
	sr seat.Repository,
	br booking.Repository,
	lr seatlock.Repository,
	quoter Quoter,
	opts ...ReservationOption,
) *ReservationService {
	s := &ReservationService{
		txm:            txm,
		flightRepo:     fr,
		seatRepo:       sr,
		bookingRepo:    br,
		lockRepo:       lr,
		quoter:         quoter,
		lockTTL:        15 * time.Minute,
		maxRetries:     3,
		retryBaseDelay: 100 * time.Millisecond,
		txTimeout:      15 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type ReserveInput struct {
	UserID      string
	FlightID    string
	Cabin       seat.Cabin
	SeatNumbers []string
	Passengers  []booking.Passenger
}

// Reserve は座席を確保してPending予約を作成する
// 成功した場合、座席は永続的かつ排他的に確保されており、呼び出し側は
// 決済に進んでよい。失敗した場合は新しいBooking・SeatLock・座席関連
// 付けは一切残らない
func (s *ReservationService) Reserve(ctx context.Context, input ReserveInput) (*booking.Booking, error) {
	if err := validateReserveInput(input); err != nil {
		s.countReservation("validation_error")
		return nil, err
	}

	f, err := s.flightRepo.GetByID(ctx, input.FlightID)
	if err != nil {
		s.countReservation("error")
		return nil, err
	}
	if !f.IsBookable() {
		s.countReservation("validation_error")
		return nil, flight.ErrFlightNotBookable
	}

	// 価格はトランザクションを短く保つため事前に計算する
	amount := s.quoteWithFallback(ctx, f, input.Cabin, len(input.SeatNumbers))

	start := time.Now()
	b, err := s.reserveWithRetry(ctx, input, amount)
	if s.metrics != nil {
		s.metrics.ReservationTxDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return nil, err
	}

	s.countReservation("success")
	s.invalidateCache(ctx, b.FlightID, b.Cabin)
	s.notify(ctx, b, EventBookingCreated)

	logger.Info("予約を作成",
		zap.String("booking_id", b.ID),
		zap.String("reference", b.Reference),
		zap.String("flight_id", b.FlightID),
		zap.Int("seats", len(b.SeatIDs)),
	)
	return b, nil
}

// reserveWithRetry は予約トランザクションを一時的競合に対して
// 上限付きでリトライする。業務上の拒否（座席競合など）は即座に返す
func (s *ReservationService) reserveWithRetry(ctx context.Context, input ReserveInput, amount int) (*booking.Booking, error) {
	var lastErr error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		b, err := s.tryReserve(ctx, input, amount)
		if err == nil {
			return b, nil
		}
		if !isTransientConflict(err) {
			var conflictErr *SeatConflictError
			if errors.As(err, &conflictErr) {
				s.countReservation("seat_conflict")
			} else {
				s.countReservation("error")
			}
			return nil, err
		}

		lastErr = err
		if s.metrics != nil {
			s.metrics.SerializationRetriesTotal.Inc()
		}
		logger.Debug("予約トランザクションが競合、リトライします",
			zap.Int("attempt", attempt),
			zap.Error(err),
		)

		if attempt == s.maxRetries {
			break
		}
		// 競合したトランザクション同士の再試行をずらすための
		// ジッター付きバックオフ
		if err := s.backoff(ctx, attempt); err != nil {
			s.countReservation("error")
			return nil, err
		}
	}

	s.countReservation("retry_exhausted")
	logger.Warn("予約競合のリトライ上限に到達",
		zap.String("flight_id", input.FlightID),
		zap.Strings("seat_numbers", input.SeatNumbers),
		zap.Error(lastErr),
	)
	return nil, fmt.Errorf("%w: %v", ErrConcurrencyExhausted, lastErr)
}

// tryReserve は予約プロトコルをSERIALIZABLEトランザクションで1回実行する
func (s *ReservationService) tryReserve(ctx context.Context, input ReserveInput, amount int) (*booking.Booking, error) {
	txCtx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	tx, err := s.txm.BeginSerializable(txCtx)
	if err != nil {
		return nil, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	// 対象座席を安定した順序（座席ID昇順）でロック取得し、重なり合う
	// 座席集合を扱うトランザクション間の循環待ちを防ぐ
	seats, err := s.seatRepo.GetForReservation(txCtx, tx, input.FlightID, input.Cabin, input.SeatNumbers)
	if err != nil {
		return nil, err
	}

	// 助言的チェック（AvailabilityService）と同一の検証を、ここでは
	// 並行コミッターと線形化可能な形で再実行する
	conflicts, seatByID := classifyMissingSeats(input.SeatNumbers, seats)

	seatIDs := make([]string, 0, len(seats))
	for _, se := range seats {
		seatIDs = append(seatIDs, se.ID)
	}

	if len(seatIDs) > 0 {
		// 他セッションのActiveロックを先に判定する。ロックを保持する
		// Pending/AwaitingPaymentの予約は「一時的な保留」として報告し、
		// ロックを持たない確定済み予約だけが「予約済み」になる
		claimed := make(map[string]struct{})

		locks, err := s.lockRepo.GetActiveBySeatIDsTx(txCtx, tx, seatIDs)
		if err != nil {
			return nil, err
		}
		for _, l := range locks {
			if !l.Blocks(input.UserID) {
				continue
			}
			if se, ok := seatByID[l.SeatID]; ok {
				if _, dup := claimed[l.SeatID]; !dup {
					claimed[l.SeatID] = struct{}{}
					conflicts = append(conflicts, SeatConflict{SeatNumber: se.SeatNumber, Reason: ConflictTemporarilyHeld})
				}
			}
		}

		active, err := s.bookingRepo.GetActiveBySeatIDsTx(txCtx, tx, seatIDs)
		if err != nil {
			return nil, err
		}
		for _, existing := range active {
			for _, sid := range existing.SeatIDs {
				if se, ok := seatByID[sid]; ok {
					if _, dup := claimed[sid]; !dup {
						claimed[sid] = struct{}{}
						conflicts = append(conflicts, SeatConflict{SeatNumber: se.SeatNumber, Reason: ConflictAlreadyBooked})
					}
				}
			}
		}
	}

	if len(conflicts) > 0 {
		// 業務上の拒否。リトライ対象ではない
		return nil, &SeatConflictError{Conflicts: conflicts}
	}

	b := booking.NewBooking(input.UserID, input.FlightID, input.Cabin, seatIDs, input.Passengers, amount)
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if err := s.bookingRepo.Create(txCtx, tx, b); err != nil {
		return nil, err
	}

	locks := make([]*seatlock.SeatLock, len(seatIDs))
	for i, sid := range seatIDs {
		locks[i] = seatlock.NewSeatLock(input.FlightID, sid, b.ID, input.UserID, s.lockTTL)
	}
	if err := s.lockRepo.CreateBulk(txCtx, tx, locks); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("コミットに失敗: %w", err)
	}
	return b, nil
}

func (s *ReservationService) backoff(ctx context.Context, attempt int) error {
	jitter := time.Duration(rand.Int63n(int64(s.retryBaseDelay)))
	delay := s.retryBaseDelay*time.Duration(attempt) + jitter
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}

// quoteWithFallback は見積もりに失敗した場合、基本運賃×座席数に
// フォールバックする（価格計算の失敗で予約をブロックしない）
func (s *ReservationService) quoteWithFallback(ctx context.Context, f *flight.Flight, cabin seat.Cabin, seatCount int) int {
	if s.quoter == nil {
		return f.BasePrice * seatCount
	}
	amount, err := s.quoter.Quote(ctx, f.ID, cabin, seatCount)
	if err != nil {
		logger.Warn("価格見積もりに失敗、基本運賃にフォールバック",
			zap.String("flight_id", f.ID),
			zap.String("cabin", string(cabin)),
			zap.Error(err),
		)
		return f.BasePrice * seatCount
	}
	return amount
}

// GetBooking はIDから予約を取得する
func (s *ReservationService) GetBooking(ctx context.Context, id string) (*booking.Booking, error) {
	return s.bookingRepo.GetByID(ctx, id)
}

// GetBookingByReference は参照コードから予約を取得する
func (s *ReservationService) GetBookingByReference(ctx context.Context, reference string) (*booking.Booking, error) {
	return s.bookingRepo.GetByReference(ctx, reference)
}

// GetUserBookings はユーザーの予約一覧を取得する
func (s *ReservationService) GetUserBookings(ctx context.Context, userID string, limit, offset int) ([]*booking.Booking, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.bookingRepo.GetByUserID(ctx, userID, limit, offset)
}

// PromoteToAwaitingPayment は決済開始を記録する（決済コラボレーターが呼ぶ）
// 座席ロックには変更を加えない
func (s *ReservationService) PromoteToAwaitingPayment(ctx context.Context, bookingID string) (*booking.Booking, error) {
	return s.transition(ctx, bookingID, EventBookingAwaitingPayment, false, func(b *booking.Booking) error {
		return b.MarkAwaitingPayment()
	})
}

// PromoteToConfirmed は決済成功時に予約を確定する（決済コラボレーターが呼ぶ）
// 座席はBooking行自体で永続的に所有されるため、同一トランザクションで
// シートロックを解放する
func (s *ReservationService) PromoteToConfirmed(ctx context.Context, bookingID string) (*booking.Booking, error) {
	return s.transition(ctx, bookingID, EventBookingConfirmed, true, func(b *booking.Booking) error {
		return b.Confirm()
	})
}

type CancelBookingInput struct {
	BookingID string
	ActorID   string
	Reason    string
}

// CancelBooking は予約をキャンセルし、同一トランザクションで
// 全Activeロックを解放する。キャンセル済み予約の再キャンセルは
// ビジネスエラーとして拒否される
func (s *ReservationService) CancelBooking(ctx context.Context, input CancelBookingInput) (*booking.Booking, error) {
	b, err := s.transition(ctx, input.BookingID, EventBookingCancelled, true, func(b *booking.Booking) error {
		if input.ActorID != SystemActor && input.ActorID != b.UserID {
			return booking.ErrForbidden
		}
		return b.Cancel(input.Reason)
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// transition は予約の状態遷移を1トランザクションで実行する共通処理
// 行ロック付きで再取得してから遷移ガードを適用するため、並行する
// 遷移同士は直列化される
func (s *ReservationService) transition(ctx context.Context, bookingID, event string, releaseLocks bool, apply func(*booking.Booking) error) (*booking.Booking, error) {
	tx, err := s.txm.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	b, err := s.bookingRepo.GetByIDTx(ctx, tx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := apply(b); err != nil {
		return nil, err
	}
	if err := s.bookingRepo.Update(ctx, tx, b); err != nil {
		return nil, err
	}
	if releaseLocks {
		if _, err := s.lockRepo.ReleaseByBookingID(ctx, tx, b.ID); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("コミットに失敗: %w", err)
	}

	if releaseLocks {
		s.invalidateCache(ctx, b.FlightID, b.Cabin)
	}
	s.notify(ctx, b, event)

	logger.Info("予約の状態を更新",
		zap.String("booking_id", b.ID),
		zap.String("status", string(b.Status)),
	)
	return b, nil
}

// notify は状態変更をベストエフォートで通知する
// 通知の失敗は記録するだけで、呼び出し元の処理は失敗させない
func (s *ReservationService) notify(ctx context.Context, b *booking.Booking, event string) {
	if s.notifier == nil {
		return
	}
	go func(ctx context.Context) {
		if err := s.notifier.NotifyBookingStatusChanged(ctx, b, event); err != nil {
			logger.Warn("予約状態の通知に失敗",
				zap.String("booking_id", b.ID),
				zap.String("event", event),
				zap.Error(err),
			)
		}
	}(context.WithoutCancel(ctx))
}

func (s *ReservationService) invalidateCache(ctx context.Context, flightID string, cabin seat.Cabin) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, flightID, cabin); err != nil {
		logger.Warn("空席数キャッシュの無効化に失敗",
			zap.String("flight_id", flightID),
			zap.Error(err),
		)
	}
}

func (s *ReservationService) countReservation(status string) {
	if s.metrics != nil {
		s.metrics.ReservationsTotal.WithLabelValues(status).Inc()
	}
}

func validateReserveInput(input ReserveInput) error {
	if input.UserID == "" {
		return booking.ErrUserIDRequired
	}
	if input.FlightID == "" {
		return booking.ErrFlightIDRequired
	}
	if !input.Cabin.IsValid() {
		return seat.ErrInvalidCabin
	}
	if len(input.SeatNumbers) == 0 {
		return ErrNoSeatsRequested
	}
	if len(input.SeatNumbers) != len(input.Passengers) {
		return ErrSeatCountMismatch
	}
	seen := make(map[string]struct{}, len(input.SeatNumbers))
	for _, n := range input.SeatNumbers {
		if _, ok := seen[n]; ok {
			return ErrDuplicateSeatNumbers
		}
		seen[n] = struct{}{}
	}
	return nil
}

// isTransientConflict はリトライで解消しうる一時的競合かを判定する
// 参照コード衝突は再生成で解消するため含める
func isTransientConflict(err error) bool {
	return errors.Is(err, booking.ErrReferenceConflict) || postgres.IsTransientConflict(err)
}
