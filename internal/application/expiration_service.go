package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/booking"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/transaction"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/pkg/logger"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/pkg/metrics"
)

// ExpirationReason は期限切れキャンセルに記録する理由
const ExpirationReason = "payment time limit expired"

// SweepResult はスイープ1回分の処理結果
type SweepResult struct {
	Processed int
	Failed    int
}

// ExpirationService は決済に進まないまま期限を超えたPending予約を
// キャンセルし、座席を解放する
type ExpirationService struct {
	txm           transaction.Manager
	bookingRepo   booking.Repository
	lockRepo      lockReleaser
	cache         AvailabilityCache
	notifier      Notifier
	metrics       *metrics.Metrics
	pendingExpiry time.Duration
}

type lockReleaser interface {
	ReleaseByBookingID(ctx context.Context, tx transaction.Tx, bookingID string) (int, error)
}

// ExpirationOption はExpirationServiceの設定オプション
type ExpirationOption func(*ExpirationService)

// WithExpirationNotifier は通知シンクを設定する
func WithExpirationNotifier(n Notifier) ExpirationOption {
	return func(s *ExpirationService) { s.notifier = n }
}

// WithExpirationCache は空席数キャッシュを設定する
func WithExpirationCache(c AvailabilityCache) ExpirationOption {
	return func(s *ExpirationService) { s.cache = c }
}

// WithExpirationMetrics はメトリクスを設定する
func WithExpirationMetrics(m *metrics.Metrics) ExpirationOption {
	return func(s *ExpirationService) { s.metrics = m }
}

func NewExpirationService(
	txm transaction.Manager,
	br booking.Repository,
	lr lockReleaser,
	pendingExpiry time.Duration,
	opts ...ExpirationOption,
) *ExpirationService {
	s := &ExpirationService{
		txm:           txm,
		bookingRepo:   br,
		lockRepo:      lr,
		pendingExpiry: pendingExpiry,
	}
	if s.pendingExpiry <= 0 {
		s.pendingExpiry = 30 * time.Minute
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunSweep は期限切れPending予約を検出し、1件ずつ独立した
// トランザクションでキャンセルする。1件の失敗はバッチ全体を
// 止めず、記録して次に進む
func (s *ExpirationService) RunSweep(ctx context.Context) (SweepResult, error) {
	var result SweepResult

	expired, err := s.bookingRepo.GetExpiredPending(ctx, s.pendingExpiry)
	if err != nil {
		return result, fmt.Errorf("期限切れ予約の取得に失敗: %w", err)
	}
	if len(expired) == 0 {
		return result, nil
	}

	logger.Info("期限切れ予約のスイープを開始",
		zap.Int("candidates", len(expired)),
		zap.Duration("pending_expiry", s.pendingExpiry),
	)

	for _, candidate := range expired {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		cancelled, err := s.expireBooking(ctx, candidate.ID)
		if err != nil {
			result.Failed++
			s.countSweep("error")
			logger.Error("予約の期限切れ処理に失敗",
				zap.String("booking_id", candidate.ID),
				zap.Error(err),
			)
			continue
		}
		if cancelled {
			result.Processed++
			s.countSweep("expired")
		}
	}

	logger.Info("期限切れ予約のスイープを完了",
		zap.Int("processed", result.Processed),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

// expireBooking は1件の予約を期限切れキャンセルする
// 検出とキャンセルの間に状態が進んでいる場合（決済開始・確定・
// キャンセル済み）は何もせず正常終了とし、cancelled=false を返す
func (s *ExpirationService) expireBooking(ctx context.Context, bookingID string) (bool, error) {
	tx, err := s.txm.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	// 行ロック付きで再取得し、最新の状態に対して判定する
	b, err := s.bookingRepo.GetByIDTx(ctx, tx, bookingID)
	if err != nil {
		if errors.Is(err, booking.ErrBookingNotFound) {
			return false, nil
		}
		return false, err
	}
	if !b.IsPending() {
		// 並行する遷移が先行した。収束済みとして扱う
		s.countSweep("skipped")
		return false, nil
	}

	if err := b.Cancel(ExpirationReason); err != nil {
		return false, err
	}
	if err := s.bookingRepo.Update(ctx, tx, b); err != nil {
		return false, err
	}
	released, err := s.lockRepo.ReleaseByBookingID(ctx, tx, b.ID)
	if err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("コミットに失敗: %w", err)
	}

	logger.Info("期限切れ予約をキャンセル",
		zap.String("booking_id", b.ID),
		zap.String("reference", b.Reference),
		zap.Int("locks_released", released),
	)

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, b.FlightID, b.Cabin); err != nil {
			logger.Warn("空席数キャッシュの無効化に失敗",
				zap.String("flight_id", b.FlightID),
				zap.Error(err),
			)
		}
	}
	if s.notifier != nil {
		if err := s.notifier.NotifyBookingStatusChanged(ctx, b, EventBookingCancelled); err != nil {
			logger.Warn("予約状態の通知に失敗",
				zap.String("booking_id", b.ID),
				zap.Error(err),
			)
		}
	}
	return true, nil
}

func (s *ExpirationService) countSweep(result string) {
	if s.metrics != nil {
		s.metrics.SweeperBookingsTotal.WithLabelValues(result).Inc()
	}
}
