package worker

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-flight-seat-reservation/internal/application"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/infrastructure/redis"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/pkg/logger"
)

// SweepRunner は期限切れ予約の一掃処理を実行するインターフェース
type SweepRunner interface {
	RunSweep(ctx context.Context) (application.SweepResult, error)
}

// SweepLock はスイープのリーダー選出に使う分散ロックのインターフェース
// 複数インスタンスが同時に起動している場合、各ティックを実行するのは
// ロックを取得できた1インスタンスのみ
type SweepLock interface {
	TryAcquire(ctx context.Context) error
	Release(ctx context.Context) error
}

// ExpirationSweeper は期限切れPending予約を定期的にキャンセルするワーカー
type ExpirationSweeper struct {
	expirationService SweepRunner
	sweepLock         SweepLock
	interval          time.Duration
	stopCh            chan struct{}
	doneCh            chan struct{}
}

// NewExpirationSweeper は新しいスイーパーを作成
// sweepLockはnil可（単一インスタンス構成ではロック不要）
func NewExpirationSweeper(
	es SweepRunner,
	sweepLock SweepLock,
	interval time.Duration,
) *ExpirationSweeper {
	return &ExpirationSweeper{
		expirationService: es,
		sweepLock:         sweepLock,
		interval:          interval,
		stopCh:            make(chan struct{}),
		doneCh:            make(chan struct{}),
	}
}

// Start はスイーパーを開始
func (s *ExpirationSweeper) Start(ctx context.Context) {
	logger.Info("期限切れ予約スイーパー開始",
		zap.Duration("interval", s.interval),
	)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	defer close(s.doneCh)

	for {
		select {
		case <-ctx.Done():
			logger.Info("期限切れ予約スイーパー停止（コンテキストキャンセル）")
			return
		case <-s.stopCh:
			logger.Info("期限切れ予約スイーパー停止（シグナル受信）")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// Stop はスイーパーを停止
func (s *ExpirationSweeper) Stop() {
	close(s.stopCh)
	<-s.doneCh
}

// sweep はスイープを1回実行
// 他インスタンスがロックを保持している場合はこのティックをスキップする
func (s *ExpirationSweeper) sweep(ctx context.Context) {
	log := logger.Get()

	if s.sweepLock != nil {
		if err := s.sweepLock.TryAcquire(ctx); err != nil {
			if errors.Is(err, redis.ErrLockNotAcquired) {
				log.Debug("他インスタンスがスイープ中、今回はスキップ")
				return
			}
			log.Error("スイープロックの取得に失敗", zap.Error(err))
			return
		}
		defer func() {
			if err := s.sweepLock.Release(ctx); err != nil {
				log.Warn("スイープロックの解放に失敗", zap.Error(err))
			}
		}()
	}

	result, err := s.expirationService.RunSweep(ctx)
	if err != nil {
		log.Error("期限切れ予約のスイープ失敗", zap.Error(err))
		return
	}

	if result.Processed > 0 || result.Failed > 0 {
		log.Info("期限切れ予約を処理",
			zap.Int("processed", result.Processed),
			zap.Int("failed", result.Failed),
		)
	} else {
		log.Debug("期限切れ予約なし")
	}
}
