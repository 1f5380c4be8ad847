package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrLockNotAcquired = errors.New("ロックを取得できませんでした")
	ErrLockNotOwned    = errors.New("ロックの所有者ではありません")
)

const sweepLockKey = "lock:sweeper:expired-bookings"

// SweepLock は複数インスタンス間でスイーパー実行を直列化する分散ロック
// スイープ自体は冪等なため、ロックは正しさではなく二重実行の抑止が目的
type SweepLock struct {
	client *redis.Client
	value  string
	ttl    time.Duration
}

// NewSweepLock は新しいSweepLockを作成する
func NewSweepLock(client *redis.Client, ttl time.Duration) *SweepLock {
	return &SweepLock{client: client, ttl: ttl}
}

// TryAcquire はロックの取得を試みる
// 取得できない場合は ErrLockNotAcquired を返し、呼び出し側は
// この周期のスイープをスキップする
func (l *SweepLock) TryAcquire(ctx context.Context) error {
	value := uuid.New().String()

	// SetNX でキーが存在しない場合のみ取得
	ok, err := l.client.SetNX(ctx, sweepLockKey, value, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("ロック取得に失敗: %w", err)
	}
	if !ok {
		return ErrLockNotAcquired
	}
	l.value = value
	return nil
}

// Release はロックを解放する（Luaスクリプトで所有者確認と削除をアトミックに実行）
func (l *SweepLock) Release(ctx context.Context) error {
	script := `
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("DEL", KEYS[1])
		else
			return 0
		end
	`
	result, err := l.client.Eval(ctx, script, []string{sweepLockKey}, l.value).Int()
	if err != nil {
		return fmt.Errorf("ロック解放に失敗: %w", err)
	}
	if result == 0 {
		return ErrLockNotOwned
	}
	return nil
}
