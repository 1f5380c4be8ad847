package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/seat"
)

var (
	ErrCacheMiss = errors.New("キャッシュが見つかりません")
)

// AvailabilityCache はフライト・キャビンごとの空席数キャッシュを管理する
// 空席判定の読み取りパスは助言値なので、短いTTLの古い値を許容する
type AvailabilityCache struct {
	client *redis.Client
}

// NewAvailabilityCache は新しいAvailabilityCacheインスタンスを作成する
func NewAvailabilityCache(client *redis.Client) *AvailabilityCache {
	return &AvailabilityCache{client: client}
}

// GetAvailableCount はキャビンの空席数をキャッシュから取得する
func (c *AvailabilityCache) GetAvailableCount(ctx context.Context, flightID string, cabin seat.Cabin) (int, error) {
	val, err := c.client.Get(ctx, c.availableCountKey(flightID, cabin)).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrCacheMiss
		}
		return 0, fmt.Errorf("キャッシュ取得に失敗: %w", err)
	}
	return val, nil
}

// SetAvailableCount はキャビンの空席数をキャッシュに保存する
func (c *AvailabilityCache) SetAvailableCount(ctx context.Context, flightID string, cabin seat.Cabin, count int, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.availableCountKey(flightID, cabin), count, ttl).Err(); err != nil {
		return fmt.Errorf("キャッシュ保存に失敗: %w", err)
	}
	return nil
}

// Invalidate はキャビンのキャッシュを無効化する
func (c *AvailabilityCache) Invalidate(ctx context.Context, flightID string, cabin seat.Cabin) error {
	if err := c.client.Del(ctx, c.availableCountKey(flightID, cabin)).Err(); err != nil {
		return fmt.Errorf("キャッシュ無効化に失敗: %w", err)
	}
	return nil
}

func (c *AvailabilityCache) availableCountKey(flightID string, cabin seat.Cabin) string {
	return fmt.Sprintf("seats:available:%s:%s", flightID, cabin)
}
