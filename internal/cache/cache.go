package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache 定義快取操作介面
// 用於封裝 Redis 或其他快取實作，測試時以 FakeCache 替換
// ttl <= 0 表示不設過期

type Cache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) *redis.StatusCmd
	// SetNX 只在 key 不存在時寫入
	SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) *redis.BoolCmd
	Close() error
}

// Nop 是未設定 Redis 時使用的快取：永遠 miss，寫入直接丟棄
type Nop struct{}

func (Nop) Get(context.Context, string) *redis.StringCmd {
	return redis.NewStringResult("", redis.Nil)
}

func (Nop) Set(context.Context, string, interface{}, time.Duration) *redis.StatusCmd {
	return redis.NewStatusResult("OK", nil)
}

func (Nop) SetNX(context.Context, string, interface{}, time.Duration) *redis.BoolCmd {
	return redis.NewBoolResult(false, nil)
}

func (Nop) Close() error { return nil }

type FakeCache struct {
	GetFn   func(ctx context.Context, key string) *redis.StringCmd
	SetFn   func(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	SetNXFn func(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	CloseFn func() error
}

// Get 執行 Fake 設定或 panic
func (f *FakeCache) Get(ctx context.Context, key string) *redis.StringCmd {
	if f.GetFn != nil {
		return f.GetFn(ctx, key)
	}
	panic("unexpected Get")
}

// Set 執行 Fake 設定或 panic
func (f *FakeCache) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	if f.SetFn != nil {
		return f.SetFn(ctx, key, value, expiration)
	}
	panic("unexpected Set")
}

// SetNX 執行 Fake 設定或 panic
func (f *FakeCache) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	if f.SetNXFn != nil {
		return f.SetNXFn(ctx, key, value, expiration)
	}
	panic("unexpected SetNX")
}

// Close 執行 Fake 設定或 no-op
func (f *FakeCache) Close() error {
	if f.CloseFn != nil {
		return f.CloseFn()
	}
	return nil
}
