package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"statefulset-users/internal/cache"
	"statefulset-users/internal/metrics"
	"statefulset-users/internal/model"

	"github.com/redis/go-redis/v9"
)

// tombstone 標記剛被修改或刪除的 id；在它過期前，慢的讀取不能把舊資料寫回快取
const tombstone = "\x00tombstone"

// TombstoneTTL 需大於一次 GET 從讀 DB 到寫快取的時間
const TombstoneTTL = 10 * time.Second

// UserCacheKey 以數字 id 組 key；"01" 與 "1" 會對到同一筆
func UserCacheKey(id int) string {
	return "user:" + strconv.Itoa(id)
}

// CachedUser 讀快取。id 不是整數、miss、tombstone、或 Redis 出錯都回傳 false。
func CachedUser(ctx context.Context, c cache.Cache, rawID string) (*model.User, bool) {
	id, err := strconv.Atoi(rawID)
	if err != nil {
		return nil, false
	}
	raw, err := c.Get(ctx, UserCacheKey(id)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		metrics.IncCacheLookup("miss")
		return nil, false
	case err != nil:
		metrics.IncCacheLookup("error")
		return nil, false
	case string(raw) == tombstone:
		metrics.IncCacheLookup("tombstone")
		return nil, false
	}
	u := &model.User{}
	if err := json.Unmarshal(raw, u); err != nil {
		metrics.IncCacheLookup("error")
		return nil, false
	}
	metrics.IncCacheLookup("hit")
	return u, true
}

// CacheUser 以 SETNX 寫入，不會覆蓋 tombstone 或其他請求先寫入的值
func CacheUser(ctx context.Context, c cache.Cache, u *model.User, ttl time.Duration) error {
	raw, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("CacheUser: %w", err)
	}
	if err := c.SetNX(ctx, UserCacheKey(u.ID), raw, ttl).Err(); err != nil {
		return fmt.Errorf("CacheUser: %w", err)
	}
	return nil
}

// InvalidateUser 在更新或刪除後寫入 tombstone
func InvalidateUser(ctx context.Context, c cache.Cache, id int) error {
	if err := c.Set(ctx, UserCacheKey(id), tombstone, TombstoneTTL).Err(); err != nil {
		return fmt.Errorf("InvalidateUser: %w", err)
	}
	return nil
}
