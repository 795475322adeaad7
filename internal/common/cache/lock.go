package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// releaseScript 仅当锁仍由当前持有者持有时才删除
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// TryLock 尝试以 token 获取锁，ttl 到期后锁自动释放
func TryLock(ctx context.Context, client redis.UniversalClient, key, token string, ttl time.Duration) (bool, error) {
	return client.SetNX(ctx, key, token, ttl).Result()
}

// Unlock 释放由 token 持有的锁，返回是否确实释放
// 锁已过期或被他人持有时返回 false
func Unlock(ctx context.Context, client redis.UniversalClient, key, token string) (bool, error) {
	n, err := releaseScript.Run(ctx, client, []string{key}, token).Int64()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
