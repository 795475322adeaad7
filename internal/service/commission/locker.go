package commission

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/dumeirei/realty-crm-backend/internal/common/cache"
	"github.com/dumeirei/realty-crm-backend/internal/common/errors"
	"github.com/dumeirei/realty-crm-backend/internal/common/metrics"
)

// 锁后端
const (
	LockBackendMemory = "memory"
	LockBackendRedis  = "redis"
)

const redisLockRetryInterval = 20 * time.Millisecond

// 未配置或配置非法时的锁参数
const (
	defaultLockTTL  = 10 * time.Second
	defaultLockWait = 3 * time.Second
)

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

// Locker 按键互斥的锁
// Lock 在等待上限内未获取到锁时返回 errors.ErrLockTimeout，返回的 unlock 可重复调用
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

func commissionLockKey(paymentID int64) string {
	return fmt.Sprintf("commission:payment:%d", paymentID)
}

func withdrawLockKey(associateID int64) string {
	return fmt.Sprintf("withdraw:associate:%d", associateID)
}

// lockScope 取键的第一段作为指标标签
func lockScope(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return key
}

// MemoryLocker 进程内锁，仅适用于单实例部署
type MemoryLocker struct {
	mu      sync.Mutex
	locks   map[string]*memoryLock
	wait    time.Duration
	metrics *metrics.Metrics
}

type memoryLock struct {
	sem  chan struct{}
	refs int
}

// NewMemoryLocker 创建进程内锁
func NewMemoryLocker(wait time.Duration, m *metrics.Metrics) *MemoryLocker {
	return &MemoryLocker{
		locks:   make(map[string]*memoryLock),
		wait:    orDefault(wait, defaultLockWait),
		metrics: m,
	}
}

// Lock 获取锁
func (l *MemoryLocker) Lock(ctx context.Context, key string) (func(), error) {
	start := time.Now()
	ml := l.acquireRef(key)
	acquired := func() (func(), error) {
		l.metrics.RecordLockWait(lockScope(key), time.Since(start), false)
		var once sync.Once
		return func() {
			once.Do(func() {
				<-ml.sem
				l.releaseRef(key, ml)
			})
		}, nil
	}

	// 无竞争时直接获取，不与计时器竞争
	select {
	case ml.sem <- struct{}{}:
		return acquired()
	default:
	}

	timer := time.NewTimer(l.wait)
	defer timer.Stop()

	select {
	case ml.sem <- struct{}{}:
		return acquired()
	case <-timer.C:
		l.releaseRef(key, ml)
		l.metrics.RecordLockWait(lockScope(key), time.Since(start), true)
		return nil, errors.ErrLockTimeout
	case <-ctx.Done():
		l.releaseRef(key, ml)
		return nil, ctx.Err()
	}
}

func (l *MemoryLocker) acquireRef(key string) *memoryLock {
	l.mu.Lock()
	defer l.mu.Unlock()
	ml, ok := l.locks[key]
	if !ok {
		ml = &memoryLock{sem: make(chan struct{}, 1)}
		l.locks[key] = ml
	}
	ml.refs++
	return ml
}

func (l *MemoryLocker) releaseRef(key string, ml *memoryLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ml.refs--
	if ml.refs == 0 {
		delete(l.locks, key)
	}
}

// RedisLocker 基于 Redis 的分布式锁，多实例部署时使用
type RedisLocker struct {
	client  redis.UniversalClient
	ttl     time.Duration
	wait    time.Duration
	metrics *metrics.Metrics
	log     *zap.Logger
}

// NewRedisLocker 创建 Redis 锁，ttl 为持有上限，wait 为获取等待上限
// 非正值使用默认值，避免写入不过期的锁
func NewRedisLocker(client redis.UniversalClient, ttl, wait time.Duration, m *metrics.Metrics, log *zap.Logger) *RedisLocker {
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisLocker{
		client:  client,
		ttl:     orDefault(ttl, defaultLockTTL),
		wait:    orDefault(wait, defaultLockWait),
		metrics: m,
		log:     log,
	}
}

// Lock 获取锁
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	start := time.Now()
	redisKey := cache.BuildKey(cache.KeyPrefixLock, key)
	token := uuid.NewString()
	deadline := start.Add(l.wait)

	for {
		ok, err := cache.TryLock(ctx, l.client, redisKey, token, l.ttl)
		if err != nil {
			return nil, errors.ErrCacheError.WithError(err)
		}
		if ok {
			l.metrics.RecordLockWait(lockScope(key), time.Since(start), false)
			var once sync.Once
			return func() {
				once.Do(func() { l.release(redisKey, token) })
			}, nil
		}

		if time.Now().After(deadline) {
			l.metrics.RecordLockWait(lockScope(key), time.Since(start), true)
			return nil, errors.ErrLockTimeout
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(redisLockRetryInterval):
		}
	}
}

func (l *RedisLocker) release(redisKey, token string) {
	// 请求上下文可能已取消，释放使用独立的超时
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	released, err := cache.Unlock(ctx, l.client, redisKey, token)
	if err != nil {
		l.log.Warn("release lock failed", zap.String("key", redisKey), zap.Error(err))
		return
	}
	if !released {
		l.log.Warn("lock expired before release", zap.String("key", redisKey))
	}
}

// NewLocker 按配置选择锁后端，redis 后端缺少客户端时返回错误
func NewLocker(backend string, client redis.UniversalClient, ttl, wait time.Duration, m *metrics.Metrics, log *zap.Logger) (Locker, error) {
	switch backend {
	case "", LockBackendMemory:
		return NewMemoryLocker(wait, m), nil
	case LockBackendRedis:
		if client == nil {
			return nil, fmt.Errorf("lock backend redis requires a redis client")
		}
		return NewRedisLocker(client, ttl, wait, m, log), nil
	default:
		return nil, fmt.Errorf("unknown lock backend: %s", backend)
	}
}
