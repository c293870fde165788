package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/attendly-backend/internal/pkg/logger"
)

// PartitionLocker serializes writers on a (user, day) partition key so the
// checkin/checkout race for one user's day cannot interleave. The ledger's
// unique index remains the final arbiter; the lock exists so the loser fails
// with a clean invalid-transition instead of a duplicate-key surprise.
type PartitionLocker interface {
	// Acquire blocks until the key's lock is held or ctx is done. The
	// returned release must be called exactly once.
	Acquire(ctx context.Context, key string) (release func(), err error)
}

type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLockEntry
}

type keyedLockEntry struct {
	ch   chan struct{}
	refs int
}

// NewKeyedMutexLocker is the in-process locker used when no Redis address is
// configured. Entries are refcounted and removed once idle.
func NewKeyedMutexLocker() PartitionLocker {
	return &keyedMutex{locks: make(map[string]*keyedLockEntry)}
}

func (m *keyedMutex) Acquire(ctx context.Context, key string) (func(), error) {
	m.mu.Lock()
	entry, ok := m.locks[key]
	if !ok {
		entry = &keyedLockEntry{ch: make(chan struct{}, 1)}
		m.locks[key] = entry
	}
	entry.refs++
	m.mu.Unlock()

	select {
	case entry.ch <- struct{}{}:
		return func() {
			<-entry.ch
			m.mu.Lock()
			entry.refs--
			if entry.refs == 0 {
				delete(m.locks, key)
			}
			m.mu.Unlock()
		}, nil
	case <-ctx.Done():
		m.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(m.locks, key)
		}
		m.mu.Unlock()
		return nil, ctx.Err()
	}
}

type redisLocker struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

// NewRedisLocker builds a cross-replica locker over SETNX leases. The lease
// TTL bounds how long a crashed holder can wedge a partition.
func NewRedisLocker(baseLog *logger.Logger, addr string, ttl time.Duration) (PartitionLocker, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("missing redis address")
	}
	if ttl <= 0 {
		ttl = 10 * time.Second
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &redisLocker{
		log: baseLog.With("service", "RedisPartitionLocker"),
		rdb: rdb,
		ttl: ttl,
	}, nil
}

// releaseScript deletes the lease only if we still own it, so an expired
// lease taken over by another holder is never clobbered.
var releaseScript = goredis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

func (l *redisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	token := fmt.Sprintf("%d", time.Now().UnixNano())
	redisKey := "attendance:lock:" + key

	for {
		ok, err := l.rdb.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire partition lock: %w", err)
		}
		if ok {
			return func() {
				relCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				if err := releaseScript.Run(relCtx, l.rdb, []string{redisKey}, token).Err(); err != nil {
					l.log.Warn("Failed to release partition lock", "key", key, "error", err)
				}
			}, nil
		}

		select {
		case <-time.After(25 * time.Millisecond):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
