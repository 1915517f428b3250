package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrLockHeld is returned when another holder owns the lock.
var ErrLockHeld = errors.New("lock held")

// releaseScript deletes the key only when it still carries our token.
const releaseScript = `if redis.call("get", KEYS[1]) == ARGV[1] then return redis.call("del", KEYS[1]) else return 0 end`

// renewScript pushes the expiry out only while the key still carries our token.
const renewScript = `if redis.call("get", KEYS[1]) == ARGV[1] then return redis.call("pexpire", KEYS[1], ARGV[2]) else return 0 end`

type lockClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// RedisRunLock is a cross-process mutex built on SET NX with a TTL. While held,
// the TTL is renewed every third of its length so long runs keep exclusivity;
// a crashed holder still frees the key once the TTL lapses.
type RedisRunLock struct {
	client lockClient
	key    string
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisRunLock constructs the lock. client is usually a *redis.Client.
func NewRedisRunLock(client lockClient, key string, ttl time.Duration, logger *zap.Logger) *RedisRunLock {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisRunLock{client: client, key: key, ttl: ttl, logger: logger}
}

// Acquire takes the lock or returns ErrLockHeld. The release func is safe to
// call once the holder is done; it never removes a lock taken by someone else.
func (l *RedisRunLock) Acquire(ctx context.Context) (func(), error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis setnx %s: %w", l.key, err)
	}
	if !ok {
		return nil, ErrLockHeld
	}

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		l.renew(token, stop)
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			wg.Wait()

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := l.client.Eval(ctx, releaseScript, []string{l.key}, token).Err(); err != nil {
				l.logger.Warn("failed to release run lock; it expires with its ttl",
					zap.String("key", l.key), zap.Duration("ttl", l.ttl), zap.Error(err))
			}
		})
	}, nil
}

func (l *RedisRunLock) renew(token string, stop <-chan struct{}) {
	interval := l.ttl / 3
	if interval <= 0 {
		interval = l.ttl
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			n, err := l.client.Eval(ctx, renewScript, []string{l.key}, token, l.ttl.Milliseconds()).Int64()
			cancel()
			switch {
			case err != nil:
				l.logger.Warn("failed to renew run lock", zap.String("key", l.key), zap.Error(err))
			case n == 0:
				l.logger.Error("run lock lost before release", zap.String("key", l.key))
				return
			}
		}
	}
}
