// Package redislock implements cluster-wide mutual exclusion on Redis with
// SET NX PX and a token-checked release.
package redislock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/openlibraryenvironment/dcb-service-sub001/internal/domain"
)

const keyPrefix = "dcb:lock:"

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker takes expiring locks in Redis. A holder that dies loses the lock
// once its ttl elapses.
type Locker struct {
	client redis.Cmdable
}

// New creates a Locker on client.
func New(client redis.Cmdable) *Locker {
	return &Locker{client: client}
}

// Connect opens a Redis client and verifies it with PING.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis %s: %w", addr, err)
	}
	return client, nil
}

// TryAcquire attempts to take the lock name for ttl without waiting.
func (l *Locker) TryAcquire(ctx context.Context, name string, ttl time.Duration) (domain.Lease, bool, error) {
	if ttl <= 0 {
		return domain.Lease{}, false, fmt.Errorf("lock %s: ttl must be positive", name)
	}

	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, keyPrefix+name, token, ttl).Result()
	if err != nil {
		return domain.Lease{}, false, fmt.Errorf("redis lock %s: %w", name, err)
	}
	if !ok {
		return domain.Lease{}, false, nil
	}
	return domain.Lease{Name: name, Token: token, AcquiredAt: time.Now().UTC()}, true, nil
}

// Release frees the lock if lease still owns it. An expired or taken-over
// lock is left alone.
func (l *Locker) Release(ctx context.Context, lease domain.Lease) error {
	n, err := releaseScript.Run(ctx, l.client, []string{keyPrefix + lease.Name}, lease.Token).Int()
	if err != nil {
		return fmt.Errorf("redis unlock %s: %w", lease.Name, err)
	}
	if n == 0 {
		return fmt.Errorf("redis unlock %s: lease no longer held: %w", lease.Name, domain.ErrConflict)
	}
	return nil
}
