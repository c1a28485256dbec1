package rollover

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Lease is the mutual-exclusion primitive guarding a period closure.
// Acquire returns an opaque token; Renew and Release are token-checked so
// an expired holder cannot stomp a successor.
type Lease interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (string, error)
	Renew(ctx context.Context, key, token string, ttl time.Duration) error
	Release(ctx context.Context, key, token string) error
}

var (
	renewScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("pexpire", KEYS[1], ARGV[2])
end
return 0`)

	releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`)
)

// RedisLease implements Lease with SET NX EX and token-checked Lua for
// renew/release, giving system-wide exclusion across instances.
type RedisLease struct {
	client *redis.Client
}

func NewRedisLease(client *redis.Client) *RedisLease {
	if client == nil {
		panic("redis client is required")
	}
	return &RedisLease{client: client}
}

func (l *RedisLease) Acquire(ctx context.Context, key string, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", fmt.Errorf("acquiring lease %s: %w", key, err)
	}
	if !ok {
		return "", ErrLeaseHeld
	}
	return token, nil
}

func (l *RedisLease) Renew(ctx context.Context, key, token string, ttl time.Duration) error {
	n, err := renewScript.Run(ctx, l.client, []string{key}, token, ttl.Milliseconds()).Int()
	if err != nil {
		return fmt.Errorf("renewing lease %s: %w", key, err)
	}
	if n == 0 {
		return ErrLeaseLost
	}
	return nil
}

func (l *RedisLease) Release(ctx context.Context, key, token string) error {
	_, err := releaseScript.Run(ctx, l.client, []string{key}, token).Int()
	if err != nil {
		return fmt.Errorf("releasing lease %s: %w", key, err)
	}
	return nil
}

// MutexLease is an in-process Lease for single-instance deployments and
// tests. TTLs are ignored; the lease lives until released.
type MutexLease struct {
	mu   sync.Mutex
	held map[string]string
}

func NewMutexLease() *MutexLease {
	return &MutexLease{held: make(map[string]string)}
}

func (l *MutexLease) Acquire(ctx context.Context, key string, ttl time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, taken := l.held[key]; taken {
		return "", ErrLeaseHeld
	}
	token := uuid.NewString()
	l.held[key] = token
	return token, nil
}

func (l *MutexLease) Renew(ctx context.Context, key, token string, ttl time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] != token {
		return ErrLeaseLost
	}
	return nil
}

func (l *MutexLease) Release(ctx context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == token {
		delete(l.held, key)
	}
	return nil
}
