package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// LoginLimiter counts failed admin logins per email within a window.
type LoginLimiter interface {
	// Allow returns ErrTooManyAttempts once the failures in the window reach the limit.
	Allow(ctx context.Context, email string) error
	Fail(ctx context.Context, email string) error
	Reset(ctx context.Context, email string) error
}

func loginKey(email string) string {
	return fmt.Sprintf("login_attempts:%s", strings.ToLower(strings.TrimSpace(email)))
}

type RateLimiter struct {
	redis  *redis.Client
	limit  int
	window time.Duration
}

var _ LoginLimiter = (*RateLimiter)(nil)

func NewRateLimiter(redis *redis.Client, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		redis:  redis,
		limit:  limit,
		window: window,
	}
}

func (r *RateLimiter) Allow(ctx context.Context, email string) error {
	count, err := r.redis.Get(ctx, loginKey(email)).Int()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read login attempts: %w", err)
	}
	if count >= r.limit {
		return ErrTooManyAttempts
	}
	return nil
}

func (r *RateLimiter) Fail(ctx context.Context, email string) error {
	key := loginKey(email)

	pipe := r.redis.TxPipeline()
	pipe.Incr(ctx, key)
	ttl := pipe.TTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record login attempt: %w", err)
	}

	// A key without a TTL would lock the email out for good, so any failure
	// re-arms the window when it is missing.
	if ttl.Val() < 0 {
		if err := r.redis.Expire(ctx, key, r.window).Err(); err != nil {
			return fmt.Errorf("failed to set login attempt window: %w", err)
		}
	}

	return nil
}

func (r *RateLimiter) Reset(ctx context.Context, email string) error {
	return r.redis.Del(ctx, loginKey(email)).Err()
}

// MemoryRateLimiter is the single process LoginLimiter used when Redis is not
// configured.
type MemoryRateLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu       sync.Mutex
	attempts map[string]attempts
}

type attempts struct {
	count   int
	expires time.Time
}

var _ LoginLimiter = (*MemoryRateLimiter)(nil)

func NewMemoryRateLimiter(limit int, window time.Duration) *MemoryRateLimiter {
	return &MemoryRateLimiter{
		limit:    limit,
		window:   window,
		now:      time.Now,
		attempts: make(map[string]attempts),
	}
}

func (m *MemoryRateLimiter) Allow(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.attempts[loginKey(email)]
	if !ok || !m.now().Before(a.expires) {
		return nil
	}
	if a.count >= m.limit {
		return ErrTooManyAttempts
	}
	return nil
}

func (m *MemoryRateLimiter) Fail(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := loginKey(email)
	now := m.now()
	a, ok := m.attempts[key]
	if !ok || !now.Before(a.expires) {
		a = attempts{expires: now.Add(m.window)}
	}
	a.count++
	m.attempts[key] = a
	return nil
}

func (m *MemoryRateLimiter) Reset(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.attempts, loginKey(email))
	return nil
}
