package service

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// OtpAttemptLimiter bounds consecutive wrong OTP guesses per account.
type OtpAttemptLimiter interface {
	TooManyAttempts(ctx context.Context, email string) (bool, error)
	RecordFailure(ctx context.Context, email string) error
	Reset(ctx context.Context, email string) error
}

// NoopLimiter places no bound on guesses. Used when the max-attempt
// policy is disabled.
type NoopLimiter struct{}

func (NoopLimiter) TooManyAttempts(context.Context, string) (bool, error) { return false, nil }
func (NoopLimiter) RecordFailure(context.Context, string) error           { return nil }
func (NoopLimiter) Reset(context.Context, string) error                   { return nil }

// RedisAttemptLimiter counts failures in Redis with a rolling window
// matching the OTP validity period.
type RedisAttemptLimiter struct {
	client      *redis.Client
	maxAttempts int
	window      time.Duration
}

// NewRedisAttemptLimiter builds the limiter. maxAttempts <= 0 means the
// policy is disabled; callers should use NoopLimiter instead.
func NewRedisAttemptLimiter(client *redis.Client, maxAttempts int, window time.Duration) *RedisAttemptLimiter {
	return &RedisAttemptLimiter{client: client, maxAttempts: maxAttempts, window: window}
}

func (l *RedisAttemptLimiter) key(email string) string {
	return fmt.Sprintf("otp_attempts:%s", email)
}

// TooManyAttempts reports whether the account has exhausted its guesses.
func (l *RedisAttemptLimiter) TooManyAttempts(ctx context.Context, email string) (bool, error) {
	count, err := l.client.Get(ctx, l.key(email)).Int()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return count >= l.maxAttempts, nil
}

// RecordFailure bumps the failure counter, starting the window on the
// first failure.
func (l *RedisAttemptLimiter) RecordFailure(ctx context.Context, email string) error {
	key := l.key(email)
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return err
	}
	if count == 1 {
		return l.client.Expire(ctx, key, l.window).Err()
	}
	return nil
}

// Reset drops the counter after a successful verification.
func (l *RedisAttemptLimiter) Reset(ctx context.Context, email string) error {
	return l.client.Del(ctx, l.key(email)).Err()
}
