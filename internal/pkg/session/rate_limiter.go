// internal/pkg/session/rate_limiter.go
package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limits applied by the auth flows.
const (
	loginMaxAttempts = 5
	loginWindow      = 15 * time.Minute

	resetMaxRequests = 3
	resetWindow      = time.Hour

	otpMaxAttempts = 5
	otpWindow      = 10 * time.Minute
)

type RateLimiter struct {
	client *redis.Client
}

func NewRateLimiter(client *redis.Client) *RateLimiter {
	return &RateLimiter{client: client}
}

// hit increments key and reports whether the count is still within max.
func (r *RateLimiter) hit(ctx context.Context, key string, max int64, window time.Duration) (bool, int64, error) {
	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return false, 0, fmt.Errorf("failed to increment %s: %w", key, err)
	}

	// Set expiration on first attempt
	if count == 1 {
		if err := r.client.Expire(ctx, key, window).Err(); err != nil {
			return false, 0, fmt.Errorf("failed to set expiry on %s: %w", key, err)
		}
	}

	remaining := max - count
	if remaining < 0 {
		remaining = 0
	}
	return count <= max, remaining, nil
}

// CheckLoginAttempt allows 5 login attempts per ip+email per 15 minutes
func (r *RateLimiter) CheckLoginAttempt(ctx context.Context, ip, email string) (bool, int64, error) {
	key := fmt.Sprintf("ratelimit:login:%s:%s", ip, strings.ToLower(email))
	return r.hit(ctx, key, loginMaxAttempts, loginWindow)
}

// ResetLoginAttempts resets the login attempt counter
func (r *RateLimiter) ResetLoginAttempts(ctx context.Context, ip, email string) error {
	key := fmt.Sprintf("ratelimit:login:%s:%s", ip, strings.ToLower(email))
	return r.client.Del(ctx, key).Err()
}

// CheckPasswordResetAttempt allows 3 reset requests per email per hour
func (r *RateLimiter) CheckPasswordResetAttempt(ctx context.Context, email string) (bool, error) {
	key := fmt.Sprintf("ratelimit:password_reset:%s", strings.ToLower(email))
	ok, _, err := r.hit(ctx, key, resetMaxRequests, resetWindow)
	return ok, err
}

// CheckOTPAttempt allows 5 OTP verifications per user per 10 minutes
func (r *RateLimiter) CheckOTPAttempt(ctx context.Context, userID int64) (bool, error) {
	key := fmt.Sprintf("ratelimit:otp:%d", userID)
	ok, _, err := r.hit(ctx, key, otpMaxAttempts, otpWindow)
	return ok, err
}

// ResetOTPAttempts resets OTP attempts
func (r *RateLimiter) ResetOTPAttempts(ctx context.Context, userID int64) error {
	key := fmt.Sprintf("ratelimit:otp:%d", userID)
	return r.client.Del(ctx, key).Err()
}
