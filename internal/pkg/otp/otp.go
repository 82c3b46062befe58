// Package otp generates one-time numeric codes and keeps them in a TTL-backed store.
package otp

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"time"
)

// CodeLength is the number of digits in a generated code.
const CodeLength = 6

var (
	// ErrUnavailable is returned when the backing cache cannot be reached.
	ErrUnavailable = errors.New("otp store unavailable")
	// ErrNotFound is returned when no code is stored or it has expired.
	ErrNotFound = errors.New("otp not found or expired")
)

// Store keeps codes keyed by an opaque string until their TTL passes.
type Store interface {
	Set(ctx context.Context, key, code string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

// Generate returns a zero-padded random numeric code.
func Generate() (string, error) {
	limit := big.NewInt(1_000_000)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", fmt.Errorf("failed to generate otp: %w", err)
	}
	return fmt.Sprintf("%0*d", CodeLength, n.Int64()), nil
}

// Matches compares codes in constant time.
func Matches(stored, submitted string) bool {
	if len(stored) != len(submitted) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(submitted)) == 1
}

// ResetKey is the store key for a user's password-reset code.
func ResetKey(userID int64) string {
	return fmt.Sprintf("otp:reset:%d", userID)
}
