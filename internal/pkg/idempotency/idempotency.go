// Package idempotency records keys that may be claimed at most once within a
// retention window. The OTP module uses it to make verification tokens single use.
package idempotency

import (
	"context"
	"errors"
	"time"
)

// ErrInvalidKey is returned for an empty key.
var ErrInvalidKey = errors.New("idempotency: key is required")

// Ledger claims keys exactly once.
type Ledger interface {
	// Claim marks key as used for ttl. It returns false when the key was
	// already claimed and has not yet been forgotten.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

const defaultClaimTTL = time.Minute

func normalizeTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return defaultClaimTTL
	}
	return ttl
}
