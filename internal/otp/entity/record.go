package entity

import "time"

// DefaultCodeTTL is how long an issued code stays verifiable.
const DefaultCodeTTL = 300 * time.Second

// OTPRecord is the single pending code for an (email, purpose) pair.
// CodeHash is a salted one-way digest; the plaintext code is never stored.
type OTPRecord struct {
	ID        int64
	Email     string
	Purpose   string
	CodeHash  string
	CreatedAt time.Time
}

// ExpiresAt returns the instant the record stops being verifiable.
func (r OTPRecord) ExpiresAt(ttl time.Duration) time.Time {
	return r.CreatedAt.Add(ttl)
}

// IsExpired reports whether more than ttl has elapsed since issuance.
// A record checked exactly at CreatedAt+ttl is still live.
func (r OTPRecord) IsExpired(now time.Time, ttl time.Duration) bool {
	return now.Sub(r.CreatedAt) > ttl
}
