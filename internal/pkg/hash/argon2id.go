package hash

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2idParams tunes the Argon2id cost. Zero fields fall back to defaults.
type Argon2idParams struct {
	// Memory is the memory cost in KiB.
	Memory uint32
	// Iterations is the time cost.
	Iterations uint32
	// Parallelism is the number of threads.
	Parallelism uint8
	// MaxConcurrent bounds simultaneous hash computations; 0 disables the limiter.
	MaxConcurrent int
	// Pepper is appended to the plaintext and kept out of the stored digest.
	Pepper string
}

// Argon2id implements the Hash interface using Argon2id.
type Argon2id struct {
	memory      uint32
	iterations  uint32
	parallelism uint8
	saltLength  uint32
	keyLength   uint32
	sema        chan struct{}
	pepper      string
}

// NewArgon2id returns a Argon2id hasher with recommended defaults.
func NewArgon2id(pepper string) *Argon2id {
	return NewArgon2idWithParams(Argon2idParams{Pepper: pepper})
}

// NewArgon2idWithParams returns a Argon2id hasher with the given cost.
func NewArgon2idWithParams(p Argon2idParams) *Argon2id {
	a := &Argon2id{
		memory:      32 * 1024, // 32MB
		iterations:  3,
		parallelism: 2,
		saltLength:  16,
		keyLength:   32,
		pepper:      p.Pepper,
	}
	if p.Memory > 0 {
		a.memory = p.Memory
	}
	if p.Iterations > 0 {
		a.iterations = p.Iterations
	}
	if p.Parallelism > 0 {
		a.parallelism = p.Parallelism
	}
	if p.MaxConcurrent > 0 {
		a.sema = make(chan struct{}, p.MaxConcurrent)
	}

	return a
}

func (a *Argon2id) acquire() func() {
	if a.sema == nil {
		return func() {}
	}
	a.sema <- struct{}{}
	return func() { <-a.sema }
}

// Hash takes a plaintext string and returns its PHC-encoded hash.
func (a *Argon2id) Hash(str string) ([]byte, error) {
	salt := make([]byte, a.saltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	release := a.acquire()
	hash := argon2.IDKey([]byte(str+a.pepper), salt, a.iterations, a.memory, a.parallelism, a.keyLength)
	release()

	encoded := fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		a.memory,
		a.iterations,
		a.parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	)

	return []byte(encoded), nil
}

// Verify checks if the given plaintext string matches the hashed value.
// Parameters are read from the encoded hash, so digests made with an older
// cost still verify after a config change.
func (a *Argon2id) Verify(hashed, str string) bool {
	if hashed == "" || str == "" {
		return false
	}

	parts := strings.Split(hashed, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false
	}

	var memory, iterations uint32
	var parallelism uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism); err != nil {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}

	expectedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(expectedHash) == 0 {
		return false
	}

	release := a.acquire()
	computedHash := argon2.IDKey([]byte(str+a.pepper), salt, iterations, memory, parallelism, uint32(len(expectedHash)))
	release()

	return subtle.ConstantTimeCompare(expectedHash, computedHash) == 1
}
