package hash

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// DriverArgon2id selects Argon2id.
	DriverArgon2id = "argon2id"
	// DriverBcrypt selects bcrypt.
	DriverBcrypt = "bcrypt"
)

// ErrUnknownDriver indicates an unsupported hash driver.
var ErrUnknownDriver = errors.New("hash: unknown driver")

// Hash produces a salted one-way digest and verifies plaintext against it.
type Hash interface {
	// Hash returns the encoded digest of str.
	Hash(str string) ([]byte, error)
	// Verify reports whether str matches the encoded digest.
	Verify(hashed, str string) bool
}

// FactoryOptions groups config for the slow hash drivers.
type FactoryOptions struct {
	Argon2id Argon2idParams
	Bcrypt   BcryptParams
}

// BcryptParams configures the bcrypt driver.
type BcryptParams struct {
	Cost   int
	Pepper string
}

// NewFromDriver constructs a slow, salted Hash by driver name.
func NewFromDriver(driver string, opts FactoryOptions) (Hash, error) {
	switch strings.TrimSpace(driver) {
	case DriverArgon2id, "":
		return NewArgon2idWithParams(opts.Argon2id), nil
	case DriverBcrypt:
		return NewBcrypt(opts.Bcrypt.Cost, opts.Bcrypt.Pepper), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, driver)
	}
}
