package uid

import "github.com/google/uuid"

// UUID generates time-ordered UUIDv7 strings for token IDs and correlation IDs.
type UUID struct {
	newV7 func() (uuid.UUID, error)
}

// NewUUID returns a UUIDv7 generator.
func NewUUID() *UUID {
	return &UUID{newV7: uuid.NewV7}
}

// Generate returns a UUIDv7, or a random UUIDv4 when the v7 source fails.
func (u *UUID) Generate() string {
	if id, err := u.newV7(); err == nil {
		return id.String()
	}
	return uuid.New().String()
}
