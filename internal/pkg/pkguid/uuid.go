package pkguid

import "github.com/google/uuid"

// UUID generates random (version 4) UUID strings.
type UUID struct{}

// NewUUID returns a UUID generator.
func NewUUID() *UUID {
	return &UUID{}
}

// Generate returns a new UUID string. Each call is independent of every
// previous one, so the value is safe to use as a per-request correlation ID.
func (u *UUID) Generate() string {
	return uuid.NewString()
}
