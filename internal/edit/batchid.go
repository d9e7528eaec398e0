package edit

import "github.com/google/uuid"

// BatchIDGenerator generates the id stamped on each Report and log line of
// a batch. Implemented by UUIDv7Generator (production) and
// testutil.FixedBatchIDGenerator (tests).
type BatchIDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 batch ids.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (g UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}
