package uuidx

import (
	"time"

	"github.com/google/uuid"
)

// New generates a new UUID using the version 7 format and returns it.
// It panics if the UUID generation fails.
func New() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}

// Time returns the unix millisecond timestamp embedded in a version 7 UUID.
// For any other version it returns the zero time.
//
// Parameters:
//   - id: The UUID to read the timestamp from.
//
// Returns:
//   - time.Time: The creation time encoded in the first 48 bits of id, in UTC.
func Time(id uuid.UUID) time.Time {
	if id.Version() != 7 {
		return time.Time{}
	}
	sec, nsec := id.Time().UnixTime()
	return time.Unix(sec, nsec).UTC()
}
