package common

import (
	"time"

	"github.com/google/uuid"
)

// NewRunID generates a unique suite run ID.
// Format: <yyyymmdd-hhmmss>_<first 8 chars of a uuid>, so run directories sort by start time.
func NewRunID(now time.Time) string {
	return now.Format("20060102-150405") + "_" + uuid.New().String()[:8]
}
