package common

import (
	"github.com/google/uuid"
)

// NewSourceID generates a unique source ID with the "src_" prefix for
// documents added without a caller-supplied identifier.
func NewSourceID() string {
	return "src_" + uuid.New().String()
}

// NewSnapshotID generates a unique snapshot ID with the "snap_" prefix.
func NewSnapshotID() string {
	return "snap_" + uuid.New().String()
}

// NewWorkerID generates a unique worker ID with the "wrk_" prefix.
func NewWorkerID() string {
	return "wrk_" + uuid.New().String()
}
