package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/cogito/internal/interfaces"
	"github.com/ternarybob/cogito/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// SnapshotStorage implements the IndexSnapshotStorage interface for Badger.
// It is the only persistence path for the semantic index; workers keep their
// indexes in memory and cross this boundary explicitly.
type SnapshotStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewSnapshotStorage creates a new SnapshotStorage instance
func NewSnapshotStorage(db *BadgerDB, logger arbor.ILogger) interfaces.IndexSnapshotStorage {
	return &SnapshotStorage{
		db:     db,
		logger: logger,
	}
}

// SaveSnapshot inserts or replaces a snapshot by ID.
func (s *SnapshotStorage) SaveSnapshot(ctx context.Context, snapshot *models.IndexSnapshot) error {
	if snapshot.ID == "" {
		return fmt.Errorf("snapshot ID is required")
	}

	if err := s.db.Store().Upsert(snapshot.ID, snapshot); err != nil {
		return fmt.Errorf("failed to save snapshot %s: %w", snapshot.ID, err)
	}

	s.logger.Debug().
		Str("snapshot_id", snapshot.ID).
		Int("records", len(snapshot.Records)).
		Msg("Snapshot saved")
	return nil
}

// LoadSnapshot retrieves a snapshot by ID.
func (s *SnapshotStorage) LoadSnapshot(ctx context.Context, id string) (*models.IndexSnapshot, error) {
	var snapshot models.IndexSnapshot
	err := s.db.Store().Get(id, &snapshot)
	if err == badgerhold.ErrNotFound {
		return nil, fmt.Errorf("snapshot %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot %s: %w", id, err)
	}
	return &snapshot, nil
}

// ListSnapshots returns the IDs of all stored snapshots.
func (s *SnapshotStorage) ListSnapshots(ctx context.Context) ([]string, error) {
	var snapshots []models.IndexSnapshot
	if err := s.db.Store().Find(&snapshots, nil); err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	ids := make([]string, len(snapshots))
	for i, snapshot := range snapshots {
		ids[i] = snapshot.ID
	}
	return ids, nil
}

// DeleteSnapshot removes a snapshot by ID. Deleting a missing snapshot is
// not an error.
func (s *SnapshotStorage) DeleteSnapshot(ctx context.Context, id string) error {
	err := s.db.Store().Delete(id, models.IndexSnapshot{})
	if err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete snapshot %s: %w", id, err)
	}
	return nil
}
