package badger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/cogito/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

func newTestStorage(t *testing.T) *SnapshotStorage {
	t.Helper()

	options := badgerhold.DefaultOptions
	options.Dir = t.TempDir()
	options.ValueDir = options.Dir
	options.Logger = nil

	store, err := badgerhold.Open(options)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	db := &BadgerDB{store: store}
	return &SnapshotStorage{db: db, logger: arbor.NewLogger()}
}

func testSnapshot(id string) *models.IndexSnapshot {
	return &models.IndexSnapshot{
		ID:        id,
		Dimension: 3,
		SavedAt:   time.Now(),
		Records: []models.EmbeddingRecord{
			{
				Chunk:  models.Chunk{ID: "doc-0", Text: "first chunk", SourceID: "doc"},
				Vector: []float32{1, 0, 0},
			},
			{
				Chunk:  models.Chunk{ID: "doc-1", Text: "second chunk", SourceID: "doc"},
				Vector: []float32{0, 1, 0},
			},
		},
	}
}

func TestSnapshotSaveAndLoad(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, storage.SaveSnapshot(ctx, testSnapshot("snap-a")))

	loaded, err := storage.LoadSnapshot(ctx, "snap-a")
	require.NoError(t, err)
	assert.Equal(t, "snap-a", loaded.ID)
	assert.Equal(t, 3, loaded.Dimension)
	require.Len(t, loaded.Records, 2)
	assert.Equal(t, "first chunk", loaded.Records[0].Chunk.Text)
	assert.Equal(t, []float32{0, 1, 0}, loaded.Records[1].Vector)
}

func TestSnapshotSaveReplacesExisting(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, storage.SaveSnapshot(ctx, testSnapshot("snap-a")))

	updated := testSnapshot("snap-a")
	updated.Records = updated.Records[:1]
	require.NoError(t, storage.SaveSnapshot(ctx, updated))

	loaded, err := storage.LoadSnapshot(ctx, "snap-a")
	require.NoError(t, err)
	assert.Len(t, loaded.Records, 1)
}

func TestSnapshotSaveRequiresID(t *testing.T) {
	storage := newTestStorage(t)
	assert.Error(t, storage.SaveSnapshot(context.Background(), &models.IndexSnapshot{}))
}

func TestSnapshotLoadMissing(t *testing.T) {
	storage := newTestStorage(t)
	_, err := storage.LoadSnapshot(context.Background(), "nope")
	assert.Error(t, err)
}

func TestSnapshotListAndDelete(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, storage.SaveSnapshot(ctx, testSnapshot("snap-a")))
	require.NoError(t, storage.SaveSnapshot(ctx, testSnapshot("snap-b")))

	ids, err := storage.ListSnapshots(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"snap-a", "snap-b"}, ids)

	require.NoError(t, storage.DeleteSnapshot(ctx, "snap-a"))
	ids, err = storage.ListSnapshots(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"snap-b"}, ids)

	// Deleting a missing snapshot is a no-op.
	require.NoError(t, storage.DeleteSnapshot(ctx, "snap-a"))
}
