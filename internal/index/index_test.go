package index

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/cogito/internal/models"
)

func chunk(id, text string) models.Chunk {
	return models.Chunk{ID: id, Text: text, SourceID: "doc1", FullContent: text}
}

func TestCosineSimilarity_SelfSimilarityIsMaximal(t *testing.T) {
	vectors := [][]float32{
		{1, 0, 0},
		{0.5, 0.5, 0.7071},
		{-3, 4, 12},
	}

	for _, v := range vectors {
		sim := CosineSimilarity(v, v)
		if math.Abs(sim-1.0) > 1e-6 {
			t.Errorf("similarity(v, v) = %v, want 1.0 for %v", sim, v)
		}
	}
}

func TestCosineSimilarity_Symmetric(t *testing.T) {
	a := []float32{0.2, 0.8, -0.1, 0.4}
	b := []float32{0.9, -0.3, 0.5, 0.1}

	assert.InDelta(t, CosineSimilarity(a, b), CosineSimilarity(b, a), 1e-9)
}

func TestCosineSimilarity_ZeroVector(t *testing.T) {
	assert.Equal(t, 0.0, CosineSimilarity([]float32{0, 0}, []float32{1, 1}))
	assert.Equal(t, 0.0, CosineSimilarity([]float32{1, 1}, []float32{0, 0}))
	assert.Equal(t, 0.0, CosineSimilarity([]float32{1, 1}, []float32{1, 1, 1}))
	assert.Equal(t, 0.0, CosineSimilarity(nil, nil))
}

func TestIndex_SearchEmptyReturnsEmpty(t *testing.T) {
	ix := New()

	results := ix.Search([]float32{1, 0}, 5)

	require.NotNil(t, results)
	assert.Empty(t, results)
}

func TestIndex_SearchReturnsMinOfKAndN(t *testing.T) {
	ix := New()
	for i := 0; i < 3; i++ {
		err := ix.Add(chunk(fmt.Sprintf("c%d", i), "text"), []float32{1, float32(i)})
		require.NoError(t, err)
	}

	// N <= K returns exactly N
	assert.Len(t, ix.Search([]float32{1, 0}, 5), 3)

	for i := 3; i < 8; i++ {
		err := ix.Add(chunk(fmt.Sprintf("c%d", i), "text"), []float32{1, float32(i)})
		require.NoError(t, err)
	}

	// N > K returns exactly K
	assert.Len(t, ix.Search([]float32{1, 0}, 5), 5)
}

func TestIndex_SearchSortsByDescendingSimilarity(t *testing.T) {
	ix := New()
	require.NoError(t, ix.Add(chunk("far", "far"), []float32{0, 1}))
	require.NoError(t, ix.Add(chunk("near", "near"), []float32{1, 0.01}))
	require.NoError(t, ix.Add(chunk("mid", "mid"), []float32{1, 1}))

	results := ix.Search([]float32{1, 0}, 3)

	require.Len(t, results, 3)
	assert.Equal(t, "near", results[0].Chunk.ID)
	assert.Equal(t, "mid", results[1].Chunk.ID)
	assert.Equal(t, "far", results[2].Chunk.ID)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
}

func TestIndex_SearchTiesKeepInsertionOrder(t *testing.T) {
	ix := New()
	// Identical vectors: all ties against any query.
	for i := 0; i < 4; i++ {
		require.NoError(t, ix.Add(chunk(fmt.Sprintf("c%d", i), "text"), []float32{1, 1}))
	}

	results := ix.Search([]float32{1, 1}, 4)

	require.Len(t, results, 4)
	for i, res := range results {
		assert.Equal(t, fmt.Sprintf("c%d", i), res.Chunk.ID)
	}
}

func TestIndex_AddRejectsDimensionMismatch(t *testing.T) {
	ix := New()
	require.NoError(t, ix.Add(chunk("a", "a"), []float32{1, 2, 3}))

	err := ix.Add(chunk("b", "b"), []float32{1, 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dimension mismatch")

	// The failed add must not corrupt the existing record.
	assert.Equal(t, 1, ix.Len())
}

func TestIndex_AddRejectsEmptyVector(t *testing.T) {
	ix := New()
	assert.Error(t, ix.Add(chunk("a", "a"), nil))
}

func TestIndex_SnapshotRestoreRoundTrip(t *testing.T) {
	ix := New()
	require.NoError(t, ix.Add(chunk("a", "alpha"), []float32{1, 0}))
	require.NoError(t, ix.Add(chunk("b", "beta"), []float32{0, 1}))

	snap := ix.Snapshot("test")
	assert.Equal(t, 2, len(snap.Records))
	assert.Equal(t, 2, snap.Dimension)
	assert.False(t, snap.SavedAt.IsZero())

	restored := New()
	require.NoError(t, restored.Restore(snap))
	assert.Equal(t, ix.Len(), restored.Len())

	results := restored.Search([]float32{1, 0}, 1)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].Chunk.ID)
}
