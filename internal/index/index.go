package index

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/ternarybob/cogito/internal/models"
)

// Index is an append-only in-memory store of (chunk, embedding) pairs with
// cosine-similarity retrieval. It is owned by a single worker goroutine and
// therefore carries no internal locking.
type Index struct {
	records []models.EmbeddingRecord
	dim     int
}

// New creates an empty index.
func New() *Index {
	return &Index{}
}

// Len returns the number of indexed records.
func (ix *Index) Len() int {
	return len(ix.records)
}

// Chunks returns the indexed chunks in insertion order, without their
// vectors. Used for the ready payload sent to hosts.
func (ix *Index) Chunks() []models.Chunk {
	chunks := make([]models.Chunk, len(ix.records))
	for i, rec := range ix.records {
		chunks[i] = rec.Chunk
	}
	return chunks
}

// Add appends one record. The first record fixes the index dimensionality;
// later records must match it (mixing embeddings from different models in
// one index is never meaningful).
func (ix *Index) Add(chunk models.Chunk, vector []float32) error {
	if len(vector) == 0 {
		return fmt.Errorf("embedding vector is empty")
	}
	if ix.dim == 0 {
		ix.dim = len(vector)
	} else if len(vector) != ix.dim {
		return fmt.Errorf("embedding dimension mismatch: index has %d, got %d", ix.dim, len(vector))
	}

	ix.records = append(ix.records, models.EmbeddingRecord{Chunk: chunk, Vector: vector})
	return nil
}

// Search returns up to k records ranked by descending cosine similarity to
// the query vector. Ties keep insertion order (stable sort). An empty index
// yields an empty result list.
func (ix *Index) Search(query []float32, k int) []models.SearchResult {
	if len(ix.records) == 0 || k <= 0 {
		return []models.SearchResult{}
	}

	results := make([]models.SearchResult, len(ix.records))
	for i, rec := range ix.records {
		results[i] = models.SearchResult{
			Chunk: rec.Chunk,
			Score: CosineSimilarity(query, rec.Vector),
		}
	}

	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Score > results[b].Score
	})

	if k > len(results) {
		k = len(results)
	}
	return results[:k]
}

// Snapshot returns a serializable copy of the index state for the explicit
// persistence boundary.
func (ix *Index) Snapshot(id string) *models.IndexSnapshot {
	records := make([]models.EmbeddingRecord, len(ix.records))
	copy(records, ix.records)
	return &models.IndexSnapshot{
		ID:        id,
		Records:   records,
		Dimension: ix.dim,
		SavedAt:   time.Now(),
	}
}

// Restore replaces the index contents with a snapshot. Returns an error if
// the snapshot's records disagree on dimensionality.
func (ix *Index) Restore(snapshot *models.IndexSnapshot) error {
	restored := New()
	for _, rec := range snapshot.Records {
		if err := restored.Add(rec.Chunk, rec.Vector); err != nil {
			return fmt.Errorf("snapshot record %s: %w", rec.Chunk.ID, err)
		}
	}
	*ix = *restored
	return nil
}

// CosineSimilarity computes dot(a,b) / (|a| * |b|). Zero vectors and
// mismatched lengths yield 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
