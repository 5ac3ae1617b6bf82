package models

import "time"

// Chunk is the atomic unit of indexing and retrieval: a bounded span of a
// source document. Chunks are immutable once created.
//
// Invariant: Text is a verbatim substring of FullContent.
type Chunk struct {
	ID          string `json:"id"`
	Text        string `json:"text"`
	SourceID    string `json:"source_id"`
	SourceName  string `json:"source_name"`
	SourceType  string `json:"source_type"`
	FullContent string `json:"full_content,omitempty"`
}

// EmbeddingRecord pairs a chunk with its embedding vector.
//
// Invariant: vector dimensionality is constant across all records of one
// index (fixed by the embedding model for the worker's lifetime).
type EmbeddingRecord struct {
	Chunk  Chunk     `json:"chunk"`
	Vector []float32 `json:"vector"`
}

// SearchResult is one ranked hit from a semantic search.
type SearchResult struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}

// IndexSnapshot is the serialized form of a semantic index, stored through
// the explicit snapshot boundary.
type IndexSnapshot struct {
	ID        string            `json:"id" badgerhold:"key"`
	Records   []EmbeddingRecord `json:"records"`
	Dimension int               `json:"dimension"`
	SavedAt   time.Time         `json:"saved_at"`
}
