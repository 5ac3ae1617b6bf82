package index

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunker_SplitsOnBlankLines(t *testing.T) {
	doc := "Alpha beta gamma delta epsilon one.\n\nZeta eta theta iota kappa lambda two."
	chunker := NewChunker(10)

	chunks := chunker.Split(doc, "doc1", "text", 0)

	require.Len(t, chunks, 2)
	assert.Equal(t, "Alpha beta gamma delta epsilon one.", chunks[0].Text)
	assert.Equal(t, "Zeta eta theta iota kappa lambda two.", chunks[1].Text)
	for _, c := range chunks {
		assert.Less(t, len(c.Text), len(doc))
		assert.True(t, strings.Contains(doc, c.Text), "chunk text must be a verbatim substring of the document")
		assert.Equal(t, doc, c.FullContent)
		assert.Equal(t, "doc1", c.SourceID)
	}
}

func TestChunker_NoBlankLinesYieldsSingleChunk(t *testing.T) {
	doc := "this single line is comfortably longer than the threshold\nanother line that also clears the configured minimum easily"
	chunker := NewChunker(30)

	chunks := chunker.Split(doc, "doc2", "text", 0)

	// No blank-line boundary: the whole document is one surviving segment.
	require.Len(t, chunks, 1)
	assert.Equal(t, doc, chunks[0].Text)
}

func TestChunker_AllSegmentsTooShortYieldsNothing(t *testing.T) {
	doc := "short\n\ntiny\n\nminuscule"
	chunker := NewChunker(30)

	assert.Empty(t, chunker.Split(doc, "doc2", "text", 0))
}

func TestChunker_DiscardsShortSegments(t *testing.T) {
	doc := "ok\n\nThis paragraph is long enough to be kept by the chunker filter.\n\nno"
	chunker := NewChunker(30)

	chunks := chunker.Split(doc, "doc3", "text", 0)

	require.Len(t, chunks, 1)
	for _, c := range chunks {
		assert.GreaterOrEqual(t, len(strings.TrimSpace(c.Text)), 30)
		assert.NotEmpty(t, strings.TrimSpace(c.Text))
	}
}

func TestChunker_IDsAreSourceScopedAndMonotonic(t *testing.T) {
	doc := "First paragraph with plenty of characters inside.\n\nSecond paragraph with plenty of characters too."
	chunker := NewChunker(10)

	first := chunker.Split(doc, "doc4", "text", 0)
	second := chunker.Split(doc, "doc4", "text", len(first))

	require.Len(t, first, 2)
	require.Len(t, second, 2)
	assert.Equal(t, "doc4-0", first[0].ID)
	assert.Equal(t, "doc4-1", first[1].ID)
	assert.Equal(t, "doc4-2", second[0].ID)
	assert.Equal(t, "doc4-3", second[1].ID)
}

func TestChunker_SourceNameFromURL(t *testing.T) {
	doc := "A paragraph that is long enough to survive the minimum filter."
	chunker := NewChunker(10)

	chunks := chunker.Split(doc, "https://example.com/books/moby-dick.txt", "web", 0)

	require.Len(t, chunks, 1)
	assert.Equal(t, "moby-dick.txt", chunks[0].SourceName)
	assert.Equal(t, "web", chunks[0].SourceType)
}
