package index

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ternarybob/cogito/internal/models"
)

// blankLineRegex splits documents on blank-line boundaries (one or more
// empty or whitespace-only lines).
var blankLineRegex = regexp.MustCompile(`\n\s*\n`)

// Chunker splits documents into indexable chunks. minChars is the minimum
// trimmed length a segment must reach to survive; segments below it are
// discarded as content noise.
type Chunker struct {
	minChars int
}

// NewChunker creates a chunker with the given minimum chunk length.
func NewChunker(minChars int) *Chunker {
	if minChars < 1 {
		minChars = 1
	}
	return &Chunker{minChars: minChars}
}

// Split divides text into chunks for the given source. It first splits on
// blank-line boundaries; if no segment survives the minimum-length filter it
// falls back to splitting on single newlines. Chunk IDs are source-scoped
// and monotonic, continuing from startIdx.
//
// Every returned chunk's text is a verbatim substring of the original text
// and its trimmed length is at least the configured minimum.
func (c *Chunker) Split(text, sourceID, sourceType string, startIdx int) []models.Chunk {
	segments := c.filter(blankLineRegex.Split(text, -1))
	if len(segments) == 0 {
		segments = c.filter(strings.Split(text, "\n"))
	}

	sourceName := sourceID
	if i := strings.LastIndex(sourceID, "/"); i >= 0 && i < len(sourceID)-1 {
		sourceName = sourceID[i+1:]
	}

	chunks := make([]models.Chunk, 0, len(segments))
	for i, seg := range segments {
		chunks = append(chunks, models.Chunk{
			ID:          fmt.Sprintf("%s-%d", sourceID, startIdx+i),
			Text:        seg,
			SourceID:    sourceID,
			SourceName:  sourceName,
			SourceType:  sourceType,
			FullContent: text,
		})
	}
	return chunks
}

func (c *Chunker) filter(segments []string) []string {
	kept := segments[:0:0]
	for _, seg := range segments {
		trimmed := strings.TrimSpace(seg)
		if len(trimmed) >= c.minChars {
			kept = append(kept, trimmed)
		}
	}
	return kept
}
