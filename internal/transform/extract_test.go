package transform

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTMLToText_PreservesParagraphBoundaries(t *testing.T) {
	html := `<html><body>
		<h1>Title Here</h1>
		<p>First paragraph with some content in it.</p>
		<p>Second paragraph with different content.</p>
	</body></html>`

	text, err := HTMLToText(html)
	require.NoError(t, err)

	assert.Contains(t, text, "Title Here")
	assert.Contains(t, text, "First paragraph with some content in it.")
	assert.Contains(t, text, "Second paragraph with different content.")
	// Blank-line boundaries must survive so the chunker can split on them.
	assert.Contains(t, text, "\n\n")
	assert.NotContains(t, text, "<p>")
}

func TestMarkdownToText_StripsSyntax(t *testing.T) {
	markdown := "# Heading\n\nSome **bold** prose here.\n\n- item one\n- item two\n"

	text, err := MarkdownToText(markdown)
	require.NoError(t, err)

	assert.Contains(t, text, "Heading")
	assert.Contains(t, text, "Some bold prose here.")
	assert.Contains(t, text, "item one")
	assert.NotContains(t, text, "**")
	assert.NotContains(t, text, "#")
}

func TestNormalize_PassesPlainTextThrough(t *testing.T) {
	doc := "Plain text stays untouched.\n\nIncluding its blank lines."

	for _, sourceType := range []string{"", "text", "reference"} {
		text, err := Normalize(doc, nil, sourceType)
		require.NoError(t, err)
		assert.Equal(t, doc, text)
	}
}

func TestNormalize_RejectsOversizedDocuments(t *testing.T) {
	huge := strings.Repeat("a", MaxDocumentSize+1)

	_, err := Normalize(huge, nil, "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "size limit")
}

func TestPDFToText_RejectsEmptyAndGarbage(t *testing.T) {
	_, err := PDFToText(nil)
	assert.Error(t, err)

	_, err = PDFToText([]byte("not a pdf at all"))
	assert.Error(t, err)
}
