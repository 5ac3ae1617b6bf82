package transform

import (
	"bytes"
	"fmt"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/dslipak/pdf"
	"github.com/yuin/goldmark"
)

// MaxDocumentSize caps ingestable documents at 50MB.
const MaxDocumentSize = 50 * 1024 * 1024

// Normalize converts an incoming document to plain text suitable for
// chunking, based on its source type. Unknown types pass through unchanged.
func Normalize(payload string, data []byte, sourceType string) (string, error) {
	if len(payload) > MaxDocumentSize || len(data) > MaxDocumentSize {
		return "", fmt.Errorf("document exceeds size limit of 50MB")
	}

	switch strings.ToLower(sourceType) {
	case "web", "html":
		return HTMLToText(payload)
	case "markdown", "md":
		return MarkdownToText(payload)
	case "pdf":
		return PDFToText(data)
	default:
		return payload, nil
	}
}

// HTMLToText reduces an HTML document to plain text while preserving
// paragraph boundaries (blank lines), which the chunker splits on. The
// conversion goes through markdown so block structure survives, then strips
// the markdown syntax that goldmark re-renders.
func HTMLToText(html string) (string, error) {
	converter := md.NewConverter("", true, nil)
	markdown, err := converter.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("failed to convert HTML: %w", err)
	}
	return MarkdownToText(markdown)
}

// MarkdownToText renders markdown to HTML with goldmark and extracts the
// block-level text, joining blocks with blank lines.
func MarkdownToText(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(&buf)
	if err != nil {
		return "", fmt.Errorf("failed to parse rendered markdown: %w", err)
	}

	var blocks []string
	doc.Find("h1, h2, h3, h4, h5, h6, p, li, pre, blockquote").Each(func(_ int, sel *goquery.Selection) {
		// Skip containers whose text is already captured by a nested block.
		if sel.Is("blockquote") && sel.Find("p").Length() > 0 {
			return
		}
		text := strings.TrimSpace(sel.Text())
		if text != "" {
			blocks = append(blocks, text)
		}
	})

	if len(blocks) == 0 {
		// No recognizable blocks; fall back to the raw document text.
		return strings.TrimSpace(doc.Text()), nil
	}
	return strings.Join(blocks, "\n\n"), nil
}

// PDFToText extracts plain text from a PDF document.
func PDFToText(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty PDF document")
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to read PDF text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("failed to read PDF text: %w", err)
	}
	return buf.String(), nil
}
