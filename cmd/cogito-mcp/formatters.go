package main

import (
	"fmt"
	"strings"

	"github.com/ternarybob/cogito/internal/models"
)

// formatSearchResults formats semantic search results as markdown
func formatSearchResults(query string, results []models.SearchResult) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Search Results for \"%s\" (%d results)\n\n", query, len(results)))

	if len(results) == 0 {
		sb.WriteString("No results found. The knowledge base may be empty; add documents first.\n")
		return sb.String()
	}

	for i, result := range results {
		sb.WriteString(fmt.Sprintf("### %d. %s (score %.3f)\n", i+1, result.Chunk.SourceName, result.Score))
		sb.WriteString(fmt.Sprintf("**Chunk:** %s\n\n", result.Chunk.ID))
		sb.WriteString(result.Chunk.Text)
		sb.WriteString("\n\n---\n\n")
	}

	return sb.String()
}

// formatAddResult summarizes an ingest as markdown
func formatAddResult(sourceID string, resp models.Response) string {
	added := 0
	for _, chunk := range resp.KnowledgeBase {
		if chunk.SourceID == sourceID {
			added++
		}
	}

	var sb strings.Builder
	sb.WriteString("## Document Added\n\n")
	sb.WriteString(fmt.Sprintf("**Source:** %s\n", sourceID))
	sb.WriteString(fmt.Sprintf("**Chunks from this source:** %d\n", added))
	sb.WriteString(fmt.Sprintf("**Knowledge base size:** %d chunks\n", resp.Count))
	return sb.String()
}

// formatLabelScores formats a score distribution as a markdown table
func formatLabelScores(title string, scores []models.LabelScore) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## %s\n\n", title))
	sb.WriteString("| Label | Score |\n|-------|-------|\n")
	for _, score := range scores {
		sb.WriteString(fmt.Sprintf("| %s | %.4f |\n", score.Label, score.Score))
	}
	return sb.String()
}
