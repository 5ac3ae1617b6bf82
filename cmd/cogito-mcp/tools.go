package main

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// createAddDocumentTool returns the add_document tool definition
func createAddDocumentTool() mcp.Tool {
	return mcp.NewTool("add_document",
		mcp.WithDescription("Add a document to the Cogito semantic knowledge base. The document is chunked on blank lines and embedded for similarity search."),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Document text to ingest"),
		),
		mcp.WithString("source_id",
			mcp.Description("Source identifier (generated when omitted)"),
		),
		mcp.WithString("source_type",
			mcp.Description("Content type: text, html, markdown, reference"),
		),
	)
}

// createSearchKnowledgeTool returns the search_knowledge tool definition
func createSearchKnowledgeTool() mcp.Tool {
	return mcp.NewTool("search_knowledge",
		mcp.WithDescription("Search the Cogito knowledge base by semantic similarity (cosine over embeddings, top 5)"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Natural language search query"),
		),
	)
}

// createClassifyTextTool returns the classify_text tool definition
func createClassifyTextTool() mcp.Tool {
	return mcp.NewTool("classify_text",
		mcp.WithDescription("Classify text against caller-supplied candidate labels (zero-shot, multi-label)"),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Text to classify"),
		),
		mcp.WithArray("labels",
			mcp.WithStringItems(),
			mcp.Required(),
			mcp.Description("Candidate labels to score"),
		),
	)
}

// createAnalyzeSentimentTool returns the analyze_sentiment tool definition
func createAnalyzeSentimentTool() mcp.Tool {
	return mcp.NewTool("analyze_sentiment",
		mcp.WithDescription("Return the sentiment distribution (positive/neutral/negative) of a text"),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Text to analyze"),
		),
	)
}

// createGenerateTextTool returns the generate_text tool definition
func createGenerateTextTool() mcp.Tool {
	return mcp.NewTool("generate_text",
		mcp.WithDescription("Generate a short continuation of the given text"),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Context text to continue"),
		),
	)
}
