package main

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/cogito/internal/common"
	"github.com/ternarybob/cogito/internal/interfaces"
	"github.com/ternarybob/cogito/internal/models"
)

func textError(format string, args ...interface{}) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(fmt.Sprintf(format, args...)),
		},
	}
}

func textResult(markdown string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(markdown),
		},
	}
}

// handleAddDocument implements the add_document tool
func handleAddDocument(s *session, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := request.RequireString("text")
		if err != nil || text == "" {
			return textError("Error: text parameter is required"), nil
		}

		sourceID := request.GetString("source_id", "")
		if sourceID == "" {
			sourceID = common.NewSourceID()
		}

		resp, err := s.call(ctx, interfaces.TaskEmbedding, models.Request{
			Type: models.RequestAdd,
			Add: &models.AddPayload{
				Text:       text,
				SourceID:   sourceID,
				SourceType: request.GetString("source_type", ""),
			},
		})
		if err != nil {
			logger.Error().Err(err).Msg("Add document failed")
			return textError("Add error: %v", err), nil
		}

		return textResult(formatAddResult(sourceID, resp)), nil
	}
}

// handleSearchKnowledge implements the search_knowledge tool
func handleSearchKnowledge(s *session, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := request.RequireString("query")
		if err != nil || query == "" {
			return textError("Error: query parameter is required"), nil
		}

		resp, err := s.call(ctx, interfaces.TaskEmbedding, models.Request{
			Type:   models.RequestSearch,
			Search: &models.SearchPayload{Query: query},
		})
		if err != nil {
			logger.Error().Err(err).Msg("Search failed")
			return textError("Search error: %v", err), nil
		}

		return textResult(formatSearchResults(query, resp.Results)), nil
	}
}

// handleClassifyText implements the classify_text tool
func handleClassifyText(s *session, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := request.RequireString("text")
		if err != nil || text == "" {
			return textError("Error: text parameter is required"), nil
		}

		labels := request.GetStringSlice("labels", nil)
		if len(labels) == 0 {
			return textError("Error: labels parameter is required"), nil
		}

		resp, err := s.call(ctx, interfaces.TaskClassification, models.Request{
			Type:     models.RequestClassify,
			Classify: &models.ClassifyPayload{Text: text, Labels: labels},
		})
		if err != nil {
			logger.Error().Err(err).Msg("Classification failed")
			return textError("Classification error: %v", err), nil
		}

		return textResult(formatLabelScores("Classification", resp.Classification)), nil
	}
}

// handleAnalyzeSentiment implements the analyze_sentiment tool
func handleAnalyzeSentiment(s *session, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := request.RequireString("text")
		if err != nil || text == "" {
			return textError("Error: text parameter is required"), nil
		}

		resp, err := s.call(ctx, interfaces.TaskSentiment, models.Request{
			Type:      models.RequestSentiment,
			Sentiment: &models.SentimentPayload{Text: text},
		})
		if err != nil {
			logger.Error().Err(err).Msg("Sentiment analysis failed")
			return textError("Sentiment error: %v", err), nil
		}

		return textResult(formatLabelScores("Sentiment", resp.Sentiment)), nil
	}
}

// handleGenerateText implements the generate_text tool
func handleGenerateText(s *session, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := request.RequireString("text")
		if err != nil || text == "" {
			return textError("Error: text parameter is required"), nil
		}

		resp, err := s.call(ctx, interfaces.TaskGeneration, models.Request{
			Type:     models.RequestGenerate,
			Generate: &models.GeneratePayload{Text: text},
		})
		if err != nil {
			logger.Error().Err(err).Msg("Generation failed")
			return textError("Generation error: %v", err), nil
		}

		return textResult(resp.Prediction), nil
	}
}
