package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	arbor_models "github.com/ternarybob/arbor/models"
	"github.com/ternarybob/cogito/internal/common"
	"github.com/ternarybob/cogito/internal/pipelines"
	"github.com/ternarybob/cogito/internal/workers"
)

func main() {
	configPath := os.Getenv("COGITO_CONFIG")
	if configPath == "" {
		configPath = "cogito.toml"
	}
	if _, err := os.Stat(configPath); err != nil {
		configPath = ""
	}

	config, err := common.LoadFromFile(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Minimal logging to avoid cluttering MCP stdio
	logger := arbor.NewLogger().WithConsoleWriter(arbor_models.WriterConfiguration{
		Type:             arbor_models.LogWriterTypeConsole,
		TimeFormat:       "15:04:05",
		DisableTimestamp: false,
	}).WithLevelFromString("warn")

	catalog, err := pipelines.LoadCatalog(config.Pipelines.CatalogPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load model catalog")
	}

	factory := pipelines.NewFactory(&config.Pipelines, catalog, logger)
	manager := workers.NewManager(config, factory, logger)
	defer manager.StopAll()

	sess := newSession(manager, logger)

	mcpServer := server.NewMCPServer(
		"cogito",
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTool(createAddDocumentTool(), handleAddDocument(sess, logger))
	mcpServer.AddTool(createSearchKnowledgeTool(), handleSearchKnowledge(sess, logger))
	mcpServer.AddTool(createClassifyTextTool(), handleClassifyText(sess, logger))
	mcpServer.AddTool(createAnalyzeSentimentTool(), handleAnalyzeSentiment(sess, logger))
	mcpServer.AddTool(createGenerateTextTool(), handleGenerateText(sess, logger))

	// Start server (blocks on stdio)
	if err := server.ServeStdio(mcpServer); err != nil {
		logger.Fatal().Err(err).Msg("MCP server failed")
	}
}
