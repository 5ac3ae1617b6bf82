package local

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/cogito/internal/common"
	"github.com/ternarybob/cogito/internal/interfaces"
)

// Embedder generates embeddings through a llama-server child process
// running in embedding mode on localhost.
type Embedder struct {
	server  *inferenceServer
	modelID string
	dim     int
	logger  arbor.ILogger
}

type embeddingRequest struct {
	Content string `json:"content"`
}

type embeddingResponse struct {
	Embedding []float32 `json:"embedding"`
}

// NewEmbedder starts a llama-server in embedding mode and waits for it to
// become healthy, reporting load progress along the way.
func NewEmbedder(cfg *common.LlamaConfig, modelID string, report interfaces.ProgressFunc, logger arbor.ILogger) (*Embedder, error) {
	binaryPath, err := findBinary(cfg.BinaryDir, "llama-server", logger)
	if err != nil {
		return nil, fmt.Errorf("llama-server binary not found: %w", err)
	}

	modelPath := filepath.Join(cfg.ModelDir, cfg.EmbedModel)
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("embedding model not found at %s: %w", modelPath, err)
	}

	server := &inferenceServer{
		binaryPath: binaryPath,
		args: []string{
			"-m", modelPath,
			"--embedding",
			"--host", "127.0.0.1",
			"--port", strconv.Itoa(cfg.EmbedPort),
			"-t", strconv.Itoa(cfg.ThreadCount),
			"-ngl", strconv.Itoa(cfg.GPULayers),
			"-b", "4096",
			"-ub", "4096",
			"--log-disable",
		},
		url:    fmt.Sprintf("http://127.0.0.1:%d", cfg.EmbedPort),
		logger: logger,
	}

	if err := server.start(30*time.Second, report); err != nil {
		return nil, fmt.Errorf("failed to start embedding server: %w", err)
	}

	return &Embedder{
		server:  server,
		modelID: modelID,
		logger:  logger,
	}, nil
}

// Embed generates an embedding for the given text. llama-server applies
// mean pooling and normalization server-side, so vectors are directly
// comparable by cosine similarity.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("cannot embed empty text")
	}
	if !e.server.ready {
		return nil, fmt.Errorf("embedding server not ready")
	}

	jsonData, err := json.Marshal(embeddingRequest{Content: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", e.server.url+"/embedding", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := localhostClient(60 * time.Second)
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding server request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embedding server returned status %d: %s", resp.StatusCode, string(body))
	}

	var result embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse embedding response: %w", err)
	}
	if len(result.Embedding) == 0 {
		return nil, fmt.Errorf("embedding vector is empty")
	}

	if e.dim == 0 {
		e.dim = len(result.Embedding)
		e.logger.Debug().Int("dimension", e.dim).Msg("Embedding dimension established")
	}

	return result.Embedding, nil
}

// Dimension returns the embedding dimensionality, 0 until the first
// successful Embed call establishes it.
func (e *Embedder) Dimension() int { return e.dim }

func (e *Embedder) ModelID() string { return e.modelID }

// Close stops the embedding server process.
func (e *Embedder) Close() error {
	return e.server.stop()
}
