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

// Generator produces short text continuations through a llama-server child
// process in completion mode.
type Generator struct {
	server       *inferenceServer
	maxNewTokens int
	temperature  float32
	logger       arbor.ILogger
}

type completionRequest struct {
	Prompt        string  `json:"prompt"`
	NPredict      int     `json:"n_predict"`
	Temperature   float32 `json:"temperature"`
	TopK          int     `json:"top_k"`
	RepeatPenalty float32 `json:"repeat_penalty"`
	Stream        bool    `json:"stream"`
}

type completionResponse struct {
	Content string `json:"content"`
}

// NewGenerator starts a llama-server in completion mode.
func NewGenerator(cfg *common.LlamaConfig, llm *common.LLMConfig, report interfaces.ProgressFunc, logger arbor.ILogger) (*Generator, error) {
	binaryPath, err := findBinary(cfg.BinaryDir, "llama-server", logger)
	if err != nil {
		return nil, fmt.Errorf("llama-server binary not found: %w", err)
	}

	modelPath := filepath.Join(cfg.ModelDir, cfg.ChatModel)
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("completion model not found at %s: %w", modelPath, err)
	}

	server := &inferenceServer{
		binaryPath: binaryPath,
		args: []string{
			"-m", modelPath,
			"--host", "127.0.0.1",
			"--port", strconv.Itoa(cfg.ChatPort),
			"-c", strconv.Itoa(cfg.ContextSize),
			"-t", strconv.Itoa(cfg.ThreadCount),
			"-ngl", strconv.Itoa(cfg.GPULayers),
			"-b", "2048",
			"--log-disable",
		},
		url:    fmt.Sprintf("http://127.0.0.1:%d", cfg.ChatPort),
		logger: logger,
	}

	if err := server.start(60*time.Second, report); err != nil {
		return nil, fmt.Errorf("failed to start completion server: %w", err)
	}

	return &Generator{
		server:       server,
		maxNewTokens: llm.MaxNewTokens,
		temperature:  llm.Temperature,
		logger:       logger,
	}, nil
}

// Generate returns a short continuation of the context text. llama-server's
// /completion endpoint returns only new tokens, but the result is still
// prefix-checked by the caller in case a model template echoes the prompt.
func (g *Generator) Generate(ctx context.Context, text string) (string, error) {
	if !g.server.ready {
		return "", fmt.Errorf("completion server not ready")
	}

	jsonData, err := json.Marshal(completionRequest{
		Prompt:        text,
		NPredict:      g.maxNewTokens,
		Temperature:   g.temperature,
		TopK:          5,
		RepeatPenalty: 1.2,
		Stream:        false,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", g.server.url+"/completion", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := localhostClient(120 * time.Second)
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion server request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("completion server returned status %d: %s", resp.StatusCode, string(body))
	}

	var result completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to parse completion response: %w", err)
	}

	return result.Content, nil
}

// Close stops the completion server process.
func (g *Generator) Close() error {
	return g.server.stop()
}
