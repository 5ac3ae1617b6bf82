package local

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/cogito/internal/common"
	"github.com/ternarybob/cogito/internal/interfaces"
	"github.com/ternarybob/cogito/internal/transform"
)

// Transcriber converts speech to text through a whisper-server child
// process on localhost. One call transcribes one audio window; windowing of
// long audio is handled by the voice worker.
type Transcriber struct {
	server *inferenceServer
	logger arbor.ILogger
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

// NewTranscriber starts a whisper-server and waits for it to become healthy.
func NewTranscriber(cfg *common.LocalServer, report interfaces.ProgressFunc, logger arbor.ILogger) (*Transcriber, error) {
	binaryPath, err := findBinary(cfg.BinaryDir, "whisper-server", logger)
	if err != nil {
		return nil, fmt.Errorf("whisper-server binary not found: %w", err)
	}

	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("whisper model not found at %s: %w", cfg.ModelPath, err)
	}

	server := &inferenceServer{
		binaryPath: binaryPath,
		args: []string{
			"-m", cfg.ModelPath,
			"--host", "127.0.0.1",
			"--port", strconv.Itoa(cfg.Port),
		},
		url:    fmt.Sprintf("http://127.0.0.1:%d", cfg.Port),
		logger: logger,
	}

	if err := server.start(30*time.Second, report); err != nil {
		return nil, fmt.Errorf("failed to start whisper server: %w", err)
	}

	return &Transcriber{server: server, logger: logger}, nil
}

// Transcribe sends one window of mono float32 PCM samples to the server as
// a WAV upload and returns the transcript text.
func (t *Transcriber) Transcribe(ctx context.Context, samples []float32, sampleRate int) (string, error) {
	if !t.server.ready {
		return "", fmt.Errorf("whisper server not ready")
	}
	if len(samples) == 0 {
		return "", fmt.Errorf("no audio samples provided")
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "audio.wav")
	if err != nil {
		return "", fmt.Errorf("failed to build upload: %w", err)
	}
	if err := transform.EncodeWAV(part, samples, sampleRate); err != nil {
		return "", fmt.Errorf("failed to encode audio: %w", err)
	}
	if err := writer.WriteField("response_format", "json"); err != nil {
		return "", fmt.Errorf("failed to build upload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to build upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", t.server.url+"/inference", &body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	client := localhostClient(240 * time.Second)
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("whisper server request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("whisper server returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var result transcriptionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to parse transcription response: %w", err)
	}

	return result.Text, nil
}

// Close stops the whisper server process.
func (t *Transcriber) Close() error {
	return t.server.stop()
}
