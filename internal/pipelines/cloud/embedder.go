package cloud

import (
	"bytes"
	"context"
	"fmt"

	"github.com/ternarybob/cogito/internal/transform"
	"google.golang.org/genai"
)

// DefaultEmbedModel is the Gemini embedding model used when the catalog
// names a model the cloud API does not serve.
const DefaultEmbedModel = "text-embedding-004"

// Embedder produces text embeddings through the Gemini embedding API.
type Embedder struct {
	provider *Provider
	modelID  string
	dim      int
}

// NewEmbedder returns a cloud embedder using the given embedding model.
func NewEmbedder(provider *Provider, modelID string) *Embedder {
	return &Embedder{provider: provider, modelID: modelID}
}

// Embed returns the embedding vector for the text. Vectors are used for
// cosine ranking, so no additional normalization is applied.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("cannot embed empty text")
	}

	if err := e.provider.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	client, err := e.provider.getGeminiClient(ctx)
	if err != nil {
		return nil, err
	}

	contents := []*genai.Content{
		genai.NewContentFromText(text, genai.RoleUser),
	}

	resp, err := client.Models.EmbedContent(ctx, e.modelID, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("empty embedding response")
	}

	vec := resp.Embeddings[0].Values
	if e.dim == 0 {
		e.dim = len(vec)
	}
	return vec, nil
}

// Dimension returns the embedding dimensionality, 0 until the first
// successful Embed call establishes it.
func (e *Embedder) Dimension() int { return e.dim }

func (e *Embedder) ModelID() string { return e.modelID }

// Transcribe converts one window of audio to text by sending it to Gemini
// as an inline WAV part.
func (p *Provider) Transcribe(ctx context.Context, samples []float32, sampleRate int) (string, error) {
	if len(samples) == 0 {
		return "", fmt.Errorf("no audio samples provided")
	}

	var wav bytes.Buffer
	if err := transform.EncodeWAV(&wav, samples, sampleRate); err != nil {
		return "", fmt.Errorf("failed to encode audio: %w", err)
	}

	return p.generateContent(ctx, &contentRequest{
		Parts: []*genai.Part{
			genai.NewPartFromBytes(wav.Bytes(), "audio/wav"),
			genai.NewPartFromText("Transcribe this audio verbatim. Reply with the transcript only."),
		},
		Model: "gemini/" + p.geminiConfig.Model,
	})
}
