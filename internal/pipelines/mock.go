package pipelines

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"sort"
	"strings"

	"github.com/ternarybob/cogito/internal/models"
)

// Mock pipelines produce deterministic, inference-free results. They back
// the "mock" pipeline mode used in tests and development, the same way the
// reference runtime offers a mock offline service.

const mockEmbeddingDim = 384

// MockEmbedder derives a stable pseudo-embedding from the text content.
// Identical texts map to identical vectors, so cosine ranking behaves
// consistently; texts sharing words produce correlated vectors.
type MockEmbedder struct {
	modelID string
}

func NewMockEmbedder(modelID string) *MockEmbedder {
	return &MockEmbedder{modelID: modelID}
}

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("cannot embed empty text")
	}

	// Bag-of-words hashing: each token bumps a few hashed dimensions, then
	// the vector is L2-normalized to match real embedding output.
	vec := make([]float32, mockEmbeddingDim)
	for _, token := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(token))
		seed := h.Sum32()
		for i := 0; i < 3; i++ {
			idx := int(seed>>(i*8)) % mockEmbeddingDim
			vec[idx] += 1
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		vec[0] = 1
		norm = 1
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec, nil
}

func (m *MockEmbedder) Dimension() int  { return mockEmbeddingDim }
func (m *MockEmbedder) ModelID() string { return m.modelID }

// MockGenerator echoes the prompt followed by a canned continuation,
// imitating a causal model's raw output so callers must strip the prefix.
type MockGenerator struct{}

func NewMockGenerator() *MockGenerator { return &MockGenerator{} }

func (m *MockGenerator) Generate(ctx context.Context, text string) (string, error) {
	return text + " and so it goes", nil
}

// MockZeroShotClassifier scores labels by crude token overlap with the
// text, normalized into (0,1), sorted descending.
type MockZeroShotClassifier struct{}

func NewMockZeroShotClassifier() *MockZeroShotClassifier { return &MockZeroShotClassifier{} }

func (m *MockZeroShotClassifier) Classify(ctx context.Context, text string, labels []string) ([]models.LabelScore, error) {
	words := map[string]bool{}
	for _, w := range strings.Fields(strings.ToLower(text)) {
		words[w] = true
	}

	scores := make([]models.LabelScore, 0, len(labels))
	for _, label := range labels {
		overlap := 0
		for _, w := range strings.Fields(strings.ToLower(label)) {
			if words[w] {
				overlap++
			}
		}
		// Baseline 0.05 keeps scores strictly inside [0,1] and non-zero.
		score := 0.05 + 0.9*float64(overlap)/float64(len(words)+1)
		if score > 1 {
			score = 1
		}
		scores = append(scores, models.LabelScore{Label: label, Score: score})
	}

	sortLabelScores(scores)
	return scores, nil
}

// MockSentimentAnalyzer returns a fixed three-class distribution biased by
// a few obvious cue words.
type MockSentimentAnalyzer struct{}

func NewMockSentimentAnalyzer() *MockSentimentAnalyzer { return &MockSentimentAnalyzer{} }

func (m *MockSentimentAnalyzer) Analyze(ctx context.Context, text string) ([]models.LabelScore, error) {
	lower := strings.ToLower(text)
	scores := []models.LabelScore{
		{Label: "positive", Score: 0.2},
		{Label: "neutral", Score: 0.6},
		{Label: "negative", Score: 0.2},
	}
	switch {
	case strings.Contains(lower, "love") || strings.Contains(lower, "great"):
		scores = []models.LabelScore{
			{Label: "positive", Score: 0.85},
			{Label: "neutral", Score: 0.1},
			{Label: "negative", Score: 0.05},
		}
	case strings.Contains(lower, "hate") || strings.Contains(lower, "awful"):
		scores = []models.LabelScore{
			{Label: "negative", Score: 0.85},
			{Label: "neutral", Score: 0.1},
			{Label: "positive", Score: 0.05},
		}
	}
	return scores, nil
}

// MockObjectDetector returns one detection covering the image center when
// the threshold allows it.
type MockObjectDetector struct{}

func NewMockObjectDetector() *MockObjectDetector { return &MockObjectDetector{} }

func (m *MockObjectDetector) Detect(ctx context.Context, payload *models.DetectPayload, threshold float64) ([]models.Detection, error) {
	det := models.Detection{
		Label: "object",
		Score: 0.9,
		Box: models.Box{
			XMin: payload.Width / 4,
			YMin: payload.Height / 4,
			XMax: payload.Width * 3 / 4,
			YMax: payload.Height * 3 / 4,
		},
	}
	if det.Score < threshold {
		return []models.Detection{}, nil
	}
	return []models.Detection{det}, nil
}

// MockTranscriber returns "you" for silent windows, exercising the
// hallucination filter, and a fixed phrase otherwise.
type MockTranscriber struct{}

func NewMockTranscriber() *MockTranscriber { return &MockTranscriber{} }

func (m *MockTranscriber) Transcribe(ctx context.Context, samples []float32, sampleRate int) (string, error) {
	silent := true
	for _, s := range samples {
		if s != 0 {
			silent = false
			break
		}
	}
	if silent {
		// Mimics the known single-token hallucination on silence.
		return "you", nil
	}
	return "hello world", nil
}

func sortLabelScores(scores []models.LabelScore) {
	sort.SliceStable(scores, func(a, b int) bool {
		return scores[a].Score > scores[b].Score
	})
}
