package cloud

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/ternarybob/cogito/internal/models"
	"google.golang.org/genai"
)

// Task pipelines backed by the cloud provider. Generation goes to the
// configured default provider; classification, sentiment, and detection use
// Gemini structured output so responses parse deterministically.

const maxImageFetchSize = 20 * 1024 * 1024

var labelScoreSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type:     genai.TypeObject,
		Required: []string{"label", "score"},
		Properties: map[string]*genai.Schema{
			"label": {Type: genai.TypeString},
			"score": {Type: genai.TypeNumber, Description: "Probability in [0,1]"},
		},
	},
}

var detectionSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type:     genai.TypeObject,
		Required: []string{"label", "score", "box_2d"},
		Properties: map[string]*genai.Schema{
			"label": {Type: genai.TypeString},
			"score": {Type: genai.TypeNumber, Description: "Confidence in [0,1]"},
			"box_2d": {
				Type:        genai.TypeArray,
				Description: "Bounding box as [ymin, xmin, ymax, xmax], normalized to 0-1000",
				Items:       &genai.Schema{Type: genai.TypeInteger},
			},
		},
	},
}

// Generate returns a short continuation of the context text.
func (p *Provider) Generate(ctx context.Context, text string) (string, error) {
	return p.generateContent(ctx, &contentRequest{
		Parts:             []*genai.Part{genai.NewPartFromText(text)},
		Temperature:       p.llmConfig.Temperature,
		MaxTokens:         p.llmConfig.MaxNewTokens,
		SystemInstruction: "Continue the given text. Reply with the continuation only, without repeating the input.",
	})
}

// Classify scores each candidate label against the text independently.
func (p *Provider) Classify(ctx context.Context, text string, labels []string) ([]models.LabelScore, error) {
	prompt := fmt.Sprintf("Text:\n%s\n\nCandidate labels: %s", text, strings.Join(labels, ", "))

	raw, err := p.generateContent(ctx, &contentRequest{
		Parts: []*genai.Part{genai.NewPartFromText(prompt)},
		Model: "gemini/" + p.geminiConfig.Model,
		SystemInstruction: "Score how well each candidate label applies to the text. " +
			"Score every label independently as a probability in [0,1]; scores need not sum to 1. " +
			"Return one entry per candidate label.",
		OutputSchema: labelScoreSchema,
	})
	if err != nil {
		return nil, err
	}

	scores, err := parseLabelScores(raw)
	if err != nil {
		return nil, err
	}
	if len(scores) != len(labels) {
		return nil, fmt.Errorf("classifier returned %d scores for %d labels", len(scores), len(labels))
	}
	return scores, nil
}

// Analyze returns the sentiment distribution over positive, neutral and
// negative.
func (p *Provider) Analyze(ctx context.Context, text string) ([]models.LabelScore, error) {
	raw, err := p.generateContent(ctx, &contentRequest{
		Parts: []*genai.Part{genai.NewPartFromText(text)},
		Model: "gemini/" + p.geminiConfig.Model,
		SystemInstruction: "Classify the sentiment of the text. Return exactly three entries " +
			"with labels \"positive\", \"neutral\" and \"negative\", scored as a probability " +
			"distribution summing to 1.",
		OutputSchema: labelScoreSchema,
	})
	if err != nil {
		return nil, err
	}
	return parseLabelScores(raw)
}

// Detect locates objects in the image and returns detections with boxes in
// original-image pixel coordinates. Gemini reports boxes on a normalized
// 0-1000 grid; Width and Height from the payload scale them back.
func (p *Provider) Detect(ctx context.Context, payload *models.DetectPayload, threshold float64) ([]models.Detection, error) {
	data, mime, err := imageBytes(ctx, payload)
	if err != nil {
		return nil, err
	}

	raw, err := p.generateContent(ctx, &contentRequest{
		Parts: []*genai.Part{
			genai.NewPartFromBytes(data, mime),
			genai.NewPartFromText("Detect all prominent objects in this image."),
		},
		Model:        "gemini/" + p.geminiConfig.VisionModel,
		OutputSchema: detectionSchema,
	})
	if err != nil {
		return nil, err
	}

	var rawDetections []struct {
		Label string  `json:"label"`
		Score float64 `json:"score"`
		Box2D []int   `json:"box_2d"`
	}
	if err := json.Unmarshal([]byte(raw), &rawDetections); err != nil {
		return nil, fmt.Errorf("failed to parse detection response: %w", err)
	}

	detections := make([]models.Detection, 0, len(rawDetections))
	for _, d := range rawDetections {
		if d.Score < threshold || len(d.Box2D) != 4 {
			continue
		}
		detections = append(detections, models.Detection{
			Label: d.Label,
			Score: d.Score,
			Box: models.Box{
				YMin: d.Box2D[0] * payload.Height / 1000,
				XMin: d.Box2D[1] * payload.Width / 1000,
				YMax: d.Box2D[2] * payload.Height / 1000,
				XMax: d.Box2D[3] * payload.Width / 1000,
			},
		})
	}
	return detections, nil
}

// imageBytes resolves the detection payload to raw image bytes, fetching the
// URL when no inline data is present.
func imageBytes(ctx context.Context, payload *models.DetectPayload) ([]byte, string, error) {
	mime := payload.MIME
	if mime == "" {
		mime = "image/jpeg"
	}

	if len(payload.Data) > 0 {
		return payload.Data, mime, nil
	}

	req, err := http.NewRequestWithContext(ctx, "GET", payload.URL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("invalid image url: %w", err)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("image fetch returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageFetchSize))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image: %w", err)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && payload.MIME == "" {
		mime = ct
	}
	return data, mime, nil
}

// parseLabelScores decodes a structured label-score response, clamps scores
// into [0,1], and sorts descending.
func parseLabelScores(raw string) ([]models.LabelScore, error) {
	var scores []models.LabelScore
	if err := json.Unmarshal([]byte(raw), &scores); err != nil {
		return nil, fmt.Errorf("failed to parse label scores: %w", err)
	}

	for i := range scores {
		if scores[i].Score < 0 {
			scores[i].Score = 0
		} else if scores[i].Score > 1 {
			scores[i].Score = 1
		}
	}
	sort.SliceStable(scores, func(a, b int) bool {
		return scores[a].Score > scores[b].Score
	})
	return scores, nil
}
