package workers

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/cogito/internal/interfaces"
	"github.com/ternarybob/cogito/internal/models"
	"github.com/ternarybob/cogito/internal/pipelines"
)

func taskMismatch(task interfaces.TaskKind, req models.RequestType) error {
	return fmt.Errorf("%s worker cannot handle %q request", task, req)
}

// classifyHandler serves zero-shot classification requests.
type classifyHandler struct {
	pipeline interfaces.ZeroShotClassifier
}

func (h *classifyHandler) load(ctx context.Context, factory *pipelines.Factory, report interfaces.ProgressFunc) error {
	pipeline, err := factory.Classifier(report)
	if err != nil {
		return err
	}
	h.pipeline = pipeline
	return nil
}

func (h *classifyHandler) ready() models.Response {
	return models.Response{Status: models.StatusReady}
}

func (h *classifyHandler) handle(ctx context.Context, req *models.Request) (models.Response, error) {
	if req.Type != models.RequestClassify {
		return models.Response{}, taskMismatch(interfaces.TaskClassification, req.Type)
	}

	scores, err := h.pipeline.Classify(ctx, req.Classify.Text, req.Classify.Labels)
	if err != nil {
		return models.Response{}, err
	}
	return models.Response{Status: models.StatusComplete, Classification: scores}, nil
}

func (h *classifyHandler) close() error { return closePipeline(h.pipeline) }

// sentimentHandler serves sentiment classification requests.
type sentimentHandler struct {
	pipeline interfaces.SentimentAnalyzer
}

func (h *sentimentHandler) load(ctx context.Context, factory *pipelines.Factory, report interfaces.ProgressFunc) error {
	pipeline, err := factory.SentimentAnalyzer(report)
	if err != nil {
		return err
	}
	h.pipeline = pipeline
	return nil
}

func (h *sentimentHandler) ready() models.Response {
	return models.Response{Status: models.StatusReady}
}

func (h *sentimentHandler) handle(ctx context.Context, req *models.Request) (models.Response, error) {
	if req.Type != models.RequestSentiment {
		return models.Response{}, taskMismatch(interfaces.TaskSentiment, req.Type)
	}

	scores, err := h.pipeline.Analyze(ctx, req.Sentiment.Text)
	if err != nil {
		return models.Response{}, err
	}
	return models.Response{Status: models.StatusComplete, Sentiment: scores}, nil
}

func (h *sentimentHandler) close() error { return closePipeline(h.pipeline) }

// generateHandler serves text continuation requests.
type generateHandler struct {
	pipeline interfaces.Generator
}

func (h *generateHandler) load(ctx context.Context, factory *pipelines.Factory, report interfaces.ProgressFunc) error {
	pipeline, err := factory.Generator(report)
	if err != nil {
		return err
	}
	h.pipeline = pipeline
	return nil
}

func (h *generateHandler) ready() models.Response {
	return models.Response{Status: models.StatusReady}
}

func (h *generateHandler) handle(ctx context.Context, req *models.Request) (models.Response, error) {
	if req.Type != models.RequestGenerate {
		return models.Response{}, taskMismatch(interfaces.TaskGeneration, req.Type)
	}

	output, err := h.pipeline.Generate(ctx, req.Generate.Text)
	if err != nil {
		return models.Response{}, err
	}
	return models.Response{
		Status:     models.StatusComplete,
		Prediction: stripEchoedPrefix(req.Generate.Text, output),
	}, nil
}

func (h *generateHandler) close() error { return closePipeline(h.pipeline) }

// stripEchoedPrefix removes the input text from the front of a model output.
// Causal models return prompt plus continuation; the protocol's prediction
// carries the continuation only.
func stripEchoedPrefix(input, output string) string {
	if strings.HasPrefix(output, input) {
		output = output[len(input):]
	}
	return strings.TrimLeft(output, " \t\n")
}

// detectHandler serves object detection requests with a fixed confidence
// threshold.
type detectHandler struct {
	pipeline  interfaces.ObjectDetector
	threshold float64
}

func (h *detectHandler) load(ctx context.Context, factory *pipelines.Factory, report interfaces.ProgressFunc) error {
	pipeline, err := factory.Detector(report)
	if err != nil {
		return err
	}
	h.pipeline = pipeline
	return nil
}

func (h *detectHandler) ready() models.Response {
	return models.Response{Status: models.StatusReady}
}

func (h *detectHandler) handle(ctx context.Context, req *models.Request) (models.Response, error) {
	if req.Type != models.RequestDetect {
		return models.Response{}, taskMismatch(interfaces.TaskDetection, req.Type)
	}

	detections, err := h.pipeline.Detect(ctx, req.Detect, h.threshold)
	if err != nil {
		return models.Response{}, err
	}
	if detections == nil {
		detections = []models.Detection{}
	}
	return models.Response{Status: models.StatusComplete, Detections: detections}, nil
}

func (h *detectHandler) close() error { return closePipeline(h.pipeline) }
