package pipelines

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/cogito/internal/common"
	"github.com/ternarybob/cogito/internal/interfaces"
	"github.com/ternarybob/cogito/internal/pipelines/cloud"
	"github.com/ternarybob/cogito/internal/pipelines/local"
)

// Pipeline modes. Local runs llama-server and whisper-server child
// processes; cloud calls the Gemini and Claude APIs; mock is deterministic
// and inference-free.
const (
	ModeLocal = "local"
	ModeCloud = "cloud"
	ModeMock  = "mock"
)

// Factory constructs task pipelines according to the configured mode. Each
// constructor loads (or connects) one pipeline, reporting load progress
// through the supplied ProgressFunc; workers call exactly one constructor
// during init.
//
// Tasks with no local runtime (zero-shot classification, sentiment, object
// detection) fall through to the cloud provider in local mode.
type Factory struct {
	cfg     *common.PipelinesConfig
	catalog *Catalog
	logger  arbor.ILogger
	cloud   *cloud.Provider
}

// NewFactory creates a pipeline factory.
func NewFactory(cfg *common.PipelinesConfig, catalog *Catalog, logger arbor.ILogger) *Factory {
	return &Factory{cfg: cfg, catalog: catalog, logger: logger}
}

func (f *Factory) cloudProvider() *cloud.Provider {
	if f.cloud == nil {
		f.cloud = cloud.NewProvider(f.cfg, f.logger)
	}
	return f.cloud
}

// Embedder builds the feature-extraction pipeline.
func (f *Factory) Embedder(report interfaces.ProgressFunc) (interfaces.Embedder, error) {
	modelID, err := f.catalog.ModelFor(interfaces.TaskEmbedding)
	if err != nil {
		return nil, err
	}

	switch f.cfg.Mode {
	case ModeLocal:
		return local.NewEmbedder(&f.cfg.Llama, modelID, report, f.logger)
	case ModeCloud:
		done(report)
		return cloud.NewEmbedder(f.cloudProvider(), cloud.DefaultEmbedModel), nil
	case ModeMock:
		done(report)
		return NewMockEmbedder(modelID), nil
	default:
		return nil, fmt.Errorf("unknown pipeline mode: %q", f.cfg.Mode)
	}
}

// Generator builds the text-generation pipeline.
func (f *Factory) Generator(report interfaces.ProgressFunc) (interfaces.Generator, error) {
	switch f.cfg.Mode {
	case ModeLocal:
		return local.NewGenerator(&f.cfg.Llama, &f.cfg.LLM, report, f.logger)
	case ModeCloud:
		done(report)
		return f.cloudProvider(), nil
	case ModeMock:
		done(report)
		return NewMockGenerator(), nil
	default:
		return nil, fmt.Errorf("unknown pipeline mode: %q", f.cfg.Mode)
	}
}

// Classifier builds the zero-shot classification pipeline.
func (f *Factory) Classifier(report interfaces.ProgressFunc) (interfaces.ZeroShotClassifier, error) {
	switch f.cfg.Mode {
	case ModeLocal, ModeCloud:
		done(report)
		return f.cloudProvider(), nil
	case ModeMock:
		done(report)
		return NewMockZeroShotClassifier(), nil
	default:
		return nil, fmt.Errorf("unknown pipeline mode: %q", f.cfg.Mode)
	}
}

// SentimentAnalyzer builds the sentiment classification pipeline.
func (f *Factory) SentimentAnalyzer(report interfaces.ProgressFunc) (interfaces.SentimentAnalyzer, error) {
	switch f.cfg.Mode {
	case ModeLocal, ModeCloud:
		done(report)
		return f.cloudProvider(), nil
	case ModeMock:
		done(report)
		return NewMockSentimentAnalyzer(), nil
	default:
		return nil, fmt.Errorf("unknown pipeline mode: %q", f.cfg.Mode)
	}
}

// Detector builds the object-detection pipeline.
func (f *Factory) Detector(report interfaces.ProgressFunc) (interfaces.ObjectDetector, error) {
	switch f.cfg.Mode {
	case ModeLocal, ModeCloud:
		done(report)
		return f.cloudProvider(), nil
	case ModeMock:
		done(report)
		return NewMockObjectDetector(), nil
	default:
		return nil, fmt.Errorf("unknown pipeline mode: %q", f.cfg.Mode)
	}
}

// Transcriber builds the speech-recognition pipeline.
func (f *Factory) Transcriber(report interfaces.ProgressFunc) (interfaces.Transcriber, error) {
	switch f.cfg.Mode {
	case ModeLocal:
		return local.NewTranscriber(&f.cfg.Whisper, report, f.logger)
	case ModeCloud:
		done(report)
		return f.cloudProvider(), nil
	case ModeMock:
		done(report)
		return NewMockTranscriber(), nil
	default:
		return nil, fmt.Errorf("unknown pipeline mode: %q", f.cfg.Mode)
	}
}

// Close releases shared provider clients. Per-pipeline resources (child
// processes) are closed by their owning workers.
func (f *Factory) Close() error {
	if f.cloud != nil {
		return f.cloud.Close()
	}
	return nil
}

// done reports instant load completion for pipelines with nothing to load.
func done(report interfaces.ProgressFunc) {
	if report != nil {
		report(100)
	}
}
