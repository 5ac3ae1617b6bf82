package interfaces

import (
	"context"

	"github.com/ternarybob/cogito/internal/models"
)

// TaskKind identifies an inference task domain. One worker owns exactly one
// task kind for its lifetime.
type TaskKind string

const (
	TaskClassification TaskKind = "zero-shot-classification"
	TaskSentiment      TaskKind = "text-classification"
	TaskGeneration     TaskKind = "text-generation"
	TaskEmbedding      TaskKind = "feature-extraction"
	TaskDetection      TaskKind = "object-detection"
	TaskTranscription  TaskKind = "automatic-speech-recognition"
)

// ProgressFunc reports fractional model-load completion as a percentage in
// [0,100]. Implementations may call it any number of times; consumers must
// tolerate out-of-order values (the worker clamps them monotonic).
type ProgressFunc func(pct float64)

// Embedder produces fixed-dimensionality vectors from text using mean
// pooling and L2 normalization. Vectors from the same Embedder instance are
// comparable via cosine similarity; vectors from different models are not.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
	ModelID() string
}

// Generator produces a short continuation of the given context text. The
// returned string must not include the echoed input prefix.
type Generator interface {
	Generate(ctx context.Context, text string) (string, error)
}

// ZeroShotClassifier scores caller-supplied candidate labels against a text.
// Scores are independent probabilities in [0,1] (multi-label) and are
// returned in the model's own ranking order.
type ZeroShotClassifier interface {
	Classify(ctx context.Context, text string, labels []string) ([]models.LabelScore, error)
}

// SentimentAnalyzer returns the probability distribution over sentiment
// classes (positive, neutral, negative) for a text.
type SentimentAnalyzer interface {
	Analyze(ctx context.Context, text string) ([]models.LabelScore, error)
}

// ObjectDetector locates objects in an image and returns detections with
// bounding boxes in original-image pixel coordinates. Detections under the
// threshold are not returned.
type ObjectDetector interface {
	Detect(ctx context.Context, payload *models.DetectPayload, threshold float64) ([]models.Detection, error)
}

// Transcriber converts one window of mono float32 PCM samples to text.
// Windowing of long audio is the caller's concern.
type Transcriber interface {
	Transcribe(ctx context.Context, samples []float32, sampleRate int) (string, error)
}

// IndexSnapshotStorage is the explicit persistence boundary for the semantic
// index. The index itself never touches storage; snapshots are taken and
// restored only through this interface.
type IndexSnapshotStorage interface {
	SaveSnapshot(ctx context.Context, snapshot *models.IndexSnapshot) error
	LoadSnapshot(ctx context.Context, id string) (*models.IndexSnapshot, error)
	ListSnapshots(ctx context.Context) ([]string, error)
	DeleteSnapshot(ctx context.Context, id string) error
}
