package workers

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/cogito/internal/common"
	"github.com/ternarybob/cogito/internal/interfaces"
	"github.com/ternarybob/cogito/internal/models"
	"github.com/ternarybob/cogito/internal/pipelines"
)

const responseWait = 5 * time.Second

func newTestWorker(t *testing.T, task interfaces.TaskKind) *Worker {
	t.Helper()

	cfg := common.NewDefaultConfig()
	factory := pipelines.NewFactory(&cfg.Pipelines, pipelines.DefaultCatalog(), common.GetLogger())

	worker, err := NewWorker(task, cfg, factory, common.GetLogger())
	require.NoError(t, err)
	t.Cleanup(worker.Stop)
	return worker
}

// nextResponse blocks until the worker posts a message.
func nextResponse(t *testing.T, w *Worker) models.Response {
	t.Helper()
	select {
	case resp, ok := <-w.Responses():
		require.True(t, ok, "response channel closed")
		return resp
	case <-time.After(responseWait):
		t.Fatal("timed out waiting for worker response")
		return models.Response{}
	}
}

// awaitReady drains progress messages until the ready envelope arrives,
// asserting progress values stay monotonically non-decreasing.
func awaitReady(t *testing.T, w *Worker) models.Response {
	t.Helper()
	last := -1.0
	for {
		resp := nextResponse(t, w)
		switch resp.Status {
		case models.StatusProgress:
			assert.GreaterOrEqual(t, resp.Progress, last)
			assert.LessOrEqual(t, resp.Progress, 100.0)
			last = resp.Progress
		case models.StatusReady:
			return resp
		default:
			t.Fatalf("unexpected response before ready: %+v", resp)
		}
	}
}

func TestWorkerInitThenClassify(t *testing.T) {
	w := newTestWorker(t, interfaces.TaskClassification)

	require.NoError(t, w.Send(models.Request{Type: models.RequestInit}))
	awaitReady(t, w)
	assert.Equal(t, StateReady, w.State())

	require.NoError(t, w.Send(models.Request{
		Type:     models.RequestClassify,
		Classify: &models.ClassifyPayload{Text: "the stock market rallied today", Labels: []string{"finance", "sports"}},
	}))

	resp := nextResponse(t, w)
	require.Equal(t, models.StatusComplete, resp.Status)
	require.Len(t, resp.Classification, 2)
	for _, score := range resp.Classification {
		assert.GreaterOrEqual(t, score.Score, 0.0)
		assert.LessOrEqual(t, score.Score, 1.0)
	}
	// Scores come back in descending order.
	assert.GreaterOrEqual(t, resp.Classification[0].Score, resp.Classification[1].Score)
}

func TestWorkerQueuesRequestsDuringLoad(t *testing.T) {
	w := newTestWorker(t, interfaces.TaskSentiment)

	// Enqueue init and a task back to back; the task must wait for the load
	// and still produce its result.
	require.NoError(t, w.Send(models.Request{Type: models.RequestInit}))
	require.NoError(t, w.Send(models.Request{
		Type:      models.RequestSentiment,
		Sentiment: &models.SentimentPayload{Text: "I love this"},
	}))

	awaitReady(t, w)
	resp := nextResponse(t, w)
	require.Equal(t, models.StatusComplete, resp.Status)
	require.NotEmpty(t, resp.Sentiment)
	assert.Equal(t, "positive", resp.Sentiment[0].Label)
}

func TestWorkerRejectsTaskBeforeInit(t *testing.T) {
	w := newTestWorker(t, interfaces.TaskGeneration)

	require.NoError(t, w.Send(models.Request{
		Type:     models.RequestGenerate,
		Generate: &models.GeneratePayload{Text: "once upon a time"},
	}))

	resp := nextResponse(t, w)
	assert.Equal(t, models.StatusError, resp.Status)
	assert.Contains(t, resp.Error, "not initialized")

	// The worker is still usable after the protocol error.
	require.NoError(t, w.Send(models.Request{Type: models.RequestInit}))
	awaitReady(t, w)
}

func TestWorkerDuplicateInitIsNoOp(t *testing.T) {
	w := newTestWorker(t, interfaces.TaskClassification)

	require.NoError(t, w.Send(models.Request{Type: models.RequestInit}))
	awaitReady(t, w)

	require.NoError(t, w.Send(models.Request{Type: models.RequestInit}))
	require.NoError(t, w.Send(models.Request{
		Type:     models.RequestClassify,
		Classify: &models.ClassifyPayload{Text: "hello", Labels: []string{"greeting"}},
	}))

	// No second ready: the next message is the classification result.
	resp := nextResponse(t, w)
	assert.Equal(t, models.StatusComplete, resp.Status)
}

func TestWorkerErrorReturnsToReady(t *testing.T) {
	w := newTestWorker(t, interfaces.TaskClassification)

	require.NoError(t, w.Send(models.Request{Type: models.RequestInit}))
	awaitReady(t, w)

	// Invalid payload produces an error response, not a dead worker.
	require.NoError(t, w.Send(models.Request{Type: models.RequestClassify}))
	resp := nextResponse(t, w)
	assert.Equal(t, models.StatusError, resp.Status)

	require.NoError(t, w.Send(models.Request{
		Type:     models.RequestClassify,
		Classify: &models.ClassifyPayload{Text: "hello", Labels: []string{"greeting"}},
	}))
	resp = nextResponse(t, w)
	assert.Equal(t, models.StatusComplete, resp.Status)
	assert.Equal(t, StateReady, w.State())
}

func TestGenerateStripsEchoedPrompt(t *testing.T) {
	w := newTestWorker(t, interfaces.TaskGeneration)

	require.NoError(t, w.Send(models.Request{Type: models.RequestInit}))
	awaitReady(t, w)

	prompt := "the quick brown fox"
	require.NoError(t, w.Send(models.Request{
		Type:     models.RequestGenerate,
		Generate: &models.GeneratePayload{Text: prompt},
	}))

	resp := nextResponse(t, w)
	require.Equal(t, models.StatusComplete, resp.Status)
	assert.NotEmpty(t, resp.Prediction)
	assert.False(t, strings.HasPrefix(resp.Prediction, prompt))
}

func TestEmbedWorkerAddThenSearch(t *testing.T) {
	w := newTestWorker(t, interfaces.TaskEmbedding)

	require.NoError(t, w.Send(models.Request{Type: models.RequestInit}))
	ready := awaitReady(t, w)
	assert.Equal(t, 0, ready.Count)

	doc := "The mitochondria is the powerhouse of the cell.\n\n" +
		"Photosynthesis converts sunlight into chemical energy in plants."
	require.NoError(t, w.Send(models.Request{
		Type: models.RequestAdd,
		Add:  &models.AddPayload{Text: doc, SourceID: "biology-notes"},
	}))

	// Add re-posts ready with the updated knowledge base.
	update := nextResponse(t, w)
	require.Equal(t, models.StatusReady, update.Status)
	assert.Equal(t, 2, update.Count)
	require.Len(t, update.KnowledgeBase, 2)
	assert.Equal(t, "biology-notes-0", update.KnowledgeBase[0].ID)
	assert.Equal(t, "biology-notes-1", update.KnowledgeBase[1].ID)

	require.NoError(t, w.Send(models.Request{
		Type:   models.RequestSearch,
		Search: &models.SearchPayload{Query: "photosynthesis sunlight energy"},
	}))

	resp := nextResponse(t, w)
	require.Equal(t, models.StatusComplete, resp.Status)
	require.NotEmpty(t, resp.Results)
	assert.LessOrEqual(t, len(resp.Results), 5)
	for i := 1; i < len(resp.Results); i++ {
		assert.GreaterOrEqual(t, resp.Results[i-1].Score, resp.Results[i].Score)
	}
}

func TestEmbedWorkerSearchEmptyIndex(t *testing.T) {
	w := newTestWorker(t, interfaces.TaskEmbedding)

	require.NoError(t, w.Send(models.Request{Type: models.RequestInit}))
	awaitReady(t, w)

	require.NoError(t, w.Send(models.Request{
		Type:   models.RequestSearch,
		Search: &models.SearchPayload{Query: "anything"},
	}))

	resp := nextResponse(t, w)
	require.Equal(t, models.StatusComplete, resp.Status)
	assert.Empty(t, resp.Results)
}

func TestVoiceWorkerFiltersSilence(t *testing.T) {
	w := newTestWorker(t, interfaces.TaskTranscription)

	require.NoError(t, w.Send(models.Request{Type: models.RequestInit}))
	awaitReady(t, w)

	// All-zero samples trigger the silence hallucination, which must be
	// filtered out of the final transcript.
	require.NoError(t, w.Send(models.Request{
		Type:       models.RequestTranscribe,
		Transcribe: &models.TranscribePayload{Samples: make([]float32, 16000), SampleRate: 16000},
	}))

	resp := nextResponse(t, w)
	require.Equal(t, models.StatusComplete, resp.Status)
	require.NotNil(t, resp.Transcript)
	assert.Empty(t, resp.Transcript.Text)
}

func TestVoiceWorkerTranscribesWindows(t *testing.T) {
	w := newTestWorker(t, interfaces.TaskTranscription)

	require.NoError(t, w.Send(models.Request{Type: models.RequestInit}))
	awaitReady(t, w)

	// 35 seconds at 16kHz spans two 30s windows with 5s stride.
	samples := make([]float32, 35*16000)
	for i := range samples {
		samples[i] = 0.1
	}
	require.NoError(t, w.Send(models.Request{
		Type:       models.RequestTranscribe,
		Transcribe: &models.TranscribePayload{Samples: samples, SampleRate: 16000},
	}))

	resp := nextResponse(t, w)
	require.Equal(t, models.StatusComplete, resp.Status)
	require.NotNil(t, resp.Transcript)
	assert.Equal(t, "hello world hello world", resp.Transcript.Text)
}

func TestDetectWorkerAppliesThreshold(t *testing.T) {
	w := newTestWorker(t, interfaces.TaskDetection)

	require.NoError(t, w.Send(models.Request{Type: models.RequestInit}))
	awaitReady(t, w)

	require.NoError(t, w.Send(models.Request{
		Type:   models.RequestDetect,
		Detect: &models.DetectPayload{URL: "https://example.com/cat.jpg", Width: 640, Height: 480},
	}))

	resp := nextResponse(t, w)
	require.Equal(t, models.StatusComplete, resp.Status)
	require.Len(t, resp.Detections, 1)
	det := resp.Detections[0]
	assert.GreaterOrEqual(t, det.Score, 0.5)
	assert.Less(t, det.Box.XMin, det.Box.XMax)
	assert.Less(t, det.Box.YMin, det.Box.YMax)
	assert.LessOrEqual(t, det.Box.XMax, 640)
	assert.LessOrEqual(t, det.Box.YMax, 480)
}

func TestWorkerStopDiscardsState(t *testing.T) {
	w := newTestWorker(t, interfaces.TaskEmbedding)

	require.NoError(t, w.Send(models.Request{Type: models.RequestInit}))
	awaitReady(t, w)

	w.Stop()
	assert.Equal(t, StateStopped, w.State())
	assert.Error(t, w.Send(models.Request{Type: models.RequestInit}))

	// The response channel drains and closes.
	for range w.Responses() {
	}
}

func TestSnapshotAndRestoreIndex(t *testing.T) {
	w := newTestWorker(t, interfaces.TaskEmbedding)

	require.NoError(t, w.Send(models.Request{Type: models.RequestInit}))
	awaitReady(t, w)

	doc := "A first paragraph that is long enough to keep.\n\n" +
		"A second paragraph that is also long enough to keep."
	require.NoError(t, w.Send(models.Request{
		Type: models.RequestAdd,
		Add:  &models.AddPayload{Text: doc, SourceID: "notes"},
	}))
	nextResponse(t, w)

	ctx := context.Background()
	snapshot, err := w.SnapshotIndex(ctx, "snap-test")
	require.NoError(t, err)
	assert.Equal(t, "snap-test", snapshot.ID)
	assert.Len(t, snapshot.Records, 2)

	// A fresh worker restored from the snapshot serves the same content.
	fresh := newTestWorker(t, interfaces.TaskEmbedding)
	require.NoError(t, fresh.Send(models.Request{Type: models.RequestInit}))
	awaitReady(t, fresh)
	require.NoError(t, fresh.RestoreIndex(ctx, snapshot))

	require.NoError(t, fresh.Send(models.Request{
		Type:   models.RequestSearch,
		Search: &models.SearchPayload{Query: "first paragraph"},
	}))
	resp := nextResponse(t, fresh)
	require.Equal(t, models.StatusComplete, resp.Status)
	assert.Len(t, resp.Results, 2)

	// Snapshot on a non-embed worker fails.
	other := newTestWorker(t, interfaces.TaskGeneration)
	_, err = other.SnapshotIndex(ctx, "nope")
	assert.Error(t, err)
}

func TestManagerTracksWorkers(t *testing.T) {
	cfg := common.NewDefaultConfig()
	factory := pipelines.NewFactory(&cfg.Pipelines, pipelines.DefaultCatalog(), common.GetLogger())
	manager := NewManager(cfg, factory, common.GetLogger())
	t.Cleanup(manager.StopAll)

	w1, err := manager.Spawn(interfaces.TaskClassification)
	require.NoError(t, err)
	w2, err := manager.Spawn(interfaces.TaskEmbedding)
	require.NoError(t, err)

	statuses := manager.Statuses()
	assert.Len(t, statuses, 2)

	manager.Release(w1)
	assert.Len(t, manager.Statuses(), 1)
	assert.Equal(t, w2.ID, manager.Statuses()[0].ID)
}
