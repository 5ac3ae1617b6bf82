package workers

import (
	"context"
	"strings"

	"github.com/ternarybob/cogito/internal/interfaces"
	"github.com/ternarybob/cogito/internal/models"
	"github.com/ternarybob/cogito/internal/pipelines"
)

// voiceHandler serves speech transcription. Long audio is processed in
// fixed-length windows with overlap; window transcripts are filtered for the
// known silence hallucination and joined into one transcript.
type voiceHandler struct {
	pipeline      interfaces.Transcriber
	windowSeconds int
	strideSeconds int
}

func (h *voiceHandler) load(ctx context.Context, factory *pipelines.Factory, report interfaces.ProgressFunc) error {
	pipeline, err := factory.Transcriber(report)
	if err != nil {
		return err
	}
	h.pipeline = pipeline
	return nil
}

func (h *voiceHandler) ready() models.Response {
	return models.Response{Status: models.StatusReady}
}

func (h *voiceHandler) handle(ctx context.Context, req *models.Request) (models.Response, error) {
	if req.Type != models.RequestTranscribe {
		return models.Response{}, taskMismatch(interfaces.TaskTranscription, req.Type)
	}

	samples := req.Transcribe.Samples
	rate := req.Transcribe.SampleRate

	window := h.windowSeconds * rate
	if window <= 0 {
		window = len(samples)
	}
	step := (h.windowSeconds - h.strideSeconds) * rate
	if step <= 0 {
		step = window
	}

	var parts []string
	for start := 0; start < len(samples); start += step {
		end := start + window
		if end > len(samples) {
			end = len(samples)
		}

		text, err := h.pipeline.Transcribe(ctx, samples[start:end], rate)
		if err != nil {
			return models.Response{}, err
		}
		if cleaned := cleanTranscript(text); cleaned != "" {
			parts = append(parts, cleaned)
		}

		if end == len(samples) {
			break
		}
	}

	return models.Response{
		Status:     models.StatusComplete,
		Transcript: &models.Transcript{Text: strings.Join(parts, " ")},
	}, nil
}

func (h *voiceHandler) close() error { return closePipeline(h.pipeline) }

// cleanTranscript trims a window transcript and drops the bare "you" the
// model emits on silent audio.
func cleanTranscript(text string) string {
	text = strings.TrimSpace(text)
	if strings.EqualFold(strings.Trim(text, ".!? "), "you") {
		return ""
	}
	return text
}
