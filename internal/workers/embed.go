package workers

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/cogito/internal/common"
	"github.com/ternarybob/cogito/internal/index"
	"github.com/ternarybob/cogito/internal/interfaces"
	"github.com/ternarybob/cogito/internal/models"
	"github.com/ternarybob/cogito/internal/pipelines"
	"github.com/ternarybob/cogito/internal/transform"
)

// embedHandler serves the feature-extraction worker: document ingest into
// the semantic index and cosine top-K search over it. The index lives in
// memory, owned by the worker goroutine, and starts empty on every worker
// instance.
type embedHandler struct {
	embedder interfaces.Embedder
	idx      *index.Index
	cfg      *common.IndexConfig
	logger   arbor.ILogger
}

func newEmbedHandler(cfg *common.IndexConfig, logger arbor.ILogger) *embedHandler {
	return &embedHandler{cfg: cfg, logger: logger}
}

func (h *embedHandler) load(ctx context.Context, factory *pipelines.Factory, report interfaces.ProgressFunc) error {
	embedder, err := factory.Embedder(report)
	if err != nil {
		return err
	}
	h.embedder = embedder
	h.idx = index.New()
	return nil
}

// ready reports the current index contents. The embed worker re-posts this
// after every successful add so hosts can render the knowledge base without
// tracking it themselves.
func (h *embedHandler) ready() models.Response {
	return models.Response{
		Status:        models.StatusReady,
		Count:         h.idx.Len(),
		KnowledgeBase: h.idx.Chunks(),
	}
}

func (h *embedHandler) handle(ctx context.Context, req *models.Request) (models.Response, error) {
	switch req.Type {
	case models.RequestAdd:
		return h.add(ctx, req.Add)
	case models.RequestSearch:
		return h.search(ctx, req.Search)
	default:
		return models.Response{}, taskMismatch(interfaces.TaskEmbedding, req.Type)
	}
}

// add normalizes the document, chunks it, embeds each chunk, and appends the
// results to the index. The response is a fresh ready envelope carrying the
// updated index contents.
func (h *embedHandler) add(ctx context.Context, payload *models.AddPayload) (models.Response, error) {
	text, err := transform.Normalize(payload.Text, payload.Data, payload.SourceType)
	if err != nil {
		return models.Response{}, err
	}

	minChars := h.cfg.MinChunkChars
	if strings.EqualFold(payload.SourceType, "reference") {
		minChars = h.cfg.ReferenceMinChunkChars
	}

	// Chunk IDs continue from the source's existing count so re-adding a
	// source appends rather than colliding.
	startIdx := 0
	for _, chunk := range h.idx.Chunks() {
		if chunk.SourceID == payload.SourceID {
			startIdx++
		}
	}

	chunks := index.NewChunker(minChars).Split(text, payload.SourceID, payload.SourceType, startIdx)
	for _, chunk := range chunks {
		vector, err := h.embedder.Embed(ctx, chunk.Text)
		if err != nil {
			return models.Response{}, fmt.Errorf("failed to embed chunk %s: %w", chunk.ID, err)
		}
		if err := h.idx.Add(chunk, vector); err != nil {
			return models.Response{}, err
		}
	}

	h.logger.Info().
		Str("source_id", payload.SourceID).
		Int("chunks", len(chunks)).
		Int("index_size", h.idx.Len()).
		Msg("Document indexed")

	return h.ready(), nil
}

// search embeds the query and returns the top-K chunks by cosine similarity.
func (h *embedHandler) search(ctx context.Context, payload *models.SearchPayload) (models.Response, error) {
	vector, err := h.embedder.Embed(ctx, payload.Query)
	if err != nil {
		return models.Response{}, fmt.Errorf("failed to embed query: %w", err)
	}

	results := h.idx.Search(vector, h.cfg.TopK)
	return models.Response{Status: models.StatusComplete, Results: results}, nil
}

func (h *embedHandler) snapshot(id string) *models.IndexSnapshot {
	return h.idx.Snapshot(id)
}

func (h *embedHandler) restore(snapshot *models.IndexSnapshot) error {
	return h.idx.Restore(snapshot)
}

func (h *embedHandler) close() error { return closePipeline(h.embedder) }
