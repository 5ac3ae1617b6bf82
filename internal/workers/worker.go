package workers

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/cogito/internal/common"
	"github.com/ternarybob/cogito/internal/interfaces"
	"github.com/ternarybob/cogito/internal/models"
	"github.com/ternarybob/cogito/internal/pipelines"
)

// State is a worker lifecycle state.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateLoading       State = "loading"
	StateReady         State = "ready"
	StateBusy          State = "busy"
	StateFailed        State = "failed"
	StateStopped       State = "stopped"
)

// taskHandler implements one task kind's pipeline lifecycle and request
// handling. Handlers run only on their worker's goroutine.
type taskHandler interface {
	load(ctx context.Context, factory *pipelines.Factory, report interfaces.ProgressFunc) error
	ready() models.Response
	handle(ctx context.Context, req *models.Request) (models.Response, error)
	close() error
}

// Worker owns one task pipeline and processes requests sequentially on a
// single goroutine. Requests sent while the model is still loading sit in
// the buffered request channel and run, in order, once loading completes.
//
// A worker posts exactly one ready response in its lifetime. Task failures
// produce an error response and return the worker to ready; only a failed
// model load is terminal.
type Worker struct {
	ID   string
	Task interfaces.TaskKind

	factory   *pipelines.Factory
	handler   taskHandler
	requests  chan models.Request
	control   chan func()
	responses chan models.Response
	logger    arbor.ILogger

	mu           sync.RWMutex
	state        State
	lastProgress float64

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewWorker creates a worker for the given task kind and starts its run
// loop. The worker stays uninitialized until it receives an init request.
func NewWorker(task interfaces.TaskKind, cfg *common.Config, factory *pipelines.Factory, logger arbor.ILogger) (*Worker, error) {
	handler, err := newHandler(task, cfg, logger)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Worker{
		ID:        common.NewWorkerID(),
		Task:      task,
		factory:   factory,
		handler:   handler,
		requests:  make(chan models.Request, cfg.Workers.QueueDepth),
		control:   make(chan func()),
		responses: make(chan models.Response, cfg.Workers.QueueDepth),
		logger:    logger,
		state:     StateUninitialized,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	go w.run()

	logger.Info().
		Str("worker_id", w.ID).
		Str("task", string(task)).
		Msg("Worker created")
	return w, nil
}

func newHandler(task interfaces.TaskKind, cfg *common.Config, logger arbor.ILogger) (taskHandler, error) {
	switch task {
	case interfaces.TaskClassification:
		return &classifyHandler{}, nil
	case interfaces.TaskSentiment:
		return &sentimentHandler{}, nil
	case interfaces.TaskGeneration:
		return &generateHandler{}, nil
	case interfaces.TaskEmbedding:
		return newEmbedHandler(&cfg.Index, logger), nil
	case interfaces.TaskDetection:
		return &detectHandler{threshold: cfg.Workers.DetectionThreshold}, nil
	case interfaces.TaskTranscription:
		return &voiceHandler{
			windowSeconds: cfg.Workers.WindowSeconds,
			strideSeconds: cfg.Workers.StrideSeconds,
		}, nil
	default:
		return nil, fmt.Errorf("unknown task kind: %q", task)
	}
}

// Send enqueues a request. It fails when the worker is stopped or its queue
// is full; it never blocks.
func (w *Worker) Send(req models.Request) error {
	select {
	case <-w.ctx.Done():
		return fmt.Errorf("worker %s is stopped", w.ID)
	default:
	}

	select {
	case w.requests <- req:
		return nil
	default:
		return fmt.Errorf("worker %s queue full (%d pending)", w.ID, cap(w.requests))
	}
}

// Responses returns the channel of worker-to-host messages. The channel is
// closed when the worker stops.
func (w *Worker) Responses() <-chan models.Response {
	return w.responses
}

// State returns the current lifecycle state.
func (w *Worker) State() State {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

// QueueLen returns the number of pending requests.
func (w *Worker) QueueLen() int {
	return len(w.requests)
}

// Stop terminates the worker abruptly. Queued requests are discarded, the
// pipeline is released, and the response channel is closed. Embed workers
// lose their in-memory index; persistence happens only through the explicit
// snapshot boundary.
func (w *Worker) Stop() {
	w.cancel()
	<-w.done
}

func (w *Worker) setState(s State) {
	w.mu.Lock()
	w.state = s
	w.mu.Unlock()
}

func (w *Worker) run() {
	defer close(w.done)

	for {
		select {
		case <-w.ctx.Done():
			w.shutdown()
			return
		case f := <-w.control:
			f()
		case req := <-w.requests:
			w.dispatch(&req)
		}
	}
}

func (w *Worker) shutdown() {
	w.setState(StateStopped)
	if err := w.handler.close(); err != nil {
		w.logger.Warn().Err(err).Str("worker_id", w.ID).Msg("Pipeline close failed")
	}
	close(w.responses)
	w.logger.Info().Str("worker_id", w.ID).Str("task", string(w.Task)).Msg("Worker stopped")
}

// dispatch processes one request. Panics in handlers surface as error
// responses rather than tearing the worker down.
func (w *Worker) dispatch(req *models.Request) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error().
				Str("worker_id", w.ID).
				Str("request_type", string(req.Type)).
				Msgf("Recovered from handler panic: %v", r)
			w.post(models.Response{Status: models.StatusError, Error: fmt.Sprintf("internal error: %v", r)})
			if w.State() == StateBusy {
				w.setState(StateReady)
			}
		}
	}()

	if req.Type == models.RequestInit {
		w.initialize()
		return
	}

	if err := req.Validate(); err != nil {
		w.post(models.ErrorResponse(err))
		return
	}

	switch w.State() {
	case StateReady:
	case StateFailed:
		w.post(models.Response{Status: models.StatusError, Error: "model failed to load"})
		return
	default:
		w.post(models.Response{Status: models.StatusError, Error: "worker not initialized"})
		return
	}

	w.setState(StateBusy)
	resp, err := w.handler.handle(w.ctx, req)
	if err != nil {
		w.logger.Warn().
			Err(err).
			Str("worker_id", w.ID).
			Str("request_type", string(req.Type)).
			Msg("Request failed")
		w.post(models.ErrorResponse(err))
	} else {
		w.post(resp)
	}
	w.setState(StateReady)
}

// initialize loads the pipeline. Duplicate init requests are no-ops.
func (w *Worker) initialize() {
	if w.State() != StateUninitialized {
		w.logger.Debug().Str("worker_id", w.ID).Msg("Ignoring duplicate init")
		return
	}

	w.setState(StateLoading)
	w.logger.Info().Str("worker_id", w.ID).Str("task", string(w.Task)).Msg("Loading model")

	if err := w.handler.load(w.ctx, w.factory, w.reportProgress); err != nil {
		w.setState(StateFailed)
		w.logger.Error().Err(err).Str("worker_id", w.ID).Msg("Model load failed")
		w.post(models.Response{Status: models.StatusError, Error: fmt.Sprintf("model load failed: %v", err)})
		return
	}

	w.setState(StateReady)
	w.post(w.handler.ready())
}

// reportProgress forwards load progress, clamped into [0,100] and made
// monotonically non-decreasing regardless of what the loader reports.
func (w *Worker) reportProgress(pct float64) {
	w.mu.Lock()
	if pct > 100 {
		pct = 100
	}
	if pct < w.lastProgress {
		pct = w.lastProgress
	}
	w.lastProgress = pct
	w.mu.Unlock()

	w.post(models.Response{Status: models.StatusProgress, Progress: pct})
}

func (w *Worker) post(resp models.Response) {
	select {
	case w.responses <- resp:
	case <-w.ctx.Done():
	}
}

// SnapshotIndex captures the embed worker's index through its own goroutine.
// Fails for workers of any other task kind.
func (w *Worker) SnapshotIndex(ctx context.Context, id string) (*models.IndexSnapshot, error) {
	eh, ok := w.handler.(*embedHandler)
	if !ok {
		return nil, fmt.Errorf("worker %s (%s) does not own an index", w.ID, w.Task)
	}

	type result struct {
		snap *models.IndexSnapshot
		err  error
	}
	ch := make(chan result, 1)

	task := func() {
		if w.State() != StateReady {
			ch <- result{nil, fmt.Errorf("worker %s not ready", w.ID)}
			return
		}
		ch <- result{eh.snapshot(id), nil}
	}

	select {
	case w.control <- task:
	case <-w.ctx.Done():
		return nil, fmt.Errorf("worker %s is stopped", w.ID)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case r := <-ch:
		return r.snap, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// RestoreIndex replaces the embed worker's index with a snapshot, through
// its own goroutine.
func (w *Worker) RestoreIndex(ctx context.Context, snapshot *models.IndexSnapshot) error {
	eh, ok := w.handler.(*embedHandler)
	if !ok {
		return fmt.Errorf("worker %s (%s) does not own an index", w.ID, w.Task)
	}

	ch := make(chan error, 1)
	task := func() {
		if w.State() != StateReady {
			ch <- fmt.Errorf("worker %s not ready", w.ID)
			return
		}
		ch <- eh.restore(snapshot)
	}

	select {
	case w.control <- task:
	case <-w.ctx.Done():
		return fmt.Errorf("worker %s is stopped", w.ID)
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-ch:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// closePipeline releases a pipeline if it holds resources (child processes).
func closePipeline(p interface{}) error {
	if closer, ok := p.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
