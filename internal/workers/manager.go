package workers

import (
	"context"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/cogito/internal/common"
	"github.com/ternarybob/cogito/internal/interfaces"
	"github.com/ternarybob/cogito/internal/pipelines"
)

// Manager tracks live workers. Each connected host owns its workers for the
// length of its session; the manager exists for status reporting, scheduled
// index snapshots, and clean shutdown.
type Manager struct {
	cfg     *common.Config
	factory *pipelines.Factory
	logger  arbor.ILogger

	mu      sync.Mutex
	workers map[string]*Worker
}

// WorkerStatus is a point-in-time view of one worker for the status API.
type WorkerStatus struct {
	ID       string              `json:"id"`
	Task     interfaces.TaskKind `json:"task"`
	State    State               `json:"state"`
	QueueLen int                 `json:"queue_len"`
}

// NewManager creates a worker manager.
func NewManager(cfg *common.Config, factory *pipelines.Factory, logger arbor.ILogger) *Manager {
	return &Manager{
		cfg:     cfg,
		factory: factory,
		logger:  logger,
		workers: make(map[string]*Worker),
	}
}

// Spawn creates and registers a worker for the given task kind.
func (m *Manager) Spawn(task interfaces.TaskKind) (*Worker, error) {
	worker, err := NewWorker(task, m.cfg, m.factory, m.logger)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.workers[worker.ID] = worker
	m.mu.Unlock()
	return worker, nil
}

// Release stops a worker and removes it from the registry.
func (m *Manager) Release(worker *Worker) {
	m.mu.Lock()
	delete(m.workers, worker.ID)
	m.mu.Unlock()

	worker.Stop()
}

// Statuses returns a snapshot of all live workers.
func (m *Manager) Statuses() []WorkerStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	statuses := make([]WorkerStatus, 0, len(m.workers))
	for _, w := range m.workers {
		statuses = append(statuses, WorkerStatus{
			ID:       w.ID,
			Task:     w.Task,
			State:    w.State(),
			QueueLen: w.QueueLen(),
		})
	}
	return statuses
}

// SnapshotIndexes persists the index of every ready embed worker through the
// snapshot storage boundary. Workers that are busy or not ready are skipped;
// the next scheduled run picks them up.
func (m *Manager) SnapshotIndexes(ctx context.Context, storage interfaces.IndexSnapshotStorage, id string) {
	m.mu.Lock()
	embedWorkers := make([]*Worker, 0)
	for _, w := range m.workers {
		if w.Task == interfaces.TaskEmbedding {
			embedWorkers = append(embedWorkers, w)
		}
	}
	m.mu.Unlock()

	for _, w := range embedWorkers {
		snapshot, err := w.SnapshotIndex(ctx, id)
		if err != nil {
			m.logger.Debug().Err(err).Str("worker_id", w.ID).Msg("Skipping index snapshot")
			continue
		}
		if len(snapshot.Records) == 0 {
			continue
		}
		if err := storage.SaveSnapshot(ctx, snapshot); err != nil {
			m.logger.Warn().Err(err).Str("worker_id", w.ID).Msg("Failed to save index snapshot")
			continue
		}
		m.logger.Info().
			Str("worker_id", w.ID).
			Str("snapshot_id", snapshot.ID).
			Int("records", len(snapshot.Records)).
			Msg("Index snapshot saved")
	}
}

// StopAll stops every live worker.
func (m *Manager) StopAll() {
	m.mu.Lock()
	workers := make([]*Worker, 0, len(m.workers))
	for _, w := range m.workers {
		workers = append(workers, w)
	}
	m.workers = make(map[string]*Worker)
	m.mu.Unlock()

	for _, w := range workers {
		w.Stop()
	}
}
