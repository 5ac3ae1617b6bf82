package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/cogito/internal/interfaces"
	"github.com/ternarybob/cogito/internal/models"
	"github.com/ternarybob/cogito/internal/workers"
)

// session lazily spawns one worker per task kind and exposes a synchronous
// request/response call over the worker protocol. MCP tool calls are
// serialized per session; the workers' own queues handle nothing here.
type session struct {
	manager *workers.Manager
	logger  arbor.ILogger

	mu     sync.Mutex
	byTask map[interfaces.TaskKind]*workers.Worker
}

func newSession(manager *workers.Manager, logger arbor.ILogger) *session {
	return &session{
		manager: manager,
		logger:  logger,
		byTask:  make(map[interfaces.TaskKind]*workers.Worker),
	}
}

// worker returns the session's worker for a task kind, initializing it on
// first use. Must be called with s.mu held.
func (s *session) worker(ctx context.Context, task interfaces.TaskKind) (*workers.Worker, error) {
	if w, ok := s.byTask[task]; ok {
		return w, nil
	}

	w, err := s.manager.Spawn(task)
	if err != nil {
		return nil, err
	}
	if err := w.Send(models.Request{Type: models.RequestInit}); err != nil {
		s.manager.Release(w)
		return nil, err
	}

	// Drain progress until the ready envelope arrives.
	for {
		select {
		case resp, ok := <-w.Responses():
			if !ok {
				s.manager.Release(w)
				return nil, fmt.Errorf("worker stopped during init")
			}
			switch resp.Status {
			case models.StatusProgress:
			case models.StatusReady:
				s.byTask[task] = w
				return w, nil
			case models.StatusError:
				s.manager.Release(w)
				return nil, fmt.Errorf("%s", resp.Error)
			}
		case <-ctx.Done():
			s.manager.Release(w)
			return nil, ctx.Err()
		}
	}
}

// call sends one request and waits for its terminal response. Add requests
// terminate with a ready envelope; everything else with complete or error.
func (s *session) call(ctx context.Context, task interfaces.TaskKind, req models.Request) (models.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, err := s.worker(ctx, task)
	if err != nil {
		return models.Response{}, err
	}
	if err := w.Send(req); err != nil {
		return models.Response{}, err
	}

	for {
		select {
		case resp, ok := <-w.Responses():
			if !ok {
				return models.Response{}, fmt.Errorf("worker stopped")
			}
			switch resp.Status {
			case models.StatusProgress:
			case models.StatusError:
				return models.Response{}, fmt.Errorf("%s", resp.Error)
			default:
				return resp, nil
			}
		case <-ctx.Done():
			return models.Response{}, ctx.Err()
		}
	}
}
