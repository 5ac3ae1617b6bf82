package server

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/ternarybob/cogito/internal/interfaces"
	"github.com/ternarybob/cogito/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

var taskRoutes = map[string]interfaces.TaskKind{
	"classify":   interfaces.TaskClassification,
	"sentiment":  interfaces.TaskSentiment,
	"generate":   interfaces.TaskGeneration,
	"embed":      interfaces.TaskEmbedding,
	"detect":     interfaces.TaskDetection,
	"transcribe": interfaces.TaskTranscription,
}

// handleWorkerSocket bridges one WebSocket connection to one worker. The
// path selects the task kind (/ws/classify, /ws/embed, ...). Incoming JSON
// messages are request envelopes; everything the worker posts streams back
// as response envelopes. Closing the connection terminates the worker and
// discards its state.
func (s *Server) handleWorkerSocket(w http.ResponseWriter, r *http.Request) {
	taskName := strings.TrimPrefix(r.URL.Path, "/ws/")
	task, ok := taskRoutes[taskName]
	if !ok {
		http.Error(w, "unknown task: "+taskName, http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.app.Logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	worker, err := s.app.Manager.Spawn(task)
	if err != nil {
		s.app.Logger.Error().Err(err).Str("task", taskName).Msg("Failed to spawn worker")
		_ = conn.WriteJSON(models.Response{Status: models.StatusError, Error: err.Error()})
		return
	}
	defer s.app.Manager.Release(worker)

	s.app.Logger.Info().
		Str("worker_id", worker.ID).
		Str("task", taskName).
		Str("remote", r.RemoteAddr).
		Msg("Worker session opened")

	// Writer: forward every worker response until the worker stops or the
	// connection breaks.
	writeDone := make(chan struct{})
	go func() {
		defer close(writeDone)
		for resp := range worker.Responses() {
			if err := conn.WriteJSON(resp); err != nil {
				s.app.Logger.Debug().Err(err).Str("worker_id", worker.ID).Msg("WebSocket write failed")
				return
			}
		}
	}()

	// Reader: decode request envelopes and enqueue them.
	for {
		var req models.Request
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.app.Logger.Debug().Err(err).Str("worker_id", worker.ID).Msg("WebSocket read failed")
			}
			break
		}

		if err := worker.Send(req); err != nil {
			if writeErr := conn.WriteJSON(models.ErrorResponse(err)); writeErr != nil {
				break
			}
		}
	}

	s.app.Logger.Info().Str("worker_id", worker.ID).Msg("Worker session closed")
}
