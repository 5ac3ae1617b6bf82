package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ternarybob/cogito/internal/common"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// WebSocket route - one worker session per connection
	mux.HandleFunc("/ws/", s.handleWorkerSocket)

	// API routes - System
	mux.HandleFunc("/api/health", s.healthHandler)
	mux.HandleFunc("/api/version", s.versionHandler)
	mux.HandleFunc("/api/status", s.statusHandler)

	// API routes - Index snapshots
	mux.HandleFunc("/api/snapshots", s.listSnapshotsHandler)
	mux.HandleFunc("/api/snapshots/", s.snapshotHandler)

	// Health alias for load balancers
	mux.HandleFunc("/health", s.healthHandler)

	return mux
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) versionHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"version": common.Version,
		"build":   common.Build,
		"commit":  common.GitCommit,
	})
}

func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"environment": s.app.Config.Environment,
		"mode":        s.app.Config.Pipelines.Mode,
		"workers":     s.app.Manager.Statuses(),
	})
}

func (s *Server) listSnapshotsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.app.SnapshotStorage == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"snapshots": []string{}})
		return
	}

	ids, err := s.app.SnapshotStorage.ListSnapshots(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"snapshots": ids})
}

// snapshotHandler serves GET and DELETE for /api/snapshots/{id}.
func (s *Server) snapshotHandler(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/snapshots/")
	if id == "" {
		http.Error(w, "snapshot id required", http.StatusBadRequest)
		return
	}
	if s.app.SnapshotStorage == nil {
		http.Error(w, "snapshot storage disabled", http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodGet:
		snapshot, err := s.app.SnapshotStorage.LoadSnapshot(r.Context(), id)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		// Vectors are bulky and of no use to API consumers; report stats.
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"id":        snapshot.ID,
			"records":   len(snapshot.Records),
			"dimension": snapshot.Dimension,
			"saved_at":  snapshot.SavedAt,
		})
	case http.MethodDelete:
		if err := s.app.SnapshotStorage.DeleteSnapshot(r.Context(), id); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
