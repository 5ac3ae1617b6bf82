package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/cogito/internal/app"
	"github.com/ternarybob/cogito/internal/common"
	"github.com/ternarybob/cogito/internal/models"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := common.NewDefaultConfig()
	application, err := app.New(cfg, common.GetLogger())
	require.NoError(t, err)
	t.Cleanup(func() { application.Close() })

	s := New(application)
	ts := httptest.NewServer(s.withMiddleware(s.setupRoutes()))
	t.Cleanup(ts.Close)
	return ts
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestStatusEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Mode    string        `json:"mode"`
		Workers []interface{} `json:"workers"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "mock", body.Mode)
	assert.Empty(t, body.Workers)
}

func TestWorkerSocketUnknownTask(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/ws/juggling")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWorkerSocketSession(t *testing.T) {
	ts := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/classify"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(models.Request{Type: models.RequestInit}))

	// Progress messages stream until ready.
	var resp models.Response
	for {
		require.NoError(t, conn.ReadJSON(&resp))
		if resp.Status != models.StatusProgress {
			break
		}
	}
	require.Equal(t, models.StatusReady, resp.Status)

	require.NoError(t, conn.WriteJSON(models.Request{
		Type:     models.RequestClassify,
		Classify: &models.ClassifyPayload{Text: "sunny day at the beach", Labels: []string{"weather", "politics"}},
	}))

	require.NoError(t, conn.ReadJSON(&resp))
	require.Equal(t, models.StatusComplete, resp.Status)
	assert.Len(t, resp.Classification, 2)
}
