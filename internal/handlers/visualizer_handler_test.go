package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/killuadb/schemamap/internal/handlers"
	"github.com/killuadb/schemamap/internal/models"
	"github.com/killuadb/schemamap/internal/repositories"
	"github.com/killuadb/schemamap/internal/routes"
	"github.com/killuadb/schemamap/internal/services"
)

// schemaEndpoint serves a mutable schema payload.
type schemaEndpoint struct {
	mu     sync.Mutex
	status int
	schema models.Schema
}

func (e *schemaEndpoint) set(status int, schema models.Schema) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.status = status
	e.schema = schema
}

func (e *schemaEndpoint) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.status != http.StatusOK {
		w.WriteHeader(e.status)
		return
	}
	_ = json.NewEncoder(w).Encode(e.schema)
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type testServer struct {
	router   *gin.Engine
	endpoint *schemaEndpoint
	sessions *services.SessionService
}

func blogSchema() models.Schema {
	return models.Schema{
		Tables: []models.Table{
			{Name: "users", Columns: []models.Column{{Name: "id", Type: "uuid"}, {Name: "email", Type: "text"}}},
			{Name: "posts", Columns: []models.Column{{Name: "id", Type: "uuid"}, {Name: "user_id", Type: "uuid"}}},
		},
		Relationships: []models.Relationship{{FromTable: "posts", ToTable: "users", FromColumn: "user_id", ToColumn: "id"}},
	}
}

func newTestServer(t *testing.T, status int, schema models.Schema) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	endpoint := &schemaEndpoint{status: status, schema: schema}
	upstream := httptest.NewServer(endpoint)
	t.Cleanup(upstream.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	source := repositories.NewSchemaRepository(upstream.URL, "", time.Second)
	sessions := services.NewSessionService(source, repositories.NewMemoryLayoutRepository(), upstream.URL, time.Second, logger)
	t.Cleanup(sessions.Close)

	router := gin.New()
	routes.RegisterRoutes(router, handlers.NewVisualizerHandler(sessions, logger), sessions)

	return &testServer{router: router, endpoint: endpoint, sessions: sessions}
}

func (s *testServer) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func (s *testServer) createSession(t *testing.T) services.Snapshot {
	t.Helper()
	w, env := s.do(t, http.MethodPost, "/api/v1/sessions?wait=true", nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var snap services.Snapshot
	require.NoError(t, json.Unmarshal(env.Data, &snap))
	return snap
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, http.StatusOK, blogSchema())

	w, _ := s.do(t, http.MethodGet, "/", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestCreateAndGetSession(t *testing.T) {
	s := newTestServer(t, http.StatusOK, blogSchema())

	snap := s.createSession(t)
	assert.Equal(t, services.StatusLoaded, snap.Status)
	assert.Equal(t, 2, snap.Tables)
	assert.Equal(t, 1, snap.Relationships)

	w, env := s.do(t, http.MethodGet, "/api/v1/sessions/"+snap.ID.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "success", env.Status)
}

func TestSessionLookupErrors(t *testing.T) {
	s := newTestServer(t, http.StatusOK, blogSchema())

	w, env := s.do(t, http.MethodGet, "/api/v1/sessions/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "error", env.Status)

	w, _ = s.do(t, http.MethodGet, "/api/v1/sessions/6f1c1d6e-0d7e-4a7b-9b1a-2c2f4c1f0e11", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteSession(t *testing.T) {
	s := newTestServer(t, http.StatusOK, blogSchema())
	snap := s.createSession(t)
	path := "/api/v1/sessions/" + snap.ID.String()

	w, _ := s.do(t, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(t, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSceneAndEvents(t *testing.T) {
	s := newTestServer(t, http.StatusOK, blogSchema())
	path := "/api/v1/sessions/" + s.createSession(t).ID.String()

	w, _ := s.do(t, http.MethodPost, path+"/events", map[string]any{"kind": "search", "term": "USE"})
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(t, http.MethodPost, path+"/events", map[string]any{"kind": "wheel", "delta_y": -5000, "modifier": true})
	require.Equal(t, http.StatusOK, w.Code)

	_, env := s.do(t, http.MethodGet, path+"/scene", nil)
	var data struct {
		Status string `json:"status"`
		Scene  struct {
			Scale   float64  `json:"scale"`
			Matches int     `json:"matches"`
			Nodes   []struct {
				Table       string `json:"table"`
				Highlighted bool   `json:"highlighted"`
			} `json:"nodes"`
			Edges []struct {
				D string `json:"d"`
			} `json:"edges"`
		} `json:"scene"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))

	assert.Equal(t, "loaded", data.Status)
	assert.Equal(t, models.MaxScale, data.Scene.Scale)
	assert.Equal(t, 1, data.Scene.Matches)
	require.Len(t, data.Scene.Nodes, 2)
	assert.Equal(t, "users", data.Scene.Nodes[0].Table)
	assert.True(t, data.Scene.Nodes[0].Highlighted)
	assert.False(t, data.Scene.Nodes[1].Highlighted)
	require.Len(t, data.Scene.Edges, 1)
	assert.True(t, strings.HasPrefix(data.Scene.Edges[0].D, "M "))
}

func TestApplyEventRejectsBadInput(t *testing.T) {
	s := newTestServer(t, http.StatusOK, blogSchema())
	path := "/api/v1/sessions/" + s.createSession(t).ID.String() + "/events"

	w, _ := s.do(t, http.MethodPost, path, map[string]any{"term": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(t, http.MethodPost, path, map[string]any{"kind": "pinch"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRefreshFailureThenRecovery(t *testing.T) {
	s := newTestServer(t, http.StatusInternalServerError, models.Schema{})
	snap := s.createSession(t)
	assert.Equal(t, services.StatusError, snap.Status)
	assert.NotEmpty(t, snap.Error)
	path := "/api/v1/sessions/" + snap.ID.String()

	w, _ := s.do(t, http.MethodGet, path+"/export.svg", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = s.do(t, http.MethodPost, path+"/refresh", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)

	s.endpoint.set(http.StatusOK, blogSchema())
	w, env := s.do(t, http.MethodPost, path+"/refresh", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var after services.Snapshot
	require.NoError(t, json.Unmarshal(env.Data, &after))
	assert.Equal(t, services.StatusLoaded, after.Status)
	assert.Equal(t, 2, after.Tables)
}

func TestExports(t *testing.T) {
	s := newTestServer(t, http.StatusOK, blogSchema())
	path := "/api/v1/sessions/" + s.createSession(t).ID.String()

	w, _ := s.do(t, http.MethodGet, path+"/export.svg", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/svg+xml", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="schema-map.svg"`, w.Header().Get("Content-Disposition"))
	assert.Contains(t, w.Body.String(), `data-table="users"`)

	w, _ = s.do(t, http.MethodGet, path+"/export.mmd", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "erDiagram")
	assert.Contains(t, w.Body.String(), "POSTS }o--|| USERS")
}

func TestLayoutSaveResetRestore(t *testing.T) {
	s := newTestServer(t, http.StatusOK, blogSchema())
	path := "/api/v1/sessions/" + s.createSession(t).ID.String()

	w, env := s.do(t, http.MethodPost, path+"/layout/restore", nil)
	assert.Equal(t, http.StatusNotFound, w.Code, env.Message)

	for _, ev := range []map[string]any{
		{"kind": "pointer_down", "table": "users", "pointer": map[string]float64{"x": 0, "y": 0}},
		{"kind": "pointer_move", "pointer": map[string]float64{"x": 20, "y": 30}},
		{"kind": "pointer_up"},
	} {
		w, _ = s.do(t, http.MethodPost, path+"/events", ev)
		require.Equal(t, http.StatusOK, w.Code)
	}

	w, _ = s.do(t, http.MethodPut, path+"/layout", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, env = s.do(t, http.MethodPost, path+"/layout/reset", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var reset struct {
		Positions map[string]models.Point `json:"positions"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &reset))
	assert.Equal(t, models.Point{X: 100, Y: 100}, reset.Positions["users"])

	w, env = s.do(t, http.MethodPost, path+"/layout/restore", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"restored":2}`, string(env.Data))

	// A new session picks up the saved layout.
	next := s.createSession(t)
	v, err := s.sessions.Get(next.ID)
	require.NoError(t, err)
	assert.Equal(t, models.Point{X: 120, Y: 130}, v.Positions()["users"])

	w, _ = s.do(t, http.MethodDelete, path+"/layout", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(t, http.MethodPost, path+"/layout/restore", nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "deleted layout is gone")
}

func TestStream(t *testing.T) {
	s := newTestServer(t, http.StatusOK, blogSchema())
	snap := s.createSession(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/"+snap.ID.String()+"/stream", nil)
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.router.ServeHTTP(w, req)
	}()

	// Deleting the session ends the stream.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, s.sessions.Delete(snap.ID))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not end")
	}

	assert.Contains(t, w.Header().Get("Content-Type"), "text/event-stream")
	assert.Contains(t, w.Body.String(), "datastar-patch-elements")
	assert.Contains(t, w.Body.String(), `id="schema-map"`)
}
