package http

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/canopy/pkg/adapters/memory"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leaf(key, state string) domain.ChildSnapshot {
	return domain.ChildSnapshot{
		ID:       domain.NewIdentity("leaf", key),
		Snapshot: &domain.Snapshot{State: []byte(state)},
	}
}

func newTestServer(t *testing.T, opts ...Option) (*Server, *session.Manager) {
	t.Helper()
	mgr := session.NewManager(memory.NewStore())
	ctx := context.Background()
	require.NoError(t, mgr.Save(ctx, "s1", &domain.Snapshot{State: []byte("root"), Children: []domain.ChildSnapshot{leaf("a", "1")}}))
	require.NoError(t, mgr.Save(ctx, "s2", &domain.Snapshot{State: []byte("root"), Children: []domain.ChildSnapshot{leaf("a", "2"), leaf("b", "1")}}))
	return NewServer(mgr, opts...), mgr
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", target, nil))
	return w
}

func TestServer_ListSessions(t *testing.T) {
	s, _ := newTestServer(t)
	w := get(t, s.Handler(), "/sessions")

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string][]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, []string{"s1", "s2"}, body["sessions"])
}

func TestServer_GetSession(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Handler()

	w := get(t, h, "/sessions/s1")
	require.Equal(t, http.StatusOK, w.Code)
	var snap domain.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, []byte("root"), snap.State)
	require.Len(t, snap.Children, 1)
	assert.Equal(t, domain.NewIdentity("leaf", "a"), snap.Children[0].ID)

	w = get(t, h, "/sessions/s1?format=cbor")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/cbor", w.Header().Get("Content-Type"))
	decoded, err := domain.ParseSnapshot(w.Body.Bytes())
	require.NoError(t, err)
	assert.True(t, decoded.Equal(&snap))

	w = get(t, h, "/sessions/missing")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_GraphAndDiff(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Handler()

	w := get(t, h, "/sessions/s2/graph")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "graph TD"))
	assert.NotContains(t, w.Body.String(), "classDef")

	w = get(t, h, "/sessions/s2/graph?against=s1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "class n1 modified;")
	assert.Contains(t, w.Body.String(), "class n2 added;")

	w = get(t, h, "/sessions/s2/diff?against=s1")
	require.Equal(t, http.StatusOK, w.Code)
	var diff domain.SnapshotDiff
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &diff))
	assert.Equal(t, []domain.NodeChange{
		{Path: "/leaf#a", Kind: domain.ChangeModified},
		{Path: "/leaf#b", Kind: domain.ChangeAdded},
	}, diff.Changes)

	w = get(t, h, "/sessions/s2/diff")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServer_DeleteSession(t *testing.T) {
	s, mgr := newTestServer(t)
	h := s.Handler()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("DELETE", "/sessions/s1", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	snap, err := mgr.LoadIfExists(context.Background(), "s1")
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestServer_CORSAndInfo(t *testing.T) {
	s, _ := newTestServer(t, WithVersion("1.2.3\n"))
	h := s.Handler()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("OPTIONS", "/sessions", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = get(t, h, "/info")
	assert.JSONEq(t, `{"app":"canopy-http","version":"1.2.3","api_version":"0.1.0"}`, w.Body.String())
}

func TestServer_OpenAPI(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Handler()

	w := get(t, h, "/openapi.yaml")
	require.Equal(t, http.StatusOK, w.Code)
	spec, err := GetSwagger()
	require.NoError(t, err)
	assert.Equal(t, "0.1.0", spec.Info.Version)
	for _, path := range []string{"/health", "/info", "/sessions", "/sessions/{id}", "/sessions/{id}/graph", "/sessions/{id}/diff", "/sessions/{id}/events"} {
		assert.NotNil(t, spec.Paths.Find(path), path)
	}

	w = get(t, h, "/swagger")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/openapi.yaml")

	w = get(t, h, "/sessions/s2/diff")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "against")
}

func TestServer_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "canopy_test_total", Help: "test"})
	reg.MustRegister(c)
	c.Inc()

	s, _ := newTestServer(t, WithMetrics(reg))
	w := get(t, s.Handler(), "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "canopy_test_total 1")

	plain, _ := newTestServer(t)
	assert.Equal(t, http.StatusNotFound, get(t, plain.Handler(), "/metrics").Code)
}

func TestServer_SubscribeEvents(t *testing.T) {
	s, _ := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, "GET", ts.URL+"/sessions/live/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	readData := func() string {
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			if strings.HasPrefix(line, "data: ") {
				return strings.TrimSpace(strings.TrimPrefix(line, "data: "))
			}
		}
	}

	// The ping is written after the subscription is registered.
	assert.Equal(t, "connected", readData())

	first := &domain.Snapshot{State: []byte("x")}
	s.Publish("live", first)
	s.Publish("live", first) // unchanged, not broadcast
	s.Publish("other", first)
	s.Publish("live", &domain.Snapshot{State: []byte("y")})

	assert.JSONEq(t, `{"changes":[{"path":"/","kind":"added"}]}`, readData())
	assert.JSONEq(t, `{"changes":[{"path":"/","kind":"modified"}]}`, readData())
}
