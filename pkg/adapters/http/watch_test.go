package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan string) domain.SnapshotDiff {
	t.Helper()
	select {
	case msg := <-ch:
		var diff domain.SnapshotDiff
		require.NoError(t, json.Unmarshal([]byte(msg), &diff))
		return diff
	case <-time.After(time.Second):
		t.Fatal("no diff broadcast")
		return domain.SnapshotDiff{}
	}
}

func TestServer_PollPublishesChanges(t *testing.T) {
	s, mgr := newTestServer(t)
	ctx := context.Background()
	ch, cancel := s.Streams.Subscribe("s1")
	defer cancel()

	s.poll(ctx)
	first := receive(t, ch)
	assert.Equal(t, []domain.NodeChange{
		{Path: "/", Kind: domain.ChangeAdded},
		{Path: "/leaf#a", Kind: domain.ChangeAdded},
	}, first.Changes)

	// Nothing changed: nothing is sent.
	s.poll(ctx)
	select {
	case msg := <-ch:
		t.Fatalf("unexpected broadcast: %s", msg)
	default:
	}

	require.NoError(t, mgr.Save(ctx, "s1", &domain.Snapshot{State: []byte("root")}))
	s.poll(ctx)
	assert.Equal(t, []domain.NodeChange{
		{Path: "/leaf#a", Kind: domain.ChangeRemoved},
	}, receive(t, ch).Changes)
}

func TestServer_WatchStopsWithContext(t *testing.T) {
	s, _ := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Watch(ctx, 10*time.Millisecond)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Watch did not return")
	}
}

func TestServer_PollRetractsDeletedSessions(t *testing.T) {
	s, mgr := newTestServer(t)
	ctx := context.Background()
	ch, cancel := s.Streams.Subscribe("s1")
	defer cancel()

	s.poll(ctx)
	receive(t, ch)
	assert.ElementsMatch(t, []string{"s1", "s2"}, s.Streams.published())

	require.NoError(t, mgr.Delete(ctx, "s1"))
	s.poll(ctx)
	assert.Equal(t, []domain.NodeChange{
		{Path: "/", Kind: domain.ChangeRemoved},
		{Path: "/leaf#a", Kind: domain.ChangeRemoved},
	}, receive(t, ch).Changes)
	assert.Equal(t, []string{"s2"}, s.Streams.published())

	// Already forgotten: nothing more is sent.
	s.poll(ctx)
	select {
	case msg := <-ch:
		t.Fatalf("unexpected broadcast: %s", msg)
	default:
	}
}

func TestServer_DeleteRetractsSession(t *testing.T) {
	s, _ := newTestServer(t)
	s.poll(context.Background())
	ch, cancel := s.Streams.Subscribe("s2")
	defer cancel()

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest("DELETE", "/sessions/s2", nil))
	require.Equal(t, http.StatusNoContent, w.Code)

	diff := receive(t, ch)
	require.Len(t, diff.Changes, 3)
	for _, c := range diff.Changes {
		assert.Equal(t, domain.ChangeRemoved, c.Kind)
	}
	assert.Equal(t, []string{"s1"}, s.Streams.published())
}
