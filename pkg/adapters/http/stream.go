package http

import (
	"log/slog"
	"sync"

	"github.com/aretw0/canopy/pkg/domain"
)

// StreamManager handles active SSE connections and the last tree seen per session.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // SessionID -> Set of Channels
	last        map[string]*domain.Snapshot
	logger      *slog.Logger
}

func NewStreamManager(logger *slog.Logger) *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		last:        make(map[string]*domain.Snapshot),
		logger:      logger,
	}
}

func (sm *StreamManager) Subscribe(sessionID string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[sessionID]; !ok {
		sm.subscribers[sessionID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[sessionID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[sessionID]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, sessionID)
			}
		}
	}
}

func (sm *StreamManager) Broadcast(sessionID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[sessionID] {
		select {
		case ch <- msg:
		default:
			// Drop message if channel is full (slow client)
			sm.logger.Warn("SSE: Client buffer full, dropping message", "session_id", sessionID)
		}
	}
}

// advance swaps in snap as the latest tree and returns its diff against the previous one.
func (sm *StreamManager) advance(sessionID string, snap *domain.Snapshot) *domain.SnapshotDiff {
	sm.mu.Lock()
	prev := sm.last[sessionID]
	sm.last[sessionID] = snap
	sm.mu.Unlock()
	return domain.DiffSnapshots(prev, snap)
}

// forget drops the latest tree of sessionID and returns its removal diff, which is
// empty if nothing was published for it.
func (sm *StreamManager) forget(sessionID string) *domain.SnapshotDiff {
	sm.mu.Lock()
	prev, ok := sm.last[sessionID]
	delete(sm.last, sessionID)
	sm.mu.Unlock()
	if !ok {
		return &domain.SnapshotDiff{}
	}
	return domain.DiffSnapshots(prev, nil)
}

// published lists the sessions with a recorded tree.
func (sm *StreamManager) published() []string {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	ids := make([]string, 0, len(sm.last))
	for id := range sm.last {
		ids = append(ids, id)
	}
	return ids
}
