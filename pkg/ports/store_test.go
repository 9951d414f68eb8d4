package ports_test

import (
	"context"
	"sync"
	"testing"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/ports"
)

// MockStore keeps encoded snapshots in a map, like a real backend would.
type MockStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMockStore() *MockStore {
	return &MockStore{data: make(map[string][]byte)}
}

func (m *MockStore) Save(ctx context.Context, sessionID string, snapshot *domain.Snapshot) error {
	data, err := snapshot.Encode()
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[sessionID] = data
	return nil
}

func (m *MockStore) Load(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	m.mu.Lock()
	data, ok := m.data[sessionID]
	m.mu.Unlock()
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return domain.ParseSnapshot(data)
}

func (m *MockStore) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, sessionID)
	return nil
}

func (m *MockStore) List(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.data))
	for id := range m.data {
		ids = append(ids, id)
	}
	return ids, nil
}

func TestSnapshotStore_Contract(t *testing.T) {
	ports.RunSnapshotStoreContract(t, NewMockStore())
}
