package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/ports"
)

type redactMiddleware struct {
	next     ports.SnapshotStore
	patterns []*regexp.Regexp
}

// NewRedactMiddleware creates a middleware that drops the local state of every node
// whose path (e.g. "/pipeline/job#deploy") matches one of the patterns. Children of a
// redacted node are kept. On restore, a redacted node starts fresh.
func NewRedactMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redact pattern %q: %w", p, err)
		}
		patterns[i] = re
	}
	return func(next ports.SnapshotStore) ports.SnapshotStore {
		return &redactMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *redactMiddleware) Save(ctx context.Context, sessionID string, snapshot *domain.Snapshot) error {
	// Copy so the caller's tree is not modified.
	return m.next.Save(ctx, sessionID, m.redact(nil, snapshot))
}

func (m *redactMiddleware) Load(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *redactMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *redactMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *redactMiddleware) redact(path domain.Path, s *domain.Snapshot) *domain.Snapshot {
	if s == nil {
		return nil
	}
	out := &domain.Snapshot{State: s.State}
	if m.matches(path.String()) {
		out.State = nil
	}
	if len(s.Children) > 0 {
		out.Children = make([]domain.ChildSnapshot, len(s.Children))
		for i, c := range s.Children {
			out.Children[i] = domain.ChildSnapshot{ID: c.ID, Snapshot: m.redact(path.Child(c.ID), c.Snapshot)}
		}
	}
	return out
}

func (m *redactMiddleware) matches(path string) bool {
	for _, p := range m.patterns {
		if p.MatchString(path) {
			return true
		}
	}
	return false
}
