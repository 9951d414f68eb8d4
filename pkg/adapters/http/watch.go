package http

import (
	"context"
	"errors"
	"time"

	"github.com/aretw0/canopy/pkg/domain"
)

// Watch polls the stored sessions every interval and publishes each tree, so SSE
// subscribers see changes written by other processes. It returns when ctx is done.
func (s *Server) Watch(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		s.poll(ctx)
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

func (s *Server) poll(ctx context.Context) {
	ids, err := s.Sessions.List(ctx)
	if err != nil {
		s.logger.Warn("Watch: list sessions failed", "err", err)
		return
	}
	listed := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		listed[id] = struct{}{}
		snap, err := s.Sessions.Load(ctx, id)
		if errors.Is(err, domain.ErrSessionNotFound) {
			s.Retract(id)
			continue
		}
		if err != nil {
			// Unreadable; retried next round.
			s.logger.Debug("Watch: load failed", "session_id", id, "err", err)
			continue
		}
		s.Publish(id, snap)
	}
	for _, id := range s.Streams.published() {
		if _, ok := listed[id]; !ok {
			s.Retract(id)
		}
	}
}
