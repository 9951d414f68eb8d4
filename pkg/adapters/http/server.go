package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/canopy/internal/logging"
	"github.com/aretw0/canopy/internal/presentation/graph"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:generate go tool oapi-codegen -package http -generate types,chi-server,spec -o api.gen.go ../../../api/openapi.yaml

// Server implements the generated ServerInterface over stored session snapshots.
type Server struct {
	Sessions *session.Manager
	Streams  *StreamManager

	version  string
	gatherer prometheus.Gatherer
	logger   *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithMetrics mounts /metrics serving the given gatherer.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithVersion sets the version reported by /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// WithLogger configures a logger for the Server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a Server reading sessions through sessions.
func NewServer(sessions *session.Manager, opts ...Option) *Server {
	s := &Server{
		Sessions: sessions,
		version:  "dev",
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams = NewStreamManager(s.logger)
	return s
}

// Ensure Server implements ServerInterface
var _ ServerInterface = (*Server)(nil)

// Handler builds the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		spec, err := rawSpec()
		if err != nil {
			http.Error(w, "Failed to load spec", http.StatusInternalServerError)
			s.logger.Error("Failed to load OpenAPI spec", "err", err)
			return
		}
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(spec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(swaggerHTML))
	})
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	return enableCORS(HandlerFromMux(s, r))
}

// NewHandler creates a new HTTP handler for the session manager.
func NewHandler(sessions *session.Manager, opts ...Option) http.Handler {
	return NewServer(sessions, opts...).Handler()
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Canopy Inspection API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, HealthResponse{Status: "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if swagger, err := GetSwagger(); err == nil && swagger.Info != nil {
		apiVersion = swagger.Info.Version
	}
	s.writeJSON(w, InfoResponse{
		App:        "canopy-http",
		Version:    strings.TrimSpace(s.version),
		ApiVersion: apiVersion,
	})
}

// ListSessions handles the GET /sessions request.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Sessions.List(r.Context())
	if err != nil {
		s.fail(w, "List", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, SessionList{Sessions: ids})
}

// GetSession handles the GET /sessions/{id} request.
// With ?format=cbor it returns the encoded snapshot instead of its JSON tree.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request, id SessionID, params GetSessionParams) {
	snap, ok := s.load(w, r, id)
	if !ok {
		return
	}
	if params.Format != nil && *params.Format == Cbor {
		data, err := snap.Encode()
		if err != nil {
			s.fail(w, "Encode", err)
			return
		}
		w.Header().Set("Content-Type", "application/cbor")
		_, _ = w.Write(data)
		return
	}
	s.writeJSON(w, mapSnapshotFromDomain(snap))
}

// DeleteSession handles the DELETE /sessions/{id} request.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request, id SessionID) {
	if err := s.Sessions.Delete(r.Context(), id); err != nil {
		s.fail(w, "Delete", err)
		return
	}
	s.Retract(id)
	w.WriteHeader(http.StatusNoContent)
}

// GetSessionGraph handles the GET /sessions/{id}/graph request.
// With ?against=<other> the nodes that differ from the other session are highlighted.
func (s *Server) GetSessionGraph(w http.ResponseWriter, r *http.Request, id SessionID, params GetSessionGraphParams) {
	snap, ok := s.load(w, r, id)
	if !ok {
		return
	}
	var overlay *graph.GraphOverlay
	if params.Against != nil && *params.Against != "" {
		base, ok := s.load(w, r, *params.Against)
		if !ok {
			return
		}
		overlay = graph.OverlayFromDiff(domain.DiffSnapshots(base, snap))
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(graph.GenerateMermaid(snap, overlay)))
}

// GetSessionDiff handles the GET /sessions/{id}/diff?against=<other> request.
func (s *Server) GetSessionDiff(w http.ResponseWriter, r *http.Request, id SessionID, params GetSessionDiffParams) {
	base, ok := s.load(w, r, params.Against)
	if !ok {
		return
	}
	snap, ok := s.load(w, r, id)
	if !ok {
		return
	}
	s.writeJSON(w, mapDiffFromDomain(domain.DiffSnapshots(base, snap)))
}

// SubscribeEvents handles the GET /sessions/{id}/events request (SSE).
// Every Publish for the session that changes its tree is sent as a JSON diff.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request, sessionID SessionID) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe(sessionID)
	defer cancel()

	s.logger.Info("SSE: Subscribing to Session Updates", "session_id", sessionID)
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE Client Disconnected", "session_id", sessionID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// Publish records snap as the latest tree of sessionID and broadcasts the diff
// against the previously published tree, if any node changed.
func (s *Server) Publish(sessionID string, snap *domain.Snapshot) {
	s.broadcastDiff(sessionID, s.Streams.advance(sessionID, snap))
}

// Retract forgets the published tree of a deleted session and broadcasts every
// node of it as removed.
func (s *Server) Retract(sessionID string) {
	s.broadcastDiff(sessionID, s.Streams.forget(sessionID))
}

func (s *Server) broadcastDiff(sessionID string, diff *domain.SnapshotDiff) {
	if diff.IsEmpty() {
		return
	}
	payload, err := json.Marshal(mapDiffFromDomain(diff))
	if err != nil {
		s.logger.Error("Publish: diff encode failed", "session_id", sessionID, "err", err)
		return
	}
	s.Streams.Broadcast(sessionID, string(payload))
}

func (s *Server) load(w http.ResponseWriter, r *http.Request, id string) (*domain.Snapshot, bool) {
	snap, err := s.Sessions.Load(r.Context(), id)
	if err != nil {
		s.fail(w, "Load", err)
		return nil, false
	}
	return snap, true
}

func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, domain.ErrSessionNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if errors.Is(err, domain.ErrMalformedSnapshot) {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		s.logger.Warn(op+" failed", "err", err)
		return
	}
	http.Error(w, fmt.Sprintf("%s error: %v", op, err), http.StatusInternalServerError)
	s.logger.Error(op+" failed", "err", err)
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

func mapSnapshotFromDomain(d *domain.Snapshot) Snapshot {
	s := Snapshot{}
	if d == nil {
		return s
	}
	if d.State != nil {
		s.State = ptr(d.State)
	}
	if len(d.Children) > 0 {
		children := make([]ChildSnapshot, len(d.Children))
		for i, c := range d.Children {
			children[i] = ChildSnapshot{
				Id:       mapIdentityFromDomain(c.ID),
				Snapshot: mapSnapshotFromDomain(c.Snapshot),
			}
		}
		s.Children = &children
	}
	return s
}

func mapIdentityFromDomain(d domain.Identity) Identity {
	id := Identity{Type: string(d.Type)}
	if d.Key != "" {
		id.Key = ptr(d.Key)
	}
	return id
}

func mapDiffFromDomain(d *domain.SnapshotDiff) SnapshotDiff {
	if d == nil || len(d.Changes) == 0 {
		return SnapshotDiff{}
	}
	changes := make([]NodeChange, len(d.Changes))
	for i, c := range d.Changes {
		changes[i] = NodeChange{Path: c.Path, Kind: ChangeKind(c.Kind)}
	}
	return SnapshotDiff{Changes: &changes}
}

func ptr[T any](v T) *T {
	return &v
}
