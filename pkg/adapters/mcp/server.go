package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/canopy/internal/logging"
	"github.com/aretw0/canopy/internal/presentation/graph"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// SessionsURI is the resource listing the stored sessions.
const SessionsURI = "canopy://sessions"

// SessionList is the result of list_sessions.
type SessionList struct {
	Sessions []string `json:"sessions" jsonschema_description:"Stored session IDs, sorted"`
}

// SessionArgs names one stored session.
type SessionArgs struct {
	ID string `json:"id"`
}

// DiffArgs names the two sessions of a diff.
type DiffArgs struct {
	ID      string `json:"id"`
	Against string `json:"against"`
}

// Server exposes the stored sessions of a session.Manager as MCP tools.
type Server struct {
	sessions  *session.Manager
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures a logger for the Server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(sessions *session.Manager, version string, opts ...Option) *Server {
	s := &Server{
		sessions:  sessions,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("canopy-mcp", strings.TrimSpace(version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops it when ctx
// is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_sessions",
		mcp.WithDescription("List the IDs of the stored workflow sessions."),
		mcp.WithOutputSchema[SessionList](),
	), mcp.NewStructuredToolHandler(s.handleListSessions))

	s.mcpServer.AddTool(mcp.NewTool("inspect_session",
		mcp.WithDescription("Read the snapshot tree of a stored session."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithOutputSchema[domain.Snapshot](),
	), mcp.NewStructuredToolHandler(s.handleInspectSession))

	s.mcpServer.AddTool(mcp.NewTool("diff_sessions",
		mcp.WithDescription("List the nodes of a session tree that differ from another session."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithString("against", mcp.Required(), mcp.Description("Session compared against")),
		mcp.WithOutputSchema[domain.SnapshotDiff](),
	), mcp.NewStructuredToolHandler(s.handleDiffSessions))

	s.mcpServer.AddTool(mcp.NewTool("session_graph",
		mcp.WithDescription("Render a session tree as a Mermaid flowchart. With 'against', changed nodes are highlighted."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithString("against", mcp.Description("Session compared against (optional)")),
	), s.handleSessionGraph)
}

func (s *Server) handleListSessions(ctx context.Context, _ mcp.CallToolRequest, _ map[string]any) (SessionList, error) {
	ids, err := s.sessions.List(ctx)
	if err != nil {
		return SessionList{}, fmt.Errorf("list sessions: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}
	return SessionList{Sessions: ids}, nil
}

func (s *Server) handleInspectSession(ctx context.Context, _ mcp.CallToolRequest, args SessionArgs) (domain.Snapshot, error) {
	snap, err := s.load(ctx, args.ID)
	if err != nil {
		return domain.Snapshot{}, err
	}
	return *snap, nil
}

func (s *Server) handleDiffSessions(ctx context.Context, _ mcp.CallToolRequest, args DiffArgs) (domain.SnapshotDiff, error) {
	if args.Against == "" {
		return domain.SnapshotDiff{}, errors.New("missing 'against' session")
	}
	base, err := s.load(ctx, args.Against)
	if err != nil {
		return domain.SnapshotDiff{}, err
	}
	snap, err := s.load(ctx, args.ID)
	if err != nil {
		return domain.SnapshotDiff{}, err
	}
	return *domain.DiffSnapshots(base, snap), nil
}

func (s *Server) handleSessionGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap, err := s.load(ctx, request.GetString("id", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var overlay *graph.GraphOverlay
	if against := request.GetString("against", ""); against != "" {
		base, err := s.load(ctx, against)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		overlay = graph.OverlayFromDiff(domain.DiffSnapshots(base, snap))
	}
	return mcp.NewToolResultText(graph.GenerateMermaid(snap, overlay)), nil
}

func (s *Server) load(ctx context.Context, id string) (*domain.Snapshot, error) {
	if id == "" {
		return nil, errors.New("missing session id")
	}
	snap, err := s.sessions.Load(ctx, id)
	if err != nil {
		s.logger.Warn("MCP: session load failed", "session_id", id, "err", err)
		return nil, fmt.Errorf("load %s: %w", id, err)
	}
	return snap, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(SessionsURI, "Stored Sessions",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		list, err := s.handleListSessions(ctx, mcp.CallToolRequest{}, nil)
		if err != nil {
			return nil, err
		}
		jsonBytes, err := json.Marshal(list)
		if err != nil {
			return nil, fmt.Errorf("encode sessions: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      SessionsURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
