// Package mcp exposes colloquy sessions and knowledge as Model Context
// Protocol tools, over stdio or SSE.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/colloquy/internal/logging"
	"github.com/aretw0/colloquy/pkg/domain"
	"github.com/aretw0/colloquy/pkg/ports"
	"github.com/aretw0/colloquy/pkg/runner"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/errgroup"
)

const sessionsURI = "colloquy://sessions"

// Service is what the tools need from the session layer.
type Service interface {
	Respond(ctx context.Context, sessionID, input string) (domain.TurnResult, error)
	Load(ctx context.Context, sessionID string) (*domain.Snapshot, error)
	List(ctx context.Context) ([]string, error)
}

// ChatArgs are the arguments of the chat tool.
type ChatArgs struct {
	SessionID string `json:"session_id"`
	Input     string `json:"input"`
}

// ChatResponse is the structured result of the chat tool.
type ChatResponse struct {
	SessionID string `json:"session_id" jsonschema_description:"Session the turn belongs to"`
	Reply     string `json:"reply" jsonschema_description:"What the bot said"`
	Recovered bool   `json:"recovered" jsonschema_description:"True when the reply is the configured error response"`
	Sentences int    `json:"sentences" jsonschema_description:"Number of sentences answered"`
}

// QueryArgs are the arguments of the query_triples tool.
type QueryArgs struct {
	Subject   string `json:"subject"`
	Predicate string `json:"predicate"`
}

// QueryResponse is the structured result of the query_triples tool.
type QueryResponse struct {
	Triples []domain.Triple `json:"triples" jsonschema_description:"Matching facts"`
}

// Server wraps the session service as an MCP server.
type Server struct {
	svc       Service
	triples   ports.TripleStore
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*serverConfig)

type serverConfig struct {
	version string
	logger  *slog.Logger
}

// WithVersion sets the version announced to clients.
func WithVersion(v string) Option {
	return func(c *serverConfig) {
		c.version = v
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *serverConfig) {
		c.logger = logger
	}
}

// NewServer creates an MCP server over svc. triples may be nil, in which case
// query_triples is not offered.
func NewServer(svc Service, triples ports.TripleStore, opts ...Option) *Server {
	cfg := serverConfig{version: "dev", logger: logging.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	s := &Server{
		svc:     svc,
		triples: triples,
		logger:  cfg.logger,
		mcpServer: server.NewMCPServer("colloquy", cfg.version,
			server.WithToolCapabilities(false),
			server.WithResourceCapabilities(false, false),
		),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server, e.g. for in-process clients.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio serves on stdin and stdout until the input closes.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("mcp server listening (sse)", "address", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	chatTool := mcp.NewTool("chat",
		mcp.WithDescription("Send one turn to a conversation. The session is created on first use."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Conversation identifier")),
		mcp.WithString("input", mcp.Required(), mcp.Description("What the user says")),
		mcp.WithOutputSchema[ChatResponse](),
	)
	s.mcpServer.AddTool(chatTool, mcp.NewStructuredToolHandler(s.handleChat))

	s.mcpServer.AddTool(mcp.NewTool("get_session",
		mcp.WithDescription("Get the stored state of a conversation as JSON."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Conversation identifier")),
	), s.handleGetSession)

	if s.triples != nil {
		queryTool := mcp.NewTool("query_triples",
			mcp.WithDescription("Look up known facts. Empty arguments match anything."),
			mcp.WithString("subject", mcp.Description("Subject to match")),
			mcp.WithString("predicate", mcp.Description("Predicate to match")),
			mcp.WithOutputSchema[QueryResponse](),
		)
		s.mcpServer.AddTool(queryTool, mcp.NewStructuredToolHandler(s.handleQuery))
	}
}

func (s *Server) handleChat(ctx context.Context, request mcp.CallToolRequest, args ChatArgs) (ChatResponse, error) {
	if args.SessionID == "" {
		return ChatResponse{}, domain.ErrEmptySessionID
	}
	input, err := runner.SanitizeInput(args.Input)
	if err != nil {
		s.logger.Warn("mcp chat: input rejected", "session_id", args.SessionID, "size", len(args.Input), "error", err)
		return ChatResponse{}, fmt.Errorf("input rejected: %w", err)
	}

	res, err := s.svc.Respond(ctx, args.SessionID, input)
	if err != nil {
		return ChatResponse{}, err
	}
	return ChatResponse{
		SessionID: args.SessionID,
		Reply:     res.Reply,
		Recovered: res.Recovered,
		Sentences: res.Sentences,
	}, nil
}

func (s *Server) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	snap, err := s.svc.Load(ctx, id)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("failed to load session", err), nil
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleQuery(ctx context.Context, request mcp.CallToolRequest, args QueryArgs) (QueryResponse, error) {
	found, err := s.triples.Match(ctx, args.Subject, args.Predicate)
	if err != nil {
		return QueryResponse{}, err
	}
	if found == nil {
		found = []domain.Triple{}
	}
	return QueryResponse{Triples: found}, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(sessionsURI, "Stored sessions",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		ids, err := s.svc.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list sessions: %w", err)
		}
		data, _ := json.Marshal(ids)
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      sessionsURI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}
