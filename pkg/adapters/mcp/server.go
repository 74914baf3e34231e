package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/fsm"
	"github.com/aretw0/fsm/internal/compiler"
	"github.com/aretw0/fsm/internal/logging"
	"github.com/aretw0/fsm/internal/presentation/graph"
	"github.com/aretw0/fsm/pkg/domain"
	"github.com/aretw0/fsm/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// DefaultMachineID is used when a tool call names no machine.
const DefaultMachineID = "default"

// MachineResult is the structured output of every machine tool.
type MachineResult struct {
	MachineID string           `json:"machine_id" jsonschema_description:"The machine the call applied to"`
	State     domain.StateID   `json:"state" jsonschema_description:"The current state"`
	History   []domain.StateID `json:"history" jsonschema_description:"Undo stack, oldest first"`
	CanUndo   bool             `json:"can_undo"`
	CanRedo   bool             `json:"can_redo"`
	Events    []domain.EventID `json:"events" jsonschema_description:"Events available from the current state"`
}

// HistoryResult adds the outcome of undo and redo.
type HistoryResult struct {
	OK bool `json:"ok" jsonschema_description:"False when there was nothing to undo or redo"`
	MachineResult
}

// StatesResult is the output of list_states.
type StatesResult struct {
	States []domain.StateID `json:"states"`
}

type machineArgs struct {
	MachineID string `json:"machine_id"`
}

type triggerArgs struct {
	MachineID string `json:"machine_id"`
	Event     string `json:"event"`
}

type changeArgs struct {
	MachineID string `json:"machine_id"`
	State     string `json:"state"`
}

type statesArgs struct {
	Event string `json:"event"`
}

// Server exposes a session.Manager as an MCP Server.
type Server struct {
	manager   *session.Manager
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(manager *session.Manager, opts ...Option) *Server {
	s := &Server{
		manager:   manager,
		mcpServer: server.NewMCPServer("fsm-mcp", strings.TrimSpace(fsm.Version)),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the MCP protocol over SSE on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	baseURL := "http://localhost" + addr
	if !strings.HasPrefix(addr, ":") {
		baseURL = "http://" + addr
	}
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

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

func machineIDOption() mcp.ToolOption {
	return mcp.WithString("machine_id", mcp.Description(`Machine to operate on (default "default")`))
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("get_state",
		mcp.WithDescription("Get the current state and history of a machine, starting it if needed."),
		machineIDOption(),
		mcp.WithOutputSchema[MachineResult](),
	), mcp.NewStructuredToolHandler(s.handleGetState))

	s.mcpServer.AddTool(mcp.NewTool("list_states",
		mcp.WithDescription("List all states in definition order, optionally only those handling an event."),
		mcp.WithString("event", mcp.Description("Only return states that define a transition for this event")),
		mcp.WithOutputSchema[StatesResult](),
	), mcp.NewStructuredToolHandler(s.handleListStates))

	s.mcpServer.AddTool(mcp.NewTool("trigger",
		mcp.WithDescription("Apply an event to the current state."),
		machineIDOption(),
		mcp.WithString("event", mcp.Required(), mcp.Description("Event name")),
		mcp.WithOutputSchema[MachineResult](),
	), mcp.NewStructuredToolHandler(s.handleTrigger))

	s.mcpServer.AddTool(mcp.NewTool("change_state",
		mcp.WithDescription("Move to a state directly, ignoring transition rules."),
		machineIDOption(),
		mcp.WithString("state", mcp.Required(), mcp.Description("Target state")),
		mcp.WithOutputSchema[MachineResult](),
	), mcp.NewStructuredToolHandler(s.handleChangeState))

	s.mcpServer.AddTool(mcp.NewTool("undo",
		mcp.WithDescription("Return to the previous state."),
		machineIDOption(),
		mcp.WithOutputSchema[HistoryResult](),
	), mcp.NewStructuredToolHandler(s.handleUndo))

	s.mcpServer.AddTool(mcp.NewTool("redo",
		mcp.WithDescription("Re-apply the last undone state."),
		machineIDOption(),
		mcp.WithOutputSchema[HistoryResult](),
	), mcp.NewStructuredToolHandler(s.handleRedo))

	s.mcpServer.AddTool(mcp.NewTool("reset",
		mcp.WithDescription(`Move to the "normal" state and forget all history.`),
		machineIDOption(),
		mcp.WithOutputSchema[MachineResult](),
	), mcp.NewStructuredToolHandler(s.handleReset))

	s.mcpServer.AddTool(mcp.NewTool("clear_history",
		mcp.WithDescription("Forget undo and redo history, keeping the current state."),
		machineIDOption(),
		mcp.WithOutputSchema[MachineResult](),
	), mcp.NewStructuredToolHandler(s.handleClearHistory))
}

// Handler methods for structured tools

func (s *Server) handleGetState(ctx context.Context, _ mcp.CallToolRequest, args machineArgs) (MachineResult, error) {
	id := machineID(args.MachineID)
	snap, err := s.manager.Open(ctx, id)
	if err != nil {
		return MachineResult{}, fmt.Errorf("open failed: %w", err)
	}
	return s.result(id, snap), nil
}

func (s *Server) handleListStates(_ context.Context, _ mcp.CallToolRequest, args statesArgs) (StatesResult, error) {
	var events []domain.EventID
	if args.Event != "" {
		events = append(events, domain.EventID(args.Event))
	}
	return StatesResult{States: s.manager.States(events...)}, nil
}

func (s *Server) handleTrigger(ctx context.Context, _ mcp.CallToolRequest, args triggerArgs) (MachineResult, error) {
	if args.Event == "" {
		return MachineResult{}, fmt.Errorf("event is required")
	}
	id := machineID(args.MachineID)
	snap, err := s.manager.Trigger(ctx, id, domain.EventID(args.Event))
	if err != nil {
		s.logger.Debug("MCP trigger rejected", "machine_id", id, "err", err)
		return MachineResult{}, fmt.Errorf("trigger failed: %w", err)
	}
	return s.result(id, snap), nil
}

func (s *Server) handleChangeState(ctx context.Context, _ mcp.CallToolRequest, args changeArgs) (MachineResult, error) {
	if args.State == "" {
		return MachineResult{}, fmt.Errorf("state is required")
	}
	id := machineID(args.MachineID)
	snap, err := s.manager.ChangeState(ctx, id, domain.StateID(args.State))
	if err != nil {
		s.logger.Debug("MCP change_state rejected", "machine_id", id, "err", err)
		return MachineResult{}, fmt.Errorf("change_state failed: %w", err)
	}
	return s.result(id, snap), nil
}

func (s *Server) handleUndo(ctx context.Context, _ mcp.CallToolRequest, args machineArgs) (HistoryResult, error) {
	id := machineID(args.MachineID)
	ok, snap, err := s.manager.Undo(ctx, id)
	if err != nil {
		return HistoryResult{}, fmt.Errorf("undo failed: %w", err)
	}
	return HistoryResult{OK: ok, MachineResult: s.result(id, snap)}, nil
}

func (s *Server) handleRedo(ctx context.Context, _ mcp.CallToolRequest, args machineArgs) (HistoryResult, error) {
	id := machineID(args.MachineID)
	ok, snap, err := s.manager.Redo(ctx, id)
	if err != nil {
		return HistoryResult{}, fmt.Errorf("redo failed: %w", err)
	}
	return HistoryResult{OK: ok, MachineResult: s.result(id, snap)}, nil
}

func (s *Server) handleReset(ctx context.Context, _ mcp.CallToolRequest, args machineArgs) (MachineResult, error) {
	id := machineID(args.MachineID)
	snap, err := s.manager.Reset(ctx, id)
	if err != nil {
		return MachineResult{}, fmt.Errorf("reset failed: %w", err)
	}
	return s.result(id, snap), nil
}

func (s *Server) handleClearHistory(ctx context.Context, _ mcp.CallToolRequest, args machineArgs) (MachineResult, error) {
	id := machineID(args.MachineID)
	snap, err := s.manager.ClearHistory(ctx, id)
	if err != nil {
		return MachineResult{}, fmt.Errorf("clear_history failed: %w", err)
	}
	return s.result(id, snap), nil
}

func (s *Server) registerResources() {
	// EXPOSE: fsm://graph
	s.mcpServer.AddResource(mcp.NewResource("fsm://graph", "Machine Graph (Mermaid)",
		mcp.WithMIMEType("text/plain"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "fsm://graph",
				MIMEType: "text/plain",
				Text:     graph.GenerateMermaid(s.manager.Config(), nil),
			},
		}, nil
	})

	// EXPOSE: fsm://definition
	s.mcpServer.AddResource(mcp.NewResource("fsm://definition", "Machine Definition",
		mcp.WithMIMEType("application/yaml"),
	), s.readDefinition)
}

func (s *Server) readDefinition(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data, err := compiler.NewParser().Marshal(s.manager.Config())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal definition: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "fsm://definition",
			MIMEType: "application/yaml",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) result(id string, snap domain.Snapshot) MachineResult {
	history := snap.Undo
	if history == nil {
		history = []domain.StateID{}
	}
	events := s.manager.Events(snap.Current)
	if events == nil {
		events = []domain.EventID{}
	}
	return MachineResult{
		MachineID: id,
		State:     snap.Current,
		History:   history,
		CanUndo:   len(snap.Undo) > 0,
		CanRedo:   len(snap.Redo) > 0,
		Events:    events,
	}
}

func machineID(id string) string {
	if id == "" {
		return DefaultMachineID
	}
	return id
}
