// Package mcp exposes wizard sessions as Model Context Protocol tools, so an
// agent can walk a user through a flow on their behalf.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/aretw0/stepwise"
	"github.com/aretw0/stepwise/internal/logging"
	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/aretw0/stepwise/pkg/ports"
	"github.com/aretw0/stepwise/pkg/sanitize"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// FlowsURI is the resource listing every flow.
const FlowsURI = "stepwise://flows"

// Catalog lists and describes flows. *stepwise.Engine implements it.
type Catalog interface {
	Flows() ([]string, error)
	Flow(id string) (domain.Flow, error)
}

// ViewResponse is returned by every session tool. Error is set when the
// event was refused; View then shows the unchanged session.
type ViewResponse struct {
	View  domain.View `json:"view" jsonschema_description:"The wizard as the user should see it now"`
	Error string      `json:"error,omitempty" jsonschema_description:"Why the last event was refused, if it was"`
}

// FlowsResponse is returned by list_flows.
type FlowsResponse struct {
	Flows []domain.FlowSummary `json:"flows" jsonschema_description:"Available flows"`
}

// Server wraps a session host and exposes it as an MCP Server.
type Server struct {
	host      ports.WizardHost
	catalog   Catalog
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(host ports.WizardHost, catalog Catalog, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		host:    host,
		catalog: catalog,
		logger:  logger,
		mcpServer: server.NewMCPServer("stepwise-mcp", stepwise.Version,
			server.WithToolCapabilities(false),
			server.WithResourceCapabilities(false, false),
		),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer exposes the underlying server, e.g. for in-process clients.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on port until ctx is done.
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

	serverErrors := make(chan error, 1)
	lifecycle.Go(ctx, func(ctx context.Context) error {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
		return nil
	})

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("shutting down MCP server")
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
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_flows",
		mcp.WithDescription("List the guided flows a user can be walked through."),
		mcp.WithOutputSchema[FlowsResponse](),
	), mcp.NewStructuredToolHandler(s.handleListFlows))

	s.mcpServer.AddTool(mcp.NewTool("open_wizard",
		mcp.WithDescription("Start a wizard on the first step of a flow. Returns the session view."),
		mcp.WithString("flow_id", mcp.Required(), mcp.Description("Flow to open, from list_flows")),
		mcp.WithOutputSchema[ViewResponse](),
	), mcp.NewStructuredToolHandler(s.handleOpenWizard))

	s.mcpServer.AddTool(mcp.NewTool("send_event",
		mcp.WithDescription("Answer a field or navigate. Events: select, toggle, clear, advance, back, skip, reset, cancel."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session returned by open_wizard")),
		mcp.WithString("event", mcp.Required(), mcp.Description("Event name"),
			mcp.Enum("select", "toggle", "clear", "advance", "back", "skip", "reset", "cancel")),
		mcp.WithString("field", mcp.Description("Field name for select, toggle and clear")),
		mcp.WithString("value", mcp.Description("Answer text. Numbers for scales, yes/no for toggles, comma-separated options for multi-choice")),
		mcp.WithOutputSchema[ViewResponse](),
	), mcp.NewStructuredToolHandler(s.handleSendEvent))

	s.mcpServer.AddTool(mcp.NewTool("view_wizard",
		mcp.WithDescription("Show the current view of a session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session returned by open_wizard")),
		mcp.WithOutputSchema[ViewResponse](),
	), mcp.NewStructuredToolHandler(s.handleViewWizard))

	s.mcpServer.AddTool(mcp.NewTool("cancel_wizard",
		mcp.WithDescription("Dismiss a session. Nothing is submitted."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session returned by open_wizard")),
		mcp.WithOutputSchema[ViewResponse](),
	), mcp.NewStructuredToolHandler(s.handleCancelWizard))
}

func (s *Server) handleListFlows(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (FlowsResponse, error) {
	flows, err := s.summaries()
	if err != nil {
		return FlowsResponse{}, err
	}
	return FlowsResponse{Flows: flows}, nil
}

func (s *Server) handleOpenWizard(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (ViewResponse, error) {
	flowID, _ := args["flow_id"].(string)
	if flowID == "" {
		return ViewResponse{}, errors.New("flow_id is required")
	}
	view, err := s.host.Open(ctx, flowID)
	if err != nil {
		return ViewResponse{}, err
	}
	return ViewResponse{View: view}, nil
}

func (s *Server) handleSendEvent(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (ViewResponse, error) {
	sessionID, _ := args["session_id"].(string)
	event, _ := args["event"].(string)
	field, _ := args["field"].(string)

	cmd := domain.Command{Event: domain.Event(event), Field: field}
	if raw, ok := args["value"].(string); ok && (cmd.Event == domain.EventSelect || cmd.Event == domain.EventToggle) {
		value, err := s.coerce(ctx, sessionID, cmd, raw)
		if err != nil {
			return ViewResponse{}, err
		}
		cmd.Value = value
	}

	cmd, err := sanitize.Command(cmd)
	if err != nil {
		s.logger.Warn("MCP send_event: input rejected", "err", err)
		return ViewResponse{}, fmt.Errorf("input rejected: %w", err)
	}
	if err := cmd.Validate(); err != nil {
		return ViewResponse{}, err
	}

	view, err := s.host.Dispatch(ctx, sessionID, cmd)
	return s.respond(view, err)
}

func (s *Server) handleViewWizard(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (ViewResponse, error) {
	sessionID, _ := args["session_id"].(string)
	view, err := s.host.View(ctx, sessionID)
	if err != nil {
		return ViewResponse{}, err
	}
	return ViewResponse{View: view}, nil
}

func (s *Server) handleCancelWizard(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (ViewResponse, error) {
	sessionID, _ := args["session_id"].(string)
	view, err := s.host.Cancel(ctx, sessionID)
	return s.respond(view, err)
}

// respond turns refused events into a normal response carrying the view,
// so the agent can explain the refusal. Unknown sessions stay errors.
func (s *Server) respond(view domain.View, err error) (ViewResponse, error) {
	if err == nil {
		return ViewResponse{View: view}, nil
	}
	if errors.Is(err, domain.ErrSessionNotFound) || view.SessionID == "" {
		return ViewResponse{}, err
	}
	return ViewResponse{View: view, Error: err.Error()}, nil
}

// coerce parses value text by the kind of the field it targets. A toggle
// event names one member, so it is never split.
func (s *Server) coerce(ctx context.Context, sessionID string, cmd domain.Command, raw string) (any, error) {
	if cmd.Event == domain.EventToggle {
		return raw, nil
	}
	view, err := s.host.View(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	flow, err := s.catalog.Flow(view.FlowID)
	if err != nil {
		return nil, err
	}
	for _, step := range flow.Steps {
		if f, ok := step.Input(cmd.Field); ok {
			return stepwise.ParseValue(f, raw)
		}
	}
	return raw, nil
}

func (s *Server) summaries() ([]domain.FlowSummary, error) {
	ids, err := s.catalog.Flows()
	if err != nil {
		return nil, fmt.Errorf("failed to list flows: %w", err)
	}
	out := make([]domain.FlowSummary, 0, len(ids))
	for _, id := range ids {
		flow, err := s.catalog.Flow(id)
		if err != nil {
			s.logger.Warn("skipping unloadable flow", "flow_id", id, "err", err)
			continue
		}
		out = append(out, flow.Summary())
	}
	return out, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(FlowsURI, "Available Flows",
		mcp.WithResourceDescription("Every guided flow with its title and step count"),
		mcp.WithMIMEType("application/json"),
	), s.readFlows)
}

func (s *Server) readFlows(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	flows, err := s.summaries()
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(flows)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      FlowsURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
