// Package mcp exposes a session to an MCP client acting as the
// controlling agent: the client lists registered actions, sees the
// outstanding forced choice, and invokes actions as if it were on the
// wire. One MCP server drives one session.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	marionette "github.com/puppetwire/marionette"
	"github.com/puppetwire/marionette/pkg/protocol"
)

// ActionView is one registered action as shown to the MCP client.
type ActionView struct {
	Name        string          `json:"name" jsonschema_description:"Unique action name"`
	Description string          `json:"description" jsonschema_description:"What invoking the action does"`
	Schema      json.RawMessage `json:"schema" jsonschema_description:"JSON schema the invocation payload must satisfy"`
}

// ActionsResponse lists the currently registered actions.
type ActionsResponse struct {
	Actions []ActionView `json:"actions"`
}

// ForceResponse describes the outstanding forced choice, if any.
type ForceResponse struct {
	Outstanding bool     `json:"outstanding" jsonschema_description:"Whether a forced choice is waiting for an answer"`
	Query       string   `json:"query,omitempty"`
	GameState   string   `json:"game_state,omitempty"`
	ActionNames []string `json:"action_names,omitempty"`
}

// InvokeResponse reports how the session handled an invocation.
type InvokeResponse struct {
	ID       string `json:"id" jsonschema_description:"Invocation ID assigned to this attempt"`
	Accepted bool   `json:"accepted" jsonschema_description:"Whether the payload passed validation"`
	Forced   bool   `json:"forced" jsonschema_description:"Whether the invocation answered a forced choice"`
	Message  string `json:"message,omitempty" jsonschema_description:"Violation text when rejected"`
}

// Server bridges a marionette session to MCP. It serializes session
// access with its own mutex, so the session must not be shared with a
// concurrently running runner.
type Server struct {
	session   *marionette.Session
	codec     *protocol.Codec
	mcpServer *server.MCPServer

	mu sync.Mutex
}

// NewServer creates a new MCP Server instance around the session.
func NewServer(session *marionette.Session) *Server {
	s := &Server{
		session:   session,
		codec:     &protocol.Codec{},
		mcpServer: server.NewMCPServer("marionette-mcp", strings.TrimSpace(marionette.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("MCP server listening (SSE)", "address", addr)
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

func (s *Server) registerTools() {
	listTool := mcp.NewTool("list_actions",
		mcp.WithDescription("List the actions the game currently accepts, with their payload schemas."),
		mcp.WithOutputSchema[ActionsResponse](),
	)
	s.mcpServer.AddTool(listTool, mcp.NewStructuredToolHandler(s.handleListActions))

	forceTool := mcp.NewTool("get_force",
		mcp.WithDescription("Show the outstanding forced choice, if the game is waiting for one."),
		mcp.WithOutputSchema[ForceResponse](),
	)
	s.mcpServer.AddTool(forceTool, mcp.NewStructuredToolHandler(s.handleGetForce))

	invokeTool := mcp.NewTool("invoke_action",
		mcp.WithDescription("Invoke a registered action. The payload must satisfy the action's schema."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Name of the action to invoke")),
		mcp.WithString("data", mcp.Description("JSON payload for the action (omit for schema-less actions)")),
		mcp.WithOutputSchema[InvokeResponse](),
	)
	s.mcpServer.AddTool(invokeTool, mcp.NewStructuredToolHandler(s.handleInvokeAction))
}

func (s *Server) handleListActions(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ActionsResponse, error) {
	s.mu.Lock()
	actions := s.session.Actions()
	s.mu.Unlock()

	out := ActionsResponse{Actions: make([]ActionView, 0, len(actions))}
	for _, a := range actions {
		raw, err := json.Marshal(a.Schema)
		if err != nil {
			return ActionsResponse{}, fmt.Errorf("encode schema for %q: %w", a.Name, err)
		}
		out.Actions = append(out.Actions, ActionView{
			Name:        a.Name,
			Description: a.Description,
			Schema:      raw,
		})
	}
	return out, nil
}

func (s *Server) handleGetForce(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ForceResponse, error) {
	s.mu.Lock()
	req := s.session.OutstandingForce()
	s.mu.Unlock()

	if req == nil {
		return ForceResponse{}, nil
	}
	return ForceResponse{
		Outstanding: true,
		Query:       req.Query,
		GameState:   req.GameState,
		ActionNames: req.ActionNames,
	}, nil
}

func (s *Server) handleInvokeAction(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (InvokeResponse, error) {
	name, _ := args["name"].(string)
	if name == "" {
		return InvokeResponse{}, fmt.Errorf("name is required")
	}
	data, _ := args["data"].(string)

	frame, err := s.codec.Encode(protocol.ActionInvocation{
		ID:   uuid.NewString(),
		Name: name,
		Data: data,
	})
	if err != nil {
		return InvokeResponse{}, fmt.Errorf("encode invocation: %w", err)
	}

	s.mu.Lock()
	outcome, err := s.session.HandleInbound(frame)
	s.mu.Unlock()
	if err != nil {
		return InvokeResponse{}, fmt.Errorf("invocation failed: %w", err)
	}

	switch ev := outcome.Event.(type) {
	case marionette.ActionInvoked:
		return InvokeResponse{ID: ev.ID, Accepted: true, Forced: ev.Forced}, nil
	case marionette.ActionRejected:
		return InvokeResponse{ID: ev.ID, Accepted: false, Message: ev.Violation.Error()}, nil
	}
	return InvokeResponse{}, fmt.Errorf("unexpected session event %T", outcome.Event)
}

func (s *Server) registerResources() {
	// EXPOSE: marionette://actions
	s.mcpServer.AddResource(mcp.NewResource("marionette://actions", "Registered Actions",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		resp, err := s.handleListActions(ctx, mcp.CallToolRequest{}, nil)
		if err != nil {
			return nil, err
		}
		jsonBytes, _ := json.Marshal(resp.Actions)

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "marionette://actions",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
