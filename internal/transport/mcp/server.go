package mcp

import (
	"context"
	"log/slog"
	"net/http"

	mcpserver "github.com/mark3labs/mcp-go/server"

	agentsvc "github.com/alanyang/shiftdesk/internal/service/agent"
	tasksvc "github.com/alanyang/shiftdesk/internal/service/task"
)

// Server wraps the mcp-go MCPServer and its StreamableHTTPServer. Tools live in
// tools.go, the briefing prompt in prompts.go, session state in registry.go.
type Server struct {
	httpSrv *mcpserver.StreamableHTTPServer
	reg     *SessionRegistry
}

// New builds the MCP transport. reg is created before the task service so the
// service can notify agents through it; the MCPServer is injected here.
func New(reg *SessionRegistry, taskSvc *tasksvc.Service, agentSvc *agentsvc.Service) *Server {
	s := &Server{reg: reg}

	hooks := &mcpserver.Hooks{}
	hooks.OnUnregisterSession = append(hooks.OnUnregisterSession, s.onSessionClose)

	mcpSrv := mcpserver.NewMCPServer(
		"shiftdesk",
		"1.0.0",
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithPromptCapabilities(true),
		mcpserver.WithHooks(hooks),
	)
	reg.SetMCPServer(mcpSrv)

	RegisterTools(mcpSrv, reg, taskSvc, agentSvc)
	RegisterPrompts(mcpSrv, taskSvc, agentSvc)

	s.httpSrv = mcpserver.NewStreamableHTTPServer(mcpSrv)
	return s
}

func (s *Server) Handler() http.Handler {
	return s.httpSrv
}

func (s *Server) Registry() *SessionRegistry {
	return s.reg
}

// Detaching only stops notifications. Tasks stay with the agent; availability
// comes from the task set, not from the connection.
func (s *Server) onSessionClose(ctx context.Context, session mcpserver.ClientSession) {
	agentID, ok := s.reg.Unregister(session.SessionID())
	if !ok {
		return
	}
	slog.InfoContext(ctx, "mcp: session closed", "session_id", session.SessionID(), "agent_id", agentID)
}
