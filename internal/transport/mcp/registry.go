package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	mcpserver "github.com/mark3labs/mcp-go/server"

	portnotifier "github.com/alanyang/shiftdesk/internal/port/notifier"
)

var _ portnotifier.AgentNotifier = (*SessionRegistry)(nil)

// SessionRegistry maps open MCP sessions to the agents that attached through them.
// One agent has at most one session; attaching again replaces the old one.
type SessionRegistry struct {
	mu         sync.RWMutex
	bySessions map[string]int64 // sessionID → agentID
	byAgent    map[int64]string // agentID → sessionID

	// mcpSrv is set after the MCP server is constructed.
	mcpMu  sync.RWMutex
	mcpSrv *mcpserver.MCPServer
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		bySessions: make(map[string]int64),
		byAgent:    make(map[int64]string),
	}
}

func (r *SessionRegistry) SetMCPServer(s *mcpserver.MCPServer) {
	r.mcpMu.Lock()
	r.mcpSrv = s
	r.mcpMu.Unlock()
}

// Register maps a session to an agent. Called by the attach_agent tool.
func (r *SessionRegistry) Register(sessionID string, agentID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if oldSession, ok := r.byAgent[agentID]; ok {
		delete(r.bySessions, oldSession)
	}
	if oldAgent, ok := r.bySessions[sessionID]; ok {
		delete(r.byAgent, oldAgent)
	}
	r.bySessions[sessionID] = agentID
	r.byAgent[agentID] = sessionID
}

// Unregister removes a session when it closes and returns the agent it carried.
func (r *SessionRegistry) Unregister(sessionID string) (int64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	agentID, ok := r.bySessions[sessionID]
	if !ok {
		return 0, false
	}
	delete(r.bySessions, sessionID)
	delete(r.byAgent, agentID)
	return agentID, true
}

// NotifyAgent pushes event to the agent's session. Agents without a session are
// skipped silently.
func (r *SessionRegistry) NotifyAgent(_ context.Context, agentID int64, event any) error {
	r.mu.RLock()
	sessionID, ok := r.byAgent[agentID]
	r.mu.RUnlock()

	if !ok {
		return nil
	}

	r.mcpMu.RLock()
	srv := r.mcpSrv
	r.mcpMu.RUnlock()

	if srv == nil {
		return fmt.Errorf("mcp server not initialized")
	}

	params, err := toParams(event)
	if err != nil {
		return fmt.Errorf("serialize notification: %w", err)
	}

	return srv.SendNotificationToSpecificClient(sessionID, "notifications/message", params)
}

func (r *SessionRegistry) IsConnected(agentID int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byAgent[agentID]
	return ok
}

func toParams(event any) (map[string]any, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	var params map[string]any
	if err := json.Unmarshal(data, &params); err != nil {
		return map[string]any{"data": event}, nil
	}
	return params, nil
}
