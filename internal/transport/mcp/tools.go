package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcpmcp "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/alanyang/shiftdesk/internal/domain/dispatch"
	domaintask "github.com/alanyang/shiftdesk/internal/domain/task"
	agentsvc "github.com/alanyang/shiftdesk/internal/service/agent"
	tasksvc "github.com/alanyang/shiftdesk/internal/service/task"
)

// RegisterTools registers the dispatcher and agent tools on the server.
func RegisterTools(
	s *mcpserver.MCPServer,
	reg *SessionRegistry,
	taskSvc *tasksvc.Service,
	agentSvc *agentsvc.Service,
) {
	s.AddTool(mcpmcp.NewTool("attach_agent",
		mcpmcp.WithDescription("Bind this session to an agent so task_assigned notifications are pushed to it. Returns the agent's open tasks."),
		mcpmcp.WithNumber("agent_id", mcpmcp.Required(), mcpmcp.Description("Agent id")),
	), attachAgentHandler(reg, agentSvc, taskSvc))

	s.AddTool(mcpmcp.NewTool("create_task",
		mcpmcp.WithDescription("Create a task. mode=auto picks the agent by rotation; mode=manual requires agent_id. type=availability activates the task on a free agent or leaves it in the shared pool; type=direct queues it on the agent as pending."),
		mcpmcp.WithString("description", mcpmcp.Required(), mcpmcp.Description("What needs doing")),
		mcpmcp.WithString("mode", mcpmcp.Required(), mcpmcp.Description("auto or manual")),
		mcpmcp.WithString("type", mcpmcp.Required(), mcpmcp.Description("availability or direct")),
		mcpmcp.WithNumber("agent_id", mcpmcp.Description("Target agent id, manual mode only")),
	), createTaskHandler(taskSvc))

	s.AddTool(mcpmcp.NewTool("list_tasks",
		mcpmcp.WithDescription("List tasks, newest first."),
		mcpmcp.WithString("status", mcpmcp.Description("pending, active, completed or cancelled")),
		mcpmcp.WithNumber("assigned_to", mcpmcp.Description("Agent id")),
	), listTasksHandler(taskSvc))

	s.AddTool(mcpmcp.NewTool("list_pending",
		mcpmcp.WithDescription("List pending tasks oldest first: one agent's backlog when agent_id is given, otherwise every pending task."),
		mcpmcp.WithNumber("agent_id", mcpmcp.Description("Agent id")),
	), listPendingHandler(taskSvc))

	s.AddTool(mcpmcp.NewTool("complete_task",
		mcpmcp.WithDescription("Mark an active task completed. The agent then receives the next queued task."),
		mcpmcp.WithNumber("task_id", mcpmcp.Required(), mcpmcp.Description("Task id")),
	), finishTaskHandler(taskSvc.Complete))

	s.AddTool(mcpmcp.NewTool("cancel_task",
		mcpmcp.WithDescription("Cancel a pending or active task."),
		mcpmcp.WithNumber("task_id", mcpmcp.Required(), mcpmcp.Description("Task id")),
	), finishTaskHandler(taskSvc.Cancel))

	s.AddTool(mcpmcp.NewTool("reassign_task",
		mcpmcp.WithDescription("Move a pending or active task to another agent. It stays pending when keep_pending is set or the agent is busy."),
		mcpmcp.WithNumber("task_id", mcpmcp.Required(), mcpmcp.Description("Task id")),
		mcpmcp.WithNumber("agent_id", mcpmcp.Required(), mcpmcp.Description("New agent id")),
		mcpmcp.WithBoolean("keep_pending", mcpmcp.Description("Queue instead of activating")),
	), reassignTaskHandler(taskSvc))
}

// ── Tool handlers ─────────────────────────────────────────────────────────

func attachAgentHandler(reg *SessionRegistry, agentSvc *agentsvc.Service, taskSvc *tasksvc.Service) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcpmcp.CallToolRequest) (*mcpmcp.CallToolResult, error) {
		agentID := mcpmcp.ParseInt64(req, "agent_id", 0)
		if agentID <= 0 {
			return mcpmcp.NewToolResultText("error: invalid agent_id"), nil
		}

		agent, err := agentSvc.GetByID(ctx, agentID)
		if err != nil {
			return mcpmcp.NewToolResultText("error: agent not found"), nil
		}

		if session := mcpserver.ClientSessionFromContext(ctx); session != nil {
			reg.Register(session.SessionID(), agent.ID)
		}

		open, err := taskSvc.List(ctx, domaintask.ListFilters{Open: true, AssignedTo: &agent.ID, OldestFirst: true})
		if err != nil {
			return mcpmcp.NewToolResultText(fmt.Sprintf("error: %s", err)), nil
		}
		if open == nil {
			open = []domaintask.Task{}
		}
		return jsonResult(map[string]any{"agent": agent, "tasks": open}), nil
	}
}

func createTaskHandler(taskSvc *tasksvc.Service) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcpmcp.CallToolRequest) (*mcpmcp.CallToolResult, error) {
		r := dispatch.Request{
			Description: mcpmcp.ParseString(req, "description", ""),
			Mode:        dispatch.Mode(mcpmcp.ParseString(req, "mode", "")),
			Type:        dispatch.AssignmentType(mcpmcp.ParseString(req, "type", "")),
		}
		if id := mcpmcp.ParseInt64(req, "agent_id", 0); id > 0 {
			r.AgentID = &id
		}

		t, err := taskSvc.Create(ctx, r)
		if err != nil {
			return mcpmcp.NewToolResultText(fmt.Sprintf("error: %s", err)), nil
		}
		return jsonResult(t), nil
	}
}

func listTasksHandler(taskSvc *tasksvc.Service) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcpmcp.CallToolRequest) (*mcpmcp.CallToolResult, error) {
		var filters domaintask.ListFilters
		if v := mcpmcp.ParseString(req, "status", ""); v != "" {
			s := domaintask.Status(v)
			if !s.Valid() {
				return mcpmcp.NewToolResultText("error: invalid status"), nil
			}
			filters.Status = &s
		}
		if id := mcpmcp.ParseInt64(req, "assigned_to", 0); id > 0 {
			filters.AssignedTo = &id
		}

		tasks, err := taskSvc.List(ctx, filters)
		if err != nil {
			return mcpmcp.NewToolResultText(fmt.Sprintf("error: %s", err)), nil
		}
		if tasks == nil {
			tasks = []domaintask.Task{}
		}
		return jsonResult(tasks), nil
	}
}

func listPendingHandler(taskSvc *tasksvc.Service) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcpmcp.CallToolRequest) (*mcpmcp.CallToolResult, error) {
		var agentID *int64
		if id := mcpmcp.ParseInt64(req, "agent_id", 0); id > 0 {
			agentID = &id
		}

		tasks, err := taskSvc.ListPending(ctx, agentID)
		if err != nil {
			return mcpmcp.NewToolResultText(fmt.Sprintf("error: %s", err)), nil
		}
		if tasks == nil {
			tasks = []domaintask.Task{}
		}
		return jsonResult(tasks), nil
	}
}

func finishTaskHandler(op func(ctx context.Context, id int64) (domaintask.Task, error)) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcpmcp.CallToolRequest) (*mcpmcp.CallToolResult, error) {
		taskID := mcpmcp.ParseInt64(req, "task_id", 0)
		if taskID <= 0 {
			return mcpmcp.NewToolResultText("error: invalid task_id"), nil
		}

		t, err := op(ctx, taskID)
		if err != nil {
			return mcpmcp.NewToolResultText(fmt.Sprintf("error: %s", err)), nil
		}
		return jsonResult(t), nil
	}
}

func reassignTaskHandler(taskSvc *tasksvc.Service) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcpmcp.CallToolRequest) (*mcpmcp.CallToolResult, error) {
		taskID := mcpmcp.ParseInt64(req, "task_id", 0)
		if taskID <= 0 {
			return mcpmcp.NewToolResultText("error: invalid task_id"), nil
		}
		agentID := mcpmcp.ParseInt64(req, "agent_id", 0)
		if agentID <= 0 {
			return mcpmcp.NewToolResultText("error: invalid agent_id"), nil
		}
		keepPending := mcpmcp.ParseBoolean(req, "keep_pending", false)

		t, err := taskSvc.Reassign(ctx, taskID, agentID, keepPending)
		if err != nil {
			return mcpmcp.NewToolResultText(fmt.Sprintf("error: %s", err)), nil
		}
		return jsonResult(t), nil
	}
}

func jsonResult(v any) *mcpmcp.CallToolResult {
	data, err := json.Marshal(v)
	if err != nil {
		return mcpmcp.NewToolResultText(fmt.Sprintf("error: %s", err))
	}
	return mcpmcp.NewToolResultText(string(data))
}
