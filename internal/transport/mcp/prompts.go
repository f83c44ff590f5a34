package mcp

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	mcpmcp "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	domaintask "github.com/alanyang/shiftdesk/internal/domain/task"
	agentsvc "github.com/alanyang/shiftdesk/internal/service/agent"
	tasksvc "github.com/alanyang/shiftdesk/internal/service/task"
)

// RegisterPrompts registers the shift_briefing prompt: an agent's schedule and
// open work, fetched once when an assistant session starts.
func RegisterPrompts(s *mcpserver.MCPServer, taskSvc *tasksvc.Service, agentSvc *agentsvc.Service) {
	s.AddPrompt(
		mcpmcp.NewPrompt("shift_briefing",
			mcpmcp.WithPromptDescription("Working hours, current task and queued tasks for one agent."),
			mcpmcp.WithArgument("agent_id",
				mcpmcp.ArgumentDescription("Agent id"),
				mcpmcp.RequiredArgument(),
			),
		),
		briefingHandler(taskSvc, agentSvc),
	)
}

func briefingHandler(taskSvc *tasksvc.Service, agentSvc *agentsvc.Service) mcpserver.PromptHandlerFunc {
	return func(ctx context.Context, req mcpmcp.GetPromptRequest) (*mcpmcp.GetPromptResult, error) {
		agentID, err := strconv.ParseInt(req.Params.Arguments["agent_id"], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid agent_id: %w", err)
		}

		agent, err := agentSvc.GetByID(ctx, agentID)
		if err != nil {
			return nil, fmt.Errorf("briefing for agent %d: %w", agentID, err)
		}
		open, err := taskSvc.List(ctx, domaintask.ListFilters{Open: true, AssignedTo: &agentID, OldestFirst: true})
		if err != nil {
			return nil, fmt.Errorf("briefing for agent %d: %w", agentID, err)
		}

		var b strings.Builder
		fmt.Fprintf(&b, "You are %s (%s). Shift %s-%s, lunch %s-%s.\n",
			agent.Name, agent.Role, agent.Schedule.WorkStart, agent.Schedule.WorkEnd,
			agent.Schedule.LunchStart, agent.Schedule.LunchEnd)

		var queued []domaintask.Task
		for _, t := range open {
			if t.Status == domaintask.StatusActive {
				fmt.Fprintf(&b, "Current task #%d: %s\n", t.ID, t.Description)
				continue
			}
			queued = append(queued, t)
		}
		if len(open) == len(queued) {
			b.WriteString("No current task.\n")
		}
		if len(queued) > 0 {
			b.WriteString("Queued:\n")
			for _, t := range queued {
				fmt.Fprintf(&b, "- #%d: %s\n", t.ID, t.Description)
			}
		}
		b.WriteString("Call complete_task when you finish; the next queued task arrives as a task_assigned notification.")

		return mcpmcp.NewGetPromptResult(
			fmt.Sprintf("Shift briefing for %s", agent.Name),
			[]mcpmcp.PromptMessage{
				mcpmcp.NewPromptMessage(
					mcpmcp.RoleUser,
					mcpmcp.TextContent{
						Type: "text",
						Text: b.String(),
					},
				),
			},
		), nil
	}
}
