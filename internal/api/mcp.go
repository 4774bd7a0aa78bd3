package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/coach/internal/agents"
	"github.com/kalambet/coach/internal/goal"
)

const latestGoalURI = "goal://latest"

// NewMCPServer creates an MCP server exposing the goal agents as tools.
func NewMCPServer(svc *agents.Service, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"coach",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("coach: turn a resolution into a SMART goal, plan it, check in and reflect."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("goal_intake",
			mcp.WithDescription("Turn a free-text resolution into a SMART goal and start tracking it."),
			mcp.WithString("resolution", mcp.Description("What you want to achieve (at least 5 characters)"), mcp.Required()),
			mcp.WithNumber("timeframeWeeks", mcp.Description("Timeframe in weeks, 1 to 52"), mcp.Required()),
			mcp.WithString("motivation", mcp.Description("Why this matters to you"), mcp.Required()),
			mcp.WithArray("constraints", mcp.Description("Optional scheduling or resource constraints")),
		),
		mcpAgentTool(svc.Intake),
	)

	s.AddTool(
		mcp.NewTool("goal_plan",
			mcp.WithDescription("Build weekly milestones and daily commitments for an existing goal."),
			mcp.WithString("goalId", mcp.Description("Goal id returned by goal_intake"), mcp.Required()),
			mcp.WithString("goal", mcp.Description("Goal statement"), mcp.Required()),
			mcp.WithNumber("timeframeWeeks", mcp.Description("Timeframe in weeks, 1 to 52"), mcp.Required()),
			mcp.WithString("successMetric", mcp.Description("Success metric from intake"), mcp.Required()),
			mcp.WithArray("constraints", mcp.Description("Optional constraints")),
		),
		mcpAgentTool(svc.Plan),
	)

	s.AddTool(
		mcp.NewTool("goal_check_in",
			mcp.WithDescription("Record an accountability check-in and get a recommendation."),
			mcp.WithString("goalId", mcp.Description("Goal id"), mcp.Required()),
			mcp.WithString("checkInNote", mcp.Description("How the week is going"), mcp.Required()),
			mcp.WithString("mood", mcp.Description("Current mood"), mcp.Enum("low", "steady", "high"), mcp.Required()),
			mcp.WithNumber("completedTasks", mcp.Description("Number of completed tasks"), mcp.Required()),
		),
		mcpAgentTool(svc.CheckIn),
	)

	s.AddTool(
		mcp.NewTool("goal_reflect",
			mcp.WithDescription("Record a weekly reflection with highlights and blockers."),
			mcp.WithString("goalId", mcp.Description("Goal id"), mcp.Required()),
			mcp.WithArray("weekHighlights", mcp.Description("At least one highlight from the week"), mcp.Required()),
			mcp.WithArray("blockers", mcp.Description("Optional blockers")),
		),
		mcpAgentTool(svc.Reflect),
	)

	s.AddTool(
		mcp.NewTool("goal_get",
			mcp.WithDescription("Fetch the full record of a goal: intake, plan, check-ins and reflections."),
			mcp.WithString("goalId", mcp.Description("Goal id"), mcp.Required()),
		),
		mcpGetGoal(svc),
	)

	s.AddResource(
		mcp.NewResource(
			latestGoalURI,
			"Latest Goal",
			mcp.WithResourceDescription("The most recently changed goal record as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceLatest(svc),
	)

	return s
}

// mcpAgentTool decodes the tool arguments exactly like an HTTP body and runs fn.
func mcpAgentTool[In any, Out any](fn func(context.Context, In) (Out, error)) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := json.Marshal(req.Params.Arguments)
		if err != nil {
			return mcpError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}
		var in In
		if err := agents.DecodeInput(raw, &in); err != nil {
			return mcpError(err.Error()), nil
		}
		out, err := fn(ctx, in)
		if err != nil {
			return mcpAgentError(err), nil
		}
		return mcpJSON(out)
	}
}

func mcpGetGoal(svc *agents.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("goalId")
		if err != nil {
			return mcpError("goalId is required"), nil
		}
		rec, err := svc.Goal(ctx, id)
		if err != nil {
			return mcpAgentError(err), nil
		}
		return mcpJSON(rec)
	}
}

func mcpResourceLatest(svc *agents.Service) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		rec, err := svc.LatestGoal(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get latest goal: %w", err)
		}

		b, err := json.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal goal: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpAgentError(err error) *mcp.CallToolResult {
	if errors.Is(err, goal.ErrNotFound) {
		return mcpError("Goal not found")
	}
	return mcpError(err.Error())
}

func mcpJSON(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcpText(string(b)), nil
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
