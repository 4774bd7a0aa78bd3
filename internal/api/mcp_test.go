package api

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kalambet/coach/internal/agents"
	"github.com/kalambet/coach/internal/goal"
)

func newTestService(t *testing.T) *agents.Service {
	t.Helper()
	return agents.NewService(goal.NewMemoryStore(), nil)
}

func toolText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("no content in result")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", result.Content[0])
	}
	return tc.Text
}

func makeCallToolRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func makeReadResourceRequest(uri string) mcp.ReadResourceRequest {
	return mcp.ReadResourceRequest{
		Params: mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func mcpIntake(t *testing.T, svc *agents.Service) goal.Intake {
	t.Helper()
	result, err := mcpAgentTool(svc.Intake)(context.Background(), makeCallToolRequest("goal_intake", map[string]interface{}{
		"resolution":     "Run a 10k",
		"timeframeWeeks": 8,
		"motivation":     "feel stronger",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", toolText(t, result))
	}
	var out goal.Intake
	if err := json.Unmarshal([]byte(toolText(t, result)), &out); err != nil {
		t.Fatalf("parsing intake: %v", err)
	}
	return out
}

func TestMCPTool_Intake(t *testing.T) {
	svc := newTestService(t)
	out := mcpIntake(t, svc)

	if !strings.HasPrefix(out.GoalID, "goal_") {
		t.Fatalf("goalId = %q, want goal_ prefix", out.GoalID)
	}
	if out.Goal != "Build run a 10k in 8 weeks" {
		t.Fatalf("goal = %q", out.Goal)
	}

	rec, err := svc.Goal(context.Background(), out.GoalID)
	if err != nil {
		t.Fatalf("goal not stored: %v", err)
	}
	if rec.Details.Motivation != "feel stronger" {
		t.Fatalf("motivation = %q", rec.Details.Motivation)
	}
}

func TestMCPTool_Intake_InvalidInput(t *testing.T) {
	svc := newTestService(t)

	result, err := mcpAgentTool(svc.Intake)(context.Background(), makeCallToolRequest("goal_intake", map[string]interface{}{
		"resolution":     "Run",
		"timeframeWeeks": 0,
		"motivation":     "ok",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected tool error for invalid input")
	}
	if !strings.Contains(toolText(t, result), "resolution") {
		t.Fatalf("error should name the field: %s", toolText(t, result))
	}
}

func TestMCPTool_PlanCheckInReflect(t *testing.T) {
	svc := newTestService(t)
	in := mcpIntake(t, svc)
	ctx := context.Background()

	plan, err := mcpAgentTool(svc.Plan)(ctx, makeCallToolRequest("goal_plan", map[string]interface{}{
		"goalId":         in.GoalID,
		"goal":           in.Goal,
		"timeframeWeeks": 8,
		"successMetric":  in.SuccessMetric,
	}))
	if err != nil || plan.IsError {
		t.Fatalf("goal_plan failed: %v %s", err, toolText(t, plan))
	}

	checkIn, err := mcpAgentTool(svc.CheckIn)(ctx, makeCallToolRequest("goal_check_in", map[string]interface{}{
		"goalId":         in.GoalID,
		"checkInNote":    "two runs done",
		"mood":           "steady",
		"completedTasks": 2,
	}))
	if err != nil || checkIn.IsError {
		t.Fatalf("goal_check_in failed: %v %s", err, toolText(t, checkIn))
	}
	if !strings.Contains(toolText(t, checkIn), "On track") {
		t.Fatalf("check-in = %s, want On track", toolText(t, checkIn))
	}

	refl, err := mcpAgentTool(svc.Reflect)(ctx, makeCallToolRequest("goal_reflect", map[string]interface{}{
		"goalId":         in.GoalID,
		"weekHighlights": []string{"ran 5k"},
	}))
	if err != nil || refl.IsError {
		t.Fatalf("goal_reflect failed: %v %s", err, toolText(t, refl))
	}

	got, err := mcpGetGoal(svc)(ctx, makeCallToolRequest("goal_get", map[string]interface{}{"goalId": in.GoalID}))
	if err != nil || got.IsError {
		t.Fatalf("goal_get failed: %v %s", err, toolText(t, got))
	}
	var rec goal.Record
	if err := json.Unmarshal([]byte(toolText(t, got)), &rec); err != nil {
		t.Fatalf("parsing record: %v", err)
	}
	if rec.Plan == nil || len(rec.CheckIns) != 1 || len(rec.Reflections) != 1 {
		t.Fatalf("record = %+v, want plan, 1 check-in, 1 reflection", rec)
	}
}

func TestMCPTool_CheckIn_UnknownGoal(t *testing.T) {
	svc := newTestService(t)

	result, err := mcpAgentTool(svc.CheckIn)(context.Background(), makeCallToolRequest("goal_check_in", map[string]interface{}{
		"goalId":         "goal_missing",
		"checkInNote":    "hello",
		"mood":           "low",
		"completedTasks": 0,
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError || toolText(t, result) != "Goal not found" {
		t.Fatalf("result = %v %q, want Goal not found error", result.IsError, toolText(t, result))
	}
}

func TestMCPTool_GetGoal_MissingID(t *testing.T) {
	svc := newTestService(t)

	result, err := mcpGetGoal(svc)(context.Background(), makeCallToolRequest("goal_get", map[string]interface{}{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected error without goalId")
	}
}

func TestMCPResource_Latest(t *testing.T) {
	svc := newTestService(t)
	handler := mcpResourceLatest(svc)

	if _, err := handler(context.Background(), makeReadResourceRequest(latestGoalURI)); err == nil {
		t.Fatal("expected error before any goal exists")
	}

	in := mcpIntake(t, svc)

	contents, err := handler(context.Background(), makeReadResourceRequest(latestGoalURI))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(contents) != 1 {
		t.Fatalf("expected 1 content, got %d", len(contents))
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("expected TextResourceContents, got %T", contents[0])
	}
	if tc.URI != latestGoalURI || tc.MIMEType != "application/json" {
		t.Fatalf("unexpected resource metadata: %s %s", tc.URI, tc.MIMEType)
	}
	if !strings.Contains(tc.Text, in.GoalID) {
		t.Fatalf("latest goal does not contain %s: %s", in.GoalID, tc.Text)
	}
}

func TestNewMCPServer(t *testing.T) {
	if s := NewMCPServer(newTestService(t), "test"); s == nil {
		t.Fatal("NewMCPServer returned nil")
	}
}
