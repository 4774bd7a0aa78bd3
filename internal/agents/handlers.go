// Package agents implements the goal-coaching agents: intake, planner,
// accountability and reflection. Handlers are deterministic templates; the
// Service persists their output and records a trace per run.
package agents

import (
	"fmt"
	"strings"

	"github.com/kalambet/coach/internal/goal"
)

// Prompts are the system prompts attached to each agent's trace.
var Prompts = map[string]string{
	"intake":         "You are the Intake Agent for Commit Coach. Convert the resolution into a clear SMART goal and set the first milestone.",
	"planner":        "You are the Planner Agent. Create weekly milestones and daily commitments that align with the SMART goal.",
	"accountability": "You are the Accountability Agent. Analyze the latest check-in and propose a supportive next action.",
	"reflection":     "You are the Reflection Agent. Summarize the week, highlight wins, and suggest adjustments.",
}

const (
	planFocus         = "Consistency and low-friction scheduling"
	initialMilestone  = "Book the first three sessions in your calendar"
	reflectionSummary = "You kept momentum through mid-week and recovered quickly after a dip."
	nextAction        = "Send a reminder 2 hours before your next commitment."
	maxMilestoneWeeks = 4
	onTrackThreshold  = 2
)

var dailyCommitments = []string{
	"Morning check-in with your accountability agent",
	"Complete the highest-impact task of the day",
	"Evening reflection in under 2 minutes",
}

var reflectionAdjustments = []string{
	"Schedule the hardest task earlier in the day",
	"Add a midweek accountability ping",
}

// RunIntake turns a resolution into a SMART goal under goalID.
func RunIntake(in IntakeInput, goalID string) (goal.Intake, error) {
	n := weeks(in.TimeframeWeeks)
	out := goal.Intake{
		GoalID:           goalID,
		Goal:             fmt.Sprintf("Build %s in %d weeks", strings.ToLower(in.Resolution), n),
		SuccessMetric:    fmt.Sprintf("Complete %d focused sessions", n*3),
		WeeklyCadence:    fmt.Sprintf("%d sessions per week", min(3, n)),
		InitialMilestone: initialMilestone,
	}
	return out, validateOutput(out)
}

// RunPlanner lays out up to four weekly milestones and the fixed daily routine.
func RunPlanner(in PlannerInput) (goal.Plan, error) {
	n := min(weeks(in.TimeframeWeeks), maxMilestoneWeeks)
	milestones := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		milestones = append(milestones, fmt.Sprintf("Week %d: %s", i, in.SuccessMetric))
	}
	out := goal.Plan{
		GoalID:           in.GoalID,
		Focus:            planFocus,
		WeeklyMilestones: milestones,
		DailyCommitments: append([]string{}, dailyCommitments...),
	}
	return out, validateOutput(out)
}

func RunAccountability(in AccountabilityInput) (goal.CheckIn, error) {
	status := "Needs a reset"
	if in.CompletedTasks != nil && *in.CompletedTasks >= onTrackThreshold {
		status = "On track"
	}
	recommendation := "Keep the plan and protect the next check-in window."
	if in.Mood == "low" {
		recommendation = "Swap to a lighter session and celebrate a small win."
	}
	out := goal.CheckIn{
		GoalID:         in.GoalID,
		Status:         status,
		Recommendation: recommendation,
		NextAction:     nextAction,
	}
	return out, validateOutput(out)
}

func RunReflection(in ReflectionInput) (goal.Reflection, error) {
	out := goal.Reflection{
		GoalID:      in.GoalID,
		Summary:     reflectionSummary,
		Wins:        append([]string{}, in.WeekHighlights...),
		Adjustments: append([]string{}, reflectionAdjustments...),
	}
	return out, validateOutput(out)
}
