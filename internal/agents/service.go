package agents

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/kalambet/coach/internal/goal"
	"github.com/kalambet/coach/internal/metrics"
)

const maxIDAttempts = 3

// Tracer records one agent run.
type Tracer interface {
	Emit(ctx context.Context, name, prompt string, input, output any) error
}

// Service validates agent inputs, runs the handlers and persists results.
type Service struct {
	repo   goal.Repository
	tracer Tracer
	newID  func() string
	logger *slog.Logger
}

// NewService wires the agents to a goal repository. tracer may be nil.
func NewService(repo goal.Repository, tracer Tracer) *Service {
	return &Service{
		repo:   repo,
		tracer: tracer,
		newID:  newGoalID,
		logger: slog.Default(),
	}
}

func newGoalID() string {
	return "goal_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// Intake validates in, creates a new goal and returns its SMART definition.
func (s *Service) Intake(ctx context.Context, in IntakeInput) (out goal.Intake, err error) {
	defer s.count("intake", &err)
	if err := validateInput(&in); err != nil {
		return goal.Intake{}, err
	}

	details := goal.Details{
		TimeframeWeeks: *in.TimeframeWeeks,
		Motivation:     in.Motivation,
		Constraints:    in.Constraints,
	}
	for range maxIDAttempts {
		out, err = RunIntake(in, s.newID())
		if err != nil {
			return goal.Intake{}, err
		}
		err = s.repo.Create(ctx, goal.NewRecord(out, details))
		if !errors.Is(err, goal.ErrDuplicateID) {
			break
		}
	}
	if err != nil {
		return goal.Intake{}, fmt.Errorf("saving goal: %w", err)
	}

	s.trace(ctx, "intake", in, out)
	return out, nil
}

// Plan builds a plan for an existing goal and attaches it.
func (s *Service) Plan(ctx context.Context, in PlannerInput) (out goal.Plan, err error) {
	defer s.count("planner", &err)
	if err := validateInput(&in); err != nil {
		return goal.Plan{}, err
	}
	if out, err = RunPlanner(in); err != nil {
		return goal.Plan{}, err
	}
	if err := s.repo.AttachPlan(ctx, in.GoalID, out); err != nil {
		return goal.Plan{}, fmt.Errorf("saving plan: %w", err)
	}
	s.trace(ctx, "planner", in, out)
	return out, nil
}

// CheckIn records an accountability check-in for an existing goal.
func (s *Service) CheckIn(ctx context.Context, in AccountabilityInput) (out goal.CheckIn, err error) {
	defer s.count("accountability", &err)
	if err := validateInput(&in); err != nil {
		return goal.CheckIn{}, err
	}
	if out, err = RunAccountability(in); err != nil {
		return goal.CheckIn{}, err
	}
	if err := s.repo.PrependCheckIn(ctx, in.GoalID, out); err != nil {
		return goal.CheckIn{}, fmt.Errorf("saving check-in: %w", err)
	}
	s.trace(ctx, "accountability", in, out)
	return out, nil
}

// Reflect records a weekly reflection for an existing goal.
func (s *Service) Reflect(ctx context.Context, in ReflectionInput) (out goal.Reflection, err error) {
	defer s.count("reflection", &err)
	if err := validateInput(&in); err != nil {
		return goal.Reflection{}, err
	}
	if out, err = RunReflection(in); err != nil {
		return goal.Reflection{}, err
	}
	if err := s.repo.PrependReflection(ctx, in.GoalID, out); err != nil {
		return goal.Reflection{}, fmt.Errorf("saving reflection: %w", err)
	}
	s.trace(ctx, "reflection", in, out)
	return out, nil
}

// UpdateGoal replaces the timeframe, motivation and constraints of a goal.
func (s *Service) UpdateGoal(ctx context.Context, in GoalUpdateInput) (err error) {
	defer s.count("update", &err)
	if err := validateInput(&in); err != nil {
		return err
	}
	if err := s.repo.UpdateDetails(ctx, in.GoalID, goal.Details{
		TimeframeWeeks: *in.TimeframeWeeks,
		Motivation:     in.Motivation,
		Constraints:    in.Constraints,
	}); err != nil {
		return fmt.Errorf("updating goal: %w", err)
	}
	return nil
}

func (s *Service) Goal(ctx context.Context, id string) (goal.Record, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) LatestGoal(ctx context.Context) (goal.Record, error) {
	return s.repo.Latest(ctx)
}

// trace never fails the caller; export problems are logged.
func (s *Service) trace(ctx context.Context, name string, in, out any) {
	if s.tracer == nil {
		return
	}
	if err := s.tracer.Emit(ctx, name, Prompts[name], in, out); err != nil {
		s.logger.Warn("agent trace failed", "agent", name, "error", err)
	}
}

func (s *Service) count(op string, err *error) {
	result := metrics.ResultOK
	switch {
	case *err == nil:
	case errors.Is(*err, ErrInvalidInput):
		result = metrics.ResultInvalid
	case errors.Is(*err, goal.ErrNotFound):
		result = metrics.ResultNotFound
	default:
		result = metrics.ResultError
	}
	metrics.GoalMutations.WithLabelValues(op, result).Inc()
}
