// Package goaltest provides a behavioural suite shared by every goal.Repository
// implementation.
package goaltest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalambet/coach/internal/goal"
)

// SampleRecord returns a freshly created record for id.
func SampleRecord(id string) goal.Record {
	return goal.NewRecord(goal.Intake{
		GoalID:           id,
		Goal:             "Build run a 10k in 8 weeks",
		SuccessMetric:    "Complete 24 focused sessions",
		WeeklyCadence:    "3 sessions per week",
		InitialMilestone: "Book the first three sessions in your calendar",
	}, goal.Details{
		TimeframeWeeks: 8,
		Motivation:     "feel stronger",
		Constraints:    []string{"weekday evenings only"},
	})
}

// SamplePlan returns a plan for id.
func SamplePlan(id string) goal.Plan {
	return goal.Plan{
		GoalID:           id,
		Focus:            "Consistency and low-friction scheduling",
		WeeklyMilestones: []string{"Week 1: run 3x", "Week 2: run 3x"},
		DailyCommitments: []string{"Morning check-in", "Evening reflection"},
	}
}

// RunRepositorySuite exercises the goal.Repository contract against the
// implementation returned by newRepo. newRepo must return an empty repository.
func RunRepositorySuite(t *testing.T, newRepo func(t *testing.T) goal.Repository) {
	t.Run("CreateThenGet", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		require.NoError(t, repo.Create(ctx, SampleRecord("goal_a")))

		got, err := repo.Get(ctx, "goal_a")
		require.NoError(t, err)
		assert.Nil(t, got.Plan)
		assert.Empty(t, got.CheckIns)
		assert.Empty(t, got.Reflections)
		assert.Equal(t, "Build run a 10k in 8 weeks", got.Intake.Goal)
		assert.Equal(t, 8, got.TimeframeWeeks)
		assert.Equal(t, []string{"weekday evenings only"}, got.Constraints)
	})

	t.Run("CreateDuplicate", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		require.NoError(t, repo.Create(ctx, SampleRecord("goal_a")))
		err := repo.Create(ctx, SampleRecord("goal_a"))
		assert.ErrorIs(t, err, goal.ErrDuplicateID)
	})

	t.Run("AttachPlanRoundTrip", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		require.NoError(t, repo.Create(ctx, SampleRecord("goal_a")))

		plan := SamplePlan("goal_a")
		require.NoError(t, repo.AttachPlan(ctx, "goal_a", plan))

		got, err := repo.Get(ctx, "goal_a")
		require.NoError(t, err)
		require.NotNil(t, got.Plan)
		assert.Equal(t, plan, *got.Plan)

		replan := plan
		replan.Focus = "Recovery"
		replan.WeeklyMilestones = []string{"Week 1: walk"}
		require.NoError(t, repo.AttachPlan(ctx, "goal_a", replan))

		got, err = repo.Get(ctx, "goal_a")
		require.NoError(t, err)
		assert.Equal(t, replan, *got.Plan)
	})

	t.Run("CheckInsNewestFirst", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		require.NoError(t, repo.Create(ctx, SampleRecord("goal_a")))

		c1 := goal.CheckIn{GoalID: "goal_a", Status: "Needs a reset", Recommendation: "r1", NextAction: "n1"}
		c2 := goal.CheckIn{GoalID: "goal_a", Status: "On track", Recommendation: "r2", NextAction: "n2"}
		require.NoError(t, repo.PrependCheckIn(ctx, "goal_a", c1))
		require.NoError(t, repo.PrependCheckIn(ctx, "goal_a", c2))

		got, err := repo.Get(ctx, "goal_a")
		require.NoError(t, err)
		assert.Equal(t, []goal.CheckIn{c2, c1}, got.CheckIns)
	})

	t.Run("ReflectionsNewestFirst", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		require.NoError(t, repo.Create(ctx, SampleRecord("goal_a")))

		r1 := goal.Reflection{GoalID: "goal_a", Summary: "s1", Wins: []string{"w1"}, Adjustments: []string{"a1"}}
		r2 := goal.Reflection{GoalID: "goal_a", Summary: "s2", Wins: []string{"w2"}, Adjustments: []string{"a2"}}
		require.NoError(t, repo.PrependReflection(ctx, "goal_a", r1))
		require.NoError(t, repo.PrependReflection(ctx, "goal_a", r2))

		got, err := repo.Get(ctx, "goal_a")
		require.NoError(t, err)
		assert.Equal(t, []goal.Reflection{r2, r1}, got.Reflections)
	})

	t.Run("UnknownIDIsNotFound", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		assert.ErrorIs(t, repo.AttachPlan(ctx, "missing", SamplePlan("missing")), goal.ErrNotFound)
		assert.ErrorIs(t, repo.PrependCheckIn(ctx, "missing", goal.CheckIn{GoalID: "missing"}), goal.ErrNotFound)
		assert.ErrorIs(t, repo.PrependReflection(ctx, "missing", goal.Reflection{GoalID: "missing"}), goal.ErrNotFound)
		assert.ErrorIs(t, repo.UpdateDetails(ctx, "missing", goal.Details{TimeframeWeeks: 2}), goal.ErrNotFound)

		_, err := repo.Get(ctx, "missing")
		assert.ErrorIs(t, err, goal.ErrNotFound)
	})

	t.Run("UpdateDetailsUnknownLeavesOthersUntouched", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		require.NoError(t, repo.Create(ctx, SampleRecord("goal_a")))
		before, err := repo.Get(ctx, "goal_a")
		require.NoError(t, err)

		err = repo.UpdateDetails(ctx, "goal_zzz", goal.Details{TimeframeWeeks: 40, Motivation: "other"})
		require.ErrorIs(t, err, goal.ErrNotFound)

		after, err := repo.Get(ctx, "goal_a")
		require.NoError(t, err)
		assert.Equal(t, before.Details, after.Details)
		assert.Equal(t, before.Intake, after.Intake)
	})

	t.Run("UpdateDetails", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		require.NoError(t, repo.Create(ctx, SampleRecord("goal_a")))

		d := goal.Details{TimeframeWeeks: 12, Motivation: "marathon next year", Constraints: []string{}}
		require.NoError(t, repo.UpdateDetails(ctx, "goal_a", d))

		got, err := repo.Get(ctx, "goal_a")
		require.NoError(t, err)
		assert.Equal(t, d, got.Details)
	})

	t.Run("LatestFollowsMutations", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.Latest(ctx)
		require.ErrorIs(t, err, goal.ErrNotFound)

		require.NoError(t, repo.Create(ctx, SampleRecord("goal_a")))
		require.NoError(t, repo.Create(ctx, SampleRecord("goal_b")))

		latest, err := repo.Latest(ctx)
		require.NoError(t, err)
		assert.Equal(t, "goal_b", latest.GoalID)

		require.NoError(t, repo.PrependCheckIn(ctx, "goal_a", goal.CheckIn{GoalID: "goal_a", Status: "On track", Recommendation: "r", NextAction: "n"}))
		latest, err = repo.Latest(ctx)
		require.NoError(t, err)
		assert.Equal(t, "goal_a", latest.GoalID)

		// A failed mutation does not move the pointer.
		require.ErrorIs(t, repo.AttachPlan(ctx, "missing", SamplePlan("missing")), goal.ErrNotFound)
		latest, err = repo.Latest(ctx)
		require.NoError(t, err)
		assert.Equal(t, "goal_a", latest.GoalID)
	})

	t.Run("LatestIsPerSession", func(t *testing.T) {
		repo := newRepo(t)
		alice := goal.WithSession(context.Background(), "alice")
		bob := goal.WithSession(context.Background(), "bob")

		require.NoError(t, repo.Create(alice, SampleRecord("goal_alice")))
		require.NoError(t, repo.Create(bob, SampleRecord("goal_bob")))

		got, err := repo.Latest(alice)
		require.NoError(t, err)
		assert.Equal(t, "goal_alice", got.GoalID)

		got, err = repo.Latest(bob)
		require.NoError(t, err)
		assert.Equal(t, "goal_bob", got.GoalID)

		_, err = repo.Latest(context.Background())
		assert.ErrorIs(t, err, goal.ErrNotFound)
	})

	t.Run("ReturnedRecordsAreCopies", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		require.NoError(t, repo.Create(ctx, SampleRecord("goal_a")))
		require.NoError(t, repo.AttachPlan(ctx, "goal_a", SamplePlan("goal_a")))

		got, err := repo.Get(ctx, "goal_a")
		require.NoError(t, err)
		got.Plan.WeeklyMilestones[0] = "tampered"
		got.Constraints[0] = "tampered"

		again, err := repo.Get(ctx, "goal_a")
		require.NoError(t, err)
		assert.Equal(t, "Week 1: run 3x", again.Plan.WeeklyMilestones[0])
		assert.Equal(t, "weekday evenings only", again.Constraints[0])
	})

	t.Run("ConcurrentCheckIns", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		require.NoError(t, repo.Create(ctx, SampleRecord("goal_a")))

		const n = 20
		var wg sync.WaitGroup
		for i := range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				c := goal.CheckIn{GoalID: "goal_a", Status: "On track", Recommendation: fmt.Sprintf("r%d", i), NextAction: "n"}
				assert.NoError(t, repo.PrependCheckIn(ctx, "goal_a", c))
			}()
		}
		wg.Wait()

		got, err := repo.Get(ctx, "goal_a")
		require.NoError(t, err)
		assert.Len(t, got.CheckIns, n)
	})
}
