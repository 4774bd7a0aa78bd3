package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kalambet/coach/internal/goal"
)

// GoalStore is the SQLite-backed goal.Repository.
type GoalStore struct {
	db *sql.DB
}

var _ goal.Repository = (*GoalStore)(nil)

// Goals returns the goal repository sharing this store's database.
func (s *Store) Goals() *GoalStore {
	return &GoalStore{db: s.db}
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (g *GoalStore) Create(ctx context.Context, rec goal.Record) error {
	constraints, err := encodeStrings(rec.Constraints)
	if err != nil {
		return err
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning create transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM goals WHERE id = ?`, rec.GoalID).Scan(&exists); err != nil {
		return fmt.Errorf("checking goal %s: %w", rec.GoalID, err)
	}
	if exists > 0 {
		return goal.ErrDuplicateID
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO goals (id, goal, success_metric, weekly_cadence, initial_milestone, timeframe_weeks, motivation, constraints, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.GoalID, rec.Intake.Goal, rec.Intake.SuccessMetric, rec.Intake.WeeklyCadence, rec.Intake.InitialMilestone,
		rec.TimeframeWeeks, rec.Motivation, constraints, now, now,
	)
	if err != nil {
		return fmt.Errorf("inserting goal %s: %w", rec.GoalID, err)
	}
	if err := touchSession(ctx, tx, rec.GoalID, now); err != nil {
		return err
	}
	return tx.Commit()
}

func (g *GoalStore) AttachPlan(ctx context.Context, id string, p goal.Plan) error {
	weekly, err := encodeStrings(p.WeeklyMilestones)
	if err != nil {
		return err
	}
	daily, err := encodeStrings(p.DailyCommitments)
	if err != nil {
		return err
	}
	return g.mutate(ctx, id, func(tx *sql.Tx, now string) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO goal_plans (goal_id, focus, weekly_milestones, daily_commitments, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(goal_id) DO UPDATE SET
				focus = excluded.focus,
				weekly_milestones = excluded.weekly_milestones,
				daily_commitments = excluded.daily_commitments,
				updated_at = excluded.updated_at`,
			id, p.Focus, weekly, daily, now,
		)
		return err
	})
}

func (g *GoalStore) PrependCheckIn(ctx context.Context, id string, c goal.CheckIn) error {
	return g.mutate(ctx, id, func(tx *sql.Tx, now string) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO goal_check_ins (goal_id, status, recommendation, next_action, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			id, c.Status, c.Recommendation, c.NextAction, now,
		)
		return err
	})
}

func (g *GoalStore) PrependReflection(ctx context.Context, id string, r goal.Reflection) error {
	wins, err := encodeStrings(r.Wins)
	if err != nil {
		return err
	}
	adjustments, err := encodeStrings(r.Adjustments)
	if err != nil {
		return err
	}
	return g.mutate(ctx, id, func(tx *sql.Tx, now string) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO goal_reflections (goal_id, summary, wins, adjustments, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			id, r.Summary, wins, adjustments, now,
		)
		return err
	})
}

func (g *GoalStore) UpdateDetails(ctx context.Context, id string, d goal.Details) error {
	constraints, err := encodeStrings(d.Constraints)
	if err != nil {
		return err
	}
	return g.mutate(ctx, id, func(tx *sql.Tx, _ string) error {
		_, err := tx.ExecContext(ctx,
			`UPDATE goals SET timeframe_weeks = ?, motivation = ?, constraints = ? WHERE id = ?`,
			d.TimeframeWeeks, d.Motivation, constraints, id,
		)
		return err
	})
}

func (g *GoalStore) Get(ctx context.Context, id string) (goal.Record, error) {
	return loadRecord(ctx, g.db, id)
}

func (g *GoalStore) Latest(ctx context.Context) (goal.Record, error) {
	var id string
	err := g.db.QueryRowContext(ctx, `SELECT goal_id FROM goal_sessions WHERE session = ?`, goal.SessionFrom(ctx)).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return goal.Record{}, goal.ErrNotFound
	}
	if err != nil {
		return goal.Record{}, fmt.Errorf("reading latest goal: %w", err)
	}
	return loadRecord(ctx, g.db, id)
}

// mutate runs fn inside a transaction after confirming the goal exists, then
// bumps updated_at and moves the session's latest pointer.
func (g *GoalStore) mutate(ctx context.Context, id string, fn func(tx *sql.Tx, now string) error) error {
	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM goals WHERE id = ?`, id).Scan(&exists); err != nil {
		return fmt.Errorf("checking goal %s: %w", id, err)
	}
	if exists == 0 {
		return goal.ErrNotFound
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	if err := fn(tx, now); err != nil {
		return fmt.Errorf("updating goal %s: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE goals SET updated_at = ? WHERE id = ?`, now, id); err != nil {
		return fmt.Errorf("touching goal %s: %w", id, err)
	}
	if err := touchSession(ctx, tx, id, now); err != nil {
		return err
	}
	return tx.Commit()
}

func touchSession(ctx context.Context, tx *sql.Tx, id, now string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO goal_sessions (session, goal_id, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(session) DO UPDATE SET goal_id = excluded.goal_id, updated_at = excluded.updated_at`,
		goal.SessionFrom(ctx), id, now,
	)
	if err != nil {
		return fmt.Errorf("updating latest goal pointer: %w", err)
	}
	return nil
}

func loadRecord(ctx context.Context, q queryer, id string) (goal.Record, error) {
	var (
		in                   goal.Intake
		d                    goal.Details
		constraints          string
		createdAt, updatedAt string
	)
	err := q.QueryRowContext(ctx, `
		SELECT id, goal, success_metric, weekly_cadence, initial_milestone, timeframe_weeks, motivation, constraints, created_at, updated_at
		FROM goals WHERE id = ?`, id,
	).Scan(&in.GoalID, &in.Goal, &in.SuccessMetric, &in.WeeklyCadence, &in.InitialMilestone,
		&d.TimeframeWeeks, &d.Motivation, &constraints, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return goal.Record{}, goal.ErrNotFound
	}
	if err != nil {
		return goal.Record{}, fmt.Errorf("reading goal %s: %w", id, err)
	}
	if d.Constraints, err = decodeStrings(constraints); err != nil {
		return goal.Record{}, err
	}

	rec := goal.NewRecord(in, d)
	if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return goal.Record{}, fmt.Errorf("parsing created_at for goal %s: %w", id, err)
	}
	if rec.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return goal.Record{}, fmt.Errorf("parsing updated_at for goal %s: %w", id, err)
	}

	if rec.Plan, err = loadPlan(ctx, q, id); err != nil {
		return goal.Record{}, err
	}
	if rec.CheckIns, err = loadCheckIns(ctx, q, id); err != nil {
		return goal.Record{}, err
	}
	if rec.Reflections, err = loadReflections(ctx, q, id); err != nil {
		return goal.Record{}, err
	}
	return rec, nil
}

func loadPlan(ctx context.Context, q queryer, id string) (*goal.Plan, error) {
	p := goal.Plan{GoalID: id}
	var weekly, daily string
	err := q.QueryRowContext(ctx,
		`SELECT focus, weekly_milestones, daily_commitments FROM goal_plans WHERE goal_id = ?`, id,
	).Scan(&p.Focus, &weekly, &daily)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading plan for goal %s: %w", id, err)
	}
	if p.WeeklyMilestones, err = decodeStrings(weekly); err != nil {
		return nil, err
	}
	if p.DailyCommitments, err = decodeStrings(daily); err != nil {
		return nil, err
	}
	return &p, nil
}

func loadCheckIns(ctx context.Context, q queryer, id string) ([]goal.CheckIn, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT status, recommendation, next_action FROM goal_check_ins WHERE goal_id = ? ORDER BY id DESC`, id)
	if err != nil {
		return nil, fmt.Errorf("reading check-ins for goal %s: %w", id, err)
	}
	defer rows.Close()

	out := []goal.CheckIn{}
	for rows.Next() {
		c := goal.CheckIn{GoalID: id}
		if err := rows.Scan(&c.Status, &c.Recommendation, &c.NextAction); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func loadReflections(ctx context.Context, q queryer, id string) ([]goal.Reflection, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT summary, wins, adjustments FROM goal_reflections WHERE goal_id = ? ORDER BY id DESC`, id)
	if err != nil {
		return nil, fmt.Errorf("reading reflections for goal %s: %w", id, err)
	}
	defer rows.Close()

	type row struct {
		summary, wins, adjustments string
	}
	var raw []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.summary, &r.wins, &r.adjustments); err != nil {
			return nil, err
		}
		raw = append(raw, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]goal.Reflection, 0, len(raw))
	for _, r := range raw {
		ref := goal.Reflection{GoalID: id, Summary: r.summary}
		if ref.Wins, err = decodeStrings(r.wins); err != nil {
			return nil, err
		}
		if ref.Adjustments, err = decodeStrings(r.adjustments); err != nil {
			return nil, err
		}
		out = append(out, ref)
	}
	return out, nil
}

func encodeStrings(s []string) (string, error) {
	if s == nil {
		s = []string{}
	}
	b, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("encoding string list: %w", err)
	}
	return string(b), nil
}

func decodeStrings(raw string) ([]string, error) {
	out := []string{}
	if strings.TrimSpace(raw) == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("decoding string list: %w", err)
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}
