package goal

import "time"

// Intake is the structured goal produced from a free-text resolution.
type Intake struct {
	GoalID           string `json:"goalId" validate:"required"`
	Goal             string `json:"goal" validate:"required"`
	SuccessMetric    string `json:"successMetric" validate:"required"`
	WeeklyCadence    string `json:"weeklyCadence" validate:"required"`
	InitialMilestone string `json:"initialMilestone" validate:"required"`
}

// Plan holds weekly milestones and daily commitments derived from a goal.
type Plan struct {
	GoalID           string   `json:"goalId" validate:"required"`
	Focus            string   `json:"focus" validate:"required"`
	WeeklyMilestones []string `json:"weeklyMilestones" validate:"required,min=1"`
	DailyCommitments []string `json:"dailyCommitments" validate:"required,min=1"`
}

// CheckIn is the result of one accountability check-in.
type CheckIn struct {
	GoalID         string `json:"goalId" validate:"required"`
	Status         string `json:"status" validate:"required"`
	Recommendation string `json:"recommendation" validate:"required"`
	NextAction     string `json:"nextAction" validate:"required"`
}

// Reflection is a periodic summary of highlights and adjustments.
type Reflection struct {
	GoalID      string   `json:"goalId" validate:"required"`
	Summary     string   `json:"summary" validate:"required"`
	Wins        []string `json:"wins" validate:"required,min=1"`
	Adjustments []string `json:"adjustments" validate:"required,min=1"`
}

// Details is the editable goal metadata.
type Details struct {
	TimeframeWeeks int      `json:"timeframeWeeks"`
	Motivation     string   `json:"motivation"`
	Constraints    []string `json:"constraints"`
}

// Record is the aggregate state of one commitment cycle.
// CheckIns and Reflections are ordered newest first. Plan is nil until the
// planner has run.
type Record struct {
	GoalID      string       `json:"goalId"`
	Intake      Intake       `json:"intake"`
	Plan        *Plan        `json:"plan"`
	CheckIns    []CheckIn    `json:"checkIns"`
	Reflections []Reflection `json:"reflections"`
	Details
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewRecord builds a fresh record for the given intake with no plan and empty
// check-in and reflection sequences.
func NewRecord(in Intake, d Details) Record {
	return Record{
		GoalID:      in.GoalID,
		Intake:      in,
		CheckIns:    []CheckIn{},
		Reflections: []Reflection{},
		Details:     d,
	}
}

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	out := r
	if r.Plan != nil {
		p := r.Plan.clone()
		out.Plan = &p
	}
	out.CheckIns = append([]CheckIn{}, r.CheckIns...)
	out.Reflections = make([]Reflection, len(r.Reflections))
	for i, ref := range r.Reflections {
		out.Reflections[i] = ref.clone()
	}
	out.Constraints = cloneStrings(r.Constraints)
	return out
}

func (p Plan) clone() Plan {
	p.WeeklyMilestones = cloneStrings(p.WeeklyMilestones)
	p.DailyCommitments = cloneStrings(p.DailyCommitments)
	return p
}

func (r Reflection) clone() Reflection {
	r.Wins = cloneStrings(r.Wins)
	r.Adjustments = cloneStrings(r.Adjustments)
	return r
}

func cloneStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return append([]string{}, s...)
}
