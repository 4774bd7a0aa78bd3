package agents

// IntakeInput is the free-text resolution a user starts with.
type IntakeInput struct {
	Resolution     string   `json:"resolution" validate:"required,min=5"`
	TimeframeWeeks *int     `json:"timeframeWeeks" validate:"required,min=1,max=52"`
	Motivation     string   `json:"motivation" validate:"required,min=3"`
	Constraints    []string `json:"constraints"`
}

type PlannerInput struct {
	GoalID         string   `json:"goalId" validate:"required"`
	Goal           string   `json:"goal" validate:"required"`
	TimeframeWeeks *int     `json:"timeframeWeeks" validate:"required,min=1,max=52"`
	SuccessMetric  string   `json:"successMetric" validate:"required"`
	Constraints    []string `json:"constraints"`
}

type AccountabilityInput struct {
	GoalID         string `json:"goalId" validate:"required"`
	CheckInNote    string `json:"checkInNote" validate:"required,min=3"`
	Mood           string `json:"mood" validate:"required,oneof=low steady high"`
	CompletedTasks *int   `json:"completedTasks" validate:"required,min=0"`
}

type ReflectionInput struct {
	GoalID         string   `json:"goalId" validate:"required"`
	WeekHighlights []string `json:"weekHighlights" validate:"required,min=1"`
	Blockers       []string `json:"blockers"`
}

// GoalUpdateInput edits the details captured at intake.
type GoalUpdateInput struct {
	GoalID         string   `json:"goalId" validate:"required"`
	TimeframeWeeks *int     `json:"timeframeWeeks" validate:"required,min=1,max=52"`
	Motivation     string   `json:"motivation" validate:"required,min=3"`
	Constraints    []string `json:"constraints"`
}

func (in *IntakeInput) defaults() { in.Constraints = orEmpty(in.Constraints) }

func (in *PlannerInput) defaults() { in.Constraints = orEmpty(in.Constraints) }

func (in *AccountabilityInput) defaults() {}

func (in *ReflectionInput) defaults() { in.Blockers = orEmpty(in.Blockers) }

func (in *GoalUpdateInput) defaults() { in.Constraints = orEmpty(in.Constraints) }

// weeks reads a validated timeframe. Unvalidated nil reads as zero.
func weeks(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
