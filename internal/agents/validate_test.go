package agents

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func issuesOf(t *testing.T, err error) Issues {
	t.Helper()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "want *ValidationError, got %v", err)
	require.ErrorIs(t, err, ErrInvalidInput)
	return verr.Issues
}

func TestValidateInput_Intake(t *testing.T) {
	in := IntakeInput{Resolution: "run", TimeframeWeeks: intPtr(60), Motivation: "x"}
	is := issuesOf(t, validateInput(&in))

	assert.Empty(t, is.FormErrors)
	assert.Equal(t, []string{"String must contain at least 5 character(s)"}, is.FieldErrors["resolution"])
	assert.Equal(t, []string{"Number must be less than or equal to 52"}, is.FieldErrors["timeframeWeeks"])
	assert.Equal(t, []string{"String must contain at least 3 character(s)"}, is.FieldErrors["motivation"])
	assert.NotContains(t, is.FieldErrors, "constraints")
}

func TestValidateInput_IntakeDefaultsConstraints(t *testing.T) {
	in := IntakeInput{Resolution: "run a 10k", TimeframeWeeks: intPtr(8), Motivation: "health"}
	require.NoError(t, validateInput(&in))
	assert.NotNil(t, in.Constraints)
	assert.Empty(t, in.Constraints)
}

func TestValidateInput_Accountability(t *testing.T) {
	in := AccountabilityInput{GoalID: "g", CheckInNote: "ok", Mood: "great"}
	is := issuesOf(t, validateInput(&in))

	assert.Equal(t, []string{"String must contain at least 3 character(s)"}, is.FieldErrors["checkInNote"])
	assert.Equal(t, []string{"Invalid enum value. Expected 'low' | 'steady' | 'high', received 'great'"}, is.FieldErrors["mood"])
	assert.Equal(t, []string{"Required"}, is.FieldErrors["completedTasks"])
}

func TestValidateInput_AccountabilityNegativeTasks(t *testing.T) {
	in := AccountabilityInput{GoalID: "g", CheckInNote: "fine", Mood: "low", CompletedTasks: intPtr(-1)}
	is := issuesOf(t, validateInput(&in))
	assert.Equal(t, []string{"Number must be greater than or equal to 0"}, is.FieldErrors["completedTasks"])
}

func TestValidateInput_ReflectionNeedsHighlight(t *testing.T) {
	in := ReflectionInput{GoalID: "g", WeekHighlights: []string{}}
	is := issuesOf(t, validateInput(&in))
	assert.Equal(t, []string{"Array must contain at least 1 element(s)"}, is.FieldErrors["weekHighlights"])
}

func TestDecodeInput(t *testing.T) {
	var in IntakeInput
	require.NoError(t, DecodeInput([]byte(`{"resolution":"run a 10k","timeframeWeeks":8,"motivation":"health"}`), &in))
	require.NotNil(t, in.TimeframeWeeks)
	assert.Equal(t, 8, *in.TimeframeWeeks)

	is := issuesOf(t, DecodeInput([]byte(`{"resolution":"run a 10k","timeframeWeeks":"eight"}`), &in))
	assert.Contains(t, is.FieldErrors, "timeframeWeeks")

	is = issuesOf(t, DecodeInput([]byte(`{"resolution":`), &in))
	assert.Equal(t, []string{"Malformed JSON body"}, is.FormErrors)

	is = issuesOf(t, DecodeInput(nil, &in))
	assert.Equal(t, []string{"Request body is required"}, is.FormErrors)
}

func TestDecodeInput_FractionalWeeksRejected(t *testing.T) {
	var in IntakeInput
	is := issuesOf(t, DecodeInput([]byte(`{"timeframeWeeks":2.5}`), &in))
	assert.Contains(t, is.FieldErrors, "timeframeWeeks")
}

func TestValidateInput_AbsentFieldsAreRequired(t *testing.T) {
	var in IntakeInput
	require.NoError(t, DecodeInput([]byte(`{}`), &in))
	is := issuesOf(t, validateInput(&in))
	assert.Equal(t, []string{"Required"}, is.FieldErrors["resolution"])
	assert.Equal(t, []string{"Required"}, is.FieldErrors["timeframeWeeks"])
	assert.Equal(t, []string{"Required"}, is.FieldErrors["motivation"])

	var refl ReflectionInput
	require.NoError(t, DecodeInput([]byte(`{"goalId":"g"}`), &refl))
	is = issuesOf(t, validateInput(&refl))
	assert.Equal(t, []string{"Required"}, is.FieldErrors["weekHighlights"])

	var upd GoalUpdateInput
	require.NoError(t, DecodeInput([]byte(`{"goalId":"g","motivation":"abc"}`), &upd))
	is = issuesOf(t, validateInput(&upd))
	assert.Equal(t, []string{"Required"}, is.FieldErrors["timeframeWeeks"])
}

func TestValidateInput_ZeroWeeksIsRange(t *testing.T) {
	in := IntakeInput{Resolution: "run a 10k", TimeframeWeeks: intPtr(0), Motivation: "health"}
	is := issuesOf(t, validateInput(&in))
	assert.Equal(t, []string{"Number must be greater than or equal to 1"}, is.FieldErrors["timeframeWeeks"])
}
