package logic

import (
	"errors"

	"formbox/internal/model"
)

var (
	// ErrIncompleteStep is returned by Next when a visible required question
	// in the active step has no answer.
	ErrIncompleteStep = errors.New("required questions in the current step are unanswered")

	// ErrBackDisabled is returned by Previous when the form's settings do not
	// allow back navigation.
	ErrBackDisabled = errors.New("back navigation is disabled for this form")

	// ErrAtFirstStep is returned by Previous on the first step.
	ErrAtFirstStep = errors.New("already at the first step")

	// ErrNoSteps is returned when the form has no steps to navigate.
	ErrNoSteps = errors.New("form has no steps")
)

// LastStepIndex returns the index of the final reachable step. A form with
// isMultiStep=false only ever reaches its first step, regardless of how many
// steps the document carries.
func LastStepIndex(form *model.FormConfig) int {
	if !form.IsMultiStep {
		return 0
	}
	return len(form.Steps) - 1
}

// StepComplete reports whether every visible required question of the step
// has a non-empty answer. Hidden questions are never required, whatever
// their own required flag says; an empty string or empty list counts as
// unanswered here even though the evaluator treats the empty string as
// answered.
func StepComplete(step model.Step, responses model.FormResponse) bool {
	for _, q := range VisibleQuestions(step, responses) {
		if q.Required && responses.Get(q.ID).Empty() {
			return false
		}
	}
	return true
}

// Next advances the navigator by one step. It returns the new step index and
// whether the transition submitted the form: on the last reachable step a
// successful Next yields submitted=true and leaves the index in place.
// Progress is gated on StepComplete for the active step.
func Next(form *model.FormConfig, stepIndex int, responses model.FormResponse) (int, bool, error) {
	if len(form.Steps) == 0 {
		return stepIndex, false, ErrNoSteps
	}
	if stepIndex < 0 || stepIndex >= len(form.Steps) {
		return stepIndex, false, errors.New("step index out of range")
	}
	if !StepComplete(form.Steps[stepIndex], responses) {
		return stepIndex, false, ErrIncompleteStep
	}
	if stepIndex >= LastStepIndex(form) {
		return stepIndex, true, nil
	}
	return stepIndex + 1, false, nil
}

// Previous steps back by one. Allowed only when the form's settings permit
// it and the navigator is not on the first step. Going back never validates:
// answers already given are kept as-is.
func Previous(form *model.FormConfig, stepIndex int) (int, error) {
	if len(form.Steps) == 0 {
		return stepIndex, ErrNoSteps
	}
	if !form.Settings.AllowBack {
		return stepIndex, ErrBackDisabled
	}
	if stepIndex <= 0 {
		return stepIndex, ErrAtFirstStep
	}
	return stepIndex - 1, nil
}
