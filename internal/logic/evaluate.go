// Package logic implements the pure core of the form engine: conditional
// visibility evaluation, response reconciliation and step navigation. Nothing
// here performs I/O or mutates its inputs.
package logic

import (
	"strings"

	"formbox/internal/model"
)

// Visible reports whether a question should currently be shown. A question
// with no rules is always visible; otherwise every rule must hold (AND).
func Visible(q model.Question, responses model.FormResponse) bool {
	if len(q.ConditionalLogic) == 0 {
		return true
	}
	for _, rule := range q.ConditionalLogic {
		if !ruleHolds(rule, responses) {
			return false
		}
	}
	return true
}

// ruleHolds evaluates a single rule. An unanswered prerequisite never
// satisfies a rule, including the negated operators: "not yet answered" is
// not the same as "answered something else". A rule referencing a question
// id that never gets answered therefore evaluates false forever rather than
// failing.
func ruleHolds(rule model.Rule, responses model.FormResponse) bool {
	answer := responses.Get(rule.QuestionID)
	if !answer.Answered() {
		return false
	}

	switch rule.Condition {
	case model.ConditionEquals:
		return equals(rule.Value, answer)
	case model.ConditionNotEquals:
		return !equals(rule.Value, answer)
	case model.ConditionContains:
		return contains(rule.Value, answer)
	case model.ConditionNotContains:
		return !contains(rule.Value, answer)
	default:
		// Unknown operators are trivially satisfied so that forms authored
		// by newer tooling still render. Lint reports them.
		return true
	}
}

// equals implements the equals operator. A list rule value means OR across
// the listed values: a list answer matches on any shared element, a scalar
// answer matches on membership. Scalar against scalar compares the
// stringified forms.
func equals(value model.RuleValue, answer model.Answer) bool {
	if value.List {
		if answer.Kind == model.KindList {
			return intersects(answer.List, value.Values)
		}
		return value.Contains(answer.Text())
	}
	return answer.Text() == value.Text()
}

// contains implements the contains operator. List answers are compared by
// set membership; scalar answers by case-insensitive substring against the
// stringified rule value.
func contains(value model.RuleValue, answer model.Answer) bool {
	if answer.Kind == model.KindList {
		if value.List {
			return intersects(answer.List, value.Values)
		}
		return answer.Contains(value.Text())
	}
	return strings.Contains(
		strings.ToLower(answer.Text()),
		strings.ToLower(value.Text()),
	)
}

func intersects(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

// VisibleSet computes the ids of every currently visible question across all
// steps of the form.
func VisibleSet(form *model.FormConfig, responses model.FormResponse) map[string]bool {
	visible := make(map[string]bool, form.QuestionCount())
	for _, step := range form.Steps {
		for _, q := range step.Questions {
			if Visible(q, responses) {
				visible[q.ID] = true
			}
		}
	}
	return visible
}

// VisibleQuestions returns the questions of one step that are visible under
// the given response set, in step order.
func VisibleQuestions(step model.Step, responses model.FormResponse) []model.Question {
	out := make([]model.Question, 0, len(step.Questions))
	for _, q := range step.Questions {
		if Visible(q, responses) {
			out = append(out, q)
		}
	}
	return out
}
