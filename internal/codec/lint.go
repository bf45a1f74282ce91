package codec

import (
	"fmt"

	"formbox/internal/model"
)

// Issue is a single finding of the strict validation pass.
type Issue struct {
	Code       string `json:"code"`
	StepID     string `json:"stepId,omitempty"`
	QuestionID string `json:"questionId,omitempty"`
	Message    string `json:"message"`
}

// Lint runs the opt-in strict validation pass over a form configuration. It
// reports the authoring mistakes the runtime evaluator is deliberately
// permissive about — unknown operators and dangling rule references — plus
// structural problems the lenient decoder repairs or tolerates. The runtime
// behavior of a form never depends on this pass.
func Lint(form *model.FormConfig) []Issue {
	var issues []Issue
	add := func(code, stepID, questionID, format string, args ...interface{}) {
		issues = append(issues, Issue{
			Code:       code,
			StepID:     stepID,
			QuestionID: questionID,
			Message:    fmt.Sprintf(format, args...),
		})
	}

	if len(form.Steps) == 0 {
		add("no-steps", "", "", "form has no steps")
	}

	validTypes := make(map[model.QuestionType]bool, len(model.QuestionTypes))
	for _, t := range model.QuestionTypes {
		validTypes[t] = true
	}

	// Order of first appearance in the flattened step->question sequence.
	// Rules may only reference questions that appear earlier.
	order := make(map[string]int, form.QuestionCount())
	pos := 0
	stepIDs := make(map[string]bool, len(form.Steps))
	for _, step := range form.Steps {
		if stepIDs[step.ID] {
			add("duplicate-step-id", step.ID, "", "step id %q is used more than once", step.ID)
		}
		stepIDs[step.ID] = true
		for _, q := range step.Questions {
			if _, seen := order[q.ID]; seen {
				add("duplicate-question-id", step.ID, q.ID, "question id %q is used more than once", q.ID)
			} else {
				order[q.ID] = pos
			}
			pos++
		}
	}

	pos = 0
	for _, step := range form.Steps {
		for _, q := range step.Questions {
			isChoice := q.Type == model.TypeSingleChoice || q.Type == model.TypeMultipleChoice

			if !validTypes[q.Type] {
				add("unknown-question-type", step.ID, q.ID, "unknown question type %q", q.Type)
			}
			if isChoice && len(q.Options) == 0 {
				add("missing-options", step.ID, q.ID, "%s question has no options", q.Type)
			}
			if !isChoice && len(q.Options) > 0 {
				add("unexpected-options", step.ID, q.ID, "%s question carries options", q.Type)
			}

			optionIDs := make(map[string]bool, len(q.Options))
			for _, opt := range q.Options {
				if optionIDs[opt.ID] {
					add("duplicate-option-id", step.ID, q.ID, "option id %q is used more than once", opt.ID)
				}
				optionIDs[opt.ID] = true
			}

			for _, rule := range q.ConditionalLogic {
				switch rule.Condition {
				case model.ConditionEquals, model.ConditionNotEquals,
					model.ConditionContains, model.ConditionNotContains:
				default:
					add("unknown-operator", step.ID, q.ID,
						"rule uses unknown operator %q; the renderer treats it as always satisfied", rule.Condition)
				}

				refPos, exists := order[rule.QuestionID]
				if !exists {
					add("dangling-reference", step.ID, q.ID,
						"rule references nonexistent question %q; it can never be satisfied", rule.QuestionID)
				} else if refPos >= pos {
					add("forward-reference", step.ID, q.ID,
						"rule references question %q which appears later in the form", rule.QuestionID)
				}

				if len(rule.Value.Values) == 0 {
					add("empty-rule-value", step.ID, q.ID, "rule has an empty value")
				}
			}
			pos++
		}
	}

	return issues
}
