package logic

import (
	"testing"

	"formbox/internal/model"

	"github.com/stretchr/testify/assert"
)

func chainForm() *model.FormConfig {
	// q1 -> q2 (visible when q1=yes) -> q3 (visible when q2=yes)
	return &model.FormConfig{
		Steps: []model.Step{
			{ID: "s1", Questions: []model.Question{
				question("q1"),
				question("q2", model.Rule{
					QuestionID: "q1",
					Condition:  model.ConditionEquals,
					Value:      model.NewRuleValue("yes"),
				}),
				question("q3", model.Rule{
					QuestionID: "q2",
					Condition:  model.ConditionEquals,
					Value:      model.NewRuleValue("yes"),
				}),
			}},
		},
	}
}

func TestReconcileKeepsVisibleAnswers(t *testing.T) {
	form := chainForm()
	responses := model.FormResponse{
		"q1": model.StringAnswer("yes"),
		"q2": model.StringAnswer("yes"),
		"q3": model.StringAnswer("kept"),
	}

	cleaned := Reconcile(responses, form)
	assert.Len(t, cleaned, 3)
	assert.Equal(t, "kept", cleaned.Get("q3").Str)
}

func TestReconcileCascades(t *testing.T) {
	form := chainForm()

	// q1 flipped to no: q2 hides, and with q2's answer gone q3 must hide
	// too, within the same reconcile call.
	responses := model.FormResponse{
		"q1": model.StringAnswer("no"),
		"q2": model.StringAnswer("yes"),
		"q3": model.StringAnswer("stale"),
	}

	cleaned := Reconcile(responses, form)
	assert.Len(t, cleaned, 1)
	assert.Equal(t, "no", cleaned.Get("q1").Str)
	assert.False(t, cleaned.Get("q2").Answered())
	assert.False(t, cleaned.Get("q3").Answered())
}

func TestReconcileIsIdempotent(t *testing.T) {
	form := chainForm()
	responses := model.FormResponse{
		"q1": model.StringAnswer("no"),
		"q2": model.StringAnswer("yes"),
		"q3": model.StringAnswer("stale"),
	}

	once := Reconcile(responses, form)
	twice := Reconcile(once, form)
	assert.Equal(t, once, twice)
}

func TestReconcileDoesNotMutateInput(t *testing.T) {
	form := chainForm()
	responses := model.FormResponse{
		"q1": model.StringAnswer("no"),
		"q2": model.StringAnswer("yes"),
	}

	_ = Reconcile(responses, form)
	assert.Len(t, responses, 2)
	assert.Equal(t, "yes", responses.Get("q2").Str)
}

func TestReconcileDropsUnknownQuestionAnswers(t *testing.T) {
	form := chainForm()
	responses := model.FormResponse{
		"q1":    model.StringAnswer("yes"),
		"ghost": model.StringAnswer("value"),
	}

	cleaned := Reconcile(responses, form)
	assert.False(t, cleaned.Get("ghost").Answered())
	assert.Equal(t, "yes", cleaned.Get("q1").Str)
}
