package logic

import (
	"testing"

	"formbox/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func required(q model.Question) model.Question {
	q.Required = true
	return q
}

func twoStepForm() *model.FormConfig {
	return &model.FormConfig{
		IsMultiStep: true,
		Settings:    model.DefaultSettings(),
		Steps: []model.Step{
			{ID: "s1", Questions: []model.Question{required(question("q1"))}},
			{ID: "s2", Questions: []model.Question{required(question("q2"))}},
		},
	}
}

func TestNextBlocksOnRequiredQuestion(t *testing.T) {
	form := twoStepForm()

	_, _, err := Next(form, 0, model.FormResponse{})
	assert.ErrorIs(t, err, ErrIncompleteStep)

	// Empty string and empty list count as unanswered for requiredness.
	_, _, err = Next(form, 0, model.FormResponse{"q1": model.StringAnswer("")})
	assert.ErrorIs(t, err, ErrIncompleteStep)

	_, _, err = Next(form, 0, model.FormResponse{"q1": model.ListAnswer()})
	assert.ErrorIs(t, err, ErrIncompleteStep)
}

func TestNextAdvancesAndSubmits(t *testing.T) {
	form := twoStepForm()
	responses := model.FormResponse{
		"q1": model.StringAnswer("a"),
		"q2": model.StringAnswer("b"),
	}

	next, submitted, err := Next(form, 0, responses)
	require.NoError(t, err)
	assert.Equal(t, 1, next)
	assert.False(t, submitted)

	next, submitted, err = Next(form, 1, responses)
	require.NoError(t, err)
	assert.Equal(t, 1, next)
	assert.True(t, submitted)
}

func TestHiddenRequiredQuestionDoesNotBlock(t *testing.T) {
	form := &model.FormConfig{
		IsMultiStep: true,
		Settings:    model.DefaultSettings(),
		Steps: []model.Step{
			{ID: "s1", Questions: []model.Question{
				required(question("q1")),
				required(question("q2", model.Rule{
					QuestionID: "q1",
					Condition:  model.ConditionEquals,
					Value:      model.NewRuleValue("yes"),
				})),
			}},
			{ID: "s2", Questions: []model.Question{question("q3")}},
		},
	}

	// q2 is required but hidden under q1=no, so the step is complete.
	next, submitted, err := Next(form, 0, model.FormResponse{"q1": model.StringAnswer("no")})
	require.NoError(t, err)
	assert.Equal(t, 1, next)
	assert.False(t, submitted)

	// Under q1=yes it is visible and blocks.
	_, _, err = Next(form, 0, model.FormResponse{"q1": model.StringAnswer("yes")})
	assert.ErrorIs(t, err, ErrIncompleteStep)
}

func TestSingleStepFormSubmitsImmediately(t *testing.T) {
	form := &model.FormConfig{
		IsMultiStep: false,
		Settings:    model.DefaultSettings(),
		Steps: []model.Step{
			{ID: "s1", Questions: []model.Question{question("q1")}},
			{ID: "s2", Questions: []model.Question{question("q2")}},
		},
	}

	// isMultiStep=false pins the last reachable step to the first, whatever
	// the document carries.
	assert.Equal(t, 0, LastStepIndex(form))

	next, submitted, err := Next(form, 0, model.FormResponse{})
	require.NoError(t, err)
	assert.Equal(t, 0, next)
	assert.True(t, submitted)
}

func TestPrevious(t *testing.T) {
	form := twoStepForm()

	prev, err := Previous(form, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, prev)

	_, err = Previous(form, 0)
	assert.ErrorIs(t, err, ErrAtFirstStep)

	form.Settings.AllowBack = false
	_, err = Previous(form, 1)
	assert.ErrorIs(t, err, ErrBackDisabled)
}

func TestConditionalEmailScenario(t *testing.T) {
	form := &model.FormConfig{
		IsMultiStep: true,
		Settings:    model.DefaultSettings(),
		Steps: []model.Step{
			{ID: "s1", Questions: []model.Question{
				required(model.Question{
					ID:    "has-email",
					Type:  model.TypeSingleChoice,
					Title: "Do you have an email address?",
					Options: []model.Option{
						{ID: "o1", Label: "Yes", Value: "yes"},
						{ID: "o2", Label: "No", Value: "no"},
					},
				}),
			}},
			{ID: "s2", Questions: []model.Question{
				question("email", model.Rule{
					QuestionID: "has-email",
					Condition:  model.ConditionEquals,
					Value:      model.NewRuleValue("yes"),
				}),
			}},
		},
	}

	// has-email=no: step 2 is reachable and the email question stays hidden.
	responses := model.FormResponse{"has-email": model.StringAnswer("no")}
	next, _, err := Next(form, 0, responses)
	require.NoError(t, err)
	assert.Equal(t, 1, next)
	assert.Empty(t, VisibleQuestions(form.Steps[1], responses))

	// has-email=yes: email becomes visible but, being optional, an empty
	// answer does not block submission.
	responses = model.FormResponse{"has-email": model.StringAnswer("yes")}
	assert.Len(t, VisibleQuestions(form.Steps[1], responses), 1)

	_, submitted, err := Next(form, 1, responses)
	require.NoError(t, err)
	assert.True(t, submitted)
}

func TestNavigateEmptyForm(t *testing.T) {
	form := &model.FormConfig{Settings: model.DefaultSettings()}

	_, _, err := Next(form, 0, model.FormResponse{})
	assert.ErrorIs(t, err, ErrNoSteps)

	_, err = Previous(form, 0)
	assert.ErrorIs(t, err, ErrNoSteps)
}
