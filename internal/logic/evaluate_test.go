package logic

import (
	"testing"

	"formbox/internal/model"

	"github.com/stretchr/testify/assert"
)

func question(id string, rules ...model.Rule) model.Question {
	return model.Question{
		ID:               id,
		Type:             model.TypeShortText,
		Title:            id,
		ConditionalLogic: rules,
	}
}

func TestVisibleNoRules(t *testing.T) {
	q := question("q1")
	assert.True(t, Visible(q, model.FormResponse{}))
	assert.True(t, Visible(q, nil))
}

func TestEqualsScalar(t *testing.T) {
	q := question("q2", model.Rule{
		QuestionID: "q1",
		Condition:  model.ConditionEquals,
		Value:      model.NewRuleValue("yes"),
	})

	assert.True(t, Visible(q, model.FormResponse{"q1": model.StringAnswer("yes")}))
	assert.False(t, Visible(q, model.FormResponse{"q1": model.StringAnswer("no")}))
	assert.False(t, Visible(q, model.FormResponse{}))
}

func TestEqualsStringifiesNumbersAndBools(t *testing.T) {
	q := question("q2", model.Rule{
		QuestionID: "q1",
		Condition:  model.ConditionEquals,
		Value:      model.NewRuleValue("25"),
	})
	assert.True(t, Visible(q, model.FormResponse{"q1": model.NumberAnswer(25)}))
	assert.False(t, Visible(q, model.FormResponse{"q1": model.NumberAnswer(26)}))

	qb := question("q2", model.Rule{
		QuestionID: "q1",
		Condition:  model.ConditionEquals,
		Value:      model.NewRuleValue("true"),
	})
	assert.True(t, Visible(qb, model.FormResponse{"q1": model.BoolAnswer(true)}))
	assert.False(t, Visible(qb, model.FormResponse{"q1": model.BoolAnswer(false)}))
}

func TestEqualsListRuleValueIsDisjunction(t *testing.T) {
	q := question("q2", model.Rule{
		QuestionID: "q1",
		Condition:  model.ConditionEquals,
		Value:      model.NewRuleValues("a", "b"),
	})

	// Scalar response: membership in the listed values.
	assert.True(t, Visible(q, model.FormResponse{"q1": model.StringAnswer("a")}))
	assert.True(t, Visible(q, model.FormResponse{"q1": model.StringAnswer("b")}))
	assert.False(t, Visible(q, model.FormResponse{"q1": model.StringAnswer("c")}))

	// List response: any shared element.
	assert.True(t, Visible(q, model.FormResponse{"q1": model.ListAnswer("c", "b")}))
	assert.False(t, Visible(q, model.FormResponse{"q1": model.ListAnswer("c", "d")}))
}

func TestNotEqualsNeedsAnAnswer(t *testing.T) {
	q := question("q2", model.Rule{
		QuestionID: "q1",
		Condition:  model.ConditionNotEquals,
		Value:      model.NewRuleValue("yes"),
	})

	// Unanswered never satisfies a rule, negated operators included.
	assert.False(t, Visible(q, model.FormResponse{}))
	assert.False(t, Visible(q, model.FormResponse{"q1": model.NullAnswer()}))

	// The empty string is an answer.
	assert.True(t, Visible(q, model.FormResponse{"q1": model.StringAnswer("")}))
	assert.True(t, Visible(q, model.FormResponse{"q1": model.StringAnswer("no")}))
	assert.False(t, Visible(q, model.FormResponse{"q1": model.StringAnswer("yes")}))
}

func TestContainsListResponse(t *testing.T) {
	q := question("q2", model.Rule{
		QuestionID: "q1",
		Condition:  model.ConditionContains,
		Value:      model.NewRuleValue("b"),
	})

	assert.True(t, Visible(q, model.FormResponse{"q1": model.ListAnswer("a", "b")}))
	assert.False(t, Visible(q, model.FormResponse{"q1": model.ListAnswer("a", "c")}))
}

func TestContainsScalarResponseSubstring(t *testing.T) {
	q := question("q2", model.Rule{
		QuestionID: "q1",
		Condition:  model.ConditionContains,
		Value:      model.NewRuleValue("world"),
	})

	assert.True(t, Visible(q, model.FormResponse{"q1": model.StringAnswer("Hello World")}))
	assert.True(t, Visible(q, model.FormResponse{"q1": model.StringAnswer("WORLDWIDE")}))
	assert.False(t, Visible(q, model.FormResponse{"q1": model.StringAnswer("hello")}))
}

func TestContainsListRuleValueAgainstLists(t *testing.T) {
	q := question("q2", model.Rule{
		QuestionID: "q1",
		Condition:  model.ConditionContains,
		Value:      model.NewRuleValues("x", "y"),
	})

	assert.True(t, Visible(q, model.FormResponse{"q1": model.ListAnswer("y", "z")}))
	assert.False(t, Visible(q, model.FormResponse{"q1": model.ListAnswer("z")}))

	// Scalar response against a list rule value compares against the
	// comma-joined form.
	assert.True(t, Visible(q, model.FormResponse{"q1": model.StringAnswer("x,y")}))
	assert.False(t, Visible(q, model.FormResponse{"q1": model.StringAnswer("x")}))
}

func TestNotContains(t *testing.T) {
	q := question("q2", model.Rule{
		QuestionID: "q1",
		Condition:  model.ConditionNotContains,
		Value:      model.NewRuleValue("b"),
	})

	assert.True(t, Visible(q, model.FormResponse{"q1": model.ListAnswer("a", "c")}))
	assert.False(t, Visible(q, model.FormResponse{"q1": model.ListAnswer("a", "b")}))
	assert.False(t, Visible(q, model.FormResponse{}))
}

func TestUnknownOperatorIsSatisfied(t *testing.T) {
	q := question("q2", model.Rule{
		QuestionID: "q1",
		Condition:  model.Condition("starts-with"),
		Value:      model.NewRuleValue("x"),
	})

	// Permissive by contract, but only once the prerequisite is answered.
	assert.True(t, Visible(q, model.FormResponse{"q1": model.StringAnswer("anything")}))
	assert.False(t, Visible(q, model.FormResponse{}))
}

func TestMultipleRulesAreConjoined(t *testing.T) {
	q := question("q3",
		model.Rule{QuestionID: "q1", Condition: model.ConditionEquals, Value: model.NewRuleValue("yes")},
		model.Rule{QuestionID: "q2", Condition: model.ConditionEquals, Value: model.NewRuleValue("yes")},
	)

	assert.True(t, Visible(q, model.FormResponse{
		"q1": model.StringAnswer("yes"),
		"q2": model.StringAnswer("yes"),
	}))
	assert.False(t, Visible(q, model.FormResponse{
		"q1": model.StringAnswer("yes"),
		"q2": model.StringAnswer("no"),
	}))
	assert.False(t, Visible(q, model.FormResponse{
		"q1": model.StringAnswer("yes"),
	}))
}

func TestVisibleSetSpansSteps(t *testing.T) {
	form := &model.FormConfig{
		IsMultiStep: true,
		Steps: []model.Step{
			{ID: "s1", Questions: []model.Question{question("q1")}},
			{ID: "s2", Questions: []model.Question{
				question("q2", model.Rule{
					QuestionID: "q1",
					Condition:  model.ConditionEquals,
					Value:      model.NewRuleValue("yes"),
				}),
			}},
		},
	}

	set := VisibleSet(form, model.FormResponse{"q1": model.StringAnswer("yes")})
	assert.True(t, set["q1"])
	assert.True(t, set["q2"])

	set = VisibleSet(form, model.FormResponse{"q1": model.StringAnswer("no")})
	assert.True(t, set["q1"])
	assert.False(t, set["q2"])
}
