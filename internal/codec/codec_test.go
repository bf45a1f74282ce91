package codec

import (
	"testing"

	"formbox/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleForm() *model.FormConfig {
	return &model.FormConfig{
		ID:          "form-1",
		Title:       "Contact",
		Description: "Reach out",
		IsMultiStep: true,
		Settings:    model.DefaultSettings(),
		Steps: []model.Step{
			{
				ID:    "step-1",
				Title: "About you",
				Questions: []model.Question{
					{
						ID:       "q-name",
						Type:     model.TypeShortText,
						Title:    "Your name",
						Required: true,
					},
					{
						ID:    "q-channel",
						Type:  model.TypeSingleChoice,
						Title: "Preferred channel",
						Options: []model.Option{
							{ID: "o1", Label: "Email", Value: "email"},
							{ID: "o2", Label: "Phone", Value: "phone"},
						},
					},
					{
						ID:    "q-phone",
						Type:  model.TypePhone,
						Title: "Phone number",
						ConditionalLogic: []model.Rule{
							{
								QuestionID: "q-channel",
								Condition:  model.ConditionEquals,
								Value:      model.NewRuleValue("phone"),
							},
						},
					},
				},
			},
			{ID: "step-2", Title: "Done", Questions: []model.Question{}},
		},
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	form := sampleForm()

	data, err := Encode(form)
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, form, decoded)
}

func TestDecodeMalformedText(t *testing.T) {
	_, err := Decode([]byte("{not json"))
	var parseErr *ParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestDecodeMissingSteps(t *testing.T) {
	_, err := Decode([]byte(`{"id":"x","title":"X"}`))
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Msg, "steps")

	_, err = Decode([]byte(`{"steps":"nope"}`))
	assert.ErrorAs(t, err, &validationErr)
}

func TestDecodeRepairsOmissions(t *testing.T) {
	doc := `{
  "steps": [
    {"questions": [{"id": "q1", "type": "short-text", "title": "Q"}]},
    {}
  ]
}`
	form, err := Decode([]byte(doc))
	require.NoError(t, err)

	assert.NotEmpty(t, form.ID)
	assert.Equal(t, "Imported Form", form.Title)
	assert.True(t, form.IsMultiStep, "two steps infer a multi-step form")
	assert.Equal(t, model.DefaultSettings(), form.Settings)

	for i, step := range form.Steps {
		assert.NotEmpty(t, step.ID)
		assert.NotEmpty(t, step.Title)
		assert.NotNil(t, step.Questions, "step %d questions repaired to empty list", i)
	}
	assert.NotEqual(t, form.Steps[0].ID, form.Steps[1].ID)
}

func TestDecodeSingleStepDefaultsToSingleStepForm(t *testing.T) {
	form, err := Decode([]byte(`{"steps": [{"id": "s1", "title": "Only"}]}`))
	require.NoError(t, err)
	assert.False(t, form.IsMultiStep)
}

func TestDecodeRespectsExplicitFlags(t *testing.T) {
	form, err := Decode([]byte(`{
  "isMultiStep": false,
  "steps": [{"id": "s1"}, {"id": "s2"}],
  "settings": {"allowBack": false}
}`))
	require.NoError(t, err)

	assert.False(t, form.IsMultiStep)
	assert.False(t, form.Settings.AllowBack)
	// Omitted settings fields still take their defaults.
	assert.True(t, form.Settings.ShowProgress)
	assert.Equal(t, "Submit", form.Settings.SubmitButtonText)
}

func TestDecodeIgnoresUnknownFields(t *testing.T) {
	form, err := Decode([]byte(`{
  "steps": [{"id": "s1", "extra": 42}],
  "theme": "dark"
}`))
	require.NoError(t, err)
	assert.Len(t, form.Steps, 1)
}

func TestDecodeToleratesEmptySteps(t *testing.T) {
	form, err := Decode([]byte(`{"steps": []}`))
	require.NoError(t, err)
	assert.Empty(t, form.Steps)
	assert.False(t, form.IsMultiStep)
}

func TestDecodeRuleValueShapes(t *testing.T) {
	doc := `{
  "steps": [{"id": "s1", "questions": [
    {"id": "q1", "type": "short-text", "title": "A"},
    {"id": "q2", "type": "short-text", "title": "B", "conditionalLogic": [
      {"questionId": "q1", "condition": "equals", "value": ["x", "y"]},
      {"questionId": "q1", "condition": "contains", "value": "z"}
    ]}
  ]}]
}`
	form, err := Decode([]byte(doc))
	require.NoError(t, err)

	rules := form.Steps[0].Questions[1].ConditionalLogic
	require.Len(t, rules, 2)
	assert.True(t, rules[0].Value.List)
	assert.Equal(t, []string{"x", "y"}, rules[0].Value.Values)
	assert.False(t, rules[1].Value.List)
	assert.Equal(t, "z", rules[1].Value.Text())

	// List and scalar shapes survive re-encoding.
	data, err := Encode(form)
	require.NoError(t, err)
	again, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, form, again)
}
