package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnswerFrom(t *testing.T) {
	cases := []struct {
		name string
		raw  interface{}
		want Answer
	}{
		{"null", nil, NullAnswer()},
		{"string", "hello", StringAnswer("hello")},
		{"number", float64(42), NumberAnswer(42)},
		{"bool", true, BoolAnswer(true)},
		{"list", []interface{}{"a", "b"}, ListAnswer("a", "b")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := AnswerFrom(tc.raw)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestAnswerFromFileObject(t *testing.T) {
	got, err := AnswerFrom(map[string]interface{}{
		"name": "cv.pdf",
		"url":  "https://files.example/cv.pdf",
		"size": float64(1024),
	})
	require.NoError(t, err)
	require.Equal(t, KindFile, got.Kind)
	assert.Equal(t, "cv.pdf", got.File.Name)
	assert.Equal(t, int64(1024), got.File.Size)
}

func TestAnswerFromRejectsMixedList(t *testing.T) {
	_, err := AnswerFrom([]interface{}{"a", float64(1)})
	assert.Error(t, err)
}

func TestAnswerJSONRoundTrip(t *testing.T) {
	responses := FormResponse{
		"q1": StringAnswer("text"),
		"q2": NumberAnswer(3.5),
		"q3": BoolAnswer(false),
		"q4": ListAnswer("x", "y"),
		"q5": FileAnswerOf(FileAnswer{Name: "a.png", URL: "u", Size: 9}),
	}

	data, err := json.Marshal(responses)
	require.NoError(t, err)

	var decoded FormResponse
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, responses, decoded)
}

func TestAnswerText(t *testing.T) {
	assert.Equal(t, "25", NumberAnswer(25).Text())
	assert.Equal(t, "3.5", NumberAnswer(3.5).Text())
	assert.Equal(t, "true", BoolAnswer(true).Text())
	assert.Equal(t, "a,b", ListAnswer("a", "b").Text())
	assert.Equal(t, "", NullAnswer().Text())
}

func TestAnsweredVersusEmpty(t *testing.T) {
	// The empty string is answered for conditional logic but empty for
	// requiredness.
	empty := StringAnswer("")
	assert.True(t, empty.Answered())
	assert.True(t, empty.Empty())

	assert.False(t, NullAnswer().Answered())
	assert.True(t, NullAnswer().Empty())

	assert.True(t, ListAnswer().Empty())
	assert.False(t, ListAnswer("a").Empty())
	assert.False(t, NumberAnswer(0).Empty())
	assert.False(t, BoolAnswer(false).Empty())
}

func TestFormResponseWithDoesNotMutate(t *testing.T) {
	base := FormResponse{"q1": StringAnswer("a")}
	updated := base.With("q2", StringAnswer("b"))

	assert.Len(t, base, 1)
	assert.Len(t, updated, 2)
	assert.Equal(t, "b", updated.Get("q2").Str)
	assert.False(t, base.Get("q2").Answered())
}

func TestRuleValueJSON(t *testing.T) {
	scalar := NewRuleValue("yes")
	data, err := json.Marshal(scalar)
	require.NoError(t, err)
	assert.Equal(t, `"yes"`, string(data))

	list := NewRuleValues("a", "b")
	data, err = json.Marshal(list)
	require.NoError(t, err)
	assert.Equal(t, `["a","b"]`, string(data))

	var decoded RuleValue
	require.NoError(t, json.Unmarshal([]byte(`"x"`), &decoded))
	assert.False(t, decoded.List)
	assert.Equal(t, "x", decoded.Text())

	require.NoError(t, json.Unmarshal([]byte(`["x","y"]`), &decoded))
	assert.True(t, decoded.List)
	assert.Equal(t, "x,y", decoded.Text())
}

func TestSettingsDefaults(t *testing.T) {
	var s Settings
	require.NoError(t, json.Unmarshal([]byte(`{}`), &s))
	assert.Equal(t, DefaultSettings(), s)

	require.NoError(t, json.Unmarshal([]byte(`{"allowBack": false}`), &s))
	assert.False(t, s.AllowBack)
	assert.True(t, s.ShowProgress)
}
