package model

import "encoding/json"

// QuestionType represents the widget kind of a question
type QuestionType string

const (
	TypeShortText      QuestionType = "short-text"
	TypeLongText       QuestionType = "long-text"
	TypeSingleChoice   QuestionType = "single-choice"
	TypeMultipleChoice QuestionType = "multiple-choice"
	TypeDate           QuestionType = "date"
	TypeFileUpload     QuestionType = "file-upload"
	TypeNumber         QuestionType = "number"
	TypeEmail          QuestionType = "email"
	TypePhone          QuestionType = "phone"
)

// QuestionTypes lists every supported question type.
var QuestionTypes = []QuestionType{
	TypeShortText, TypeLongText, TypeSingleChoice, TypeMultipleChoice,
	TypeDate, TypeFileUpload, TypeNumber, TypeEmail, TypePhone,
}

// Condition represents a conditional-logic operator
type Condition string

const (
	ConditionEquals      Condition = "equals"
	ConditionNotEquals   Condition = "not-equals"
	ConditionContains    Condition = "contains"
	ConditionNotContains Condition = "not-contains"
)

// SessionStatus represents rendering session status
type SessionStatus string

const (
	SessionActive    SessionStatus = "ACTIVE"
	SessionSubmitted SessionStatus = "SUBMITTED"
	SessionCancelled SessionStatus = "CANCELLED"
	SessionExpired   SessionStatus = "EXPIRED"
)

// Option is one selectable choice of a single-choice or multiple-choice
// question. Value is the machine value rules compare against; Label is
// display-only.
type Option struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// Rule is a single conditional-logic entry. A question is visible only if
// every one of its rules holds against the current response set.
type Rule struct {
	QuestionID string    `json:"questionId"`
	Condition  Condition `json:"condition"`
	Value      RuleValue `json:"value"`
}

// RuleValue is either a single string or an ordered list of strings. A list
// under equals/not-equals means OR across the listed values.
type RuleValue struct {
	List   bool
	Values []string
}

func NewRuleValue(v string) RuleValue {
	return RuleValue{Values: []string{v}}
}

func NewRuleValues(vs ...string) RuleValue {
	return RuleValue{List: true, Values: vs}
}

// Text returns the value coerced to a single string. A list is joined with
// commas, mirroring how the interchange format stringifies arrays.
func (v RuleValue) Text() string {
	if !v.List {
		if len(v.Values) == 0 {
			return ""
		}
		return v.Values[0]
	}
	return joinComma(v.Values)
}

// Contains reports whether s is one of the listed values.
func (v RuleValue) Contains(s string) bool {
	for _, val := range v.Values {
		if val == s {
			return true
		}
	}
	return false
}

func (v RuleValue) MarshalJSON() ([]byte, error) {
	if v.List {
		vals := v.Values
		if vals == nil {
			vals = []string{}
		}
		return json.Marshal(vals)
	}
	return json.Marshal(v.Text())
}

func (v *RuleValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = RuleValue{Values: []string{s}}
		return nil
	}
	var vs []string
	if err := json.Unmarshal(data, &vs); err != nil {
		return err
	}
	*v = RuleValue{List: true, Values: vs}
	return nil
}

// Validation holds optional per-question answer constraints. Min/Max apply
// to the numeric value for number questions and to the text length
// otherwise.
type Validation struct {
	Min     *float64 `json:"min,omitempty"`
	Max     *float64 `json:"max,omitempty"`
	Pattern string   `json:"pattern,omitempty"`
	Message string   `json:"message,omitempty"`
}

// Question is a single form field. ID is unique across the whole form.
type Question struct {
	ID               string       `json:"id"`
	Type             QuestionType `json:"type"`
	Title            string       `json:"title"`
	Description      string       `json:"description,omitempty"`
	Required         bool         `json:"required"`
	Options          []Option     `json:"options,omitempty"`
	Placeholder      string       `json:"placeholder,omitempty"`
	Validation       *Validation  `json:"validation,omitempty"`
	ConditionalLogic []Rule       `json:"conditionalLogic,omitempty"`
}

// Step groups an ordered sequence of questions.
type Step struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Questions   []Question `json:"questions"`
}

// Settings holds renderer behavior toggles.
type Settings struct {
	AllowBack        bool   `json:"allowBack"`
	ShowProgress     bool   `json:"showProgress"`
	SubmitButtonText string `json:"submitButtonText"`
	SuccessMessage   string `json:"successMessage"`
}

// DefaultSettings returns the settings applied when an imported document
// omits them.
func DefaultSettings() Settings {
	return Settings{
		AllowBack:        true,
		ShowProgress:     true,
		SubmitButtonText: "Submit",
		SuccessMessage:   "Thank you! Your form has been submitted successfully.",
	}
}

// UnmarshalJSON applies defaults for omitted fields: a document that never
// mentions allowBack gets back navigation, one that says allowBack=false
// does not.
func (s *Settings) UnmarshalJSON(data []byte) error {
	var doc struct {
		AllowBack        *bool  `json:"allowBack"`
		ShowProgress     *bool  `json:"showProgress"`
		SubmitButtonText string `json:"submitButtonText"`
		SuccessMessage   string `json:"successMessage"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	*s = DefaultSettings()
	if doc.AllowBack != nil {
		s.AllowBack = *doc.AllowBack
	}
	if doc.ShowProgress != nil {
		s.ShowProgress = *doc.ShowProgress
	}
	if doc.SubmitButtonText != "" {
		s.SubmitButtonText = doc.SubmitButtonText
	}
	if doc.SuccessMessage != "" {
		s.SuccessMessage = doc.SuccessMessage
	}
	return nil
}

// FormConfig is the complete definition of a form and the sole interchange
// contract between the builder, the renderer and any third-party consumer.
type FormConfig struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	IsMultiStep bool     `json:"isMultiStep"`
	Steps       []Step   `json:"steps"`
	Settings    Settings `json:"settings"`
}

// Question returns the question with the given id, searching all steps.
func (f *FormConfig) Question(id string) (Question, bool) {
	for _, step := range f.Steps {
		for _, q := range step.Questions {
			if q.ID == id {
				return q, true
			}
		}
	}
	return Question{}, false
}

// QuestionCount returns the number of questions across all steps.
func (f *FormConfig) QuestionCount() int {
	n := 0
	for _, step := range f.Steps {
		n += len(step.Questions)
	}
	return n
}

func joinComma(vs []string) string {
	out := ""
	for i, v := range vs {
		if i > 0 {
			out += ","
		}
		out += v
	}
	return out
}
