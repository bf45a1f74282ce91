// Package codec round-trips form configurations to and from the interchange
// document: a UTF-8 JSON text, conventionally two-space indented. Decoding is
// a tolerant reader — unknown fields are ignored and recoverable omissions
// are repaired — but structural problems fail with typed errors so a caller
// never silently adopts a partial form.
package codec

import (
	"encoding/json"
	"fmt"

	"formbox/internal/model"

	"github.com/oklog/ulid/v2"
)

// ParseError reports a document that is not parseable as the interchange
// format at all.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed form document: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ValidationError reports a parseable document whose structure is not a form
// configuration.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid form configuration: %s", e.Msg)
}

// Encode renders a form configuration as the interchange document.
func Encode(form *model.FormConfig) ([]byte, error) {
	data, err := json.MarshalIndent(form, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode form: %w", err)
	}
	return data, nil
}

// Decode parses an interchange document. Malformed text yields a *ParseError;
// a document without a steps array yields a *ValidationError. Missing ids and
// titles on the form or its steps, and missing question lists, are repaired
// with synthesized defaults rather than rejected — an authoring convenience,
// not an input-sanitizing boundary.
func Decode(data []byte) (*model.FormConfig, error) {
	// Distinguish "not JSON" from "JSON that is not a form": a raw probe
	// first, then the typed decode.
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, &ParseError{Err: err}
	}

	rawSteps, ok := probe["steps"]
	if !ok {
		return nil, &ValidationError{Msg: "missing steps"}
	}
	var stepsProbe []json.RawMessage
	if err := json.Unmarshal(rawSteps, &stepsProbe); err != nil {
		return nil, &ValidationError{Msg: "steps is not an array"}
	}

	var form model.FormConfig
	if err := json.Unmarshal(data, &form); err != nil {
		return nil, &ParseError{Err: err}
	}

	if _, ok := probe["settings"]; !ok {
		form.Settings = model.DefaultSettings()
	}
	if _, ok := probe["isMultiStep"]; !ok {
		form.IsMultiStep = len(form.Steps) > 1
	}

	repair(&form)
	return &form, nil
}

func repair(form *model.FormConfig) {
	if form.ID == "" {
		form.ID = "imported-form-" + ulid.Make().String()
	}
	if form.Title == "" {
		form.Title = "Imported Form"
	}
	for i := range form.Steps {
		step := &form.Steps[i]
		if step.ID == "" {
			step.ID = fmt.Sprintf("step-%s-%d", ulid.Make().String(), i)
		}
		if step.Title == "" {
			step.Title = fmt.Sprintf("Step %d", i+1)
		}
		if step.Questions == nil {
			step.Questions = []model.Question{}
		}
	}
}
