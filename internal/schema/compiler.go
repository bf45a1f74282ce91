// Package schema synthesizes a JSON Schema from a form configuration and
// validates submitted answer sets against it. Visibility and requiredness are
// the navigator's concern; this layer checks value shape and format only.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"formbox/internal/model"

	"github.com/hashicorp/golang-lru/v2/expirable"
	js "github.com/santhosh-tekuri/jsonschema/v5"
)

type Compiler struct {
	cache *expirable.LRU[string, *js.Schema]
}

// NewCompilerWithCache creates a compiler whose compiled form schemas are
// cached by form id and version.
func NewCompilerWithCache(maxSize int) *Compiler {
	return &Compiler{
		cache: expirable.NewLRU[string, *js.Schema](maxSize, nil, time.Hour),
	}
}

func cacheKey(form *model.FormConfig, version int) string {
	return fmt.Sprintf("%s@%d", form.ID, version)
}

// Prepare compiles and caches the answer schema for a form version.
func (c *Compiler) Prepare(form *model.FormConfig, version int) error {
	key := cacheKey(form, version)
	if _, ok := c.cache.Get(key); ok {
		return nil
	}

	doc := AnswerSchema(form)
	schemaBytes, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal schema: %w", err)
	}

	compiler := js.NewCompiler()
	compiler.AssertFormat = true
	resourceURL := fmt.Sprintf("mem://forms/%s.json", key)
	if err := compiler.AddResource(resourceURL, bytes.NewReader(schemaBytes)); err != nil {
		return fmt.Errorf("failed to add resource: %w", err)
	}
	compiled, err := compiler.Compile(resourceURL)
	if err != nil {
		return fmt.Errorf("failed to compile schema: %w", err)
	}

	c.cache.Add(key, compiled)
	return nil
}

// Validate checks a reconciled response set against the form's answer
// schema.
func (c *Compiler) Validate(form *model.FormConfig, version int, responses model.FormResponse) error {
	key := cacheKey(form, version)
	compiled, ok := c.cache.Get(key)
	if !ok {
		if err := c.Prepare(form, version); err != nil {
			return err
		}
		compiled, _ = c.cache.Get(key)
		if compiled == nil {
			return fmt.Errorf("schema not found in cache after preparation")
		}
	}

	// Round-trip through JSON so the validator sees plain maps and slices.
	raw, err := json.Marshal(responses)
	if err != nil {
		return fmt.Errorf("failed to marshal responses: %w", err)
	}
	var value interface{}
	if err := json.Unmarshal(raw, &value); err != nil {
		return fmt.Errorf("failed to unmarshal responses: %w", err)
	}

	if err := compiled.Validate(value); err != nil {
		return fmt.Errorf("answer validation failed: %w", err)
	}
	return nil
}

// AnswerSchema builds the JSON Schema document for a form's answer set: an
// object keyed by question id, one property per question. Nothing is marked
// required — hidden questions legitimately have no entry.
func AnswerSchema(form *model.FormConfig) map[string]interface{} {
	properties := make(map[string]interface{}, form.QuestionCount())
	for _, step := range form.Steps {
		for _, q := range step.Questions {
			properties[q.ID] = questionSchema(q)
		}
	}
	return map[string]interface{}{
		"$schema":              "https://json-schema.org/draft/2020-12/schema",
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}
}

func questionSchema(q model.Question) map[string]interface{} {
	switch q.Type {
	case model.TypeNumber:
		s := map[string]interface{}{"type": "number"}
		if q.Validation != nil {
			if q.Validation.Min != nil {
				s["minimum"] = *q.Validation.Min
			}
			if q.Validation.Max != nil {
				s["maximum"] = *q.Validation.Max
			}
		}
		return s

	case model.TypeSingleChoice:
		return map[string]interface{}{
			"type": "string",
			"enum": optionValues(q.Options),
		}

	case model.TypeMultipleChoice:
		return map[string]interface{}{
			"type": "array",
			"items": map[string]interface{}{
				"type": "string",
				"enum": optionValues(q.Options),
			},
		}

	case model.TypeFileUpload:
		return map[string]interface{}{
			"type":     "object",
			"required": []string{"name", "url"},
			"properties": map[string]interface{}{
				"name":   map[string]interface{}{"type": "string", "minLength": 1},
				"url":    map[string]interface{}{"type": "string", "minLength": 1},
				"size":   map[string]interface{}{"type": "integer"},
				"mime":   map[string]interface{}{"type": "string"},
				"sha256": map[string]interface{}{"type": "string"},
			},
		}

	default:
		// Text-shaped answers: short-text, long-text, date, email, phone.
		s := map[string]interface{}{"type": "string"}
		switch q.Type {
		case model.TypeEmail:
			s["format"] = "email"
		case model.TypeDate:
			s["format"] = "date"
		}
		if q.Validation != nil {
			if q.Validation.Min != nil {
				s["minLength"] = int(*q.Validation.Min)
			}
			if q.Validation.Max != nil {
				s["maxLength"] = int(*q.Validation.Max)
			}
			if q.Validation.Pattern != "" {
				s["pattern"] = q.Validation.Pattern
			}
		}
		return s
	}
}

func optionValues(opts []model.Option) []interface{} {
	vals := make([]interface{}, 0, len(opts))
	for _, o := range opts {
		vals = append(vals, o.Value)
	}
	return vals
}
