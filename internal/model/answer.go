package model

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// AnswerKind discriminates the dynamic shape of an answer value.
type AnswerKind int

const (
	KindNull AnswerKind = iota
	KindString
	KindNumber
	KindBool
	KindList
	KindFile
)

// FileAnswer is the normalized metadata of an uploaded file answer.
type FileAnswer struct {
	Name   string `json:"name"`
	URL    string `json:"url"`
	Size   int64  `json:"size"`
	MIME   string `json:"mime,omitempty"`
	SHA256 string `json:"sha256,omitempty"`
}

// Answer is a tagged union over the value shapes a response entry can take:
// scalar string (also dates in their text form), number, bool, list of
// strings (multiple-choice) or file metadata. The zero value is the null
// (unanswered) answer.
type Answer struct {
	Kind AnswerKind
	Str  string
	Num  float64
	Bool bool
	List []string
	File *FileAnswer
}

func NullAnswer() Answer               { return Answer{} }
func StringAnswer(s string) Answer     { return Answer{Kind: KindString, Str: s} }
func NumberAnswer(n float64) Answer    { return Answer{Kind: KindNumber, Num: n} }
func BoolAnswer(b bool) Answer         { return Answer{Kind: KindBool, Bool: b} }
func ListAnswer(vs ...string) Answer   { return Answer{Kind: KindList, List: vs} }
func FileAnswerOf(f FileAnswer) Answer { return Answer{Kind: KindFile, File: &f} }

// Answered reports whether the entry counts as answered for conditional
// logic. The empty string is answered; only null is not.
func (a Answer) Answered() bool {
	return a.Kind != KindNull
}

// Empty reports whether the answer counts as missing for required-field
// validation. Unlike Answered, the empty string and the empty list are
// empty.
func (a Answer) Empty() bool {
	switch a.Kind {
	case KindNull:
		return true
	case KindString:
		return a.Str == ""
	case KindList:
		return len(a.List) == 0
	default:
		return false
	}
}

// Text coerces the answer to its single-string form: numbers in their
// shortest decimal form, bools as "true"/"false", lists joined with commas.
func (a Answer) Text() string {
	switch a.Kind {
	case KindString:
		return a.Str
	case KindNumber:
		return strconv.FormatFloat(a.Num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(a.Bool)
	case KindList:
		return joinComma(a.List)
	case KindFile:
		if a.File != nil {
			return a.File.Name
		}
		return ""
	default:
		return ""
	}
}

// Contains reports whether a list answer contains s.
func (a Answer) Contains(s string) bool {
	if a.Kind != KindList {
		return false
	}
	for _, v := range a.List {
		if v == s {
			return true
		}
	}
	return false
}

func (a Answer) MarshalJSON() ([]byte, error) {
	switch a.Kind {
	case KindNull:
		return []byte("null"), nil
	case KindString:
		return json.Marshal(a.Str)
	case KindNumber:
		return json.Marshal(a.Num)
	case KindBool:
		return json.Marshal(a.Bool)
	case KindList:
		vs := a.List
		if vs == nil {
			vs = []string{}
		}
		return json.Marshal(vs)
	case KindFile:
		return json.Marshal(a.File)
	default:
		return nil, fmt.Errorf("unknown answer kind %d", a.Kind)
	}
}

func (a *Answer) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	ans, err := AnswerFrom(raw)
	if err != nil {
		return err
	}
	*a = ans
	return nil
}

// AnswerFrom maps a decoded JSON value onto the answer union. Objects are
// taken to be file metadata; anything else is rejected so a new value shape
// fails loudly instead of being silently coerced.
func AnswerFrom(raw interface{}) (Answer, error) {
	switch v := raw.(type) {
	case nil:
		return NullAnswer(), nil
	case string:
		return StringAnswer(v), nil
	case float64:
		return NumberAnswer(v), nil
	case bool:
		return BoolAnswer(v), nil
	case []interface{}:
		vs := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return Answer{}, fmt.Errorf("list answer element is %T, want string", item)
			}
			vs = append(vs, s)
		}
		return ListAnswer(vs...), nil
	case map[string]interface{}:
		b, err := json.Marshal(v)
		if err != nil {
			return Answer{}, err
		}
		var f FileAnswer
		if err := json.Unmarshal(b, &f); err != nil {
			return Answer{}, fmt.Errorf("invalid file answer: %w", err)
		}
		return FileAnswerOf(f), nil
	default:
		return Answer{}, fmt.Errorf("unsupported answer value %T", raw)
	}
}

// FormResponse maps question ids to answers. A missing key and a null
// answer both mean unanswered.
type FormResponse map[string]Answer

// Get returns the answer for a question id; missing keys come back as the
// null answer.
func (r FormResponse) Get(questionID string) Answer {
	if r == nil {
		return NullAnswer()
	}
	return r[questionID]
}

// With returns a copy of the response set with one entry replaced. The
// receiver is never mutated.
func (r FormResponse) With(questionID string, a Answer) FormResponse {
	out := make(FormResponse, len(r)+1)
	for k, v := range r {
		out[k] = v
	}
	out[questionID] = a
	return out
}

// Clone returns a shallow copy of the response set.
func (r FormResponse) Clone() FormResponse {
	out := make(FormResponse, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
