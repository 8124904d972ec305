package model

import (
	"github.com/rotisserie/eris"
)

// AnswerType declares how a classifier answer is parsed.
type AnswerType string

const (
	AnswerInt    AnswerType = "int"
	AnswerString AnswerType = "string"
	AnswerFloat  AnswerType = "float"
	AnswerBool   AnswerType = "bool"
)

// Valid reports whether t is one of the declared answer types.
func (t AnswerType) Valid() bool {
	switch t {
	case AnswerInt, AnswerString, AnswerFloat, AnswerBool:
		return true
	}
	return false
}

// Question is one entry of the classification question spec.
type Question struct {
	Text    string     `json:"text" yaml:"text"`
	Format  string     `json:"format" yaml:"format"`
	Field   string     `json:"field" yaml:"field"`
	Type    AnswerType `json:"type" yaml:"type"`
	Default any        `json:"default" yaml:"default"`
}

// Validate checks that the question is well-formed and that its default
// coerces to the declared answer type. Called at spec load; failures are
// configuration errors and abort the run.
func (q Question) Validate() error {
	if q.Field == "" {
		return eris.New("question: missing field name")
	}
	if q.Text == "" {
		return eris.Errorf("question %s: missing text", q.Field)
	}
	if !q.Type.Valid() {
		return eris.Errorf("question %s: unknown answer type %q", q.Field, q.Type)
	}
	if _, err := CoerceValue(q.Default, q.Type); err != nil {
		return eris.Wrapf(err, "question %s: default value", q.Field)
	}
	return nil
}

// DefaultAnswer returns the question's fallback answer with IsDefault set.
func (q Question) DefaultAnswer() Answer {
	v, _ := CoerceValue(q.Default, q.Type)
	return Answer{Type: q.Type, Value: v, IsDefault: true}
}

// CoerceValue converts a loosely-typed value (as decoded from YAML or JSON)
// into the concrete Go type for an AnswerType.
func CoerceValue(v any, t AnswerType) (any, error) {
	if v == nil {
		return nil, eris.New("nil value")
	}
	switch t {
	case AnswerInt:
		switch n := v.(type) {
		case int:
			return int64(n), nil
		case int64:
			return n, nil
		case float64:
			if n == float64(int64(n)) {
				return int64(n), nil
			}
		}
	case AnswerFloat:
		switch n := v.(type) {
		case float64:
			return n, nil
		case int:
			return float64(n), nil
		case int64:
			return float64(n), nil
		}
	case AnswerBool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case AnswerString:
		if s, ok := v.(string); ok {
			return s, nil
		}
	}
	return nil, eris.Errorf("value %v (%T) is not a valid %s", v, v, t)
}
