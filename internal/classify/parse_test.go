package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/scholar-cli/internal/model"
	"github.com/sells-group/scholar-cli/internal/resilience"
)

func TestParseAnswer(t *testing.T) {
	tests := []struct {
		name string
		text string
		typ  model.AnswerType
		want any
	}{
		{"bare int", "42", model.AnswerInt, int64(42)},
		{"int with prose", "The study uses 3 datasets.", model.AnswerInt, int64(3)},
		{"negative int", "-1", model.AnswerInt, int64(-1)},
		{"bare float", "0.85", model.AnswerFloat, 0.85},
		{"float with prose", "Roughly 12.5 percent", model.AnswerFloat, 12.5},
		{"int as float", "7", model.AnswerFloat, 7.0},
		{"yes", "Yes", model.AnswerBool, true},
		{"no", "no.", model.AnswerBool, false},
		{"true", "TRUE", model.AnswerBool, true},
		{"bare one", "1", model.AnswerBool, true},
		{"bare zero", "0", model.AnswerBool, false},
		{"string first line", "machine learning\nAdditional context here.", model.AnswerString, "machine learning"},
		{"string fenced", "```\nsurvey\n```", model.AnswerString, "survey"},
		{"int fenced", "```json\n12\n```", model.AnswerInt, int64(12)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ans, err := ParseAnswer(tt.text, model.Question{Field: "f", Type: tt.typ})
			require.NoError(t, err)
			assert.Equal(t, tt.typ, ans.Type)
			assert.Equal(t, tt.want, ans.Value)
			assert.False(t, ans.IsDefault)
		})
	}
}

func TestParseAnswerFailuresArePermanent(t *testing.T) {
	tests := []struct {
		name string
		text string
		typ  model.AnswerType
	}{
		{"empty", "", model.AnswerInt},
		{"whitespace", "   \n  ", model.AnswerString},
		{"no digits", "none that I can see", model.AnswerInt},
		{"no numeric", "unknown", model.AnswerFloat},
		{"ambiguous bool", "maybe", model.AnswerBool},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAnswer(tt.text, model.Question{Field: "f", Type: tt.typ})
			require.Error(t, err)
			assert.True(t, resilience.IsPermanent(err))
			assert.False(t, resilience.IsTransient(err))
		})
	}
}
