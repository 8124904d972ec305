package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/scholar-cli/internal/model"
)

func TestBuildPrompt(t *testing.T) {
	rec := model.Record{
		Title:    "Deep Learning for Citation Screening",
		Abstract: "We evaluate transformer models on screening tasks.",
	}
	q := model.Question{
		Text:    "How many models are compared?",
		Format:  "a single integer",
		Field:   "model_count",
		Type:    model.AnswerInt,
		Default: 0,
	}

	prompt := BuildPrompt(rec, q)
	assert.Contains(t, prompt, "Title: Deep Learning for Citation Screening")
	assert.Contains(t, prompt, "Abstract: We evaluate transformer models")
	assert.Contains(t, prompt, "Question: How many models are compared?")
	assert.Contains(t, prompt, "RESPOND ONLY WITH: a single integer")
	assert.Contains(t, prompt, "respond with 0")
}

func TestBuildPromptOmitsMissingAbstract(t *testing.T) {
	rec := model.Record{Title: "Untitled Preprint"}
	q := model.Question{
		Text:    "Is this a review article?",
		Field:   "is_review",
		Type:    model.AnswerBool,
		Default: false,
	}

	prompt := BuildPrompt(rec, q)
	assert.NotContains(t, prompt, "Abstract:")
	// Format falls back to the declared answer type.
	assert.Contains(t, prompt, "RESPOND ONLY WITH: bool")
	assert.Contains(t, prompt, "respond with false")
}
