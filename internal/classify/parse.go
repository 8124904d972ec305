package classify

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/scholar-cli/internal/model"
	"github.com/sells-group/scholar-cli/internal/resilience"
)

var (
	fenceRe = regexp.MustCompile("(?s)```[a-z]*\n?(.*?)```")
	intRe   = regexp.MustCompile(`-?\d+`)
	floatRe = regexp.MustCompile(`-?\d+(?:\.\d+)?`)
	boolRe  = regexp.MustCompile(`(?i)\b(yes|no|true|false)\b`)
)

// ParseAnswer coerces classifier output to the question's declared type.
// Models pad answers with prose and markdown despite instructions, so
// parsing scans for the first token of the right shape rather than
// requiring an exact match. A text that cannot be coerced is a permanent
// failure: retrying the same prompt will not fix a type mismatch.
func ParseAnswer(text string, q model.Question) (model.Answer, error) {
	cleaned := stripFences(text)
	if cleaned == "" {
		return model.Answer{}, resilience.NewPermanentError(
			eris.Errorf("classify: empty answer for field %s", q.Field))
	}

	var value any
	switch q.Type {
	case model.AnswerInt:
		m := intRe.FindString(cleaned)
		if m == "" {
			return model.Answer{}, parseFailure(q, cleaned)
		}
		n, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			return model.Answer{}, parseFailure(q, cleaned)
		}
		value = n

	case model.AnswerFloat:
		m := floatRe.FindString(cleaned)
		if m == "" {
			return model.Answer{}, parseFailure(q, cleaned)
		}
		f, err := strconv.ParseFloat(m, 64)
		if err != nil {
			return model.Answer{}, parseFailure(q, cleaned)
		}
		value = f

	case model.AnswerBool:
		if m := boolRe.FindString(cleaned); m != "" {
			lower := strings.ToLower(m)
			value = lower == "yes" || lower == "true"
			break
		}
		// Accept bare 0/1 from binary-style formats.
		switch strings.TrimSpace(cleaned) {
		case "1":
			value = true
		case "0":
			value = false
		default:
			return model.Answer{}, parseFailure(q, cleaned)
		}

	case model.AnswerString:
		line := firstLine(cleaned)
		if line == "" {
			return model.Answer{}, parseFailure(q, cleaned)
		}
		value = line

	default:
		return model.Answer{}, resilience.NewPermanentError(
			eris.Errorf("classify: unknown answer type %q for field %s", q.Type, q.Field))
	}

	return model.Answer{Type: q.Type, Value: value}, nil
}

func parseFailure(q model.Question, text string) error {
	return resilience.NewPermanentError(
		eris.Errorf("classify: cannot coerce answer %q to %s for field %s", snippet(text), q.Type, q.Field))
}

// stripFences removes markdown code fences and trims whitespace.
func stripFences(text string) string {
	if m := fenceRe.FindStringSubmatch(text); m != nil {
		text = m[1]
	}
	return strings.TrimSpace(text)
}

func firstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

func snippet(text string) string {
	if len(text) > 80 {
		return text[:80] + "…"
	}
	return text
}
