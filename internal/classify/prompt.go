package classify

import (
	"fmt"
	"strings"

	"github.com/sells-group/scholar-cli/internal/model"
)

const promptTemplate = `You are a research assistant labeling scientific literature records.

Title: %s
%s
Question: %s
RESPOND ONLY WITH: %s

Do not add explanations. If the record does not explicitly state what is asked, respond with %v.`

// BuildPrompt renders the classification prompt for one record and one
// question. The abstract block is omitted when the record has none.
func BuildPrompt(rec model.Record, q model.Question) string {
	abstract := ""
	if rec.HasAbstract() {
		abstract = fmt.Sprintf("Abstract: %s\n", rec.Abstract)
	}
	format := q.Format
	if format == "" {
		format = string(q.Type)
	}
	return strings.TrimSpace(fmt.Sprintf(promptTemplate, rec.Title, abstract, q.Text, format, q.Default))
}
