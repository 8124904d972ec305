package pipeline

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sells-group/scholar-cli/internal/classify"
	"github.com/sells-group/scholar-cli/internal/dedupe"
	"github.com/sells-group/scholar-cli/internal/model"
)

// StageStatus is the outcome of one pipeline stage.
type StageStatus string

const (
	StageStatusComplete StageStatus = "complete"
	StageStatusFailed   StageStatus = "failed"
	StageStatusSkipped  StageStatus = "skipped"
)

// StageResult records timing and outcome for one stage.
type StageResult struct {
	Name     model.Stage `json:"name"`
	Status   StageStatus `json:"status"`
	Duration int64       `json:"duration_ms"`
	Error    string      `json:"error,omitempty"`
}

// NormalizeStats aggregates the normalization stage across sources.
type NormalizeStats struct {
	PerSource map[string]int `json:"per_source"`
	Skipped   int            `json:"skipped"`
	Total     int            `json:"total"`
}

// RunReport is the final summary of one pipeline run, persisted on the
// run row and printed by the CLI.
type RunReport struct {
	RunID     string          `json:"run_id"`
	Label     string          `json:"label"`
	StartedAt time.Time       `json:"started_at"`
	Duration  int64           `json:"duration_ms"`
	Stages    []StageResult   `json:"stages"`
	Normalize NormalizeStats  `json:"normalize"`
	Dedupe    dedupe.Stats    `json:"dedupe"`
	Domains   map[string]int  `json:"domains,omitempty"`
	Classify  *classify.Stats `json:"classify,omitempty"`
}

// FormatReport renders the run report as human-readable markdown.
func FormatReport(r *RunReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Run Report: %s\n", r.RunID)
	fmt.Fprintf(&b, "Input: %s\n\n", r.Label)

	b.WriteString("## Summary\n")
	fmt.Fprintf(&b, "- Raw records: %d (%d skipped at normalization)\n",
		r.Normalize.Total, r.Normalize.Skipped)
	fmt.Fprintf(&b, "- Canonical records: %d (%d merged away, %d dropped)\n",
		r.Dedupe.Output, r.Dedupe.Input-r.Dedupe.Output-r.Dedupe.Dropped, r.Dedupe.Dropped)
	fmt.Fprintf(&b, "- Merge groups: %d (largest %d), exact %d, fuzzy %d, DOI collisions %d\n",
		r.Dedupe.MergedGroups, r.Dedupe.LargestGroup,
		r.Dedupe.ExactMerges, r.Dedupe.FuzzyMerges, r.Dedupe.DOICollisions)
	if r.Classify != nil {
		fmt.Fprintf(&b, "- Classified: %d answered, %d defaulted (%d parse, %d transient), %d records skipped\n",
			r.Classify.Answered, r.Classify.Defaulted,
			r.Classify.ParseFailures, r.Classify.TransientFailures,
			r.Classify.SkippedClassified)
	}
	b.WriteString("\n")

	b.WriteString("## Sources\n")
	tags := make([]string, 0, len(r.Normalize.PerSource))
	for tag := range r.Normalize.PerSource {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	for _, tag := range tags {
		fmt.Fprintf(&b, "- %s: %d records\n", tag, r.Normalize.PerSource[tag])
	}
	b.WriteString("\n")

	if len(r.Domains) > 0 {
		b.WriteString("## Domain Tags\n")
		domains := make([]string, 0, len(r.Domains))
		for d := range r.Domains {
			domains = append(domains, d)
		}
		sort.Strings(domains)
		for _, d := range domains {
			fmt.Fprintf(&b, "- %s: %d records tagged\n", d, r.Domains[d])
		}
		b.WriteString("\n")
	}

	b.WriteString("## Stages\n")
	for _, s := range r.Stages {
		fmt.Fprintf(&b, "- %s: %s (%dms)\n", s.Name, s.Status, s.Duration)
		if s.Error != "" {
			fmt.Fprintf(&b, "  Error: %s\n", s.Error)
		}
	}

	return b.String()
}
