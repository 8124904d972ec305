package dedupe

import (
	"go.uber.org/zap"

	"github.com/sells-group/scholar-cli/internal/model"
)

// DefaultSimilarityThreshold is the title-overlap level above which two
// records without a shared DOI are considered the same work. Tunable via
// Config; the right value depends on how noisy the scraped sources are.
const DefaultSimilarityThreshold = 0.85

// DefaultSourcePriority ranks sources for merge tie-breaking, most trusted
// first.
var DefaultSourcePriority = []string{
	"crossref", "semantic_scholar", "science_direct", "scholar",
}

// Config tunes deduplication. Zero value gets the defaults.
type Config struct {
	// SimilarityThreshold gates the fuzzy title pass.
	SimilarityThreshold float64

	// SourcePriority orders sources for merge tie-breaking; earlier wins.
	SourcePriority []string

	// Similarity overrides the title similarity measure. Defaults to
	// TokenSetOverlap.
	Similarity func(a, b string) float64
}

func (cfg Config) withDefaults() Config {
	if cfg.SimilarityThreshold <= 0 {
		cfg.SimilarityThreshold = DefaultSimilarityThreshold
	}
	if len(cfg.SourcePriority) == 0 {
		cfg.SourcePriority = DefaultSourcePriority
	}
	if cfg.Similarity == nil {
		cfg.Similarity = TokenSetOverlap
	}
	return cfg
}

// Stats reports what deduplication did. Anomalies are counted, never fatal.
type Stats struct {
	Input         int `json:"input"`
	Output        int `json:"output"`
	Dropped       int `json:"dropped"`
	MergedGroups  int `json:"merged_groups"`
	LargestGroup  int `json:"largest_group"`
	DOICollisions int `json:"doi_collisions"`
	FuzzyMerges   int `json:"fuzzy_merges"`
	ExactMerges   int `json:"exact_merges"`
}

// Deduplicate merges records that refer to the same work and returns the
// canonical corpus. Two passes: an exact pass over authoritative (DOI)
// identifiers, then a fuzzy pass over title similarity for records without
// a shared DOI. Transitive chains collapse via union-find, so the result
// does not depend on input order beyond the documented first-seen
// tie-breaks. Input records are not mutated.
func Deduplicate(records []model.Record, cfg Config) ([]model.Record, Stats) {
	cfg = cfg.withDefaults()
	stats := Stats{Input: len(records)}

	// A record with no title key and no identifiers can never be matched
	// or meaningfully merged.
	arena := make([]model.Record, 0, len(records))
	for _, rec := range records {
		if rec.TitleKey == "" && len(rec.Identifiers) == 0 {
			stats.Dropped++
			continue
		}
		arena = append(arena, rec)
	}
	if stats.Dropped > 0 {
		zap.L().Warn("dedupe: dropped unmergeable records", zap.Int("dropped", stats.Dropped))
	}

	uf := newUnionFind(len(arena))

	// Exact pass: identifier equality is ground truth and overrides any
	// fuzzy signal.
	byDOI := make(map[string]int)
	for i, rec := range arena {
		attached := -1
		for _, id := range rec.Identifiers {
			if id.Type != model.IdentifierDOI || id.Value == "" {
				continue
			}
			j, seen := byDOI[id.Value]
			if !seen {
				byDOI[id.Value] = i
				continue
			}
			// A record bridging two established groups is a data
			// inconsistency: merge both, report, carry on.
			if attached != -1 && uf.Find(j) != uf.Find(attached) {
				stats.DOICollisions++
				zap.L().Warn("dedupe: identifier collision across merge groups",
					zap.String("doi", id.Value),
					zap.String("title", rec.Title),
				)
			}
			if uf.Union(i, j) {
				stats.ExactMerges++
			}
			attached = i
		}
	}

	// Fuzzy pass: same year (or unknown) and title overlap above the
	// threshold. Union-find collapses transitive chains so candidate
	// order cannot fragment groups.
	for i := 0; i < len(arena); i++ {
		if arena[i].TitleKey == "" {
			continue
		}
		for j := i + 1; j < len(arena); j++ {
			if arena[j].TitleKey == "" || uf.Find(i) == uf.Find(j) {
				continue
			}
			if !yearCompatible(arena[i].Year, arena[j].Year) {
				continue
			}
			if cfg.Similarity(arena[i].TitleKey, arena[j].TitleKey) >= cfg.SimilarityThreshold {
				if uf.Union(i, j) {
					stats.FuzzyMerges++
				}
			}
		}
	}

	// Merge each group into one canonical record. Groups come back
	// ordered by earliest-contributing member, which fixes output order.
	groups := uf.Groups()
	merged := make([]model.Record, 0, len(groups))
	for _, group := range groups {
		if len(group) > 1 {
			stats.MergedGroups++
			if len(group) > stats.LargestGroup {
				stats.LargestGroup = len(group)
			}
		}
		merged = append(merged, mergeGroup(arena, group, cfg))
	}

	stats.Output = len(merged)
	return merged, stats
}

// yearCompatible: exact match, or either side unknown.
func yearCompatible(a, b int) bool {
	return a == 0 || b == 0 || a == b
}

// mergeGroup produces the canonical record for one merge group. Scalars
// come from the most complete member (has abstract, then longer title,
// then source priority, then first seen); authors from the longest author
// sequence; identifiers and provenance are unioned in first-seen order.
func mergeGroup(arena []model.Record, group []int, cfg Config) model.Record {
	if len(group) == 1 {
		return arena[group[0]]
	}

	winner := group[0]
	for _, idx := range group[1:] {
		if moreComplete(arena[idx], arena[winner], cfg.SourcePriority) {
			winner = idx
		}
	}

	out := arena[winner]
	// Keep the winner's scalars but do not lose a year or venue that only
	// another member knows.
	for _, idx := range group {
		if out.Year == 0 {
			out.Year = arena[idx].Year
		}
		if out.Venue == "" {
			out.Venue = arena[idx].Venue
		}
	}

	longestAuthors := arena[group[0]].Authors
	for _, idx := range group[1:] {
		if len(arena[idx].Authors) > len(longestAuthors) {
			longestAuthors = arena[idx].Authors
		}
	}
	out.Authors = longestAuthors

	out.Identifiers = nil
	out.Provenance = nil
	for _, idx := range group {
		for _, id := range arena[idx].Identifiers {
			out.AddIdentifier(id)
		}
		for _, src := range arena[idx].Provenance {
			out.AddProvenance(src)
		}
	}

	return out
}

// moreComplete reports whether candidate should replace current as a merge
// group's scalar donor.
func moreComplete(candidate, current model.Record, priority []string) bool {
	if candidate.HasAbstract() != current.HasAbstract() {
		return candidate.HasAbstract()
	}
	if len(candidate.Title) != len(current.Title) {
		return len(candidate.Title) > len(current.Title)
	}
	return sourceRank(candidate, priority) < sourceRank(current, priority)
	// Equal rank keeps current: first seen wins ties.
}

// sourceRank returns the best (lowest) priority index among a record's
// provenance. Unknown sources rank last.
func sourceRank(rec model.Record, priority []string) int {
	best := len(priority)
	for _, src := range rec.Provenance {
		for i, p := range priority {
			if p == src && i < best {
				best = i
			}
		}
	}
	return best
}
