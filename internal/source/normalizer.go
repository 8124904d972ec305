package source

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/scholar-cli/internal/model"
)

// Source tags. Downstream code never branches on these past normalization;
// they exist for provenance and merge priority.
const (
	TagCrossref        = "crossref"
	TagSemanticScholar = "semantic_scholar"
	TagScienceDirect   = "science_direct"
	TagScholar         = "scholar"
)

// Normalizer converts one raw source item into a canonical Record. It must
// tolerate missing optional fields; it returns false when the item cannot
// yield at least a title and should be skipped.
type Normalizer func(raw map[string]any) (model.Record, bool)

// normalizers maps source tags to their normalizer.
var normalizers = map[string]Normalizer{
	TagCrossref:        normalizeCrossref,
	TagSemanticScholar: normalizeSemanticScholar,
	TagScienceDirect:   normalizeScienceDirect,
	TagScholar:         normalizeScholar,
}

// Known reports whether a source tag has a registered normalizer.
func Known(tag string) bool {
	_, ok := normalizers[tag]
	return ok
}

// Result holds the normalized records from one source plus the count of
// raw items that could not yield a usable record.
type Result struct {
	Records []model.Record
	Skipped int
}

// Normalize converts the raw items of one source into Records, tagging each
// with the source and computing its comparison key. Malformed items are
// counted, never fatal.
func Normalize(tag string, items []map[string]any) (Result, error) {
	normalize, ok := normalizers[tag]
	if !ok {
		return Result{}, eris.Errorf("source: unknown source tag %q", tag)
	}

	res := Result{Records: make([]model.Record, 0, len(items))}
	for _, item := range items {
		rec, ok := normalize(item)
		if !ok {
			res.Skipped++
			continue
		}
		rec.TitleKey = TitleKey(rec.Title)
		rec.AddProvenance(tag)
		res.Records = append(res.Records, rec)
	}

	if res.Skipped > 0 {
		zap.L().Warn("source: skipped unusable raw items",
			zap.String("source", tag),
			zap.Int("skipped", res.Skipped),
		)
	}
	return res, nil
}
