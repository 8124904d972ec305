package source

import (
	"github.com/sells-group/scholar-cli/internal/model"
)

// normalizeSemanticScholar handles items from the Semantic Scholar graph
// API: flat title/abstract/year/venue fields, authors as {name} objects,
// DOI under externalIds, paperId as the source-native identifier.
func normalizeSemanticScholar(raw map[string]any) (model.Record, bool) {
	title := coerceString(raw["title"])
	if title == "" {
		return model.Record{}, false
	}

	rec := model.Record{
		Title:    title,
		Abstract: coerceString(raw["abstract"]),
		Year:     coerceYear(raw["year"]),
		Venue:    coerceString(raw["venue"]),
		Authors:  semanticScholarAuthors(raw["authors"]),
	}
	if rec.Venue == "" {
		rec.Venue = coerceString(dig(raw, "publicationVenue", "name"))
	}

	if doi := NormalizeDOI(coerceString(dig(raw, "externalIds", "DOI"))); doi != "" {
		rec.AddIdentifier(model.Identifier{Type: model.IdentifierDOI, Value: doi})
	}
	if paperID := coerceString(raw["paperId"]); paperID != "" {
		rec.AddIdentifier(model.Identifier{Type: model.IdentifierNative, Value: "s2:" + paperID})
	}

	return rec, true
}

func semanticScholarAuthors(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return coerceStrings(v)
	}
	var authors []string
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			if name := coerceString(m["name"]); name != "" {
				authors = append(authors, name)
			}
			continue
		}
		if s := coerceString(item); s != "" {
			authors = append(authors, s)
		}
	}
	return authors
}
