package source

import (
	"fmt"

	"github.com/sells-group/scholar-cli/internal/model"
)

// normalizeScienceDirect handles entries from the Scopus/Science Direct
// search API, which uses Dublin Core and PRISM prefixed fields.
func normalizeScienceDirect(raw map[string]any) (model.Record, bool) {
	title := coerceString(raw["dc:title"])
	if title == "" {
		return model.Record{}, false
	}

	rec := model.Record{
		Title:    title,
		Venue:    coerceString(raw["prism:publicationName"]),
		Abstract: coerceString(raw["dc:description"]),
		Year:     coerceYear(raw["prism:coverDate"]),
		Authors:  scienceDirectAuthors(raw),
	}

	if doi := NormalizeDOI(coerceString(raw["prism:doi"])); doi != "" {
		rec.AddIdentifier(model.Identifier{Type: model.IdentifierDOI, Value: doi})
	}
	if scopusID := coerceString(raw["dc:identifier"]); scopusID != "" {
		rec.AddIdentifier(model.Identifier{Type: model.IdentifierNative, Value: scopusID})
	}

	return rec, true
}

func scienceDirectAuthors(raw map[string]any) []string {
	// Structured author list when the API expands it.
	if items, ok := raw["authors"].([]any); ok {
		var authors []string
		for _, item := range items {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if name := coerceString(m["authname"]); name != "" {
				authors = append(authors, name)
				continue
			}
			given := coerceString(m["given-name"])
			surname := coerceString(m["surname"])
			if given != "" && surname != "" {
				authors = append(authors, fmt.Sprintf("%s %s", given, surname))
			} else if surname != "" {
				authors = append(authors, surname)
			}
		}
		if len(authors) > 0 {
			return authors
		}
	}
	// Fall back to the single first-creator field.
	if creator := coerceString(raw["dc:creator"]); creator != "" {
		return []string{creator}
	}
	return nil
}
