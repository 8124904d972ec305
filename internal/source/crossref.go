package source

import (
	"fmt"
	"strings"

	"github.com/sells-group/scholar-cli/internal/model"
)

// normalizeCrossref handles items from the Crossref REST works API. Titles
// and venues arrive as single-element arrays, authors as structured
// given/family pairs, years buried in date-parts, abstracts as JATS XML.
func normalizeCrossref(raw map[string]any) (model.Record, bool) {
	title := trimCrossrefTitle(coerceString(raw["title"]))
	if title == "" {
		return model.Record{}, false
	}

	rec := model.Record{
		Title:    title,
		Venue:    coerceString(raw["container-title"]),
		Abstract: StripMarkup(coerceString(raw["abstract"])),
		Year:     crossrefYear(raw),
		Authors:  crossrefAuthors(raw["author"]),
	}

	doi := coerceString(raw["DOI"])
	if doi == "" {
		doi = coerceString(raw["doi"])
	}
	if doi = NormalizeDOI(doi); doi != "" {
		rec.AddIdentifier(model.Identifier{Type: model.IdentifierDOI, Value: doi})
	}

	return rec, true
}

func crossrefYear(raw map[string]any) int {
	for _, field := range []string{"published-print", "published-online", "issued", "created"} {
		parts, ok := dig(raw, field, "date-parts").([]any)
		if !ok || len(parts) == 0 {
			continue
		}
		first, ok := parts[0].([]any)
		if !ok || len(first) == 0 {
			continue
		}
		if y := coerceYear(first[0]); y != 0 {
			return y
		}
	}
	return coerceYear(raw["year"])
}

func crossrefAuthors(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return coerceStrings(v)
	}
	var authors []string
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			if s := coerceString(item); s != "" {
				authors = append(authors, s)
			}
			continue
		}
		given := coerceString(m["given"])
		family := coerceString(m["family"])
		switch {
		case given != "" && family != "":
			authors = append(authors, fmt.Sprintf("%s %s", given, family))
		case family != "":
			authors = append(authors, family)
		case m["name"] != nil:
			if s := coerceString(m["name"]); s != "" {
				authors = append(authors, s)
			}
		}
	}
	return authors
}

// trimCrossrefTitle guards against Crossref records where title, abstract
// and keywords are concatenated into one oversized title field.
func trimCrossrefTitle(title string) string {
	if len(title) <= 200 {
		return title
	}
	lower := strings.ToLower(title)
	for _, marker := range []string{"abstract:", "authors:", "keywords:", "doi:"} {
		if idx := strings.Index(lower, marker); idx > 0 {
			return strings.TrimSpace(title[:idx])
		}
	}
	return title
}
