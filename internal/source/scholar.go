package source

import (
	"regexp"
	"strings"

	"github.com/sells-group/scholar-cli/internal/model"
)

var doiInTextRe = regexp.MustCompile(`(?i)(?:doi\.org/|doi:)?(10\.\d{4,9}/[-._;()/:a-z0-9]+)`)

// normalizeScholar handles scraped Google Scholar results: bibliographic
// fields nested under "bib", no reliable DOI (sometimes recoverable from
// the result URL or abstract text), result URL as the native identifier.
func normalizeScholar(raw map[string]any) (model.Record, bool) {
	bib, _ := raw["bib"].(map[string]any)
	if bib == nil {
		bib = raw
	}

	title := coerceString(bib["title"])
	if title == "" {
		return model.Record{}, false
	}

	rec := model.Record{
		Title:    title,
		Abstract: coerceString(bib["abstract"]),
		Year:     coerceYear(bib["pub_year"]),
		Venue:    coerceString(bib["venue"]),
		Authors:  coerceStrings(bib["author"]),
	}

	url := coerceString(raw["pub_url"])
	if url == "" {
		url = coerceString(raw["eprint_url"])
	}
	if url != "" {
		rec.AddIdentifier(model.Identifier{Type: model.IdentifierNative, Value: url})
	}

	// Scraped results rarely carry a DOI outright; try to recover one from
	// the URL and then the abstract.
	if doi := extractDOI(url); doi == "" {
		if doi = extractDOI(rec.Abstract); doi != "" {
			rec.AddIdentifier(model.Identifier{Type: model.IdentifierDOI, Value: doi})
		}
	} else {
		rec.AddIdentifier(model.Identifier{Type: model.IdentifierDOI, Value: doi})
	}

	return rec, true
}

// extractDOI pulls the first DOI-shaped token out of free text.
func extractDOI(text string) string {
	if !strings.Contains(text, "10.") {
		return ""
	}
	m := doiInTextRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return NormalizeDOI(m[1])
}
