// Package source converts raw result items from the external search
// back-ends into canonical model.Records. One normalizer per source;
// everything downstream of this package is source-agnostic.
package source

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// titleStopwords are dropped from comparison keys; they carry no signal for
// duplicate detection and vary across source renderings of the same title.
var titleStopwords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true,
	"but": true, "in": true, "on": true, "at": true, "to": true, "for": true,
}

var (
	punctRe      = regexp.MustCompile(`[^\pL\pN\s]`)
	multiSpaceRe = regexp.MustCompile(`\s{2,}`)
	tagRe        = regexp.MustCompile(`<[^>]+>`)
	yearRe       = regexp.MustCompile(`(19|20)\d{2}`)
)

// foldDiacritics strips combining marks so "café" and "cafe" compare equal.
var foldDiacritics = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// TitleKey normalizes a title for duplicate comparison: case fold,
// diacritic fold, punctuation strip, stopword strip, whitespace collapse.
// The display title is kept separately on the Record.
func TitleKey(title string) string {
	title = strings.ToLower(strings.TrimSpace(title))
	if title == "" {
		return ""
	}
	if folded, _, err := transform.String(foldDiacritics, title); err == nil {
		title = folded
	}
	title = punctRe.ReplaceAllString(title, " ")

	words := strings.Fields(title)
	kept := words[:0]
	for _, w := range words {
		if !titleStopwords[w] {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

// NormalizeDOI lowercases a DOI and strips resolver prefixes so DOIs from
// different sources compare equal.
func NormalizeDOI(doi string) string {
	doi = strings.ToLower(strings.TrimSpace(doi))
	for _, prefix := range []string{"doi:", "https://doi.org/", "http://doi.org/", "doi.org/"} {
		if strings.HasPrefix(doi, prefix) {
			doi = doi[len(prefix):]
			break
		}
	}
	return doi
}

// StripMarkup removes XML/HTML tags and collapses whitespace. Crossref
// abstracts arrive as JATS fragments.
func StripMarkup(s string) string {
	s = tagRe.ReplaceAllString(s, " ")
	s = multiSpaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// coerceString renders a raw value as a string. Sources disagree on types:
// Crossref titles are single-element arrays, years arrive as numbers or
// strings, scraped fields can be anything.
func coerceString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	case []any:
		if len(s) == 0 {
			return ""
		}
		return coerceString(s[0])
	case float64:
		if s == float64(int64(s)) {
			return strconv.FormatInt(int64(s), 10)
		}
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", s))
	}
}

// coerceStrings renders a raw value as a string slice, dropping empties.
func coerceStrings(v any) []string {
	var out []string
	switch s := v.(type) {
	case []any:
		for _, item := range s {
			if str := coerceString(item); str != "" {
				out = append(out, str)
			}
		}
	case []string:
		for _, str := range s {
			if str = strings.TrimSpace(str); str != "" {
				out = append(out, str)
			}
		}
	case string:
		for _, part := range strings.Split(s, ",") {
			if str := strings.TrimSpace(part); str != "" {
				out = append(out, str)
			}
		}
	}
	return out
}

// coerceYear extracts a publication year from a raw value. Returns 0 when
// no plausible year is present.
func coerceYear(v any) int {
	switch y := v.(type) {
	case float64:
		return plausibleYear(int(y))
	case int:
		return plausibleYear(y)
	case string:
		if m := yearRe.FindString(y); m != "" {
			n, _ := strconv.Atoi(m)
			return plausibleYear(n)
		}
	}
	return 0
}

func plausibleYear(y int) int {
	if y >= 1900 && y <= 2099 {
		return y
	}
	return 0
}

// dig walks nested map[string]any values by key path.
func dig(raw map[string]any, keys ...string) any {
	var cur any = raw
	for _, k := range keys {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[k]
	}
	return cur
}
