package model

import (
	"encoding/json"
	"strconv"

	"github.com/rotisserie/eris"
)

// IdentifierType names the scheme an external identifier belongs to.
type IdentifierType string

const (
	// IdentifierDOI is the authoritative identifier type: two records
	// sharing a DOI always refer to the same work.
	IdentifierDOI IdentifierType = "doi"
	// IdentifierNative is a source-native identifier (Semantic Scholar
	// paper ID, Scopus ID, scraped result URL). Useful for provenance,
	// not authoritative for merging.
	IdentifierNative IdentifierType = "native"
)

// Identifier is one typed external identifier attached to a record.
type Identifier struct {
	Type  IdentifierType `json:"type"`
	Value string         `json:"value"`
}

// DomainTag holds the relevance signal of a record for one domain vocabulary.
type DomainTag struct {
	Score float64  `json:"score"`
	Terms []string `json:"terms,omitempty"`
}

// Record is the canonical unit of the corpus: one literary work, possibly
// merged from several sources. Title holds the original display title;
// TitleKey holds the normalized form used for duplicate comparison.
type Record struct {
	Title          string               `json:"title"`
	TitleKey       string               `json:"title_key,omitempty"`
	Authors        []string             `json:"authors,omitempty"`
	Year           int                  `json:"year,omitempty"`
	Venue          string               `json:"venue,omitempty"`
	Abstract       string               `json:"abstract,omitempty"`
	Identifiers    []Identifier         `json:"identifiers,omitempty"`
	Provenance     []string             `json:"provenance,omitempty"`
	DomainTags     map[string]DomainTag `json:"domain_tags,omitempty"`
	Classification map[string]Answer    `json:"classification,omitempty"`
}

// DOI returns the record's normalized DOI, or "" when it has none.
func (r *Record) DOI() string {
	for _, id := range r.Identifiers {
		if id.Type == IdentifierDOI {
			return id.Value
		}
	}
	return ""
}

// AddIdentifier appends an identifier unless an equal one is already present.
func (r *Record) AddIdentifier(id Identifier) {
	if id.Value == "" {
		return
	}
	for _, existing := range r.Identifiers {
		if existing == id {
			return
		}
	}
	r.Identifiers = append(r.Identifiers, id)
}

// AddProvenance appends a source tag unless already present.
func (r *Record) AddProvenance(source string) {
	if source == "" {
		return
	}
	for _, s := range r.Provenance {
		if s == source {
			return
		}
	}
	r.Provenance = append(r.Provenance, source)
}

// HasAbstract reports whether the record carries an abstract.
func (r *Record) HasAbstract() bool {
	return r.Abstract != ""
}

// Classified reports whether every declared question has a non-default
// answer. Records satisfying this are skipped on resumed runs.
func (r *Record) Classified(questions []Question) bool {
	if len(questions) == 0 {
		return false
	}
	for _, q := range questions {
		ans, ok := r.Classification[q.Field]
		if !ok || ans.IsDefault {
			return false
		}
	}
	return true
}

// PendingQuestions returns the questions still needing a classifier call:
// fields with no entry, and, when retryDefaulted is set, fields whose
// current entry is a fallback default.
func (r *Record) PendingQuestions(questions []Question, retryDefaulted bool) []Question {
	var pending []Question
	for _, q := range questions {
		ans, ok := r.Classification[q.Field]
		if !ok || (retryDefaulted && ans.IsDefault) {
			pending = append(pending, q)
		}
	}
	return pending
}

// SetAnswer records the answer for a question field.
func (r *Record) SetAnswer(field string, ans Answer) {
	if r.Classification == nil {
		r.Classification = make(map[string]Answer)
	}
	r.Classification[field] = ans
}

// Answer is one classification result. Value holds int64, float64, bool or
// string according to Type. IsDefault marks values that came from the
// question's fallback default rather than the classifier.
type Answer struct {
	Type      AnswerType `json:"type"`
	Value     any        `json:"value"`
	IsDefault bool       `json:"is_default"`
}

// UnmarshalJSON decodes Value into the concrete Go type declared by Type,
// so a checkpointed corpus round-trips to identical Records.
func (a *Answer) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type      AnswerType      `json:"type"`
		Value     json.RawMessage `json:"value"`
		IsDefault bool            `json:"is_default"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return eris.Wrap(err, "model: decode answer")
	}
	a.Type = raw.Type
	a.IsDefault = raw.IsDefault
	if len(raw.Value) == 0 || string(raw.Value) == "null" {
		a.Value = nil
		return nil
	}
	switch raw.Type {
	case AnswerInt:
		n, err := strconv.ParseInt(string(raw.Value), 10, 64)
		if err != nil {
			return eris.Wrapf(err, "model: decode int answer %s", raw.Value)
		}
		a.Value = n
	case AnswerFloat:
		f, err := strconv.ParseFloat(string(raw.Value), 64)
		if err != nil {
			return eris.Wrapf(err, "model: decode float answer %s", raw.Value)
		}
		a.Value = f
	case AnswerBool:
		b, err := strconv.ParseBool(string(raw.Value))
		if err != nil {
			return eris.Wrapf(err, "model: decode bool answer %s", raw.Value)
		}
		a.Value = b
	default:
		var s string
		if err := json.Unmarshal(raw.Value, &s); err != nil {
			return eris.Wrapf(err, "model: decode string answer %s", raw.Value)
		}
		a.Value = s
	}
	return nil
}
