// Package tagger scores canonical records against user-defined domain
// vocabularies: distinct term hits over title plus abstract, normalized to
// the vocabulary size.
package tagger

import (
	"regexp"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/sells-group/scholar-cli/internal/model"
)

var nonWordRe = regexp.MustCompile(`[^\pL\pN]+`)

// term is one precompiled vocabulary entry. Single-word terms match on
// word boundaries; multi-word terms match as exact phrases, both over the
// normalized record text.
type term struct {
	display string
	norm    string
	phrase  bool
}

// Tagger holds compiled vocabularies, shared read-only across workers.
type Tagger struct {
	domains map[string][]term
}

// New compiles the given vocabularies. Keys are domain names; term order
// is preserved so matched-term lists follow declaration order.
func New(vocabularies map[string][]string) *Tagger {
	domains := make(map[string][]term, len(vocabularies))
	for domain, terms := range vocabularies {
		compiled := make([]term, 0, len(terms))
		for _, t := range terms {
			norm := normalizeText(t)
			if norm == "" {
				continue
			}
			compiled = append(compiled, term{
				display: t,
				norm:    norm,
				phrase:  strings.ContainsRune(norm, ' '),
			})
		}
		domains[domain] = compiled
	}
	return &Tagger{domains: domains}
}

// Tag computes domain tags for every record, in parallel across records.
// Records are extended additively; a record with no abstract is scored on
// its title alone. Output order matches input order.
func (t *Tagger) Tag(records []model.Record) []model.Record {
	g := errgroup.Group{}
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range records {
		g.Go(func() error {
			t.tagRecord(&records[i])
			return nil
		})
	}
	_ = g.Wait() // workers never fail
	return records
}

func (t *Tagger) tagRecord(rec *model.Record) {
	text := normalizeText(rec.Title + " " + rec.Abstract)
	tokens := tokenSet(text)
	padded := " " + text + " "

	if rec.DomainTags == nil {
		rec.DomainTags = make(map[string]model.DomainTag, len(t.domains))
	}
	for domain, terms := range t.domains {
		tag := model.DomainTag{}
		seen := make(map[string]bool, len(terms))
		for _, tm := range terms {
			if seen[tm.norm] {
				continue
			}
			var hit bool
			if tm.phrase {
				hit = strings.Contains(padded, " "+tm.norm+" ")
			} else {
				hit = tokens[tm.norm]
			}
			if hit {
				seen[tm.norm] = true
				tag.Terms = append(tag.Terms, tm.display)
			}
		}
		if len(terms) > 0 {
			tag.Score = float64(len(tag.Terms)) / float64(len(terms))
		}
		rec.DomainTags[domain] = tag
	}
}

// normalizeText lowercases and strips punctuation so term matching is
// case-insensitive and unaffected by separators.
func normalizeText(s string) string {
	s = strings.ToLower(s)
	s = nonWordRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func tokenSet(s string) map[string]bool {
	fields := strings.Fields(s)
	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		set[f] = true
	}
	return set
}
