// Package registry loads the run's configuration inputs: domain term
// vocabularies and the classification question spec. All validation is
// eager — a malformed vocabulary or question file aborts the run before
// any record is processed or any classifier quota is spent.
package registry

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// LoadVocabulary reads one domain vocabulary from a CSV file: one term per
// row, first column, optional "term" header. Duplicate terms are removed,
// declaration order preserved.
func LoadVocabulary(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "registry: open vocabulary %s", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var terms []string
	seen := make(map[string]bool)
	row := 0
	for {
		fields, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "registry: read vocabulary %s", path)
		}
		row++
		if len(fields) == 0 {
			continue
		}
		term := strings.TrimSpace(fields[0])
		if term == "" {
			continue
		}
		if row == 1 && strings.EqualFold(term, "term") {
			continue
		}
		key := strings.ToLower(term)
		if seen[key] {
			continue
		}
		seen[key] = true
		terms = append(terms, term)
	}

	if len(terms) == 0 {
		return nil, eris.Errorf("registry: vocabulary %s has no terms", path)
	}
	return terms, nil
}

// LoadVocabularies loads every configured domain vocabulary. Domain names
// are the map keys downstream tags are stored under.
func LoadVocabularies(files map[string]string) (map[string][]string, error) {
	if len(files) == 0 {
		return nil, eris.New("registry: no domain vocabularies configured")
	}

	vocabs := make(map[string][]string, len(files))
	for domain, path := range files {
		if strings.TrimSpace(domain) == "" {
			return nil, eris.Errorf("registry: empty domain name for vocabulary %s", path)
		}
		terms, err := LoadVocabulary(path)
		if err != nil {
			return nil, err
		}
		vocabs[domain] = terms
		zap.L().Info("registry: loaded vocabulary",
			zap.String("domain", domain),
			zap.Int("terms", len(terms)),
		)
	}
	return vocabs, nil
}
