package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/scholar-cli/internal/model"
)

func TestNormalize_Crossref(t *testing.T) {
	items := []map[string]any{
		{
			"title":           []any{"Deep Learning for Fisheries"},
			"DOI":             "10.1000/XYZ",
			"container-title": []any{"Aquaculture"},
			"abstract":        "<jats:p>We study fish.</jats:p>",
			"published-print": map[string]any{
				"date-parts": []any{[]any{2021.0, 3.0, 1.0}},
			},
			"author": []any{
				map[string]any{"given": "Ada", "family": "Lovelace"},
				map[string]any{"family": "Turing"},
			},
		},
		{"abstract": "no title at all"}, // skipped
	}

	res, err := Normalize(TagCrossref, items)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Skipped)
	require.Len(t, res.Records, 1)

	rec := res.Records[0]
	assert.Equal(t, "Deep Learning for Fisheries", rec.Title)
	assert.Equal(t, "deep learning fisheries", rec.TitleKey)
	assert.Equal(t, "10.1000/xyz", rec.DOI())
	assert.Equal(t, "Aquaculture", rec.Venue)
	assert.Equal(t, "We study fish.", rec.Abstract)
	assert.Equal(t, 2021, rec.Year)
	assert.Equal(t, []string{"Ada Lovelace", "Turing"}, rec.Authors)
	assert.Equal(t, []string{TagCrossref}, rec.Provenance)
}

func TestNormalize_SemanticScholar(t *testing.T) {
	items := []map[string]any{
		{
			"paperId":  "abc123",
			"title":    "Quantum computing basics",
			"abstract": "An introduction.",
			"year":     2019.0,
			"venue":    "Nature",
			"authors": []any{
				map[string]any{"name": "Grace Hopper", "authorId": "77"},
			},
			"externalIds": map[string]any{"DOI": "10.2000/QC"},
		},
	}

	res, err := Normalize(TagSemanticScholar, items)
	require.NoError(t, err)
	require.Len(t, res.Records, 1)

	rec := res.Records[0]
	assert.Equal(t, "10.2000/qc", rec.DOI())
	assert.Equal(t, 2019, rec.Year)
	assert.Equal(t, []string{"Grace Hopper"}, rec.Authors)
	assert.Contains(t, rec.Identifiers, model.Identifier{Type: model.IdentifierNative, Value: "s2:abc123"})
}

func TestNormalize_ScienceDirect(t *testing.T) {
	items := []map[string]any{
		{
			"dc:title":              "Ocean acidification trends",
			"prism:doi":             "10.3000/OA",
			"prism:publicationName": "Marine Policy",
			"prism:coverDate":       "2020-06-15",
			"dc:creator":            "C. Darwin",
			"dc:identifier":         "SCOPUS_ID:555",
		},
	}

	res, err := Normalize(TagScienceDirect, items)
	require.NoError(t, err)
	require.Len(t, res.Records, 1)

	rec := res.Records[0]
	assert.Equal(t, "10.3000/oa", rec.DOI())
	assert.Equal(t, 2020, rec.Year)
	assert.Equal(t, "Marine Policy", rec.Venue)
	assert.Equal(t, []string{"C. Darwin"}, rec.Authors)
}

func TestNormalize_ScienceDirect_StructuredAuthors(t *testing.T) {
	items := []map[string]any{
		{
			"dc:title": "Coral reef modelling",
			"authors": []any{
				map[string]any{"authname": "A. Reef"},
				map[string]any{"given-name": "B.", "surname": "Coral"},
			},
		},
	}

	res, err := Normalize(TagScienceDirect, items)
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, []string{"A. Reef", "B. Coral"}, res.Records[0].Authors)
}

func TestNormalize_Scholar(t *testing.T) {
	items := []map[string]any{
		{
			"bib": map[string]any{
				"title":    "Fish stock assessment with neural nets",
				"pub_year": "2022",
				"author":   []any{"A. Angler", "B. Baits"},
				"abstract": "We assess stocks.",
				"venue":    "ICES Journal",
			},
			"pub_url": "https://doi.org/10.4000/fsa",
		},
		{
			"bib": map[string]any{"author": []any{"No Title"}},
		},
	}

	res, err := Normalize(TagScholar, items)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Skipped)
	require.Len(t, res.Records, 1)

	rec := res.Records[0]
	assert.Equal(t, "10.4000/fsa", rec.DOI())
	assert.Equal(t, 2022, rec.Year)
	assert.Equal(t, []string{"A. Angler", "B. Baits"}, rec.Authors)
}

func TestNormalize_Scholar_CommaAuthors(t *testing.T) {
	items := []map[string]any{
		{
			"bib": map[string]any{
				"title":  "Untyped author strings",
				"author": "A. Angler, B. Baits",
			},
		},
	}

	res, err := Normalize(TagScholar, items)
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, []string{"A. Angler", "B. Baits"}, res.Records[0].Authors)
}

func TestNormalize_UnknownSource(t *testing.T) {
	_, err := Normalize("pubmed", nil)
	assert.Error(t, err)
}

func TestKnown(t *testing.T) {
	assert.True(t, Known(TagCrossref))
	assert.True(t, Known(TagScholar))
	assert.False(t, Known("pubmed"))
}

func TestExtractDOI(t *testing.T) {
	assert.Equal(t, "10.4000/fsa", extractDOI("https://doi.org/10.4000/fsa"))
	assert.Equal(t, "10.4000/fsa.2", extractDOI("see doi:10.4000/fsa.2 for details"))
	assert.Equal(t, "", extractDOI("no identifier here"))
}
