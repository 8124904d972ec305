package dedupe

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/scholar-cli/internal/model"
	"github.com/sells-group/scholar-cli/internal/source"
)

func mkRecord(title, doi, src string, year int) model.Record {
	rec := model.Record{
		Title:    title,
		TitleKey: source.TitleKey(title),
		Year:     year,
	}
	if doi != "" {
		rec.AddIdentifier(model.Identifier{Type: model.IdentifierDOI, Value: doi})
	}
	rec.AddProvenance(src)
	return rec
}

func TestDeduplicate_SharedDOIMergesRegardlessOfTitle(t *testing.T) {
	records := []model.Record{
		mkRecord("Foo", "10.1/x", "crossref", 2020),
		mkRecord("Completely different", "10.1/x", "scholar", 2020),
	}

	merged, stats := Deduplicate(records, Config{})
	require.Len(t, merged, 1)
	assert.Equal(t, 1, stats.MergedGroups)
	assert.Equal(t, "10.1/x", merged[0].DOI())
	assert.ElementsMatch(t, []string{"crossref", "scholar"}, merged[0].Provenance)
}

func TestDeduplicate_DissimilarTitlesStaySeparate(t *testing.T) {
	records := []model.Record{
		mkRecord("Deep learning for fisheries", "", "crossref", 2020),
		mkRecord("Quantum computing basics", "", "scholar", 2020),
	}

	merged, stats := Deduplicate(records, Config{})
	assert.Len(t, merged, 2)
	assert.Equal(t, 0, stats.MergedGroups)
}

func TestDeduplicate_SimilarTitleSameYearMerges(t *testing.T) {
	records := []model.Record{
		mkRecord("Deep learning for fisheries management", "", "crossref", 2020),
		mkRecord("Deep Learning for Fisheries Management.", "", "scholar", 2020),
	}

	merged, stats := Deduplicate(records, Config{})
	require.Len(t, merged, 1)
	assert.Equal(t, 1, stats.FuzzyMerges)
}

func TestDeduplicate_SimilarTitleDifferentYearStaysSeparate(t *testing.T) {
	records := []model.Record{
		mkRecord("Deep learning for fisheries management", "", "crossref", 2019),
		mkRecord("Deep learning for fisheries management", "", "scholar", 2021),
	}

	merged, _ := Deduplicate(records, Config{})
	assert.Len(t, merged, 2)
}

func TestDeduplicate_MissingYearIsCompatible(t *testing.T) {
	records := []model.Record{
		mkRecord("Deep learning for fisheries management", "", "crossref", 2020),
		mkRecord("Deep learning for fisheries management", "", "scholar", 0),
	}

	merged, _ := Deduplicate(records, Config{})
	require.Len(t, merged, 1)
	// The unknown year is backfilled from the other member.
	assert.Equal(t, 2020, merged[0].Year)
}

func TestDeduplicate_TransitiveChainCollapses(t *testing.T) {
	// A~B by DOI, B~C by title: all three must land in one group even
	// though A and C share nothing directly.
	a := mkRecord("Short title", "10.1/chain", "crossref", 2020)
	b := mkRecord("Neural networks in aquaculture systems", "10.1/chain", "semantic_scholar", 2020)
	c := mkRecord("Neural networks in aquaculture systems", "", "scholar", 2020)

	merged, _ := Deduplicate([]model.Record{a, b, c}, Config{})
	require.Len(t, merged, 1)
	assert.ElementsMatch(t, []string{"crossref", "semantic_scholar", "scholar"}, merged[0].Provenance)
}

func TestDeduplicate_Idempotent(t *testing.T) {
	records := []model.Record{
		mkRecord("Deep learning for fisheries management", "10.1/x", "crossref", 2020),
		mkRecord("Deep learning for fisheries management", "", "scholar", 2020),
		mkRecord("Quantum computing basics", "10.2/q", "semantic_scholar", 2019),
	}

	once, _ := Deduplicate(records, Config{})
	twice, _ := Deduplicate(once, Config{})
	assert.Equal(t, once, twice)
}

func TestDeduplicate_OrderInsensitiveGroupMembership(t *testing.T) {
	records := []model.Record{
		mkRecord("Deep learning for fisheries management", "10.1/x", "crossref", 2020),
		mkRecord("Totally unrelated work", "10.1/x", "scholar", 2020),
		mkRecord("Quantum computing basics", "", "semantic_scholar", 2019),
		mkRecord("Quantum computing basics", "", "science_direct", 2019),
		mkRecord("A third separate topic", "", "crossref", 2021),
	}

	base, _ := Deduplicate(records, Config{})
	baseSets := provenanceSets(base)

	rng := rand.New(rand.NewPCG(7, 11))
	for trial := 0; trial < 10; trial++ {
		shuffled := make([]model.Record, len(records))
		copy(shuffled, records)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		merged, _ := Deduplicate(shuffled, Config{})
		assert.ElementsMatch(t, baseSets, provenanceSets(merged), "trial %d", trial)
	}
}

func provenanceSets(records []model.Record) []map[string]bool {
	var out []map[string]bool
	for _, rec := range records {
		set := make(map[string]bool)
		for _, src := range rec.Provenance {
			set[src] = true
		}
		out = append(out, set)
	}
	return out
}

func TestDeduplicate_DeterministicOutputOrder(t *testing.T) {
	records := []model.Record{
		mkRecord("First seen work", "", "crossref", 2018),
		mkRecord("Second seen work", "", "scholar", 2019),
		mkRecord("First seen work", "", "semantic_scholar", 2018),
	}

	merged, _ := Deduplicate(records, Config{})
	require.Len(t, merged, 2)
	// Output order follows the earliest-contributing member.
	assert.Equal(t, "First seen work", merged[0].Title)
	assert.Equal(t, "Second seen work", merged[1].Title)
}

func TestDeduplicate_DropsRecordsWithNothingToMatch(t *testing.T) {
	records := []model.Record{
		{},
		mkRecord("A usable record", "", "crossref", 2020),
	}

	merged, stats := Deduplicate(records, Config{})
	assert.Len(t, merged, 1)
	assert.Equal(t, 1, stats.Dropped)
}

func TestDeduplicate_CollisionAcrossGroupsMergesBoth(t *testing.T) {
	// Two established DOI groups bridged by one inconsistent record that
	// carries both DOIs: everything collapses to one record, counted, not
	// an error.
	a := mkRecord("Work alpha", "10.1/a", "crossref", 2020)
	b := mkRecord("Work beta", "10.1/b", "semantic_scholar", 2021)
	bridge := mkRecord("Work alpha", "10.1/a", "scholar", 2020)
	bridge.AddIdentifier(model.Identifier{Type: model.IdentifierDOI, Value: "10.1/b"})

	merged, stats := Deduplicate([]model.Record{a, b, bridge}, Config{})
	require.Len(t, merged, 1)
	assert.Equal(t, 1, stats.DOICollisions)
	assert.ElementsMatch(t, []string{"crossref", "semantic_scholar", "scholar"}, merged[0].Provenance)
}

func TestMergeGroup_CompletenessRanking(t *testing.T) {
	withAbstract := mkRecord("Study of reef systems", "10.5/r", "scholar", 2020)
	withAbstract.Abstract = "An abstract."
	withAbstract.Authors = []string{"A"}

	noAbstract := mkRecord("Study of reef systems and their long dynamics", "10.5/r", "crossref", 2020)
	noAbstract.Authors = []string{"A. Author", "B. Author", "C. Author"}
	noAbstract.Venue = "Coral Reports"

	merged, _ := Deduplicate([]model.Record{noAbstract, withAbstract}, Config{})
	require.Len(t, merged, 1)

	// Abstract presence beats the longer title...
	assert.Equal(t, "Study of reef systems", merged[0].Title)
	assert.Equal(t, "An abstract.", merged[0].Abstract)
	// ...the longest author sequence wins regardless...
	assert.Equal(t, []string{"A. Author", "B. Author", "C. Author"}, merged[0].Authors)
	// ...and a venue only the loser knows is not lost.
	assert.Equal(t, "Coral Reports", merged[0].Venue)
}

func TestMergeGroup_SourcePriorityBreaksTies(t *testing.T) {
	fromScholar := mkRecord("Tied title", "10.6/t", "scholar", 2020)
	fromScholar.Venue = "Scraped Venue"
	fromCrossref := mkRecord("Tied title", "10.6/t", "crossref", 2020)
	fromCrossref.Venue = "Crossref Venue"

	merged, _ := Deduplicate([]model.Record{fromScholar, fromCrossref}, Config{})
	require.Len(t, merged, 1)
	assert.Equal(t, "Crossref Venue", merged[0].Venue)
}

func TestTokenSetOverlap(t *testing.T) {
	assert.Equal(t, 1.0, TokenSetOverlap("deep learning fisheries", "deep learning fisheries"))
	assert.Equal(t, 1.0, TokenSetOverlap("deep learning", "deep learning fisheries"))
	assert.Equal(t, 0.0, TokenSetOverlap("", "deep learning"))
	assert.InDelta(t, 0.5, TokenSetOverlap("deep learning", "deep diving"), 0.001)
}

func TestUnionFind(t *testing.T) {
	uf := newUnionFind(5)
	assert.True(t, uf.Union(0, 1))
	assert.True(t, uf.Union(3, 4))
	assert.False(t, uf.Union(1, 0))
	assert.True(t, uf.Union(1, 3))

	assert.Equal(t, uf.Find(0), uf.Find(4))
	assert.NotEqual(t, uf.Find(0), uf.Find(2))

	groups := uf.Groups()
	require.Len(t, groups, 2)
	assert.Equal(t, []int{0, 1, 3, 4}, groups[0])
	assert.Equal(t, []int{2}, groups[1])
}
