package dedupe

import "strings"

// TokenSetOverlap computes the overlap coefficient between the token sets
// of two normalized titles: |A ∩ B| / min(|A|, |B|). The coefficient
// tolerates source-truncated titles better than plain Jaccard similarity.
// Returns 0 when either title has no tokens.
func TokenSetOverlap(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	smaller, larger := setA, setB
	if len(setB) < len(setA) {
		smaller, larger = setB, setA
	}

	shared := 0
	for tok := range smaller {
		if larger[tok] {
			shared++
		}
	}
	return float64(shared) / float64(len(smaller))
}

func tokenSet(s string) map[string]bool {
	fields := strings.Fields(s)
	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		set[f] = true
	}
	return set
}
