// Package dedupe reconciles normalized records from multiple sources into
// one canonical corpus: records sharing an authoritative identifier or a
// sufficiently similar title merge into a single record with unioned
// identifiers and provenance.
package dedupe

// unionFind is a disjoint-set over record indices with path compression
// and union by size. Records are kept in an arena slice; groups are
// computed over indices so merging never touches the records themselves.
type unionFind struct {
	parent []int
	size   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{
		parent: make([]int, n),
		size:   make([]int, n),
	}
	for i := range uf.parent {
		uf.parent[i] = i
		uf.size[i] = 1
	}
	return uf
}

// Find returns the root of x, compressing the path on the way.
func (uf *unionFind) Find(x int) int {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

// Union merges the sets containing a and b. Returns true when the sets
// were previously distinct.
func (uf *unionFind) Union(a, b int) bool {
	ra, rb := uf.Find(a), uf.Find(b)
	if ra == rb {
		return false
	}
	if uf.size[ra] < uf.size[rb] {
		ra, rb = rb, ra
	}
	uf.parent[rb] = ra
	uf.size[ra] += uf.size[rb]
	return true
}

// Groups returns the member indices of every set, each group ascending,
// groups ordered by their smallest member.
func (uf *unionFind) Groups() [][]int {
	byRoot := make(map[int][]int)
	var order []int
	for i := range uf.parent {
		root := uf.Find(i)
		if _, seen := byRoot[root]; !seen {
			order = append(order, root)
		}
		byRoot[root] = append(byRoot[root], i)
	}
	// Roots are discovered in index order and members appended in index
	// order, so the result is already deterministic.
	groups := make([][]int, 0, len(order))
	for _, root := range order {
		groups = append(groups, byRoot[root])
	}
	return groups
}
