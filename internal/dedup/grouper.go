package dedup

import (
	"sort"

	"github.com/google/uuid"
	"github.com/kozaktomas/photo-dedup/internal/fingerprint"
	"github.com/kozaktomas/photo-dedup/internal/scanner"
)

// Options control the similarity predicate of the grouper.
type Options struct {
	// HashThreshold is the maximum Hamming distance between two perceptual
	// hashes for one algorithm to consider the images similar (0-64).
	HashThreshold int
	// MinAgree is how many of the three perceptual algorithms must agree
	// before two images are connected (1-3). Exact digest matches always
	// connect regardless of this setting.
	MinAgree int
}

// unionFind tracks connected components over record indices. Indexing into
// the record slice keeps member identity unambiguous even when a group holds
// chained, non-mutually-similar images.
type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{
		parent: make([]int, n),
		rank:   make([]int, n),
	}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (uf *unionFind) find(x int) int {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]] // Path halving
		x = uf.parent[x]
	}
	return x
}

func (uf *unionFind) union(x, y int) {
	px, py := uf.find(x), uf.find(y)
	if px == py {
		return
	}
	if uf.rank[px] < uf.rank[py] {
		px, py = py, px
	}
	uf.parent[py] = px
	if uf.rank[px] == uf.rank[py] {
		uf.rank[px]++
	}
}

// connected reports whether two records satisfy the similarity predicate:
// equal exact digests, or agreement of at least MinAgree perceptual
// algorithms under the Hamming threshold.
func connected(a, b *scanner.ImageRecord, opts Options) bool {
	if a.Fingerprints.Exact == b.Fingerprints.Exact {
		return true
	}
	return fingerprint.Agreement(a.Fingerprints, b.Fingerprints, opts.HashThreshold) >= opts.MinAgree
}

// BuildGroups produces disjoint duplicate groups across all records.
// Comparisons are folder-agnostic; the source folder is carried on records
// only for reporting. Groups contain at least two members; singletons are
// dropped silently. Output ordering is deterministic: groups sorted by their
// first member path, members sorted ascending.
func BuildGroups(records []*scanner.ImageRecord, opts Options) []Group {
	n := len(records)
	if n < 2 {
		return nil
	}

	uf := newUnionFind(n)

	// 1. Union byte-identical files first; this prunes perceptual
	//    comparisons for exact copies.
	exactSeen := make(map[[16]byte]int, n)
	for i, rec := range records {
		if first, ok := exactSeen[rec.Fingerprints.Exact]; ok {
			uf.union(first, i)
		} else {
			exactSeen[rec.Fingerprints.Exact] = i
		}
	}

	// 2. Pairwise perceptual comparison. O(n^2) is acceptable at the
	//    target scale (personal collections, thousands of images).
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if uf.find(i) == uf.find(j) {
				continue
			}
			if connected(records[i], records[j], opts) {
				uf.union(i, j)
			}
		}
	}

	// 3. Extract connected components with two or more members.
	components := make(map[int][]int)
	for i := range records {
		root := uf.find(i)
		components[root] = append(components[root], i)
	}

	var groups []Group
	for _, members := range components {
		if len(members) < 2 {
			continue
		}

		paths := make([]string, len(members))
		for i, idx := range members {
			paths[i] = records[idx].Path
		}
		sort.Strings(paths)

		groups = append(groups, Group{
			ID:      uuid.New().String(),
			Type:    classify(members, records),
			Members: paths,
		})
	}

	sort.Slice(groups, func(i, j int) bool { return groups[i].Members[0] < groups[j].Members[0] })
	return groups
}

// classify returns GroupExact when every member shares one exact digest.
func classify(members []int, records []*scanner.ImageRecord) GroupType {
	digest := records[members[0]].Fingerprints.Exact
	for _, idx := range members[1:] {
		if records[idx].Fingerprints.Exact != digest {
			return GroupSimilar
		}
	}
	return GroupExact
}
