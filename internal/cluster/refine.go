package cluster

import (
	"sort"

	"github.com/coder/hnsw"
)

const (
	// refineMaxNeighbors is the HNSW M parameter for the refine index.
	refineMaxNeighbors = 16
	// refineSearchK bounds how many candidate clusters are checked per
	// centroid during the merge scan.
	refineSearchK = 8
)

// Refine is an offline second pass over a completed run. The greedy
// incremental pass can split one person across clusters when their early
// embeddings drifted apart; Refine merges clusters whose centroids sit
// within tolerance of each other, renumbers the survivors, and rewrites
// every image assignment and bucket accordingly.
//
// Merging is transitive through a union-find, so a chain of
// within-tolerance centroids collapses into one cluster. Clusters are
// scanned in ascending ID order and survivors keep that order, which makes
// the result reproducible for a fixed run.
func (r *Run) Refine() {
	if len(r.clusters) < 2 {
		return
	}

	g := hnsw.NewGraph[int64]()
	g.M = refineMaxNeighbors
	g.Ml = 1.0 / float64(refineMaxNeighbors) // Standard HNSW formula
	g.Distance = hnsw.EuclideanDistance
	for _, c := range r.clusters {
		g.Add(hnsw.MakeNode(int64(c.ID), c.Centroid))
	}

	parent := make([]int, len(r.clusters))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra == rb {
			return
		}
		// The smaller ID always wins the root so merge outcomes do not
		// depend on scan order.
		if ra < rb {
			parent[rb] = ra
		} else {
			parent[ra] = rb
		}
	}

	for _, c := range r.clusters {
		neighbors := g.Search(c.Centroid, refineSearchK)
		for _, n := range neighbors {
			other := int(n.Key)
			if other == c.ID {
				continue
			}
			// HNSW search is approximate; recheck with the exact
			// distance before merging.
			if EuclideanDistance(c.Centroid, n.Value) <= r.tolerance {
				union(c.ID, other)
			}
		}
	}

	r.rebuild(find)
}

// rebuild collapses union-find groups into new sequential clusters and
// recomputes assignments and bucket counts.
func (r *Run) rebuild(find func(int) int) {
	remap := make(map[int]int, len(r.clusters))
	var merged []*PersonCluster

	for _, c := range r.clusters {
		root := find(c.ID)
		newID, ok := remap[root]
		if !ok {
			newID = len(merged)
			remap[root] = newID
			merged = append(merged, &PersonCluster{
				ID:       newID,
				Centroid: make([]float32, len(c.Centroid)),
			})
		}
		dst := merged[newID]

		// Weighted mean keeps the merged centroid equal to the mean of
		// all underlying embeddings.
		oldN := float32(dst.Size)
		addN := float32(c.Size)
		for i := range dst.Centroid {
			dst.Centroid[i] = (dst.Centroid[i]*oldN + c.Centroid[i]*addN) / (oldN + addN)
		}
		dst.Size += c.Size
		dst.MemberPaths = append(dst.MemberPaths, c.MemberPaths...)
	}

	for _, c := range merged {
		sort.Strings(c.MemberPaths)
		c.MemberPaths = dedupeSorted(c.MemberPaths)
	}
	r.clusters = merged

	r.singleCount, r.multiCount, r.noneCount = 0, 0, 0
	for i := range r.assignments {
		a := &r.assignments[i]
		if a.FaceCount == 0 {
			r.noneCount++
			continue
		}
		var joined []int
		for _, old := range a.ClusterIDs {
			id := remap[find(old)]
			if !containsID(joined, id) {
				joined = append(joined, id)
			}
		}
		a.ClusterIDs = joined
		if len(joined) == 1 {
			a.Bucket = PersonBucket(joined[0])
			r.singleCount++
		} else {
			a.Bucket = BucketMultiplePersons
			r.multiCount++
		}
	}
}

func dedupeSorted(paths []string) []string {
	out := paths[:0]
	for _, p := range paths {
		if len(out) == 0 || out[len(out)-1] != p {
			out = append(out, p)
		}
	}
	return out
}
