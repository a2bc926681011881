// Package dedup groups near-identical images and decides which member of
// each group to keep.
//
// Similarity under a Hamming-distance threshold is not transitive, so groups
// are the connected components of the pairwise similarity graph, not true
// equivalence classes: a group may contain a chain of images whose two ends
// are not directly similar. This is deliberate, documented behavior.
package dedup

// GroupType distinguishes how a duplicate group was formed.
type GroupType string

const (
	// GroupExact means every member is byte-identical to the others.
	GroupExact GroupType = "exact"
	// GroupSimilar means at least one edge came from perceptual hashes.
	GroupSimilar GroupType = "similar"
)

// Group is a set of two or more images considered duplicates of each other.
// Every image belongs to at most one group; singletons are never emitted.
type Group struct {
	ID          string    `json:"id"`
	Type        GroupType `json:"type"`
	Members     []string  `json:"files"`        // paths, sorted ascending
	KeepPath    string    `json:"keep"`         // filled by Rank
	DeletePaths []string  `json:"delete_paths"` // filled by Rank
}
