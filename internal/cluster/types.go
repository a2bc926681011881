// Package cluster assigns face embeddings to person clusters incrementally
// and buckets every image as single person, multiple persons, or no person.
//
// Clustering is online, single-pass, and greedy: an embedding joins the
// nearest existing cluster when within tolerance, otherwise it starts a new
// one. Clusters are never merged or split on the incremental path; Refine
// offers that as a separate offline operation. Determinism depends entirely
// on processing order, which callers must keep fixed (images by ascending
// path, embeddings in detection order).
package cluster

import (
	"fmt"
	"math"
	"strings"
)

// Bucket is the per-image classification. Every image maps to exactly one.
type Bucket string

const (
	// BucketNoPerson marks images with zero detected faces.
	BucketNoPerson Bucket = "no_person"
	// BucketMultiplePersons marks images whose embeddings joined two or
	// more distinct clusters.
	BucketMultiplePersons Bucket = "multiple_persons"
)

// PersonBucket returns the bucket for an image whose embeddings all joined
// a single cluster.
func PersonBucket(clusterID int) Bucket {
	return Bucket(fmt.Sprintf("person:%d", clusterID))
}

// FolderName converts a bucket into a filesystem-safe directory name.
func (b Bucket) FolderName() string {
	return strings.ReplaceAll(string(b), ":", "_")
}

// PersonCluster accumulates embeddings believed to belong to one person.
// The representative is a running centroid, recomputed on every join; this
// is the documented deterministic update rule.
type PersonCluster struct {
	ID          int       `json:"id"`
	Centroid    []float32 `json:"-"`
	Size        int       `json:"size"` // embeddings assigned so far
	MemberPaths []string  `json:"member_paths"`
}

// Assignment records the clustering outcome for one image.
type Assignment struct {
	Path       string `json:"path"`
	Bucket     Bucket `json:"bucket"`
	ClusterIDs []int  `json:"cluster_ids"` // distinct clusters joined, in join order
	FaceCount  int    `json:"face_count"`
}

// EuclideanDistance computes the L2 distance between two embedding vectors.
// Mismatched or empty vectors are maximally distant.
func EuclideanDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.Inf(1)
	}
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
