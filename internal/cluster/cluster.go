package cluster

import "math"

// Run holds the mutable state of one clustering pass. Every engine run
// builds its own Run; state never leaks between runs.
type Run struct {
	tolerance float64

	clusters    []*PersonCluster
	assignments []Assignment

	singleCount int
	multiCount  int
	noneCount   int
}

// NewRun creates an empty clustering run. Tolerance is the maximum
// Euclidean distance at which an embedding still joins an existing cluster.
func NewRun(tolerance float64) *Run {
	return &Run{tolerance: tolerance}
}

// AddImage assigns all embeddings of one image and returns its bucket.
// Callers must add images in ascending path order to keep runs reproducible.
func (r *Run) AddImage(path string, embeddings [][]float32) Bucket {
	if len(embeddings) == 0 {
		r.noneCount++
		r.assignments = append(r.assignments, Assignment{
			Path:   path,
			Bucket: BucketNoPerson,
		})
		return BucketNoPerson
	}

	var joined []int
	for _, emb := range embeddings {
		id := r.assign(emb, path)
		if !containsID(joined, id) {
			joined = append(joined, id)
		}
	}

	var bucket Bucket
	if len(joined) == 1 {
		bucket = PersonBucket(joined[0])
		r.singleCount++
	} else {
		bucket = BucketMultiplePersons
		r.multiCount++
	}
	r.assignments = append(r.assignments, Assignment{
		Path:       path,
		Bucket:     bucket,
		ClusterIDs: joined,
		FaceCount:  len(embeddings),
	})
	return bucket
}

// assign places a single embedding into the nearest cluster within
// tolerance, or creates a new cluster. Ties on distance resolve to the
// lowest cluster ID because the scan is strictly-less in ID order.
func (r *Run) assign(emb []float32, path string) int {
	best := -1
	bestDist := math.Inf(1)
	for _, c := range r.clusters {
		d := EuclideanDistance(emb, c.Centroid)
		if d < bestDist {
			best = c.ID
			bestDist = d
		}
	}

	if best >= 0 && bestDist <= r.tolerance {
		c := r.clusters[best]
		mergeCentroid(c, emb)
		if len(c.MemberPaths) == 0 || c.MemberPaths[len(c.MemberPaths)-1] != path {
			c.MemberPaths = append(c.MemberPaths, path)
		}
		return c.ID
	}

	c := &PersonCluster{
		ID:          len(r.clusters),
		Centroid:    append([]float32(nil), emb...),
		Size:        1,
		MemberPaths: []string{path},
	}
	r.clusters = append(r.clusters, c)
	return c.ID
}

// mergeCentroid folds one embedding into the running mean of a cluster.
func mergeCentroid(c *PersonCluster, emb []float32) {
	n := float32(c.Size)
	for i := range c.Centroid {
		c.Centroid[i] = (c.Centroid[i]*n + emb[i]) / (n + 1)
	}
	c.Size++
}

// Clusters returns all clusters in creation order.
func (r *Run) Clusters() []*PersonCluster {
	return r.clusters
}

// Assignments returns per-image results in the order images were added.
func (r *Run) Assignments() []Assignment {
	return r.assignments
}

// Counts reports how many images fell into each bucket kind.
func (r *Run) Counts() (single, multiple, none int) {
	return r.singleCount, r.multiCount, r.noneCount
}

func containsID(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
