// Package engine orchestrates full runs: scan, fingerprint, detect faces,
// group, cluster, plan, and optionally execute. The HTTP handlers and the
// CLI commands are both thin wrappers over this package.
package engine

import (
	"fmt"

	"github.com/kozaktomas/photo-dedup/internal/dedup"
	"github.com/kozaktomas/photo-dedup/internal/faces"
)

// Thresholds are the per-run tunables. Zero values fall back to the
// embedded defaults.
type Thresholds struct {
	// Hash is the maximum Hamming distance at which a perceptual hash
	// still counts as a match. Valid range 0..64.
	Hash int `json:"hash_threshold"`
	// Similarity is the fraction of the three hash algorithms that must
	// agree before two images are considered duplicates. Valid range
	// (0, 1].
	Similarity float64 `json:"similarity_threshold"`
	// Tolerance is the maximum Euclidean distance at which a face
	// embedding joins an existing person cluster. Must be positive.
	Tolerance float64 `json:"tolerance"`
}

// InvalidThresholdError reports a threshold outside its valid range. Runs
// fail with it before any filesystem work starts.
type InvalidThresholdError struct {
	Name   string
	Value  float64
	Reason string
}

func (e *InvalidThresholdError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Name, e.Value, e.Reason)
}

// Options configures one engine run.
type Options struct {
	SourceDirs []string   `json:"source_dirs"`
	Thresholds Thresholds `json:"thresholds"`
	// Workers bounds concurrent image processing. Zero uses the
	// configured default.
	Workers int `json:"workers,omitempty"`
	// Detector picks the face engine model for organize runs.
	Detector faces.Mode `json:"detector,omitempty"`
	// Refine enables the offline cluster merge pass after the
	// incremental clustering finishes.
	Refine bool `json:"refine,omitempty"`
	// ShowProgress renders a terminal progress bar during scanning.
	ShowProgress bool `json:"-"`
}

// DuplicatesResult is the outcome of a find-duplicates run.
type DuplicatesResult struct {
	TotalImages     int           `json:"total_images"`
	DuplicateGroups []dedup.Group `json:"duplicate_groups"`
	DuplicatesFound int           `json:"duplicates_found"`
	SpaceSaved      int64         `json:"space_saved"`
	Errors          []string      `json:"errors,omitempty"`
}

// ApplyResult is the outcome of disposing of duplicates.
type ApplyResult struct {
	Action     string   `json:"action"`
	Count      int      `json:"count"`
	SpaceSaved int64    `json:"space_saved"`
	Errors     []string `json:"errors,omitempty"`
}

// OrganizeResult is the outcome of an organize-by-person run.
type OrganizeResult struct {
	ImagesProcessed int      `json:"images_processed"`
	PersonFolders   int      `json:"person_folders"`
	FacesDetected   int      `json:"faces_detected"`
	MultiplePersons int      `json:"multiple_persons"`
	NoFaces         int      `json:"no_faces"`
	Errors          []string `json:"errors,omitempty"`
}
