// Package handlers implements the HTTP API. Handlers decode requests,
// call the engine, and encode results; no pipeline logic lives here.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kozaktomas/photo-dedup/internal/engine"
)

// errInvalidRequestBody is a shared error message for invalid JSON request bodies.
const errInvalidRequestBody = "invalid request body"

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondEngineError maps engine failures onto HTTP statuses. Threshold
// validation problems are the caller's fault.
func respondEngineError(w http.ResponseWriter, err error) {
	var ite *engine.InvalidThresholdError
	if errors.As(err, &ite) {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondError(w, http.StatusInternalServerError, err.Error())
}

// runRequest is the common request shape for run-triggering endpoints.
type runRequest struct {
	SourceDirs          []string `json:"source_dirs"`
	HashThreshold       int      `json:"hash_threshold,omitempty"`
	SimilarityThreshold float64  `json:"similarity_threshold,omitempty"`
	Tolerance           float64  `json:"tolerance,omitempty"`
	Workers             int      `json:"workers,omitempty"`
}

func (r runRequest) options() engine.Options {
	return engine.Options{
		SourceDirs: r.SourceDirs,
		Thresholds: engine.Thresholds{
			Hash:       r.HashThreshold,
			Similarity: r.SimilarityThreshold,
			Tolerance:  r.Tolerance,
		},
		Workers: r.Workers,
	}
}

func (r runRequest) validate() string {
	if len(r.SourceDirs) == 0 {
		return "source_dirs must not be empty"
	}
	return ""
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
