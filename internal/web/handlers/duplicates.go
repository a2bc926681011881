package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/kozaktomas/photo-dedup/internal/engine"
	"github.com/kozaktomas/photo-dedup/internal/planner"
)

// DuplicatesHandler serves duplicate discovery and disposal.
type DuplicatesHandler struct {
	engine *engine.Engine
}

func NewDuplicatesHandler(eng *engine.Engine) *DuplicatesHandler {
	return &DuplicatesHandler{engine: eng}
}

// Find handles POST /api/v1/duplicates. It reports duplicate groups
// without touching any file, so clients can review before applying.
func (h *DuplicatesHandler) Find(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if msg := req.validate(); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	result, err := h.engine.FindDuplicates(r.Context(), req.options())
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

type applyRequest struct {
	runRequest
	Action string `json:"action"`
}

// Apply handles POST /api/v1/duplicates/apply. It re-discovers duplicates
// and then moves or deletes the losing files.
func (h *DuplicatesHandler) Apply(w http.ResponseWriter, r *http.Request) {
	var req applyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if msg := req.validate(); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}
	action := planner.Action(req.Action)
	if action != planner.ActionMove && action != planner.ActionDelete {
		respondError(w, http.StatusBadRequest, "action must be \"move\" or \"delete\"")
		return
	}

	result, err := h.engine.ApplyDuplicateAction(r.Context(), req.options(), action)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}
