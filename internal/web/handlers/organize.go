package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/kozaktomas/photo-dedup/internal/engine"
	"github.com/kozaktomas/photo-dedup/internal/faces"
)

// OrganizeHandler serves organize-by-person runs.
type OrganizeHandler struct {
	engine *engine.Engine
}

func NewOrganizeHandler(eng *engine.Engine) *OrganizeHandler {
	return &OrganizeHandler{engine: eng}
}

type organizeRequest struct {
	runRequest
	OutputDir string `json:"output_dir"`
	Detector  string `json:"detector,omitempty"`
	Refine    bool   `json:"refine,omitempty"`
}

// Organize handles POST /api/v1/organize.
func (h *OrganizeHandler) Organize(w http.ResponseWriter, r *http.Request) {
	var req organizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if msg := req.validate(); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}
	if req.OutputDir == "" {
		respondError(w, http.StatusBadRequest, "output_dir must not be empty")
		return
	}
	mode := faces.Mode(req.Detector)
	switch mode {
	case "", faces.ModeAccurate, faces.ModeFast:
	default:
		respondError(w, http.StatusBadRequest, "detector must be \"accurate\" or \"fast\"")
		return
	}

	opts := req.options()
	opts.Detector = mode
	opts.Refine = req.Refine

	result, err := h.engine.OrganizeByPerson(r.Context(), opts, req.OutputDir)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}
