package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kozaktomas/photo-dedup/internal/engine"
	"github.com/kozaktomas/photo-dedup/internal/faces"
	"github.com/kozaktomas/photo-dedup/internal/planner"
)

// JobStatus represents the status of an async job.
type JobStatus string

// JobStatus constants define the lifecycle states of an async job.
const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// JobKind selects which engine operation an async job runs.
type JobKind string

const (
	JobKindDuplicates JobKind = "duplicates"
	JobKindApply      JobKind = "duplicates_apply"
	JobKindOrganize   JobKind = "organize"
)

// Job is one async engine run. Long scans over big libraries do not fit a
// request/response cycle, so clients poll jobs instead.
type Job struct {
	ID          string
	Kind        JobKind
	Status      JobStatus
	StartedAt   time.Time
	CompletedAt *time.Time
	Error       string
	Result      any

	cancel context.CancelFunc
	mu     sync.RWMutex
}

// jobView is the JSON shape of a job, copied under lock so marshaling
// never races the worker goroutine.
type jobView struct {
	ID          string     `json:"id"`
	Kind        JobKind    `json:"kind"`
	Status      JobStatus  `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`
	Result      any        `json:"result,omitempty"`
}

func (j *Job) snapshot() jobView {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return jobView{
		ID:          j.ID,
		Kind:        j.Kind,
		Status:      j.Status,
		StartedAt:   j.StartedAt,
		CompletedAt: j.CompletedAt,
		Error:       j.Error,
		Result:      j.Result,
	}
}

// Cancel stops the job's context. Finished jobs keep their final status.
func (j *Job) Cancel() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.cancel != nil {
		j.cancel()
	}
	if j.Status == JobStatusPending || j.Status == JobStatusRunning {
		j.Status = JobStatusCancelled
		now := time.Now()
		j.CompletedAt = &now
	}
}

func (j *Job) finish(result any, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.Status == JobStatusCancelled {
		return
	}
	now := time.Now()
	j.CompletedAt = &now
	if err != nil {
		j.Status = JobStatusFailed
		j.Error = err.Error()
		return
	}
	j.Status = JobStatusCompleted
	j.Result = result
}

// JobManager manages async jobs.
type JobManager struct {
	jobs map[string]*Job
	mu   sync.RWMutex
}

// NewJobManager creates a new job manager.
func NewJobManager() *JobManager {
	return &JobManager{
		jobs: make(map[string]*Job),
	}
}

// CreateJob registers a pending job and returns it.
func (m *JobManager) CreateJob(kind JobKind) *Job {
	job := &Job{
		ID:        uuid.NewString(),
		Kind:      kind,
		Status:    JobStatusPending,
		StartedAt: time.Now(),
	}

	m.mu.Lock()
	m.jobs[job.ID] = job
	m.mu.Unlock()

	return job
}

// Run executes fn on a fresh goroutine with a cancellable context and
// records the outcome on the job.
func (m *JobManager) Run(job *Job, fn func(ctx context.Context) (any, error)) {
	ctx, cancel := context.WithCancel(context.Background())

	job.mu.Lock()
	job.cancel = cancel
	job.Status = JobStatusRunning
	job.mu.Unlock()

	go func() {
		defer cancel()
		result, err := fn(ctx)
		job.finish(result, err)
	}()
}

// GetJob retrieves a job by ID.
func (m *JobManager) GetJob(id string) *Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.jobs[id]
}

// DeleteJob removes a job, cancelling it first if still running.
func (m *JobManager) DeleteJob(id string) bool {
	m.mu.Lock()
	job := m.jobs[id]
	delete(m.jobs, id)
	m.mu.Unlock()

	if job == nil {
		return false
	}
	job.Cancel()
	return true
}

// ListJobs returns all jobs ordered by start time.
func (m *JobManager) ListJobs() []*Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	jobs := make([]*Job, 0, len(m.jobs))
	for _, job := range m.jobs {
		jobs = append(jobs, job)
	}
	sort.Slice(jobs, func(i, j int) bool {
		if jobs[i].StartedAt.Equal(jobs[j].StartedAt) {
			return jobs[i].ID < jobs[j].ID
		}
		return jobs[i].StartedAt.Before(jobs[j].StartedAt)
	})
	return jobs
}

// JobsHandler exposes the async job API.
type JobsHandler struct {
	engine  *engine.Engine
	manager *JobManager
}

func NewJobsHandler(eng *engine.Engine, manager *JobManager) *JobsHandler {
	return &JobsHandler{engine: eng, manager: manager}
}

type jobRequest struct {
	Kind JobKind `json:"kind"`
	runRequest
	Action    string `json:"action,omitempty"`
	OutputDir string `json:"output_dir,omitempty"`
	Detector  string `json:"detector,omitempty"`
	Refine    bool   `json:"refine,omitempty"`
}

// Create handles POST /api/v1/jobs. The run happens asynchronously;
// clients poll the returned job ID.
func (h *JobsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req jobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if msg := req.validate(); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	var fn func(ctx context.Context) (any, error)
	switch req.Kind {
	case JobKindDuplicates:
		opts := req.options()
		fn = func(ctx context.Context) (any, error) {
			return h.engine.FindDuplicates(ctx, opts)
		}
	case JobKindApply:
		action := planner.Action(req.Action)
		if action != planner.ActionMove && action != planner.ActionDelete {
			respondError(w, http.StatusBadRequest, "action must be \"move\" or \"delete\"")
			return
		}
		opts := req.options()
		fn = func(ctx context.Context) (any, error) {
			return h.engine.ApplyDuplicateAction(ctx, opts, action)
		}
	case JobKindOrganize:
		if req.OutputDir == "" {
			respondError(w, http.StatusBadRequest, "output_dir must not be empty")
			return
		}
		switch faces.Mode(req.Detector) {
		case "", faces.ModeAccurate, faces.ModeFast:
		default:
			respondError(w, http.StatusBadRequest, "detector must be \"accurate\" or \"fast\"")
			return
		}
		opts := req.options()
		opts.Detector = faces.Mode(req.Detector)
		opts.Refine = req.Refine
		outputDir := req.OutputDir
		fn = func(ctx context.Context) (any, error) {
			return h.engine.OrganizeByPerson(ctx, opts, outputDir)
		}
	default:
		respondError(w, http.StatusBadRequest, "unknown job kind")
		return
	}

	job := h.manager.CreateJob(req.Kind)
	h.manager.Run(job, fn)
	respondJSON(w, http.StatusAccepted, job.snapshot())
}

// List handles GET /api/v1/jobs.
func (h *JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	jobs := h.manager.ListJobs()
	views := make([]jobView, len(jobs))
	for i, job := range jobs {
		views[i] = job.snapshot()
	}
	respondJSON(w, http.StatusOK, views)
}

// Get handles GET /api/v1/jobs/{id}.
func (h *JobsHandler) Get(w http.ResponseWriter, r *http.Request) {
	job := h.manager.GetJob(chi.URLParam(r, "id"))
	if job == nil {
		respondError(w, http.StatusNotFound, "job not found")
		return
	}
	respondJSON(w, http.StatusOK, job.snapshot())
}

// Delete handles DELETE /api/v1/jobs/{id}. Running jobs get cancelled.
func (h *JobsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.manager.DeleteJob(chi.URLParam(r, "id")) {
		respondError(w, http.StatusNotFound, "job not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
