package handlers

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/photo-dedup/internal/config"
	"github.com/kozaktomas/photo-dedup/internal/engine"
)

func newTestEngine() *engine.Engine {
	cfg := &config.Config{
		Engine:   config.EngineConfig{Workers: 2},
		Defaults: config.LoadDefaults(),
	}
	return engine.New(cfg, nil)
}

func writeSolidJPEG(t *testing.T, path string, c color.RGBA) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 48, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 48; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

func postJSON(t *testing.T, handler http.HandlerFunc, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(data))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestHealthCheck(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()
	HealthCheck(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %q", body["status"])
	}
}

func TestFindDuplicates(t *testing.T) {
	dir := t.TempDir()
	writeSolidJPEG(t, filepath.Join(dir, "a.jpg"), color.RGBA{R: 200, A: 255})
	dup, err := os.ReadFile(filepath.Join(dir, "a.jpg"))
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "b.jpg"), dup, 0o644); err != nil {
		t.Fatal(err)
	}

	h := NewDuplicatesHandler(newTestEngine())
	rec := postJSON(t, h.Find, "/api/v1/duplicates", map[string]any{
		"source_dirs": []string{dir},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var result engine.DuplicatesResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if result.TotalImages != 2 {
		t.Errorf("expected 2 total images, got %d", result.TotalImages)
	}
	if len(result.DuplicateGroups) != 1 {
		t.Errorf("expected 1 group, got %d", len(result.DuplicateGroups))
	}
}

func TestFindDuplicatesInvalidBody(t *testing.T) {
	h := NewDuplicatesHandler(newTestEngine())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/duplicates", strings.NewReader("{nope"))
	rec := httptest.NewRecorder()
	h.Find(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestFindDuplicatesMissingSources(t *testing.T) {
	h := NewDuplicatesHandler(newTestEngine())
	rec := postJSON(t, h.Find, "/api/v1/duplicates", map[string]any{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestFindDuplicatesInvalidThreshold(t *testing.T) {
	h := NewDuplicatesHandler(newTestEngine())
	rec := postJSON(t, h.Find, "/api/v1/duplicates", map[string]any{
		"source_dirs":    []string{t.TempDir()},
		"hash_threshold": 100,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad threshold, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestApplyInvalidAction(t *testing.T) {
	h := NewDuplicatesHandler(newTestEngine())
	rec := postJSON(t, h.Apply, "/api/v1/duplicates/apply", map[string]any{
		"source_dirs": []string{t.TempDir()},
		"action":      "shred",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestApplyDelete(t *testing.T) {
	dir := t.TempDir()
	writeSolidJPEG(t, filepath.Join(dir, "a.jpg"), color.RGBA{G: 120, A: 255})
	dup, err := os.ReadFile(filepath.Join(dir, "a.jpg"))
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "b.jpg"), dup, 0o644); err != nil {
		t.Fatal(err)
	}

	h := NewDuplicatesHandler(newTestEngine())
	rec := postJSON(t, h.Apply, "/api/v1/duplicates/apply", map[string]any{
		"source_dirs": []string{dir},
		"action":      "delete",
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var result engine.ApplyResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if result.Action != "delete" || result.Count != 1 {
		t.Errorf("expected 1 delete, got %+v", result)
	}
	if _, err := os.Stat(filepath.Join(dir, "b.jpg")); !os.IsNotExist(err) {
		t.Errorf("duplicate should be gone")
	}
}

func TestOrganizeMissingOutput(t *testing.T) {
	h := NewOrganizeHandler(newTestEngine())
	rec := postJSON(t, h.Organize, "/api/v1/organize", map[string]any{
		"source_dirs": []string{t.TempDir()},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestOrganizeInvalidDetector(t *testing.T) {
	h := NewOrganizeHandler(newTestEngine())
	rec := postJSON(t, h.Organize, "/api/v1/organize", map[string]any{
		"source_dirs": []string{t.TempDir()},
		"output_dir":  t.TempDir(),
		"detector":    "psychic",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func newJobsRouter(t *testing.T) (*chi.Mux, *JobManager) {
	t.Helper()
	manager := NewJobManager()
	h := NewJobsHandler(newTestEngine(), manager)
	r := chi.NewRouter()
	r.Post("/api/v1/jobs", h.Create)
	r.Get("/api/v1/jobs", h.List)
	r.Get("/api/v1/jobs/{id}", h.Get)
	r.Delete("/api/v1/jobs/{id}", h.Delete)
	return r, manager
}

func TestJobLifecycle(t *testing.T) {
	router, _ := newJobsRouter(t)

	body, _ := json.Marshal(map[string]any{
		"kind":        "duplicates",
		"source_dirs": []string{t.TempDir()},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	var created struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.ID == "" {
		t.Fatal("expected a job ID")
	}

	// Poll until the run on the empty directory finishes.
	deadline := time.Now().Add(5 * time.Second)
	var status string
	for time.Now().Before(deadline) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+created.ID, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var view struct {
			Status string `json:"status"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
			t.Fatal(err)
		}
		status = view.Status
		if status == "completed" || status == "failed" {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if status != "completed" {
		t.Fatalf("expected completed job, got %q", status)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/jobs", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	var list []json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Errorf("expected 1 job listed, got %d", len(list))
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/jobs/"+created.ID, nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 on delete, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+created.ID, nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestCreateJobUnknownKind(t *testing.T) {
	router, _ := newJobsRouter(t)
	body, _ := json.Marshal(map[string]any{
		"kind":        "levitate",
		"source_dirs": []string{t.TempDir()},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestDeleteUnknownJob(t *testing.T) {
	router, _ := newJobsRouter(t)
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/jobs/nope", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}
