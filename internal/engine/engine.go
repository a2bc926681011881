package engine

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/schollz/progressbar/v3"

	"github.com/kozaktomas/photo-dedup/internal/cluster"
	"github.com/kozaktomas/photo-dedup/internal/config"
	"github.com/kozaktomas/photo-dedup/internal/dedup"
	"github.com/kozaktomas/photo-dedup/internal/faces"
	"github.com/kozaktomas/photo-dedup/internal/planner"
	"github.com/kozaktomas/photo-dedup/internal/scanner"
)

// DetectorFactory builds a face detector for the requested mode. Each run
// picks its own mode, so the engine holds the factory rather than a single
// client.
type DetectorFactory func(mode faces.Mode) faces.Detector

// Engine ties the pipeline stages together. One Engine serves many runs;
// all per-run state lives in the run itself.
type Engine struct {
	cfg       *config.Config
	detectors DetectorFactory
}

func New(cfg *config.Config, detectors DetectorFactory) *Engine {
	return &Engine{
		cfg:       cfg,
		detectors: detectors,
	}
}

// resolveThresholds fills zero values from the embedded defaults and
// validates the result. Validation happens before any filesystem work.
func (e *Engine) resolveThresholds(t Thresholds) (Thresholds, error) {
	d := e.cfg.Defaults.Thresholds
	if t.Hash == 0 {
		t.Hash = d.Hash
	}
	if t.Similarity == 0 {
		t.Similarity = d.Similarity
	}
	if t.Tolerance == 0 {
		t.Tolerance = d.Tolerance
	}

	if t.Hash < 0 || t.Hash > 64 {
		return t, &InvalidThresholdError{Name: "hash_threshold", Value: float64(t.Hash), Reason: "must be between 0 and 64"}
	}
	if t.Similarity <= 0 || t.Similarity > 1 {
		return t, &InvalidThresholdError{Name: "similarity_threshold", Value: t.Similarity, Reason: "must be in (0, 1]"}
	}
	if t.Tolerance <= 0 {
		return t, &InvalidThresholdError{Name: "tolerance", Value: t.Tolerance, Reason: "must be positive"}
	}
	return t, nil
}

func (e *Engine) workers(opts Options) int {
	if opts.Workers > 0 {
		return opts.Workers
	}
	if e.cfg.Engine.Workers > 0 {
		return e.cfg.Engine.Workers
	}
	return 8
}

// minAgree converts the similarity threshold into the number of hash
// algorithms (out of three) that must agree.
func minAgree(similarity float64) int {
	n := int(math.Ceil(similarity * 3))
	if n < 1 {
		n = 1
	}
	if n > 3 {
		n = 3
	}
	return n
}

// FindDuplicates scans the source directories and reports duplicate
// groups without touching any file.
func (e *Engine) FindDuplicates(ctx context.Context, opts Options) (*DuplicatesResult, error) {
	thresholds, err := e.resolveThresholds(opts.Thresholds)
	if err != nil {
		return nil, err
	}

	records, scanErrs, err := e.scan(ctx, opts, nil)
	if err != nil {
		return nil, err
	}

	groups := dedup.BuildGroups(records, dedup.Options{
		HashThreshold: thresholds.Hash,
		MinAgree:      minAgree(thresholds.Similarity),
	})
	byPath := recordIndex(records)
	dedup.Rank(groups, byPath)

	result := &DuplicatesResult{
		TotalImages:     len(records),
		DuplicateGroups: groups,
		SpaceSaved:      dedup.SpaceSaved(groups, byPath),
		Errors:          scanErrs,
	}
	for _, g := range groups {
		result.DuplicatesFound += len(g.DeletePaths)
	}
	return result, nil
}

// ApplyDuplicateAction finds duplicates and then disposes of the losing
// files, either quarantining them under _duplicates or deleting them.
func (e *Engine) ApplyDuplicateAction(ctx context.Context, opts Options, action planner.Action) (*ApplyResult, error) {
	found, err := e.FindDuplicates(ctx, opts)
	if err != nil {
		return nil, err
	}

	summary, err := planner.PlanDuplicates(found.DuplicateGroups, nil, action, opts.SourceDirs)
	if err != nil {
		return nil, err
	}
	summary.SpaceSavedBytes = found.SpaceSaved

	res := planner.Execute(ctx, summary)
	result := &ApplyResult{
		Action:     string(action),
		Count:      res.Completed,
		SpaceSaved: found.SpaceSaved,
		Errors:     found.Errors,
	}
	for _, fe := range res.Errors {
		result.Errors = append(result.Errors, fe.Error())
	}
	return result, nil
}

// OrganizeByPerson clusters faces across the source directories and
// copies every image into a bucket folder under outputRoot.
func (e *Engine) OrganizeByPerson(ctx context.Context, opts Options, outputRoot string) (*OrganizeResult, error) {
	thresholds, err := e.resolveThresholds(opts.Thresholds)
	if err != nil {
		return nil, err
	}
	if e.detectors == nil {
		return nil, fmt.Errorf("no face engine configured")
	}
	mode := opts.Detector
	if mode == "" {
		mode = faces.ModeAccurate
	}

	records, scanErrs, err := e.scan(ctx, opts, e.detectors(mode))
	if err != nil {
		return nil, err
	}

	run := cluster.NewRun(thresholds.Tolerance)
	facesDetected := 0
	for _, rec := range records {
		run.AddImage(rec.Path, rec.FaceEmbeddings)
		facesDetected += len(rec.FaceEmbeddings)
	}
	if opts.Refine {
		run.Refine()
	}

	summary := planner.PlanPersons(run.Assignments(), outputRoot)
	res := planner.Execute(ctx, summary)

	_, multi, none := run.Counts()
	result := &OrganizeResult{
		ImagesProcessed: res.Completed,
		PersonFolders:   len(run.Clusters()),
		FacesDetected:   facesDetected,
		MultiplePersons: multi,
		NoFaces:         none,
		Errors:          scanErrs,
	}
	for _, fe := range res.Errors {
		result.Errors = append(result.Errors, fe.Error())
	}
	return result, nil
}

// scanResult carries one image through the worker pool, indexed so the
// output keeps the deterministic path order.
type scanResult struct {
	index  int
	record *scanner.ImageRecord
	err    error
}

// scan lists and processes all images concurrently. Records come back in
// ascending path order with unreadable images dropped into the error
// list. With a non-nil detector, each image is also sent to the face
// engine; a detection failure keeps the image (with no embeddings) and
// records the error.
func (e *Engine) scan(ctx context.Context, opts Options, detector faces.Detector) ([]*scanner.ImageRecord, []string, error) {
	entries, err := scanner.ListImages(opts.SourceDirs, e.cfg.Defaults)
	if err != nil {
		return nil, nil, err
	}

	var bar *progressbar.ProgressBar
	if opts.ShowProgress {
		bar = newProgressBar(len(entries), e.workers(opts))
	}

	resultsChan := make(chan scanResult, len(entries))
	semaphore := make(chan struct{}, e.workers(opts))
	var wg sync.WaitGroup

	for i := range entries {
		wg.Add(1)
		go func(idx int, entry scanner.FileEntry) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			if bar != nil {
				defer bar.Add(1)
			}

			if ctx.Err() != nil {
				resultsChan <- scanResult{index: idx, err: ctx.Err()}
				return
			}

			rec, err := scanner.Extract(entry)
			if err != nil {
				resultsChan <- scanResult{index: idx, err: fmt.Errorf("failed to process %s: %w", entry.Path, err)}
				return
			}

			if detector != nil {
				data, err := scanner.ReadBytes(entry.Path)
				if err != nil {
					resultsChan <- scanResult{index: idx, err: fmt.Errorf("failed to read %s: %w", entry.Path, err)}
					return
				}
				detections, err := detector.Detect(ctx, data)
				if err != nil {
					// Keep the image; it still lands in the
					// no-person bucket.
					resultsChan <- scanResult{
						index:  idx,
						record: rec,
						err:    fmt.Errorf("face detection failed for %s: %w", entry.Path, err),
					}
					return
				}
				for _, d := range detections {
					rec.FaceEmbeddings = append(rec.FaceEmbeddings, d.Embedding)
				}
			}

			resultsChan <- scanResult{index: idx, record: rec}
		}(i, entries[i])
	}

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	indexed := make([]*scanResult, len(entries))
	for r := range resultsChan {
		r := r
		indexed[r.index] = &r
	}
	if bar != nil {
		fmt.Println() // New line after progress bar
	}

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	var records []*scanner.ImageRecord
	var errs []string
	for _, r := range indexed {
		if r == nil {
			continue
		}
		if r.err != nil {
			errs = append(errs, r.err.Error())
		}
		if r.record != nil {
			records = append(records, r.record)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Path < records[j].Path })
	return records, errs, nil
}

func recordIndex(records []*scanner.ImageRecord) map[string]*scanner.ImageRecord {
	byPath := make(map[string]*scanner.ImageRecord, len(records))
	for _, rec := range records {
		byPath[rec.Path] = rec
	}
	return byPath
}

func newProgressBar(total, workers int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(fmt.Sprintf("Processing images (%d workers)", workers)),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("images"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
