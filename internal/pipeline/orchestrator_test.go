package pipeline_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"vizart/internal/artifacts"
	"vizart/internal/config"
	"vizart/internal/engine"
	"vizart/internal/jobs"
	"vizart/internal/logging"
	"vizart/internal/pipeline"
	"vizart/internal/testsupport"
	"vizart/internal/vision"
)

type fixture struct {
	orch    *pipeline.Orchestrator
	store   *jobs.Store
	results *artifacts.ResultStore
	cfg     *config.Config
}

func newFixture(t *testing.T, mutate func(*pipeline.Options)) *fixture {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	pose := vision.NewPoseSession(vision.PoseOptions{})
	segmenter := vision.NewSegmentSession(240)
	eng := engine.New(pose, segmenter, engine.Options{
		SegmentationConfidence: cfg.Vision.SegmentationConfidence,
	})
	uploads := artifacts.NewUploadStore(cfg.Paths.UploadDir, cfg.Processing.MaxUploadBytes)
	results := artifacts.NewResultStore(cfg.Paths.ResultsDir, cfg.Processing.JPEGQuality)

	opts := pipeline.Options{
		Store:             store,
		Engine:            eng,
		Uploads:           uploads,
		Results:           results,
		Logger:            logging.NewNop(),
		MaxConcurrentJobs: 2,
		JobTimeout:        30 * time.Second,
		ShutdownGrace:     5 * time.Second,
		PollInterval:      time.Hour,
	}
	if mutate != nil {
		mutate(&opts)
	}

	orch := pipeline.New(opts)
	t.Cleanup(orch.Close)
	return &fixture{orch: orch, store: store, results: results, cfg: cfg}
}

func (f *fixture) personImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.jpg")
	testsupport.WritePersonImage(t, path, 200, 300)
	return path
}

func (f *fixture) garmentImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "garment.jpg")
	testsupport.WriteGarmentImage(t, path, 100, 100)
	return path
}

func (f *fixture) blankImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "blank.jpg")
	testsupport.WriteBlankImage(t, path, 100, 100)
	return path
}

func waitForTerminal(t *testing.T, store *jobs.Store, id string) *jobs.Job {
	t.Helper()
	deadline := time.Now().Add(15 * time.Second)
	for time.Now().Before(deadline) {
		job, err := store.Get(context.Background(), id)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if job != nil && job.Status.IsTerminal() {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("job did not reach a terminal state in time")
	return nil
}

func artifactPath(t *testing.T, results *artifacts.ResultStore, url string) string {
	t.Helper()
	path, ok := results.PathForURL(url)
	if !ok {
		t.Fatalf("URL %q does not resolve to an artifact", url)
	}
	return path
}

func TestTryOnJobLifecycle(t *testing.T) {
	f := newFixture(t, nil)

	job, err := f.orch.SubmitTryOn(context.Background(), f.personImage(t), f.garmentImage(t), nil)
	if err != nil {
		t.Fatalf("SubmitTryOn failed: %v", err)
	}
	if job.Status != jobs.StatusPending {
		t.Fatalf("submission should return a pending job, got %s", job.Status)
	}
	if !strings.HasPrefix(job.ModelImagePath, f.cfg.Paths.UploadDir) {
		t.Fatalf("model upload not staged under upload dir: %s", job.ModelImagePath)
	}

	final := waitForTerminal(t, f.store, job.ID)
	if final.Status != jobs.StatusCompleted {
		t.Fatalf("expected completed, got %s (%s)", final.Status, final.ErrorMessage)
	}
	if final.Progress != 100 {
		t.Fatalf("expected progress 100, got %f", final.Progress)
	}
	if final.CompletedAt == nil {
		t.Fatal("expected completed_at")
	}
	if final.ProcessingTime < 0 {
		t.Fatalf("expected non-negative processing time, got %f", final.ProcessingTime)
	}

	result, err := final.Result()
	if err != nil {
		t.Fatalf("Result failed: %v", err)
	}
	url, _ := result["result_image_url"].(string)
	if url == "" {
		t.Fatalf("missing result_image_url: %#v", result)
	}
	if _, err := os.Stat(artifactPath(t, f.results, url)); err != nil {
		t.Fatalf("result artifact missing: %v", err)
	}

	info, _ := result["processing_info"].(map[string]any)
	if info == nil {
		t.Fatalf("missing processing_info: %#v", result)
	}
	if info["model_detected"] != true {
		t.Fatalf("expected model_detected=true, got %#v", info)
	}
	if info["garment_type"] != "upper" {
		t.Fatalf("expected default garment_type upper, got %#v", info)
	}
	if info["preserve_background"] != false {
		t.Fatalf("expected preserve_background=false, got %#v", info)
	}
}

func TestTryOffJobLifecycle(t *testing.T) {
	f := newFixture(t, nil)

	job, err := f.orch.SubmitTryOff(context.Background(), f.personImage(t), nil)
	if err != nil {
		t.Fatalf("SubmitTryOff failed: %v", err)
	}

	final := waitForTerminal(t, f.store, job.ID)
	if final.Status != jobs.StatusCompleted {
		t.Fatalf("expected completed, got %s (%s)", final.Status, final.ErrorMessage)
	}

	result, err := final.Result()
	if err != nil {
		t.Fatalf("Result failed: %v", err)
	}
	extracted, _ := result["extracted_garments"].([]any)
	if len(extracted) != 3 {
		t.Fatalf("expected 3 extracted garments, got %#v", result)
	}
	for _, entry := range extracted {
		garment, _ := entry.(map[string]any)
		if garment == nil {
			t.Fatalf("malformed garment entry: %#v", entry)
		}
		imageURL, _ := garment["image_url"].(string)
		maskURL, _ := garment["mask_url"].(string)
		if _, err := os.Stat(artifactPath(t, f.results, imageURL)); err != nil {
			t.Fatalf("garment artifact missing: %v", err)
		}
		if _, err := os.Stat(artifactPath(t, f.results, maskURL)); err != nil {
			t.Fatalf("mask artifact missing: %v", err)
		}
		confidence, _ := garment["confidence"].(float64)
		if confidence <= 0 {
			t.Fatalf("expected positive confidence, got %#v", garment)
		}
	}

	info, _ := result["processing_info"].(map[string]any)
	if total, _ := info["total_garments"].(float64); total != 3 {
		t.Fatalf("expected total_garments 3, got %#v", info)
	}
}

func TestFailedRunRecordsError(t *testing.T) {
	f := newFixture(t, nil)

	job, err := f.orch.SubmitTryOff(context.Background(), f.blankImage(t), nil)
	if err != nil {
		t.Fatalf("SubmitTryOff failed: %v", err)
	}

	final := waitForTerminal(t, f.store, job.ID)
	if final.Status != jobs.StatusFailed {
		t.Fatalf("expected failed, got %s", final.Status)
	}
	if final.ErrorMessage == "" {
		t.Fatal("expected error_message on failed job")
	}
	if !strings.Contains(final.ErrorMessage, "no human pose detected") {
		t.Fatalf("unexpected error message %q", final.ErrorMessage)
	}
	if final.Progress != 0 {
		t.Fatalf("expected progress reset to 0, got %f", final.Progress)
	}
	if final.CompletedAt == nil {
		t.Fatal("expected completed_at on failed job")
	}
}

func TestSubmitValidation(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	if _, err := f.orch.SubmitTryOn(ctx, f.personImage(t), "", nil); !errors.Is(err, pipeline.ErrValidation) {
		t.Fatalf("expected ErrValidation for missing garment, got %v", err)
	}
	if _, err := f.orch.SubmitTryOn(ctx, f.personImage(t), f.garmentImage(t), map[string]any{"garment_type": "hat"}); !errors.Is(err, pipeline.ErrValidation) {
		t.Fatalf("expected ErrValidation for bad options, got %v", err)
	}
	if _, err := f.orch.SubmitTryOff(ctx, filepath.Join(t.TempDir(), "missing.jpg"), nil); !errors.Is(err, pipeline.ErrValidation) {
		t.Fatalf("expected ErrValidation for unreadable input, got %v", err)
	}
}

func TestCancelPolicy(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	job := testsupport.NewJob(t, f.store, jobs.TypeTryOn, f.personImage(t), f.garmentImage(t), nil)

	cancelled, err := f.orch.Cancel(ctx, job.ID)
	if err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if cancelled.Status != jobs.StatusCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}

	if _, err := f.orch.Cancel(ctx, job.ID); !errors.Is(err, pipeline.ErrConflict) {
		t.Fatalf("expected ErrConflict on second cancel, got %v", err)
	}
	if _, err := f.orch.Cancel(ctx, "missing"); !errors.Is(err, pipeline.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestJobTimeout(t *testing.T) {
	f := newFixture(t, func(opts *pipeline.Options) {
		opts.JobTimeout = time.Nanosecond
	})

	job, err := f.orch.SubmitTryOn(context.Background(), f.personImage(t), f.garmentImage(t), nil)
	if err != nil {
		t.Fatalf("SubmitTryOn failed: %v", err)
	}

	final := waitForTerminal(t, f.store, job.ID)
	if final.Status != jobs.StatusFailed {
		t.Fatalf("expected failed, got %s", final.Status)
	}
	if !strings.Contains(final.ErrorMessage, "timeout") {
		t.Fatalf("expected timeout error, got %q", final.ErrorMessage)
	}
	if final.Progress != 0 {
		t.Fatalf("expected progress reset, got %f", final.Progress)
	}
}

type deadlineWatchSink struct {
	inner pipeline.Sink

	mu          sync.Mutex
	reported    bool
	sawDeadline bool
}

func (d *deadlineWatchSink) Report(ctx context.Context, jobID string, progress float64, message string) {
	d.mu.Lock()
	d.reported = true
	if _, ok := ctx.Deadline(); ok {
		d.sawDeadline = true
	}
	d.mu.Unlock()
	d.inner.Report(ctx, jobID, progress, message)
}

func TestZeroJobTimeoutDisablesDeadline(t *testing.T) {
	var sink *deadlineWatchSink
	f := newFixture(t, func(opts *pipeline.Options) {
		sink = &deadlineWatchSink{inner: pipeline.NewStoreSink(opts.Store, logging.NewNop())}
		opts.Sink = sink
		opts.JobTimeout = 0
	})

	job, err := f.orch.SubmitTryOn(context.Background(), f.personImage(t), f.garmentImage(t), nil)
	if err != nil {
		t.Fatalf("SubmitTryOn failed: %v", err)
	}

	final := waitForTerminal(t, f.store, job.ID)
	if final.Status != jobs.StatusCompleted {
		t.Fatalf("expected completed, got %s (%s)", final.Status, final.ErrorMessage)
	}
	sink.mu.Lock()
	defer sink.mu.Unlock()
	if !sink.reported {
		t.Fatal("expected at least one progress report")
	}
	if sink.sawDeadline {
		t.Fatal("run context should carry no deadline when the timeout is zero")
	}
}

func TestStartupRecovery(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	stuck := testsupport.NewJob(t, f.store, jobs.TypeTryOn, f.personImage(t), f.garmentImage(t), nil)
	if _, err := f.store.Update(ctx, stuck.ID, jobs.Patch{Status: jobs.StatusProcessing, Progress: 40}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if err := f.orch.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	recovered, err := f.store.Get(ctx, stuck.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if recovered.Status != jobs.StatusFailed {
		t.Fatalf("expected failed after recovery, got %s", recovered.Status)
	}
	if !strings.Contains(recovered.ErrorMessage, "interrupted") {
		t.Fatalf("unexpected recovery message %q", recovered.ErrorMessage)
	}
}

func TestPollerSchedulesStoreCreatedJobs(t *testing.T) {
	f := newFixture(t, func(opts *pipeline.Options) {
		opts.PollInterval = 10 * time.Millisecond
	})
	ctx := context.Background()

	if err := f.orch.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	job := testsupport.NewJob(t, f.store, jobs.TypeTryOff, f.personImage(t), "", nil)

	final := waitForTerminal(t, f.store, job.ID)
	if final.Status != jobs.StatusCompleted {
		t.Fatalf("expected completed via poller, got %s (%s)", final.Status, final.ErrorMessage)
	}
}

func TestListPagination(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		testsupport.NewJob(t, f.store, jobs.TypeTryOn, f.personImage(t), f.garmentImage(t), nil)
	}

	page, err := f.orch.List(ctx, jobs.Filter{}, 2, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(page.Jobs) != 2 || page.Total != 3 || !page.HasMore {
		t.Fatalf("unexpected first page: %d jobs, total %d, has_more %t", len(page.Jobs), page.Total, page.HasMore)
	}

	page, err = f.orch.List(ctx, jobs.Filter{}, 2, 2)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(page.Jobs) != 1 || page.HasMore {
		t.Fatalf("unexpected last page: %d jobs, has_more %t", len(page.Jobs), page.HasMore)
	}
}

func TestCleanupRemovesJobAndArtifacts(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	job, err := f.orch.SubmitTryOn(ctx, f.personImage(t), f.garmentImage(t), nil)
	if err != nil {
		t.Fatalf("SubmitTryOn failed: %v", err)
	}
	final := waitForTerminal(t, f.store, job.ID)
	if final.Status != jobs.StatusCompleted {
		t.Fatalf("expected completed, got %s (%s)", final.Status, final.ErrorMessage)
	}

	result, err := final.Result()
	if err != nil {
		t.Fatalf("Result failed: %v", err)
	}
	url, _ := result["result_image_url"].(string)
	resultPath := artifactPath(t, f.results, url)

	if err := f.orch.Cleanup(ctx, job.ID); err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}
	if _, err := os.Stat(resultPath); !os.IsNotExist(err) {
		t.Fatal("result artifact should be deleted")
	}
	if _, err := os.Stat(final.ModelImagePath); !os.IsNotExist(err) {
		t.Fatal("staged model input should be deleted")
	}
	if _, err := f.orch.Get(ctx, job.ID); !errors.Is(err, pipeline.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after cleanup, got %v", err)
	}
}

func TestCleanupRefusesProcessingJob(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	job := testsupport.NewJob(t, f.store, jobs.TypeTryOn, f.personImage(t), f.garmentImage(t), nil)
	if _, err := f.store.Update(ctx, job.ID, jobs.Patch{Status: jobs.StatusProcessing, Progress: 10}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if err := f.orch.Cleanup(ctx, job.ID); !errors.Is(err, pipeline.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestGeneratePreview(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	if _, err := f.orch.GeneratePreview(ctx, jobs.TypeTryOn, f.personImage(t), ""); !errors.Is(err, pipeline.ErrValidation) {
		t.Fatalf("expected ErrValidation for try-on preview without garment, got %v", err)
	}

	preview, err := f.orch.GeneratePreview(ctx, jobs.TypeTryOn, f.personImage(t), f.garmentImage(t))
	if err != nil {
		t.Fatalf("GeneratePreview failed: %v", err)
	}
	if _, err := os.Stat(artifactPath(t, f.results, preview.URL)); err != nil {
		t.Fatalf("preview artifact missing: %v", err)
	}
	if preview.Estimate == "" {
		t.Fatal("expected a processing estimate")
	}

	preview, err = f.orch.GeneratePreview(ctx, jobs.TypeTryOff, f.personImage(t), "")
	if err != nil {
		t.Fatalf("GeneratePreview failed: %v", err)
	}
	if _, err := os.Stat(artifactPath(t, f.results, preview.URL)); err != nil {
		t.Fatalf("preview artifact missing: %v", err)
	}
}

type recordingSink struct {
	inner pipeline.Sink

	mu       sync.Mutex
	progress []float64
}

func (r *recordingSink) Report(ctx context.Context, jobID string, progress float64, message string) {
	r.mu.Lock()
	r.progress = append(r.progress, progress)
	r.mu.Unlock()
	r.inner.Report(ctx, jobID, progress, message)
}

func TestProgressReportsAreMonotonic(t *testing.T) {
	var sink *recordingSink
	f := newFixture(t, func(opts *pipeline.Options) {
		sink = &recordingSink{inner: pipeline.NewStoreSink(opts.Store, logging.NewNop())}
		opts.Sink = sink
	})

	job, err := f.orch.SubmitTryOn(context.Background(), f.personImage(t), f.garmentImage(t), nil)
	if err != nil {
		t.Fatalf("SubmitTryOn failed: %v", err)
	}
	final := waitForTerminal(t, f.store, job.ID)
	if final.Status != jobs.StatusCompleted {
		t.Fatalf("expected completed, got %s (%s)", final.Status, final.ErrorMessage)
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.progress) == 0 {
		t.Fatal("expected progress reports")
	}
	for i := 1; i < len(sink.progress); i++ {
		if sink.progress[i] < sink.progress[i-1] {
			t.Fatalf("progress went backwards: %v", sink.progress)
		}
	}
	if last := sink.progress[len(sink.progress)-1]; last > 100 {
		t.Fatalf("progress exceeded 100: %f", last)
	}
}

func TestAvailableModels(t *testing.T) {
	f := newFixture(t, nil)
	info := f.orch.AvailableModels()
	if info.TryOn.Status != "available" {
		t.Fatalf("unexpected try-on capability: %#v", info.TryOn)
	}
	if info.PoseDetection.Model == "" {
		t.Fatal("expected pose detection model name")
	}
}
