package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"vizart/internal/artifacts"
	"vizart/internal/config"
	"vizart/internal/engine"
	"vizart/internal/jobs"
	"vizart/internal/logging"
)

// Orchestrator coordinates job submission, background execution, and job
// lifecycle operations. Submissions return as soon as the job record exists;
// the actual processing runs on a bounded worker pool.
type Orchestrator struct {
	store   *jobs.Store
	engine  *engine.Engine
	uploads *artifacts.UploadStore
	results *artifacts.ResultStore
	sink    Sink
	pool    *workerPool
	logger  *slog.Logger

	timeout      time.Duration
	grace        time.Duration
	pollInterval time.Duration

	baseCtx    context.Context
	baseCancel context.CancelFunc
	pollCtx    context.Context
	pollCancel context.CancelFunc
}

// Options wires the orchestrator's collaborators.
type Options struct {
	Store   *jobs.Store
	Engine  *engine.Engine
	Uploads *artifacts.UploadStore
	Results *artifacts.ResultStore
	Sink    Sink
	Logger  *slog.Logger

	MaxConcurrentJobs int
	// JobTimeout bounds each background run. Zero disables the deadline.
	JobTimeout    time.Duration
	ShutdownGrace time.Duration
	PollInterval  time.Duration
}

// New constructs an orchestrator. Call Start before submitting work and Close
// on shutdown.
func New(opts Options) *Orchestrator {
	if opts.JobTimeout < 0 {
		opts.JobTimeout = 0
	}
	if opts.ShutdownGrace <= 0 {
		opts.ShutdownGrace = 10 * time.Second
	}
	logger := logging.NewComponentLogger(opts.Logger, "orchestrator")
	sink := opts.Sink
	if sink == nil {
		sink = NewStoreSink(opts.Store, opts.Logger)
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 2 * time.Second
	}
	baseCtx, baseCancel := context.WithCancel(context.Background())
	pollCtx, pollCancel := context.WithCancel(baseCtx)
	return &Orchestrator{
		store:        opts.Store,
		engine:       opts.Engine,
		uploads:      opts.Uploads,
		results:      opts.Results,
		sink:         sink,
		pool:         newWorkerPool(opts.MaxConcurrentJobs),
		logger:       logger,
		timeout:      opts.JobTimeout,
		grace:        opts.ShutdownGrace,
		pollInterval: opts.PollInterval,
		baseCtx:      baseCtx,
		baseCancel:   baseCancel,
		pollCtx:      pollCtx,
		pollCancel:   pollCancel,
	}
}

// NewFromConfig builds an orchestrator with store-backed progress reporting
// using the configured concurrency and timeout values.
func NewFromConfig(cfg *config.Config, store *jobs.Store, eng *engine.Engine, uploads *artifacts.UploadStore, results *artifacts.ResultStore, logger *slog.Logger) *Orchestrator {
	return New(Options{
		Store:             store,
		Engine:            eng,
		Uploads:           uploads,
		Results:           results,
		Logger:            logger,
		MaxConcurrentJobs: cfg.Processing.MaxConcurrentJobs,
		JobTimeout:        time.Duration(cfg.Processing.JobTimeoutSeconds) * time.Second,
		ShutdownGrace:     time.Duration(cfg.Processing.ShutdownGraceSeconds) * time.Second,
	})
}

// Start recovers jobs left in processing by a previous run and begins polling
// for pending jobs. Stuck jobs are failed rather than silently resumed, since
// their in-memory runs no longer exist.
func (o *Orchestrator) Start(ctx context.Context) error {
	count, err := o.store.ResetStuckProcessing(ctx, "Processing interrupted by service restart")
	if err != nil {
		return Wrap(ErrPersistence, "startup", "reset stuck jobs", err)
	}
	if count > 0 {
		o.logger.Warn("failed jobs stuck in processing from previous run",
			logging.String(logging.FieldEventType, "startup_recovery"),
			logging.Int64("count", count),
		)
	}
	go o.pollLoop(o.pollCtx)
	return nil
}

// pollLoop schedules pending jobs that were not submitted through this
// process, typically those created by the CLI while the daemon runs.
func (o *Orchestrator) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(o.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.schedulePending(ctx)
		}
	}
}

func (o *Orchestrator) schedulePending(ctx context.Context) {
	pending, err := o.store.List(ctx, jobs.Filter{Status: jobs.StatusPending}, 50, 0)
	if err != nil {
		o.logger.Warn("poll pending jobs failed", logging.Error(err))
		return
	}
	for _, job := range pending {
		o.schedule(job)
	}
}

// Close stops the pending-job poller and drains in-flight runs, waiting up to
// the shutdown grace period before cancelling whatever is still executing.
func (o *Orchestrator) Close() {
	o.pollCancel()
	if !o.pool.wait(o.grace) {
		o.logger.Warn("shutdown grace elapsed, cancelling remaining runs",
			logging.String(logging.FieldEventType, "shutdown_forced"),
		)
		o.baseCancel()
		o.pool.wait(5 * time.Second)
		return
	}
	o.baseCancel()
}

// SubmitTryOn validates options, stages both input images, creates a pending
// job, and schedules its background run. The returned job is the freshly
// created pending record.
func (o *Orchestrator) SubmitTryOn(ctx context.Context, modelSource, garmentSource string, options map[string]any) (*jobs.Job, error) {
	if garmentSource == "" {
		return nil, Wrap(ErrValidation, "submit", "garment image is required for try-on", nil)
	}
	if _, err := jobs.DecodeTryOnOptions(options); err != nil {
		return nil, Wrap(ErrValidation, "submit", "invalid try-on options", err)
	}

	modelPath, err := o.stageUpload(modelSource)
	if err != nil {
		return nil, err
	}
	garmentPath, err := o.stageUpload(garmentSource)
	if err != nil {
		return nil, err
	}

	job, err := o.store.Create(ctx, jobs.TypeTryOn, modelPath, garmentPath, options)
	if err != nil {
		return nil, Wrap(ErrPersistence, "submit", "create try-on job", err)
	}
	o.schedule(job)
	return job, nil
}

// SubmitTryOff validates options, stages the model image, creates a pending
// job, and schedules its background run.
func (o *Orchestrator) SubmitTryOff(ctx context.Context, modelSource string, options map[string]any) (*jobs.Job, error) {
	if _, err := jobs.DecodeTryOffOptions(options); err != nil {
		return nil, Wrap(ErrValidation, "submit", "invalid try-off options", err)
	}

	modelPath, err := o.stageUpload(modelSource)
	if err != nil {
		return nil, err
	}

	job, err := o.store.Create(ctx, jobs.TypeTryOff, modelPath, "", options)
	if err != nil {
		return nil, Wrap(ErrPersistence, "submit", "create try-off job", err)
	}
	o.schedule(job)
	return job, nil
}

func (o *Orchestrator) stageUpload(source string) (string, error) {
	f, err := os.Open(source)
	if err != nil {
		return "", Wrap(ErrValidation, "submit", fmt.Sprintf("open input image %s", source), err)
	}
	defer f.Close()

	path, err := o.uploads.Save(f, filepath.Base(source))
	if err != nil {
		return "", Wrap(ErrPersistence, "submit", "stage upload", err)
	}
	return path, nil
}

func (o *Orchestrator) schedule(job *jobs.Job) {
	launched := o.pool.launch(o.baseCtx, job.ID, func(ctx context.Context) {
		o.run(ctx, job)
	})
	if launched {
		o.logger.Info("job scheduled",
			logging.String(logging.FieldEventType, "job_scheduled"),
			logging.String(logging.FieldJobID, job.ID),
			logging.String(logging.FieldJobType, string(job.JobType)),
		)
	}
}

// Get returns the job snapshot for id.
func (o *Orchestrator) Get(ctx context.Context, id string) (*jobs.Job, error) {
	job, err := o.store.Get(ctx, id)
	if err != nil {
		return nil, Wrap(ErrPersistence, "lookup", id, err)
	}
	if job == nil {
		return nil, Wrap(ErrNotFound, "lookup", id, jobs.ErrNotFound)
	}
	return job, nil
}

// Page is one window of a filtered job listing.
type Page struct {
	Jobs    []*jobs.Job
	Total   int
	HasMore bool
}

// List returns a filtered, paginated job listing ordered newest first.
func (o *Orchestrator) List(ctx context.Context, filter jobs.Filter, limit, offset int) (Page, error) {
	items, err := o.store.List(ctx, filter, limit, offset)
	if err != nil {
		return Page{}, Wrap(ErrPersistence, "list", "query jobs", err)
	}
	total, err := o.store.Count(ctx, filter)
	if err != nil {
		return Page{}, Wrap(ErrPersistence, "list", "count jobs", err)
	}
	return Page{
		Jobs:    items,
		Total:   total,
		HasMore: offset+limit < total,
	}, nil
}

// Cancel marks the job cancelled and aborts its in-flight run if one exists.
// Jobs already in a terminal state are refused.
func (o *Orchestrator) Cancel(ctx context.Context, id string) (*jobs.Job, error) {
	job, err := o.store.Cancel(ctx, id)
	if errors.Is(err, jobs.ErrNotFound) {
		return nil, Wrap(ErrNotFound, "cancel", id, err)
	}
	if errors.Is(err, jobs.ErrTerminal) {
		return nil, Wrap(ErrConflict, "cancel", "job already finished", err)
	}
	if err != nil {
		return nil, Wrap(ErrPersistence, "cancel", id, err)
	}

	if o.pool.cancel(id) {
		o.logger.Info("in-flight run aborted",
			logging.String(logging.FieldEventType, "job_cancelled"),
			logging.String(logging.FieldJobID, id),
		)
	}
	return job, nil
}

// Cleanup deletes the job record, its staged inputs, and every result
// artifact it references. Jobs still processing must be cancelled first.
func (o *Orchestrator) Cleanup(ctx context.Context, id string) error {
	job, err := o.store.Get(ctx, id)
	if err != nil {
		return Wrap(ErrPersistence, "cleanup", id, err)
	}
	if job == nil {
		return Wrap(ErrNotFound, "cleanup", id, jobs.ErrNotFound)
	}
	if job.Status == jobs.StatusProcessing {
		return Wrap(ErrConflict, "cleanup", "job is still processing, cancel it first", nil)
	}

	if err := o.store.Cleanup(ctx, id, o.results.PathForURL); err != nil {
		if errors.Is(err, jobs.ErrNotFound) {
			return Wrap(ErrNotFound, "cleanup", id, err)
		}
		return Wrap(ErrPersistence, "cleanup", id, err)
	}
	o.logger.Info("job cleaned up",
		logging.String(logging.FieldEventType, "job_cleanup"),
		logging.String(logging.FieldJobID, id),
	)
	return nil
}

// Preview is the outcome of a synchronous preview render.
type Preview struct {
	URL      string
	Estimate string
}

// GeneratePreview renders a quick preview without creating a job. Try-on
// previews require a garment image.
func (o *Orchestrator) GeneratePreview(ctx context.Context, jobType jobs.Type, modelSource, garmentSource string) (Preview, error) {
	switch jobType {
	case jobs.TypeTryOn:
		if garmentSource == "" {
			return Preview{}, Wrap(ErrValidation, "preview", "garment image is required for try-on preview", nil)
		}
		preview, err := o.engine.PreviewTryOn(ctx, modelSource, garmentSource)
		if err != nil {
			return Preview{}, Wrap(ErrStage, "preview", "render try-on preview", err)
		}
		name, err := o.results.SavePreview(preview)
		if err != nil {
			return Preview{}, Wrap(ErrPersistence, "preview", "save preview", err)
		}
		return Preview{URL: o.results.URLFor(name), Estimate: "30-60 seconds"}, nil
	case jobs.TypeTryOff:
		preview, err := o.engine.PreviewTryOff(ctx, modelSource)
		if err != nil {
			return Preview{}, Wrap(ErrStage, "preview", "render try-off preview", err)
		}
		name, err := o.results.SavePreview(preview)
		if err != nil {
			return Preview{}, Wrap(ErrPersistence, "preview", "save preview", err)
		}
		return Preview{URL: o.results.URLFor(name), Estimate: "45-90 seconds"}, nil
	default:
		return Preview{}, Wrap(ErrValidation, "preview", fmt.Sprintf("unknown job type %q", jobType), nil)
	}
}

// AvailableModels reports the engine's capability descriptor.
func (o *Orchestrator) AvailableModels() engine.ModelInfo {
	return o.engine.ModelInfo()
}
