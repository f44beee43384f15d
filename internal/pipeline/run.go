package pipeline

import (
	"context"
	"errors"
	"time"

	"vizart/internal/jobs"
	"vizart/internal/logging"
	"vizart/internal/media"
)

// run executes one job to a terminal state. It never returns an error; every
// failure is absorbed into the job record.
func (o *Orchestrator) run(ctx context.Context, job *jobs.Job) {
	start := time.Now()
	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if o.timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, o.timeout)
	} else {
		runCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	var (
		result map[string]any
		err    error
	)
	switch job.JobType {
	case jobs.TypeTryOff:
		o.sink.Report(runCtx, job.ID, 10, "Starting garment extraction...")
		result, err = o.runTryOff(runCtx, job)
	default:
		o.sink.Report(runCtx, job.ID, 10, "Starting try-on processing...")
		result, err = o.runTryOn(runCtx, job)
	}

	elapsed := time.Since(start).Seconds()
	if err != nil {
		o.finishFailure(job, err, elapsed)
		return
	}
	o.finishSuccess(job, result, elapsed)
}

func (o *Orchestrator) runTryOn(ctx context.Context, job *jobs.Job) (map[string]any, error) {
	raw, err := job.RawOptions()
	if err != nil {
		return nil, Wrap(ErrStage, "try-on", "decode stored options", err)
	}
	opts, err := jobs.DecodeTryOnOptions(raw)
	if err != nil {
		return nil, Wrap(ErrStage, "try-on", "invalid stored options", err)
	}

	if err := o.checkpoint(ctx, job.ID, "try-on", 20, "Loading model image..."); err != nil {
		return nil, err
	}
	model, err := media.Load(job.ModelImagePath)
	if err != nil {
		return nil, Wrap(ErrStage, "try-on", "load model image", err)
	}

	if err := o.checkpoint(ctx, job.ID, "try-on", 30, "Detecting human pose..."); err != nil {
		return nil, err
	}
	pose, err := o.engine.DetectPose(ctx, model)
	if err != nil {
		return nil, Wrap(ErrStage, "try-on", "detect pose", err)
	}
	if !pose.Success {
		return nil, Wrap(ErrStage, "try-on", "no human pose detected in model image", nil)
	}

	if err := o.checkpoint(ctx, job.ID, "try-on", 40, "Loading garment image..."); err != nil {
		return nil, err
	}
	garment, err := media.Load(job.GarmentImagePath)
	if err != nil {
		return nil, Wrap(ErrStage, "try-on", "load garment image", err)
	}

	if err := o.checkpoint(ctx, job.ID, "try-on", 50, "Removing garment background..."); err != nil {
		return nil, err
	}
	mask, err := o.engine.RemoveBackground(ctx, job.GarmentImagePath)
	if err != nil {
		return nil, Wrap(ErrStage, "try-on", "remove garment background", err)
	}

	if err := o.checkpoint(ctx, job.ID, "try-on", 60, "Warping garment to pose..."); err != nil {
		return nil, err
	}
	warped, err := o.engine.WarpToPose(ctx, garment, mask, pose, opts)
	if err != nil {
		return nil, Wrap(ErrStage, "try-on", "warp garment", err)
	}

	if err := o.checkpoint(ctx, job.ID, "try-on", 75, "Blending with model..."); err != nil {
		return nil, err
	}
	composite, err := o.engine.Blend(ctx, model, warped, pose, opts)
	if err != nil {
		return nil, Wrap(ErrStage, "try-on", "blend garment with model", err)
	}

	if err := o.checkpoint(ctx, job.ID, "try-on", 85, "Saving result..."); err != nil {
		return nil, err
	}
	name, err := o.results.SaveResult(composite, job.ID)
	if err != nil {
		return nil, Wrap(ErrStage, "try-on", "save result image", err)
	}

	if err := o.checkpoint(ctx, job.ID, "try-on", 95, "Finalizing..."); err != nil {
		return nil, err
	}
	return map[string]any{
		"result_image_url": o.results.URLFor(name),
		"processing_info": map[string]any{
			"model_detected":      true,
			"pose_confidence":     pose.Confidence,
			"garment_type":        string(opts.GarmentType),
			"preserve_background": opts.PreserveBackground,
		},
	}, nil
}

func (o *Orchestrator) runTryOff(ctx context.Context, job *jobs.Job) (map[string]any, error) {
	raw, err := job.RawOptions()
	if err != nil {
		return nil, Wrap(ErrStage, "try-off", "decode stored options", err)
	}
	opts, err := jobs.DecodeTryOffOptions(raw)
	if err != nil {
		return nil, Wrap(ErrStage, "try-off", "invalid stored options", err)
	}

	if err := o.checkpoint(ctx, job.ID, "try-off", 20, "Loading model image..."); err != nil {
		return nil, err
	}
	model, err := media.Load(job.ModelImagePath)
	if err != nil {
		return nil, Wrap(ErrStage, "try-off", "load model image", err)
	}

	if err := o.checkpoint(ctx, job.ID, "try-off", 30, "Detecting human pose..."); err != nil {
		return nil, err
	}
	pose, err := o.engine.DetectPose(ctx, model)
	if err != nil {
		return nil, Wrap(ErrStage, "try-off", "detect pose", err)
	}
	if !pose.Success {
		return nil, Wrap(ErrStage, "try-off", "no human pose detected in model image", nil)
	}

	if err := o.checkpoint(ctx, job.ID, "try-off", 40, "Segmenting garments..."); err != nil {
		return nil, err
	}
	extractions, err := o.engine.ExtractGarments(ctx, model, pose, opts, func(garmentType jobs.GarmentType) {
		progress, message := extractionCheckpoint(garmentType)
		o.sink.Report(ctx, job.ID, progress, message)
	})
	if err != nil {
		return nil, Wrap(ErrStage, "try-off", "extract garments", err)
	}

	if err := o.checkpoint(ctx, job.ID, "try-off", 85, "Saving results..."); err != nil {
		return nil, err
	}
	saved := make([]map[string]any, 0, len(extractions))
	garmentTypes := make([]string, 0, len(extractions))
	for _, extraction := range extractions {
		name, err := o.results.SaveGarment(extraction.Image, job.ID, extraction.Type)
		if err != nil {
			return nil, Wrap(ErrStage, "try-off", "save garment image", err)
		}
		maskName, err := o.results.SaveGarmentMask(extraction.Mask, job.ID, extraction.Type)
		if err != nil {
			return nil, Wrap(ErrStage, "try-off", "save garment mask", err)
		}
		saved = append(saved, map[string]any{
			"type":       string(extraction.Type),
			"image_url":  o.results.URLFor(name),
			"confidence": extraction.Confidence,
			"mask_url":   o.results.URLFor(maskName),
		})
		garmentTypes = append(garmentTypes, string(extraction.Type))
	}

	if err := o.checkpoint(ctx, job.ID, "try-off", 95, "Finalizing..."); err != nil {
		return nil, err
	}
	return map[string]any{
		"extracted_garments": saved,
		"processing_info": map[string]any{
			"model_detected":  true,
			"pose_confidence": pose.Confidence,
			"total_garments":  len(saved),
			"garment_types":   garmentTypes,
		},
	}, nil
}

// extractionCheckpoint maps a garment type to its fixed mid-extraction
// progress checkpoint.
func extractionCheckpoint(garmentType jobs.GarmentType) (float64, string) {
	switch garmentType {
	case jobs.GarmentLower:
		return 65, "Extracting lower body garment..."
	case jobs.GarmentFull:
		return 75, "Extracting full body garment..."
	default:
		return 50, "Extracting upper body garment..."
	}
}

// checkpoint verifies the run context is still live, then reports progress.
// A dead context surfaces as a timeout or cancellation error so the stage
// boundary is where the run aborts.
func (o *Orchestrator) checkpoint(ctx context.Context, jobID, stage string, progress float64, message string) error {
	if err := runContextErr(ctx, stage); err != nil {
		return err
	}
	o.sink.Report(ctx, jobID, progress, message)
	return nil
}

func runContextErr(ctx context.Context, stage string) error {
	err := ctx.Err()
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return Wrap(ErrTimeout, stage, "processing deadline exceeded", err)
	default:
		return err
	}
}

func (o *Orchestrator) finishSuccess(job *jobs.Job, result map[string]any, elapsed float64) {
	message := "Try-on processing completed successfully"
	if job.JobType == jobs.TypeTryOff {
		message = "Garment extraction completed successfully"
	}
	_, err := o.store.Update(context.Background(), job.ID, jobs.Patch{
		Status:         jobs.StatusCompleted,
		Progress:       100,
		Message:        message,
		Result:         result,
		ProcessingTime: &elapsed,
	})
	if errors.Is(err, jobs.ErrTerminal) {
		// Cancelled after the last stage finished; the cancellation wins.
		return
	}
	if err != nil {
		o.logger.Error("persist job completion failed",
			logging.String(logging.FieldJobID, job.ID),
			logging.Error(err),
		)
		return
	}
	o.logger.Info("job completed",
		logging.String(logging.FieldEventType, "job_completed"),
		logging.String(logging.FieldJobID, job.ID),
		logging.String(logging.FieldJobType, string(job.JobType)),
		logging.Float64("processing_seconds", elapsed),
	)
}

func (o *Orchestrator) finishFailure(job *jobs.Job, runErr error, elapsed float64) {
	if errors.Is(runErr, context.Canceled) {
		o.logger.Info("job run aborted",
			logging.String(logging.FieldEventType, "job_aborted"),
			logging.String(logging.FieldJobID, job.ID),
		)
		// A user cancel has already persisted the cancelled status, which the
		// terminal guard keeps. A shutdown abort records the failure here.
		_, err := o.store.Update(context.Background(), job.ID, jobs.Patch{
			Status:       jobs.StatusFailed,
			Progress:     0,
			Message:      "Processing interrupted by shutdown",
			ErrorMessage: "processing aborted before completion",
		})
		if err != nil && !errors.Is(err, jobs.ErrTerminal) {
			o.logger.Error("persist aborted job failed",
				logging.String(logging.FieldJobID, job.ID),
				logging.Error(err),
			)
		}
		return
	}

	message := "Try-on processing failed"
	if job.JobType == jobs.TypeTryOff {
		message = "Garment extraction failed"
	}
	_, err := o.store.Update(context.Background(), job.ID, jobs.Patch{
		Status:         jobs.StatusFailed,
		Progress:       0,
		Message:        message,
		ErrorMessage:   runErr.Error(),
		ProcessingTime: &elapsed,
	})
	if err != nil && !errors.Is(err, jobs.ErrTerminal) {
		o.logger.Error("persist job failure failed",
			logging.String(logging.FieldJobID, job.ID),
			logging.Error(err),
		)
	}
	o.logger.Error("job failed",
		logging.String(logging.FieldEventType, "job_failed"),
		logging.String(logging.FieldJobID, job.ID),
		logging.String(logging.FieldJobType, string(job.JobType)),
		logging.Error(runErr),
		logging.Float64("processing_seconds", elapsed),
	)
}
