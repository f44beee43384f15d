package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"vizart/internal/jobs"
	"vizart/internal/logging"
)

// Sink receives progress checkpoints emitted while a job runs. Report must
// tolerate repeated and out-of-order calls; the store clamps progress so it
// never moves backwards.
type Sink interface {
	Report(ctx context.Context, jobID string, progress float64, message string)
}

// storeSink persists progress checkpoints to the job store and mirrors them
// to the structured log. Persistence failures are logged and swallowed so a
// slow disk cannot fail an otherwise healthy job mid-stage.
type storeSink struct {
	store  *jobs.Store
	logger *slog.Logger
}

// NewStoreSink returns a Sink backed by the job store.
func NewStoreSink(store *jobs.Store, logger *slog.Logger) Sink {
	return &storeSink{
		store:  store,
		logger: logging.NewComponentLogger(logger, "progress-sink"),
	}
}

func (s *storeSink) Report(ctx context.Context, jobID string, progress float64, message string) {
	updated, err := s.store.Update(ctx, jobID, jobs.Patch{
		Status:   jobs.StatusProcessing,
		Progress: progress,
		Message:  message,
	})
	if errors.Is(err, jobs.ErrTerminal) {
		// The job finished or was cancelled between stages; drop the report.
		return
	}
	if err != nil {
		s.logger.Warn("progress update failed",
			logging.String(logging.FieldJobID, jobID),
			logging.Float64(logging.FieldProgress, progress),
			logging.Error(err),
		)
		return
	}
	if !updated {
		return
	}
	s.logger.Info(message,
		logging.String(logging.FieldEventType, "job_progress"),
		logging.String(logging.FieldJobID, jobID),
		logging.Float64(logging.FieldProgress, progress),
	)
}
