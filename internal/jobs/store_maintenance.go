package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// Cancel marks a job cancelled. Jobs already in a terminal state are refused
// with ErrTerminal; an unknown id yields ErrNotFound. Cancellation only flips
// the persisted record; interrupting an in-flight run is the orchestrator's
// responsibility.
func (s *Store) Cancel(ctx context.Context, id string) (*Job, error) {
	unlock := s.lockJob(id)
	defer unlock()

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrNotFound
	}
	if current.Status.IsTerminal() {
		return nil, ErrTerminal
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = s.db.ExecContext(
		ctx,
		`UPDATE jobs
         SET status = ?, progress = 0, message = ?, updated_at = ?, completed_at = ?
         WHERE id = ?`,
		StatusCancelled,
		"Job cancelled by user",
		now,
		now,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("cancel job: %w", err)
	}
	return s.Get(ctx, id)
}

// Cleanup deletes the artifacts a job references and then removes the record.
// Input images are deleted directly; result artifacts are resolved from
// result_data URLs through the supplied resolver. Missing files are ignored.
func (s *Store) Cleanup(ctx context.Context, id string, resolve func(url string) (string, bool)) error {
	unlock := s.lockJob(id)
	defer unlock()

	job, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if job == nil {
		return ErrNotFound
	}

	removeIfPresent(job.ModelImagePath)
	removeIfPresent(job.GarmentImagePath)

	if resolve != nil {
		for _, url := range collectResultURLs(job.ResultJSON) {
			if path, ok := resolve(url); ok {
				removeIfPresent(path)
			}
		}
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	s.locks.Delete(id)
	return nil
}

// ResetStuckProcessing fails jobs left in processing by a previous daemon run.
// Called at startup so no job stays silently stuck after a crash.
func (s *Store) ResetStuckProcessing(ctx context.Context, message string) (int64, error) {
	if strings.TrimSpace(message) == "" {
		message = "Processing interrupted by daemon restart"
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE jobs
         SET status = ?, progress = 0, message = ?, error_message = ?, updated_at = ?, completed_at = ?
         WHERE status = ?`,
		StatusFailed,
		message,
		message,
		now,
		now,
		StatusProcessing,
	)
	if err != nil {
		return 0, fmt.Errorf("reset stuck jobs: %w", err)
	}
	return res.RowsAffected()
}

// collectResultURLs walks arbitrarily nested result data and returns every
// string value; the resolver decides which of them address artifacts. Try-off
// results nest URLs inside the extracted_garments list, so a top-level scan is
// not enough.
func collectResultURLs(resultJSON string) []string {
	if strings.TrimSpace(resultJSON) == "" {
		return nil
	}
	var decoded any
	if err := json.Unmarshal([]byte(resultJSON), &decoded); err != nil {
		return nil
	}
	var urls []string
	walkResultValue(decoded, &urls)
	return urls
}

func walkResultValue(value any, urls *[]string) {
	switch v := value.(type) {
	case string:
		if v != "" {
			*urls = append(*urls, v)
		}
	case map[string]any:
		for _, nested := range v {
			walkResultValue(nested, urls)
		}
	case []any:
		for _, nested := range v {
			walkResultValue(nested, urls)
		}
	}
}

// removeIfPresent deletes a file best-effort; record removal must not fail on
// a stubborn or already-missing file.
func removeIfPresent(path string) {
	if strings.TrimSpace(path) == "" {
		return
	}
	_ = os.Remove(path)
}
