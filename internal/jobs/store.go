package jobs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"vizart/internal/config"
)

// Store manages job persistence backed by SQLite. Writes to a given job id are
// serialized through a keyed mutex so concurrent progress updates, cancellation,
// and completion cannot interleave partial states.
type Store struct {
	db    *sql.DB
	path  string
	locks sync.Map // job id -> *sync.Mutex
}

// Open initializes or connects to the job database and applies migrations.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.DataDir, "jobs.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) lockJob(id string) func() {
	mu, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	lock := mu.(*sync.Mutex)
	lock.Lock()
	return lock.Unlock
}

// Create inserts a new job with status pending and zero progress. Option
// values are persisted as submitted; validation happens before submission.
func (s *Store) Create(ctx context.Context, jobType Type, modelPath, garmentPath string, options map[string]any) (*Job, error) {
	if modelPath == "" {
		return nil, errors.New("model image path is required")
	}

	var optionsJSON any
	if len(options) > 0 {
		data, err := json.Marshal(options)
		if err != nil {
			return nil, fmt.Errorf("marshal options: %w", err)
		}
		optionsJSON = string(data)
	}

	id := uuid.NewString()
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO jobs (
            id, job_type, status, progress, message,
            model_image_path, garment_image_path, options_json,
            created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		jobType,
		StatusPending,
		0.0,
		"Job created",
		modelPath,
		nullableString(garmentPath),
		optionsJSON,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}

	return s.Get(ctx, id)
}

// Get fetches a job by identifier. Returns (nil, nil) when the id is unknown.
func (s *Store) Get(ctx context.Context, id string) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// Patch describes a partial job mutation. Result is persisted only when
// non-nil, ErrorMessage only when non-empty, and ProcessingTime only when set,
// so terminal writes cannot erase previously stored data by accident.
type Patch struct {
	Status         Status
	Progress       float64
	Message        string
	Result         map[string]any
	ErrorMessage   string
	ProcessingTime *float64
}

// Update merges a patch into the stored record. Returns false when the id is
// unknown. Progress is kept monotonically non-decreasing while the job stays
// in processing; a reset to zero is permitted only alongside a failed or
// cancelled transition. Updates against a job already in a different terminal
// state are refused with ErrTerminal.
func (s *Store) Update(ctx context.Context, id string, patch Patch) (bool, error) {
	unlock := s.lockJob(id)
	defer unlock()

	current, err := s.Get(ctx, id)
	if err != nil {
		return false, err
	}
	if current == nil {
		return false, nil
	}
	if current.Status.IsTerminal() && patch.Status != current.Status {
		return false, ErrTerminal
	}

	progress := clampProgress(patch.Progress)
	if patch.Status == StatusProcessing && progress < current.Progress {
		progress = current.Progress
	}

	now := time.Now().UTC()
	setters := []string{"status = ?", "progress = ?", "message = ?", "updated_at = ?"}
	args := []any{patch.Status, progress, patch.Message, now.Format(time.RFC3339Nano)}

	if patch.Result != nil {
		data, err := json.Marshal(patch.Result)
		if err != nil {
			return false, fmt.Errorf("marshal result: %w", err)
		}
		setters = append(setters, "result_json = ?")
		args = append(args, string(data))
	}
	if patch.ErrorMessage != "" {
		setters = append(setters, "error_message = ?")
		args = append(args, patch.ErrorMessage)
	}
	if patch.ProcessingTime != nil {
		setters = append(setters, "processing_time = ?")
		args = append(args, *patch.ProcessingTime)
	}
	if patch.Status.IsTerminal() && current.CompletedAt == nil {
		setters = append(setters, "completed_at = ?")
		args = append(args, now.Format(time.RFC3339Nano))
	}

	args = append(args, id)
	query := "UPDATE jobs SET " + strings.Join(setters, ", ") + " WHERE id = ?"
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("update job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

const jobColumns = "id, job_type, status, progress, message, model_image_path, garment_image_path, options_json, result_json, error_message, processing_time, created_at, updated_at, completed_at"

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		id             string
		jobType        string
		statusStr      string
		progress       sql.NullFloat64
		message        sql.NullString
		modelPath      string
		garmentPath    sql.NullString
		optionsJSON    sql.NullString
		resultJSON     sql.NullString
		errorMessage   sql.NullString
		processingTime sql.NullFloat64
		createdRaw     sql.NullString
		updatedRaw     sql.NullString
		completedRaw   sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&jobType,
		&statusStr,
		&progress,
		&message,
		&modelPath,
		&garmentPath,
		&optionsJSON,
		&resultJSON,
		&errorMessage,
		&processingTime,
		&createdRaw,
		&updatedRaw,
		&completedRaw,
	); err != nil {
		return nil, err
	}

	job := &Job{
		ID:               id,
		JobType:          Type(jobType),
		Status:           Status(statusStr),
		Progress:         progress.Float64,
		Message:          message.String,
		ModelImagePath:   modelPath,
		GarmentImagePath: garmentPath.String,
		OptionsJSON:      optionsJSON.String,
		ResultJSON:       resultJSON.String,
		ErrorMessage:     errorMessage.String,
		ProcessingTime:   processingTime.Float64,
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		job.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		job.UpdatedAt = updated
	}
	if completedRaw.Valid {
		if completed, err := parseTimeString(completedRaw.String); err == nil {
			job.CompletedAt = &completed
		}
	}
	return job, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func clampProgress(value float64) float64 {
	switch {
	case value < 0:
		return 0
	case value > 100:
		return 100
	default:
		return value
	}
}
