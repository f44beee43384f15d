package jobs

import (
	"encoding/json"
	"strings"
	"time"
)

// Status represents the lifecycle of a processing job.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

var allStatuses = []Status{
	StatusPending,
	StatusProcessing,
	StatusCompleted,
	StatusFailed,
	StatusCancelled,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether a status permits no further transitions.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// Type distinguishes the two processing pipelines.
type Type string

const (
	TypeTryOn  Type = "try-on"
	TypeTryOff Type = "try-off"
)

// ParseType converts a string into a known job Type.
func ParseType(value string) (Type, bool) {
	normalized := Type(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case TypeTryOn, TypeTryOff:
		return normalized, true
	default:
		return "", false
	}
}

// Job represents a processing job persisted in SQLite.
type Job struct {
	ID               string
	JobType          Type
	Status           Status
	Progress         float64
	Message          string
	ModelImagePath   string
	GarmentImagePath string
	OptionsJSON      string
	ResultJSON       string
	ErrorMessage     string
	ProcessingTime   float64
	CreatedAt        time.Time
	UpdatedAt        time.Time
	CompletedAt      *time.Time
}

// Result decodes the persisted result data. Returns nil when no result is set.
func (j *Job) Result() (map[string]any, error) {
	if j == nil || strings.TrimSpace(j.ResultJSON) == "" {
		return nil, nil
	}
	var result map[string]any
	if err := json.Unmarshal([]byte(j.ResultJSON), &result); err != nil {
		return nil, err
	}
	return result, nil
}

// RawOptions decodes the persisted options map. Returns an empty map when unset.
func (j *Job) RawOptions() (map[string]any, error) {
	if j == nil || strings.TrimSpace(j.OptionsJSON) == "" {
		return map[string]any{}, nil
	}
	var opts map[string]any
	if err := json.Unmarshal([]byte(j.OptionsJSON), &opts); err != nil {
		return nil, err
	}
	return opts, nil
}

// Filter narrows List and Count queries. Zero values match everything.
type Filter struct {
	Status  Status
	JobType Type
}

// HealthSummary describes aggregated job counts per key lifecycle states.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Completed  int
	Failed     int
	Cancelled  int
}

// DatabaseHealth captures diagnostic information about the job database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	TableExists      bool
	IntegrityCheck   bool
	TotalJobs        int
	Error            string
}
