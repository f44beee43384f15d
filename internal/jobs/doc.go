// Package jobs persists processing jobs and drives their lifecycle
// transitions.
//
// The Store wraps a SQLite database (modernc.org/sqlite) and exposes the
// create/update/list/cancel/cleanup operations the pipeline orchestrator
// needs. Writes to a given job id are serialized so concurrent progress
// reports, cancellation, and terminal transitions cannot race, and progress
// is kept monotonically non-decreasing while a job is processing.
package jobs
