// Package pipeline coordinates asynchronous try-on and try-off jobs. The
// orchestrator accepts submissions, runs each job on a bounded worker pool
// through the stage engine, and reports progress checkpoints to the job store
// via the progress sink. Every run ends in exactly one terminal job state.
package pipeline
