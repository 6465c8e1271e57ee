package storage

import (
	"context"

	"github.com/poiesic/ragpipe/core"
)

// VectorStore persists index records and serves nearest-neighbor search.
// Implementations must be thread-safe and support concurrent access; the
// vector store is the only mutable resource shared across pipeline runs.
type VectorStore interface {
	// Upsert writes records keyed by their deterministic ids.
	// Upserting an existing id overwrites it: last write wins, so
	// re-ingesting a source never duplicates records.
	Upsert(ctx context.Context, records ...*core.IndexRecord) error

	// Search returns up to topK records whose vectors are nearest to the
	// query under the store's similarity metric, ranked by descending
	// score. When fewer than topK records exist, all of them are returned.
	Search(ctx context.Context, vector []float32, topK int) ([]*core.SearchResult, error)

	// Count reports the number of stored records.
	Count(ctx context.Context) (int, error)

	// Close closes the store and releases resources.
	Close() error
}

// StepStore persists step records keyed by (runId, stepName).
// It backs the workflow executor's exactly-once-effective guarantee and
// must tolerate concurrent runs; concurrent executions of the same step
// are serialized through BeginStep.
type StepStore interface {
	// GetStep retrieves a step record.
	// Returns ErrNotFound if the step has never been recorded.
	GetStep(ctx context.Context, runID, stepName string) (*core.StepRecord, error)

	// BeginStep claims a step for execution. A new or previously failed
	// step transitions to running and is returned; a succeeded step is
	// returned unchanged so the caller can reuse its cached result.
	// Returns ErrStepRunning if another execution currently holds the step.
	BeginStep(ctx context.Context, runID, stepName string) (*core.StepRecord, error)

	// CompleteStep marks a running step succeeded and stores its result.
	// A succeeded step is terminal; completing it again returns
	// ErrStepImmutable.
	CompleteStep(ctx context.Context, record *core.StepRecord, result []byte) error

	// FailStep marks a running step failed and increments its attempt
	// counter, making it eligible for retry.
	FailStep(ctx context.Context, record *core.StepRecord) error

	// Close closes the store and releases resources.
	Close() error
}
