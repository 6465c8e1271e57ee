package core

import (
	"strconv"
	"time"

	"github.com/go-crypt/x/blake2b"
	"github.com/google/uuid"
)

// Chunk is a bounded slice of source text produced by the chunker.
// Chunks are immutable once created and exist only for the duration of a
// pipeline run; their storage identity is derived with ChunkID, never
// assigned randomly.
type Chunk struct {
	Text     string
	SourceID string
	Index    int
}

// ChunkID generates a deterministic record id from a source id and chunk
// index using BLAKE2b hashing. Identical (sourceID, index) pairs always
// produce the same id, so re-ingesting a source overwrites its records
// instead of duplicating them.
//
// The 16-byte digest is rendered as a UUID string, which every supported
// vector store accepts as a point id.
func ChunkID(sourceID string, index int) string {
	h, _ := blake2b.New(16, nil)
	h.Write([]byte(sourceID + ":" + strconv.Itoa(index)))
	id, _ := uuid.FromBytes(h.Sum(nil))
	return id.String()
}

// IndexRecord is the unit persisted in and retrieved from a vector store.
// Source and Text form the record payload carried alongside the vector.
type IndexRecord struct {
	Id     string
	Vector []float32
	Source string
	Text   string
}

// SearchResult is a single nearest-neighbor match from a vector store,
// projected to its payload plus a similarity score.
type SearchResult struct {
	Id     string
	Source string
	Text   string
	Score  float32
}

// StepStatus tracks the lifecycle of a pipeline step execution.
type StepStatus int

const (
	// StepStatusPending means the step has not completed yet.
	StepStatusPending StepStatus = iota + 1
	// StepStatusRunning means an execution currently holds the step.
	StepStatusRunning
	// StepStatusSucceeded is terminal; the cached result is immutable.
	StepStatusSucceeded
	// StepStatusFailed means the last attempt failed; the step may be retried.
	StepStatusFailed
)

// StepRecord is the persisted state of a single named step within a run.
// It is owned exclusively by the workflow executor and keyed by
// (RunID, StepName). A record survives retries of the whole run so a
// re-invoked run does not re-execute a step that already succeeded.
type StepRecord struct {
	RunID     string
	StepName  string
	Status    StepStatus
	Result    []byte // serialized step output, set only on success
	Attempt   int
	UpdatedAt time.Time
}
