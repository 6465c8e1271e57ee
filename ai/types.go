package ai

import (
	"fmt"

	"github.com/poiesic/ragpipe/core"
)

// GenerationParams bounds a single generation call.
type GenerationParams struct {
	// MaxTokens caps the length of the generated answer.
	MaxTokens int

	// Temperature controls sampling randomness. 0 is deterministic.
	Temperature float64
}

// EmbeddingError reports a failed embedding batch. Index identifies the
// input that failed when the provider reports one; it is -1 when the whole
// batch failed without attribution.
type EmbeddingError struct {
	Index int
	Err   error
}

func (e *EmbeddingError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("embedding failed at index %d: %v", e.Index, e.Err)
	}
	return fmt.Sprintf("embedding batch failed: %v", e.Err)
}

// Unwrap classifies the error under the pipeline failure taxonomy while
// preserving the provider error for inspection.
func (e *EmbeddingError) Unwrap() []error {
	if e.Err != nil {
		return []error{core.ErrEmbeddingFailed, e.Err}
	}
	return []error{core.ErrEmbeddingFailed}
}
