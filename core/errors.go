// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import "errors"

// Failure taxonomy for pipeline runs. Every error surfaced by a pipeline
// step wraps exactly one of these sentinels, so callers can classify a
// failure without depending on provider-specific error payloads.
var (
	// ErrLoadFailed indicates a missing or unreadable source document.
	// Load failures are permanent; retrying cannot fix them.
	ErrLoadFailed = errors.New("load failed")

	// ErrEmbeddingFailed indicates the embedding provider call failed.
	ErrEmbeddingFailed = errors.New("embedding failed")

	// ErrStoreFailed indicates the vector store was unavailable or
	// rejected an operation.
	ErrStoreFailed = errors.New("vector store failed")

	// ErrGenerationFailed indicates the generation model call failed or
	// returned an unusable answer.
	ErrGenerationFailed = errors.New("generation failed")
)

// Domain validation errors
var (
	// ErrInvalidChunkParams indicates chunking parameters violate
	// size > overlap >= 0.
	ErrInvalidChunkParams = errors.New("invalid chunk parameters")

	// ErrInvalidIndexRecord indicates an IndexRecord failed validation.
	ErrInvalidIndexRecord = errors.New("invalid index record")

	// ErrInvalidStepRecord indicates a StepRecord failed validation.
	ErrInvalidStepRecord = errors.New("invalid step record")

	// ErrInvalidTopK indicates a non-positive topK search limit.
	ErrInvalidTopK = errors.New("topK must be at least 1")
)

// Retryable reports whether err represents a transient failure that may
// succeed on a later attempt. Load and validation failures are permanent.
func Retryable(err error) bool {
	return errors.Is(err, ErrEmbeddingFailed) ||
		errors.Is(err, ErrStoreFailed) ||
		errors.Is(err, ErrGenerationFailed)
}

// Permanent reports whether err can never succeed on a later attempt.
// Unclassified errors are neither retryable nor permanent.
func Permanent(err error) bool {
	return errors.Is(err, ErrLoadFailed) ||
		errors.Is(err, ErrInvalidChunkParams) ||
		errors.Is(err, ErrInvalidIndexRecord) ||
		errors.Is(err, ErrInvalidStepRecord) ||
		errors.Is(err, ErrInvalidTopK)
}
