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

import "fmt"

// ValidateChunkParams validates chunker parameters according to domain rules.
//
// Validation rules:
//   - size must be positive
//   - overlap must not be negative
//   - size must be strictly greater than overlap, otherwise the chunker
//     cannot make forward progress
func ValidateChunkParams(size, overlap int) error {
	if size <= 0 {
		return fmt.Errorf("%w: size %d must be positive", ErrInvalidChunkParams, size)
	}
	if overlap < 0 {
		return fmt.Errorf("%w: overlap %d must not be negative", ErrInvalidChunkParams, overlap)
	}
	if size <= overlap {
		return fmt.Errorf("%w: size %d must exceed overlap %d", ErrInvalidChunkParams, size, overlap)
	}
	return nil
}

// ValidateIndexRecord validates an IndexRecord before it is upserted.
//
// Validation rules:
//   - Id must not be empty (it carries the deterministic chunk identity)
//   - Vector must not be empty
//
// NOT validated:
//   - Text (an empty payload text is unusual but not an error)
func ValidateIndexRecord(record *IndexRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidIndexRecord)
	}
	if record.Id == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidIndexRecord)
	}
	if len(record.Vector) == 0 {
		return fmt.Errorf("%w: empty vector", ErrInvalidIndexRecord)
	}
	return nil
}

// ValidateStepRecord validates a StepRecord before it is persisted.
func ValidateStepRecord(record *StepRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidStepRecord)
	}
	if record.RunID == "" {
		return fmt.Errorf("%w: empty run id", ErrInvalidStepRecord)
	}
	if record.StepName == "" {
		return fmt.Errorf("%w: empty step name", ErrInvalidStepRecord)
	}
	if err := ValidateStepStatus(record.Status); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidStepRecord, err)
	}
	return nil
}

// ValidateStepStatus validates that a StepStatus has a valid value.
func ValidateStepStatus(status StepStatus) error {
	switch status {
	case StepStatusPending, StepStatusRunning, StepStatusSucceeded, StepStatusFailed:
		return nil
	}
	return fmt.Errorf("%w: unknown status %d", ErrInvalidStepRecord, status)
}

// ValidateTopK validates a search result limit.
func ValidateTopK(topK int) error {
	if topK < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidTopK, topK)
	}
	return nil
}
