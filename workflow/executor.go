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


package workflow

import (
	"context"
	"fmt"
	"log/slog"

	mus "github.com/mus-format/mus-go"
	"github.com/poiesic/ragpipe/core"
	"github.com/poiesic/ragpipe/storage"
)

// DefaultMaxAttempts is the per-step attempt ceiling used when no
// override is given.
const DefaultMaxAttempts = 4

// Executor runs named steps durably against a step store. A step that
// already succeeded is never re-executed: its persisted result is
// returned instead. A step that failed is re-executed until its attempt
// ceiling is reached.
type Executor struct {
	steps       storage.StepStore
	maxAttempts int
	logger      *slog.Logger
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithMaxAttempts overrides the per-step attempt ceiling.
func WithMaxAttempts(maxAttempts int) ExecutorOption {
	return func(e *Executor) {
		e.maxAttempts = maxAttempts
	}
}

// NewExecutor creates an Executor backed by the given step store.
func NewExecutor(steps storage.StepStore, opts ...ExecutorOption) (*Executor, error) {
	e := &Executor{
		steps:       steps,
		maxAttempts: DefaultMaxAttempts,
		logger:      slog.Default().With("component", "step-executor"),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.maxAttempts <= 0 {
		return nil, ErrInvalidMaxAttempts
	}
	return e, nil
}

// Run executes the named step within a run. If the step already
// succeeded, the cached result is returned and fn is not invoked. If the
// step is currently claimed by another executor, storage.ErrStepRunning
// is returned. If the step has exhausted its attempts, fn is not invoked
// and ErrAttemptsExhausted is returned.
func (e *Executor) Run(ctx context.Context, runID, stepName string, fn func(context.Context) ([]byte, error)) ([]byte, error) {
	record, err := e.steps.BeginStep(ctx, runID, stepName)
	if err != nil {
		return nil, err
	}

	if record.Status == core.StepStatusSucceeded {
		e.logger.Debug("step replayed from cache", "runID", runID, "step", stepName)
		return record.Result, nil
	}

	if record.Attempt >= e.maxAttempts {
		// Release the claim so the record does not stay running forever.
		if failErr := e.steps.FailStep(ctx, record); failErr != nil {
			e.logger.Warn("failed to release exhausted step", "runID", runID, "step", stepName, "error", failErr)
		}
		return nil, fmt.Errorf("%w: step %q in run %q after %d attempts", ErrAttemptsExhausted, stepName, runID, record.Attempt)
	}

	e.logger.Debug("executing step", "runID", runID, "step", stepName, "attempt", record.Attempt+1)

	result, err := fn(ctx)
	if err != nil {
		if failErr := e.steps.FailStep(ctx, record); failErr != nil {
			e.logger.Warn("failed to record step failure", "runID", runID, "step", stepName, "error", failErr)
		}
		return nil, fmt.Errorf("step %q failed: %w", stepName, err)
	}

	if err := e.steps.CompleteStep(ctx, record, result); err != nil {
		return nil, fmt.Errorf("step %q could not be completed: %w", stepName, err)
	}
	return result, nil
}

// Run executes a step whose result is a typed value, serialized with the
// given MUS serializer. The returned value is always decoded from the
// persisted bytes, so fresh execution and cache replay take the same
// path.
func Run[T any](ctx context.Context, e *Executor, runID, stepName string, ser mus.Serializer[T], fn func(context.Context) (T, error)) (T, error) {
	var zero T
	data, err := e.Run(ctx, runID, stepName, func(ctx context.Context) ([]byte, error) {
		value, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		buf := make([]byte, ser.Size(value))
		ser.Marshal(value, buf)
		return buf, nil
	})
	if err != nil {
		return zero, err
	}

	value, _, err := ser.Unmarshal(data)
	if err != nil {
		return zero, fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
	}
	return value, nil
}
