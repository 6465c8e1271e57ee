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
	"errors"
	"testing"

	"github.com/mus-format/mus-go/ord"
	"github.com/poiesic/ragpipe/storage"
	"github.com/poiesic/ragpipe/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupExecutor(t *testing.T, opts ...ExecutorOption) *Executor {
	_, steps, backend, err := badger.NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	executor, err := NewExecutor(steps, opts...)
	require.NoError(t, err)
	return executor
}

func TestNewExecutor_InvalidMaxAttempts(t *testing.T) {
	_, steps, backend, err := badger.NewMemoryStores()
	require.NoError(t, err)
	defer backend.Close()

	_, err = NewExecutor(steps, WithMaxAttempts(0))
	assert.ErrorIs(t, err, ErrInvalidMaxAttempts)
}

func TestExecutor_RunExecutesStep(t *testing.T) {
	executor := setupExecutor(t)

	result, err := executor.Run(context.Background(), "run-1", "load-and-chunk", func(ctx context.Context) ([]byte, error) {
		return []byte("step output"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("step output"), result)
}

func TestExecutor_SucceededStepIsNotReExecuted(t *testing.T) {
	executor := setupExecutor(t)
	ctx := context.Background()

	calls := 0
	step := func(ctx context.Context) ([]byte, error) {
		calls++
		return []byte("first result"), nil
	}

	result, err := executor.Run(ctx, "run-1", "embed-and-upsert", step)
	require.NoError(t, err)
	assert.Equal(t, []byte("first result"), result)

	result, err = executor.Run(ctx, "run-1", "embed-and-upsert", step)
	require.NoError(t, err)
	assert.Equal(t, []byte("first result"), result)
	assert.Equal(t, 1, calls, "succeeded step must be replayed from cache")
}

func TestExecutor_FailedStepIsRetriedOnNextRun(t *testing.T) {
	executor := setupExecutor(t)
	ctx := context.Background()

	stepErr := errors.New("transient failure")
	calls := 0

	_, err := executor.Run(ctx, "run-1", "embed-and-upsert", func(ctx context.Context) ([]byte, error) {
		calls++
		return nil, stepErr
	})
	assert.ErrorIs(t, err, stepErr)

	result, err := executor.Run(ctx, "run-1", "embed-and-upsert", func(ctx context.Context) ([]byte, error) {
		calls++
		return []byte("recovered"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("recovered"), result)
	assert.Equal(t, 2, calls)
}

func TestExecutor_ResumeSkipsCompletedSteps(t *testing.T) {
	executor := setupExecutor(t)
	ctx := context.Background()

	firstCalls := 0
	first := func(ctx context.Context) ([]byte, error) {
		firstCalls++
		return []byte("chunks"), nil
	}

	// First execution: step one succeeds, step two fails.
	_, err := executor.Run(ctx, "run-1", "load-and-chunk", first)
	require.NoError(t, err)
	_, err = executor.Run(ctx, "run-1", "embed-and-upsert", func(ctx context.Context) ([]byte, error) {
		return nil, errors.New("embedding host down")
	})
	require.Error(t, err)

	// Re-execution of the run: step one is replayed, step two runs.
	result, err := executor.Run(ctx, "run-1", "load-and-chunk", first)
	require.NoError(t, err)
	assert.Equal(t, []byte("chunks"), result)
	assert.Equal(t, 1, firstCalls, "completed step must not run again on resume")

	_, err = executor.Run(ctx, "run-1", "embed-and-upsert", func(ctx context.Context) ([]byte, error) {
		return []byte("done"), nil
	})
	require.NoError(t, err)
}

func TestExecutor_AttemptsExhausted(t *testing.T) {
	executor := setupExecutor(t, WithMaxAttempts(2))
	ctx := context.Background()

	calls := 0
	step := func(ctx context.Context) ([]byte, error) {
		calls++
		return nil, errors.New("persistent failure")
	}

	_, err := executor.Run(ctx, "run-1", "llm-answer", step)
	require.Error(t, err)
	_, err = executor.Run(ctx, "run-1", "llm-answer", step)
	require.Error(t, err)

	_, err = executor.Run(ctx, "run-1", "llm-answer", step)
	assert.ErrorIs(t, err, ErrAttemptsExhausted)
	assert.Equal(t, 2, calls, "exhausted step must not be invoked again")
}

func TestExecutor_ConcurrentClaimRejected(t *testing.T) {
	executor := setupExecutor(t)
	ctx := context.Background()

	release := make(chan struct{})
	started := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		_, err := executor.Run(ctx, "run-1", "embed-and-search", func(ctx context.Context) ([]byte, error) {
			close(started)
			<-release
			return []byte("held"), nil
		})
		done <- err
	}()

	<-started
	_, err := executor.Run(ctx, "run-1", "embed-and-search", func(ctx context.Context) ([]byte, error) {
		return []byte("should not run"), nil
	})
	assert.ErrorIs(t, err, storage.ErrStepRunning)

	close(release)
	require.NoError(t, <-done)
}

func TestExecutor_StepsIndependentAcrossRuns(t *testing.T) {
	executor := setupExecutor(t)
	ctx := context.Background()

	calls := 0
	step := func(ctx context.Context) ([]byte, error) {
		calls++
		return []byte("out"), nil
	}

	_, err := executor.Run(ctx, "run-1", "load-and-chunk", step)
	require.NoError(t, err)
	_, err = executor.Run(ctx, "run-2", "load-and-chunk", step)
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "same step name in different runs executes independently")
}

func TestRun_TypedResultRoundTrip(t *testing.T) {
	executor := setupExecutor(t)
	ctx := context.Background()

	calls := 0
	answer := func(ctx context.Context) (string, error) {
		calls++
		return "the capital of France is Paris", nil
	}

	got, err := Run(ctx, executor, "run-1", "llm-answer", ord.String, answer)
	require.NoError(t, err)
	assert.Equal(t, "the capital of France is Paris", got)

	got, err = Run(ctx, executor, "run-1", "llm-answer", ord.String, answer)
	require.NoError(t, err)
	assert.Equal(t, "the capital of France is Paris", got)
	assert.Equal(t, 1, calls)
}

func TestRun_ErrorPassesThrough(t *testing.T) {
	executor := setupExecutor(t)

	stepErr := errors.New("no choices returned")
	_, err := Run(context.Background(), executor, "run-1", "llm-answer", ord.String, func(ctx context.Context) (string, error) {
		return "", stepErr
	})
	assert.ErrorIs(t, err, stepErr)
}
