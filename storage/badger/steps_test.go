package badger

import (
	"context"
	"testing"

	"github.com/poiesic/ragpipe/core"
	"github.com/poiesic/ragpipe/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStepStore(t *testing.T) storage.StepStore {
	_, steps, backend, err := NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })
	return steps
}

func TestStepStore_GetStepNotFound(t *testing.T) {
	steps := setupStepStore(t)

	_, err := steps.GetStep(context.Background(), "run-1", "load-and-chunk")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStepStore_BeginClaimsNewStep(t *testing.T) {
	steps := setupStepStore(t)
	ctx := context.Background()

	record, err := steps.BeginStep(ctx, "run-1", "load-and-chunk")
	require.NoError(t, err)
	assert.Equal(t, core.StepStatusRunning, record.Status)
	assert.Equal(t, 0, record.Attempt)

	// The claim is persisted.
	stored, err := steps.GetStep(ctx, "run-1", "load-and-chunk")
	require.NoError(t, err)
	assert.Equal(t, core.StepStatusRunning, stored.Status)
}

func TestStepStore_BeginWhileRunning(t *testing.T) {
	steps := setupStepStore(t)
	ctx := context.Background()

	_, err := steps.BeginStep(ctx, "run-1", "load-and-chunk")
	require.NoError(t, err)

	_, err = steps.BeginStep(ctx, "run-1", "load-and-chunk")
	assert.ErrorIs(t, err, storage.ErrStepRunning)
}

func TestStepStore_CompleteThenBeginReturnsCache(t *testing.T) {
	steps := setupStepStore(t)
	ctx := context.Background()

	record, err := steps.BeginStep(ctx, "run-1", "load-and-chunk")
	require.NoError(t, err)
	require.NoError(t, steps.CompleteStep(ctx, record, []byte("cached result")))

	again, err := steps.BeginStep(ctx, "run-1", "load-and-chunk")
	require.NoError(t, err)
	assert.Equal(t, core.StepStatusSucceeded, again.Status)
	assert.Equal(t, []byte("cached result"), again.Result)
}

func TestStepStore_SucceededIsImmutable(t *testing.T) {
	steps := setupStepStore(t)
	ctx := context.Background()

	record, err := steps.BeginStep(ctx, "run-1", "load-and-chunk")
	require.NoError(t, err)
	require.NoError(t, steps.CompleteStep(ctx, record, []byte("first")))

	err = steps.CompleteStep(ctx, record, []byte("second"))
	assert.ErrorIs(t, err, storage.ErrStepImmutable)

	err = steps.FailStep(ctx, record)
	assert.ErrorIs(t, err, storage.ErrStepImmutable)

	stored, err := steps.GetStep(ctx, "run-1", "load-and-chunk")
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), stored.Result)
}

func TestStepStore_FailIncrementsAttempt(t *testing.T) {
	steps := setupStepStore(t)
	ctx := context.Background()

	record, err := steps.BeginStep(ctx, "run-1", "embed-and-upsert")
	require.NoError(t, err)
	require.NoError(t, steps.FailStep(ctx, record))
	assert.Equal(t, core.StepStatusFailed, record.Status)
	assert.Equal(t, 1, record.Attempt)

	// A failed step can be claimed again; the attempt count carries over.
	record, err = steps.BeginStep(ctx, "run-1", "embed-and-upsert")
	require.NoError(t, err)
	assert.Equal(t, core.StepStatusRunning, record.Status)
	assert.Equal(t, 1, record.Attempt)

	require.NoError(t, steps.FailStep(ctx, record))
	assert.Equal(t, 2, record.Attempt)
}

func TestStepStore_RunsAreIndependent(t *testing.T) {
	steps := setupStepStore(t)
	ctx := context.Background()

	record1, err := steps.BeginStep(ctx, "run-1", "embed-and-search")
	require.NoError(t, err)
	require.NoError(t, steps.CompleteStep(ctx, record1, []byte("run-1 result")))

	// Same step name under a different run starts fresh.
	record2, err := steps.BeginStep(ctx, "run-2", "embed-and-search")
	require.NoError(t, err)
	assert.Equal(t, core.StepStatusRunning, record2.Status)
	assert.Empty(t, record2.Result)
}

func TestStepStore_StepsAreIndependentWithinRun(t *testing.T) {
	steps := setupStepStore(t)
	ctx := context.Background()

	record, err := steps.BeginStep(ctx, "run-1", "embed-and-search")
	require.NoError(t, err)
	require.NoError(t, steps.CompleteStep(ctx, record, []byte("found")))

	next, err := steps.BeginStep(ctx, "run-1", "llm-answer")
	require.NoError(t, err)
	assert.Equal(t, core.StepStatusRunning, next.Status)
}
