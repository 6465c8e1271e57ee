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


package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/ragpipe/ai/mock"
	"github.com/poiesic/ragpipe/chunker"
	"github.com/poiesic/ragpipe/core"
	"github.com/poiesic/ragpipe/loader"
	"github.com/poiesic/ragpipe/storage"
	"github.com/poiesic/ragpipe/storage/badger"
	"github.com/poiesic/ragpipe/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingLoader wraps a Loader and counts Load invocations.
type countingLoader struct {
	inner loader.Loader
	calls int
}

func (l *countingLoader) Load(ctx context.Context, path string) ([]string, error) {
	l.calls++
	return l.inner.Load(ctx, path)
}

type ingestFixture struct {
	pipeline *Ingest
	loader   *countingLoader
	embedder *mock.Embedder
	vectors  storage.VectorStore
}

func setupIngest(t *testing.T) *ingestFixture {
	vectors, steps, backend, err := badger.NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	executor, err := workflow.NewExecutor(steps)
	require.NoError(t, err)

	chk, err := chunker.New(chunker.DefaultSize, chunker.DefaultOverlap)
	require.NoError(t, err)

	ldr := &countingLoader{inner: loader.NewFileLoader()}
	embedder := mock.NewEmbedder()

	return &ingestFixture{
		pipeline: NewIngest(ldr, chk, embedder, vectors, executor),
		loader:   ldr,
		embedder: embedder,
		vectors:  vectors,
	}
}

func writeTextFile(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestIngest_SingleChunkDocument(t *testing.T) {
	f := setupIngest(t)
	ctx := context.Background()
	path := writeTextFile(t, "A short document that fits in one chunk.")

	result, err := f.pipeline.Run(ctx, IngestRequest{RunID: "run-1", Path: path, SourceID: "doc1"})
	require.NoError(t, err)
	assert.Equal(t, "doc1", result.SourceID)
	assert.Equal(t, 1, result.Ingested)

	count, err := f.vectors.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// The stored record carries the source label and chunk text.
	query := mock.DeterministicVector("A short document that fits in one chunk.", mock.DefaultDimension)
	found, err := f.vectors.Search(ctx, query, 1)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, core.ChunkID("doc1", 0), found[0].Id)
	assert.Equal(t, "doc1", found[0].Source)
	assert.Equal(t, "A short document that fits in one chunk.", found[0].Text)
}

func TestIngest_SourceIDDefaultsToPath(t *testing.T) {
	f := setupIngest(t)
	path := writeTextFile(t, "Content without an explicit source id.")

	result, err := f.pipeline.Run(context.Background(), IngestRequest{RunID: "run-1", Path: path})
	require.NoError(t, err)
	assert.Equal(t, path, result.SourceID)
}

func TestIngest_ReingestDoesNotDuplicate(t *testing.T) {
	f := setupIngest(t)
	ctx := context.Background()
	path := writeTextFile(t, "The same document ingested twice.")

	_, err := f.pipeline.Run(ctx, IngestRequest{RunID: "run-1", Path: path, SourceID: "doc1"})
	require.NoError(t, err)
	_, err = f.pipeline.Run(ctx, IngestRequest{RunID: "run-2", Path: path, SourceID: "doc1"})
	require.NoError(t, err)

	count, err := f.vectors.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "deterministic chunk ids must overwrite, not duplicate")
}

func TestIngest_ResumeSkipsLoadStep(t *testing.T) {
	f := setupIngest(t)
	ctx := context.Background()
	path := writeTextFile(t, "A document whose embedding fails on the first try.")

	f.embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, fmt.Errorf("%w: host down", core.ErrEmbeddingFailed)
	}

	_, err := f.pipeline.Run(ctx, IngestRequest{RunID: "run-1", Path: path, SourceID: "doc1"})
	require.Error(t, err)
	assert.Equal(t, 1, f.loader.calls)

	// Resume the same run with a healthy embedder: the load step is
	// replayed from its persisted result.
	f.embedder.EmbedTextsFunc = nil
	result, err := f.pipeline.Run(ctx, IngestRequest{RunID: "run-1", Path: path, SourceID: "doc1"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Ingested)
	assert.Equal(t, 1, f.loader.calls, "load step must not run again on resume")
}

func TestIngest_MissingFile(t *testing.T) {
	f := setupIngest(t)

	_, err := f.pipeline.Run(context.Background(), IngestRequest{RunID: "run-1", Path: "/nonexistent/doc.pdf"})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrLoadFailed)
	assert.False(t, core.Retryable(err))
}

func TestIngest_EmptyDocument(t *testing.T) {
	f := setupIngest(t)
	ctx := context.Background()
	path := writeTextFile(t, "")

	result, err := f.pipeline.Run(ctx, IngestRequest{RunID: "run-1", Path: path, SourceID: "empty"})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Ingested)

	count, err := f.vectors.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestIngest_MultiChunkDocument(t *testing.T) {
	f := setupIngest(t)
	ctx := context.Background()

	// Long enough to split into several chunks at the default size.
	var content []byte
	sentence := "This sentence pads the document to force multiple chunks. "
	for len(content) < 3500 {
		content = append(content, sentence...)
	}
	path := writeTextFile(t, string(content))

	result, err := f.pipeline.Run(ctx, IngestRequest{RunID: "run-1", Path: path, SourceID: "doc1"})
	require.NoError(t, err)
	assert.Greater(t, result.Ingested, 1)

	count, err := f.vectors.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, result.Ingested, count)
}
