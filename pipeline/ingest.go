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
	"log/slog"
	"strings"

	"github.com/poiesic/ragpipe/ai"
	"github.com/poiesic/ragpipe/chunker"
	"github.com/poiesic/ragpipe/core"
	"github.com/poiesic/ragpipe/loader"
	"github.com/poiesic/ragpipe/storage"
	"github.com/poiesic/ragpipe/workflow"
)

// Step names of the ingest pipeline.
const (
	StepLoadAndChunk   = "load-and-chunk"
	StepEmbedAndUpsert = "embed-and-upsert"
)

// Ingest indexes source documents: it loads a document, chunks its
// text, embeds each chunk, and upserts the embeddings into the vector
// store. Both stages run as durable steps under the executor.
type Ingest struct {
	loader   loader.Loader
	chunker  *chunker.Chunker
	embedder ai.Embedder
	vectors  storage.VectorStore
	executor *workflow.Executor
	logger   *slog.Logger
}

// NewIngest creates the ingest pipeline.
func NewIngest(ldr loader.Loader, chk *chunker.Chunker, embedder ai.Embedder, vectors storage.VectorStore, executor *workflow.Executor) *Ingest {
	return &Ingest{
		loader:   ldr,
		chunker:  chk,
		embedder: embedder,
		vectors:  vectors,
		executor: executor,
		logger:   slog.Default().With("component", "ingest-pipeline"),
	}
}

// Run executes (or resumes) an ingest run. Chunk ids are derived from
// the source id and chunk index, so re-ingesting the same document
// overwrites its existing records instead of duplicating them.
func (p *Ingest) Run(ctx context.Context, req IngestRequest) (*IngestResult, error) {
	sourceID := req.SourceID
	if sourceID == "" {
		sourceID = req.Path
	}

	chunks, err := workflow.Run(ctx, p.executor, req.RunID, StepLoadAndChunk, ChunksMUS,
		func(ctx context.Context) ([]core.Chunk, error) {
			segments, err := p.loader.Load(ctx, req.Path)
			if err != nil {
				return nil, err
			}
			text := strings.Join(segments, "\n\n")
			return p.chunker.SplitAll(text, sourceID), nil
		})
	if err != nil {
		return nil, err
	}

	result, err := workflow.Run(ctx, p.executor, req.RunID, StepEmbedAndUpsert, IngestResultMUS,
		func(ctx context.Context) (IngestResult, error) {
			return p.embedAndUpsert(ctx, sourceID, chunks)
		})
	if err != nil {
		return nil, err
	}

	p.logger.Info("ingest run complete", "runID", req.RunID, "source", result.SourceID, "ingested", result.Ingested)
	return &result, nil
}

func (p *Ingest) embedAndUpsert(ctx context.Context, sourceID string, chunks []core.Chunk) (IngestResult, error) {
	if len(chunks) == 0 {
		return IngestResult{SourceID: sourceID}, nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	vectors, err := p.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return IngestResult{}, err
	}

	records := make([]*core.IndexRecord, len(chunks))
	for i, chunk := range chunks {
		records[i] = &core.IndexRecord{
			Id:     core.ChunkID(chunk.SourceID, chunk.Index),
			Vector: vectors[i],
			Source: chunk.SourceID,
			Text:   chunk.Text,
		}
	}

	if err := p.vectors.Upsert(ctx, records...); err != nil {
		return IngestResult{}, fmt.Errorf("%w: %w", core.ErrStoreFailed, err)
	}
	return IngestResult{SourceID: sourceID, Ingested: len(records)}, nil
}
