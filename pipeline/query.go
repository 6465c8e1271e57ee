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

	"github.com/mus-format/mus-go/ord"
	"github.com/poiesic/ragpipe/ai"
	"github.com/poiesic/ragpipe/core"
	"github.com/poiesic/ragpipe/storage"
	"github.com/poiesic/ragpipe/workflow"
)

// Step names of the query pipeline.
const (
	StepEmbedAndSearch = "embed-and-search"
	StepAnswer         = "llm-answer"
)

// DefaultTopK bounds retrieval when the request does not specify a
// limit.
const DefaultTopK = 5

const answerSystemPrompt = "You answer questions using only the provided context."

// Generation parameters for the answer step. Low temperature keeps the
// answer close to the retrieved context.
var answerParams = ai.GenerationParams{
	MaxTokens:   1024,
	Temperature: 0.2,
}

// Query answers questions from the indexed documents: it embeds the
// question, retrieves the nearest chunks, builds a context block, and
// asks the generation model for an answer grounded on that block. Both
// stages run as durable steps under the executor.
type Query struct {
	embedder  ai.Embedder
	generator ai.Generator
	vectors   storage.VectorStore
	executor  *workflow.Executor
	logger    *slog.Logger
}

// NewQuery creates the query pipeline.
func NewQuery(embedder ai.Embedder, generator ai.Generator, vectors storage.VectorStore, executor *workflow.Executor) *Query {
	return &Query{
		embedder:  embedder,
		generator: generator,
		vectors:   vectors,
		executor:  executor,
		logger:    slog.Default().With("component", "query-pipeline"),
	}
}

// Run executes (or resumes) a query run. An empty index is not an
// error: the answer is generated from an empty context block and
// NumContexts reports zero.
func (p *Query) Run(ctx context.Context, req QueryRequest) (*QueryResult, error) {
	topK := req.TopK
	if topK == 0 {
		topK = DefaultTopK
	}
	if err := core.ValidateTopK(topK); err != nil {
		return nil, err
	}

	found, err := workflow.Run(ctx, p.executor, req.RunID, StepEmbedAndSearch, SearchOutcomeMUS,
		func(ctx context.Context) (SearchOutcome, error) {
			return p.embedAndSearch(ctx, req.Question, topK)
		})
	if err != nil {
		return nil, err
	}

	contextBlock := BuildContextBlock(found.Contexts)

	answer, err := workflow.Run(ctx, p.executor, req.RunID, StepAnswer, ord.String,
		func(ctx context.Context) (string, error) {
			return p.generator.Generate(ctx, answerSystemPrompt, buildUserPrompt(contextBlock, req.Question), answerParams)
		})
	if err != nil {
		return nil, err
	}

	p.logger.Info("query run complete", "runID", req.RunID, "contexts", len(found.Contexts))
	return &QueryResult{
		Answer:      strings.TrimSpace(answer),
		Sources:     found.Sources,
		NumContexts: len(found.Contexts),
	}, nil
}

func (p *Query) embedAndSearch(ctx context.Context, question string, topK int) (SearchOutcome, error) {
	vectors, err := p.embedder.EmbedTexts(ctx, []string{question})
	if err != nil {
		return SearchOutcome{}, err
	}

	results, err := p.vectors.Search(ctx, vectors[0], topK)
	if err != nil {
		return SearchOutcome{}, fmt.Errorf("%w: %w", core.ErrStoreFailed, err)
	}

	outcome := SearchOutcome{
		Contexts: make([]string, 0, len(results)),
		Sources:  make([]string, 0, len(results)),
	}
	for _, result := range results {
		outcome.Contexts = append(outcome.Contexts, result.Text)
		outcome.Sources = append(outcome.Sources, result.Source)
	}
	return outcome, nil
}

// BuildContextBlock renders retrieved contexts as a bulleted block, one
// bullet per context, separated by blank lines. An empty context list
// yields an empty block.
func BuildContextBlock(contexts []string) string {
	bullets := make([]string, len(contexts))
	for i, c := range contexts {
		bullets[i] = "- " + c
	}
	return strings.Join(bullets, "\n\n")
}

func buildUserPrompt(contextBlock, question string) string {
	return "Use the following context to answer the question. \n\n" +
		"Context:\n" + contextBlock + "\n\n" +
		"Question: " + question + "\n" +
		"Answer concisely using the context above."
}
