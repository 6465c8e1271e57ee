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


package ragpipe

import (
	"context"
	"log/slog"

	"github.com/poiesic/ragpipe/ai"
	"github.com/poiesic/ragpipe/ai/openai"
	"github.com/poiesic/ragpipe/chunker"
	"github.com/poiesic/ragpipe/loader"
	"github.com/poiesic/ragpipe/pipeline"
	"github.com/poiesic/ragpipe/storage"
	"github.com/poiesic/ragpipe/storage/badger"
	"github.com/poiesic/ragpipe/storage/qdrant"
	"github.com/poiesic/ragpipe/trigger"
	"github.com/poiesic/ragpipe/workflow"
)

// App wires the storage backend, AI provider, and the two pipelines
// into one handle. Step records always live in the local badger
// backend; vector records live there too unless a Qdrant store is
// configured.
type App struct {
	backend  *badger.Backend
	vectors  storage.VectorStore
	steps    storage.StepStore
	provider ai.Provider
	executor *workflow.Executor
	ingest   *pipeline.Ingest
	query    *pipeline.Query
	logger   *slog.Logger
}

// AppOption configures an App.
type AppOption func(*appOptions)

type appOptions struct {
	aiConfig        *ai.Config
	chunkSize       int
	chunkOverlap    int
	maxAttempts     int
	qdrantConfig    *qdrant.Config
	qdrantDimension int
}

// WithAIConfig overrides the AI provider configuration.
func WithAIConfig(config *ai.Config) AppOption {
	return func(o *appOptions) {
		o.aiConfig = config
	}
}

// WithChunking overrides the chunk size and overlap (in runes).
func WithChunking(size, overlap int) AppOption {
	return func(o *appOptions) {
		o.chunkSize = size
		o.chunkOverlap = overlap
	}
}

// WithMaxAttempts overrides the per-step attempt ceiling.
func WithMaxAttempts(maxAttempts int) AppOption {
	return func(o *appOptions) {
		o.maxAttempts = maxAttempts
	}
}

// WithQdrant stores vectors in Qdrant instead of the local backend.
// The collection is created with the given vector dimension if missing.
func WithQdrant(config qdrant.Config, dimension int) AppOption {
	return func(o *appOptions) {
		o.qdrantConfig = &config
		o.qdrantDimension = dimension
	}
}

// Open creates an App over the badger database at filePath.
func Open(filePath string, opts ...AppOption) (*App, error) {
	options := &appOptions{
		aiConfig:     ai.DefaultConfig(),
		chunkSize:    chunker.DefaultSize,
		chunkOverlap: chunker.DefaultOverlap,
		maxAttempts:  workflow.DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, false)
	if err != nil {
		return nil, err
	}

	steps := badger.NewStepStore(backend)

	var vectors storage.VectorStore
	if options.qdrantConfig != nil {
		store := qdrant.NewStore(*options.qdrantConfig)
		if err := store.EnsureCollection(context.Background(), options.qdrantDimension); err != nil {
			backend.Close()
			return nil, err
		}
		vectors = store
	} else {
		vectors = badger.NewVectorStore(backend)
	}

	provider, err := openai.NewProvider(options.aiConfig)
	if err != nil {
		vectors.Close()
		backend.Close()
		return nil, err
	}

	executor, err := workflow.NewExecutor(steps, workflow.WithMaxAttempts(options.maxAttempts))
	if err != nil {
		provider.Close()
		vectors.Close()
		backend.Close()
		return nil, err
	}

	chk, err := chunker.New(options.chunkSize, options.chunkOverlap)
	if err != nil {
		provider.Close()
		vectors.Close()
		backend.Close()
		return nil, err
	}

	return &App{
		backend:  backend,
		vectors:  vectors,
		steps:    steps,
		provider: provider,
		executor: executor,
		ingest:   pipeline.NewIngest(loader.NewFileLoader(), chk, provider.Embedder(), vectors, executor),
		query:    pipeline.NewQuery(provider.Embedder(), provider.Generator(), vectors, executor),
		logger:   slog.Default(),
	}, nil
}

func (a *App) Close() error {
	// Close AI provider first
	if err := a.provider.Close(); err != nil {
		a.logger.Error("error closing AI provider", "err", err)
	}

	if err := a.vectors.Close(); err != nil {
		a.logger.Error("error closing vector store", "err", err)
		return err
	}
	if err := a.steps.Close(); err != nil {
		a.logger.Error("error closing step store", "err", err)
		return err
	}

	if err := a.backend.Close(); err != nil {
		a.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (a *App) Ingest() *pipeline.Ingest {
	return a.ingest
}

func (a *App) Query() *pipeline.Query {
	return a.query
}

func (a *App) VectorStore() storage.VectorStore {
	return a.vectors
}

func (a *App) StepStore() storage.StepStore {
	return a.steps
}

func (a *App) NewDispatcher(opts ...trigger.Option) (*trigger.Dispatcher, error) {
	return trigger.NewDispatcher(a.ingest, a.query, opts...)
}
