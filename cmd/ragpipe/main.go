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


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/poiesic/ragpipe"
	"github.com/poiesic/ragpipe/ai"
	"github.com/poiesic/ragpipe/storage/qdrant"
	"github.com/poiesic/ragpipe/trigger"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "ragpipe",
		Usage: "Durable two-stage RAG pipeline over local documents",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "ingest",
				Usage:  "Load, chunk, embed, and index a document",
				Action: ingestCommand,
				Flags: append(commonFlags(),
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Path to the PDF or text document",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "source-id",
						Usage: "Source label for the document (defaults to the file path)",
					},
				),
			},
			{
				Name:   "query",
				Usage:  "Answer a question from the indexed documents",
				Action: queryCommand,
				Flags: append(commonFlags(),
					&cli.StringFlag{
						Name:     "question",
						Aliases:  []string{"q"},
						Usage:    "Question to answer",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "Number of contexts to retrieve",
						Value: 5,
					},
				),
			},
			{
				Name:   "count",
				Usage:  "Report the number of indexed chunks",
				Action: countCommand,
				Flags:  commonFlags(),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "Path to BadgerDB database directory",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "host",
			Usage: "OpenAI-compatible service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: "embeddinggemma",
		},
		&cli.StringFlag{
			Name:  "generation-model",
			Usage: "Generation model name",
			Value: "qwen2.5:3b",
		},
		&cli.StringFlag{
			Name:  "qdrant-url",
			Usage: "Qdrant base URL; when set, vectors are stored in Qdrant instead of BadgerDB",
		},
		&cli.StringFlag{
			Name:  "qdrant-collection",
			Usage: "Qdrant collection name",
			Value: "ragpipe",
		},
		&cli.IntFlag{
			Name:  "embedding-dim",
			Usage: "Embedding vector dimension (used to create the Qdrant collection)",
			Value: 1024,
		},
		&cli.IntFlag{
			Name:  "max-retries",
			Usage: "Maximum retry attempts for a failed run",
			Value: 3,
		},
		&cli.DurationFlag{
			Name:  "retry-delay",
			Usage: "Base delay for exponential backoff",
			Value: 1 * time.Second,
		},
	}
}

func openApp(c *cli.Context) (*ragpipe.App, error) {
	aiConfig := ai.NewConfig(
		ai.WithHost(c.String("host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithGenerationModel(c.String("generation-model")),
	)
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	opts := []ragpipe.AppOption{ragpipe.WithAIConfig(aiConfig)}
	if url := c.String("qdrant-url"); url != "" {
		opts = append(opts, ragpipe.WithQdrant(qdrant.Config{
			URL:        url,
			Collection: c.String("qdrant-collection"),
		}, c.Int("embedding-dim")))
	}

	return ragpipe.Open(c.String("db"), opts...)
}

func newDispatcher(c *cli.Context, app *ragpipe.App) (*trigger.Dispatcher, error) {
	return app.NewDispatcher(
		trigger.WithRunRetry(c.Int("max-retries"), c.Duration("retry-delay")),
	)
}

func ingestCommand(c *cli.Context) error {
	app, err := openApp(c)
	if err != nil {
		return err
	}
	defer app.Close()

	dispatcher, err := newDispatcher(c, app)
	if err != nil {
		return err
	}
	defer dispatcher.Release()

	result, err := dispatcher.Ingest(context.Background(), trigger.IngestEvent{
		PDFPath:  c.String("file"),
		SourceID: c.String("source-id"),
	})
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	fmt.Printf("Ingested %d chunks from %s\n", result.Ingested, result.SourceID)
	return nil
}

func queryCommand(c *cli.Context) error {
	app, err := openApp(c)
	if err != nil {
		return err
	}
	defer app.Close()

	dispatcher, err := newDispatcher(c, app)
	if err != nil {
		return err
	}
	defer dispatcher.Release()

	result, err := dispatcher.Query(context.Background(), trigger.QueryEvent{
		Question: c.String("question"),
		TopK:     c.Int("top-k"),
	})
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	fmt.Println(result.Answer)
	if len(result.Sources) > 0 {
		fmt.Printf("\nSources (%d contexts):\n", result.NumContexts)
		for _, source := range result.Sources {
			fmt.Printf("  - %s\n", source)
		}
	}
	return nil
}

func countCommand(c *cli.Context) error {
	app, err := openApp(c)
	if err != nil {
		return err
	}
	defer app.Close()

	count, err := app.VectorStore().Count(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("%d chunks indexed\n", count)
	return nil
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
