package trigger

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/ragpipe/pipeline"
	"github.com/poiesic/ragpipe/workflow"
)

// IngestEvent asks for a document to be indexed.
type IngestEvent struct {
	PDFPath  string `json:"pdf_path"`
	SourceID string `json:"source_id,omitempty"`
}

// QueryEvent asks for a question to be answered from the index.
type QueryEvent struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k,omitempty"`
}

// Dispatcher executes pipeline runs for incoming events.
type Dispatcher struct {
	ingest      *pipeline.Ingest
	query       *pipeline.Query
	pool        *ants.Pool
	maxAttempts int
	baseDelay   time.Duration
	logger      *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher) error

// WithPoolSize sets the worker pool size for async dispatch.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(d *Dispatcher) error {
		if size < 1 {
			size = 1
		}

		if d.pool != nil {
			d.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		d.pool = pool
		return nil
	}
}

// WithRunRetry sets the whole-run retry policy: how many times a failed
// run is re-executed and the base backoff delay between executions.
func WithRunRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(d *Dispatcher) error {
		if maxAttempts <= 0 {
			return workflow.ErrInvalidMaxAttempts
		}
		d.maxAttempts = maxAttempts
		d.baseDelay = baseDelay
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		d.logger = logger
		return nil
	}
}

// NewDispatcher creates a dispatcher over the two pipelines.
func NewDispatcher(ingest *pipeline.Ingest, query *pipeline.Query, opts ...Option) (*Dispatcher, error) {
	if ingest == nil {
		return nil, ErrIngestPipelineRequired
	}
	if query == nil {
		return nil, ErrQueryPipelineRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	d := &Dispatcher{
		ingest:      ingest,
		query:       query,
		pool:        pool,
		maxAttempts: 3,
		baseDelay:   time.Second,
		logger:      slog.Default().With("component", "dispatcher"),
	}

	for _, opt := range opts {
		if optErr := opt(d); optErr != nil {
			d.Release()
			return nil, optErr
		}
	}
	return d, nil
}

// Ingest runs an ingest event to completion, retrying failed runs per
// the retry policy. Completed steps are not repeated across retries.
func (d *Dispatcher) Ingest(ctx context.Context, event IngestEvent) (*pipeline.IngestResult, error) {
	runID := uuid.NewString()
	d.logger.Info("ingest run starting", "runID", runID, "path", event.PDFPath)

	var result *pipeline.IngestResult
	err := workflow.RetryWithBackoff(ctx, func() error {
		var runErr error
		result, runErr = d.ingest.Run(ctx, pipeline.IngestRequest{
			RunID:    runID,
			Path:     event.PDFPath,
			SourceID: event.SourceID,
		})
		return runErr
	}, d.maxAttempts, d.baseDelay)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Query runs a query event to completion, retrying failed runs per the
// retry policy.
func (d *Dispatcher) Query(ctx context.Context, event QueryEvent) (*pipeline.QueryResult, error) {
	runID := uuid.NewString()
	d.logger.Info("query run starting", "runID", runID)

	var result *pipeline.QueryResult
	err := workflow.RetryWithBackoff(ctx, func() error {
		var runErr error
		result, runErr = d.query.Run(ctx, pipeline.QueryRequest{
			RunID:    runID,
			Question: event.Question,
			TopK:     event.TopK,
		})
		return runErr
	}, d.maxAttempts, d.baseDelay)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DispatchIngest runs an ingest event asynchronously on the worker pool.
// Errors are logged, not returned. The run id is returned immediately.
func (d *Dispatcher) DispatchIngest(event IngestEvent) (string, error) {
	runID := uuid.NewString()
	err := d.pool.Submit(func() {
		err := workflow.RetryWithBackoff(context.Background(), func() error {
			_, runErr := d.ingest.Run(context.Background(), pipeline.IngestRequest{
				RunID:    runID,
				Path:     event.PDFPath,
				SourceID: event.SourceID,
			})
			return runErr
		}, d.maxAttempts, d.baseDelay)
		if err != nil {
			d.logger.Error("ingest run failed", "runID", runID, "err", err)
		}
	})
	if err != nil {
		return "", err
	}
	return runID, nil
}

// DispatchQuery runs a query event asynchronously on the worker pool.
// The answer is logged, not returned; use Query for synchronous answers.
func (d *Dispatcher) DispatchQuery(event QueryEvent) (string, error) {
	runID := uuid.NewString()
	err := d.pool.Submit(func() {
		var result *pipeline.QueryResult
		err := workflow.RetryWithBackoff(context.Background(), func() error {
			var runErr error
			result, runErr = d.query.Run(context.Background(), pipeline.QueryRequest{
				RunID:    runID,
				Question: event.Question,
				TopK:     event.TopK,
			})
			return runErr
		}, d.maxAttempts, d.baseDelay)
		if err != nil {
			d.logger.Error("query run failed", "runID", runID, "err", err)
			return
		}
		d.logger.Info("query run answered", "runID", runID, "contexts", result.NumContexts)
	})
	if err != nil {
		return "", err
	}
	return runID, nil
}

// Release releases the worker pool.
// The dispatcher should not be used after calling Release.
func (d *Dispatcher) Release() {
	if d.pool != nil {
		d.pool.Release()
	}
}
