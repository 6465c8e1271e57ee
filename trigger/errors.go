package trigger

import "errors"

var (
	ErrIngestPipelineRequired = errors.New("ingest pipeline is required")
	ErrQueryPipelineRequired  = errors.New("query pipeline is required")
)
