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

// IngestRequest asks the ingest pipeline to index one source document.
type IngestRequest struct {
	// RunID identifies the durable run; re-submitting with the same
	// RunID resumes the run instead of starting over.
	RunID string

	// Path is the local path of the document to ingest.
	Path string

	// SourceID labels the document in the index. Defaults to Path.
	SourceID string
}

// IngestResult reports a completed ingest run.
type IngestResult struct {
	SourceID string
	Ingested int
}

// QueryRequest asks the query pipeline to answer a question from the
// indexed documents.
type QueryRequest struct {
	// RunID identifies the durable run; re-submitting with the same
	// RunID resumes the run instead of starting over.
	RunID string

	Question string

	// TopK bounds how many contexts are retrieved. Defaults to
	// DefaultTopK when zero.
	TopK int
}

// SearchOutcome is the persisted result of the retrieval step: the
// context texts to ground the answer on and the source labels they came
// from, in descending similarity order.
type SearchOutcome struct {
	Contexts []string
	Sources  []string
}

// QueryResult reports a completed query run.
type QueryResult struct {
	Answer      string
	Sources     []string
	NumContexts int
}
