package core

import (
	"testing"
)

func TestChunkID(t *testing.T) {
	tests := []struct {
		name     string
		sourceID string
		index    int
	}{
		{
			name:     "basic source",
			sourceID: "doc1",
			index:    0,
		},
		{
			name:     "empty source",
			sourceID: "",
			index:    0,
		},
		{
			name:     "path-like source",
			sourceID: "/data/reports/q3-summary.pdf",
			index:    17,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := ChunkID(tt.sourceID, tt.index)
			id2 := ChunkID(tt.sourceID, tt.index)

			if id1 != id2 {
				t.Errorf("ChunkID() produced different ids for same input: %s vs %s", id1, id2)
			}
			if len(id1) != 36 {
				t.Errorf("ChunkID() = %q, want canonical UUID string", id1)
			}
		})
	}
}

func TestChunkID_Different(t *testing.T) {
	if ChunkID("doc1", 0) == ChunkID("doc1", 1) {
		t.Errorf("ChunkID() produced same id for different indices")
	}
	if ChunkID("doc1", 0) == ChunkID("doc2", 0) {
		t.Errorf("ChunkID() produced same id for different sources")
	}
	// The separator must keep (source, index) unambiguous.
	if ChunkID("doc1:1", 0) == ChunkID("doc1", 10) {
		t.Errorf("ChunkID() collided across source/index boundary")
	}
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "load failure is permanent", err: ErrLoadFailed, want: false},
		{name: "embedding failure retries", err: ErrEmbeddingFailed, want: true},
		{name: "store failure retries", err: ErrStoreFailed, want: true},
		{name: "generation failure retries", err: ErrGenerationFailed, want: true},
		{name: "validation failure is permanent", err: ErrInvalidChunkParams, want: false},
		{name: "nil error", err: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Retryable(tt.err); got != tt.want {
				t.Errorf("Retryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
