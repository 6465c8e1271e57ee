package badger

import (
	"context"
	"log/slog"
	"math"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/ragpipe/core"
	"github.com/poiesic/ragpipe/storage"
)

// VectorStore implements storage.VectorStore for BadgerDB.
type VectorStore struct {
	backend *Backend
	logger  *slog.Logger
}

var _ storage.VectorStore = (*VectorStore)(nil)

// NewVectorStore creates a vector store on the given backend.
func NewVectorStore(backend *Backend) *VectorStore {
	return &VectorStore{
		backend: backend,
		logger:  slog.Default().With("component", "badger-vectors"),
	}
}

// Upsert writes records keyed by their deterministic ids.
// An existing id is overwritten; re-ingesting a source replaces its
// records instead of duplicating them.
func (s *VectorStore) Upsert(ctx context.Context, records ...*core.IndexRecord) error {
	for _, record := range records {
		if err := core.ValidateIndexRecord(record); err != nil {
			return err
		}
	}

	return s.backend.WithTx(func(tx *badger.Txn) error {
		for _, record := range records {
			key := makeIndexRecordKey(record.Id)
			if err := tx.Set(key, storage.MarshalIndexRecord(record)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// Search scans all index records and returns up to topK matches ranked by
// descending cosine similarity to the query vector.
func (s *VectorStore) Search(ctx context.Context, vector []float32, topK int) ([]*core.SearchResult, error) {
	if err := core.ValidateTopK(topK); err != nil {
		return nil, err
	}

	var results []*core.SearchResult

	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(indexRecordPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			item := iter.Item()

			var record *core.IndexRecord
			err := item.Value(func(val []byte) error {
				var err error
				record, err = storage.UnmarshalIndexRecord(val)
				return err
			})
			if err != nil {
				return err
			}
			if record == nil || len(record.Vector) == 0 {
				continue
			}

			results = append(results, &core.SearchResult{
				Id:     record.Id,
				Source: record.Source,
				Text:   record.Text,
				Score:  cosineSimilarity(vector, record.Vector),
			})
		}

		return nil
	}, false)

	if err != nil {
		return nil, err
	}

	// Sort by similarity descending
	slices.SortFunc(results, func(a, b *core.SearchResult) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})

	if len(results) > topK {
		results = results[:topK]
	}

	return results, nil
}

// Count reports the number of stored index records.
func (s *VectorStore) Count(ctx context.Context) (int, error) {
	count := 0
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(indexRecordPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Close is a no-op; the shared Backend owns the database handle.
func (s *VectorStore) Close() error {
	return nil
}

// cosineSimilarity calculates the cosine similarity of two vectors.
// Vectors of mismatched length are compared over their common prefix.
func cosineSimilarity(a, b []float32) float32 {
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < minLen; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
