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


package badger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/ragpipe/core"
	"github.com/poiesic/ragpipe/storage"
)

// StepStore implements storage.StepStore for BadgerDB.
//
// The pending → running transition happens inside a single read-write
// transaction, so two concurrent executions of the same (runId, stepName)
// cannot both claim the step: the loser either observes the running status
// or hits a transaction conflict, and both map to ErrStepRunning.
type StepStore struct {
	backend *Backend
	logger  *slog.Logger
}

var _ storage.StepStore = (*StepStore)(nil)

// NewStepStore creates a step store on the given backend.
func NewStepStore(backend *Backend) *StepStore {
	return &StepStore{
		backend: backend,
		logger:  slog.Default().With("component", "badger-steps"),
	}
}

// GetStep retrieves the step record for (runID, stepName).
// Returns storage.ErrNotFound if the step has never been recorded.
func (s *StepStore) GetStep(ctx context.Context, runID, stepName string) (*core.StepRecord, error) {
	var record *core.StepRecord
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		record, err = s.readStep(tx, runID, stepName)
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, storage.ErrNotFound
	}
	return record, nil
}

// BeginStep claims a step for execution.
// A succeeded step is returned as-is without state change, so the caller
// can serve the cached result. A new, pending, or failed step transitions
// to running. A step already running returns storage.ErrStepRunning.
func (s *StepStore) BeginStep(ctx context.Context, runID, stepName string) (*core.StepRecord, error) {
	var record *core.StepRecord
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		existing, err := s.readStep(tx, runID, stepName)
		if err != nil {
			return err
		}

		if existing == nil {
			existing = &core.StepRecord{
				RunID:    runID,
				StepName: stepName,
				Status:   core.StepStatusPending,
			}
		}

		switch existing.Status {
		case core.StepStatusSucceeded:
			record = existing
			return nil
		case core.StepStatusRunning:
			return storage.ErrStepRunning
		}

		existing.Status = core.StepStatusRunning
		existing.UpdatedAt = time.Now().UTC()
		if err := s.writeStep(tx, existing); err != nil {
			return err
		}
		record = existing
		return tx.Commit()
	}, true)

	if errors.Is(err, badger.ErrConflict) {
		// Lost the claim race to a concurrent execution.
		return nil, storage.ErrStepRunning
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

// CompleteStep marks a running step succeeded and stores its result.
// Succeeded is terminal: the record becomes immutable.
func (s *StepStore) CompleteStep(ctx context.Context, record *core.StepRecord, result []byte) error {
	return s.backend.WithTx(func(tx *badger.Txn) error {
		existing, err := s.readStep(tx, record.RunID, record.StepName)
		if err != nil {
			return err
		}
		if existing == nil {
			return storage.ErrNotFound
		}
		if existing.Status == core.StepStatusSucceeded {
			return storage.ErrStepImmutable
		}

		record.Status = core.StepStatusSucceeded
		record.Result = result
		record.Attempt = existing.Attempt
		record.UpdatedAt = time.Now().UTC()
		if err := s.writeStep(tx, record); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// FailStep marks a running step failed and increments its attempt counter,
// returning it to a retryable state.
func (s *StepStore) FailStep(ctx context.Context, record *core.StepRecord) error {
	return s.backend.WithTx(func(tx *badger.Txn) error {
		existing, err := s.readStep(tx, record.RunID, record.StepName)
		if err != nil {
			return err
		}
		if existing == nil {
			return storage.ErrNotFound
		}
		if existing.Status == core.StepStatusSucceeded {
			return storage.ErrStepImmutable
		}

		record.Status = core.StepStatusFailed
		record.Attempt = existing.Attempt + 1
		record.UpdatedAt = time.Now().UTC()
		if err := s.writeStep(tx, record); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// Close is a no-op; the shared Backend owns the database handle.
func (s *StepStore) Close() error {
	return nil
}

// readStep reads and unmarshals a step record inside tx.
// Returns nil, nil when the key does not exist.
func (s *StepStore) readStep(tx *badger.Txn, runID, stepName string) (*core.StepRecord, error) {
	item, err := tx.Get(makeStepRecordKey(runID, stepName))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var record *core.StepRecord
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		record, unmarshalErr = storage.UnmarshalStepRecord(val)
		return unmarshalErr
	})
	return record, err
}

// writeStep validates and marshals a step record inside tx.
func (s *StepStore) writeStep(tx *badger.Txn, record *core.StepRecord) error {
	if err := core.ValidateStepRecord(record); err != nil {
		return err
	}
	key := makeStepRecordKey(record.RunID, record.StepName)
	return tx.Set(key, storage.MarshalStepRecord(record))
}
