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


package storage

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/ragpipe/core"
)

// VectorMUS serializes embedding vectors with fixed-width float32 elements.
var VectorMUS = ord.NewSliceSer[float32](raw.Float32)

// BytesMUS serializes opaque byte payloads such as cached step results.
var BytesMUS = ord.NewSliceSer[byte](raw.Byte)

// TimeMicroMUS serializes timestamps as Unix microseconds.
var TimeMicroMUS = timeMicroMUS{}

type timeMicroMUS struct{}

func (timeMicroMUS) Marshal(t time.Time, bs []byte) (n int) {
	return varint.Int64.Marshal(t.UnixMicro(), bs)
}

func (timeMicroMUS) Unmarshal(bs []byte) (t time.Time, n int, err error) {
	micro, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return
	}
	t = time.UnixMicro(micro).UTC()
	return
}

func (timeMicroMUS) Size(t time.Time) (size int) {
	return varint.Int64.Size(t.UnixMicro())
}

func (timeMicroMUS) Skip(bs []byte) (n int, err error) {
	return varint.Int64.Skip(bs)
}

// ChunkMUS serializes core.Chunk.
var ChunkMUS = chunkMUS{}

type chunkMUS struct{}

func (chunkMUS) Marshal(c core.Chunk, bs []byte) (n int) {
	n = ord.String.Marshal(c.Text, bs)
	n += ord.String.Marshal(c.SourceID, bs[n:])
	n += varint.Int.Marshal(c.Index, bs[n:])
	return
}

func (chunkMUS) Unmarshal(bs []byte) (c core.Chunk, n int, err error) {
	var n1 int
	c.Text, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	c.SourceID, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	c.Index, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	return
}

func (chunkMUS) Size(c core.Chunk) (size int) {
	size = ord.String.Size(c.Text)
	size += ord.String.Size(c.SourceID)
	size += varint.Int.Size(c.Index)
	return
}

func (chunkMUS) Skip(bs []byte) (n int, err error) {
	var n1 int
	n, err = ord.String.Skip(bs)
	if err != nil {
		return
	}
	n1, err = ord.String.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = varint.Int.Skip(bs[n:])
	n += n1
	return
}

// IndexRecordMUS serializes core.IndexRecord.
var IndexRecordMUS = indexRecordMUS{}

type indexRecordMUS struct{}

func (indexRecordMUS) Marshal(r core.IndexRecord, bs []byte) (n int) {
	n = ord.String.Marshal(r.Id, bs)
	n += VectorMUS.Marshal(r.Vector, bs[n:])
	n += ord.String.Marshal(r.Source, bs[n:])
	n += ord.String.Marshal(r.Text, bs[n:])
	return
}

func (indexRecordMUS) Unmarshal(bs []byte) (r core.IndexRecord, n int, err error) {
	var n1 int
	r.Id, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	r.Vector, n1, err = VectorMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	r.Source, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	r.Text, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	return
}

func (indexRecordMUS) Size(r core.IndexRecord) (size int) {
	size = ord.String.Size(r.Id)
	size += VectorMUS.Size(r.Vector)
	size += ord.String.Size(r.Source)
	size += ord.String.Size(r.Text)
	return
}

func (indexRecordMUS) Skip(bs []byte) (n int, err error) {
	var n1 int
	n, err = ord.String.Skip(bs)
	if err != nil {
		return
	}
	n1, err = VectorMUS.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = ord.String.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = ord.String.Skip(bs[n:])
	n += n1
	return
}

// StepRecordMUS serializes core.StepRecord.
var StepRecordMUS = stepRecordMUS{}

type stepRecordMUS struct{}

func (stepRecordMUS) Marshal(r core.StepRecord, bs []byte) (n int) {
	n = ord.String.Marshal(r.RunID, bs)
	n += ord.String.Marshal(r.StepName, bs[n:])
	n += varint.Int.Marshal(int(r.Status), bs[n:])
	n += BytesMUS.Marshal(r.Result, bs[n:])
	n += varint.Int.Marshal(r.Attempt, bs[n:])
	n += TimeMicroMUS.Marshal(r.UpdatedAt, bs[n:])
	return
}

func (stepRecordMUS) Unmarshal(bs []byte) (r core.StepRecord, n int, err error) {
	var n1 int
	r.RunID, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	r.StepName, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	var status int
	status, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	r.Status = core.StepStatus(status)
	r.Result, n1, err = BytesMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	r.Attempt, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	r.UpdatedAt, n1, err = TimeMicroMUS.Unmarshal(bs[n:])
	n += n1
	return
}

func (stepRecordMUS) Size(r core.StepRecord) (size int) {
	size = ord.String.Size(r.RunID)
	size += ord.String.Size(r.StepName)
	size += varint.Int.Size(int(r.Status))
	size += BytesMUS.Size(r.Result)
	size += varint.Int.Size(r.Attempt)
	size += TimeMicroMUS.Size(r.UpdatedAt)
	return
}

func (stepRecordMUS) Skip(bs []byte) (n int, err error) {
	var n1 int
	n, err = ord.String.Skip(bs)
	if err != nil {
		return
	}
	n1, err = ord.String.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = varint.Int.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = BytesMUS.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = varint.Int.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = TimeMicroMUS.Skip(bs[n:])
	n += n1
	return
}

// MarshalIndexRecord serializes an IndexRecord to bytes.
func MarshalIndexRecord(record *core.IndexRecord) []byte {
	buf := make([]byte, IndexRecordMUS.Size(*record))
	IndexRecordMUS.Marshal(*record, buf)
	return buf
}

// UnmarshalIndexRecord deserializes an IndexRecord from bytes.
func UnmarshalIndexRecord(data []byte) (*core.IndexRecord, error) {
	record, _, err := IndexRecordMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &record, nil
}

// MarshalStepRecord serializes a StepRecord to bytes.
func MarshalStepRecord(record *core.StepRecord) []byte {
	buf := make([]byte, StepRecordMUS.Size(*record))
	StepRecordMUS.Marshal(*record, buf)
	return buf
}

// UnmarshalStepRecord deserializes a StepRecord from bytes.
func UnmarshalStepRecord(data []byte) (*core.StepRecord, error) {
	record, _, err := StepRecordMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &record, nil
}
