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
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/ragpipe/core"
	"github.com/poiesic/ragpipe/storage"
)

// MUS serializers for the step payloads that the executor persists.

// ChunksMUS serializes the load-and-chunk step result.
var ChunksMUS = ord.NewSliceSer[core.Chunk](storage.ChunkMUS)

// StringsMUS serializes string slices inside step payloads.
var StringsMUS = ord.NewSliceSer[string](ord.String)

// IngestResultMUS serializes the embed-and-upsert step result.
var IngestResultMUS = ingestResultMUS{}

type ingestResultMUS struct{}

func (ingestResultMUS) Marshal(r IngestResult, bs []byte) (n int) {
	n = ord.String.Marshal(r.SourceID, bs)
	n += varint.Int.Marshal(r.Ingested, bs[n:])
	return
}

func (ingestResultMUS) Unmarshal(bs []byte) (r IngestResult, n int, err error) {
	var n1 int
	r.SourceID, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	r.Ingested, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	return
}

func (ingestResultMUS) Size(r IngestResult) (size int) {
	size = ord.String.Size(r.SourceID)
	size += varint.Int.Size(r.Ingested)
	return
}

func (ingestResultMUS) Skip(bs []byte) (n int, err error) {
	var n1 int
	n, err = ord.String.Skip(bs)
	if err != nil {
		return
	}
	n1, err = varint.Int.Skip(bs[n:])
	n += n1
	return
}

// SearchOutcomeMUS serializes the embed-and-search step result.
var SearchOutcomeMUS = searchOutcomeMUS{}

type searchOutcomeMUS struct{}

func (searchOutcomeMUS) Marshal(o SearchOutcome, bs []byte) (n int) {
	n = StringsMUS.Marshal(o.Contexts, bs)
	n += StringsMUS.Marshal(o.Sources, bs[n:])
	return
}

func (searchOutcomeMUS) Unmarshal(bs []byte) (o SearchOutcome, n int, err error) {
	var n1 int
	o.Contexts, n, err = StringsMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	o.Sources, n1, err = StringsMUS.Unmarshal(bs[n:])
	n += n1
	return
}

func (searchOutcomeMUS) Size(o SearchOutcome) (size int) {
	size = StringsMUS.Size(o.Contexts)
	size += StringsMUS.Size(o.Sources)
	return
}

func (searchOutcomeMUS) Skip(bs []byte) (n int, err error) {
	var n1 int
	n, err = StringsMUS.Skip(bs)
	if err != nil {
		return
	}
	n1, err = StringsMUS.Skip(bs[n:])
	n += n1
	return
}
