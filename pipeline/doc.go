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


// Package pipeline implements the two document pipelines: ingest
// (load, chunk, embed, upsert) and query (embed, search, augment,
// generate). Each pipeline runs as a sequence of durable steps, so a
// re-executed run replays completed steps from their persisted results
// instead of repeating their side effects.
package pipeline
