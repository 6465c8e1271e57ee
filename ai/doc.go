// Package ai defines the interfaces for external model services used by the
// pipelines: text embedding and answer generation. Implementations live in
// subpackages (openai for OpenAI-compatible APIs, mock for test doubles).
//
// All implementations must be thread-safe for concurrent use; pipelines for
// different runs may call them in parallel.
package ai
