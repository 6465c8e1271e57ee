// Package qdrant implements storage.VectorStore against the Qdrant REST
// API. It is a minimal client: it assumes cosine distance, creates the
// collection if missing, and maps index record payloads onto Qdrant point
// payloads.
package qdrant
