// Package badger implements the storage interfaces on BadgerDB.
// It provides the embedded vector index and the durable step store; both
// share a single Backend so a pipeline's step state and its index records
// live in one database directory.
//
// Similarity search is a brute-force cosine scan over all stored records,
// which is adequate for single-node corpora; an approximate index is the
// remote store's concern.
package badger
