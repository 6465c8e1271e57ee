// Package storage defines the persistence contracts used by the pipelines:
// vector stores for index records and step stores for durable step state.
// Backends live in subpackages (badger for the embedded store, qdrant for a
// remote index).
//
// All persisted records are serialized with the MUS format; the serializers
// are defined in this package so every backend stores identical bytes.
package storage
