// Package chunker splits raw document text into overlapping fixed-size
// chunks for embedding and retrieval. Splitting is sentence-aware where
// possible, with a hard cut when no sentence boundary fits the window.
//
// The trailing overlap of each chunk is copied into the start of the next,
// so local context survives chunk boundaries. Trimming that overlap from
// every chunk after the first and concatenating reconstructs the input
// exactly.
package chunker
