package chunker

import (
	"iter"
	"slices"

	"github.com/poiesic/ragpipe/core"
)

const (
	// DefaultSize is the default chunk size in runes, matching a paragraph
	// or two of prose.
	DefaultSize = 1000

	// DefaultOverlap is the default number of trailing runes carried into
	// the next chunk.
	DefaultOverlap = 200
)

// Chunker splits text into overlapping chunks. It is stateless and safe
// for concurrent use.
type Chunker struct {
	size    int
	overlap int
}

// New creates a Chunker. size and overlap are measured in runes and must
// satisfy size > overlap >= 0.
func New(size, overlap int) (*Chunker, error) {
	if err := core.ValidateChunkParams(size, overlap); err != nil {
		return nil, err
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Split returns a lazy, finite sequence of chunks over text. The sequence
// is restartable: ranging over it again re-splits from the beginning.
// Chunk indices start at 0 and increase in document order.
func (c *Chunker) Split(text, sourceID string) iter.Seq[core.Chunk] {
	return func(yield func(core.Chunk) bool) {
		runes := []rune(text)
		start := 0
		index := 0
		for start < len(runes) {
			remaining := len(runes) - start
			if remaining <= c.size {
				yield(core.Chunk{
					Text:     string(runes[start:]),
					SourceID: sourceID,
					Index:    index,
				})
				return
			}

			cut := c.cutPoint(runes[start : start+c.size])
			ok := yield(core.Chunk{
				Text:     string(runes[start : start+cut]),
				SourceID: sourceID,
				Index:    index,
			})
			if !ok {
				return
			}

			// Progress is guaranteed because cut > overlap.
			start += cut - c.overlap
			index++
		}
	}
}

// SplitAll splits text eagerly and returns all chunks.
func (c *Chunker) SplitAll(text, sourceID string) []core.Chunk {
	return slices.Collect(c.Split(text, sourceID))
}

// cutPoint returns the rune offset at which to end the current chunk.
// It prefers the rightmost sentence boundary in the window that still lies
// past the overlap region; when a single sentence exceeds the window it
// falls back to a hard cut at the window edge.
func (c *Chunker) cutPoint(window []rune) int {
	for i := len(window); i > c.overlap; i-- {
		if isSentenceEnd(window[i-1]) {
			return i
		}
	}
	return len(window)
}

func isSentenceEnd(r rune) bool {
	switch r {
	case '.', '!', '?', '\n':
		return true
	}
	return false
}
