package loader

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/poiesic/ragpipe/core"
	"github.com/tmc/langchaingo/documentloaders"
	"github.com/tmc/langchaingo/schema"
)

// Loader extracts text segments from a source document.
type Loader interface {
	// Load reads the document at path and returns its text segments in
	// document order. Errors wrap core.ErrLoadFailed.
	Load(ctx context.Context, path string) ([]string, error)
}

// FileLoader implements Loader for local PDF and plain-text files.
// The format is chosen by file extension; anything that is not a PDF is
// treated as plain text.
type FileLoader struct {
	logger *slog.Logger
}

var _ Loader = (*FileLoader)(nil)

// NewFileLoader creates a loader for local files.
func NewFileLoader() *FileLoader {
	return &FileLoader{
		logger: slog.Default().With("component", "file-loader"),
	}
}

// Load extracts the text segments of the file at path.
// PDF files yield one segment per page; text files yield a single segment.
func (l *FileLoader) Load(ctx context.Context, path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrLoadFailed, err)
	}
	defer file.Close()

	var docs []schema.Document
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		info, err := file.Stat()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", core.ErrLoadFailed, err)
		}
		docs, err = documentloaders.NewPDF(file, info.Size()).Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", core.ErrLoadFailed, err)
		}
	default:
		docs, err = documentloaders.NewText(file).Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", core.ErrLoadFailed, err)
		}
	}

	segments := make([]string, 0, len(docs))
	for _, doc := range docs {
		if doc.PageContent == "" {
			continue
		}
		segments = append(segments, doc.PageContent)
	}

	l.logger.Debug("loaded document", "path", path, "segments", len(segments))
	return segments, nil
}
