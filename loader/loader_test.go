package loader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/ragpipe/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileLoader_LoadText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	content := "The Eiffel Tower is in Paris. It was completed in 1889."
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	segments, err := NewFileLoader().Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, segments, 1)
	assert.Equal(t, content, segments[0])
}

func TestFileLoader_LoadMissingFile(t *testing.T) {
	_, err := NewFileLoader().Load(context.Background(), filepath.Join(t.TempDir(), "absent.pdf"))
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrLoadFailed)
	assert.False(t, core.Retryable(err), "load failures must not be retryable")
}

func TestFileLoader_LoadCorruptPDF(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.pdf")
	require.NoError(t, os.WriteFile(path, []byte("not a pdf"), 0644))

	_, err := NewFileLoader().Load(context.Background(), path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrLoadFailed))
}
