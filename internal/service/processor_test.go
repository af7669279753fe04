package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectImagesCombinesArgsAndFolder(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.png", "b.JPG", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))

	extra := filepath.Join(t.TempDir(), "extra.jpeg")
	require.NoError(t, os.WriteFile(extra, []byte("x"), 0o644))

	files, err := collectImages(RunOptions{Images: []string{extra}, Folder: dir})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		extra,
		filepath.Join(dir, "a.png"),
		filepath.Join(dir, "b.JPG"),
	}, files)
}

func TestCollectImagesWithoutFolder(t *testing.T) {
	files, err := collectImages(RunOptions{Images: []string{"one.png", "two.jpg"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"one.png", "two.jpg"}, files)
}

func TestCollectImagesMissingFolder(t *testing.T) {
	_, err := collectImages(RunOptions{Folder: filepath.Join(t.TempDir(), "absent")})
	require.Error(t, err)
}
