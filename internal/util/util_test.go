package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDir(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "a", "b")

	assert.False(t, DirExists(dir))

	created, err := EnsureDir(dir)
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, DirExists(dir))

	created, err = EnsureDir(dir)
	require.NoError(t, err)
	assert.False(t, created)

	file := filepath.Join(root, "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	assert.False(t, DirExists(file))

	_, err = EnsureDir(file)
	assert.Error(t, err)
}
