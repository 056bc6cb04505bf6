package treewalk

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		path := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
	}
}

func TestListFiles(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root,
		"services/api/main.go",
		"services/web/src/index.ts",
		"services/README.md",
		"services/.git/HEAD",
		"services/api/.git/config",
		"docs/intro.md",
	)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "services", "empty"), 0o755))

	files, err := New(root, nil).ListFiles(context.Background(), "services")

	require.NoError(t, err)
	assert.Equal(t, []string{
		"services/README.md",
		"services/api/main.go",
		"services/web/src/index.ts",
	}, files)
}

func TestListFiles_TrailingSlashAndRoot(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "a/b/c.txt", "top.txt", ".git/HEAD")

	a := New(root, nil)

	files, err := a.ListFiles(context.Background(), "a/")
	require.NoError(t, err)
	assert.Equal(t, []string{"a/b/c.txt"}, files)

	files, err = a.ListFiles(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a/b/c.txt", "top.txt"}, files)
}

func TestListFiles_AbsoluteDir(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "services/api/main.go")

	files, err := New(root, nil).ListFiles(context.Background(), filepath.Join(root, "services"))

	require.NoError(t, err)
	assert.Equal(t, []string{"services/api/main.go"}, files)
}

func TestListFiles_MissingDir(t *testing.T) {
	_, err := New(t.TempDir(), nil).ListFiles(context.Background(), "nope")
	assert.Error(t, err)
}

func TestListFiles_NotADirectory(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "file.txt")

	_, err := New(root, nil).ListFiles(context.Background(), "file.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}

func TestListFiles_CanceledContext(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "a/b.txt")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(root, nil).ListFiles(ctx, "a")
	assert.ErrorIs(t, err, context.Canceled)
}
