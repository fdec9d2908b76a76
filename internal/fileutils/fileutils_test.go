package fileutils_test

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/rullmann/portfolio-now-sub005/internal/fileutils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileExists(t *testing.T) {
	tmpDir := t.TempDir()
	file := filepath.Join(tmpDir, "ledger.yaml")
	require.NoError(t, os.WriteFile(file, []byte("[]"), 0600))

	assert.True(t, fileutils.FileExists(file))
	assert.False(t, fileutils.FileExists(filepath.Join(tmpDir, "missing.yaml")))
	assert.False(t, fileutils.FileExists(tmpDir), "a directory is not a file")

	// Stat failures other than not-exist (here ENOTDIR) also report false.
	assert.False(t, fileutils.FileExists(filepath.Join(file, "nested.yaml")))
}

func TestWritePrivateFileCreatesParents(t *testing.T) {
	tmpDir := t.TempDir()
	file := filepath.Join(tmpDir, "conversations", "abc.yaml")

	err := fileutils.WritePrivateFile(file, []byte("conversation: {}\n"))
	require.NoError(t, err)

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, "conversation: {}\n", string(data))
}

func TestWritePrivateFilePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not meaningful on windows")
	}
	tmpDir := t.TempDir()
	file := filepath.Join(tmpDir, "secrets.yaml")

	require.NoError(t, fileutils.WritePrivateFile(file, []byte("x")))

	info, err := os.Stat(file)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestWritePrivateFileReplacesExisting(t *testing.T) {
	tmpDir := t.TempDir()
	file := filepath.Join(tmpDir, "ledger.yaml")

	require.NoError(t, fileutils.WritePrivateFile(file, []byte("first")))
	require.NoError(t, fileutils.WritePrivateFile(file, []byte("second")))

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	entries, err := os.ReadDir(tmpDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestListFilesWithExtension(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "a.yaml"), []byte("a"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "b.yaml"), []byte("b"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "notes.txt"), []byte("n"), 0600))
	require.NoError(t, os.Mkdir(filepath.Join(tmpDir, "sub.yaml"), 0700))

	files, err := fileutils.ListFilesWithExtension(tmpDir, ".yaml")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join(tmpDir, "a.yaml"),
		filepath.Join(tmpDir, "b.yaml"),
	}, files)
}

func TestListFilesWithExtensionMissingDir(t *testing.T) {
	files, err := fileutils.ListFilesWithExtension(filepath.Join(t.TempDir(), "nope"), ".yaml")
	assert.NoError(t, err)
	assert.Empty(t, files)
}
