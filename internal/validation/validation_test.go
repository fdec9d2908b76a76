package validation_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rullmann/portfolio-now-sub005/internal/validation"

	"github.com/stretchr/testify/assert"
)

func TestIsValidDocument(t *testing.T) {
	tmpDir := t.TempDir()

	pdfFile := filepath.Join(tmpDir, "statement.pdf")
	assert.NoError(t, os.WriteFile(pdfFile, []byte("%PDF-1.4"), 0600))
	txtFile := filepath.Join(tmpDir, "notes.txt")
	assert.NoError(t, os.WriteFile(txtFile, []byte("text"), 0600))

	tests := []struct {
		name        string
		path        string
		expectError bool
	}{
		{name: "pdf document", path: pdfFile, expectError: false},
		{name: "unsupported extension", path: txtFile, expectError: true},
		{name: "directory", path: tmpDir, expectError: true},
		{name: "missing file", path: filepath.Join(tmpDir, "nope.png"), expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validation.IsValidDocument(tt.path)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestIsValidDataDir(t *testing.T) {
	tmpDir := t.TempDir()

	file := filepath.Join(tmpDir, "occupied")
	assert.NoError(t, os.WriteFile(file, []byte("x"), 0600))

	assert.NoError(t, validation.IsValidDataDir(tmpDir))
	assert.NoError(t, validation.IsValidDataDir(filepath.Join(tmpDir, "not-yet-created")))
	assert.Error(t, validation.IsValidDataDir(file))
}

func TestIsValidFilePermissions(t *testing.T) {
	assert.NoError(t, validation.IsValidFilePermissions(0600))
	assert.NoError(t, validation.IsValidFilePermissions(0640))
	assert.Error(t, validation.IsValidFilePermissions(0644))
	assert.Error(t, validation.IsValidFilePermissions(0777))
}
