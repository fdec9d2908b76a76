// Package validation holds input checks shared by the command layer.
package validation

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// supportedDocumentExtensions lists the attachment types the assistant accepts.
var supportedDocumentExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
	".pdf":  true,
}

// IsValidDocument checks that path points to a readable regular file of a
// type the assistant can process.
func IsValidDocument(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("document does not exist: %s", path)
	}
	if err != nil {
		return fmt.Errorf("error checking document %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, expected a document file", path)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !supportedDocumentExtensions[ext] {
		return fmt.Errorf("unsupported document type %q, supported: png, jpg, jpeg, webp, pdf", ext)
	}
	return nil
}

// IsValidDataDir checks that the directory is usable for conversation and
// ledger storage. A missing directory is fine, it gets created on first write.
func IsValidDataDir(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("error checking data directory %s: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("data path %s exists but is not a directory", path)
	}
	return nil
}

// IsValidFilePermissions rejects modes that expose stored conversations to
// other users.
func IsValidFilePermissions(mode os.FileMode) error {
	if mode&0007 != 0 {
		return fmt.Errorf("file permissions are too permissive: %s. Recommended 0600", mode.String())
	}
	return nil
}
