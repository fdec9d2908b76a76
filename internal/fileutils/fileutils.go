// Package fileutils provides file operations for the private data directory.
// Conversations and the transaction ledger contain personal financial data,
// so everything here creates directories 0700 and files 0600.
package fileutils

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

var log = logrus.New()

// SetLogger sets a custom logger for this package
func SetLogger(logger *logrus.Logger) {
	if logger != nil {
		log = logger
	}
}

// FileExists checks if a file exists and is not a directory
func FileExists(filePath string) bool {
	info, err := os.Stat(filePath)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// EnsurePrivateDir creates a directory owner-only if it doesn't exist
func EnsurePrivateDir(dirPath string) error {
	if err := os.MkdirAll(dirPath, 0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return nil
}

// WritePrivateFile writes data owner-only, creating parent directories as
// needed. The write goes through a temp file in the same directory and a
// rename, so a crash mid-write never leaves a truncated document behind.
func WritePrivateFile(filePath string, data []byte) error {
	dir := filepath.Dir(filePath)
	if err := EnsurePrivateDir(dir); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(filePath)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		removeTemp(tmpName)
		return fmt.Errorf("failed to restrict temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		removeTemp(tmpName)
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		removeTemp(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, filePath); err != nil {
		removeTemp(tmpName)
		return fmt.Errorf("failed to replace file: %w", err)
	}
	return nil
}

func removeTemp(name string) {
	if err := os.Remove(name); err != nil {
		log.WithError(err).Warnf("Failed to clean up temp file %s", name)
	}
}

// ListFilesWithExtension returns the files with the given extension directly
// inside dirPath. A missing directory yields an empty list.
func ListFilesWithExtension(dirPath, extension string) ([]string, error) {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != extension {
			continue
		}
		files = append(files, filepath.Join(dirPath, entry.Name()))
	}
	return files, nil
}
