package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileStore provides atomic file-based artifact storage with secure permissions.
// Writes use temp file + rename for crash safety.
type FileStore struct {
	filePath string
}

// Compile-time check to ensure FileStore implements TokenStore
var _ TokenStore = (*FileStore)(nil)

// NewFileStore creates a FileStore for the given path, creating parent
// directories with 0700 permissions if they don't exist.
func NewFileStore(filePath string) (*FileStore, error) {
	if filePath == "" {
		return nil, fmt.Errorf("file path cannot be empty")
	}

	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	return &FileStore{
		filePath: filePath,
	}, nil
}

// Path returns the filesystem path of the artifact.
func (f *FileStore) Path() string {
	return f.filePath
}

// Read returns the stored artifact payload. Returns ErrNotFound if the file
// does not exist.
func (f *FileStore) Read(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := os.ReadFile(f.filePath)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, f.filePath)
	}
	if err != nil {
		return "", err
	}

	payload := strings.TrimSpace(string(data))
	if payload == "" {
		return "", fmt.Errorf("empty token file %s", f.filePath)
	}
	return payload, nil
}

// Write atomically saves the artifact using temp file + rename for crash
// safety. Sets file permissions to 0600 (owner read/write only).
func (f *FileStore) Write(ctx context.Context, payload string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// Create secure temp file in same directory for atomic rename
	dir := filepath.Dir(f.filePath)
	tempFile, err := os.CreateTemp(dir, "*.tmp")
	if err != nil {
		return err
	}
	tempName := tempFile.Name()
	// Cleanup deferred for all exit paths
	defer func() { _ = os.Remove(tempName) }()
	defer func() { _ = tempFile.Close() }()

	if err := tempFile.Chmod(0600); err != nil {
		return err
	}
	if _, err := tempFile.Write([]byte(strings.TrimSpace(payload) + "\n")); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := tempFile.Close(); err != nil {
		return err
	}

	// Atomic rename to final location
	return os.Rename(tempName, f.filePath)
}

// Delete removes the artifact file. An absent file is not an error.
func (f *FileStore) Delete(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := os.Remove(f.filePath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
