package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore keeps blobs on the local filesystem, one file per hash
type FileStore struct {
	baseDir string
}

// NewFileStore creates the base directory if needed
func NewFileStore(baseDir string) (*FileStore, error) {
	if err := os.MkdirAll(baseDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

func (s *FileStore) path(hash string) string {
	// two level fan-out keeps directories small
	return filepath.Join(s.baseDir, hash[:2], hash+".blob")
}

// Put writes data under its hash. Writes go to a temp file first and are
// renamed into place so readers never see a partial blob.
func (s *FileStore) Put(ctx context.Context, data []byte, contentType string) (string, error) {
	key := ComputeKey(data)
	hash := key[len(keyPrefix):]
	target := s.path(hash)

	if _, err := os.Stat(target); err == nil {
		return key, nil
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return "", fmt.Errorf("failed to create blob dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), hash+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp blob: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to write blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to close blob: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to commit blob: %w", err)
	}

	return key, nil
}

// Get reads a blob by key
func (s *FileStore) Get(ctx context.Context, key string) ([]byte, error) {
	hash, err := rawHash(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path(hash))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrBlobNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read blob %s: %w", key, err)
	}
	return data, nil
}

// Exists checks whether a blob is present
func (s *FileStore) Exists(ctx context.Context, key string) (bool, error) {
	hash, err := rawHash(key)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(s.path(hash))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat blob %s: %w", key, err)
	}
	return true, nil
}
