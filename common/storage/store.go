package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/poseidon/assetmarket/common/config"
	"github.com/poseidon/assetmarket/common/logger"
)

const keyPrefix = "sha256:"

// ErrBlobNotFound is returned by Get when no content exists for a key
var ErrBlobNotFound = errors.New("blob not found")

// Store is content-addressed blob storage for uploaded asset bytes.
// Keys have the form sha256:<hex> and Put is idempotent.
type Store interface {
	Put(ctx context.Context, data []byte, contentType string) (string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
}

// New selects a backend from config
func New(ctx context.Context, cfg config.StorageConfig, log *logger.Logger) (Store, error) {
	switch cfg.Backend {
	case config.StorageS3:
		log.Info("using s3 blob storage", "bucket", cfg.Bucket, "endpoint", cfg.Endpoint)
		return NewS3Store(ctx, S3StoreConfig{
			Bucket:   cfg.Bucket,
			Region:   cfg.Region,
			Endpoint: cfg.Endpoint,
			Prefix:   cfg.Prefix,
		})
	case config.StorageLocal, "":
		log.Info("using local blob storage", "path", cfg.Path)
		return NewFileStore(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Backend)
	}
}

// ComputeKey returns the content address of data
func ComputeKey(data []byte) string {
	sum := sha256.Sum256(data)
	return keyPrefix + hex.EncodeToString(sum[:])
}

// rawHash validates a key and strips its prefix
func rawHash(key string) (string, error) {
	if !strings.HasPrefix(key, keyPrefix) {
		return "", fmt.Errorf("invalid content key format: %s", key)
	}
	h := key[len(keyPrefix):]
	if len(h) != sha256.Size*2 {
		return "", fmt.Errorf("invalid content key length: %s", key)
	}
	if _, err := hex.DecodeString(h); err != nil {
		return "", fmt.Errorf("invalid content key: %w", err)
	}
	return h, nil
}
