package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_PutGet(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	key, err := store.Put(ctx, []byte("hello"), "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "sha256:2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", key)

	data, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)

	ok, err := store.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFileStore_PutIsIdempotent(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	k1, err := store.Put(ctx, []byte("same"), "")
	require.NoError(t, err)
	k2, err := store.Put(ctx, []byte("same"), "")
	require.NoError(t, err)
	assert.Equal(t, k1, k2)

	// no temp files left behind
	matches, err := filepath.Glob(filepath.Join(dir, "*", "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestFileStore_Missing(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	missing := ComputeKey([]byte("never stored"))

	_, err = store.Get(ctx, missing)
	assert.True(t, errors.Is(err, ErrBlobNotFound))

	ok, err := store.Exists(ctx, missing)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileStore_RejectsMalformedKey(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "md5:abc", "sha256:../../etc/passwd", "sha256:zz"} {
		_, err := store.Get(ctx, key)
		assert.Error(t, err, key)
	}
}

func TestNewFileStore_CreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "uploads")
	_, err := NewFileStore(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
