package tokenstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	store, err := NewFileStore(path)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Write(ctx, `{"token":"abc"}`))

	payload, err := store.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"token":"abc"}`, payload)
}

func TestFileStoreSecurePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	store, err := NewFileStore(path)
	require.NoError(t, err)

	require.NoError(t, store.Write(context.Background(), "secret"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestFileStoreCreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "token.json")
	_, err := NewFileStore(path)
	require.NoError(t, err)

	info, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestFileStoreReadMissing(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)

	_, err = store.Read(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStoreOverwriteReplacesWholePayload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	store, err := NewFileStore(path)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Write(ctx, "first payload that is quite long"))
	require.NoError(t, store.Write(ctx, "second"))

	payload, err := store.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second", payload)

	// No temp files left behind
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileStoreDeleteIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	store, err := NewFileStore(path)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Write(ctx, "payload"))
	require.NoError(t, store.Delete(ctx))
	require.NoError(t, store.Delete(ctx)) // absent is not an error

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestFileStoreEmptyPath(t *testing.T) {
	_, err := NewFileStore("")
	assert.Error(t, err)
}
