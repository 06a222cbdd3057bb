package blobstore

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	data := []byte("0123456789")
	require.NoError(t, store.Put(ctx, "a/features.f32", data))
	require.NoError(t, store.Put(ctx, "a/tracks.json", []byte("{}")))
	require.NoError(t, store.Put(ctx, "b/manifest.json", []byte("{}")))

	// Mutating the input does not change the stored blob.
	data[0] = 'X'

	blob, err := store.Open(ctx, "a/features.f32")
	require.NoError(t, err)
	defer blob.Close()

	assert.Equal(t, int64(10), blob.Size())

	buf := make([]byte, 3)
	n, err := blob.ReadAt(ctx, buf, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, "012", string(buf))

	n, err = blob.ReadAt(ctx, make([]byte, 4), 8)
	assert.Equal(t, 2, n)
	assert.ErrorIs(t, err, io.EOF)

	rc, err := blob.ReadRange(ctx, 5, 100)
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "56789", string(got))

	names, err := store.List(ctx, "a/")
	require.NoError(t, err)
	assert.Equal(t, []string{"a/features.f32", "a/tracks.json"}, names)

	require.NoError(t, store.Delete(ctx, "a/tracks.json"))
	_, err = store.Open(ctx, "a/tracks.json")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReadAll(t *testing.T) {
	ctx := context.Background()

	for name, store := range map[string]BlobStore{
		"Memory": NewMemoryStore(),
		"Local":  NewLocalStore(t.TempDir()),
	} {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Put(ctx, "blob", []byte("payload")))

			got, err := ReadAll(ctx, store, "blob")
			require.NoError(t, err)
			assert.Equal(t, "payload", string(got))

			_, err = ReadAll(ctx, store, "missing")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestMemoryStore_Concurrent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "shared", []byte("v")))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = store.Put(ctx, "shared", []byte("v"))
		}()
		go func() {
			defer wg.Done()
			got, err := ReadAll(ctx, store, "shared")
			assert.NoError(t, err)
			assert.Equal(t, "v", string(got))
		}()
	}
	wg.Wait()
}

func TestMemoryStore_OpenIsSnapshot(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "manifest.json", []byte("v1")))

	blob, err := store.Open(ctx, "manifest.json")
	require.NoError(t, err)
	defer blob.Close()

	require.NoError(t, store.Put(ctx, "manifest.json", []byte("v2")))

	m, ok := blob.(Mappable)
	require.True(t, ok)
	data, err := m.Bytes()
	require.NoError(t, err)
	assert.Equal(t, "v1", string(data))

	got, err := ReadAll(ctx, store, "manifest.json")
	require.NoError(t, err)
	assert.Equal(t, "v2", string(got))

	_, err = blob.ReadAt(ctx, make([]byte, 1), -1)
	assert.Error(t, err)
}
