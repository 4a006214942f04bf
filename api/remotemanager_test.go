package api

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aouyang1/einkframe/photocache"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBucket struct {
	mu      sync.Mutex
	objects map[string]string
	broken  map[string]bool
	lists   int
}

func (b *fakeBucket) List(context.Context) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lists++
	names := make([]string, 0, len(b.objects))
	for name := range b.objects {
		names = append(names, name)
	}
	return names, nil
}

func (b *fakeBucket) Download(_ context.Context, w io.WriterAt, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.broken[name] {
		return errors.New("connection reset")
	}
	_, err := w.WriteAt([]byte(b.objects[name]), 0)
	return err
}

func (b *fakeBucket) listCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lists
}

func TestSyncFolder(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "old.jpg"), []byte("old"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keep.jpg"), []byte("keep"), 0o644))

	bucket := &fakeBucket{
		objects: map[string]string{
			"keep.jpg":       "remote keep",
			"new.jpg":        "fresh",
			"broken.png":     "never",
			"album/deep.jpg": "nested",
			"readme.txt":     "text",
		},
		broken: map[string]bool{"broken.png": true},
	}
	cache := photocache.New(dir)
	r := NewRemoteManager(bucket, cache, time.Hour, nil)

	result, err := r.SyncFolder(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SyncResult{Downloaded: 1, Deleted: 1}, result)

	names, err := cache.Names()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"keep.jpg", "new.jpg"}, names.ToSlice())

	got, err := os.ReadFile(filepath.Join(dir, "new.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "fresh", string(got))

	got, err = os.ReadFile(filepath.Join(dir, "keep.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "keep", string(got), "existing files are not downloaded again")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no partial downloads left behind")
}

func TestSyncFolder_CreatesCacheDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	bucket := &fakeBucket{objects: map[string]string{"a.jpg": "a"}}
	r := NewRemoteManager(bucket, photocache.New(dir), time.Hour, nil)

	result, err := r.SyncFolder(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Downloaded)
	assert.FileExists(t, filepath.Join(dir, "a.jpg"))
}

func TestRemoteManager_Run(t *testing.T) {
	clock := clockwork.NewFakeClock()
	bucket := &fakeBucket{objects: map[string]string{}}
	r := NewRemoteManager(bucket, photocache.New(t.TempDir()), time.Hour, clock)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	clock.BlockUntil(1)
	assert.Eventually(t, func() bool { return bucket.listCount() == 1 }, time.Second, 5*time.Millisecond)

	clock.Advance(time.Hour)
	assert.Eventually(t, func() bool { return bucket.listCount() == 2 }, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}
