package registry

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureExistsCreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "utils", "insiderLists.csv")
	source := &FileSource{Path: path}

	created, err := source.EnsureExists()
	require.NoError(t, err)
	assert.True(t, created)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultContent, string(content))

	entries, skipped := Parse(content)
	assert.Len(t, entries, 2)
	assert.Empty(t, skipped)
}

func TestEnsureExistsKeepsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "insiderLists.csv")
	require.NoError(t, os.WriteFile(path, []byte(adaFile), 0o644))
	source := &FileSource{Path: path}

	created, err := source.EnsureExists()
	require.NoError(t, err)
	assert.False(t, created)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, adaFile, string(content))
}

func TestFileSourceReadMissing(t *testing.T) {
	source := &FileSource{Path: filepath.Join(t.TempDir(), "nope.csv")}
	r := New(source)

	err := r.Load()
	require.ErrorIs(t, err, ErrSourceUnavailable)
	assert.False(t, r.Available())
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, 5*time.Second, 10*time.Millisecond)
}

// exerciseWatcher drives a real file through edit, delete and re-create.
func exerciseWatcher(t *testing.T, path string, watcher Watcher) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(adaFile), 0o644))

	r := New(&FileSource{Path: path}, WithWatcher(watcher))
	require.NoError(t, r.Open(context.Background()))
	t.Cleanup(func() { _ = r.Close() })

	wallet, err := r.Lookup("ada", "001", "0xaaa")
	require.NoError(t, err)
	require.Equal(t, "0xAAA", wallet)

	require.NoError(t, os.WriteFile(path, []byte(adaFile+"Grace,007,0xBBB\n"), 0o644))
	waitFor(t, func() bool {
		_, err := r.Lookup("grace", "007", "0xbbb")
		return err == nil
	})

	require.NoError(t, os.Remove(path))
	waitFor(t, func() bool { return !r.Available() })
	_, err = r.Lookup("ada", "001", "0xaaa")
	require.ErrorIs(t, err, ErrCacheUnavailable)

	require.NoError(t, os.WriteFile(path, []byte(adaFile), 0o644))
	waitFor(t, r.Available)
}

func TestPollWatcherFollowsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "insiderLists.csv")
	exerciseWatcher(t, path, PollWatcher{Path: path, Interval: 20 * time.Millisecond})
}

func TestFileSourceWatcherFollowsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "insiderLists.csv")
	exerciseWatcher(t, path, &FileSource{Path: path, Debounce: 10 * time.Millisecond, PollInterval: 20 * time.Millisecond})
}

func TestPollWatcherClosesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	changes, err := PollWatcher{Path: filepath.Join(t.TempDir(), "x"), Interval: 10 * time.Millisecond}.Changes(ctx)
	require.NoError(t, err)

	cancel()
	waitFor(t, func() bool {
		select {
		case _, ok := <-changes:
			return !ok
		default:
			return false
		}
	})
}
