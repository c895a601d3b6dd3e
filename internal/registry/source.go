package registry

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

const (
	defaultDebounce     = 50 * time.Millisecond
	defaultPollInterval = time.Second
)

// FileSource is the production Source and Watcher: a plain file on disk.
//
// On Linux changes are detected with inotify on the parent directory, so
// editors that save through a temp file and rename are still seen. On
// other platforms it falls back to polling the file's mtime and size.
type FileSource struct {
	Path string

	// Debounce is how long to wait after a change before reporting it,
	// so a burst of writes yields a single reload. Defaults to 50ms.
	Debounce time.Duration

	// PollInterval is used by the non-inotify fallback. Defaults to 1s.
	PollInterval time.Duration
}

// ReadAll reads the whole file.
func (s *FileSource) ReadAll() ([]byte, error) {
	return os.ReadFile(s.Path)
}

// EnsureExists creates the file with DefaultContent if it does not exist
// yet and reports whether it did so. An existing file is never touched.
func (s *FileSource) EnsureExists() (bool, error) {
	if _, err := os.Stat(s.Path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("registry.EnsureExists: stat: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return false, fmt.Errorf("registry.EnsureExists: mkdir: %w", err)
	}

	// O_EXCL: if someone created the file between Stat and here, keep theirs.
	f, err := os.OpenFile(s.Path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return false, nil
		}
		return false, fmt.Errorf("registry.EnsureExists: create: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(DefaultContent); err != nil {
		return false, fmt.Errorf("registry.EnsureExists: write: %w", err)
	}
	return true, nil
}

func (s *FileSource) debounce() time.Duration {
	if s.Debounce > 0 {
		return s.Debounce
	}
	return defaultDebounce
}

func (s *FileSource) pollInterval() time.Duration {
	if s.PollInterval > 0 {
		return s.PollInterval
	}
	return defaultPollInterval
}
