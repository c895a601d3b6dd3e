package registry

import (
	"context"
	"os"
	"time"
)

// PollWatcher detects changes by comparing the file's existence, mtime
// and size every Interval. It is the fallback where inotify is missing
// and works on any filesystem, including network mounts.
type PollWatcher struct {
	Path     string
	Interval time.Duration
}

type fileFingerprint struct {
	exists  bool
	modTime time.Time
	size    int64
}

func fingerprint(path string) fileFingerprint {
	info, err := os.Stat(path)
	if err != nil {
		return fileFingerprint{}
	}
	return fileFingerprint{exists: true, modTime: info.ModTime(), size: info.Size()}
}

// Changes implements Watcher.
func (w PollWatcher) Changes(ctx context.Context) (<-chan struct{}, error) {
	interval := w.Interval
	if interval <= 0 {
		interval = defaultPollInterval
	}

	out := make(chan struct{}, 1)
	last := fingerprint(w.Path)

	go func() {
		defer close(out)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			current := fingerprint(w.Path)
			if current == last {
				continue
			}
			last = current

			select {
			case out <- struct{}{}:
			default:
			}
		}
	}()

	return out, nil
}
