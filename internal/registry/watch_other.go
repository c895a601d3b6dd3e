//go:build !linux

package registry

import "context"

// Changes falls back to mtime polling where inotify is not available.
func (s *FileSource) Changes(ctx context.Context) (<-chan struct{}, error) {
	return PollWatcher{Path: s.Path, Interval: s.pollInterval()}.Changes(ctx)
}
