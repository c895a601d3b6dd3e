//go:build linux

package registry

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"
)

// watchMask catches in-place saves (IN_CLOSE_WRITE), atomic replaces
// (IN_MOVED_TO) and removal (IN_DELETE, IN_MOVED_FROM). Removal must
// trigger a reload too so the cache can drop to unavailable.
const watchMask = unix.IN_CLOSE_WRITE | unix.IN_MOVED_TO | unix.IN_MOVED_FROM | unix.IN_DELETE

// Changes watches the parent directory of s.Path with inotify and sends
// on the returned channel whenever an event names the target file.
func (s *FileSource) Changes(ctx context.Context) (<-chan struct{}, error) {
	absolutePath, err := filepath.Abs(s.Path)
	if err != nil {
		return nil, fmt.Errorf("registry.Changes: %w", err)
	}
	directory := filepath.Dir(absolutePath)
	filename := filepath.Base(absolutePath)

	fd, err := unix.InotifyInit1(unix.IN_NONBLOCK | unix.IN_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("registry.Changes: inotify_init1: %w", err)
	}

	if _, err := unix.InotifyAddWatch(fd, directory, watchMask); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("registry.Changes: inotify_add_watch on %s: %w", directory, err)
	}

	out := make(chan struct{}, 1)
	go inotifyLoop(ctx, fd, filename, s.debounce(), out)
	return out, nil
}

// inotifyLoop polls the fd with a 100ms timeout so ctx cancellation is
// noticed promptly. After a matching event it waits for the debounce
// window and drains anything queued meanwhile, so a burst of writes is
// reported once.
func inotifyLoop(ctx context.Context, fd int, filename string, debounce time.Duration, out chan<- struct{}) {
	defer close(out)
	defer unix.Close(fd)

	buffer := make([]byte, 4096)
	for {
		if ctx.Err() != nil {
			return
		}

		pollDescriptors := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
		count, err := unix.Poll(pollDescriptors, 100)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return
		}
		if count == 0 {
			continue
		}

		bytesRead, err := unix.Read(fd, buffer)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EINTR {
				continue
			}
			return
		}

		if !eventsNameFile(buffer[:bytesRead], filename) {
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(debounce):
		}
		drainEvents(fd, buffer)

		select {
		case out <- struct{}{}:
		default:
			// A reload is already queued; it will read the latest file.
		}
	}
}

// eventsNameFile reports whether any inotify_event in buffer carries the
// target filename. Layout from inotify(7): wd, mask, cookie, len (4 bytes
// each) followed by a null-padded name of len bytes.
func eventsNameFile(buffer []byte, target string) bool {
	offset := 0
	for offset+unix.SizeofInotifyEvent <= len(buffer) {
		nameLength := int(binary.NativeEndian.Uint32(buffer[offset+12 : offset+16]))
		eventSize := unix.SizeofInotifyEvent + nameLength
		if offset+eventSize > len(buffer) {
			break
		}

		if nameLength > 0 {
			name := buffer[offset+unix.SizeofInotifyEvent : offset+eventSize]
			if i := bytes.IndexByte(name, 0); i >= 0 {
				name = name[:i]
			}
			if string(name) == target {
				return true
			}
		}

		offset += eventSize
	}
	return false
}

func drainEvents(fd int, buffer []byte) {
	for {
		if _, err := unix.Read(fd, buffer); err != nil {
			return
		}
	}
}
