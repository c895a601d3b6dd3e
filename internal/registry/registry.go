// Package registry implements the VIP Registry Cache: a file-backed
// allowlist loaded into memory, looked up in O(1), and rebuilt whenever
// the backing file changes.
//
// CONSISTENCY MODEL
// ─────────────────
// A load builds a brand-new map and publishes it with a single atomic
// pointer store. Readers therefore see either the previous snapshot or
// the new one, never a half-built map. A failed read publishes nil,
// which is the explicit "unavailable" state: Lookup then answers
// ErrCacheUnavailable instead of a false "not found".
package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aanand-mishra/blockfest-backend/internal/types"
)

var (
	// ErrSourceUnavailable is returned by Load when the backing file
	// cannot be read. The cache is unavailable until the next good load.
	ErrSourceUnavailable = errors.New("vip registry source unavailable")

	// ErrCacheUnavailable is returned by Lookup when there is no loaded
	// snapshot to answer from.
	ErrCacheUnavailable = errors.New("vip registry cache unavailable")

	// ErrNotFound means the snapshot is loaded and the key is not on it.
	ErrNotFound = errors.New("not on vip list")
)

// Lookup outcomes reported to the Observer.
const (
	OutcomeHit         = "hit"
	OutcomeMiss        = "miss"
	OutcomeUnavailable = "unavailable"
)

// Source is the read half of the filesystem capability.
type Source interface {
	ReadAll() ([]byte, error)
}

// Watcher delivers one value per detected change of the backing file.
// Implementations may coalesce bursts into a single value. The channel
// is closed once ctx is done.
type Watcher interface {
	Changes(ctx context.Context) (<-chan struct{}, error)
}

// Observer receives reload and lookup events, typically for metrics.
type Observer interface {
	ObserveReload(ok bool, entries int)
	ObserveLookup(outcome string)
}

type nopObserver struct{}

func (nopObserver) ObserveReload(bool, int) {}
func (nopObserver) ObserveLookup(string)    {}

type snapshot struct {
	entries  map[string]types.VIPRecord
	skipped  []SkippedRow
	loadedAt time.Time
}

// Registry is the VIP Registry Cache. Create it with New, start it with
// Open and stop it with Close. It is safe for concurrent use.
type Registry struct {
	source   Source
	watcher  Watcher
	logger   *slog.Logger
	observer Observer
	now      func() time.Time

	current atomic.Pointer[snapshot]

	// loadMu serialises loads so an older read can never be published
	// after a newer one.
	loadMu sync.Mutex

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// Option configures a Registry.
type Option func(*Registry)

// WithWatcher enables reload-on-change.
func WithWatcher(w Watcher) Option {
	return func(r *Registry) { r.watcher = w }
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

func WithObserver(o Observer) Option {
	return func(r *Registry) { r.observer = o }
}

// WithClock overrides time.Now, used for LoadedAt.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// New returns a Registry in the unavailable state. Nothing is read until
// Load or Open is called.
func New(source Source, opts ...Option) *Registry {
	r := &Registry{
		source:   source,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		observer: nopObserver{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load reads the whole source, parses it and atomically replaces the
// current snapshot. On a read error the cache drops to unavailable and
// ErrSourceUnavailable is returned. Malformed rows never fail a load.
func (r *Registry) Load() error {
	r.loadMu.Lock()
	defer r.loadMu.Unlock()

	content, err := r.source.ReadAll()
	if err != nil {
		r.current.Store(nil)
		r.observer.ObserveReload(false, 0)
		r.logger.Error("error loading VIP list, cache is unavailable",
			slog.String("error", err.Error()))
		return fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	entries, skipped := Parse(content)
	for _, row := range skipped {
		r.logger.Warn("skipping VIP row",
			slog.Int("line", row.Line),
			slog.String("reason", row.Reason))
	}

	r.current.Store(&snapshot{
		entries:  entries,
		skipped:  skipped,
		loadedAt: r.now(),
	})
	r.observer.ObserveReload(true, len(entries))
	r.logger.Info("VIP list cache updated",
		slog.Int("entries", len(entries)),
		slog.Int("skipped", len(skipped)))

	return nil
}

// Lookup returns the stored wallet address for the normalised key.
// It returns ErrNotFound when the key is absent and ErrCacheUnavailable
// when there is no snapshot to consult.
func (r *Registry) Lookup(name, rollNumber, walletAddress string) (string, error) {
	snap := r.current.Load()
	if snap == nil {
		r.observer.ObserveLookup(OutcomeUnavailable)
		return "", ErrCacheUnavailable
	}

	record, ok := snap.entries[Key(name, rollNumber, walletAddress)]
	if !ok {
		r.observer.ObserveLookup(OutcomeMiss)
		return "", ErrNotFound
	}

	r.observer.ObserveLookup(OutcomeHit)
	return record.WalletAddress, nil
}

// Available reports whether a snapshot is loaded.
func (r *Registry) Available() bool {
	return r.current.Load() != nil
}

// Len is the number of entries in the current snapshot (0 if unavailable).
func (r *Registry) Len() int {
	snap := r.current.Load()
	if snap == nil {
		return 0
	}
	return len(snap.entries)
}

// LoadedAt is when the current snapshot was built; zero if unavailable.
func (r *Registry) LoadedAt() time.Time {
	snap := r.current.Load()
	if snap == nil {
		return time.Time{}
	}
	return snap.loadedAt
}

// Diagnostics returns the rows skipped by the last successful load.
func (r *Registry) Diagnostics() []SkippedRow {
	snap := r.current.Load()
	if snap == nil {
		return nil
	}
	out := make([]SkippedRow, len(snap.skipped))
	copy(out, snap.skipped)
	return out
}

// Open performs the initial load and, when a Watcher is configured,
// starts reloading on every change it reports.
//
// A failed initial load is logged and leaves the cache unavailable; it is
// not returned, because a later change (e.g. the operator creating the
// file) will recover it. Only a failure to set up the watch is an error.
func (r *Registry) Open(ctx context.Context) error {
	_ = r.Load()

	if r.watcher == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return errors.New("registry.Open: already open")
	}

	watchCtx, cancel := context.WithCancel(ctx)
	changes, err := r.watcher.Changes(watchCtx)
	if err != nil {
		cancel()
		return fmt.Errorf("registry.Open: watch: %w", err)
	}

	r.cancel = cancel
	r.done = make(chan struct{})
	go r.watch(changes, r.done)

	return nil
}

func (r *Registry) watch(changes <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for range changes {
		r.logger.Info("VIP list file changed, reloading cache")
		_ = r.Load()
	}
}

// Close stops the watch goroutine and waits for it to exit. The last
// snapshot stays readable. Close is safe to call more than once.
func (r *Registry) Close() error {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	return nil
}
