// FILE: lixenwraith/presets/watch.go
package presets

import (
	"context"
	"fmt"
	"os"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

const DefaultMaxWatchers = 100 // Prevent resource exhaustion

// WatchOptions configures file watching behavior
type WatchOptions struct {
	// PollInterval for file stat checks (minimum 100ms)
	PollInterval time.Duration

	// Debounce duration to avoid rapid rebuilds
	Debounce time.Duration

	// MaxWatchers limits concurrent subscriber channels
	MaxWatchers int

	// ReloadTimeout bounds one pass rebuild
	ReloadTimeout time.Duration

	// VerifyPermissions checks files haven't been replaced with different permissions
	VerifyPermissions bool
}

// DefaultWatchOptions returns sensible defaults for file watching
func DefaultWatchOptions() WatchOptions {
	return WatchOptions{
		PollInterval:      DefaultPollInterval,
		Debounce:          DefaultDebounce,
		MaxWatchers:       DefaultMaxWatchers,
		ReloadTimeout:     DefaultReloadTimeout,
		VerifyPermissions: true,
	}
}

// Reload is published to subscribers after a watched file changed.
// On success Presets is a brand-new pass; earlier passes are left untouched.
type Reload struct {
	Presets *Presets
	Files   []string
	Err     error
}

// fileState is the last observed stat of a watched file
type fileState struct {
	modTime time.Time
	size    int64
	mode    os.FileMode
	missing bool
}

// Watcher rebuilds a pass whenever one of the preset files it was loaded from changes
type Watcher struct {
	mu               sync.RWMutex
	ctx              context.Context
	cancel           context.CancelFunc
	opts             WatchOptions
	builder          *Builder
	current          atomic.Pointer[Presets]
	files            map[string]fileState
	candidates       []string
	watching         atomic.Bool
	reloadInProgress atomic.Bool
	subscribers      map[int64]chan Reload
	subscriberID     atomic.Int64
	debounceTimer    *time.Timer
}

// Watch builds the pass once and keeps rebuilding it while ctx is alive.
// The initial build error is returned directly; later errors are published.
func Watch(ctx context.Context, b *Builder, opts WatchOptions) (*Watcher, error) {
	// Validate options
	if opts.PollInterval < MinPollInterval {
		opts.PollInterval = MinPollInterval
	}
	if opts.MaxWatchers <= 0 {
		opts.MaxWatchers = DefaultMaxWatchers
	}
	if opts.ReloadTimeout <= 0 {
		opts.ReloadTimeout = DefaultReloadTimeout
	}

	p, files, err := b.build(ctx)
	if err != nil {
		return nil, err
	}

	watchCtx, cancel := context.WithCancel(ctx)
	w := &Watcher{
		ctx:         watchCtx,
		cancel:      cancel,
		opts:        opts,
		builder:     b,
		candidates:  MainCandidates(b.host.ConfigDir, b.discovery),
		subscribers: make(map[int64]chan Reload),
	}
	w.files = w.track(files)
	w.current.Store(p)

	w.watching.Store(true)
	go w.watchLoop()
	return w, nil
}

// Current returns the latest successfully built pass
func (w *Watcher) Current() *Presets {
	return w.current.Load()
}

// Files returns the watched preset files that currently exist
func (w *Watcher) Files() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	files := make([]string, 0, len(w.files))
	for path, state := range w.files {
		if !state.missing {
			files = append(files, path)
		}
	}
	return files
}

// track stats the pass's source files plus every main config candidate,
// so a main config created after the first build triggers a rebuild
func (w *Watcher) track(files []string) map[string]fileState {
	return statFiles(append(slices.Clone(files), w.candidates...))
}

// IsWatching returns true while the poll loop runs
func (w *Watcher) IsWatching() bool {
	return w.watching.Load()
}

// SubscriberCount returns the number of active subscriber channels
func (w *Watcher) SubscriberCount() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.subscribers)
}

// watchLoop is the main file watching loop
func (w *Watcher) watchLoop() {
	defer w.watching.Store(false)

	ticker := time.NewTicker(w.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.checkAndReload()
		}
	}
}

// checkAndReload checks watched files and schedules a rebuild on change
func (w *Watcher) checkAndReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	changed := false
	for path, last := range w.files {
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) && !last.missing {
				w.files[path] = fileState{missing: true}
				w.notifyLocked(Reload{Err: fmt.Errorf("%w: %s", ErrFileDeleted, path)})
			}
			continue
		}

		// SECURITY: Verify permissions haven't changed suspiciously
		if w.opts.VerifyPermissions && !last.missing && last.mode != 0 && info.Mode() != last.mode {
			if (info.Mode() & 0077) != (last.mode & 0077) {
				// Don't rebuild on permission change
				w.files[path] = fileState{modTime: info.ModTime(), size: info.Size(), mode: info.Mode()}
				w.notifyLocked(Reload{Err: fmt.Errorf("%w: %s", ErrPermissionsChanged, path)})
				return
			}
		}

		if last.missing || !info.ModTime().Equal(last.modTime) || info.Size() != last.size {
			w.files[path] = fileState{modTime: info.ModTime(), size: info.Size(), mode: info.Mode()}
			changed = true
		}
	}

	if changed {
		// Debounce rapid changes
		if w.debounceTimer != nil {
			w.debounceTimer.Stop()
		}
		w.debounceTimer = time.AfterFunc(w.opts.Debounce, w.performReload)
	}
}

// performReload builds a new pass and publishes it
func (w *Watcher) performReload() {
	// Prevent concurrent rebuilds
	if !w.reloadInProgress.CompareAndSwap(false, true) {
		return
	}
	defer w.reloadInProgress.Store(false)

	ctx, cancel := context.WithTimeout(w.ctx, w.opts.ReloadTimeout)
	defer cancel()

	type result struct {
		presets *Presets
		files   []string
		err     error
	}
	done := make(chan result, 1)
	go func() {
		p, files, err := w.builder.build(ctx)
		done <- result{p, files, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			w.notify(Reload{Err: fmt.Errorf("reload failed: %w", r.err)})
			return
		}
		w.current.Store(r.presets)

		w.mu.Lock()
		// Files the new pass no longer uses stop being watched; new ones start
		next := w.track(r.files)
		for path := range next {
			if last, ok := w.files[path]; ok && !last.missing {
				next[path] = last
			}
		}
		w.files = next
		w.notifyLocked(Reload{Presets: r.presets, Files: r.files})
		w.mu.Unlock()

	case <-ctx.Done():
		if w.ctx.Err() == nil {
			w.notify(Reload{Err: ErrReloadTimeout})
		}
	}
}

// Subscribe creates a new subscriber channel, closed when the watcher stops
func (w *Watcher) Subscribe() <-chan Reload {
	w.mu.Lock()
	defer w.mu.Unlock()

	// Check subscriber limit
	if len(w.subscribers) >= w.opts.MaxWatchers || w.ctx.Err() != nil {
		// Return closed channel to prevent resource exhaustion
		ch := make(chan Reload)
		close(ch)
		return ch
	}

	// Create buffered channel to prevent blocking
	ch := make(chan Reload, 10)
	id := w.subscriberID.Add(1)
	w.subscribers[id] = ch

	// Cleanup goroutine
	go func() {
		<-w.ctx.Done()
		w.mu.Lock()
		delete(w.subscribers, id)
		close(ch)
		w.mu.Unlock()
	}()

	return ch
}

func (w *Watcher) notify(r Reload) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	w.notifyLocked(r)
}

// notifyLocked sends r to all subscribers; w.mu must be held
func (w *Watcher) notifyLocked(r Reload) {
	for _, ch := range w.subscribers {
		select {
		case ch <- r:
		default:
			// Channel full, skip
		}
	}
}

// Stop terminates the watcher and closes all subscriber channels
func (w *Watcher) Stop() {
	if w.cancel != nil {
		w.cancel()
	}

	// Stop debounce timer
	w.mu.Lock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
		w.debounceTimer = nil
	}
	w.mu.Unlock()

	// Wait for watch loop to exit with timeout
	deadline := time.Now().Add(ShutdownTimeout)
	for w.watching.Load() && time.Now().Before(deadline) {
		time.Sleep(SpinWaitInterval)
	}
}

func statFiles(files []string) map[string]fileState {
	states := make(map[string]fileState, len(files))
	for _, path := range files {
		info, err := os.Stat(path)
		if err != nil {
			states[path] = fileState{missing: true}
			continue
		}
		states[path] = fileState{modTime: info.ModTime(), size: info.Size(), mode: info.Mode()}
	}
	return states
}
