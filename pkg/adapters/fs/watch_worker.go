package fs

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/piewpiew/pkg/core"
)

// DebounceInterval coalesces bursts of filesystem events on the same file.
const DebounceInterval = 50 * time.Millisecond

type watchWorker struct {
	adaptor   *Adaptor
	model     string
	pattern   string
	events    chan core.Event
	watcher   *fsnotify.Watcher
	debouncer *debouncer
}

func newWatchWorker(a *Adaptor, model, pattern string, events chan core.Event) *watchWorker {
	return &watchWorker{
		adaptor: a,
		model:   model,
		pattern: pattern,
		events:  events,
	}
}

// Start begins watching dir. The event loop runs until ctx ends and then closes
// the events channel.
func (w *watchWorker) Start(ctx context.Context, dir string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w.watcher = watcher
	w.debouncer = newDebouncer(DebounceInterval)
	w.adaptor.setWatching(1)

	lifecycle.Go(ctx, w.run, lifecycle.WithErrorHandler(w.adaptor.handleError))
	return nil
}

// run is the main event loop for the watcher.
func (w *watchWorker) run(ctx context.Context) (err error) {
	logger := w.adaptor.config.Logger
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("watcher panic: %v", recovered)
			if logger.Enabled(ctx, slog.LevelDebug) {
				logger.Error("watcher panic", "error", err, "stack", string(debug.Stack()))
			} else {
				logger.Error("watcher panic", "error", err)
			}
		}
	}()
	defer close(w.events)
	// Every in-flight send must finish before the channel is closed.
	defer w.debouncer.stopAndWait(5 * time.Second)
	defer w.adaptor.setWatching(-1)
	defer w.watcher.Close()

	return w.loop(ctx)
}

func (w *watchWorker) loop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher events channel closed")
			}
			w.process(ctx, event)

		case wErr, ok := <-w.watcher.Errors:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			w.adaptor.handleError(fmt.Errorf("fsnotify: %w", wErr))
		}
	}
}

// process filters, maps and debounces one filesystem event.
func (w *watchWorker) process(ctx context.Context, event fsnotify.Event) bool {
	name := filepath.Base(event.Name)
	if isTempFile(name) {
		return false
	}
	ext := filepath.Ext(name)
	if _, ok := w.adaptor.serializers[ext]; !ok {
		return false
	}
	id := strings.TrimSuffix(name, ext)
	if ok, _ := doublestar.Match(w.pattern, id); !ok {
		return false
	}

	eType := mapEventType(event)
	if eType == "" {
		return false
	}

	w.adaptor.config.Logger.Debug("record changed on disk", "model", w.model, "id", id, "op", eType)
	e := core.Event{
		Type:      eType,
		Model:     w.model,
		ID:        id,
		Timestamp: time.Now().Unix(),
	}
	w.debouncer.add(name, func() {
		defer func() {
			// The channel may already be closed when shutdown timed out.
			_ = recover()
		}()
		select {
		case w.events <- e:
		case <-ctx.Done():
		}
	})
	return true
}

func mapEventType(event fsnotify.Event) core.EventType {
	switch {
	case event.Has(fsnotify.Create):
		return core.EventCreate
	case event.Has(fsnotify.Write):
		return core.EventModify
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return core.EventDelete
	}
	return ""
}

// debouncer runs only the last function added for a key once the key has been
// quiet for the configured delay.
type debouncer struct {
	delay time.Duration

	mu      sync.Mutex
	seq     uint64
	pending map[string]pendingCall
	stopped bool
	wg      sync.WaitGroup
}

type pendingCall struct {
	seq   uint64
	timer *time.Timer
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{
		delay:   delay,
		pending: make(map[string]pendingCall),
	}
}

func (d *debouncer) add(key string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}

	if prev, ok := d.pending[key]; ok && prev.timer.Stop() {
		d.wg.Done()
	}

	d.seq++
	seq := d.seq
	d.wg.Add(1)
	timer := time.AfterFunc(d.delay, func() {
		defer d.wg.Done()
		d.mu.Lock()
		if cur, ok := d.pending[key]; ok && cur.seq == seq {
			delete(d.pending, key)
		}
		d.mu.Unlock()
		fn()
	})
	d.pending[key] = pendingCall{seq: seq, timer: timer}
}

// stopAndWait drops pending calls and waits up to timeout for running ones.
func (d *debouncer) stopAndWait(timeout time.Duration) {
	d.mu.Lock()
	d.stopped = true
	for key, p := range d.pending {
		if p.timer.Stop() {
			d.wg.Done()
		}
		delete(d.pending, key)
	}
	d.mu.Unlock()

	finished := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(timeout):
	}
}
