// Package fs is a durable storage adaptor: every record is one JSON or YAML file
// under <root>/<model>/<id><ext>, and identifier counters live in
// <root>/<systemDir>/index.json.
package fs

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"github.com/aretw0/piewpiew/pkg/core"
	"github.com/aretw0/piewpiew/pkg/data"
)

// DefaultSystemDir is the directory, relative to the root, holding adaptor metadata.
const DefaultSystemDir = ".piewpiew"

// Config holds the configuration for the filesystem adaptor.
type Config struct {
	Path         string
	SystemDir    string // e.g. ".piewpiew"
	Format       string // "json" (default) or "yaml"; decides the extension of new files
	ReadOnly     bool
	Strict       bool // decode numbers as json.Number before field cleaning
	Concurrency  int  // parallel decoders per load; defaults to GOMAXPROCS
	Logger       *slog.Logger
	ErrorHandler func(error)
}

// Adaptor implements data.Adaptor and data.Watchable on top of the filesystem.
//
// Save is synchronous. Load reads and decodes the model's directory on another
// goroutine and always yields fresh instances.
type Adaptor struct {
	Path        string
	config      Config
	ext         string
	serializers map[string]Serializer
	index       *index

	mu       sync.Mutex
	watchers int
	lastLoad *time.Time
}

// New creates a filesystem adaptor rooted at config.Path. Unless read-only, the
// root is created when missing.
func New(config Config) (*Adaptor, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("fs adaptor requires a path")
	}
	if config.SystemDir == "" {
		config.SystemDir = DefaultSystemDir
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	if config.Concurrency <= 0 {
		config.Concurrency = runtime.GOMAXPROCS(0)
	}

	a := &Adaptor{
		Path:        config.Path,
		config:      config,
		serializers: DefaultSerializers(config.Strict),
		index:       newIndex(config.Path, config.SystemDir),
	}

	switch strings.ToLower(config.Format) {
	case "", "json":
		a.ext = ".json"
	case "yaml", "yml":
		a.ext = ".yaml"
	default:
		return nil, fmt.Errorf("unsupported format %q", config.Format)
	}

	if config.ReadOnly {
		info, err := os.Stat(config.Path)
		if err != nil {
			return nil, fmt.Errorf("store path is not accessible: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("store path is not a directory: %s", config.Path)
		}
	} else {
		if err := os.MkdirAll(config.Path, 0755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
		if n, err := sweepTempFiles(config.Path, StaleTempAge); err != nil {
			config.Logger.Warn("failed to sweep temp files", "error", err)
		} else if n > 0 {
			config.Logger.Info("removed abandoned temp files", "count", n)
		}
	}

	if err := a.index.Load(); err != nil {
		return nil, err
	}
	return a, nil
}

// IsReadOnly reports whether writes are rejected.
func (a *Adaptor) IsReadOnly() bool {
	return a.config.ReadOnly
}

func (a *Adaptor) modelDir(model string) string {
	return filepath.Join(a.Path, model)
}

// Save writes m to <root>/<model>/<id><ext>. A record without an identifier is
// given the next identifier of its model type first.
func (a *Adaptor) Save(ctx context.Context, m *data.Model, done func(data.SaveResult)) {
	if a.config.ReadOnly {
		done(data.SaveResult{Record: m, Err: core.ErrReadOnly})
		return
	}
	if err := ctx.Err(); err != nil {
		done(data.SaveResult{Record: m, Err: err})
		return
	}
	if err := a.save(m); err != nil {
		a.config.Logger.Error("save failed", "record", m, "error", err)
		done(data.SaveResult{Record: m, Err: err})
		return
	}
	done(data.SaveResult{Record: m})
}

func (a *Adaptor) save(m *data.Model) error {
	model := m.Type().Name()
	dir := a.modelDir(model)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}

	id, hasID := m.ID()
	if hasID {
		a.index.Observe(model, id)
	} else {
		floor := 0
		if _, known := a.index.Peek(model); !known {
			next, err := a.scanNext(dir)
			if err != nil {
				return err
			}
			floor = next
		}
		id = a.index.Take(model, floor)

		// Assigned outside any adaptor lock: change handlers may call back in.
		if err := m.Set(data.IDField, id); err != nil {
			return fmt.Errorf("failed to assign identifier: %w", err)
		}
	}

	payload, err := a.serializers[a.ext].Serialize(m.Properties())
	if err != nil {
		return fmt.Errorf("failed to serialize record: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(dir, strconv.Itoa(id)+a.ext), payload, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := a.index.Save(); err != nil {
		a.config.Logger.Warn("failed to persist index", "error", err)
	}

	a.config.Logger.Debug("record written", "model", model, "id", id)
	return nil
}

// scanNext derives the next identifier from the numeric file names in dir.
func (a *Adaptor) scanNext(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	next := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if n, err := strconv.Atoi(strings.TrimSuffix(name, filepath.Ext(name))); err == nil && n >= next {
			next = n + 1
		}
	}
	return next, nil
}

// Load decodes every record file of t asynchronously. The filter hint is ignored;
// files that cannot be parsed are skipped and reported to the error handler.
func (a *Adaptor) Load(ctx context.Context, t *data.ModelType, _ data.Lookups, done func(data.LoadResult)) {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		records, err := a.load(ctx, t)
		done(data.LoadResult{Records: records, Err: err})
		return nil
	}, lifecycle.WithErrorHandler(a.handleError))
}

func (a *Adaptor) load(ctx context.Context, t *data.ModelType) ([]*data.Model, error) {
	dir := a.modelDir(t.Name())
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return []*data.Model{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || isTempFile(e.Name()) {
			continue
		}
		if _, ok := a.serializers[filepath.Ext(e.Name())]; ok {
			files = append(files, e.Name())
		}
	}

	results := make([]*data.Model, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.config.Concurrency)
	for i, name := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rec, err := a.decode(t, filepath.Join(dir, name))
			if err != nil {
				a.handleError(err)
				return nil
			}
			results[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	records := slices.DeleteFunc(results, func(m *data.Model) bool { return m == nil })
	slices.SortStableFunc(records, func(x, y *data.Model) int {
		xi, xok := x.ID()
		yi, yok := y.ID()
		switch {
		case xok && yok:
			return cmp.Compare(xi, yi)
		case xok:
			return -1
		case yok:
			return 1
		}
		return 0
	})

	now := time.Now()
	a.mu.Lock()
	a.lastLoad = &now
	a.mu.Unlock()

	if records == nil {
		records = []*data.Model{}
	}
	return records, nil
}

// decode reads one record file into a fresh instance of t. Values the model type
// rejects are left unset and logged.
func (a *Adaptor) decode(t *data.ModelType, path string) (*data.Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ext := filepath.Ext(path)
	values, err := a.serializers[ext].Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse record %s: %w", path, err)
	}

	if _, ok := values[data.IDField]; !ok {
		if n, err := strconv.Atoi(strings.TrimSuffix(filepath.Base(path), ext)); err == nil {
			values[data.IDField] = n
		}
	}

	m, err := t.New(values)
	if err != nil {
		a.config.Logger.Warn("record has invalid values", "path", path, "error", err)
	}
	return m, nil
}

// Watch streams changes to the record files of t whose identifier matches the
// doublestar pattern ("*" or "" for all). The channel is closed when ctx ends.
func (a *Adaptor) Watch(ctx context.Context, t *data.ModelType, pattern string) (<-chan core.Event, error) {
	if pattern == "" {
		pattern = "*"
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid watch pattern %q", pattern)
	}

	dir := a.modelDir(t.Name())
	if !a.config.ReadOnly {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directories: %w", err)
		}
	}

	events := make(chan core.Event)
	w := newWatchWorker(a, t.Name(), pattern, events)
	if err := w.Start(ctx, dir); err != nil {
		return nil, err
	}
	return events, nil
}

func (a *Adaptor) handleError(err error) {
	if a.config.ErrorHandler != nil {
		a.config.ErrorHandler(err)
		return
	}
	a.config.Logger.Error("fs adaptor error", "error", err)
}

var (
	_ data.Adaptor   = (*Adaptor)(nil)
	_ data.Watchable = (*Adaptor)(nil)
)
