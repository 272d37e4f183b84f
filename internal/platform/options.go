package platform

import (
	"log/slog"
	"time"

	"github.com/aretw0/piewpiew/pkg/data"
)

// options holds the internal configuration of a store and the model types defined on it.
type options struct {
	adaptor data.Adaptor
	logger  *slog.Logger
	adapter string
	config  map[string]any
}

// Option defines a functional option for configuring piewpiew.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{
		adapter: "memory",
		config:  make(map[string]any),
	}
}

func apply(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithAdaptor injects a storage adaptor. When set, no adaptor is built.
func WithAdaptor(a data.Adaptor) Option {
	return func(o *options) {
		o.adaptor = a
	}
}

// WithAdapter selects the storage adaptor by name: "memory" (default) or "fs".
func WithAdapter(name string) Option {
	return func(o *options) {
		o.adapter = name
	}
}

// WithLogger sets the logger shared by the adaptor and the model managers.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLatency sets the artificial load delay of the memory adaptor.
func WithLatency(d time.Duration) Option {
	return func(o *options) {
		o.config["latency"] = d
	}
}

// WithFormat selects the file format of the fs adaptor ("json" or "yaml").
func WithFormat(format string) Option {
	return func(o *options) {
		o.config["format"] = format
	}
}

// WithSystemDir allows specifying the hidden directory name (e.g. ".piewpiew").
func WithSystemDir(name string) Option {
	return func(o *options) {
		o.config["system_dir"] = name
	}
}

// WithStrict makes the fs adaptor decode numbers as json.Number before field
// cleaning, preserving the precision of large integers.
func WithStrict(strict bool) Option {
	return func(o *options) {
		o.config["strict"] = strict
	}
}

// WithConcurrency bounds the number of files the fs adaptor decodes in parallel.
func WithConcurrency(n int) Option {
	return func(o *options) {
		o.config["concurrency"] = n
	}
}

// WithErrorHandler receives errors raised off the caller's goroutine (watchers,
// unreadable files).
func WithErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.config["error_handler"] = fn
	}
}

// WithReadOnly enables read-only mode.
// In this mode:
// 1. Save returns core.ErrReadOnly.
// 2. The store directory is never created.
// 3. The dev sandbox is bypassed (the real path is used).
func WithReadOnly(enabled bool) Option {
	return func(o *options) {
		o.config["read_only"] = enabled
	}
}

// WithForceTemp forces the use of a temporary directory (useful for testing).
func WithForceTemp(force bool) Option {
	return func(o *options) {
		o.config["temp_dir"] = force
	}
}

// WithDevSafety controls the sandbox used when running via `go run`.
// By default (true), the fs adaptor is re-rooted into a temporary directory to
// prevent accidental writes to the real workspace.
//
// CAUTION: Only disable this if you are sure your code is safe.
func WithDevSafety(enabled bool) Option {
	return func(o *options) {
		o.config["dev_safety"] = enabled
	}
}

// WithQueryTimeout bounds how long queries of defined model types may wait.
func WithQueryTimeout(d time.Duration) Option {
	return func(o *options) {
		o.config["query_timeout"] = d
	}
}
