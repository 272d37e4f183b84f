package platform

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/piewpiew/pkg/adapters/fs"
	"github.com/aretw0/piewpiew/pkg/adapters/memory"
	"github.com/aretw0/piewpiew/pkg/data"
)

var (
	defaultMu      sync.Mutex
	defaultAdaptor data.Adaptor
)

// DefaultAdaptor returns the process-wide adaptor used by model types defined
// without one. It is an in-memory adaptor unless SetDefaultAdaptor replaced it.
func DefaultAdaptor() data.Adaptor {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultAdaptor == nil {
		defaultAdaptor = memory.New()
	}
	return defaultAdaptor
}

// SetDefaultAdaptor replaces the process-wide adaptor. Model types already
// defined keep the adaptor they were given.
func SetDefaultAdaptor(a data.Adaptor) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultAdaptor = a
}

// Open builds the storage adaptor selected by the options. The uri argument is
// adapter-specific: the root directory for "fs", ignored for "memory".
func Open(uri string, opts ...Option) (data.Adaptor, error) {
	o := apply(opts)
	return open(uri, o)
}

func open(uri string, o *options) (data.Adaptor, error) {
	if o.adaptor != nil {
		return o.adaptor, nil
	}

	switch o.adapter {
	case "memory", "":
		return initMemory(o), nil
	case "fs":
		return initFS(uri, o)
	default:
		return nil, fmt.Errorf("unknown adapter: %s", o.adapter)
	}
}

func initMemory(o *options) *memory.Adaptor {
	var mopts []memory.Option
	if latency, ok := o.config["latency"].(time.Duration); ok {
		mopts = append(mopts, memory.WithLatency(latency))
	}
	if o.logger != nil {
		mopts = append(mopts, memory.WithLogger(o.logger))
	}
	return memory.New(mopts...)
}

// initFS handles the initialization logic for the filesystem adaptor.
func initFS(path string, o *options) (*fs.Adaptor, error) {
	tempDir, _ := o.config["temp_dir"].(bool)
	strict, _ := o.config["strict"].(bool)
	format, _ := o.config["format"].(string)
	systemDir, _ := o.config["system_dir"].(string)
	concurrency, _ := o.config["concurrency"].(int)
	errorHandler, _ := o.config["error_handler"].(func(error))
	isReadOnly, _ := o.config["read_only"].(bool)

	devSafety := true
	if val, ok := o.config["dev_safety"].(bool); ok {
		devSafety = val
	}
	bypassSafety := isReadOnly || !devSafety

	useTemp := tempDir || (IsDevRun() && !bypassSafety)
	resolvedPath := ResolveStorePath(path, useTemp)

	logger := o.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if useTemp {
		logger.Warn("running in SAFE MODE (dev sandbox)", "original_path", path, "resolved_path", resolvedPath)
	} else if IsDevRun() && !isReadOnly {
		logger.Warn("running in UNSAFE mode (bypassing dev sandbox)", "path", resolvedPath)
	}

	return fs.New(fs.Config{
		Path:         resolvedPath,
		SystemDir:    systemDir,
		Format:       format,
		ReadOnly:     isReadOnly,
		Strict:       strict,
		Concurrency:  concurrency,
		Logger:       logger,
		ErrorHandler: errorHandler,
	})
}

// TypeOptions translates the options into model type options. Without an
// injected adaptor the process-wide default is used.
func TypeOptions(opts ...Option) []data.TypeOption {
	return typeOptions(apply(opts))
}

func typeOptions(o *options) []data.TypeOption {
	a := o.adaptor
	if a == nil {
		a = DefaultAdaptor()
	}
	out := []data.TypeOption{data.WithAdaptor(a)}
	if o.logger != nil {
		out = append(out, data.WithLogger(o.logger))
	}
	if d, ok := o.config["query_timeout"].(time.Duration); ok && d > 0 {
		out = append(out, data.WithQueryTimeout(d))
	}
	return out
}

// Define declares a model type wired to the configured adaptor.
func Define(name string, fields data.Fields, opts ...Option) *data.ModelType {
	return data.NewModelType(name, fields, TypeOptions(opts...)...)
}
