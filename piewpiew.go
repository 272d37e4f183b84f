package piewpiew

import (
	"log/slog"
	"time"

	"github.com/aretw0/piewpiew/internal/platform"
	"github.com/aretw0/piewpiew/pkg/data"
	"github.com/aretw0/piewpiew/pkg/typed"
)

// --- Types ---

// Model is an instance of a ModelType.
type Model = data.Model

// ModelType describes one kind of model.
type ModelType = data.ModelType

// Fields declares the attributes of a model type.
type Fields = data.Fields

// Field declares the type and constraints of one attribute.
type Field = data.Field

// Lookups maps filter keys to criteria.
type Lookups = data.Lookups

// Manager is the persistence surface of a model type.
type Manager = data.Manager

// QuerySet is a deferred, single-use query.
type QuerySet = data.QuerySet

// Adaptor is a storage backend.
type Adaptor = data.Adaptor

// Schema declares model types in YAML.
type Schema = platform.Schema

// Record is a typed view of a model instance.
type Record[T any] = typed.Record[T]

// TypedManager wraps a Manager with blocking, type-safe calls.
type TypedManager[T any] = typed.Manager[T]

// Attr is a typed accessor for one attribute.
type Attr[T any] = typed.Attr[T]

// --- Errors ---

var (
	ErrValidation    = data.ErrValidation
	ErrQueryConsumed = data.ErrQueryConsumed
	ErrUnknownLookup = data.ErrUnknownLookup
	ErrNoAdaptor     = data.ErrNoAdaptor
	ErrStalled       = data.ErrStalled
	ErrRootNotFound  = platform.ErrRootNotFound
)

// --- Fields ---

// Required marks a field as mandatory.
func Required() data.FieldOption { return data.Required() }

// String declares a string field.
func String(opts ...data.FieldOption) *Field { return data.String(opts...) }

// Integer declares an integer field.
func Integer(opts ...data.FieldOption) *Field { return data.Integer(opts...) }

// Float declares a floating point field.
func Float(opts ...data.FieldOption) *Field { return data.Float(opts...) }

// Boolean declares a boolean field.
func Boolean(opts ...data.FieldOption) *Field { return data.Boolean(opts...) }

// --- Configuration ---

// Option defines a functional option for configuring piewpiew.
type Option = platform.Option

// WithAdaptor injects a storage adaptor.
func WithAdaptor(a Adaptor) Option { return platform.WithAdaptor(a) }

// WithAdapter selects the storage adaptor by name ("memory" or "fs").
func WithAdapter(name string) Option { return platform.WithAdapter(name) }

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option { return platform.WithLogger(logger) }

// WithLatency sets the artificial load delay of the memory adaptor.
func WithLatency(d time.Duration) Option { return platform.WithLatency(d) }

// WithFormat selects the file format of the fs adaptor.
func WithFormat(format string) Option { return platform.WithFormat(format) }

// WithSystemDir sets the hidden directory of the fs adaptor.
func WithSystemDir(name string) Option { return platform.WithSystemDir(name) }

// WithReadOnly enables read-only mode.
func WithReadOnly(enabled bool) Option { return platform.WithReadOnly(enabled) }

// WithStrict preserves the precision of large integers read by the fs adaptor.
func WithStrict(strict bool) Option { return platform.WithStrict(strict) }

// WithForceTemp forces the use of a temporary directory.
func WithForceTemp(force bool) Option { return platform.WithForceTemp(force) }

// WithDevSafety controls the sandbox used when running via `go run`.
func WithDevSafety(enabled bool) Option { return platform.WithDevSafety(enabled) }

// WithQueryTimeout bounds how long queries may wait.
func WithQueryTimeout(d time.Duration) Option { return platform.WithQueryTimeout(d) }

// WithErrorHandler receives errors raised off the caller's goroutine.
func WithErrorHandler(fn func(error)) Option { return platform.WithErrorHandler(fn) }

// --- Factory ---

// Open builds the storage adaptor selected by the options.
func Open(uri string, opts ...Option) (Adaptor, error) {
	return platform.Open(uri, opts...)
}

// Define declares a model type wired to the configured (or default) adaptor.
func Define(name string, fields Fields, opts ...Option) *ModelType {
	return platform.Define(name, fields, opts...)
}

// DefaultAdaptor returns the process-wide adaptor.
func DefaultAdaptor() Adaptor { return platform.DefaultAdaptor() }

// SetDefaultAdaptor replaces the process-wide adaptor.
func SetDefaultAdaptor(a Adaptor) { platform.SetDefaultAdaptor(a) }

// LoadSchema reads a YAML schema file.
func LoadSchema(path string) (*Schema, error) { return platform.LoadSchema(path) }

// --- Typed Factories ---

// NewTypedManager creates a typed manager for t.
func NewTypedManager[T any](t *ModelType) *TypedManager[T] {
	return typed.NewManager[T](t)
}

// NewAttr declares a typed accessor for the attribute name.
func NewAttr[T any](name string) Attr[T] {
	return typed.NewAttr[T](name)
}

// --- Safety & Utils ---

// IsDevRun checks if the current process is running via `go run` or `go test`.
func IsDevRun() bool { return platform.IsDevRun() }

// FindRoot looks upwards from startDir for a store root.
func FindRoot(startDir string) (string, error) { return platform.FindRoot(startDir) }
