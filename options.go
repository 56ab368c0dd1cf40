package memvec

import (
	"time"

	"github.com/google/uuid"
)

// Options contains configuration options for the Store.
type Options struct {
	// Logger receives structured operation logs. Defaults to NoopLogger.
	Logger *Logger

	// IDGenerator produces vector IDs when the caller omits one.
	// Defaults to random UUIDs.
	IDGenerator func() string

	// Clock supplies timestamps. Overridable for tests.
	Clock func() time.Time

	// Indexing maintains per-namespace inverted indexes that accelerate
	// equality and membership filters. Results are identical either way.
	Indexing bool

	// Seed is applied record by record at construction time. A seed record
	// that fails validation aborts construction.
	Seed []UpsertRequest
}

// DefaultOptions contains the default configuration options for the Store.
var DefaultOptions = Options{
	IDGenerator: uuid.NewString,
	Clock:       func() time.Time { return time.Now().UTC() },
	Indexing:    true,
}

// WithLogger sets the logger.
func WithLogger(logger *Logger) func(o *Options) {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithIDGenerator sets the generator used for omitted vector IDs.
func WithIDGenerator(gen func() string) func(o *Options) {
	return func(o *Options) {
		o.IDGenerator = gen
	}
}

// WithClock sets the timestamp source.
func WithClock(clock func() time.Time) func(o *Options) {
	return func(o *Options) {
		o.Clock = clock
	}
}

// WithIndexing enables or disables the metadata inverted index.
func WithIndexing(enabled bool) func(o *Options) {
	return func(o *Options) {
		o.Indexing = enabled
	}
}

// WithSeed loads initial records at construction time.
func WithSeed(seed ...UpsertRequest) func(o *Options) {
	return func(o *Options) {
		o.Seed = seed
	}
}
