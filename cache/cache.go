package cache

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/bincache/go-bincache/logger"
)

// Expiration controls when an entry becomes eligible for time-based removal.
// Permanent entries are only removed by an explicit delete or flush.
// Temporary entries are removed on the next expiry run. Any positive value
// is a unix timestamp marking the earliest eligible removal time.
type Expiration int64

const (
	Permanent Expiration = 0
	Temporary Expiration = -1
)

// ExpireAt returns the Expiration for an absolute deadline.
func ExpireAt(t time.Time) Expiration {
	return Expiration(t.Unix())
}

// ExpireIn returns the Expiration for a deadline d from now.
func ExpireIn(d time.Duration) Expiration {
	return Expiration(time.Now().Add(d).Unix())
}

// Item is one cache entry as returned by reads. Data holds a string when the
// value was stored verbatim, or the raw msgpack encoding when Serialized is
// set. Use Value to decode either form into a concrete type.
type Item struct {
	CID        string
	Data       any
	Serialized bool
	Created    time.Time
	Expire     Expiration
}

// Bin is an isolated cache namespace. Operations never cross bin boundaries.
//
// Reads fail open: a storage failure surfaces as a miss, never as an error.
// Set swallows storage failures as well (a cache write must not fail the
// caller's primary operation) but does report values it cannot encode.
// Explicit destructive operations propagate storage errors, since a caller
// asking for a delete needs to know whether it happened.
type Bin interface {
	// Get returns the entry for cid, or false on a miss. The session
	// watermark participates in validity filtering; sess may be nil for
	// callers without session state.
	Get(ctx context.Context, sess *Session, cid string) (*Item, bool)

	// GetMulti returns the valid entries found for cids, plus the ids that
	// missed. Every input id lands in exactly one of the two results.
	GetMulti(ctx context.Context, sess *Session, cids []string) (map[string]*Item, []string)

	// Set stores data under cid, replacing any previous entry.
	Set(ctx context.Context, cid string, data any, expire Expiration) error

	// Delete removes the entry for cid. Deleting an absent id is a no-op.
	Delete(ctx context.Context, cid string) error

	// DeleteMulti removes every id in cids, in bounded-size batches.
	DeleteMulti(ctx context.Context, cids []string) error

	// DeletePrefix removes every entry whose cid starts with prefix.
	DeletePrefix(ctx context.Context, prefix string) error

	// Flush removes all entries, including permanent ones.
	Flush(ctx context.Context) error

	// Expire applies the minimum-lifetime policy: with the policy disabled
	// it deletes expired entries immediately, otherwise it advances the
	// session watermark and opens or closes the bin's flush window.
	Expire(ctx context.Context, sess *Session) error

	// GarbageCollect opportunistically closes an overdue flush window.
	// It runs before every read and never fails the caller.
	GarbageCollect(ctx context.Context)

	// IsEmpty reports whether the bin holds any entry after garbage
	// collection has run.
	IsEmpty(ctx context.Context) bool
}

// Value decodes an Item's payload into a concrete type. Verbatim string
// payloads are type-asserted directly; serialized payloads are decoded from
// msgpack. This works transparently regardless of which backend produced
// the item.
func Value[T any](item *Item) (T, error) {
	var zero T
	if item == nil {
		return zero, errors.New("cache: cannot decode nil item")
	}
	if typed, ok := item.Data.(T); ok {
		return typed, nil
	}
	if raw, ok := item.Data.([]byte); ok && item.Serialized {
		var out T
		if err := msgpack.Unmarshal(raw, &out); err != nil {
			return zero, errors.Mark(errors.Wrapf(err, "cache: decode %q", item.CID), ErrSerialization)
		}
		return out, nil
	}
	return zero, errors.Newf("cache: cannot convert value of type %T to %T", item.Data, zero)
}

// Decode unmarshals a serialized Item payload into v, for callers that need
// decoding into an existing value rather than a fresh one.
func Decode(item *Item, v any) error {
	if item == nil {
		return errors.New("cache: cannot decode nil item")
	}
	raw, ok := item.Data.([]byte)
	if !ok || !item.Serialized {
		return errors.Newf("cache: item %q is not serialized", item.CID)
	}
	if err := msgpack.Unmarshal(raw, v); err != nil {
		return errors.Mark(errors.Wrapf(err, "cache: decode %q", item.CID), ErrSerialization)
	}
	return nil
}

// DefaultBatchSize bounds how many ids a single storage delete predicate may
// carry. Larger collections are chunked.
const DefaultBatchSize = 1000

// DefaultQueryTimeout is the per-operation timeout applied by the I/O-backed
// storage implementations. Prevents indefinite hangs on slow storage.
const DefaultQueryTimeout = 5 * time.Second

type config struct {
	log          logger.Logger
	source       ConfigSource
	batchSize    int
	queryTimeout time.Duration
	prefix       string
	now          func() time.Time
}

// Option configures a bin or storage implementation.
type Option func(*config)

func defaultConfig() config {
	return config{
		log:          logger.Noop(),
		source:       StaticConfig(0),
		batchSize:    DefaultBatchSize,
		queryTimeout: DefaultQueryTimeout,
		now:          time.Now,
	}
}

func applyOptions(opts []Option) config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithLogger sets the logger used to report swallowed storage failures.
// Defaults to a no-op logger.
func WithLogger(log logger.Logger) Option {
	return func(c *config) { c.log = log }
}

// WithConfig sets the source of the minimum-lifetime policy knob.
// Defaults to StaticConfig(0), which disables the flush window.
func WithConfig(source ConfigSource) Option {
	return func(c *config) { c.source = source }
}

// WithBatchSize sets the maximum id count per storage delete predicate.
// Defaults to DefaultBatchSize.
func WithBatchSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

// WithQueryTimeout sets the per-operation timeout for I/O-backed storage
// (SQLite, Redis). Defaults to DefaultQueryTimeout.
func WithQueryTimeout(d time.Duration) Option {
	return func(c *config) { c.queryTimeout = d }
}

// WithPrefix sets the key prefix used by the Redis storage for namespacing
// multiple deployments on one Redis instance. Defaults to empty.
func WithPrefix(p string) Option {
	return func(c *config) { c.prefix = p }
}
