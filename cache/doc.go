// Package cache provides namespaced key/value cache bins with time-based
// expiration, a minimum-lifetime flush window and lazy, batched garbage
// collection.
//
// # Bins
//
// A [Bin] is an isolated cache namespace: operations on one bin never touch
// another. Entries are keyed by a string cache id (cid) and carry an
// [Expiration]: [Permanent] entries survive until explicitly deleted or
// flushed, [Temporary] entries are removed on the next expiry run, and a
// positive value is a unix timestamp marking the earliest removal time.
//
// Two implementations are provided:
//
//   - [NewPersistent] — the reference implementation, backed by a durable
//     [Storage] table per bin. Owns serialization, the minimum-lifetime
//     policy and batched deletes.
//
//   - [NewNull] — a no-op bin. Every read misses, every write and delete is
//     accepted and discarded, IsEmpty is always true. A safe default before
//     durable storage is provisioned, and for tests that must not touch
//     storage.
//
// # Storage backends
//
// The persistent bin talks to storage through the [Storage] contract. Two
// backends ship with the package: [NewSQLiteStorage] (one table per bin via
// modernc.org/sqlite, pure Go, WAL mode) and [NewRedisStorage] (one hash per
// entry, SCAN-based range operations). Both apply a per-operation timeout
// ([DefaultQueryTimeout]) so a hung store cannot hang the caller forever.
//
// # Minimum cache lifetime
//
// With the minimum lifetime disabled (the default), [Bin.Expire] deletes
// expired temporary entries immediately. With a lifetime of N, expiry
// becomes a two-phase protocol that bounds physical deletes to once per N
// per bin:
//
//   - Expire stamps the calling [Session] with a watermark and opens the
//     bin's flush window if none is active. Reads by that session now treat
//     temporary entries created before the watermark as misses, while other
//     sessions keep reading them. This is the anti-thrashing rule: the
//     session that invalidated sees its invalidation, everyone else keeps a
//     warm cache until the window closes.
//
//   - Once N has elapsed since the window opened, the next Expire or
//     [Bin.GarbageCollect] performs one physical delete of everything that
//     had expired when the window opened, then closes the window.
//
// GarbageCollect runs before every read, so windows close even when traffic
// has no writers calling Expire.
//
// # Error handling
//
// Reads fail open: storage failures surface as misses and are logged, never
// returned. Set swallows storage failures too — a cache write must never
// fail the caller's primary operation — but propagates [ErrSerialization]
// for values it cannot encode. Explicit destructive operations (Delete,
// DeleteMulti, DeletePrefix, Flush, and Expire when it performs the physical
// delete) propagate storage errors marked with [ErrStorageUnavailable].
//
// # Serialization
//
// Strings are stored verbatim. Everything else is encoded with msgpack
// (github.com/vmihailenco/msgpack/v5) and flagged, and decoded on read with
// the generic [Value] helper:
//
//	found, _ := bin.Get(ctx, sess, "user:123")
//	user, err := cache.Value[User](found)
//
// # Registry
//
// A [Registry] maps bin names to shared instances, built lazily on first
// request and memoized for the life of the registry. A default [Builder]
// covers every bin, with per-bin overrides:
//
//	reg, err := cache.NewRegistry(
//	    func(ctx context.Context, name string) (cache.Bin, error) {
//	        store, err := cache.NewSQLiteStorage(db, name)
//	        if err != nil {
//	            return nil, err
//	        }
//	        return cache.NewPersistent(name, store, cache.WithConfig(lifetime))
//	    },
//	    cache.WithBin("scratch", func(context.Context, string) (cache.Bin, error) {
//	        return cache.NewNull(), nil
//	    }),
//	)
package cache
