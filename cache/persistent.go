package cache

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/vmihailenco/msgpack/v5"
)

// persistentBin is the reference Bin implementation, backed by a durable
// Storage and owning the minimum-lifetime policy.
//
// flushStartedAt is bin-wide shared state read and written by concurrent
// requests. Compare-and-swap keeps the window from being opened or closed
// twice; a race at worst widens or narrows the batching window slightly,
// never corrupts data.
type persistentBin struct {
	name           string
	store          Storage
	cfg            config
	flushStartedAt atomic.Int64
}

var _ Bin = (*persistentBin)(nil)

// NewPersistent returns a Bin named name backed by store. The minimum
// lifetime policy is resolved through WithConfig; it defaults to disabled.
func NewPersistent(name string, store Storage, opts ...Option) (Bin, error) {
	if err := validateBinName(name); err != nil {
		return nil, err
	}
	return &persistentBin{
		name:  name,
		store: store,
		cfg:   applyOptions(opts),
	}, nil
}

func (b *persistentBin) Get(ctx context.Context, sess *Session, cid string) (*Item, bool) {
	found, _ := b.GetMulti(ctx, sess, []string{cid})
	item, ok := found[cid]
	return item, ok
}

func (b *persistentBin) GetMulti(ctx context.Context, sess *Session, cids []string) (map[string]*Item, []string) {
	b.GarbageCollect(ctx)

	found := make(map[string]*Item, len(cids))
	if len(cids) == 0 {
		return found, nil
	}

	recs, err := b.store.Fetch(ctx, cids)
	if err != nil {
		// Fail open: a storage failure reads as a full miss.
		b.cfg.log.Warn("cache %s: read failed, treating %d id(s) as misses: %s", b.name, len(cids), err)
		return found, append([]string(nil), cids...)
	}

	lifetime := b.cfg.source.MinimumLifetime(ctx)
	watermark := sess.watermarkUnix()
	for _, rec := range recs {
		if !valid(rec, lifetime, watermark) {
			continue
		}
		found[rec.CID] = itemFromRecord(rec)
	}

	var missing []string
	for _, cid := range cids {
		if _, ok := found[cid]; !ok {
			missing = append(missing, cid)
		}
	}
	return found, missing
}

// valid applies the read-path filter: an entry counts as present iff it is
// permanent, or the minimum-lifetime policy is disabled, or it was created
// at or after the session's watermark. Entries older than the watermark are
// misses even though physically present, so a session that requested an
// invalidation keeps its own view consistent without forcing an immediate
// purge for everyone else.
func valid(rec Record, lifetime time.Duration, watermark int64) bool {
	if Expiration(rec.Expire) == Permanent {
		return true
	}
	if lifetime <= 0 {
		return true
	}
	return rec.Created >= watermark
}

func itemFromRecord(rec Record) *Item {
	item := &Item{
		CID:        rec.CID,
		Serialized: rec.Serialized,
		Created:    time.Unix(rec.Created, 0),
		Expire:     Expiration(rec.Expire),
	}
	if rec.Serialized {
		item.Data = rec.Data
	} else {
		item.Data = string(rec.Data)
	}
	return item
}

func (b *persistentBin) Set(ctx context.Context, cid string, data any, expire Expiration) error {
	rec := Record{
		CID:     cid,
		Created: b.cfg.now().Unix(),
		Expire:  int64(expire),
	}
	if s, ok := data.(string); ok {
		rec.Data = []byte(s)
	} else {
		buf, err := msgpack.Marshal(data)
		if err != nil {
			return errors.Mark(errors.Wrapf(err, "cache %s: encode %q", b.name, cid), ErrSerialization)
		}
		rec.Data = buf
		rec.Serialized = true
	}
	if err := b.store.Upsert(ctx, rec); err != nil {
		// Cache writes are best effort and must never fail the caller's
		// primary operation.
		b.cfg.log.Warn("cache %s: write for %q failed: %s", b.name, cid, err)
	}
	return nil
}

func (b *persistentBin) Delete(ctx context.Context, cid string) error {
	if err := b.store.Delete(ctx, []string{cid}); err != nil {
		return errors.Mark(errors.Wrapf(err, "cache %s: delete %q", b.name, cid), ErrStorageUnavailable)
	}
	return nil
}

func (b *persistentBin) DeleteMulti(ctx context.Context, cids []string) error {
	for len(cids) > 0 {
		n := b.cfg.batchSize
		if n > len(cids) {
			n = len(cids)
		}
		if err := b.store.Delete(ctx, cids[:n]); err != nil {
			return errors.Mark(errors.Wrapf(err, "cache %s: delete batch", b.name), ErrStorageUnavailable)
		}
		cids = cids[n:]
	}
	return nil
}

func (b *persistentBin) DeletePrefix(ctx context.Context, prefix string) error {
	if err := b.store.DeletePrefix(ctx, prefix); err != nil {
		return errors.Mark(errors.Wrapf(err, "cache %s: delete prefix %q", b.name, prefix), ErrStorageUnavailable)
	}
	return nil
}

func (b *persistentBin) Flush(ctx context.Context) error {
	if err := b.store.Truncate(ctx); err != nil {
		return errors.Mark(errors.Wrapf(err, "cache %s: flush", b.name), ErrStorageUnavailable)
	}
	return nil
}

func (b *persistentBin) Expire(ctx context.Context, sess *Session) error {
	now := b.cfg.now()
	lifetime := b.cfg.source.MinimumLifetime(ctx)

	if lifetime <= 0 {
		// Plain TTL expiry: purge everything already past its deadline.
		if err := b.store.DeleteExpired(ctx, now.Unix()); err != nil {
			return errors.Mark(errors.Wrapf(err, "cache %s: expire", b.name), ErrStorageUnavailable)
		}
		return nil
	}

	// Within the lifetime window only the caller's view is invalidated.
	if sess != nil {
		sess.SetWatermark(now)
	}

	start := b.flushStartedAt.Load()
	if start == 0 {
		b.flushStartedAt.CompareAndSwap(0, now.Unix())
		return nil
	}
	if now.Unix()-start >= int64(lifetime.Seconds()) {
		// Window is over: one physical delete covers every expiry request
		// batched since it opened.
		if err := b.store.DeleteExpired(ctx, start); err != nil {
			return errors.Mark(errors.Wrapf(err, "cache %s: expire", b.name), ErrStorageUnavailable)
		}
		b.flushStartedAt.CompareAndSwap(start, 0)
	}
	return nil
}

func (b *persistentBin) GarbageCollect(ctx context.Context) {
	start := b.flushStartedAt.Load()
	if start == 0 {
		return
	}
	lifetime := b.cfg.source.MinimumLifetime(ctx)
	if lifetime <= 0 {
		return
	}
	if b.cfg.now().Unix()-start < int64(lifetime.Seconds()) {
		return
	}
	// Closes windows left dangling when traffic has readers but no one
	// calling Expire.
	if err := b.store.DeleteExpired(ctx, start); err != nil {
		b.cfg.log.Warn("cache %s: garbage collection failed: %s", b.name, err)
		return
	}
	b.flushStartedAt.CompareAndSwap(start, 0)
}

func (b *persistentBin) IsEmpty(ctx context.Context) bool {
	b.GarbageCollect(ctx)
	ok, err := b.store.HasAny(ctx)
	if err != nil {
		b.cfg.log.Warn("cache %s: existence probe failed: %s", b.name, err)
		return true
	}
	return !ok
}
