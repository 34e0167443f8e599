package cache

import (
	"context"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

// redisStorage stores one bin as a keyspace of hashes, one hash per entry at
// <prefix>:<bin>:<cid> with fields d (data), c (created), e (expire) and
// s (serialized). Expiry is policy-driven at the bin layer, so no native
// Redis TTL is set; range operations walk the keyspace with SCAN.
//
// The caller owns the redis.Client lifecycle.
type redisStorage struct {
	client *redis.Client
	ns     string
	cfg    config
}

var _ Storage = (*redisStorage)(nil)

const redisScanCount = 100

// NewRedisStorage returns the Storage for one bin on the given client. Use
// WithPrefix to namespace multiple deployments on one Redis instance.
func NewRedisStorage(client *redis.Client, bin string, opts ...Option) (Storage, error) {
	if err := validateBinName(bin); err != nil {
		return nil, err
	}
	cfg := applyOptions(opts)
	ns := bin
	if cfg.prefix != "" {
		ns = cfg.prefix + ":" + bin
	}
	return &redisStorage{
		client: client,
		ns:     ns,
		cfg:    cfg,
	}, nil
}

func (s *redisStorage) queryCtx(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, s.cfg.queryTimeout)
}

func (s *redisStorage) key(cid string) string {
	return s.ns + ":" + cid
}

// escapeGlob makes a literal string safe inside a SCAN MATCH pattern.
func escapeGlob(p string) string {
	r := strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)
	return r.Replace(p)
}

func (s *redisStorage) Fetch(ctx context.Context, cids []string) ([]Record, error) {
	if len(cids) == 0 {
		return nil, nil
	}
	qctx, cancel := s.queryCtx(ctx)
	defer cancel()

	pipe := s.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(cids))
	for i, cid := range cids {
		cmds[i] = pipe.HGetAll(qctx, s.key(cid))
	}
	if _, err := pipe.Exec(qctx); err != nil && err != redis.Nil {
		return nil, err
	}

	var recs []Record
	for i, cmd := range cmds {
		fields, err := cmd.Result()
		if err != nil {
			return nil, err
		}
		if len(fields) == 0 {
			continue
		}
		created, err := strconv.ParseInt(fields["c"], 10, 64)
		if err != nil {
			continue
		}
		expire, err := strconv.ParseInt(fields["e"], 10, 64)
		if err != nil {
			continue
		}
		recs = append(recs, Record{
			CID:        cids[i],
			Data:       []byte(fields["d"]),
			Created:    created,
			Expire:     expire,
			Serialized: fields["s"] == "1",
		})
	}
	return recs, nil
}

func (s *redisStorage) Upsert(ctx context.Context, rec Record) error {
	qctx, cancel := s.queryCtx(ctx)
	defer cancel()

	serialized := "0"
	if rec.Serialized {
		serialized = "1"
	}
	return s.client.HSet(qctx, s.key(rec.CID),
		"d", rec.Data,
		"c", rec.Created,
		"e", rec.Expire,
		"s", serialized,
	).Err()
}

func (s *redisStorage) Delete(ctx context.Context, cids []string) error {
	if len(cids) == 0 {
		return ErrEmptyBatch
	}
	qctx, cancel := s.queryCtx(ctx)
	defer cancel()

	keys := make([]string, len(cids))
	for i, cid := range cids {
		keys[i] = s.key(cid)
	}
	return s.client.Del(qctx, keys...).Err()
}

// scan walks every key matching the pattern, handing batches to fn.
func (s *redisStorage) scan(ctx context.Context, match string, fn func(ctx context.Context, keys []string) error) error {
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, match, redisScanCount).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := fn(ctx, keys); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

func (s *redisStorage) DeletePrefix(ctx context.Context, prefix string) error {
	qctx, cancel := s.queryCtx(ctx)
	defer cancel()

	match := escapeGlob(s.ns+":"+prefix) + "*"
	return s.scan(qctx, match, func(ctx context.Context, keys []string) error {
		return s.client.Del(ctx, keys...).Err()
	})
}

func (s *redisStorage) DeleteExpired(ctx context.Context, cutoff int64) error {
	qctx, cancel := s.queryCtx(ctx)
	defer cancel()

	match := escapeGlob(s.ns) + ":*"
	return s.scan(qctx, match, func(ctx context.Context, keys []string) error {
		pipe := s.client.Pipeline()
		cmds := make([]*redis.StringCmd, len(keys))
		for i, key := range keys {
			cmds[i] = pipe.HGet(ctx, key, "e")
		}
		if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
			return err
		}
		var doomed []string
		for i, cmd := range cmds {
			expire, err := cmd.Int64()
			if err != nil {
				continue
			}
			if expire != int64(Permanent) && expire <= cutoff {
				doomed = append(doomed, keys[i])
			}
		}
		if len(doomed) == 0 {
			return nil
		}
		return s.client.Del(ctx, doomed...).Err()
	})
}

func (s *redisStorage) Truncate(ctx context.Context) error {
	qctx, cancel := s.queryCtx(ctx)
	defer cancel()

	match := escapeGlob(s.ns) + ":*"
	return s.scan(qctx, match, func(ctx context.Context, keys []string) error {
		return s.client.Del(ctx, keys...).Err()
	})
}

func (s *redisStorage) HasAny(ctx context.Context) (bool, error) {
	qctx, cancel := s.queryCtx(ctx)
	defer cancel()

	match := escapeGlob(s.ns) + ":*"
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(qctx, cursor, match, 1).Result()
		if err != nil {
			return false, err
		}
		if len(keys) > 0 {
			return true, nil
		}
		if next == 0 {
			return false, nil
		}
		cursor = next
	}
}
