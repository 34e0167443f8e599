package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
)

// memStorage is an in-memory Storage for exercising the bin's policy logic
// without a real backend. It records delete batch sizes and can be switched
// into a failing mode where every operation errors.
type memStorage struct {
	mu           sync.Mutex
	rows         map[string]Record
	failing      bool
	deleteCalls  [][]string
	expiredCalls []int64
}

var _ Storage = (*memStorage)(nil)

var errMemStorageDown = errors.New("storage down")

func newMemStorage() *memStorage {
	return &memStorage{rows: make(map[string]Record)}
}

func (m *memStorage) fail(on bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failing = on
}

func (m *memStorage) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

func (m *memStorage) has(cid string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.rows[cid]
	return ok
}

// put bypasses the bin's write path so tests can craft rows directly.
func (m *memStorage) put(cid string, expire Expiration, created time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[cid] = Record{
		CID:     cid,
		Data:    []byte("raw"),
		Created: created.Unix(),
		Expire:  int64(expire),
	}
}

func (m *memStorage) Fetch(_ context.Context, cids []string) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return nil, errMemStorageDown
	}
	var recs []Record
	for _, cid := range cids {
		if rec, ok := m.rows[cid]; ok {
			recs = append(recs, rec)
		}
	}
	return recs, nil
}

func (m *memStorage) Upsert(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return errMemStorageDown
	}
	m.rows[rec.CID] = rec
	return nil
}

func (m *memStorage) Delete(_ context.Context, cids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(cids) == 0 {
		return ErrEmptyBatch
	}
	if m.failing {
		return errMemStorageDown
	}
	m.deleteCalls = append(m.deleteCalls, append([]string(nil), cids...))
	for _, cid := range cids {
		delete(m.rows, cid)
	}
	return nil
}

func (m *memStorage) DeletePrefix(_ context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return errMemStorageDown
	}
	for cid := range m.rows {
		if strings.HasPrefix(cid, prefix) {
			delete(m.rows, cid)
		}
	}
	return nil
}

func (m *memStorage) DeleteExpired(_ context.Context, cutoff int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return errMemStorageDown
	}
	m.expiredCalls = append(m.expiredCalls, cutoff)
	for cid, rec := range m.rows {
		if rec.Expire != int64(Permanent) && rec.Expire <= cutoff {
			delete(m.rows, cid)
		}
	}
	return nil
}

func (m *memStorage) Truncate(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return errMemStorageDown
	}
	m.rows = make(map[string]Record)
	return nil
}

func (m *memStorage) HasAny(context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return false, errMemStorageDown
	}
	return len(m.rows) > 0, nil
}

// fakeClock drives the bin's notion of time so window tests do not sleep.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Unix(1700000000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}
