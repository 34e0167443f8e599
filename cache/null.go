package cache

import "context"

// nullBin satisfies the Bin contract without touching storage: every read is
// a miss, every write and delete is accepted and discarded. Useful before
// durable storage is provisioned and in tests that must not hit storage.
type nullBin struct{}

var _ Bin = nullBin{}

// NewNull returns the no-op Bin.
func NewNull() Bin {
	return nullBin{}
}

func (nullBin) Get(context.Context, *Session, string) (*Item, bool) {
	return nil, false
}

func (nullBin) GetMulti(_ context.Context, _ *Session, cids []string) (map[string]*Item, []string) {
	return map[string]*Item{}, append([]string(nil), cids...)
}

func (nullBin) Set(context.Context, string, any, Expiration) error { return nil }

func (nullBin) Delete(context.Context, string) error { return nil }

func (nullBin) DeleteMulti(context.Context, []string) error { return nil }

func (nullBin) DeletePrefix(context.Context, string) error { return nil }

func (nullBin) Flush(context.Context) error { return nil }

func (nullBin) Expire(context.Context, *Session) error { return nil }

func (nullBin) GarbageCollect(context.Context) {}

func (nullBin) IsEmpty(context.Context) bool { return true }
