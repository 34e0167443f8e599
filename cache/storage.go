package cache

import (
	"context"
	"regexp"

	"github.com/cockroachdb/errors"
)

// Record is the stored form of one entry. Created and Expire are unix
// timestamps in seconds; Expire uses the Permanent and Temporary sentinels.
type Record struct {
	CID        string
	Data       []byte
	Created    int64
	Expire     int64
	Serialized bool
}

// Storage is the durable table backing one persistent bin. Implementations
// provide per-row atomic upserts; batched deletes only need to be atomic per
// call, not across calls. Implementations return ErrEmptyBatch from Delete
// when handed no ids.
type Storage interface {
	// Fetch returns the records present for the given ids, in any order.
	// Absent ids are simply not returned.
	Fetch(ctx context.Context, cids []string) ([]Record, error)

	// Upsert inserts the record or fully replaces an existing one with the
	// same CID.
	Upsert(ctx context.Context, rec Record) error

	// Delete removes the records for the given ids. Absent ids are ignored.
	Delete(ctx context.Context, cids []string) error

	// DeletePrefix removes every record whose CID starts with prefix.
	DeletePrefix(ctx context.Context, prefix string) error

	// DeleteExpired removes every record with Expire != Permanent and
	// Expire <= cutoff. The Temporary sentinel always satisfies the cutoff.
	DeleteExpired(ctx context.Context, cutoff int64) error

	// Truncate removes every record.
	Truncate(ctx context.Context) error

	// HasAny reports whether at least one record exists. An existence
	// probe, never a count.
	HasAny(ctx context.Context) (bool, error)
}

// Bin names end up embedded in table names and key namespaces, so they are
// restricted to identifier characters.
var binNameRE = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

func validateBinName(name string) error {
	if !binNameRE.MatchString(name) {
		return errors.Wrapf(ErrBadBinName, "%q", name)
	}
	return nil
}
