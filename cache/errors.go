package cache

import "github.com/cockroachdb/errors"

var (
	// ErrStorageUnavailable marks storage failures surfaced by explicit
	// destructive operations. Read and write failures are swallowed and
	// never carry this mark to the caller.
	ErrStorageUnavailable = errors.New("cache: storage unavailable")

	// ErrSerialization marks payloads that cannot be encoded or decoded.
	ErrSerialization = errors.New("cache: value cannot be serialized")

	// ErrEmptyBatch is returned by storage implementations handed an empty
	// id collection where at least one id is required.
	ErrEmptyBatch = errors.New("cache: empty id batch")

	// ErrBadBinName is returned for bin names that cannot be embedded in a
	// table name or key namespace.
	ErrBadBinName = errors.New("cache: invalid bin name")

	// ErrNoBuilder is returned when a registry is constructed without a
	// usable default builder.
	ErrNoBuilder = errors.New("cache: no builder configured")
)
