package cache

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
)

// Builder constructs the Bin implementation for a named bin.
type Builder func(ctx context.Context, name string) (Bin, error)

// Registry resolves bin names to shared Bin instances. Each bin is built
// lazily on first request by its Builder and memoized for the life of the
// registry, so every caller sees the same instance. Implementation choice is
// fixed at registry construction: a default Builder covers every bin, with
// optional per-bin overrides.
type Registry struct {
	mu       sync.Mutex
	def      Builder
	builders map[string]Builder
	bins     map[string]Bin
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithBin overrides the implementation used for one bin name.
func WithBin(name string, builder Builder) RegistryOption {
	return func(r *Registry) { r.builders[name] = builder }
}

// NewRegistry returns a Registry using def for every bin without an
// override. A nil default builder, or a nil override, is a construction-time
// error: misconfiguration must fail loudly instead of silently degrading.
func NewRegistry(def Builder, opts ...RegistryOption) (*Registry, error) {
	if def == nil {
		return nil, errors.Wrap(ErrNoBuilder, "default builder")
	}
	r := &Registry{
		def:      def,
		builders: make(map[string]Builder),
		bins:     make(map[string]Bin),
	}
	for _, opt := range opts {
		opt(r)
	}
	for name, builder := range r.builders {
		if builder == nil {
			return nil, errors.Wrapf(ErrNoBuilder, "bin %q", name)
		}
	}
	return r, nil
}

// Bin returns the shared instance for name, building it on first request.
// A builder failure is not memoized; the next request retries.
func (r *Registry) Bin(ctx context.Context, name string) (Bin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if bin, ok := r.bins[name]; ok {
		return bin, nil
	}
	builder := r.def
	if override, ok := r.builders[name]; ok {
		builder = override
	}
	bin, err := builder(ctx, name)
	if err != nil {
		return nil, errors.Wrapf(err, "cache: build bin %q", name)
	}
	r.bins[name] = bin
	return bin, nil
}
