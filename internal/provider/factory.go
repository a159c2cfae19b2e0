package provider

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Builder constructs a provider client from a resolved configuration.
// Construction may be expensive (model load, worker process start).
type Builder[T Client] func(ctx context.Context, cfg Config) (T, error)

// Factory owns the single cached client of one provider family (STT or
// TTS). The cached instance is shared by all concurrent requests and
// stays valid while its configuration fingerprint matches the requested
// one; a mismatch retires the old instance and builds a replacement.
//
// Retired instances are reference-counted: cleanup runs only after the
// last outstanding lease is released, so an in-flight operation is
// never torn down mid-call.
type Factory[T Client] struct {
	family   string
	builders map[string]Builder[T]
	labels   map[string]string

	mu      sync.Mutex
	current *slot[T]
}

type slot[T Client] struct {
	client      T
	fingerprint string
	refs        int
	retired     bool
}

// NewFactory creates an empty factory for the named family ("stt" or
// "tts").
func NewFactory[T Client](family string) *Factory[T] {
	return &Factory[T]{
		family:   family,
		builders: make(map[string]Builder[T]),
		labels:   make(map[string]string),
	}
}

// Register adds a provider kind with its human label and builder.
func (f *Factory[T]) Register(kind, label string, builder Builder[T]) {
	f.builders[kind] = builder
	f.labels[kind] = label
}

// Providers returns the static mapping of known provider kinds to
// human-readable labels.
func (f *Factory[T]) Providers() map[string]string {
	out := make(map[string]string, len(f.labels))
	for k, v := range f.labels {
		out[k] = v
	}
	return out
}

func (f *Factory[T]) kinds() []string {
	kinds := make([]string, 0, len(f.builders))
	for k := range f.builders {
		kinds = append(kinds, k)
	}
	return kinds
}

// Acquire returns a lease on a client matching cfg. When the cached
// instance's fingerprint matches it is reused with no side effects;
// otherwise the cached instance is retired and a new client is built.
// Acquire and Dispose are mutually exclusive; construction happens
// under the factory lock so exactly one client is ever built for a
// given configuration change.
func (f *Factory[T]) Acquire(ctx context.Context, cfg Config) (*Lease[T], error) {
	fingerprint := cfg.Fingerprint()

	f.mu.Lock()

	if f.current != nil && f.current.fingerprint == fingerprint {
		f.current.refs++
		lease := &Lease[T]{factory: f, slot: f.current}
		f.mu.Unlock()
		return lease, nil
	}

	builder, ok := f.builders[cfg.Provider]
	if !ok {
		f.mu.Unlock()
		return nil, &UnsupportedProviderError{Kind: cfg.Provider, Known: f.kinds()}
	}

	// Drop the old reference before building the replacement. Cleanup
	// is deferred until its last lease is released.
	victim := f.retireLocked()

	client, err := builder(ctx, cfg)
	if err != nil {
		f.mu.Unlock()
		f.cleanup(ctx, victim)
		return nil, fmt.Errorf("provider: failed to create %s %s client: %w", cfg.Provider, f.family, err)
	}

	slog.Info("Provider client created", "family", f.family, "provider", cfg.Provider)

	f.current = &slot[T]{client: client, fingerprint: fingerprint, refs: 1}
	lease := &Lease[T]{factory: f, slot: f.current}
	f.mu.Unlock()

	f.cleanup(ctx, victim)
	return lease, nil
}

// Dispose retires the cached client, if any, and transitions the
// factory back to empty. Cleanup runs immediately when no leases are
// outstanding, otherwise when the last lease is released. Calling
// Dispose twice is a no-op the second time.
func (f *Factory[T]) Dispose(ctx context.Context) {
	f.mu.Lock()
	victim := f.retireLocked()
	f.mu.Unlock()

	f.cleanup(ctx, victim)
}

// retireLocked detaches the current slot and returns its client when
// it can be cleaned up right away (no outstanding leases). Must be
// called with f.mu held.
func (f *Factory[T]) retireLocked() *slot[T] {
	s := f.current
	if s == nil {
		return nil
	}
	f.current = nil
	s.retired = true
	if s.refs > 0 {
		slog.Debug("Provider client retired with active leases", "family", f.family, "refs", s.refs)
		return nil
	}
	return s
}

func (f *Factory[T]) cleanup(ctx context.Context, s *slot[T]) {
	if s == nil {
		return
	}
	if err := s.client.Cleanup(ctx); err != nil {
		slog.Warn("Provider client cleanup failed", "family", f.family, "error", err)
	}
}

// Lease is a counted reference to a cached client. Callers must
// Release it when the operation completes; releasing the last lease of
// a retired client triggers its cleanup.
type Lease[T Client] struct {
	factory *Factory[T]
	slot    *slot[T]
	once    sync.Once
}

// Client returns the leased provider client.
func (l *Lease[T]) Client() T {
	return l.slot.client
}

// Release returns the lease. Safe to call more than once.
func (l *Lease[T]) Release() {
	l.once.Do(func() {
		f := l.factory
		f.mu.Lock()
		l.slot.refs--
		needCleanup := l.slot.retired && l.slot.refs == 0
		f.mu.Unlock()

		if needCleanup {
			f.cleanup(context.Background(), l.slot)
		}
	})
}
