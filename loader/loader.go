// Package loader provides a coalescing batch loader suitable for carrying
// in a render call's expansion context.
//
// The render engine invokes every expansion of a wavefront before awaiting
// any of them. An expansion func that calls Load during that invoke phase
// gets a Thunk back immediately; all keys loaded before the first Await
// join one batch, and that first Await runs the batch function once with
// every collected key. Each Thunk then reads its own key from the result.
// Loads issued after a batch has started open the next batch.
package loader

import (
	"context"
	"sync"
)

// BatchFunc resolves a batch of keys in one bulk operation. Keys absent
// from the returned map resolve to nothing, which the engine treats as a
// missing expansion result.
type BatchFunc[K comparable, V any] func(ctx context.Context, keys []K) (map[K]V, error)

// Loader coalesces Load calls into batches. Safe for concurrent use; the
// engine awaits thunks from multiple goroutines.
type Loader[K comparable, V any] struct {
	fn BatchFunc[K, V]

	mu      sync.Mutex
	current *batch[K, V]
}

type batch[K comparable, V any] struct {
	keys    []K
	seen    map[K]struct{}
	started bool
	done    chan struct{}
	results map[K]V
	err     error
}

// New returns a Loader backed by fn.
func New[K comparable, V any](fn BatchFunc[K, V]) *Loader[K, V] {
	return &Loader[K, V]{fn: fn}
}

// Load enqueues key on the open batch, deduplicating repeats, and returns
// a Thunk resolving to its value.
func (l *Loader[K, V]) Load(key K) *Thunk[K, V] {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.current == nil || l.current.started {
		l.current = &batch[K, V]{
			seen: make(map[K]struct{}),
			done: make(chan struct{}),
		}
	}
	b := l.current
	if _, ok := b.seen[key]; !ok {
		b.seen[key] = struct{}{}
		b.keys = append(b.keys, key)
	}
	return &Thunk[K, V]{loader: l, batch: b, key: key}
}

// Thunk is the deferred result of one Load. It satisfies the render
// package's Awaitable interface.
type Thunk[K comparable, V any] struct {
	loader *Loader[K, V]
	batch  *batch[K, V]
	key    K
}

// Await triggers the thunk's batch if it has not run yet and returns the
// value loaded for the thunk's key, or nil when the batch produced none.
func (t *Thunk[K, V]) Await(ctx context.Context) (any, error) {
	t.loader.run(ctx, t.batch)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-t.batch.done:
	}

	if t.batch.err != nil {
		return nil, t.batch.err
	}
	v, ok := t.batch.results[t.key]
	if !ok {
		return nil, nil
	}
	return v, nil
}

// run executes b's batch function exactly once; later callers wait on the
// done channel instead.
func (l *Loader[K, V]) run(ctx context.Context, b *batch[K, V]) {
	l.mu.Lock()
	if b.started {
		l.mu.Unlock()
		return
	}
	b.started = true
	if l.current == b {
		l.current = nil
	}
	l.mu.Unlock()

	b.results, b.err = l.fn(ctx, b.keys)
	close(b.done)
}
