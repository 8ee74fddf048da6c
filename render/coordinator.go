package render

import (
	"context"
	"fmt"

	"github.com/sourcegraph/conc/pool"
)

// resolveLevel resolves one wavefront: every expansion queued at the same
// depth is invoked in encounter order before any result is awaited, the
// in-flight awaitables are then awaited as one batch, and finally each
// result is completed in encounter order — writing into its parent slot and
// discovering the next wavefront's pendings. Any failure aborts the whole
// render call.
func (s *state) resolveLevel(batch []*pendingExpansion) error {
	for _, p := range batch {
		value, err := p.exp.Expand(s.ctx, p.source, s.opts.ExpansionContext)
		if err != nil {
			return fmt.Errorf("expansion %s: %w", p.path, err)
		}
		if aw, ok := value.(Awaitable); ok {
			p.await = aw
		} else {
			p.value = value
		}
	}

	waiters := pool.New().
		WithContext(s.ctx).
		WithCancelOnError().
		WithFirstError()
	for _, p := range batch {
		if p.await == nil {
			continue
		}
		waiters.Go(func(ctx context.Context) error {
			value, err := p.await.Await(ctx)
			if err != nil {
				return fmt.Errorf("expansion %s: %w", p.path, err)
			}
			p.value = value
			return nil
		})
	}
	if err := waiters.Wait(); err != nil {
		return err
	}

	for _, p := range batch {
		if err := s.complete(p); err != nil {
			return err
		}
	}
	return nil
}

// complete writes one resolved expansion into its parent object. Rendering
// the result body reuses the engine walk, so nested models queue their own
// expansions for the next wavefront.
func (s *state) complete(p *pendingExpansion) error {
	if isNullish(p.value) {
		if s.opts.ErrorOnMissingExpansion {
			return fmt.Errorf("%w: %s", ErrExpansionNotFound, p.path)
		}
		return nil
	}

	rendered, err := s.renderValue(p.value, p.child, p.path)
	if err != nil {
		return err
	}

	if !p.exp.MergeUpward {
		p.parent.Set(p.name, rendered)
		return nil
	}

	// Merge upward splices the result's keys into the parent. Completion
	// runs in encounter order, so a colliding key is overwritten by the
	// expansion encountered later — a documented hazard, not a contract.
	switch result := rendered.(type) {
	case *Object:
		result.Each(func(key string, value any) { p.parent.Set(key, value) })
	case map[string]any:
		for key, value := range result {
			p.parent.Set(key, value)
		}
	default:
		return fmt.Errorf("expansion %s: merge upward requires an object result, got %T", p.path, p.value)
	}
	return nil
}
