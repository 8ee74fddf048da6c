package render

import (
	"context"

	"github.com/fieldlens/fieldlens/fieldset"
	"github.com/fieldlens/fieldlens/registry"
)

// Awaitable is a deferred expansion result. An ExpandFunc that wants its
// resolution batched returns a value implementing Awaitable; the engine
// invokes every expansion of a wavefront first and only then awaits the
// whole batch together, which is what lets a caller-supplied loader
// coalesce the underlying lookups.
//
// Await may be called from a different goroutine than the one that invoked
// the expansion, and concurrently with the Awaits of sibling expansions.
type Awaitable interface {
	Await(ctx context.Context) (any, error)
}

// pendingExpansion pairs one queued expansion invocation with the output
// slot it resolves into. Owned by a single render call; created during a
// walk, consumed when its wavefront completes.
type pendingExpansion struct {
	parent *Object
	name   string
	exp    registry.Expansion
	child  *fieldset.RequestNode
	source any
	path   Path

	await Awaitable
	value any
}
