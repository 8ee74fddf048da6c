// Package render implements the selective field-projection and
// expansion-resolution engine: it shapes a typed object graph into a
// JSON-compatible document under a client-controlled field selection,
// materializing requested expansions through batched, depth-wise lookups.
//
// # Execution Model
//
// A render call runs in two interleaved phases:
//
//   - Projection walk. The engine recurses through the model graph without
//     suspending. For each configured type it merges the type's default
//     field names with the explicitly requested names, expands fieldset
//     aliases, recurses into nested models and lists (the same request
//     node applies to every list element), and passes scalars through
//     untouched. Requested expansions are not resolved inline; each one is
//     queued as a pending record bound to its parent output slot.
//
//   - Wavefronts. All expansions discovered at the same depth form one
//     wavefront. The coordinator invokes every expansion of the wavefront
//     in encounter order before awaiting any of them, then awaits the
//     whole batch together, then completes results in encounter order.
//     Completing a result renders its body with the engine walk, which
//     queues the next wavefront. A caller-supplied batching mechanism,
//     reached only through the opaque expansion context, can therefore
//     coalesce every lookup issued in one wavefront into a single bulk
//     operation: the coordinator never awaits an expansion singly while
//     siblings at the same depth are still pending.
//
// Depth is bounded by Options.MaxExpansionDepth; pendings discovered at
// the limit are dropped silently, so a nested expansion chain costs one
// wavefront per level and never recurses unboundedly.
//
// # Output
//
// Each model instance renders to an insertion-ordered Object: plain fields
// in declaration order, expansions appended after them. An expansion
// result is either nested under the expansion's name or, with MergeUpward,
// spliced key-by-key into the parent object. Write-back is keyed by the
// owning pending record, so the document is deterministic regardless of
// the order in which batched lookups resolve; the only exception is a key
// collision between two merged-upward siblings, where the expansion
// completed later wins.
//
// # Failure
//
// A render call yields either a complete document or one error naming the
// failing expansion's dotted path. Expansion errors are fatal for the
// whole call: partial output requires the caller's expansion funcs to
// swallow their own failures.
//
// Concurrent render calls share nothing but the read-only descriptor
// registry and may run fully in parallel, provided the caller's batching
// mechanism tolerates it.
package render
