// Package events declares the instrumentation events published during a
// render call. The context passed with each event carries the render id.
package events

import "time"

// RenderStart is emitted when a render call begins, before the first walk.
type RenderStart struct {
	// Model is the root model's type name.
	Model string
	// Fields is the raw field selection as supplied by the caller.
	Fields []string
}

// RenderFinish is emitted when a render call returns.
type RenderFinish struct {
	Model    string
	Err      error
	Duration time.Duration
}

// WavefrontStart is emitted before one depth's batch of expansions is
// invoked and awaited.
type WavefrontStart struct {
	// Depth is the expansion depth of this wavefront, starting at 0.
	Depth int
	// Size is the number of pending expansions in the batch.
	Size int
}

// WavefrontFinish is emitted after one depth's batch has been resolved and
// written back.
type WavefrontFinish struct {
	Depth    int
	Size     int
	Err      error
	Duration time.Duration
}
