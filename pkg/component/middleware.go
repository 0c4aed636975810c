package component

import (
	"context"
	"time"
)

// RenderInfo describes one physical render.
type RenderInfo struct {
	Instance *Instance
	Type     string
	ID       uint64

	// First is set for the render that creates the instance node.
	First bool

	// Trailing is set when the render was scheduled by coalescing.
	Trailing bool

	// Coalesced is the number of Update calls applied by this render.
	Coalesced int

	// Patches is the number of node operations applied. It is filled in
	// once the render returns.
	Patches int

	// Duration is filled in once the render returns.
	Duration time.Duration
}

// Middleware wraps a render. Implementations must call next exactly once
// unless they intend to fail the render.
type Middleware func(ctx context.Context, info *RenderInfo, next func(context.Context) error) error

// LifecycleKind identifies an instance lifecycle transition.
type LifecycleKind uint8

const (
	LifecycleCreated LifecycleKind = iota + 1
	LifecycleLive
	LifecycleDestroyed
)

// String returns the string representation of the LifecycleKind.
func (k LifecycleKind) String() string {
	switch k {
	case LifecycleCreated:
		return "created"
	case LifecycleLive:
		return "live"
	case LifecycleDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// LifecycleEvent is delivered to lifecycle observers.
type LifecycleEvent struct {
	Kind     LifecycleKind
	Instance *Instance
}

// LifecycleFunc observes lifecycle transitions.
type LifecycleFunc func(LifecycleEvent)

// chain builds the middleware chain around core.
func chain(mw []Middleware, info *RenderInfo, core func(context.Context) error) func(context.Context) error {
	h := core
	for j := len(mw) - 1; j >= 0; j-- {
		m, next := mw[j], h
		h = func(ctx context.Context) error {
			return m(ctx, info, next)
		}
	}
	return h
}
