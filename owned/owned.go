// Package owned implements the generic ownership framework for native
// handles: an owning wrapper bound to a per-type destroy function, and
// liveness-checked back references from children to the contexts that
// created them.
package owned

import (
	"fmt"

	"github.com/vkw-go/vkw/fault"
)

// Owned wraps exactly one native handle value with at most one owner.
// The zero value is empty: it owns nothing and Close is a no-op.
//
// States: Empty -> Owning (Acquire succeeds), Empty -> Failed (Acquire
// errors, terminal), Owning -> Empty (moved from), Owning -> Destroyed
// (Close, terminal). A moved-from Owned holds the zero handle, which makes
// double destruction impossible by construction rather than by runtime
// check.
type Owned[H comparable] struct {
	handle  H
	destroy func(H) error
}

// Acquire runs the creator-specific construction function and, on success,
// binds the resulting handle to its destroy function. The destroy function
// typically captures a Ref to the creating context and resolves the native
// destruction entry point through it at teardown time.
func Acquire[H comparable](create func() (H, error), destroy func(H) error) (Owned[H], error) {
	h, err := create()
	if err != nil {
		return Owned[H]{}, err
	}
	return Owned[H]{handle: h, destroy: destroy}, nil
}

// Handle returns the wrapped native handle; the zero handle when empty.
func (o *Owned[H]) Handle() H { return o.handle }

// Valid reports whether o currently owns a handle.
func (o *Owned[H]) Valid() bool {
	var zero H
	return o.handle != zero
}

// Move transfers ownership out of o and returns the new owner. o is left
// empty: destroying it afterwards is a no-op.
func (o *Owned[H]) Move() Owned[H] {
	moved := Owned[H]{handle: o.handle, destroy: o.destroy}
	var zero H
	o.handle = zero
	o.destroy = nil
	return moved
}

// Close destroys the handle exactly once, only if o still owns one. Teardown
// failures cannot be returned; they are reported through the irrecoverable
// path, never skipped, since a failing destroy signals a lifetime bug rather
// than a recoverable condition.
func (o *Owned[H]) Close() {
	var zero H
	if o.handle == zero {
		return
	}
	h := o.handle
	o.handle = zero
	destroy := o.destroy
	o.destroy = nil
	if destroy == nil {
		return
	}
	if err := destroy(h); err != nil {
		fault.Irrecoverable(err)
	}
}

// Guard tracks the liveness of a context that hands out back references.
// A Guard is shared by value between the context and its Refs; Invalidate is
// called by the context's teardown.
type Guard struct {
	state *guardState
}

type guardState struct {
	dead bool
}

// NewGuard returns a live guard.
func NewGuard() Guard {
	return Guard{state: &guardState{}}
}

// Alive reports whether the guarded context still exists. A zero Guard is
// never alive.
func (g Guard) Alive() bool {
	return g.state != nil && !g.state.dead
}

// Invalidate marks the guarded context destroyed. All Refs sharing this
// guard fault loudly from then on.
func (g Guard) Invalidate() {
	if g.state != nil {
		g.state.dead = true
	}
}

// Ref is a non-owning reference from a child resource to an ancestor,
// valid only while the ancestor is alive. Access after invalidation faults
// through the irrecoverable path instead of reading freed state: it signals
// a descendant outliving its ancestor, which the caller must never allow.
type Ref[T any] struct {
	target *T
	guard  Guard
}

// NewRef binds target to its liveness guard.
func NewRef[T any](target *T, g Guard) Ref[T] {
	return Ref[T]{target: target, guard: g}
}

// Alive reports whether the referent can still be reached.
func (r Ref[T]) Alive() bool { return r.guard.Alive() }

// Get returns the referent. If the referent has already been destroyed this
// reports an irrecoverable error and does not return.
func (r Ref[T]) Get() *T {
	if !r.guard.Alive() {
		fault.Irrecoverable(&fault.DanglingRefError{Target: fmt.Sprintf("%T", r.target)})
	}
	return r.target
}
