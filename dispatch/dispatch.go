// Package dispatch builds versioned dispatch tables. A table chain is an
// ordered list of (version, symbol set) steps where every step's table is a
// strict superset of its predecessor's. Resolution walks the chain up to the
// negotiated version, binding each step's additional entry points through
// the level-appropriate resolver.
package dispatch

import (
	"github.com/vkw-go/vkw/apiver"
	"github.com/vkw-go/vkw/driver"
	"github.com/vkw-go/vkw/fault"
)

// Symbol pairs an entry point name with the table field receiving it.
// Target is a pointer to a typed function variable, or a *driver.Proc when
// the entry point is kept opaque (e.g. a leaf-level proc-address resolver).
type Symbol struct {
	Name   string
	Target any
}

// Step declares the entry points one version increment adds on top of its
// predecessor.
type Step[T any] struct {
	Version apiver.Version
	Symbols func(*T) []Symbol
}

// Chain is the statically known, monotonically increasing list of table
// definitions for one hierarchy level.
type Chain[T any] struct {
	steps []Step[T]
}

// NewChain validates that steps are strictly ascending by (major, minor).
// Chains are package-level constants of the wrapper; a malformed chain is a
// programming error, so validation panics.
func NewChain[T any](steps ...Step[T]) Chain[T] {
	for i := 1; i < len(steps); i++ {
		if !steps[i-1].Version.MajorMinor().Less(steps[i].Version.MajorMinor()) {
			panic("dispatch: chain steps must ascend by major.minor")
		}
	}
	if len(steps) == 0 {
		panic("dispatch: chain needs at least one step")
	}
	return Chain[T]{steps: steps}
}

// Resolve walks the chain for negotiated version v, binding each walked
// step's symbols against handle h. It returns the populated table and the
// most specific step version not exceeding v.
//
// A symbol missing on the walked path is fatal: once v is negotiated the
// runtime contractually provides every entry point up to v. A version beyond
// the last defined step has no table definition at all and is rejected as
// unsupported, mirroring a request above the advertised maximum.
func (c Chain[T]) Resolve(r driver.Resolver, h driver.Handle, v apiver.Version) (*T, apiver.Version, error) {
	mm := v.MajorMinor()
	first := c.steps[0].Version.MajorMinor()
	last := c.steps[len(c.steps)-1].Version.MajorMinor()
	if mm.Less(first) {
		return nil, apiver.Version{}, &fault.VersionUnsupportedError{
			Detail:    "no dispatch table defined below",
			Supported: c.steps[0].Version,
			Requested: v,
		}
	}
	if last.Less(mm) {
		return nil, apiver.Version{}, &fault.VersionUnsupportedError{
			Detail:    "could not load symbols for requested api version",
			Supported: c.steps[len(c.steps)-1].Version,
			Requested: v,
		}
	}

	table := new(T)
	var loaded apiver.Version
	for _, step := range c.steps {
		if mm.Less(step.Version.MajorMinor()) {
			break
		}
		if err := Bind(r, h, step.Symbols(table)); err != nil {
			return nil, apiver.Version{}, err
		}
		loaded = step.Version
	}
	return table, loaded, nil
}

// Bind resolves every symbol against h and binds it to its target. A symbol
// the resolver cannot find yields a load error naming it.
func Bind(r driver.Resolver, h driver.Handle, symbols []Symbol) error {
	for _, sym := range symbols {
		proc, ok := r.Lookup(h, sym.Name)
		if !ok {
			return &fault.LoadError{Symbol: sym.Name, Detail: "symbol not found"}
		}
		if raw, isRaw := sym.Target.(*driver.Proc); isRaw {
			*raw = proc
			continue
		}
		if err := proc.Bind(sym.Target); err != nil {
			return &fault.LoadError{Symbol: sym.Name, Detail: err.Error()}
		}
	}
	return nil
}

// Gate enforces call-site version checks on table accessors: requesting a
// table for a version above the negotiated one fails with symbols missing,
// so one context can serve callers with heterogeneous version expectations.
func Gate(negotiated, requested apiver.Version) error {
	if negotiated.Less(requested) {
		return &fault.SymbolsMissingError{Loaded: negotiated, Requested: requested}
	}
	return nil
}
