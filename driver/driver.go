// Package driver defines the ports on the native boundary: opaque handles,
// resolved entry points, per-level symbol resolvers and the library loader.
// Backends live in subpackages (dynlib for platform shared libraries, wazm
// for WebAssembly modules); tests use simulated implementations.
package driver

// Handle is an opaque native handle value. Handles form a strict ownership
// hierarchy; the zero value is the null handle and scopes root-level symbol
// lookups.
type Handle uint64

// NullHandle scopes lookups that are not bound to any context instance.
const NullHandle Handle = 0

// Proc is one resolved native entry point. It stays opaque until bound to a
// typed Go function.
type Proc interface {
	// Bind makes the entry point callable through target, which must be a
	// non-nil pointer to a function variable of the entry point's
	// signature. Bind fails when the backend cannot service the signature.
	Bind(target any) error
}

// Resolver looks up symbols scoped to one hierarchy level's handle. A false
// second return means the symbol is unknown at that scope; callers translate
// that into a typed error, never a generic fault.
type Resolver interface {
	Lookup(h Handle, symbol string) (Proc, bool)

	// Derive returns a resolver backed by a proc-address entry point that
	// was itself resolved through this resolver, e.g. the leaf-level
	// getProcAddr obtained from a root-level table.
	Derive(getProcAddr Proc) (Resolver, error)
}

// Loader owns the native library and yields its root resolver.
type Loader interface {
	// Open resolves the root proc-address entry point by name and returns
	// the root resolver. A missing library or root symbol is a load error.
	Open(rootSymbol string) (Resolver, error)

	// Close releases the native library. No resolver or proc obtained from
	// this loader may be used afterwards.
	Close() error
}
