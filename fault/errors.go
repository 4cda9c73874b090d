// Package fault defines the error taxonomy of the wrapper and the two
// process-wide reporting paths: recoverable errors surface through the
// configured Policy, teardown failures go through Irrecoverable.
package fault

import (
	"errors"
	"fmt"

	"github.com/vkw-go/vkw/apiver"
)

// Coder is implemented by every typed error in the taxonomy. Code strings
// are stable and safe to match on across releases.
type Coder interface {
	error
	Code() string
}

// Sentinel errors for errors.Is matching. Each typed error below implements
// Is() against exactly one of these.
var (
	// ErrLoad is returned when the native library, the root proc-address
	// symbol, or a contractually required entry point cannot be resolved.
	ErrLoad = errors.New("load error")

	// ErrVersionUnsupported is returned when a request exceeds the
	// advertised version or no dispatch table is defined for it.
	ErrVersionUnsupported = errors.New("api version unsupported")

	// ErrSymbolsMissing is returned when a dispatch table is queried above
	// the negotiated version.
	ErrSymbolsMissing = errors.New("symbols missing")

	// ErrExtensionUnsupported is returned at negotiation time for an
	// extension absent from the advertised set.
	ErrExtensionUnsupported = errors.New("extension unsupported")

	// ErrExtensionMissing is returned post-negotiation for an extension
	// absent from the enabled set.
	ErrExtensionMissing = errors.New("extension missing")

	// ErrLayerUnsupported is the layer counterpart of ErrExtensionUnsupported.
	ErrLayerUnsupported = errors.New("layer unsupported")

	// ErrLayerMissing is the layer counterpart of ErrExtensionMissing.
	ErrLayerMissing = errors.New("layer missing")

	// ErrName is returned by fail-closed name to ID translation.
	ErrName = errors.New("unknown name")

	// ErrNativeCall is returned when a native entry point reports a
	// non-success status.
	ErrNativeCall = errors.New("native call failed")

	// ErrDanglingRef is reported through the irrecoverable path when a back
	// reference is dereferenced after its referent was destroyed.
	ErrDanglingRef = errors.New("dangling back reference")
)

// DanglingRefError reports a child reaching for an ancestor that no longer
// exists. It only ever travels the irrecoverable path.
type DanglingRefError struct {
	Target string
}

func (e *DanglingRefError) Error() string {
	return "dangling back reference: " + e.Target + " used after its destruction"
}

func (e *DanglingRefError) Code() string { return "dangling back reference" }
func (e *DanglingRefError) Is(target error) bool { return target == ErrDanglingRef }

// LoadError indicates a missing library, root symbol, or an entry point
// whose presence is contractually guaranteed by the negotiated version.
type LoadError struct {
	Detail string
	Symbol string
}

func (e *LoadError) Error() string {
	if e.Symbol != "" {
		return fmt.Sprintf("load error: symbol %s: %s", e.Symbol, e.Detail)
	}
	return "load error: " + e.Detail
}

func (e *LoadError) Code() string { return "load error" }
func (e *LoadError) Is(target error) bool { return target == ErrLoad }

// VersionUnsupportedError carries both the advertised and the offending
// version.
type VersionUnsupportedError struct {
	Detail    string
	Supported apiver.Version
	Requested apiver.Version
}

func (e *VersionUnsupportedError) Error() string {
	return fmt.Sprintf("%s: %s is unsupported (supported: <=%s)",
		e.Detail, e.Requested, e.Supported)
}

func (e *VersionUnsupportedError) Code() string { return "api version unsupported" }
func (e *VersionUnsupportedError) Is(target error) bool { return target == ErrVersionUnsupported }

// SymbolsMissingError reports a dispatch-table query above the negotiated
// version. Loaded is the most recent version actually resolved.
type SymbolsMissingError struct {
	Loaded    apiver.Version
	Requested apiver.Version
}

func (e *SymbolsMissingError) Error() string {
	return fmt.Sprintf("symbols for version %s are unavailable, most recent version loaded: %s",
		e.Requested, e.Loaded)
}

func (e *SymbolsMissingError) Code() string { return "symbols missing" }
func (e *SymbolsMissingError) Is(target error) bool { return target == ErrSymbolsMissing }

// ExtensionUnsupportedError names an extension requested at negotiation but
// absent from the advertised set.
type ExtensionUnsupportedError struct {
	ID   int
	Name string
}

func (e *ExtensionUnsupportedError) Error() string {
	return "extension unsupported: " + e.Name
}

func (e *ExtensionUnsupportedError) Code() string { return "extension unsupported" }
func (e *ExtensionUnsupportedError) Is(target error) bool { return target == ErrExtensionUnsupported }

// ExtensionMissingError names an extension queried after negotiation but
// absent from the enabled set. Distinct from unsupported: it can surface
// long after construction.
type ExtensionMissingError struct {
	ID   int
	Name string
}

func (e *ExtensionMissingError) Error() string {
	return "extension missing: " + e.Name
}

func (e *ExtensionMissingError) Code() string { return "extension missing" }
func (e *ExtensionMissingError) Is(target error) bool { return target == ErrExtensionMissing }

// LayerUnsupportedError names a layer requested at negotiation but absent
// from the advertised set.
type LayerUnsupportedError struct {
	ID   int
	Name string
}

func (e *LayerUnsupportedError) Error() string {
	return "layer unsupported: " + e.Name
}

func (e *LayerUnsupportedError) Code() string { return "layer unsupported" }
func (e *LayerUnsupportedError) Is(target error) bool { return target == ErrLayerUnsupported }

// LayerMissingError names a layer queried after negotiation but absent from
// the enabled set.
type LayerMissingError struct {
	ID   int
	Name string
}

func (e *LayerMissingError) Error() string {
	return "layer missing: " + e.Name
}

func (e *LayerMissingError) Code() string { return "layer missing" }
func (e *LayerMissingError) Is(target error) bool { return target == ErrLayerMissing }

// NameError reports a fail-closed lookup of an unregistered extension or
// layer name. Kind is "extension" or "layer". A non-empty Detail marks the
// name itself as malformed (e.g. a bad glob pattern) rather than unregistered.
type NameError struct {
	Kind   string
	Name   string
	Detail string
}

func (e *NameError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("bad %s name %q: %s", e.Kind, e.Name, e.Detail)
	}
	return fmt.Sprintf("unknown %s name: %q", e.Kind, e.Name)
}

func (e *NameError) Code() string { return "bad name" }
func (e *NameError) Is(target error) bool { return target == ErrName }

// NativeCallError wraps a non-success status from a native entry point with
// its call site.
type NativeCallError struct {
	Call       string
	Status     int32
	StatusText string
	File       string
	Line       int
}

func (e *NativeCallError) Error() string {
	return fmt.Sprintf("%s returned %s (%d) in file %s on line %d",
		e.Call, e.StatusText, e.Status, e.File, e.Line)
}

func (e *NativeCallError) Code() string { return "native call error" }
func (e *NativeCallError) Is(target error) bool { return target == ErrNativeCall }
