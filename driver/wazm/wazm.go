// Package wazm backs the driver ports with a WebAssembly module: entry
// points are module exports, resolved from the flat export table. It exists
// for sandboxed and software-only runtimes; signatures are restricted to what
// crosses the WASM boundary, so only integer-shaped entry points bind.
package wazm

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/zap"

	"github.com/vkw-go/vkw/driver"
	"github.com/vkw-go/vkw/fault"
)

// Option configures a Loader.
type Option func(*Loader)

// WithLogger routes load-time diagnostics to log.
func WithLogger(log *zap.Logger) Option {
	return func(l *Loader) { l.log = log }
}

// Loader owns a wazero runtime with one instantiated module whose exports
// serve as the native entry points.
type Loader struct {
	ctx     context.Context
	runtime wazero.Runtime
	module  moduleAPI
	log     *zap.Logger
}

// New instantiates wasmBytes in a fresh runtime. ctx bounds instantiation and
// every later call into the module.
func New(ctx context.Context, wasmBytes []byte, opts ...Option) (*Loader, error) {
	l := &Loader{ctx: ctx, log: zap.NewNop()}
	for _, opt := range opts {
		opt(l)
	}

	rt := wazero.NewRuntime(ctx)
	wasi_snapshot_preview1.MustInstantiate(ctx, rt)

	mod, err := rt.Instantiate(ctx, wasmBytes)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("instantiating runtime module: %w", err)
	}

	l.runtime = rt
	l.module = mod
	l.log.Debug("wasm runtime module instantiated", zap.String("name", mod.Name()))
	return l, nil
}

// Open verifies the root entry point is exported and returns the export-table
// resolver.
func (l *Loader) Open(rootSymbol string) (driver.Resolver, error) {
	if l.module.ExportedFunction(rootSymbol) == nil {
		return nil, &fault.LoadError{Symbol: rootSymbol, Detail: "root entry point not exported by module"}
	}
	return &resolver{ctx: l.ctx, module: l.module}, nil
}

// Close tears down the runtime and its module.
func (l *Loader) Close() error {
	return l.runtime.Close(l.ctx)
}

type resolver struct {
	ctx    context.Context
	module moduleAPI
}

func (r *resolver) Lookup(h driver.Handle, symbol string) (driver.Proc, bool) {
	fn := r.module.ExportedFunction(symbol)
	if fn == nil {
		return nil, false
	}
	return &proc{ctx: r.ctx, symbol: symbol, fn: fn}, true
}

// Derive returns the resolver itself: a module has a single flat export
// table, so there is no narrower scope to derive.
func (r *resolver) Derive(getProcAddr driver.Proc) (driver.Resolver, error) {
	return r, nil
}
