package wazm

import (
	"context"
	"fmt"
	"reflect"

	"github.com/tetratelabs/wazero/api"

	"github.com/vkw-go/vkw/fault"
)

// moduleAPI is the slice of api.Module the backend needs; tests substitute
// fakes.
type moduleAPI interface {
	Name() string
	ExportedFunction(name string) api.Function
}

type proc struct {
	ctx    context.Context
	symbol string
	fn     api.Function
}

// Bind synthesizes a typed Go function that marshals its arguments onto the
// module's uint64 stack. Only integer-kind parameters and at most one
// integer-kind result cross the boundary; anything else is a bind error, not
// a silent truncation.
func (p *proc) Bind(target any) error {
	v := reflect.ValueOf(target)
	if !v.IsValid() || v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Func {
		return fmt.Errorf("bind target for %s must be a non-nil pointer to a function variable", p.symbol)
	}

	fnType := v.Elem().Type()
	for i := 0; i < fnType.NumIn(); i++ {
		if !integerKind(fnType.In(i).Kind()) {
			return fmt.Errorf("%s: parameter %d (%s) cannot cross the module boundary", p.symbol, i, fnType.In(i))
		}
	}
	if fnType.NumOut() > 1 {
		return fmt.Errorf("%s: at most one result can cross the module boundary", p.symbol)
	}
	if fnType.NumOut() == 1 && !integerKind(fnType.Out(0).Kind()) {
		return fmt.Errorf("%s: result (%s) cannot cross the module boundary", p.symbol, fnType.Out(0))
	}

	impl := reflect.MakeFunc(fnType, func(args []reflect.Value) []reflect.Value {
		raw := make([]uint64, len(args))
		for i, a := range args {
			raw[i] = rawWord(a)
		}
		results, err := p.fn.Call(p.ctx, raw...)
		if err != nil {
			// A trapped call is the module-backend analog of a native crash.
			fault.Irrecoverable(fmt.Errorf("calling %s: %w", p.symbol, err))
		}
		if fnType.NumOut() == 0 {
			return nil
		}
		out := reflect.New(fnType.Out(0)).Elem()
		if len(results) > 0 {
			setRawWord(out, results[0])
		}
		return []reflect.Value{out}
	})
	v.Elem().Set(impl)
	return nil
}

func integerKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Uintptr:
		return true
	}
	return false
}

func rawWord(v reflect.Value) uint64 {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return uint64(v.Int())
	default:
		return v.Uint()
	}
}

func setRawWord(dst reflect.Value, raw uint64) {
	switch dst.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		dst.SetInt(int64(raw))
	default:
		dst.SetUint(raw)
	}
}
