package fault

import "sync"

var (
	callbackMu sync.Mutex
	callbacks  []func(error)
)

// OnIrrecoverable registers a diagnostic callback invoked before the process
// goes down on an irrecoverable error. The returned cancel function removes
// the callback again.
func OnIrrecoverable(fn func(error)) (cancel func()) {
	callbackMu.Lock()
	defer callbackMu.Unlock()
	callbacks = append(callbacks, fn)
	idx := len(callbacks) - 1
	return func() {
		callbackMu.Lock()
		defer callbackMu.Unlock()
		if idx < len(callbacks) {
			callbacks[idx] = nil
		}
	}
}

// Irrecoverable reports an error from a place where returning it is not an
// option: handle teardown, ownership transfer, or a back reference to an
// already destroyed ancestor. All registered callbacks run once, then the
// process panics. It never returns.
func Irrecoverable(err error) {
	callbackMu.Lock()
	cbs := make([]func(error), len(callbacks))
	copy(cbs, callbacks)
	callbackMu.Unlock()

	for _, cb := range cbs {
		if cb != nil {
			cb(err)
		}
	}
	panic(err)
}
