package fault

import "sync"

// Policy decides how fallible operations report their errors. Exactly one
// policy is active per process; it is consulted by Post at every fallible
// constructor's failure path, so the two behaviors cannot diverge.
type Policy interface {
	// Report receives the error of a failed operation. It either returns
	// the error to the caller or does not return at all.
	Report(err error) error
}

// Propagate returns errors to the caller. This is the default.
type Propagate struct{}

func (Propagate) Report(err error) error { return err }

// Terminate funnels errors through the irrecoverable path: registered
// callbacks run, then the process panics. Report never returns a non-nil
// error because it never returns on one.
type Terminate struct{}

func (Terminate) Report(err error) error {
	if err != nil {
		Irrecoverable(err)
	}
	return nil
}

var (
	policyMu sync.RWMutex
	policy   Policy = Propagate{}
)

// SetPolicy selects the process-wide reporting policy. Call once during
// startup, before any context is constructed.
func SetPolicy(p Policy) {
	policyMu.Lock()
	defer policyMu.Unlock()
	if p == nil {
		p = Propagate{}
	}
	policy = p
}

// Post reports err through the active policy. A nil err passes through.
func Post(err error) error {
	if err == nil {
		return nil
	}
	policyMu.RLock()
	p := policy
	policyMu.RUnlock()
	return p.Report(err)
}
