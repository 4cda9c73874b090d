package vkw

import (
	"github.com/vkw-go/vkw/driver"
	"github.com/vkw-go/vkw/fault"
	"github.com/vkw-go/vkw/owned"
)

// WaitIndefinite waits without a deadline.
const WaitIndefinite uint64 = ^uint64(0)

// Fence is a device-owned synchronization resource. Its destruction entry
// point dispatches through the owning device, so the device must outlive it.
type Fence struct {
	dev    owned.Ref[Device]
	handle owned.Owned[driver.Handle]
}

// NewFence creates a fence on dev, optionally already signaled.
func NewFence(dev *Device, signaled bool) (*Fence, error) {
	core, err := dev.Core10()
	if err != nil {
		return nil, err
	}

	data := FenceCreateData{}
	if signaled {
		data.Flags = FenceCreateSignaled
	}

	devRef := owned.NewRef(dev, dev.guard)
	handle, err := owned.Acquire(
		func() (driver.Handle, error) {
			var h driver.Handle
			return h, checkResult("vkCreateFence", core.CreateFence(dev.Handle(), &data, &h))
		},
		func(h driver.Handle) error {
			parent := devRef.Get()
			parent.table.DestroyFence(parent.Handle(), h)
			return nil
		},
	)
	if err != nil {
		return nil, fault.Post(err)
	}

	return &Fence{dev: devRef, handle: handle}, nil
}

// Handle exposes the raw native handle.
func (f *Fence) Handle() driver.Handle { return f.handle.Handle() }

// Wait blocks until the fence signals or timeoutNs elapses. A Timeout result
// is returned as-is, not as an error.
func (f *Fence) Wait(timeoutNs uint64) (Result, error) {
	dev := f.dev.Get()
	h := f.Handle()
	r := dev.table.WaitForFences(dev.Handle(), 1, &h, 1, timeoutNs)
	if r == Timeout {
		return r, nil
	}
	if err := checkResult("vkWaitForFences", r); err != nil {
		return r, fault.Post(err)
	}
	return r, nil
}

// Reset returns the fence to the unsignaled state.
func (f *Fence) Reset() error {
	dev := f.dev.Get()
	h := f.Handle()
	if err := checkResult("vkResetFences", dev.table.ResetFences(dev.Handle(), 1, &h)); err != nil {
		return fault.Post(err)
	}
	return nil
}

// Close destroys the native fence. Idempotent.
func (f *Fence) Close() {
	f.handle.Close()
}
