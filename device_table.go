package vkw

import (
	"github.com/vkw-go/vkw/apiver"
	"github.com/vkw-go/vkw/dispatch"
	"github.com/vkw-go/vkw/driver"
)

// DeviceQueueRequest asks for Count queues from one queue family.
type DeviceQueueRequest struct {
	Family uint32
	Count  uint32
}

// DeviceCreateData is the validated, deduplicated form handed to the native
// device create call.
type DeviceCreateData struct {
	APIVersion        uint32
	Queues            []DeviceQueueRequest
	EnabledExtensions []string
}

// FenceCreateFlags configure fence construction.
type FenceCreateFlags uint32

// FenceCreateSignaled creates the fence already signaled.
const FenceCreateSignaled FenceCreateFlags = 1

// FenceCreateData is the native fence create payload.
type FenceCreateData struct {
	Flags FenceCreateFlags
}

// DeviceQueueInfo2 selects a queue for the extended query (1.1).
type DeviceQueueInfo2 struct {
	Family uint32
	Index  uint32
}

// Device-scope entry point signatures.
type (
	GetDeviceQueueProc func(device driver.Handle, family, index uint32, out *driver.Handle)
	DeviceWaitIdleProc func(device driver.Handle) Result
	CreateFenceProc    func(device driver.Handle, info *FenceCreateData, out *driver.Handle) Result
	DestroyFenceProc   func(device, fence driver.Handle)
	ResetFencesProc    func(device driver.Handle, count uint32, fences *driver.Handle) Result
	WaitForFencesProc  func(device driver.Handle, count uint32, fences *driver.Handle, waitAll uint32, timeoutNs uint64) Result

	GetDeviceQueue2Proc func(device driver.Handle, info *DeviceQueueInfo2, out *driver.Handle)

	GetSemaphoreCounterValueProc func(device, semaphore driver.Handle, out *uint64) Result
	WaitSemaphoresProc           func(device driver.Handle, count uint32, semaphores *driver.Handle, values *uint64, timeoutNs uint64) Result

	SetPrivateDataProc func(device driver.Handle, objectType uint32, object uint64, slot driver.Handle, data uint64) Result
	GetPrivateDataProc func(device driver.Handle, objectType uint32, object uint64, slot driver.Handle, out *uint64)
)

// DeviceCore10 holds the device-level entry points defined by 1.0.
type DeviceCore10 struct {
	GetDeviceQueue GetDeviceQueueProc
	DeviceWaitIdle DeviceWaitIdleProc
	CreateFence    CreateFenceProc
	DestroyFence   DestroyFenceProc
	ResetFences    ResetFencesProc
	WaitForFences  WaitForFencesProc
}

// DeviceCore11 holds the entry points 1.1 adds.
type DeviceCore11 struct {
	GetDeviceQueue2 GetDeviceQueue2Proc
}

// DeviceCore12 holds the entry points 1.2 adds.
type DeviceCore12 struct {
	GetSemaphoreCounterValue GetSemaphoreCounterValueProc
	WaitSemaphores           WaitSemaphoresProc
}

// DeviceCore13 holds the entry points 1.3 adds.
type DeviceCore13 struct {
	SetPrivateData SetPrivateDataProc
	GetPrivateData GetPrivateDataProc
}

type deviceTable struct {
	DeviceCore10
	DeviceCore11
	DeviceCore12
	DeviceCore13
}

var deviceChain = dispatch.NewChain(
	dispatch.Step[deviceTable]{
		Version: apiver.New(1, 0, 0),
		Symbols: func(t *deviceTable) []dispatch.Symbol {
			return []dispatch.Symbol{
				{Name: "vkGetDeviceQueue", Target: &t.GetDeviceQueue},
				{Name: "vkDeviceWaitIdle", Target: &t.DeviceWaitIdle},
				{Name: "vkCreateFence", Target: &t.CreateFence},
				{Name: "vkDestroyFence", Target: &t.DestroyFence},
				{Name: "vkResetFences", Target: &t.ResetFences},
				{Name: "vkWaitForFences", Target: &t.WaitForFences},
			}
		},
	},
	dispatch.Step[deviceTable]{
		Version: apiver.New(1, 1, 0),
		Symbols: func(t *deviceTable) []dispatch.Symbol {
			return []dispatch.Symbol{
				{Name: "vkGetDeviceQueue2", Target: &t.GetDeviceQueue2},
			}
		},
	},
	dispatch.Step[deviceTable]{
		Version: apiver.New(1, 2, 0),
		Symbols: func(t *deviceTable) []dispatch.Symbol {
			return []dispatch.Symbol{
				{Name: "vkGetSemaphoreCounterValue", Target: &t.GetSemaphoreCounterValue},
				{Name: "vkWaitSemaphores", Target: &t.WaitSemaphores},
			}
		},
	},
	dispatch.Step[deviceTable]{
		Version: apiver.New(1, 3, 0),
		Symbols: func(t *deviceTable) []dispatch.Symbol {
			return []dispatch.Symbol{
				{Name: "vkSetPrivateData", Target: &t.SetPrivateData},
				{Name: "vkGetPrivateData", Target: &t.GetPrivateData},
			}
		},
	},
)
