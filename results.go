package vkw

import (
	"runtime"

	"github.com/vkw-go/vkw/fault"
)

// Result is the status code returned by native entry points.
type Result int32

const (
	Success       Result = 0
	NotReady      Result = 1
	Timeout       Result = 2
	EventSet      Result = 3
	EventReset    Result = 4
	Incomplete    Result = 5
	ErrorOutOfHostMemory      Result = -1
	ErrorOutOfDeviceMemory    Result = -2
	ErrorInitializationFailed Result = -3
	ErrorDeviceLost           Result = -4
	ErrorMemoryMapFailed      Result = -5
	ErrorLayerNotPresent      Result = -6
	ErrorExtensionNotPresent  Result = -7
	ErrorFeatureNotPresent    Result = -8
	ErrorIncompatibleDriver   Result = -9
	ErrorTooManyObjects       Result = -10
	ErrorFormatNotSupported   Result = -11
	ErrorUnknown              Result = -13
)

func (r Result) String() string {
	switch r {
	case Success:
		return "SUCCESS"
	case NotReady:
		return "NOT_READY"
	case Timeout:
		return "TIMEOUT"
	case EventSet:
		return "EVENT_SET"
	case EventReset:
		return "EVENT_RESET"
	case Incomplete:
		return "INCOMPLETE"
	case ErrorOutOfHostMemory:
		return "ERROR_OUT_OF_HOST_MEMORY"
	case ErrorOutOfDeviceMemory:
		return "ERROR_OUT_OF_DEVICE_MEMORY"
	case ErrorInitializationFailed:
		return "ERROR_INITIALIZATION_FAILED"
	case ErrorDeviceLost:
		return "ERROR_DEVICE_LOST"
	case ErrorMemoryMapFailed:
		return "ERROR_MEMORY_MAP_FAILED"
	case ErrorLayerNotPresent:
		return "ERROR_LAYER_NOT_PRESENT"
	case ErrorExtensionNotPresent:
		return "ERROR_EXTENSION_NOT_PRESENT"
	case ErrorFeatureNotPresent:
		return "ERROR_FEATURE_NOT_PRESENT"
	case ErrorIncompatibleDriver:
		return "ERROR_INCOMPATIBLE_DRIVER"
	case ErrorTooManyObjects:
		return "ERROR_TOO_MANY_OBJECTS"
	case ErrorFormatNotSupported:
		return "ERROR_FORMAT_NOT_SUPPORTED"
	default:
		return "UNKNOWN_ERROR"
	}
}

// checkResult wraps a non-success status with its call site.
func checkResult(call string, r Result) error {
	if r == Success {
		return nil
	}
	_, file, line, _ := runtime.Caller(1)
	return &fault.NativeCallError{
		Call:       call,
		Status:     int32(r),
		StatusText: r.String(),
		File:       file,
		Line:       line,
	}
}
