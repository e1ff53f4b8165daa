package media

import (
	"errors"
	"fmt"
)

// ErrDeviceUnavailable matches any failure to open a capture or playback
// device: missing permission, busy device or no ffmpeg binary.
var ErrDeviceUnavailable = errors.New("media device unavailable")

// DeviceError describes a device process that failed to start.
type DeviceError struct {
	Device string
	Err    error
	// Output is the tail of ffmpeg's stderr, if any.
	Output string
}

func (e *DeviceError) Error() string {
	msg := fmt.Sprintf("%s unavailable: %v", e.Device, e.Err)
	if e.Output != "" {
		msg += ": " + e.Output
	}
	return msg
}

func (e *DeviceError) Unwrap() []error {
	return []error{ErrDeviceUnavailable, e.Err}
}
