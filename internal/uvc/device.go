// Package uvc binds UVC capture devices to their native control surfaces and
// pools those bindings across callers.
package uvc

//go:generate mockgen -source=device.go -destination=mocks/device_mock.go -package=mocks

import (
	"github.com/google/uuid"

	"github.com/shini4i/uvcctl/internal/control"
)

// Range carries the raw range report of one property as returned by the
// control surface: bounds, step, default value and default mode flags.
type Range struct {
	Min     int32
	Max     int32
	Step    int32
	Default int32
	Flags   uint32
}

// ControlSurface is a platform object bound to one device that accepts
// get/set/range calls for one family of properties, addressed by selector id.
// Implementations are not required to be safe for concurrent use; callers
// must serialize access to a single surface.
type ControlSurface interface {
	// Get reads the current value and mode flags of a property.
	Get(selector uint32) (value int32, flags uint32, err error)

	// Set writes a property value with the given mode flags.
	Set(selector uint32, value int32, flags uint32) error

	// GetRange queries the supported range of a property.
	GetRange(selector uint32) (Range, error)
}

// PropertySet is the generic extensible property interface used for
// vendor-defined property sets, addressed by (set GUID, property id).
type PropertySet interface {
	// QuerySupported returns the support flag bits for a property.
	QuerySupported(set uuid.UUID, id uint32) (uint32, error)

	// Get reads property data. A nil buf queries the required payload size;
	// otherwise the payload is copied into buf. Returns the payload size.
	Get(set uuid.UUID, id uint32, buf []byte) (int, error)

	// Set writes property data.
	Set(set uuid.UUID, id uint32, data []byte) error

	// Release frees the native property set object. Must be called before
	// any proxy library backing the object is unloaded.
	Release() error
}

// Filter is the native per-device object from which control surfaces are
// queried. Closing the filter invalidates every surface obtained from it.
type Filter interface {
	// Device returns the identity the filter was opened for.
	Device() control.Device

	// CameraControl returns the camera control surface, if the device
	// exposes one.
	CameraControl() (ControlSurface, error)

	// VideoProcAmp returns the video processing surface, if the device
	// exposes one.
	VideoProcAmp() (ControlSurface, error)

	// PropertySet returns the extensible property set interface. Devices
	// without vendor property support return an error.
	PropertySet() (PropertySet, error)

	// Close releases the native filter object.
	Close() error
}

// Enumerator queries the platform for present devices and resolves device
// identities to native filter objects.
type Enumerator interface {
	// ListDevices returns the identities of all present capture devices.
	ListDevices() ([]control.Device, error)

	// OpenFilter binds the native filter object for a device.
	OpenFilter(dev control.Device) (Filter, error)
}
