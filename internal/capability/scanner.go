// Package capability builds a full picture of which properties a device
// supports, with their ranges and current values.
package capability

import (
	"github.com/rs/zerolog/log"

	"github.com/shini4i/uvcctl/internal/control"
	"github.com/shini4i/uvcctl/internal/uvc"
)

// PropertyCapability describes one property on one device. The zero value
// means "not supported", which is a normal queryable state.
type PropertyCapability struct {
	Supported bool
	Range     control.PropRange
	Current   control.PropSetting
}

// DeviceCapabilities holds the scan results for one device.
type DeviceCapabilities struct {
	dev        control.Device
	enumerator uvc.Enumerator
	accessible bool
	camera     map[control.CamProperty]PropertyCapability
	video      map[control.VidProperty]PropertyCapability
}

// Scan probes every known property of a device. The scan uses its own
// private connection rather than a pooled one, so a scan never interferes
// with long-lived pool entries.
func Scan(enum uvc.Enumerator, dev control.Device) (*DeviceCapabilities, error) {
	if !dev.IsValid() {
		return nil, control.NewError(control.InvalidArgument, "device has no name or path")
	}

	caps := &DeviceCapabilities{
		dev:        dev,
		enumerator: enum,
		camera:     make(map[control.CamProperty]PropertyCapability),
		video:      make(map[control.VidProperty]PropertyCapability),
	}
	caps.accessible = caps.deviceConnected()
	if caps.accessible {
		caps.scan()
	}
	return caps, nil
}

// deviceConnected checks whether the device is currently enumerable.
func (c *DeviceCapabilities) deviceConnected() bool {
	devices, err := c.enumerator.ListDevices()
	if err != nil {
		log.Warn().Err(err).Msg("Device enumeration failed during capability scan")
		return false
	}
	for _, d := range devices {
		if control.SameDevice(c.dev, d) {
			return true
		}
	}
	return false
}

// scan probes every property of both domains. A successful range query is
// the sole support signal; a failed current-value fetch keeps the property
// supported.
func (c *DeviceCapabilities) scan() {
	conn := uvc.NewConnection(c.enumerator, c.dev)
	defer func() {
		if err := conn.Close(); err != nil {
			log.Warn().Err(err).Str("device", c.dev.ID()).Msg("Failed to close scan connection")
		}
	}()

	for _, prop := range control.AllCamProperties() {
		r, err := conn.CameraRange(prop)
		if err != nil {
			continue
		}
		cap := PropertyCapability{Supported: true, Range: r}
		if current, err := conn.GetCamera(prop); err != nil {
			log.Debug().Err(err).Str("device", c.dev.ID()).Stringer("property", prop).
				Msg("Failed to read current camera property value")
		} else {
			cap.Current = current
		}
		c.camera[prop] = cap
	}

	for _, prop := range control.AllVidProperties() {
		r, err := conn.VideoRange(prop)
		if err != nil {
			continue
		}
		cap := PropertyCapability{Supported: true, Range: r}
		if current, err := conn.GetVideo(prop); err != nil {
			log.Debug().Err(err).Str("device", c.dev.ID()).Stringer("property", prop).
				Msg("Failed to read current video property value")
		} else {
			cap.Current = current
		}
		c.video[prop] = cap
	}
}

// Device returns the scanned device identity.
func (c *DeviceCapabilities) Device() control.Device {
	return c.dev
}

// Accessible reports whether the device was enumerable at scan time.
func (c *DeviceCapabilities) Accessible() bool {
	return c.accessible
}

// Camera returns the capability of a camera control property. Unsupported
// ids yield the zero capability, not an error.
func (c *DeviceCapabilities) Camera(prop control.CamProperty) PropertyCapability {
	return c.camera[prop]
}

// Video returns the capability of a video processing property.
func (c *DeviceCapabilities) Video(prop control.VidProperty) PropertyCapability {
	return c.video[prop]
}

// SupportsCamera reports whether a camera control property is supported.
func (c *DeviceCapabilities) SupportsCamera(prop control.CamProperty) bool {
	return c.camera[prop].Supported
}

// SupportsVideo reports whether a video processing property is supported.
func (c *DeviceCapabilities) SupportsVideo(prop control.VidProperty) bool {
	return c.video[prop].Supported
}

// SupportedCameraProperties lists supported camera properties in selector
// order.
func (c *DeviceCapabilities) SupportedCameraProperties() []control.CamProperty {
	var props []control.CamProperty
	for _, prop := range control.AllCamProperties() {
		if c.camera[prop].Supported {
			props = append(props, prop)
		}
	}
	return props
}

// SupportedVideoProperties lists supported video properties in selector
// order.
func (c *DeviceCapabilities) SupportedVideoProperties() []control.VidProperty {
	var props []control.VidProperty
	for _, prop := range control.AllVidProperties() {
		if c.video[prop].Supported {
			props = append(props, prop)
		}
	}
	return props
}

// Refresh re-scans the device from scratch, replacing all prior results.
// Fails with DeviceNotFound when the device is no longer enumerable.
func (c *DeviceCapabilities) Refresh() error {
	c.accessible = c.deviceConnected()
	if !c.accessible {
		return control.Errorf(control.DeviceNotFound, "device %s not connected", c.dev.ID())
	}

	c.camera = make(map[control.CamProperty]PropertyCapability)
	c.video = make(map[control.VidProperty]PropertyCapability)
	c.scan()
	return nil
}
