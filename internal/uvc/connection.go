package uvc

import (
	"github.com/rs/zerolog/log"

	"github.com/shini4i/uvcctl/internal/control"
)

// Connection owns the native control surfaces of one device and serves
// property operations until invalidated.
//
// Construction is best-effort: if the device cannot be located or bound the
// connection is left invalid rather than failing loudly, so pool lookups can
// follow a uniform try-and-check pattern.
//
// A Connection does not serialize concurrent property calls; callers issuing
// concurrent operations on the same connection must provide their own
// synchronization.
type Connection struct {
	dev    control.Device
	filter Filter
	camera ControlSurface
	video  ControlSurface
}

// NewConnection binds the control surfaces for a device. The returned
// connection may be invalid; check IsValid before relying on it.
func NewConnection(enum Enumerator, dev control.Device) *Connection {
	conn := &Connection{dev: dev}

	filter, err := enum.OpenFilter(dev)
	if err != nil {
		log.Debug().Err(err).Str("device", dev.ID()).Msg("Failed to open device filter")
		return conn
	}

	camera, err := filter.CameraControl()
	if err != nil {
		log.Debug().Err(err).Str("device", dev.ID()).Msg("Camera control surface not available")
	} else {
		conn.camera = camera
	}

	video, err := filter.VideoProcAmp()
	if err != nil {
		log.Debug().Err(err).Str("device", dev.ID()).Msg("Video processing surface not available")
	} else {
		conn.video = video
	}

	if conn.camera == nil && conn.video == nil {
		if cerr := filter.Close(); cerr != nil {
			log.Warn().Err(cerr).Str("device", dev.ID()).Msg("Failed to close filter without surfaces")
		}
		return conn
	}

	conn.filter = filter
	return conn
}

// Device returns the identity this connection was bound for.
func (c *Connection) Device() control.Device {
	return c.dev
}

// IsValid reports whether at least one control surface bound successfully at
// construction time. It does not re-probe the device; a valid connection may
// still be stale after the device was unplugged.
func (c *Connection) IsValid() bool {
	return c.camera != nil || c.video != nil
}

// Close releases the native filter and both control surfaces.
func (c *Connection) Close() error {
	if c.filter == nil {
		return nil
	}
	filter := c.filter
	c.filter = nil
	c.camera = nil
	c.video = nil
	return filter.Close()
}

// GetCamera reads the current setting of a camera control property.
func (c *Connection) GetCamera(prop control.CamProperty) (control.PropSetting, error) {
	if !prop.Known() {
		return control.PropSetting{}, control.Errorf(control.InvalidArgument, "unknown camera property %d", int(prop))
	}
	return c.get(c.camera, prop.Selector(), prop.String())
}

// SetCamera writes a camera control property. The value is passed through
// unvalidated; callers clamp against a previously fetched range.
func (c *Connection) SetCamera(prop control.CamProperty, setting control.PropSetting) error {
	if !prop.Known() {
		return control.Errorf(control.InvalidArgument, "unknown camera property %d", int(prop))
	}
	return c.set(c.camera, prop.Selector(), prop.String(), setting)
}

// CameraRange queries the supported range of a camera control property.
func (c *Connection) CameraRange(prop control.CamProperty) (control.PropRange, error) {
	if !prop.Known() {
		return control.PropRange{}, control.Errorf(control.InvalidArgument, "unknown camera property %d", int(prop))
	}
	return c.getRange(c.camera, prop.Selector(), prop.String())
}

// GetVideo reads the current setting of a video processing property.
func (c *Connection) GetVideo(prop control.VidProperty) (control.PropSetting, error) {
	if !prop.Known() {
		return control.PropSetting{}, control.Errorf(control.InvalidArgument, "unknown video property %d", int(prop))
	}
	return c.get(c.video, prop.Selector(), prop.String())
}

// SetVideo writes a video processing property without validation.
func (c *Connection) SetVideo(prop control.VidProperty, setting control.PropSetting) error {
	if !prop.Known() {
		return control.Errorf(control.InvalidArgument, "unknown video property %d", int(prop))
	}
	return c.set(c.video, prop.Selector(), prop.String(), setting)
}

// VideoRange queries the supported range of a video processing property.
func (c *Connection) VideoRange(prop control.VidProperty) (control.PropRange, error) {
	if !prop.Known() {
		return control.PropRange{}, control.Errorf(control.InvalidArgument, "unknown video property %d", int(prop))
	}
	return c.getRange(c.video, prop.Selector(), prop.String())
}

// Native failures on a present surface are reported as PropertyNotSupported:
// the control surface cannot distinguish an unsupported property from a
// device that vanished mid-call, and re-probing the enumerator on every
// failure would dominate the call cost.

func (c *Connection) get(surface ControlSurface, selector uint32, name string) (control.PropSetting, error) {
	if surface == nil {
		return control.PropSetting{}, control.Errorf(control.DeviceNotFound, "no control surface bound for %s", c.dev.ID())
	}
	value, flags, err := surface.Get(selector)
	if err != nil {
		return control.PropSetting{}, control.Errorf(control.PropertyNotSupported, "get %s: %w", name, err)
	}
	return control.PropSetting{Value: value, Mode: control.ModeFromFlags(flags)}, nil
}

func (c *Connection) set(surface ControlSurface, selector uint32, name string, setting control.PropSetting) error {
	if surface == nil {
		return control.Errorf(control.DeviceNotFound, "no control surface bound for %s", c.dev.ID())
	}
	if err := surface.Set(selector, setting.Value, setting.Mode.Flags()); err != nil {
		return control.Errorf(control.PropertyNotSupported, "set %s: %w", name, err)
	}
	return nil
}

func (c *Connection) getRange(surface ControlSurface, selector uint32, name string) (control.PropRange, error) {
	if surface == nil {
		return control.PropRange{}, control.Errorf(control.DeviceNotFound, "no control surface bound for %s", c.dev.ID())
	}
	r, err := surface.GetRange(selector)
	if err != nil {
		return control.PropRange{}, control.Errorf(control.PropertyNotSupported, "range %s: %w", name, err)
	}
	return control.PropRange{
		Min:         r.Min,
		Max:         r.Max,
		Step:        r.Step,
		Default:     r.Default,
		DefaultMode: control.ModeFromFlags(r.Flags),
	}, nil
}
