// SPDX-License-Identifier: GPL-3.0-only

// Package dbus provides the D-Bus service implementation for UVC camera
// property control.
package dbus

import (
	"errors"
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/shini4i/uvcctl/internal/capability"
	"github.com/shini4i/uvcctl/internal/control"
	"github.com/shini4i/uvcctl/internal/uvc"
)

// ErrEmptyDevice is returned when an empty device identifier is provided.
var ErrEmptyDevice = errors.New("device cannot be empty")

// ErrRateLimitExceeded is returned when property writes exceed the rate limit.
var ErrRateLimitExceeded = errors.New("rate limit exceeded")

const (
	// rateLimitPerSecond is the maximum number of property writes per second.
	rateLimitPerSecond = 20

	// rateLimitBurst is the maximum burst size for property writes.
	rateLimitBurst = 5
)

const (
	// ServiceName is the D-Bus service name.
	ServiceName = "io.github.shini4i.UvcCtl"

	// ObjectPath is the D-Bus object path.
	ObjectPath = "/io/github/shini4i/UvcCtl"

	// InterfaceName is the D-Bus interface name.
	InterfaceName = "io.github.shini4i.UvcCtl"
)

// IntrospectXML is the D-Bus introspection XML for the service.
const IntrospectXML = `
<node name="` + ObjectPath + `">
  <interface name="` + InterfaceName + `">
    <method name="ListDevices">
      <arg name="devices" type="a(ss)" direction="out"/>
    </method>
    <method name="GetCameraProperty">
      <arg name="device" type="s" direction="in"/>
      <arg name="property" type="s" direction="in"/>
      <arg name="value" type="i" direction="out"/>
      <arg name="mode" type="s" direction="out"/>
    </method>
    <method name="SetCameraProperty">
      <arg name="device" type="s" direction="in"/>
      <arg name="property" type="s" direction="in"/>
      <arg name="value" type="i" direction="in"/>
      <arg name="mode" type="s" direction="in"/>
    </method>
    <method name="GetVideoProperty">
      <arg name="device" type="s" direction="in"/>
      <arg name="property" type="s" direction="in"/>
      <arg name="value" type="i" direction="out"/>
      <arg name="mode" type="s" direction="out"/>
    </method>
    <method name="SetVideoProperty">
      <arg name="device" type="s" direction="in"/>
      <arg name="property" type="s" direction="in"/>
      <arg name="value" type="i" direction="in"/>
      <arg name="mode" type="s" direction="in"/>
    </method>
    <method name="GetCameraPropertyRange">
      <arg name="device" type="s" direction="in"/>
      <arg name="property" type="s" direction="in"/>
      <arg name="range" type="(iiiis)" direction="out"/>
    </method>
    <method name="GetVideoPropertyRange">
      <arg name="device" type="s" direction="in"/>
      <arg name="property" type="s" direction="in"/>
      <arg name="range" type="(iiiis)" direction="out"/>
    </method>
    <method name="SupportedProperties">
      <arg name="device" type="s" direction="in"/>
      <arg name="camera" type="as" direction="out"/>
      <arg name="video" type="as" direction="out"/>
    </method>
    <signal name="DeviceAdded">
      <arg name="path" type="s"/>
    </signal>
    <signal name="DeviceRemoved">
      <arg name="path" type="s"/>
    </signal>
    <signal name="PropertyChanged">
      <arg name="device" type="s"/>
      <arg name="domain" type="s"/>
      <arg name="property" type="s"/>
      <arg name="value" type="i"/>
    </signal>
  </interface>
  ` + introspect.IntrospectDataString + `
</node>
`

// ConnectionProvider is the slice of the connection pool the server needs.
// This allows mocking behind a narrow seam in tests.
type ConnectionProvider interface {
	// Get returns the cached or freshly bound connection for a device.
	Get(dev control.Device) (*uvc.Connection, error)

	// Evict drops the cached connection for a device.
	Evict(dev control.Device)

	// Enumerator returns the enumerator devices are resolved with.
	Enumerator() uvc.Enumerator
}

// DeviceErrorHandler is called when a device error (device disconnected) is
// detected, so the caller can trigger recovery like re-enumeration.
type DeviceErrorHandler func(device string, err error)

// DeviceInfo represents device identity returned via D-Bus.
// Serializes to D-Bus type (ss): name and path.
type DeviceInfo struct {
	Name string
	Path string
}

// RangeInfo represents a property range returned via D-Bus.
// Serializes to D-Bus type (iiiis).
type RangeInfo struct {
	Min         int32
	Max         int32
	Step        int32
	Default     int32
	DefaultMode string
}

// Server implements the D-Bus service for camera property control.
//
// Thread safety:
//   - The pool serializes its own map state; property I/O runs outside the
//     pool lock on the borrowed connection.
//   - connMu protects the D-Bus connection field for signal emission.
//   - handlerMu protects the deviceErrorHandler field.
type Server struct {
	conn               *dbus.Conn
	connMu             sync.RWMutex // Protects conn field only
	pool               ConnectionProvider
	rateLimiter        *rate.Limiter
	handlerMu          sync.RWMutex // Protects deviceErrorHandler
	deviceErrorHandler DeviceErrorHandler
}

// NewServer creates a new D-Bus server over the given connection pool.
func NewServer(pool ConnectionProvider) *Server {
	return &Server{
		pool:        pool,
		rateLimiter: rate.NewLimiter(rateLimitPerSecond, rateLimitBurst),
	}
}

// Start connects to the session bus and exports the service.
func (s *Server) Start() error {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}

	success := false
	defer func() {
		if !success {
			if closeErr := conn.Close(); closeErr != nil {
				log.Error().Err(closeErr).Msg("Failed to close D-Bus connection during cleanup")
			}
		}
	}()

	err = conn.Export(s, ObjectPath, InterfaceName)
	if err != nil {
		return fmt.Errorf("failed to export server: %w", err)
	}

	err = conn.Export(introspect.Introspectable(IntrospectXML), ObjectPath, "org.freedesktop.DBus.Introspectable")
	if err != nil {
		return fmt.Errorf("failed to export introspectable: %w", err)
	}

	reply, err := conn.RequestName(ServiceName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("failed to request name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("name %s already taken", ServiceName)
	}

	s.connMu.Lock()
	s.conn = conn
	s.connMu.Unlock()

	success = true
	log.Info().Str("service", ServiceName).Msg("D-Bus service started")
	return nil
}

// Stop disconnects from the session bus.
func (s *Server) Stop() error {
	s.connMu.Lock()
	conn := s.conn
	s.conn = nil
	s.connMu.Unlock()

	if conn != nil {
		return conn.Close()
	}
	return nil
}

// SetDeviceErrorHandler sets the callback invoked when device errors are
// detected during property operations.
func (s *Server) SetDeviceErrorHandler(handler DeviceErrorHandler) {
	s.handlerMu.Lock()
	defer s.handlerMu.Unlock()
	s.deviceErrorHandler = handler
}

// handleDeviceError evicts a vanished device from the pool and triggers
// recovery. Returns true if the error was a device error.
func (s *Server) handleDeviceError(dev control.Device, err error) bool {
	if !control.IsKind(err, control.DeviceNotFound) {
		return false
	}

	log.Warn().Err(err).Str("device", dev.ID()).Msg("Device error detected, triggering recovery")

	s.pool.Evict(dev)

	s.handlerMu.RLock()
	handler := s.deviceErrorHandler
	s.handlerMu.RUnlock()

	if handler != nil {
		// Run recovery asynchronously to not block the D-Bus response.
		go handler(dev.ID(), err)
	}

	return true
}

// resolveDevice matches a caller-supplied identifier against enumerated
// devices so cached identities carry the display name; unknown identifiers
// are treated as raw device paths.
func (s *Server) resolveDevice(id string) control.Device {
	devices, err := s.pool.Enumerator().ListDevices()
	if err == nil {
		for _, d := range devices {
			if d.Path == id || d.Name == id {
				return d
			}
		}
	}
	return control.Device{Path: id}
}

// safeCall converts panics escaping property operations into SystemError, so
// the error contract holds at the service boundary.
func safeCall[T any](fn func() (T, error)) (out T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = control.Errorf(control.SystemError, "recovered from panic: %v", r)
		}
	}()
	return fn()
}

// ListDevices returns the identities of all present capture devices.
func (s *Server) ListDevices() ([]DeviceInfo, *dbus.Error) {
	devices, err := s.pool.Enumerator().ListDevices()
	if err != nil {
		log.Error().Err(err).Msg("Failed to list devices")
		return nil, dbus.MakeFailedError(err)
	}

	result := make([]DeviceInfo, len(devices))
	for i, d := range devices {
		result[i] = DeviceInfo{Name: d.Name, Path: d.Path}
	}

	log.Debug().Int("count", len(result)).Msg("Listed devices")
	return result, nil
}

// GetCameraProperty reads the current value and mode of a camera control
// property.
func (s *Server) GetCameraProperty(device, property string) (int32, string, *dbus.Error) {
	if device == "" {
		return 0, "", dbus.MakeFailedError(ErrEmptyDevice)
	}
	prop, err := control.ParseCamProperty(property)
	if err != nil {
		return 0, "", dbus.MakeFailedError(err)
	}

	dev := s.resolveDevice(device)
	conn, err := s.pool.Get(dev)
	if err != nil {
		log.Error().Err(err).Str("device", device).Msg("Failed to get connection")
		return 0, "", dbus.MakeFailedError(err)
	}

	setting, err := safeCall(func() (control.PropSetting, error) { return conn.GetCamera(prop) })
	if err != nil {
		s.handleDeviceError(dev, err)
		log.Error().Err(err).Str("device", device).Str("property", property).Msg("Failed to get camera property")
		return 0, "", dbus.MakeFailedError(err)
	}

	return setting.Value, setting.Mode.String(), nil
}

// SetCameraProperty writes a camera control property. The value is validated
// against the device's reported range before the write.
func (s *Server) SetCameraProperty(device, property string, value int32, mode string) *dbus.Error {
	if !s.rateLimiter.Allow() {
		log.Warn().Msg("Rate limit exceeded for SetCameraProperty")
		return dbus.MakeFailedError(ErrRateLimitExceeded)
	}
	if device == "" {
		return dbus.MakeFailedError(ErrEmptyDevice)
	}
	prop, err := control.ParseCamProperty(property)
	if err != nil {
		return dbus.MakeFailedError(err)
	}
	m, err := parseMode(mode)
	if err != nil {
		return dbus.MakeFailedError(err)
	}

	dev := s.resolveDevice(device)
	conn, err := s.pool.Get(dev)
	if err != nil {
		return dbus.MakeFailedError(err)
	}

	_, err = safeCall(func() (struct{}, error) {
		r, err := conn.CameraRange(prop)
		if err != nil {
			return struct{}{}, err
		}
		if !r.IsValid(value) {
			return struct{}{}, control.Errorf(control.InvalidValue,
				"value %d outside range [%d, %d] step %d", value, r.Min, r.Max, r.Step)
		}
		return struct{}{}, conn.SetCamera(prop, control.PropSetting{Value: value, Mode: m})
	})
	if err != nil {
		s.handleDeviceError(dev, err)
		log.Error().Err(err).Str("device", device).Str("property", property).Msg("Failed to set camera property")
		return dbus.MakeFailedError(err)
	}

	log.Debug().Str("device", device).Str("property", property).Int32("value", value).Msg("Set camera property")
	s.emitPropertyChanged(device, "camera", property, value)
	return nil
}

// GetVideoProperty reads the current value and mode of a video processing
// property.
func (s *Server) GetVideoProperty(device, property string) (int32, string, *dbus.Error) {
	if device == "" {
		return 0, "", dbus.MakeFailedError(ErrEmptyDevice)
	}
	prop, err := control.ParseVidProperty(property)
	if err != nil {
		return 0, "", dbus.MakeFailedError(err)
	}

	dev := s.resolveDevice(device)
	conn, err := s.pool.Get(dev)
	if err != nil {
		log.Error().Err(err).Str("device", device).Msg("Failed to get connection")
		return 0, "", dbus.MakeFailedError(err)
	}

	setting, err := safeCall(func() (control.PropSetting, error) { return conn.GetVideo(prop) })
	if err != nil {
		s.handleDeviceError(dev, err)
		log.Error().Err(err).Str("device", device).Str("property", property).Msg("Failed to get video property")
		return 0, "", dbus.MakeFailedError(err)
	}

	return setting.Value, setting.Mode.String(), nil
}

// SetVideoProperty writes a video processing property with range validation.
func (s *Server) SetVideoProperty(device, property string, value int32, mode string) *dbus.Error {
	if !s.rateLimiter.Allow() {
		log.Warn().Msg("Rate limit exceeded for SetVideoProperty")
		return dbus.MakeFailedError(ErrRateLimitExceeded)
	}
	if device == "" {
		return dbus.MakeFailedError(ErrEmptyDevice)
	}
	prop, err := control.ParseVidProperty(property)
	if err != nil {
		return dbus.MakeFailedError(err)
	}
	m, err := parseMode(mode)
	if err != nil {
		return dbus.MakeFailedError(err)
	}

	dev := s.resolveDevice(device)
	conn, err := s.pool.Get(dev)
	if err != nil {
		return dbus.MakeFailedError(err)
	}

	_, err = safeCall(func() (struct{}, error) {
		r, err := conn.VideoRange(prop)
		if err != nil {
			return struct{}{}, err
		}
		if !r.IsValid(value) {
			return struct{}{}, control.Errorf(control.InvalidValue,
				"value %d outside range [%d, %d] step %d", value, r.Min, r.Max, r.Step)
		}
		return struct{}{}, conn.SetVideo(prop, control.PropSetting{Value: value, Mode: m})
	})
	if err != nil {
		s.handleDeviceError(dev, err)
		log.Error().Err(err).Str("device", device).Str("property", property).Msg("Failed to set video property")
		return dbus.MakeFailedError(err)
	}

	log.Debug().Str("device", device).Str("property", property).Int32("value", value).Msg("Set video property")
	s.emitPropertyChanged(device, "video", property, value)
	return nil
}

// GetCameraPropertyRange queries the supported range of a camera property.
func (s *Server) GetCameraPropertyRange(device, property string) (RangeInfo, *dbus.Error) {
	if device == "" {
		return RangeInfo{}, dbus.MakeFailedError(ErrEmptyDevice)
	}
	prop, err := control.ParseCamProperty(property)
	if err != nil {
		return RangeInfo{}, dbus.MakeFailedError(err)
	}

	dev := s.resolveDevice(device)
	conn, err := s.pool.Get(dev)
	if err != nil {
		return RangeInfo{}, dbus.MakeFailedError(err)
	}

	r, err := safeCall(func() (control.PropRange, error) { return conn.CameraRange(prop) })
	if err != nil {
		s.handleDeviceError(dev, err)
		return RangeInfo{}, dbus.MakeFailedError(err)
	}
	return rangeInfo(r), nil
}

// GetVideoPropertyRange queries the supported range of a video property.
func (s *Server) GetVideoPropertyRange(device, property string) (RangeInfo, *dbus.Error) {
	if device == "" {
		return RangeInfo{}, dbus.MakeFailedError(ErrEmptyDevice)
	}
	prop, err := control.ParseVidProperty(property)
	if err != nil {
		return RangeInfo{}, dbus.MakeFailedError(err)
	}

	dev := s.resolveDevice(device)
	conn, err := s.pool.Get(dev)
	if err != nil {
		return RangeInfo{}, dbus.MakeFailedError(err)
	}

	r, err := safeCall(func() (control.PropRange, error) { return conn.VideoRange(prop) })
	if err != nil {
		s.handleDeviceError(dev, err)
		return RangeInfo{}, dbus.MakeFailedError(err)
	}
	return rangeInfo(r), nil
}

// SupportedProperties scans a device and returns the names of its supported
// camera and video properties.
func (s *Server) SupportedProperties(device string) ([]string, []string, *dbus.Error) {
	if device == "" {
		return nil, nil, dbus.MakeFailedError(ErrEmptyDevice)
	}

	dev := s.resolveDevice(device)
	caps, err := safeCall(func() (*capability.DeviceCapabilities, error) {
		return capability.Scan(s.pool.Enumerator(), dev)
	})
	if err != nil {
		return nil, nil, dbus.MakeFailedError(err)
	}

	camera := make([]string, 0)
	for _, prop := range caps.SupportedCameraProperties() {
		camera = append(camera, prop.String())
	}
	video := make([]string, 0)
	for _, prop := range caps.SupportedVideoProperties() {
		video = append(video, prop.String())
	}

	log.Debug().Str("device", device).Int("camera", len(camera)).Int("video", len(video)).Msg("Scanned device")
	return camera, video, nil
}

func rangeInfo(r control.PropRange) RangeInfo {
	return RangeInfo{
		Min:         r.Min,
		Max:         r.Max,
		Step:        r.Step,
		Default:     r.Default,
		DefaultMode: r.DefaultMode.String(),
	}
}

func parseMode(mode string) (control.Mode, error) {
	switch mode {
	case "auto":
		return control.Auto, nil
	case "manual":
		return control.Manual, nil
	default:
		return 0, control.Errorf(control.InvalidArgument, "unknown mode %q", mode)
	}
}

// emitPropertyChanged emits the PropertyChanged signal.
func (s *Server) emitPropertyChanged(device, domain, property string, value int32) {
	s.connMu.RLock()
	conn := s.conn
	s.connMu.RUnlock()

	if conn == nil {
		return
	}

	err := conn.Emit(ObjectPath, InterfaceName+".PropertyChanged", device, domain, property, value)
	if err != nil {
		log.Error().Err(err).Msg("Failed to emit PropertyChanged signal")
	}
}

// EmitDeviceAdded emits the DeviceAdded signal.
func (s *Server) EmitDeviceAdded(path string) {
	s.connMu.RLock()
	conn := s.conn
	s.connMu.RUnlock()

	if conn == nil {
		return
	}

	err := conn.Emit(ObjectPath, InterfaceName+".DeviceAdded", path)
	if err != nil {
		log.Error().Err(err).Msg("Failed to emit DeviceAdded signal")
	}
	log.Info().Str("path", path).Msg("Device added")
}

// EmitDeviceRemoved emits the DeviceRemoved signal.
func (s *Server) EmitDeviceRemoved(path string) {
	s.connMu.RLock()
	conn := s.conn
	s.connMu.RUnlock()

	if conn == nil {
		return
	}

	err := conn.Emit(ObjectPath, InterfaceName+".DeviceRemoved", path)
	if err != nil {
		log.Error().Err(err).Msg("Failed to emit DeviceRemoved signal")
	}
	log.Info().Str("path", path).Msg("Device removed")
}
