package uvc

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/google/uuid"
	karalabehid "github.com/karalabe/hid"

	"github.com/shini4i/uvcctl/internal/control"
)

const (
	// controlUsagePage is the vendor-defined usage page under which UVC
	// devices expose their control endpoint as a HID interface.
	controlUsagePage uint16 = 0xFF90

	// cameraControlReportID addresses the camera control surface.
	cameraControlReportID byte = 0x03
	// videoProcReportID addresses the video processing surface.
	videoProcReportID byte = 0x04

	// settingReportSize is reportID + selector + int32 value + flags byte.
	settingReportSize = 7
	// rangeReportSize is reportID + selector + 4 int32 fields + flags byte.
	rangeReportSize = 19

	// vendorQueryReportID, vendorSizeReportID and vendorDataReportID carry
	// the extensible property set protocol: a 16-byte set GUID and a 4-byte
	// property id, followed by the payload for data reports.
	vendorQueryReportID byte = 0x20
	vendorSizeReportID  byte = 0x21
	vendorDataReportID  byte = 0x22

	vendorHeaderSize = 21 // reportID + GUID + property id
)

// HIDEnumerator enumerates UVC control interfaces over the HID transport.
type HIDEnumerator struct{}

// Verify HIDEnumerator implements Enumerator.
var _ Enumerator = (*HIDEnumerator)(nil)

// NewEnumerator returns the default platform enumerator.
func NewEnumerator() *HIDEnumerator {
	return &HIDEnumerator{}
}

// ListDevices returns the identities of all present capture devices.
func (e *HIDEnumerator) ListDevices() ([]control.Device, error) {
	infos, err := karalabehid.Enumerate(0, 0)
	if err != nil {
		return nil, control.Errorf(control.SystemError, "failed to enumerate HID devices: %w", err)
	}

	var devices []control.Device
	for _, info := range infos {
		if info.UsagePage != controlUsagePage {
			continue
		}
		devices = append(devices, control.Device{
			Name: info.Product,
			Path: info.Path,
		})
	}
	return devices, nil
}

// OpenFilter binds the native control interface for a device.
func (e *HIDEnumerator) OpenFilter(dev control.Device) (Filter, error) {
	infos, err := karalabehid.Enumerate(0, 0)
	if err != nil {
		return nil, control.Errorf(control.SystemError, "failed to enumerate HID devices: %w", err)
	}

	for _, info := range infos {
		if info.UsagePage != controlUsagePage {
			continue
		}
		candidate := control.Device{Name: info.Product, Path: info.Path}
		if !control.SameDevice(dev, candidate) {
			continue
		}

		device, err := info.Open()
		if err != nil {
			return nil, control.Errorf(control.DeviceBusy, "failed to open device %s: %w", candidate.ID(), err)
		}
		return newHIDFilter(candidate, device), nil
	}

	return nil, control.Errorf(control.DeviceNotFound, "device %s not found", dev.ID())
}

// hidFilter implements Filter on top of an open HID control interface.
// A single mutex serializes feature report exchanges: the request and the
// response of one operation must not interleave with another caller's.
type hidFilter struct {
	dev    control.Device
	device karalabehid.Device
	mu     sync.Mutex
	closed bool
}

func newHIDFilter(dev control.Device, device karalabehid.Device) *hidFilter {
	return &hidFilter{dev: dev, device: device}
}

func (f *hidFilter) Device() control.Device { return f.dev }

func (f *hidFilter) CameraControl() (ControlSurface, error) {
	return &hidSurface{filter: f, reportID: cameraControlReportID}, nil
}

func (f *hidFilter) VideoProcAmp() (ControlSurface, error) {
	return &hidSurface{filter: f, reportID: videoProcReportID}, nil
}

func (f *hidFilter) PropertySet() (PropertySet, error) {
	return &hidPropertySet{filter: f}, nil
}

func (f *hidFilter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	return f.device.Close()
}

// errFilterClosed is returned when an operation races a Close.
var errFilterClosed = fmt.Errorf("filter is closed")

// getReport runs a feature report round trip under the filter lock.
func (f *hidFilter) getReport(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errFilterClosed
	}
	_, err := f.device.GetFeatureReport(data)
	return err
}

func (f *hidFilter) sendReport(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errFilterClosed
	}
	_, err := f.device.SendFeatureReport(data)
	return err
}

// hidSurface implements ControlSurface for one property domain.
type hidSurface struct {
	filter   *hidFilter
	reportID byte
}

func (s *hidSurface) Get(selector uint32) (int32, uint32, error) {
	data := make([]byte, settingReportSize)
	data[0] = s.reportID
	data[1] = byte(selector)

	if err := s.filter.getReport(data); err != nil {
		return 0, 0, fmt.Errorf("failed to get feature report: %w", err)
	}

	value := int32(binary.LittleEndian.Uint32(data[2:6]))
	flags := uint32(data[6])
	return value, flags, nil
}

func (s *hidSurface) Set(selector uint32, value int32, flags uint32) error {
	data := make([]byte, settingReportSize)
	data[0] = s.reportID
	data[1] = byte(selector)
	binary.LittleEndian.PutUint32(data[2:6], uint32(value))
	data[6] = byte(flags)

	if err := s.filter.sendReport(data); err != nil {
		return fmt.Errorf("failed to send feature report: %w", err)
	}
	return nil
}

func (s *hidSurface) GetRange(selector uint32) (Range, error) {
	data := make([]byte, rangeReportSize)
	data[0] = s.reportID
	data[1] = byte(selector)

	if err := s.filter.getReport(data); err != nil {
		return Range{}, fmt.Errorf("failed to get range report: %w", err)
	}

	return Range{
		Min:     int32(binary.LittleEndian.Uint32(data[2:6])),
		Max:     int32(binary.LittleEndian.Uint32(data[6:10])),
		Step:    int32(binary.LittleEndian.Uint32(data[10:14])),
		Default: int32(binary.LittleEndian.Uint32(data[14:18])),
		Flags:   uint32(data[18]),
	}, nil
}

// hidPropertySet implements the extensible property set protocol over
// vendor feature reports.
type hidPropertySet struct {
	filter   *hidFilter
	released bool
	mu       sync.Mutex
}

func (p *hidPropertySet) ready() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released {
		return fmt.Errorf("property set released")
	}
	return nil
}

func vendorHeader(reportID byte, set uuid.UUID, id uint32, payload int) []byte {
	data := make([]byte, vendorHeaderSize+payload)
	data[0] = reportID
	copy(data[1:17], set[:])
	binary.LittleEndian.PutUint32(data[17:21], id)
	return data
}

func (p *hidPropertySet) QuerySupported(set uuid.UUID, id uint32) (uint32, error) {
	if err := p.ready(); err != nil {
		return 0, err
	}
	data := vendorHeader(vendorQueryReportID, set, id, 1)
	if err := p.filter.getReport(data); err != nil {
		return 0, fmt.Errorf("failed to query property support: %w", err)
	}
	return uint32(data[vendorHeaderSize]), nil
}

func (p *hidPropertySet) Get(set uuid.UUID, id uint32, buf []byte) (int, error) {
	if err := p.ready(); err != nil {
		return 0, err
	}

	if buf == nil {
		// Size query phase.
		data := vendorHeader(vendorSizeReportID, set, id, 4)
		if err := p.filter.getReport(data); err != nil {
			return 0, fmt.Errorf("failed to query property size: %w", err)
		}
		return int(binary.LittleEndian.Uint32(data[vendorHeaderSize:])), nil
	}

	data := vendorHeader(vendorDataReportID, set, id, len(buf))
	if err := p.filter.getReport(data); err != nil {
		return 0, fmt.Errorf("failed to get property data: %w", err)
	}
	return copy(buf, data[vendorHeaderSize:]), nil
}

func (p *hidPropertySet) Set(set uuid.UUID, id uint32, payload []byte) error {
	if err := p.ready(); err != nil {
		return err
	}
	data := vendorHeader(vendorDataReportID, set, id, len(payload))
	copy(data[vendorHeaderSize:], payload)
	if err := p.filter.sendReport(data); err != nil {
		return fmt.Errorf("failed to set property data: %w", err)
	}
	return nil
}

func (p *hidPropertySet) Release() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.released = true
	return nil
}
