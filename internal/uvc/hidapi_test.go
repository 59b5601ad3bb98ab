package uvc

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shini4i/uvcctl/internal/control"
)

// fakeHIDDevice implements karalabehid.Device with scriptable feature report
// handlers.
type fakeHIDDevice struct {
	getFn  func(data []byte) (int, error)
	sendFn func(data []byte) (int, error)
	closed bool
}

func (d *fakeHIDDevice) Close() error { d.closed = true; return nil }

func (d *fakeHIDDevice) Write(b []byte) (int, error) { return len(b), nil }

func (d *fakeHIDDevice) Read(b []byte) (int, error) { return 0, nil }

func (d *fakeHIDDevice) ReadTimeout(b []byte, timeout int) (int, error) { return 0, nil }

func (d *fakeHIDDevice) GetFeatureReport(b []byte) (int, error) {
	if d.getFn == nil {
		return len(b), nil
	}
	return d.getFn(b)
}

func (d *fakeHIDDevice) SendFeatureReport(b []byte) (int, error) {
	if d.sendFn == nil {
		return len(b), nil
	}
	return d.sendFn(b)
}

func newFakeFilter(device *fakeHIDDevice) *hidFilter {
	return newHIDFilter(control.Device{Name: "Fake Camera", Path: "/dev/video9"}, device)
}

func TestHIDSurface_Get(t *testing.T) {
	device := &fakeHIDDevice{
		getFn: func(data []byte) (int, error) {
			require.Len(t, data, settingReportSize)
			assert.Equal(t, cameraControlReportID, data[0])
			assert.Equal(t, byte(3), data[1]) // selector
			negSeven := int32(-7)
			binary.LittleEndian.PutUint32(data[2:6], uint32(negSeven))
			data[6] = byte(control.FlagManual)
			return len(data), nil
		},
	}
	filter := newFakeFilter(device)

	surface, err := filter.CameraControl()
	require.NoError(t, err)

	value, flags, err := surface.Get(3)
	require.NoError(t, err)
	assert.Equal(t, int32(-7), value)
	assert.Equal(t, control.FlagManual, flags)
}

func TestHIDSurface_Set(t *testing.T) {
	var sent []byte
	device := &fakeHIDDevice{
		sendFn: func(data []byte) (int, error) {
			sent = append([]byte(nil), data...)
			return len(data), nil
		},
	}
	filter := newFakeFilter(device)

	surface, err := filter.VideoProcAmp()
	require.NoError(t, err)

	require.NoError(t, surface.Set(1, 200, control.FlagAuto))
	require.Len(t, sent, settingReportSize)
	assert.Equal(t, videoProcReportID, sent[0])
	assert.Equal(t, byte(1), sent[1])
	assert.Equal(t, uint32(200), binary.LittleEndian.Uint32(sent[2:6]))
	assert.Equal(t, byte(control.FlagAuto), sent[6])
}

func TestHIDSurface_GetRange(t *testing.T) {
	device := &fakeHIDDevice{
		getFn: func(data []byte) (int, error) {
			require.Len(t, data, rangeReportSize)
			negMin := int32(-180)
			binary.LittleEndian.PutUint32(data[2:6], uint32(negMin))
			binary.LittleEndian.PutUint32(data[6:10], 180)
			binary.LittleEndian.PutUint32(data[10:14], 1)
			binary.LittleEndian.PutUint32(data[14:18], 0)
			data[18] = byte(control.FlagAuto)
			return len(data), nil
		},
	}
	filter := newFakeFilter(device)

	surface, err := filter.CameraControl()
	require.NoError(t, err)

	r, err := surface.GetRange(0)
	require.NoError(t, err)
	assert.Equal(t, Range{Min: -180, Max: 180, Step: 1, Default: 0, Flags: control.FlagAuto}, r)
}

func TestHIDSurface_DeviceError(t *testing.T) {
	device := &fakeHIDDevice{
		getFn: func(data []byte) (int, error) {
			return 0, errors.New("io error")
		},
	}
	filter := newFakeFilter(device)

	surface, err := filter.CameraControl()
	require.NoError(t, err)

	_, _, err = surface.Get(0)
	assert.Error(t, err)
}

func TestHIDFilter_Close(t *testing.T) {
	device := &fakeHIDDevice{}
	filter := newFakeFilter(device)

	surface, err := filter.CameraControl()
	require.NoError(t, err)

	require.NoError(t, filter.Close())
	assert.True(t, device.closed)

	// Close is idempotent; surfaces reject operations after close.
	require.NoError(t, filter.Close())
	_, _, err = surface.Get(0)
	assert.ErrorIs(t, err, errFilterClosed)
	assert.ErrorIs(t, surface.Set(0, 1, 0), errFilterClosed)
}

func TestHIDPropertySet_SizeQueryThenData(t *testing.T) {
	set := uuid.MustParse("49e40215-f434-47fe-b158-0e885023e51b")
	payload := []byte{0x01, 0x02, 0x03, 0x04}

	device := &fakeHIDDevice{
		getFn: func(data []byte) (int, error) {
			assert.Equal(t, set[:], data[1:17])
			assert.Equal(t, uint32(6), binary.LittleEndian.Uint32(data[17:21]))
			switch data[0] {
			case vendorSizeReportID:
				binary.LittleEndian.PutUint32(data[vendorHeaderSize:], uint32(len(payload)))
			case vendorDataReportID:
				copy(data[vendorHeaderSize:], payload)
			default:
				t.Fatalf("unexpected report id 0x%02x", data[0])
			}
			return len(data), nil
		},
	}
	filter := newFakeFilter(device)

	props, err := filter.PropertySet()
	require.NoError(t, err)

	size, err := props.Get(set, 6, nil)
	require.NoError(t, err)
	require.Equal(t, len(payload), size)

	buf := make([]byte, size)
	n, err := props.Get(set, 6, buf)
	require.NoError(t, err)
	assert.Equal(t, len(payload), n)
	assert.Equal(t, payload, buf)
}

func TestHIDPropertySet_Set(t *testing.T) {
	set := uuid.MustParse("49e40215-f434-47fe-b158-0e885023e51b")
	var sent []byte
	device := &fakeHIDDevice{
		sendFn: func(data []byte) (int, error) {
			sent = append([]byte(nil), data...)
			return len(data), nil
		},
	}
	filter := newFakeFilter(device)

	props, err := filter.PropertySet()
	require.NoError(t, err)

	require.NoError(t, props.Set(set, 2, []byte{0xAA, 0xBB}))
	require.Len(t, sent, vendorHeaderSize+2)
	assert.Equal(t, vendorDataReportID, sent[0])
	assert.Equal(t, set[:], sent[1:17])
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(sent[17:21]))
	assert.Equal(t, []byte{0xAA, 0xBB}, sent[vendorHeaderSize:])
}

func TestHIDPropertySet_QuerySupported(t *testing.T) {
	set := uuid.MustParse("49e40215-f434-47fe-b158-0e885023e51b")
	device := &fakeHIDDevice{
		getFn: func(data []byte) (int, error) {
			require.Equal(t, vendorQueryReportID, data[0])
			data[vendorHeaderSize] = 0x3
			return len(data), nil
		},
	}
	filter := newFakeFilter(device)

	props, err := filter.PropertySet()
	require.NoError(t, err)

	flags, err := props.QuerySupported(set, 1)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x3), flags)
}

func TestHIDPropertySet_ReleaseRejectsOperations(t *testing.T) {
	set := uuid.MustParse("49e40215-f434-47fe-b158-0e885023e51b")
	filter := newFakeFilter(&fakeHIDDevice{})

	props, err := filter.PropertySet()
	require.NoError(t, err)
	require.NoError(t, props.Release())

	_, err = props.QuerySupported(set, 1)
	assert.Error(t, err)
	_, err = props.Get(set, 1, nil)
	assert.Error(t, err)
	assert.Error(t, props.Set(set, 1, []byte{0x01}))
}
