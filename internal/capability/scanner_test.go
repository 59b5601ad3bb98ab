package capability_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/shini4i/uvcctl/internal/capability"
	"github.com/shini4i/uvcctl/internal/control"
	"github.com/shini4i/uvcctl/internal/uvc"
	"github.com/shini4i/uvcctl/internal/uvc/mocks"
)

var testDevice = control.Device{Name: "Test Camera", Path: "/dev/video0"}

// scanEnumerator wires an enumerator whose device answers range queries for
// the given selectors only.
func scanEnumerator(ctrl *gomock.Controller, cameraSelectors, videoSelectors map[uint32]uvc.Range) *mocks.MockEnumerator {
	supported := func(table map[uint32]uvc.Range) func(sel uint32) (uvc.Range, error) {
		return func(sel uint32) (uvc.Range, error) {
			if r, ok := table[sel]; ok {
				return r, nil
			}
			return uvc.Range{}, errors.New("unsupported")
		}
	}

	camera := mocks.NewMockControlSurface(ctrl)
	camera.EXPECT().GetRange(gomock.Any()).DoAndReturn(supported(cameraSelectors)).AnyTimes()
	camera.EXPECT().Get(gomock.Any()).Return(int32(10), control.FlagManual, nil).AnyTimes()

	video := mocks.NewMockControlSurface(ctrl)
	video.EXPECT().GetRange(gomock.Any()).DoAndReturn(supported(videoSelectors)).AnyTimes()
	video.EXPECT().Get(gomock.Any()).Return(int32(20), control.FlagAuto, nil).AnyTimes()

	filter := mocks.NewMockFilter(ctrl)
	filter.EXPECT().CameraControl().Return(camera, nil).AnyTimes()
	filter.EXPECT().VideoProcAmp().Return(video, nil).AnyTimes()
	filter.EXPECT().Close().Return(nil).AnyTimes()

	enum := mocks.NewMockEnumerator(ctrl)
	enum.EXPECT().ListDevices().Return([]control.Device{testDevice}, nil).AnyTimes()
	enum.EXPECT().OpenFilter(gomock.Any()).Return(filter, nil).AnyTimes()
	return enum
}

func TestScan(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	enum := scanEnumerator(ctrl,
		map[uint32]uvc.Range{
			control.CamZoom.Selector():  {Min: 0, Max: 255, Step: 5, Default: 0, Flags: control.FlagManual},
			control.CamFocus.Selector(): {Min: 0, Max: 100, Step: 1, Default: 50, Flags: control.FlagAuto},
		},
		map[uint32]uvc.Range{
			control.VidBrightness.Selector(): {Min: 0, Max: 255, Step: 1, Default: 128, Flags: control.FlagAuto},
		},
	)

	caps, err := capability.Scan(enum, testDevice)
	require.NoError(t, err)
	require.True(t, caps.Accessible())
	assert.Equal(t, testDevice, caps.Device())

	assert.Equal(t, []control.CamProperty{control.CamZoom, control.CamFocus},
		caps.SupportedCameraProperties())
	assert.Equal(t, []control.VidProperty{control.VidBrightness},
		caps.SupportedVideoProperties())

	zoom := caps.Camera(control.CamZoom)
	assert.True(t, zoom.Supported)
	assert.Equal(t, control.PropRange{Min: 0, Max: 255, Step: 5, Default: 0, DefaultMode: control.Manual}, zoom.Range)
	assert.Equal(t, control.PropSetting{Value: 10, Mode: control.Manual}, zoom.Current)

	brightness := caps.Video(control.VidBrightness)
	assert.True(t, brightness.Supported)
	assert.Equal(t, control.PropSetting{Value: 20, Mode: control.Auto}, brightness.Current)

	// Unsupported properties report the zero capability.
	assert.False(t, caps.SupportsCamera(control.CamPrivacy))
	assert.False(t, caps.SupportsVideo(control.VidGamma))
	assert.Equal(t, capability.PropertyCapability{}, caps.Camera(control.CamPrivacy))
}

func TestScan_InvalidDevice(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	_, err := capability.Scan(mocks.NewMockEnumerator(ctrl), control.Device{})
	require.Error(t, err)
	assert.True(t, control.IsKind(err, control.InvalidArgument))
}

func TestScan_DeviceNotEnumerable(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	enum := mocks.NewMockEnumerator(ctrl)
	enum.EXPECT().ListDevices().Return([]control.Device{}, nil)

	caps, err := capability.Scan(enum, testDevice)
	require.NoError(t, err)
	assert.False(t, caps.Accessible())
	assert.Empty(t, caps.SupportedCameraProperties())
	assert.Empty(t, caps.SupportedVideoProperties())
}

func TestScan_EnumerationFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	enum := mocks.NewMockEnumerator(ctrl)
	enum.EXPECT().ListDevices().Return(nil, errors.New("enumeration failed"))

	caps, err := capability.Scan(enum, testDevice)
	require.NoError(t, err)
	assert.False(t, caps.Accessible())
}

func TestRefresh(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	enum := scanEnumerator(ctrl,
		map[uint32]uvc.Range{control.CamZoom.Selector(): {Min: 0, Max: 255, Step: 5}},
		nil,
	)

	caps, err := capability.Scan(enum, testDevice)
	require.NoError(t, err)
	require.True(t, caps.SupportsCamera(control.CamZoom))

	require.NoError(t, caps.Refresh())
	assert.True(t, caps.SupportsCamera(control.CamZoom))
}

func TestRefresh_DeviceGone(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	enum := mocks.NewMockEnumerator(ctrl)
	first := enum.EXPECT().ListDevices().Return([]control.Device{}, nil)
	enum.EXPECT().ListDevices().Return(nil, errors.New("bus reset")).After(first)

	caps, err := capability.Scan(enum, testDevice)
	require.NoError(t, err)

	err = caps.Refresh()
	require.Error(t, err)
	assert.True(t, control.IsKind(err, control.DeviceNotFound))
	assert.False(t, caps.Accessible())
}
