package preset_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"
	"go.uber.org/mock/gomock"

	"github.com/shini4i/uvcctl/internal/capability"
	"github.com/shini4i/uvcctl/internal/control"
	"github.com/shini4i/uvcctl/internal/preset"
	"github.com/shini4i/uvcctl/internal/uvc"
	"github.com/shini4i/uvcctl/internal/uvc/mocks"
)

var testDevice = control.Device{Name: "Test Camera", Path: "/dev/video0"}

func newTestStore(t *testing.T) *preset.Store {
	t.Helper()

	db, err := bolt.Open(filepath.Join(t.TempDir(), "presets.db"), 0o600, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, db.Close())
	})

	return preset.NewStore(db)
}

func samplePreset() preset.Preset {
	return preset.Preset{
		Device: testDevice.ID(),
		Camera: map[string]control.PropSetting{
			"Zoom": {Value: 100, Mode: control.Manual},
		},
		Video: map[string]control.PropSetting{
			"Brightness": {Value: 128, Mode: control.Auto},
		},
	}
}

func TestStore_SaveAndLoad(t *testing.T) {
	store := newTestStore(t)
	saved := samplePreset()

	require.NoError(t, store.Save("meeting", saved))

	loaded, err := store.Load("meeting")
	require.NoError(t, err)
	assert.Equal(t, saved, loaded)
}

func TestStore_Save_EmptyName(t *testing.T) {
	store := newTestStore(t)

	err := store.Save("", samplePreset())
	assert.ErrorContains(t, err, "preset name cannot be empty")
}

func TestStore_Save_Overwrites(t *testing.T) {
	store := newTestStore(t)

	first := samplePreset()
	require.NoError(t, store.Save("meeting", first))

	second := samplePreset()
	second.Camera["Zoom"] = control.PropSetting{Value: 200, Mode: control.Manual}
	require.NoError(t, store.Save("meeting", second))

	loaded, err := store.Load("meeting")
	require.NoError(t, err)
	assert.Equal(t, second, loaded)
}

func TestStore_Load_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Load("missing")
	assert.ErrorContains(t, err, `preset "missing" not found`)
}

func TestStore_List(t *testing.T) {
	store := newTestStore(t)

	names, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, names)

	require.NoError(t, store.Save("streaming", samplePreset()))
	require.NoError(t, store.Save("meeting", samplePreset()))

	names, err = store.List()
	require.NoError(t, err)
	// bbolt iterates keys in byte order.
	assert.Equal(t, []string{"meeting", "streaming"}, names)
}

func TestStore_Delete(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save("meeting", samplePreset()))
	require.NoError(t, store.Delete("meeting"))

	_, err := store.Load("meeting")
	assert.ErrorContains(t, err, "not found")

	// Deleting a missing preset is not an error.
	assert.NoError(t, store.Delete("meeting"))
	assert.NoError(t, store.Delete("never-existed"))
}

// presetEnumerator wires an enumerator whose device supports the given
// selectors per domain, answering range queries from the tables and value
// reads with fixed settings.
func presetEnumerator(ctrl *gomock.Controller, cameraSelectors, videoSelectors map[uint32]uvc.Range) (*mocks.MockEnumerator, *mocks.MockControlSurface, *mocks.MockControlSurface) {
	ranged := func(table map[uint32]uvc.Range) func(sel uint32) (uvc.Range, error) {
		return func(sel uint32) (uvc.Range, error) {
			if r, ok := table[sel]; ok {
				return r, nil
			}
			return uvc.Range{}, errors.New("unsupported")
		}
	}

	camera := mocks.NewMockControlSurface(ctrl)
	camera.EXPECT().GetRange(gomock.Any()).DoAndReturn(ranged(cameraSelectors)).AnyTimes()
	camera.EXPECT().Get(gomock.Any()).Return(int32(100), control.FlagManual, nil).AnyTimes()

	video := mocks.NewMockControlSurface(ctrl)
	video.EXPECT().GetRange(gomock.Any()).DoAndReturn(ranged(videoSelectors)).AnyTimes()
	video.EXPECT().Get(gomock.Any()).Return(int32(128), control.FlagAuto, nil).AnyTimes()

	filter := mocks.NewMockFilter(ctrl)
	filter.EXPECT().CameraControl().Return(camera, nil).AnyTimes()
	filter.EXPECT().VideoProcAmp().Return(video, nil).AnyTimes()
	filter.EXPECT().Close().Return(nil).AnyTimes()

	enum := mocks.NewMockEnumerator(ctrl)
	enum.EXPECT().ListDevices().Return([]control.Device{testDevice}, nil).AnyTimes()
	enum.EXPECT().OpenFilter(gomock.Any()).Return(filter, nil).AnyTimes()
	return enum, camera, video
}

func TestCapture(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	enum, _, _ := presetEnumerator(ctrl,
		map[uint32]uvc.Range{
			control.CamZoom.Selector(): {Min: 0, Max: 255, Step: 5, Flags: control.FlagManual},
		},
		map[uint32]uvc.Range{
			control.VidBrightness.Selector(): {Min: 0, Max: 255, Step: 1, Default: 128, Flags: control.FlagAuto},
		},
	)

	caps, err := capability.Scan(enum, testDevice)
	require.NoError(t, err)

	p := preset.Capture(caps)
	assert.Equal(t, testDevice.ID(), p.Device)
	assert.Equal(t, map[string]control.PropSetting{
		"Zoom": {Value: 100, Mode: control.Manual},
	}, p.Camera)
	assert.Equal(t, map[string]control.PropSetting{
		"Brightness": {Value: 128, Mode: control.Auto},
	}, p.Video)
}

func TestApply(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	enum, camera, video := presetEnumerator(ctrl,
		map[uint32]uvc.Range{
			control.CamZoom.Selector(): {Min: 0, Max: 255, Step: 5},
		},
		map[uint32]uvc.Range{
			control.VidBrightness.Selector(): {Min: 0, Max: 255, Step: 1},
		},
	)

	// Misaligned zoom snaps to the nearest step before the write.
	camera.EXPECT().Set(control.CamZoom.Selector(), int32(5), control.FlagManual).Return(nil)
	video.EXPECT().Set(control.VidBrightness.Selector(), int32(30), control.FlagAuto).Return(nil)

	pool := uvc.NewPool(uvc.WithEnumerator(enum))
	p := preset.Preset{
		Device: testDevice.ID(),
		Camera: map[string]control.PropSetting{
			"Zoom": {Value: 7, Mode: control.Manual},
			// Unknown names and unsupported properties are skipped.
			"Warp":  {Value: 1, Mode: control.Manual},
			"Focus": {Value: 50, Mode: control.Manual},
		},
		Video: map[string]control.PropSetting{
			"Brightness": {Value: 30, Mode: control.Auto},
		},
	}

	assert.NoError(t, preset.Apply(pool, testDevice, p))
}

func TestApply_ValueOutOfRange(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	enum, camera, _ := presetEnumerator(ctrl,
		map[uint32]uvc.Range{
			control.CamZoom.Selector(): {Min: 0, Max: 255, Step: 5},
		},
		map[uint32]uvc.Range{},
	)

	camera.EXPECT().Set(control.CamZoom.Selector(), int32(255), control.FlagManual).Return(nil)

	pool := uvc.NewPool(uvc.WithEnumerator(enum))
	p := preset.Preset{
		Device: testDevice.ID(),
		Camera: map[string]control.PropSetting{
			"Zoom": {Value: 9000, Mode: control.Manual},
		},
	}

	assert.NoError(t, preset.Apply(pool, testDevice, p))
}

func TestApply_DeviceNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	enum := mocks.NewMockEnumerator(ctrl)
	enum.EXPECT().OpenFilter(gomock.Any()).Return(nil, errors.New("no such device")).AnyTimes()

	pool := uvc.NewPool(uvc.WithEnumerator(enum))
	err := preset.Apply(pool, testDevice, samplePreset())
	assert.True(t, control.IsKind(err, control.DeviceNotFound))
}

func TestApply_FailedSetDoesNotAbort(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	enum, camera, video := presetEnumerator(ctrl,
		map[uint32]uvc.Range{
			control.CamZoom.Selector(): {Min: 0, Max: 255, Step: 5},
		},
		map[uint32]uvc.Range{
			control.VidBrightness.Selector(): {Min: 0, Max: 255, Step: 1},
		},
	)

	camera.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("device busy"))
	video.EXPECT().Set(control.VidBrightness.Selector(), int32(30), control.FlagAuto).Return(nil)

	pool := uvc.NewPool(uvc.WithEnumerator(enum))
	p := preset.Preset{
		Device: testDevice.ID(),
		Camera: map[string]control.PropSetting{
			"Zoom": {Value: 10, Mode: control.Manual},
		},
		Video: map[string]control.PropSetting{
			"Brightness": {Value: 30, Mode: control.Auto},
		},
	}

	assert.NoError(t, preset.Apply(pool, testDevice, p))
}