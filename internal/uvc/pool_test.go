package uvc_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/shini4i/uvcctl/internal/control"
	"github.com/shini4i/uvcctl/internal/uvc"
	"github.com/shini4i/uvcctl/internal/uvc/mocks"
)

// expectBind wires the enumerator to produce a fresh valid filter per
// OpenFilter call.
func expectBind(ctrl *gomock.Controller, enum *mocks.MockEnumerator, times int) {
	enum.EXPECT().OpenFilter(gomock.Any()).DoAndReturn(func(dev control.Device) (uvc.Filter, error) {
		filter := mocks.NewMockFilter(ctrl)
		filter.EXPECT().CameraControl().Return(mocks.NewMockControlSurface(ctrl), nil)
		filter.EXPECT().VideoProcAmp().Return(nil, errors.New("not exposed"))
		filter.EXPECT().Close().Return(nil).AnyTimes()
		return filter, nil
	}).Times(times)
}

func TestPool_GetReturnsSameConnection(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	enum := mocks.NewMockEnumerator(ctrl)
	expectBind(ctrl, enum, 1)
	pool := uvc.NewPool(uvc.WithEnumerator(enum))

	first, err := pool.Get(testDevice)
	require.NoError(t, err)
	second, err := pool.Get(testDevice)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, pool.Count())
}

func TestPool_GetInvalidIdentity(t *testing.T) {
	pool := uvc.NewPool(uvc.WithEnumerator(mocks.NewMockEnumerator(gomock.NewController(t))))

	_, err := pool.Get(control.Device{})
	require.Error(t, err)
	assert.True(t, control.IsKind(err, control.InvalidArgument))
}

func TestPool_FailedConnectionNotCached(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	enum := mocks.NewMockEnumerator(ctrl)
	// Both attempts hit the enumerator: the failed binding is not cached.
	enum.EXPECT().OpenFilter(gomock.Any()).
		Return(nil, control.NewError(control.DeviceNotFound, "device not present")).
		Times(2)
	pool := uvc.NewPool(uvc.WithEnumerator(enum))

	_, err := pool.Get(testDevice)
	require.Error(t, err)
	assert.True(t, control.IsKind(err, control.DeviceNotFound))
	assert.Equal(t, 0, pool.Count())

	_, err = pool.Get(testDevice)
	require.Error(t, err)
}

func TestPool_InvalidCachedConnectionReplaced(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	enum := mocks.NewMockEnumerator(ctrl)
	expectBind(ctrl, enum, 2)
	pool := uvc.NewPool(uvc.WithEnumerator(enum))

	first, err := pool.Get(testDevice)
	require.NoError(t, err)

	// Closing the borrowed connection invalidates the cached entry; the next
	// Get rebinds instead of returning the dead connection.
	require.NoError(t, first.Close())
	require.False(t, first.IsValid())

	second, err := pool.Get(testDevice)
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.True(t, second.IsValid())
}

func TestPool_Evict(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	enum := mocks.NewMockEnumerator(ctrl)
	expectBind(ctrl, enum, 1)
	pool := uvc.NewPool(uvc.WithEnumerator(enum))

	_, err := pool.Get(testDevice)
	require.NoError(t, err)
	require.Equal(t, 1, pool.Count())

	pool.Evict(testDevice)
	assert.Equal(t, 0, pool.Count())

	// Evicting an absent device is a no-op.
	pool.Evict(testDevice)
	assert.Equal(t, 0, pool.Count())
}

func TestPool_ClearAllIdempotent(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	enum := mocks.NewMockEnumerator(ctrl)
	expectBind(ctrl, enum, 2)
	pool := uvc.NewPool(uvc.WithEnumerator(enum))

	_, err := pool.Get(testDevice)
	require.NoError(t, err)
	_, err = pool.Get(control.Device{Name: "Second Camera", Path: "/dev/video1"})
	require.NoError(t, err)
	require.Equal(t, 2, pool.Count())

	pool.ClearAll()
	assert.Equal(t, 0, pool.Count())
	pool.ClearAll()
	assert.Equal(t, 0, pool.Count())
}

func TestPool_KeyedByPath(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	enum := mocks.NewMockEnumerator(ctrl)
	expectBind(ctrl, enum, 1)
	pool := uvc.NewPool(uvc.WithEnumerator(enum))

	first, err := pool.Get(control.Device{Name: "HD Webcam", Path: "/dev/video0"})
	require.NoError(t, err)

	// A renamed identity with the same path resolves to the same connection.
	second, err := pool.Get(control.Device{Name: "HD Webcam (rev 2)", Path: "/dev/video0"})
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestPool_Enumerator(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	enum := mocks.NewMockEnumerator(ctrl)
	pool := uvc.NewPool(uvc.WithEnumerator(enum))
	assert.Equal(t, uvc.Enumerator(enum), pool.Enumerator())
}
