package xu

import (
	"github.com/google/uuid"

	"github.com/shini4i/uvcctl/internal/control"
	"github.com/shini4i/uvcctl/internal/uvc"
)

// LogitechPropertySet identifies the Logitech vendor extension unit.
var LogitechPropertySet = uuid.MustParse("49e40215-f434-47fe-b158-0e885023e51b")

// LogitechProperty enumerates the property ids within the Logitech set.
type LogitechProperty uint32

const (
	LogitechRightLight     LogitechProperty = 1
	LogitechRightSound     LogitechProperty = 2
	LogitechFaceTracking   LogitechProperty = 3
	LogitechLedIndicator   LogitechProperty = 4
	LogitechProcessorUsage LogitechProperty = 5
	LogitechRawDataBits    LogitechProperty = 6
	LogitechFocusAssist    LogitechProperty = 7
	LogitechVideoStandard  LogitechProperty = 8
	LogitechDigitalZoomROI LogitechProperty = 9
	LogitechTiltPan        LogitechProperty = 10
)

// LogitechKey builds the vendor key for a Logitech property.
func LogitechKey(prop LogitechProperty) Key {
	return Key{Set: LogitechPropertySet, ID: uint32(prop)}
}

// GetLogitechProperty reads a Logitech vendor property. A short-lived
// accessor is opened per call; sessions issuing many vendor operations
// should hold their own Accessor instead.
func GetLogitechProperty(enum uvc.Enumerator, dev control.Device, prop LogitechProperty, opts ...AccessorOption) ([]byte, error) {
	accessor, err := Open(enum, dev, opts...)
	if err != nil {
		return nil, err
	}
	defer closeAccessor(accessor)
	return accessor.GetProperty(LogitechKey(prop))
}

// SetLogitechProperty writes a Logitech vendor property.
func SetLogitechProperty(enum uvc.Enumerator, dev control.Device, prop LogitechProperty, data []byte, opts ...AccessorOption) error {
	accessor, err := Open(enum, dev, opts...)
	if err != nil {
		return err
	}
	defer closeAccessor(accessor)
	return accessor.SetProperty(LogitechKey(prop), data)
}

// SupportsLogitechProperties probes whether the device answers the Logitech
// property set at all. Devices without the capability report false rather
// than an error.
func SupportsLogitechProperties(enum uvc.Enumerator, dev control.Device, opts ...AccessorOption) (bool, error) {
	accessor, err := Open(enum, dev, opts...)
	if err != nil {
		if control.IsKind(err, control.PropertyNotSupported) {
			return false, nil
		}
		return false, err
	}
	defer closeAccessor(accessor)

	flags, err := accessor.QuerySupport(LogitechKey(LogitechRightLight))
	if err != nil {
		return false, nil
	}
	return flags&(SupportGet|SupportSet) != 0, nil
}

// closeAccessor discards the close error; Close already logs the detail.
func closeAccessor(a *Accessor) {
	_ = a.Close()
}
