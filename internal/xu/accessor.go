package xu

import (
	"bytes"
	"encoding/binary"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/shini4i/uvcctl/internal/control"
	"github.com/shini4i/uvcctl/internal/uvc"
)

// Key addresses one vendor property: a 128-bit property set identifier plus
// a numeric property id within the set.
type Key struct {
	Set uuid.UUID
	ID  uint32
}

// Property set support flag bits reported by QuerySupport.
const (
	// SupportGet indicates the property can be read.
	SupportGet uint32 = 0x1
	// SupportSet indicates the property can be written.
	SupportSet uint32 = 0x2
)

// Accessor owns a device's extensible property set interface and, when one
// is configured, the proxy library backing it.
//
// Teardown order is load-bearing: the native property set object must be
// released before the proxy library is unloaded, because the object's
// behavior is defined by code mapped from the library. Close enforces this
// and performs at most one unload per load.
type Accessor struct {
	dev    control.Device
	mu     sync.Mutex
	filter uvc.Filter
	props  uvc.PropertySet
	handle LibraryHandle
	closed bool
}

// AccessorOption is a functional option for configuring an Accessor.
type AccessorOption func(*accessorConfig)

type accessorConfig struct {
	loader *Loader
}

// WithProxyLoader makes Open load the proxy library before binding the
// device filter.
func WithProxyLoader(loader *Loader) AccessorOption {
	return func(cfg *accessorConfig) {
		cfg.loader = loader
	}
}

// Open binds the extensible property set interface of a device. Unlike
// connection construction this fails hard: vendor access without the
// property set capability is meaningless. If a proxy library was loaded and
// the capability turns out to be absent, the library is unloaded before the
// error is returned.
func Open(enum uvc.Enumerator, dev control.Device, opts ...AccessorOption) (*Accessor, error) {
	var cfg accessorConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	var handle LibraryHandle
	if cfg.loader != nil {
		var err error
		handle, err = cfg.loader.Load()
		if err != nil {
			return nil, control.Errorf(control.SystemError, "failed to load proxy library: %w", err)
		}
	}

	fail := func(err error) error {
		if handle != nil {
			if cerr := handle.Close(); cerr != nil {
				log.Warn().Err(cerr).Msg("Failed to unload proxy library")
			}
		}
		return err
	}

	filter, err := enum.OpenFilter(dev)
	if err != nil {
		return nil, fail(err)
	}

	props, err := filter.PropertySet()
	if err != nil {
		if cerr := filter.Close(); cerr != nil {
			log.Warn().Err(cerr).Str("device", dev.ID()).Msg("Failed to close filter")
		}
		return nil, fail(control.Errorf(control.PropertyNotSupported,
			"device %s does not expose a vendor property set: %w", dev.ID(), err))
	}

	return &Accessor{dev: dev, filter: filter, props: props, handle: handle}, nil
}

// Device returns the identity the accessor was opened for.
func (a *Accessor) Device() control.Device {
	return a.dev
}

// propertySet returns the live property set or an error once closed.
func (a *Accessor) propertySet() (uvc.PropertySet, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil, control.NewError(control.SystemError, "property set interface not available")
	}
	return a.props, nil
}

// QuerySupport returns the get/set support flag bits for a property.
func (a *Accessor) QuerySupport(key Key) (uint32, error) {
	props, err := a.propertySet()
	if err != nil {
		return 0, err
	}
	flags, err := props.QuerySupported(key.Set, key.ID)
	if err != nil {
		return 0, control.Errorf(control.PropertyNotSupported, "property not supported: %w", err)
	}
	return flags, nil
}

// GetProperty reads a property payload. The size is queried first, then the
// payload is fetched into a buffer of that size.
func (a *Accessor) GetProperty(key Key) ([]byte, error) {
	props, err := a.propertySet()
	if err != nil {
		return nil, err
	}

	size, err := props.Get(key.Set, key.ID, nil)
	if err != nil || size == 0 {
		return nil, control.Errorf(control.PropertyNotSupported, "failed to get property size: %w", err)
	}

	data := make([]byte, size)
	n, err := props.Get(key.Set, key.ID, data)
	if err != nil {
		return nil, control.Errorf(control.SystemError, "failed to get property data: %w", err)
	}
	return data[:n], nil
}

// SetProperty writes a property payload.
func (a *Accessor) SetProperty(key Key, data []byte) error {
	props, err := a.propertySet()
	if err != nil {
		return err
	}
	if err := props.Set(key.Set, key.ID, data); err != nil {
		return control.Errorf(control.SystemError, "failed to set property: %w", err)
	}
	return nil
}

// Close releases the native property set object, closes the filter, and
// unloads the proxy library, in that order. Idempotent.
func (a *Accessor) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true

	var firstErr error
	if err := a.props.Release(); err != nil {
		firstErr = err
		log.Warn().Err(err).Str("device", a.dev.ID()).Msg("Failed to release property set")
	}
	a.props = nil

	if err := a.filter.Close(); err != nil {
		if firstErr == nil {
			firstErr = err
		}
		log.Warn().Err(err).Str("device", a.dev.ID()).Msg("Failed to close filter")
	}
	a.filter = nil

	if a.handle != nil {
		if err := a.handle.Close(); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			log.Warn().Err(err).Msg("Failed to unload proxy library")
		}
		a.handle = nil
	}
	return firstErr
}

// GetPropertyTyped reads a property whose payload is the little-endian
// encoding of T. A payload of any other size is InvalidValue, not a crash.
func GetPropertyTyped[T any](a *Accessor, key Key) (T, error) {
	var value T
	data, err := a.GetProperty(key)
	if err != nil {
		return value, err
	}

	size := binary.Size(value)
	if size < 0 {
		return value, control.NewError(control.InvalidArgument, "property type has no fixed size")
	}
	if len(data) != size {
		return value, control.Errorf(control.InvalidValue,
			"property data size mismatch: expected %d bytes, got %d", size, len(data))
	}

	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &value); err != nil {
		return value, control.Errorf(control.SystemError, "failed to decode property data: %w", err)
	}
	return value, nil
}

// SetPropertyTyped writes a property from the little-endian encoding of T.
func SetPropertyTyped[T any](a *Accessor, key Key, value T) error {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, value); err != nil {
		return control.Errorf(control.InvalidArgument, "failed to encode property data: %w", err)
	}
	return a.SetProperty(key, buf.Bytes())
}
