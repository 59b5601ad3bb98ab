// Package preset persists snapshots of device property values and re-applies
// them later, keyed by preset name.
package preset

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
	bolt "go.etcd.io/bbolt"

	"github.com/shini4i/uvcctl/internal/capability"
	"github.com/shini4i/uvcctl/internal/control"
	"github.com/shini4i/uvcctl/internal/uvc"
)

const bucket = "presets"

// Preset is a named snapshot of property values, keyed by property name so
// the stored form stays readable and stable across catalog reorderings.
type Preset struct {
	Device string                         `json:"device"`
	Camera map[string]control.PropSetting `json:"camera"`
	Video  map[string]control.PropSetting `json:"video"`
}

// Capture builds a preset from a capability scan, recording the current
// value of every supported property.
func Capture(caps *capability.DeviceCapabilities) Preset {
	p := Preset{
		Device: caps.Device().ID(),
		Camera: make(map[string]control.PropSetting),
		Video:  make(map[string]control.PropSetting),
	}
	for _, prop := range caps.SupportedCameraProperties() {
		p.Camera[prop.String()] = caps.Camera(prop).Current
	}
	for _, prop := range caps.SupportedVideoProperties() {
		p.Video[prop.String()] = caps.Video(prop).Current
	}
	return p
}

// Store saves presets as JSON values in a bbolt bucket.
type Store struct {
	db *bolt.DB
}

// NewStore creates a preset store over an open database.
func NewStore(db *bolt.DB) *Store {
	return &Store{db: db}
}

// Save persists a preset under the given name, replacing any previous one.
func (s *Store) Save(name string, p Preset) error {
	if name == "" {
		return fmt.Errorf("preset name cannot be empty")
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(bucket))
		if err != nil {
			return err
		}

		value, err := json.Marshal(p)
		if err != nil {
			return err
		}
		return b.Put([]byte(name), value)
	})
}

// Load retrieves a preset by name.
func (s *Store) Load(name string) (Preset, error) {
	var p Preset

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return fmt.Errorf("preset %q not found", name)
		}

		value := b.Get([]byte(name))
		if value == nil {
			return fmt.Errorf("preset %q not found", name)
		}
		return json.Unmarshal(value, &p)
	})

	return p, err
}

// List returns the names of all stored presets.
func (s *Store) List() ([]string, error) {
	var names []string

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, _ []byte) error {
			names = append(names, string(k))
			return nil
		})
	})

	return names, err
}

// Delete removes a preset. Deleting a missing preset is not an error.
func (s *Store) Delete(name string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return nil
		}
		return b.Delete([]byte(name))
	})
}

// Apply writes a preset's settings to a device through the pool. Values are
// clamped against the device's current ranges before each set; properties
// the device no longer supports are skipped with a warning.
func Apply(pool *uvc.Pool, dev control.Device, p Preset) error {
	conn, err := pool.Get(dev)
	if err != nil {
		return err
	}

	for name, setting := range p.Camera {
		prop, err := control.ParseCamProperty(name)
		if err != nil {
			log.Warn().Str("property", name).Msg("Skipping unknown camera property in preset")
			continue
		}
		r, err := conn.CameraRange(prop)
		if err != nil {
			log.Warn().Err(err).Stringer("property", prop).Msg("Skipping unsupported camera property in preset")
			continue
		}
		setting.Value = r.Clamp(setting.Value)
		if err := conn.SetCamera(prop, setting); err != nil {
			log.Warn().Err(err).Stringer("property", prop).Msg("Failed to apply camera property")
		}
	}

	for name, setting := range p.Video {
		prop, err := control.ParseVidProperty(name)
		if err != nil {
			log.Warn().Str("property", name).Msg("Skipping unknown video property in preset")
			continue
		}
		r, err := conn.VideoRange(prop)
		if err != nil {
			log.Warn().Err(err).Stringer("property", prop).Msg("Skipping unsupported video property in preset")
			continue
		}
		setting.Value = r.Clamp(setting.Value)
		if err := conn.SetVideo(prop, setting); err != nil {
			log.Warn().Err(err).Stringer("property", prop).Msg("Failed to apply video property")
		}
	}

	return nil
}
