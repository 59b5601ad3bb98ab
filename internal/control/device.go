// Package control defines the device identity, error taxonomy and property
// model shared by every layer of uvcctl.
package control

// Device identifies a physical video capture device. The path is the stable
// identifier; the name is cosmetic and only used as a fallback key for
// devices whose platform path is empty.
type Device struct {
	Name string
	Path string
}

// IsValid reports whether the device carries any identifying information.
func (d Device) IsValid() bool {
	return d.Name != "" || d.Path != ""
}

// ID returns the stable lookup key for this device: the path when present,
// otherwise the name.
func (d Device) ID() string {
	if d.Path != "" {
		return d.Path
	}
	return d.Name
}

// SameDevice reports whether two identities refer to the same physical
// device. Paths are compared when both are non-empty; otherwise the
// comparison falls back to names.
func SameDevice(a, b Device) bool {
	if a.Path != "" && b.Path != "" {
		return a.Path == b.Path
	}
	return a.Name == b.Name
}
