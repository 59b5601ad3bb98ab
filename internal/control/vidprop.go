package control

import "fmt"

// VidProperty identifies a video processing property: the signal processing
// applied to the captured image (brightness, contrast, white balance, ...).
type VidProperty int

const (
	VidBrightness VidProperty = iota
	VidContrast
	VidHue
	VidSaturation
	VidSharpness
	VidGamma
	VidColorEnable
	VidWhiteBalance
	VidBacklightCompensation
	VidGain
)

var vidPropertyNames = map[VidProperty]string{
	VidBrightness:            "Brightness",
	VidContrast:              "Contrast",
	VidHue:                   "Hue",
	VidSaturation:            "Saturation",
	VidSharpness:             "Sharpness",
	VidGamma:                 "Gamma",
	VidColorEnable:           "ColorEnable",
	VidWhiteBalance:          "WhiteBalance",
	VidBacklightCompensation: "BacklightCompensation",
	VidGain:                  "Gain",
}

// AllVidProperties lists every known video processing property in selector
// order.
func AllVidProperties() []VidProperty {
	props := make([]VidProperty, 0, len(vidPropertyNames))
	for p := VidBrightness; p <= VidGain; p++ {
		props = append(props, p)
	}
	return props
}

// String returns the canonical property name.
func (p VidProperty) String() string {
	if name, ok := vidPropertyNames[p]; ok {
		return name
	}
	return fmt.Sprintf("VidProperty(%d)", int(p))
}

// Known reports whether the property is part of the known catalog.
func (p VidProperty) Known() bool {
	_, ok := vidPropertyNames[p]
	return ok
}

// Selector returns the platform control surface selector id for this
// property.
func (p VidProperty) Selector() uint32 {
	return uint32(p)
}

// ParseVidProperty resolves a property name (as produced by String) back to
// its VidProperty value.
func ParseVidProperty(name string) (VidProperty, error) {
	for p, n := range vidPropertyNames {
		if n == name {
			return p, nil
		}
	}
	return 0, Errorf(InvalidArgument, "unknown video property %q", name)
}
