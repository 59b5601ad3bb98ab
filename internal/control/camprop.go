package control

import "fmt"

// CamProperty identifies a camera control property: the physical mechanisms
// of the device (pan/tilt/zoom, exposure, focus and friends).
type CamProperty int

const (
	CamPan CamProperty = iota
	CamTilt
	CamRoll
	CamZoom
	CamExposure
	CamIris
	CamFocus
	CamScanMode
	CamPrivacy
	CamPanRelative
	CamTiltRelative
	CamRollRelative
	CamZoomRelative
	CamExposureRelative
	CamIrisRelative
	CamFocusRelative
	CamPanTilt
	CamPanTiltRelative
	CamFocusSimple
	CamDigitalZoom
	CamDigitalZoomRelative
	CamBacklightCompensation
	CamLamp
)

var camPropertyNames = map[CamProperty]string{
	CamPan:                   "Pan",
	CamTilt:                  "Tilt",
	CamRoll:                  "Roll",
	CamZoom:                  "Zoom",
	CamExposure:              "Exposure",
	CamIris:                  "Iris",
	CamFocus:                 "Focus",
	CamScanMode:              "ScanMode",
	CamPrivacy:               "Privacy",
	CamPanRelative:           "PanRelative",
	CamTiltRelative:          "TiltRelative",
	CamRollRelative:          "RollRelative",
	CamZoomRelative:          "ZoomRelative",
	CamExposureRelative:      "ExposureRelative",
	CamIrisRelative:          "IrisRelative",
	CamFocusRelative:         "FocusRelative",
	CamPanTilt:               "PanTilt",
	CamPanTiltRelative:       "PanTiltRelative",
	CamFocusSimple:           "FocusSimple",
	CamDigitalZoom:           "DigitalZoom",
	CamDigitalZoomRelative:   "DigitalZoomRelative",
	CamBacklightCompensation: "BacklightCompensation",
	CamLamp:                  "Lamp",
}

// AllCamProperties lists every known camera control property in selector
// order, for capability scans and CLI display.
func AllCamProperties() []CamProperty {
	props := make([]CamProperty, 0, len(camPropertyNames))
	for p := CamPan; p <= CamLamp; p++ {
		props = append(props, p)
	}
	return props
}

// String returns the canonical property name.
func (p CamProperty) String() string {
	if name, ok := camPropertyNames[p]; ok {
		return name
	}
	return fmt.Sprintf("CamProperty(%d)", int(p))
}

// Known reports whether the property is part of the known catalog.
func (p CamProperty) Known() bool {
	_, ok := camPropertyNames[p]
	return ok
}

// Selector returns the platform control surface selector id for this
// property. The ids follow the standard camera control ordering, so the
// enum value doubles as the selector.
func (p CamProperty) Selector() uint32 {
	return uint32(p)
}

// ParseCamProperty resolves a property name (as produced by String) back to
// its CamProperty value.
func ParseCamProperty(name string) (CamProperty, error) {
	for p, n := range camPropertyNames {
		if n == name {
			return p, nil
		}
	}
	return 0, Errorf(InvalidArgument, "unknown camera property %q", name)
}
