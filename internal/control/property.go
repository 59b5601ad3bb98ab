// SPDX-License-Identifier: GPL-3.0-only

package control

// Mode selects whether a property is driven by the device or the caller.
type Mode int

const (
	// Auto lets the device control the property value.
	Auto Mode = iota
	// Manual hands control of the property value to the application.
	Manual
)

// Control surface flag bits, shared by both property domains.
const (
	// FlagAuto marks a property as automatically controlled.
	FlagAuto uint32 = 0x0001
	// FlagManual marks a property as manually controlled.
	FlagManual uint32 = 0x0002
)

// String returns "auto" or "manual".
func (m Mode) String() string {
	if m == Auto {
		return "auto"
	}
	return "manual"
}

// Flags converts the mode to control surface flag bits.
func (m Mode) Flags() uint32 {
	if m == Auto {
		return FlagAuto
	}
	return FlagManual
}

// ModeFromFlags converts control surface flag bits to a Mode.
func ModeFromFlags(flags uint32) Mode {
	if flags&FlagAuto != 0 {
		return Auto
	}
	return Manual
}

// PropSetting represents both desired and observed property state.
type PropSetting struct {
	Value int32
	Mode  Mode
}

// PropRange describes the supported values for one property.
type PropRange struct {
	Min         int32
	Max         int32
	Step        int32
	Default     int32
	DefaultMode Mode
}

// step returns the effective step size, treating zero as one.
func (r PropRange) step() int32 {
	if r.Step <= 0 {
		return 1
	}
	return r.Step
}

// IsValid reports whether the value lies inside the range and is aligned to
// the step size.
func (r PropRange) IsValid(value int32) bool {
	return value >= r.Min && value <= r.Max && (value-r.Min)%r.step() == 0
}

// Clamp returns the nearest valid value for the range. Results are always
// within [Min, Max] and step-aligned, so IsValid(Clamp(v)) holds for any v.
func (r PropRange) Clamp(value int32) int32 {
	step := r.step()
	if value <= r.Min {
		return r.Min
	}
	// Largest step-aligned value not exceeding Max.
	high := r.Min + (r.Max-r.Min)/step*step
	if value >= high {
		return high
	}
	steps := (value - r.Min + step/2) / step
	return r.Min + steps*step
}
