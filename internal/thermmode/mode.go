// Package thermmode defines the closed set of thermostat operating modes
// and the groupings the policy engine and supervisor loop key off of.
package thermmode

// Mode is one of the closed set of thermostat operating modes.
type Mode string

const (
	Off     Mode = "off"
	Heat    Mode = "heat"
	Cool    Mode = "cool"
	Auto    Mode = "auto"
	Dry     Mode = "dry"
	Fan     Mode = "fan"
	Unknown Mode = "unknown"
)

// heatModes is the set of modes in which the heat setpoint is active.
var heatModes = map[Mode]bool{Heat: true, Auto: true}

// coolModes is the set of modes in which the cool setpoint is active.
var coolModes = map[Mode]bool{Cool: true, Dry: true, Auto: true}

// controlledModes is the set of modes in which a setpoint exists at all.
// Dry is included: it runs off the cool setpoint and is just as
// revertible as Cool itself.
var controlledModes = map[Mode]bool{Heat: true, Cool: true, Auto: true, Dry: true}

func (m Mode) IsHeat() bool       { return heatModes[m] }
func (m Mode) IsCool() bool       { return coolModes[m] }
func (m Mode) IsControlled() bool { return controlledModes[m] }
func (m Mode) Valid() bool {
	switch m {
	case Off, Heat, Cool, Auto, Dry, Fan, Unknown:
		return true
	default:
		return false
	}
}

// UnsafeTransition reports whether moving directly from `from` to `to`
// would cross a hot↔cold boundary that could damage HVAC equipment:
// currentMode ∈ heatModes ∧ targetMode ∈ coolModes, or the mirror.
func UnsafeTransition(from, to Mode) bool {
	return (heatModes[from] && coolModes[to]) || (coolModes[from] && heatModes[to])
}
