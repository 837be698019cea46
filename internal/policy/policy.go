// Package policy implements the mode-specific deviation rules that decide
// whether a zone's current setpoint has drifted from its schedule in a
// way worth reverting, and whether a setpoint breaches the advisory
// global comfort limits.
package policy

import (
	"context"
	"fmt"

	"github.com/cjkrolak/thermostat-supervisor/internal/driver"
	"github.com/cjkrolak/thermostat-supervisor/internal/thermmode"
)

// comparator mirrors the handful of Python `operator` functions the
// original deviation table is keyed on.
type comparator int

const (
	opGreaterThan comparator = iota
	opLessThan
	opNotEqual
)

func (c comparator) apply(a, b float64) bool {
	switch c {
	case opGreaterThan:
		return a > b
	case opLessThan:
		return a < b
	default:
		return a != b
	}
}

// Rule is the mode-specific policy row a zone evaluates against on every
// poll: which setpoint function governs reversion, which direction
// "deviated in a way that wastes energy" points, and the independent
// global comfort limit check.
type Rule struct {
	ToleranceSign       int
	DeviationOperator   comparator
	GlobalLimit         float64
	GlobalLimitOperator comparator
	Revertible          bool
}

const (
	// MaxScheduledHeatAllowed is the advisory ceiling: a scheduled heat
	// setpoint above this is worth a warning even before any deviation
	// from it occurs.
	MaxScheduledHeatAllowed = 74
	// MinScheduledCoolAllowed is the advisory floor for a scheduled cool
	// setpoint.
	MinScheduledCoolAllowed = 68
	// DefaultToleranceDegrees is the allowed override band before a
	// setpoint is considered deviated.
	DefaultToleranceDegrees = 2
)

// RuleFor returns the Rule governing mode. Only Heat, Cool and Dry have a
// rule; for every other mode (Auto, Fan, Off, Unknown) it returns
// ok=false and the mode is never deviation-checked.
//
// flagAllDeviations widens heat/cool from "only energy-wasting direction"
// (heat above schedule, cool below schedule) to "any difference at all",
// matching flag_all_deviations in the original policy table.
func RuleFor(mode thermmode.Mode, flagAllDeviations bool) (Rule, bool) {
	switch mode {
	case thermmode.Heat:
		r := Rule{ToleranceSign: 1, GlobalLimit: MaxScheduledHeatAllowed, GlobalLimitOperator: opGreaterThan, Revertible: true}
		if flagAllDeviations {
			r.DeviationOperator = opNotEqual
		} else {
			r.DeviationOperator = opGreaterThan
		}
		return r, true
	case thermmode.Cool:
		r := Rule{ToleranceSign: -1, GlobalLimit: MinScheduledCoolAllowed, GlobalLimitOperator: opLessThan, Revertible: true}
		if flagAllDeviations {
			r.DeviationOperator = opNotEqual
		} else {
			r.DeviationOperator = opLessThan
		}
		return r, true
	case thermmode.Dry:
		// Dry shares cool's setpoint and direction; its reversion always
		// targets the cool setter.
		r := Rule{ToleranceSign: -1, GlobalLimit: MinScheduledCoolAllowed, GlobalLimitOperator: opLessThan, Revertible: true}
		if flagAllDeviations {
			r.DeviationOperator = opNotEqual
		} else {
			r.DeviationOperator = opLessThan
		}
		return r, true
	default:
		return Rule{}, false
	}
}

// ToleranceDegreesFor returns the tolerance band to apply: zero once
// flagAllDeviations forces an exact-equality comparison, otherwise
// configured, with 0 falling back to DefaultToleranceDegrees.
func ToleranceDegreesFor(flagAllDeviations bool, configured int) int {
	if flagAllDeviations {
		return 0
	}
	if configured == 0 {
		return DefaultToleranceDegrees
	}
	return configured
}

// IsDeviated reports whether currentSetpoint has drifted from
// scheduleSetpoint by rule's definition of "worth reverting".
func (r Rule) IsDeviated(currentSetpoint, scheduleSetpoint float64, toleranceDegrees int) bool {
	threshold := scheduleSetpoint + float64(r.ToleranceSign)*float64(toleranceDegrees)
	return r.DeviationOperator.apply(currentSetpoint, threshold)
}

// GlobalLimitBreach reports whether setpoint is outside the mode's
// advisory comfort limit, independent of any deviation from schedule.
func (r Rule) GlobalLimitBreach(setpoint float64) bool {
	return r.GlobalLimitOperator.apply(setpoint, r.GlobalLimit)
}

// Decision is what a policy evaluation over one poll concluded.
type Decision struct {
	Mode                thermmode.Mode
	Deviated            bool
	GlobalLimitBreached bool
	RevertTo            float64
}

// Evaluate runs the full per-poll policy check for a controlled zone.
func Evaluate(mode thermmode.Mode, currentSetpoint, scheduleSetpoint float64, toleranceDegrees int, flagAllDeviations bool) (Decision, bool) {
	rule, ok := RuleFor(mode, flagAllDeviations)
	if !ok {
		return Decision{Mode: mode}, false
	}
	tol := ToleranceDegreesFor(flagAllDeviations, toleranceDegrees)
	d := Decision{
		Mode:                mode,
		Deviated:            rule.IsDeviated(currentSetpoint, scheduleSetpoint, tol),
		GlobalLimitBreached: rule.GlobalLimitBreach(scheduleSetpoint),
		RevertTo:            scheduleSetpoint,
	}
	return d, true
}

// Revert writes the schedule setpoint back to zone for mode. There is no
// independent dry setpoint in this driver model, so dry mode reverts
// through the cool setter — never the heat setter.
func Revert(ctx context.Context, zone driver.Zone, mode thermmode.Mode, setpoint float64) error {
	switch mode {
	case thermmode.Heat:
		return zone.SetHeatSetpoint(ctx, setpoint)
	case thermmode.Cool, thermmode.Dry:
		return zone.SetCoolSetpoint(ctx, setpoint)
	default:
		return driver.NotSupportedErr(fmt.Sprintf("Revert(%s)", mode))
	}
}

// SafeTargetMode resolves target against current, substituting
// thermmode.Off whenever the direct transition would cross a hot↔cold
// boundary that could damage HVAC equipment.
func SafeTargetMode(current, target thermmode.Mode) thermmode.Mode {
	if thermmode.UnsafeTransition(current, target) {
		return thermmode.Off
	}
	return target
}
