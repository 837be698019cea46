// Package driver exposes every supported thermostat family behind one
// capability-typed interface. Every capability is either implemented or
// explicitly not supported — a driver never silently defaults a missing
// capability to a zero value.
package driver

import (
	"context"

	"github.com/cjkrolak/thermostat-supervisor/internal/thermmode"
)

// SchedulePoint is one (time-of-day, setpoint) entry in a device's internal
// weekly program. ClockMinutes is minutes since local midnight.
type SchedulePoint struct {
	ClockMinutes int
	Setpoint     float64
}

// ScheduleProgram is a driver's decoding of its device-native schedule. How
// it was synthesized (e.g. walking weekday (time, setpoint) tuples from
// device memory) is entirely a driver concern; the core only ever needs
// ScheduleHeatSetpoint/ScheduleCoolSetpoint to know "now"'s value.
type ScheduleProgram []SchedulePoint

// Thermostat is the per-device handle a registry constructor returns.
// OpenZone binds it to one zone channel for the duration of a connection
// epoch.
type Thermostat interface {
	OpenZone(ctx context.Context, zoneID string) (Zone, error)
}

// Zone is one independently-controlled thermostat channel. Every method
// may return a *driver.Error; callers inspect its Kind to decide whether to
// retry, skip, or stop.
type Zone interface {
	// Reads
	DisplayTemp() (float64, error)
	DisplayHumidity() (float64, bool, error)
	HumiditySupported() bool
	SystemMode() (thermmode.Mode, error)
	HeatSetpointRaw() (float64, error)
	CoolSetpointRaw() (float64, error)
	ScheduleHeatSetpoint() (float64, error)
	ScheduleCoolSetpoint() (float64, error)
	IsInVacationHold() (bool, error)
	TemporaryHoldUntilMinutes() (int, error)
	ScheduleProgramHeat() (ScheduleProgram, error)
	ScheduleProgramCool() (ScheduleProgram, error)
	ZoneName() string

	// Writes
	SetHeatSetpoint(ctx context.Context, temp float64) error
	SetCoolSetpoint(ctx context.Context, temp float64) error
	SetMode(ctx context.Context, m thermmode.Mode) error

	// Control
	RefreshZoneInfo(ctx context.Context, force bool) error
}
