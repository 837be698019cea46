// Package emulator implements an in-process fake Thermostat/Zone so the
// supervisor, policy engine, and orchestrator can be exercised end to end
// without any network dependency. Readings are perturbed with uniform
// noise so deviation and alerting logic sees realistic drift rather than
// perfectly static values.
package emulator

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/cjkrolak/thermostat-supervisor/internal/driver"
	"github.com/cjkrolak/thermostat-supervisor/internal/registry"
	"github.com/cjkrolak/thermostat-supervisor/internal/thermmode"
)

// Alias is the registry key for this driver family.
const Alias = "emulator"

const (
	startingTemp             = 72.0
	startingHumidity         = 45.0
	normalTempVariation      = 2.0
	normalHumidityVariation  = 1.5
	maxHeatSetpointAllowed   = 90.0
	minCoolSetpointAllowed   = 50.0
)

func init() {
	registry.Register(registry.Family{
		Alias:                Alias,
		Zones:                []int{0, 1, 2, 3},
		RequiredEnvVariables: nil,
		New: func(ctx context.Context, creds map[string]string) (driver.Thermostat, error) {
			return NewThermostat(), nil
		},
	})
}

// Thermostat is the emulator's device handle; it hands out one *Zone per
// zone ID, creating it lazily on first OpenZone.
type Thermostat struct {
	mu    sync.Mutex
	zones map[string]*Zone
}

// NewThermostat returns an emulator device with no zones opened yet.
func NewThermostat() *Thermostat {
	return &Thermostat{zones: make(map[string]*Zone)}
}

// OpenZone returns the Zone for zoneID, constructing it with defaults the
// first time it's requested.
func (t *Thermostat) OpenZone(ctx context.Context, zoneID string) (driver.Zone, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if z, ok := t.zones[zoneID]; ok {
		return z, nil
	}
	z := &Zone{
		name:              "zone " + zoneID,
		mode:              thermmode.Off,
		heatSetpoint:      startingTemp,
		coolSetpoint:      startingTemp,
		scheduleHeat:      startingTemp,
		scheduleCool:      startingTemp,
		displayTemp:       startingTemp,
		displayHumidity:   startingHumidity,
		humiditySupported: true,
	}
	t.zones[zoneID] = z
	return z, nil
}

// Zone is a software thermostat channel: every setpoint and mode is held
// in memory and read back exactly as set, while the display temperature
// and humidity are perturbed with noise on read, the way a bench test
// rig would emulate sensor drift without real hardware.
type Zone struct {
	mu sync.Mutex

	name string
	mode thermmode.Mode

	heatSetpoint float64
	coolSetpoint float64
	scheduleHeat float64
	scheduleCool float64

	displayTemp       float64
	displayHumidity   float64
	humiditySupported bool

	vacationHold       bool
	temporaryHoldUntil int
}

func (z *Zone) ZoneName() string { return z.name }

// SetSchedule lets a test fix "what the schedule says" independent of
// "what's currently set", so deviation scenarios can be constructed
// deterministically.
func (z *Zone) SetSchedule(heat, cool float64) {
	z.mu.Lock()
	defer z.mu.Unlock()
	z.scheduleHeat = heat
	z.scheduleCool = cool
}

// SetVacationHold forces the vacation-hold flag for test setup.
func (z *Zone) SetVacationHold(v bool) {
	z.mu.Lock()
	defer z.mu.Unlock()
	z.vacationHold = v
}

// SetTemporaryHoldUntilMinutes forces the temporary-hold-expiry field for
// test setup; 0 means no active temporary hold.
func (z *Zone) SetTemporaryHoldUntilMinutes(minutes int) {
	z.mu.Lock()
	defer z.mu.Unlock()
	z.temporaryHoldUntil = minutes
}

func (z *Zone) DisplayTemp() (float64, error) {
	z.mu.Lock()
	defer z.mu.Unlock()
	noise := (rand.Float64()*2 - 1) * normalTempVariation
	return z.displayTemp + noise, nil
}

func (z *Zone) DisplayHumidity() (float64, bool, error) {
	z.mu.Lock()
	defer z.mu.Unlock()
	if !z.humiditySupported {
		return 0, false, nil
	}
	noise := (rand.Float64()*2 - 1) * normalHumidityVariation
	return z.displayHumidity + noise, true, nil
}

func (z *Zone) HumiditySupported() bool {
	z.mu.Lock()
	defer z.mu.Unlock()
	return z.humiditySupported
}

func (z *Zone) SystemMode() (thermmode.Mode, error) {
	z.mu.Lock()
	defer z.mu.Unlock()
	return z.mode, nil
}

func (z *Zone) HeatSetpointRaw() (float64, error) {
	z.mu.Lock()
	defer z.mu.Unlock()
	return z.heatSetpoint, nil
}

func (z *Zone) CoolSetpointRaw() (float64, error) {
	z.mu.Lock()
	defer z.mu.Unlock()
	return z.coolSetpoint, nil
}

func (z *Zone) ScheduleHeatSetpoint() (float64, error) {
	z.mu.Lock()
	defer z.mu.Unlock()
	return z.scheduleHeat, nil
}

func (z *Zone) ScheduleCoolSetpoint() (float64, error) {
	z.mu.Lock()
	defer z.mu.Unlock()
	return z.scheduleCool, nil
}

func (z *Zone) IsInVacationHold() (bool, error) {
	z.mu.Lock()
	defer z.mu.Unlock()
	return z.vacationHold, nil
}

func (z *Zone) TemporaryHoldUntilMinutes() (int, error) {
	z.mu.Lock()
	defer z.mu.Unlock()
	return z.temporaryHoldUntil, nil
}

// ScheduleProgramHeat/ScheduleProgramCool are not meaningful for the
// emulator: it has no device-native weekly program to decode, only the
// single "today's schedule" values SetSchedule installs.
func (z *Zone) ScheduleProgramHeat() (driver.ScheduleProgram, error) {
	return nil, driver.NotSupportedErr("ScheduleProgramHeat")
}

func (z *Zone) ScheduleProgramCool() (driver.ScheduleProgram, error) {
	return nil, driver.NotSupportedErr("ScheduleProgramCool")
}

func (z *Zone) SetHeatSetpoint(ctx context.Context, temp float64) error {
	if temp > maxHeatSetpointAllowed {
		return driver.Transientf("SetHeatSetpoint", fmt.Errorf("%.1f exceeds max allowed %.1f", temp, maxHeatSetpointAllowed))
	}
	z.mu.Lock()
	defer z.mu.Unlock()
	z.heatSetpoint = temp
	return nil
}

func (z *Zone) SetCoolSetpoint(ctx context.Context, temp float64) error {
	if temp < minCoolSetpointAllowed {
		return driver.Transientf("SetCoolSetpoint", fmt.Errorf("%.1f below min allowed %.1f", temp, minCoolSetpointAllowed))
	}
	z.mu.Lock()
	defer z.mu.Unlock()
	z.coolSetpoint = temp
	return nil
}

func (z *Zone) SetMode(ctx context.Context, m thermmode.Mode) error {
	if !m.Valid() {
		return driver.Transientf("SetMode", fmt.Errorf("unrecognized mode %q", m))
	}
	z.mu.Lock()
	defer z.mu.Unlock()
	z.mode = m
	return nil
}

func (z *Zone) RefreshZoneInfo(ctx context.Context, force bool) error {
	// Nothing cached remotely to refresh; present for interface parity
	// with network-backed drivers.
	return nil
}
