// Package mqttzone implements a read-only zone driver for thermostats
// whose sensor telemetry arrives over MQTT rather than a pollable REST
// endpoint — a temperature/humidity publisher feeding one topic per
// zone, as opposed to sht31's pull-based HTTP aggregate.
package mqttzone

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/cjkrolak/thermostat-supervisor/internal/driver"
	"github.com/cjkrolak/thermostat-supervisor/internal/registry"
	"github.com/cjkrolak/thermostat-supervisor/internal/tempunit"
	"github.com/cjkrolak/thermostat-supervisor/internal/thermmode"
)

var errNoReadingYet = errors.New("mqttzone: no reading received yet")

// Alias is the registry key for this family.
const Alias = "mqttzone"

func init() {
	registry.Register(registry.Family{
		Alias:                Alias,
		Zones:                []int{0, 1, 2, 3},
		RequiredEnvVariables: []string{"MQTTZONE_BROKER_ADDRESS", "MQTTZONE_TOPIC_"},
		New:                  newThermostat,
	})
}

// reading is the wire payload published for one zone, matching the
// sensor publisher's JSON field names.
type reading struct {
	SensorID  string    `json:"sensor_id"`
	Timestamp time.Time `json:"timestamp"`
	TempC     float64   `json:"temp_c"`
	Humidity  float64   `json:"humidity"`
}

// Thermostat subscribes to one MQTT broker and demultiplexes incoming
// readings on one zone's configured topic into its Zone instance.
type Thermostat struct {
	client mqtt.Client
	topic  string

	mu    sync.Mutex
	zones map[string]*Zone
}

// newThermostat is built once per (alias, zone) pair by registry.Build,
// so creds already carries this zone's topic under its zone-suffixed
// key (e.g. "MQTTZONE_TOPIC_0").
func newThermostat(ctx context.Context, creds map[string]string) (driver.Thermostat, error) {
	broker := creds["MQTTZONE_BROKER_ADDRESS"]
	opts := mqtt.NewClientOptions().AddBroker(broker)
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, driver.Transientf("mqttzone connect", token.Error())
	}
	topic := zoneTopic(creds)
	return &Thermostat{client: client, topic: topic, zones: make(map[string]*Zone)}, nil
}

// zoneTopic resolves the one zone-specific topic key present in creds
// (registry.VerifyRequiredCredentials has already expanded the
// "MQTTZONE_TOPIC_" template to the zone-suffixed key).
func zoneTopic(creds map[string]string) string {
	for key, val := range creds {
		if strings.HasPrefix(key, "MQTTZONE_TOPIC_") {
			return val
		}
	}
	return ""
}

// OpenZone subscribes to the zone's configured topic the first time it's
// requested, and returns the same Zone on subsequent calls.
func (t *Thermostat) OpenZone(ctx context.Context, zoneID string) (driver.Zone, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if z, ok := t.zones[zoneID]; ok {
		return z, nil
	}

	z := &Zone{name: zoneID}
	token := t.client.Subscribe(t.topic, 0, z.onMessage)
	if token.Wait() && token.Error() != nil {
		return nil, driver.Transientf("mqttzone subscribe zone "+zoneID, token.Error())
	}
	t.zones[zoneID] = z
	return z, nil
}

// Zone is a read-only view of the most recent reading published for one
// zone. Every write and mode capability is unsupported: the telemetry
// stream carries no mode or setpoint information.
type Zone struct {
	name string

	mu     sync.RWMutex
	last   reading
	gotOne bool
}

func (z *Zone) onMessage(_ mqtt.Client, msg mqtt.Message) {
	var r reading
	if err := json.Unmarshal(msg.Payload(), &r); err != nil {
		return
	}
	z.mu.Lock()
	z.last = r
	z.gotOne = true
	z.mu.Unlock()
}

func (z *Zone) ZoneName() string { return z.name }

func (z *Zone) DisplayTemp() (float64, error) {
	z.mu.RLock()
	defer z.mu.RUnlock()
	if !z.gotOne {
		return 0, driver.Transientf("DisplayTemp", errNoReadingYet)
	}
	return tempunit.CToF(z.last.TempC), nil
}

func (z *Zone) DisplayHumidity() (float64, bool, error) {
	z.mu.RLock()
	defer z.mu.RUnlock()
	if !z.gotOne {
		return 0, false, driver.Transientf("DisplayHumidity", errNoReadingYet)
	}
	return z.last.Humidity, true, nil
}

func (z *Zone) HumiditySupported() bool { return true }

// SystemMode always reports Off: push-based telemetry carries no mode
// concept, and Off reads as "observational" rather than tripping the
// unrecognized-mode protocol alert every poll would otherwise trigger.
func (z *Zone) SystemMode() (thermmode.Mode, error) {
	return thermmode.Off, nil
}
func (z *Zone) HeatSetpointRaw() (float64, error) {
	return 0, driver.NotSupportedErr("HeatSetpointRaw")
}
func (z *Zone) CoolSetpointRaw() (float64, error) {
	return 0, driver.NotSupportedErr("CoolSetpointRaw")
}
func (z *Zone) ScheduleHeatSetpoint() (float64, error) {
	return 0, driver.NotSupportedErr("ScheduleHeatSetpoint")
}
func (z *Zone) ScheduleCoolSetpoint() (float64, error) {
	return 0, driver.NotSupportedErr("ScheduleCoolSetpoint")
}
func (z *Zone) IsInVacationHold() (bool, error) {
	return false, driver.NotSupportedErr("IsInVacationHold")
}
func (z *Zone) TemporaryHoldUntilMinutes() (int, error) {
	return 0, driver.NotSupportedErr("TemporaryHoldUntilMinutes")
}
func (z *Zone) ScheduleProgramHeat() (driver.ScheduleProgram, error) {
	return nil, driver.NotSupportedErr("ScheduleProgramHeat")
}
func (z *Zone) ScheduleProgramCool() (driver.ScheduleProgram, error) {
	return nil, driver.NotSupportedErr("ScheduleProgramCool")
}
func (z *Zone) SetHeatSetpoint(ctx context.Context, temp float64) error {
	return driver.NotSupportedErr("SetHeatSetpoint")
}
func (z *Zone) SetCoolSetpoint(ctx context.Context, temp float64) error {
	return driver.NotSupportedErr("SetCoolSetpoint")
}
func (z *Zone) SetMode(ctx context.Context, m thermmode.Mode) error {
	return driver.NotSupportedErr("SetMode")
}

// RefreshZoneInfo is a no-op: readings arrive by push, not by pull.
func (z *Zone) RefreshZoneInfo(ctx context.Context, force bool) error { return nil }
