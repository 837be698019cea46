// Package sht31 implements a read-only driver for the local aggregate
// sensor HTTP service: it fetches a small JSON document of temperature
// and humidity statistics and exposes it through the same Zone contract
// every other family implements. The service's own CRC validation of the
// underlying I2C reading is out of scope here — this driver validates
// only that the JSON payload has the shape it expects.
package sht31

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/cjkrolak/thermostat-supervisor/internal/driver"
	"github.com/cjkrolak/thermostat-supervisor/internal/registry"
	"github.com/cjkrolak/thermostat-supervisor/internal/thermmode"
)

// Alias is the registry key for this driver family.
const Alias = "sht31"

func init() {
	registry.Register(registry.Family{
		Alias:                Alias,
		Zones:                []int{0, 1, 2},
		RequiredEnvVariables: []string{"SHT31_REMOTE_IP_ADDRESS_"},
		New: func(ctx context.Context, creds map[string]string) (driver.Thermostat, error) {
			return NewThermostat(creds), nil
		},
	})
}

// reading is the exact shape the sensor service serves. Fields missing
// from a response are left at their zero value: fetch rejects only a
// payload whose measurements count is not positive, and DisplayHumidity
// reports ok=true for every accepted payload, so a missing temperature or
// humidity field reads as 0.
type reading struct {
	Measurements   int     `json:"measurements"`
	TempFMean      float64 `json:"Temp(F) mean"`
	TempFStd       float64 `json:"Temp(F) std"`
	HumidityRHMean float64 `json:"Humidity(%RH) mean"`
	HumidityRHStd  float64 `json:"Humidity(%RH) std"`
}

func (r reading) valid() bool {
	return r.Measurements > 0
}

// Thermostat is the sensor service's device handle: one HTTP client bound
// to zone IP addresses resolved from credentials.
type Thermostat struct {
	creds  map[string]string
	client *http.Client
}

// NewThermostat builds a sensor-service handle. creds carries the
// zone-resolved SHT31_REMOTE_IP_ADDRESS_<zone> keys VerifyRequiredCredentials
// produced.
func NewThermostat(creds map[string]string) *Thermostat {
	return &Thermostat{
		creds:  creds,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (t *Thermostat) OpenZone(ctx context.Context, zoneID string) (driver.Zone, error) {
	key := "SHT31_REMOTE_IP_ADDRESS_" + zoneID
	ip, ok := t.creds[key]
	if !ok || ip == "" {
		if env := os.Getenv(key); env != "" {
			ip = env
		} else {
			return nil, driver.AuthErrorf("OpenZone", fmt.Errorf("missing %s", key))
		}
	}
	return &Zone{
		name:   "sht31 zone " + zoneID,
		url:    fmt.Sprintf("http://%s:5000/measurements?measurements=10", ip),
		client: t.client,
	}, nil
}

// Zone reports read-only aggregate temperature/humidity statistics. It
// has no setpoints, no mode, and no schedule — every write or
// schedule-related capability answers NotSupported.
type Zone struct {
	name   string
	url    string
	client *http.Client

	last reading
}

func (z *Zone) ZoneName() string { return z.name }

func (z *Zone) fetch(ctx context.Context) (reading, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, z.url, nil)
	if err != nil {
		return reading{}, driver.Fatalf("fetch", err)
	}
	resp, err := z.client.Do(req)
	if err != nil {
		return reading{}, driver.Transientf("fetch", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return reading{}, driver.Transientf("fetch", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
	var r reading
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return reading{}, driver.Transientf("fetch", fmt.Errorf("decode payload: %w", err))
	}
	if !r.valid() {
		return reading{}, driver.Transientf("fetch", fmt.Errorf("payload missing measurements count"))
	}
	return r, nil
}

func (z *Zone) RefreshZoneInfo(ctx context.Context, force bool) error {
	r, err := z.fetch(ctx)
	if err != nil {
		return err
	}
	z.last = r
	return nil
}

func (z *Zone) DisplayTemp() (float64, error) {
	if z.last.Measurements == 0 {
		return 0, driver.Transientf("DisplayTemp", fmt.Errorf("no reading cached, call RefreshZoneInfo first"))
	}
	return z.last.TempFMean, nil
}

func (z *Zone) DisplayHumidity() (float64, bool, error) {
	if z.last.Measurements == 0 {
		return 0, false, driver.Transientf("DisplayHumidity", fmt.Errorf("no reading cached, call RefreshZoneInfo first"))
	}
	return z.last.HumidityRHMean, true, nil
}

func (z *Zone) HumiditySupported() bool { return true }

// SystemMode always reports Off: a read-only sensor has no mode concept
// of its own, and Off reads as "observational" rather than tripping the
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
