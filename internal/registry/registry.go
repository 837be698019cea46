// Package registry maps a thermostat family alias to its driver
// constructor and to the metadata (supported zones, supported modes,
// required credential keys) the supervisor needs before it ever opens a
// connection.
package registry

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/cjkrolak/thermostat-supervisor/internal/driver"
	"github.com/cjkrolak/thermostat-supervisor/internal/thermmode"
)

// Constructor builds a driver.Thermostat for one family from a
// credentials map (already zone-resolved by VerifyRequiredCredentials).
type Constructor func(ctx context.Context, creds map[string]string) (driver.Thermostat, error)

// Family describes one supported thermostat alias: how to build it, which
// zone numbers it supports, and which environment variable keys it needs
// before a connection is attempted.
type Family struct {
	Alias               string
	Zones               []int
	RequiredEnvVariables []string
	New                 Constructor

	// SupportedModes restricts which thermmode.Mode values this family's
	// zones can report or be commanded into. Nil means no restriction
	// beyond thermmode.Mode's own validity.
	SupportedModes []thermmode.Mode

	// SystemSwitchPositions maps a device-native mode value (an integer
	// code rendered as a string, or a vendor string) to the Mode it
	// represents, for drivers whose wire format isn't the Mode enum
	// itself. Multiple vendor codes may map to the same Mode; lookup is
	// first-match on set membership via ModeForVendorCode.
	SystemSwitchPositions map[thermmode.Mode][]string
}

// ModeForVendorCode looks up which Mode owns vendorCode in f's
// SystemSwitchPositions table. The search order over modes is
// unspecified beyond "first match wins", so a vendor code must never be
// declared under more than one Mode.
func (f Family) ModeForVendorCode(vendorCode string) (thermmode.Mode, bool) {
	for mode, codes := range f.SystemSwitchPositions {
		for _, c := range codes {
			if c == vendorCode {
				return mode, true
			}
		}
	}
	return "", false
}

// VendorCodesForMode returns the device-native codes f declares for mode.
func (f Family) VendorCodesForMode(mode thermmode.Mode) []string {
	return f.SystemSwitchPositions[mode]
}

// ModeSupported reports whether mode is in f's declared SupportedModes.
// A family with no SupportedModes declared is treated as supporting
// every valid Mode.
func (f Family) ModeSupported(mode thermmode.Mode) bool {
	if len(f.SupportedModes) == 0 {
		return mode.Valid()
	}
	for _, m := range f.SupportedModes {
		if m == mode {
			return true
		}
	}
	return false
}

var families = map[string]Family{}

// Register adds a family to the registry. Intended to be called from each
// driver package's init(), mirroring the way the original project's
// thermostat_api module aggregates one config module per family.
func Register(f Family) {
	if f.Alias == "" {
		panic("registry: family registered with empty alias")
	}
	families[f.Alias] = f
}

// ErrUnknownThermostat is returned by Lookup for an alias nothing
// registered.
type ErrUnknownThermostat struct{ Alias string }

func (e *ErrUnknownThermostat) Error() string {
	return fmt.Sprintf("registry: unknown thermostat type %q", e.Alias)
}

// Lookup returns the Family registered under alias.
func Lookup(alias string) (Family, error) {
	f, ok := families[alias]
	if !ok {
		return Family{}, &ErrUnknownThermostat{Alias: alias}
	}
	return f, nil
}

// SupportedThermostats lists every registered alias, sorted for
// deterministic CLI help output.
func SupportedThermostats() []string {
	out := make([]string, 0, len(families))
	for alias := range families {
		out = append(out, alias)
	}
	sort.Strings(out)
	return out
}

// SupportedZones returns the zone numbers alias supports.
func SupportedZones(alias string) ([]int, error) {
	f, err := Lookup(alias)
	if err != nil {
		return nil, err
	}
	return f.Zones, nil
}

// ZoneSupported reports whether zone is a member of alias's supported
// zone list.
func ZoneSupported(alias string, zone int) bool {
	f, err := Lookup(alias)
	if err != nil {
		return false
	}
	for _, z := range f.Zones {
		if z == zone {
			return true
		}
	}
	return false
}

// ErrMissingCredential reports one absent required environment variable.
type ErrMissingCredential struct {
	Alias string
	Zone  string
	Key   string
}

func (e *ErrMissingCredential) Error() string {
	return fmt.Sprintf("registry: %s: zone %s: required environment key %q is not set",
		e.Alias, e.Zone, e.Key)
}

// VerifyRequiredCredentials checks every required environment variable key
// for alias is present, and returns the resolved key/value map for
// building a Constructor's creds argument.
//
// Any key ending in "_" has the zone identifier appended before lookup —
// this lets one family declare a single credential template
// ("KUMOCLOUD_IPADDRESS_") that expands per zone ("KUMOCLOUD_IPADDRESS_0",
// "KUMOCLOUD_IPADDRESS_1", ...).
func VerifyRequiredCredentials(alias string, zone string) (map[string]string, error) {
	f, err := Lookup(alias)
	if err != nil {
		return nil, err
	}
	creds := make(map[string]string, len(f.RequiredEnvVariables))
	for _, key := range f.RequiredEnvVariables {
		resolvedKey := key
		if strings.HasSuffix(key, "_") {
			resolvedKey = key + zone
		}
		val, present := os.LookupEnv(resolvedKey)
		if !present || val == "" {
			return nil, &ErrMissingCredential{Alias: alias, Zone: zone, Key: resolvedKey}
		}
		creds[resolvedKey] = val
	}
	return creds, nil
}

// Build resolves credentials for alias/zone and invokes its Constructor.
func Build(ctx context.Context, alias string, zone string) (driver.Thermostat, error) {
	f, err := Lookup(alias)
	if err != nil {
		return nil, err
	}
	creds, err := VerifyRequiredCredentials(alias, zone)
	if err != nil {
		return nil, err
	}
	return f.New(ctx, creds)
}

// ParseZone converts a CLI/env zone identifier into the int form used by
// SupportedZones/ZoneSupported. Non-numeric zone identifiers (e.g. a
// sensor hostname) are left to the individual driver to interpret and
// ParseZone returns ok=false.
func ParseZone(zone string) (int, bool) {
	n, err := strconv.Atoi(zone)
	if err != nil {
		return 0, false
	}
	return n, true
}
