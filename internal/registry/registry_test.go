package registry

import (
	"context"
	"os"
	"testing"

	"github.com/cjkrolak/thermostat-supervisor/internal/driver"
	"github.com/cjkrolak/thermostat-supervisor/internal/thermmode"
)

type fakeThermostat struct{}

func (fakeThermostat) OpenZone(ctx context.Context, zoneID string) (driver.Zone, error) {
	return nil, nil
}

func TestRegisterAndLookup(t *testing.T) {
	Register(Family{
		Alias: "_test_family",
		Zones: []int{0, 1},
		New: func(ctx context.Context, creds map[string]string) (driver.Thermostat, error) {
			return fakeThermostat{}, nil
		},
	})

	f, err := Lookup("_test_family")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if !ZoneSupported(f.Alias, 1) {
		t.Errorf("zone 1 should be supported")
	}
	if ZoneSupported(f.Alias, 9) {
		t.Errorf("zone 9 should not be supported")
	}
}

func TestLookupUnknown(t *testing.T) {
	if _, err := Lookup("_does_not_exist"); err == nil {
		t.Errorf("expected ErrUnknownThermostat")
	}
}

func TestVerifyRequiredCredentialsZoneSuffix(t *testing.T) {
	Register(Family{
		Alias:                "_test_creds",
		Zones:                []int{0},
		RequiredEnvVariables: []string{"_TEST_CREDS_IPADDRESS_"},
		New: func(ctx context.Context, creds map[string]string) (driver.Thermostat, error) {
			return fakeThermostat{}, nil
		},
	})

	if _, err := VerifyRequiredCredentials("_test_creds", "0"); err == nil {
		t.Fatalf("expected missing credential error")
	}

	os.Setenv("_TEST_CREDS_IPADDRESS_0", "10.0.0.5")
	defer os.Unsetenv("_TEST_CREDS_IPADDRESS_0")

	creds, err := VerifyRequiredCredentials("_test_creds", "0")
	if err != nil {
		t.Fatalf("VerifyRequiredCredentials: %v", err)
	}
	if creds["_TEST_CREDS_IPADDRESS_0"] != "10.0.0.5" {
		t.Errorf("got %v", creds)
	}
}

func TestVendorCodeMappingFirstMatchOnSetMembership(t *testing.T) {
	f := Family{
		Alias: "_test_vendor_codes",
		SystemSwitchPositions: map[thermmode.Mode][]string{
			thermmode.Heat: {"1", "heat"},
			thermmode.Cool: {"2", "cool"},
			thermmode.Off:  {"0"},
		},
	}

	mode, ok := f.ModeForVendorCode("heat")
	if !ok || mode != thermmode.Heat {
		t.Errorf("got (%v, %v), want (heat, true)", mode, ok)
	}
	if _, ok := f.ModeForVendorCode("99"); ok {
		t.Errorf("unknown vendor code should not resolve")
	}
	codes := f.VendorCodesForMode(thermmode.Cool)
	if len(codes) != 2 {
		t.Errorf("got %v", codes)
	}
}

func TestModeSupportedRespectsDeclaredList(t *testing.T) {
	f := Family{Alias: "_test_modes", SupportedModes: []thermmode.Mode{thermmode.Heat, thermmode.Off}}
	if !f.ModeSupported(thermmode.Heat) {
		t.Errorf("heat should be supported")
	}
	if f.ModeSupported(thermmode.Cool) {
		t.Errorf("cool should not be supported for this family")
	}

	unrestricted := Family{Alias: "_test_modes_unrestricted"}
	if !unrestricted.ModeSupported(thermmode.Cool) {
		t.Errorf("a family with no declared SupportedModes should allow any valid mode")
	}
}
