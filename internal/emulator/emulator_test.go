package emulator

import (
	"context"
	"testing"

	"github.com/cjkrolak/thermostat-supervisor/internal/thermmode"
)

func TestOpenZoneIsIdempotent(t *testing.T) {
	th := NewThermostat()
	ctx := context.Background()
	z1, err := th.OpenZone(ctx, "0")
	if err != nil {
		t.Fatalf("OpenZone: %v", err)
	}
	z2, _ := th.OpenZone(ctx, "0")
	if z1 != z2 {
		t.Errorf("expected the same zone instance to be returned")
	}
}

func TestSetAndReadSetpoints(t *testing.T) {
	th := NewThermostat()
	ctx := context.Background()
	zone, _ := th.OpenZone(ctx, "0")

	if err := zone.SetHeatSetpoint(ctx, 70); err != nil {
		t.Fatalf("SetHeatSetpoint: %v", err)
	}
	got, err := zone.HeatSetpointRaw()
	if err != nil || got != 70 {
		t.Errorf("HeatSetpointRaw() = %v, %v, want 70, nil", got, err)
	}
}

func TestSetModeRejectsUnknown(t *testing.T) {
	th := NewThermostat()
	ctx := context.Background()
	zone, _ := th.OpenZone(ctx, "0")
	if err := zone.SetMode(ctx, thermmode.Mode("bogus")); err == nil {
		t.Errorf("expected error for unrecognized mode")
	}
}

func TestScheduleSetpointsIndependentOfCurrent(t *testing.T) {
	th := NewThermostat()
	ctx := context.Background()
	zone, _ := th.OpenZone(ctx, "0")
	z := zone.(*Zone)
	z.SetSchedule(68, 76)

	heat, _ := zone.ScheduleHeatSetpoint()
	cool, _ := zone.ScheduleCoolSetpoint()
	if heat != 68 || cool != 76 {
		t.Errorf("got heat=%v cool=%v, want 68/76", heat, cool)
	}
}

func TestDisplayTempStaysWithinNoiseBand(t *testing.T) {
	th := NewThermostat()
	ctx := context.Background()
	zone, _ := th.OpenZone(ctx, "0")
	for i := 0; i < 50; i++ {
		v, err := zone.DisplayTemp()
		if err != nil {
			t.Fatalf("DisplayTemp: %v", err)
		}
		if v < startingTemp-normalTempVariation-0.01 || v > startingTemp+normalTempVariation+0.01 {
			t.Errorf("DisplayTemp() = %v out of expected noise band", v)
		}
	}
}
