package sht31

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cjkrolak/thermostat-supervisor/internal/thermmode"
)

func TestOpenZoneMissingCredential(t *testing.T) {
	th := NewThermostat(map[string]string{})
	if _, err := th.OpenZone(context.Background(), "9"); err == nil {
		t.Errorf("expected AuthError for missing credential")
	}
}

func TestRefreshZoneInfoAndRead(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"measurements":      10,
			"Temp(F) mean":      71.5,
			"Temp(F) std":       0.2,
			"Humidity(%RH) mean": 44.0,
			"Humidity(%RH) std":  0.1,
		})
	}))
	defer srv.Close()

	host := strings.TrimPrefix(srv.URL, "http://")
	ip := strings.Split(host, ":")[0]

	th := NewThermostat(map[string]string{"SHT31_REMOTE_IP_ADDRESS_0": ip})
	zone, err := th.OpenZone(context.Background(), "0")
	if err != nil {
		t.Fatalf("OpenZone: %v", err)
	}
	z := zone.(*Zone)
	z.url = srv.URL

	if err := z.RefreshZoneInfo(context.Background(), true); err != nil {
		t.Fatalf("RefreshZoneInfo: %v", err)
	}
	temp, err := z.DisplayTemp()
	if err != nil || temp != 71.5 {
		t.Errorf("DisplayTemp() = %v, %v, want 71.5, nil", temp, err)
	}
	hum, ok, err := z.DisplayHumidity()
	if err != nil || !ok || hum != 44.0 {
		t.Errorf("DisplayHumidity() = %v, %v, %v", hum, ok, err)
	}
}

func TestWritesNotSupported(t *testing.T) {
	z := &Zone{name: "x"}
	if err := z.SetHeatSetpoint(context.Background(), 70); err == nil {
		t.Errorf("expected NotSupported")
	}
}

func TestSystemModeReportsOff(t *testing.T) {
	z := &Zone{name: "x"}
	mode, err := z.SystemMode()
	if err != nil {
		t.Fatalf("SystemMode: %v", err)
	}
	if mode != thermmode.Off {
		t.Errorf("got %v, want Off", mode)
	}
}
