package mqttzone

import (
	"testing"

	"github.com/cjkrolak/thermostat-supervisor/internal/driver"
	"github.com/cjkrolak/thermostat-supervisor/internal/thermmode"
)

func TestDisplayTempBeforeAnyReadingIsTransient(t *testing.T) {
	z := &Zone{name: "0"}
	if _, err := z.DisplayTemp(); err == nil {
		t.Fatal("expected an error before any reading has arrived")
	} else if kind, ok := driver.KindOf(err); !ok || kind != driver.Transient {
		t.Errorf("got kind %v, want Transient", kind)
	}
}

func TestOnMessageUpdatesDisplayReadings(t *testing.T) {
	z := &Zone{name: "0"}
	z.onMessage(nil, fakeMessage(`{"sensor_id":"s1","temp_c":20,"humidity":45}`))

	gotTemp, err := z.DisplayTemp()
	if err != nil {
		t.Fatalf("DisplayTemp: %v", err)
	}
	if gotTemp != 68 {
		t.Errorf("got %v, want 68 (20C converted to F)", gotTemp)
	}

	gotHumidity, ok, err := z.DisplayHumidity()
	if err != nil || !ok {
		t.Fatalf("DisplayHumidity: %v, ok=%v", err, ok)
	}
	if gotHumidity != 45 {
		t.Errorf("got %v, want 45", gotHumidity)
	}
}

func TestSystemModeReportsOff(t *testing.T) {
	z := &Zone{name: "0"}
	mode, err := z.SystemMode()
	if err != nil {
		t.Fatalf("SystemMode: %v", err)
	}
	if mode != thermmode.Off {
		t.Errorf("got %v, want Off", mode)
	}
}

func TestWriteCapabilitiesAreNotSupported(t *testing.T) {
	z := &Zone{name: "0"}
	if err := z.SetHeatSetpoint(nil, 70); err == nil {
		t.Error("expected NotSupported")
	}
	if kind, ok := driver.KindOf(z.SetCoolSetpoint(nil, 70)); !ok || kind != driver.NotSupported {
		t.Errorf("got kind %v", kind)
	}
}

func TestMalformedPayloadIsIgnored(t *testing.T) {
	z := &Zone{name: "0"}
	z.onMessage(nil, fakeMessage(`not json`))
	if _, err := z.DisplayTemp(); err == nil {
		t.Error("a malformed payload should not be treated as a valid reading")
	}
}

// fakeMessage implements the minimal mqtt.Message surface onMessage reads.
type fakeMessage []byte

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 0 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return "" }
func (m fakeMessage) MessageID() uint16 { return 0 }
func (m fakeMessage) Payload() []byte   { return m }
func (m fakeMessage) Ack()              {}
