package tempunit

import (
	"math"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	for _, f := range []float64{-40, 0, 32, 68, 74, 98.6, 212} {
		got := FToC(CToF(f))
		if math.Abs(got-f) > 1e-9 {
			t.Fatalf("FToC(CToF(%v)) = %v, want %v", f, got, f)
		}
	}
}

func TestValidateNumericNil(t *testing.T) {
	v, err := ValidateNumeric(nil, "setpoint")
	if err != nil {
		t.Fatalf("nil should pass through without error, got %v", err)
	}
	if v != 0 {
		t.Fatalf("expected zero value for nil input, got %v", v)
	}
}

func TestValidateNumericRejectsString(t *testing.T) {
	_, err := ValidateNumeric("72", "setpoint")
	if err == nil {
		t.Fatal("expected error for non-numeric input")
	}
	ve, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if ve.Param != "setpoint" {
		t.Fatalf("expected param name carried in error, got %q", ve.Param)
	}
}

func TestTempWithUnits(t *testing.T) {
	s, err := TempWithUnits(70.0, Fahrenheit, 1)
	if err != nil {
		t.Fatal(err)
	}
	if s != "70.0°F" {
		t.Fatalf("got %q", s)
	}
	if _, err := TempWithUnits(70.0, "X", 1); err == nil {
		t.Fatal("expected error for unknown unit")
	}
}

func TestHumidityWithUnits(t *testing.T) {
	s, err := HumidityWithUnits(45, HumidityUnit, 0)
	if err != nil {
		t.Fatal(err)
	}
	if s != "45%RH" {
		t.Fatalf("got %q", s)
	}
	if _, err := HumidityWithUnits(45, "bogus", 0); err == nil {
		t.Fatal("expected error for unknown unit")
	}
}
