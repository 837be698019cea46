package thermmode

import "testing"

func TestUnsafeTransition(t *testing.T) {
	cases := []struct {
		from, to Mode
		want     bool
	}{
		{Heat, Cool, true},
		{Cool, Heat, true},
		{Dry, Heat, true},
		{Off, Cool, false},
		{Heat, Off, false},
		{Heat, Heat, false},
		{Auto, Off, false},
	}
	for _, c := range cases {
		if got := UnsafeTransition(c.from, c.to); got != c.want {
			t.Errorf("UnsafeTransition(%s,%s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestControlledModes(t *testing.T) {
	for _, m := range []Mode{Heat, Cool, Auto, Dry} {
		if !m.IsControlled() {
			t.Errorf("%s should be controlled", m)
		}
	}
	for _, m := range []Mode{Off, Fan, Unknown} {
		if m.IsControlled() {
			t.Errorf("%s should not be controlled", m)
		}
	}
}
