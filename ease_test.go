package cadence

import (
	"errors"
	"math"
	"testing"
)

func TestEaseEndpoints(t *testing.T) {
	for name, fn := range easeRegistry {
		t.Run(name, func(t *testing.T) {
			if v := fn(0); v != 0 {
				t.Errorf("%s(0) = %v, want 0", name, v)
			}
			if v := fn(1); v != 1 {
				t.Errorf("%s(1) = %v, want 1", name, v)
			}
		})
	}
}

func TestEaseNoneIsExact(t *testing.T) {
	for _, v := range []float64{0, 0.1, 1.0 / 3, 0.999999999, 1} {
		if EaseNone(v) != v {
			t.Errorf("EaseNone(%v) = %v", v, EaseNone(v))
		}
	}
	fn, err := LookupEase("linear")
	if err != nil {
		t.Fatal(err)
	}
	if fn(1.0/3) != 1.0/3 {
		t.Error("linear is not exact")
	}
}

func TestEaseDeterministic(t *testing.T) {
	fn, _ := LookupEase("expo.out")
	for i := range 100 {
		x := float64(i) / 100
		if fn(x) != fn(x) {
			t.Fatalf("expo.out(%v) not deterministic", x)
		}
	}
}

func TestLookupEase(t *testing.T) {
	tests := []struct {
		name string
		ok   bool
	}{
		{"", true},
		{"none", true},
		{"power2.inOut", true},
		{"expo", true}, // bare family resolves to .out
		{"bounce", true},
		{"power9.out", false},
		{"wobble", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn, err := LookupEase(tt.name)
			if tt.ok {
				if err != nil || fn == nil {
					t.Errorf("LookupEase(%q) = %v", tt.name, err)
				}
				return
			}
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("err = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestLookupEaseBareFamily(t *testing.T) {
	bare, _ := LookupEase("expo")
	out, _ := LookupEase("expo.out")
	if bare(0.3) != out(0.3) {
		t.Errorf("expo(0.3) = %v, expo.out(0.3) = %v", bare(0.3), out(0.3))
	}
}

func TestEaseOutShape(t *testing.T) {
	fn, _ := LookupEase("power2.out")
	// An out curve front-loads progress.
	if v := fn(0.5); v <= 0.5 {
		t.Errorf("power2.out(0.5) = %v, want > 0.5", v)
	}
	in, _ := LookupEase("power2.in")
	if v := in(0.5); v >= 0.5 {
		t.Errorf("power2.in(0.5) = %v, want < 0.5", v)
	}
	// cubic out at 0.5 is 1 - 0.5^3
	if v := fn(0.5); math.Abs(v-0.875) > 1e-6 {
		t.Errorf("power2.out(0.5) = %v, want 0.875", v)
	}
}

func TestRegisterEase(t *testing.T) {
	RegisterEase("test.step", func(t float64) float64 {
		if t < 0.5 {
			return 0
		}
		return 1
	})
	defer delete(easeRegistry, "test.step")

	fn, err := LookupEase("test.step")
	if err != nil {
		t.Fatal(err)
	}
	if fn(0.4) != 0 || fn(0.6) != 1 {
		t.Error("custom ease not used")
	}
}

func TestRegisterEaseNilPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	RegisterEase("nil", nil)
}
