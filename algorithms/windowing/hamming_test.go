package windowing

import (
	"math"
	"testing"

	"github.com/mjibson/go-dsp/window"
)

func TestSymmetricHammingMatchesGoDSP(t *testing.T) {
	for _, n := range []int{2, 7, 64, 2048} {
		got := NewHamming(n, true).GetCoefficients()
		want := window.Hamming(n)

		if len(got) != len(want) {
			t.Fatalf("n=%d: len=%d, want %d", n, len(got), len(want))
		}
		for i := range got {
			if math.Abs(got[i]-want[i]) > 1e-12 {
				t.Fatalf("n=%d: coeff[%d]=%v, want %v", n, i, got[i], want[i])
			}
		}
	}
}

func TestSymmetricHammingShape(t *testing.T) {
	h := NewHamming(9, true)

	if math.Abs(h.Coefficient(0)-0.08) > 1e-12 || math.Abs(h.Coefficient(8)-0.08) > 1e-12 {
		t.Fatalf("edges=%v,%v want 0.08", h.Coefficient(0), h.Coefficient(8))
	}
	if math.Abs(h.Coefficient(4)-1) > 1e-12 {
		t.Fatalf("center=%v, want 1", h.Coefficient(4))
	}
	for i := range 4 {
		if math.Abs(h.Coefficient(i)-h.Coefficient(8-i)) > 1e-12 {
			t.Fatalf("not symmetric at %d", i)
		}
	}
}

func TestPeriodicDiffersFromSymmetric(t *testing.T) {
	a := NewHamming(16, true).GetCoefficients()
	b := NewHamming(16, false).GetCoefficients()

	same := true
	for i := range a {
		if a[i] != b[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("periodic and symmetric windows should differ")
	}
}

func TestSymmetricHammingCached(t *testing.T) {
	a := SymmetricHamming(32)
	b := SymmetricHamming(32)
	if a != b {
		t.Fatal("expected cached window instance")
	}
	if !a.IsSymmetric() || a.GetSize() != 32 {
		t.Fatalf("unexpected window: symmetric=%v size=%d", a.IsSymmetric(), a.GetSize())
	}
}

func TestZeroSizeWindow(t *testing.T) {
	h := NewHamming(0, true)
	if h.GetSize() != 0 || len(h.GetCoefficients()) != 0 {
		t.Fatalf("zero-size window has %d coefficients", len(h.GetCoefficients()))
	}
}

func TestSingleSampleHamming(t *testing.T) {
	for _, symmetric := range []bool{true, false} {
		if c := NewHamming(1, symmetric).GetCoefficients(); len(c) != 1 || c[0] != 1 {
			t.Fatalf("symmetric=%v: coefficients=%v, want [1]", symmetric, c)
		}
	}
}
