package features

import (
	"math"
	"testing"

	"NextClose/internal/domain/models"
)

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestPctChange(t *testing.T) {
	got := PctChange([]float64{10, 12, 12, 9, 0, 5})
	if !math.IsNaN(got[0]) {
		t.Fatalf("first return must be undefined, got %v", got[0])
	}
	want := []float64{0.2, 0, -0.25, -1}
	for i, w := range want {
		if !almostEqual(got[i+1], w) {
			t.Fatalf("return[%d]=%v want %v", i+1, got[i+1], w)
		}
	}
	if !math.IsNaN(got[5]) {
		t.Fatalf("return after zero close must be undefined, got %v", got[5])
	}
}

func TestRollingMeanWindowFill(t *testing.T) {
	got := RollingMean([]float64{1, 2, 3, 4, 5, 6}, 3)
	for i := 0; i < 2; i++ {
		if !math.IsNaN(got[i]) {
			t.Fatalf("mean[%d] should be undefined, got %v", i, got[i])
		}
	}
	want := []float64{2, 3, 4, 5}
	for i, w := range want {
		if !almostEqual(got[i+2], w) {
			t.Fatalf("mean[%d]=%v want %v", i+2, got[i+2], w)
		}
	}
}

func TestRollingMeanUndefinedInWindow(t *testing.T) {
	got := RollingMean([]float64{math.NaN(), 2, 3, 4}, 2)
	if !math.IsNaN(got[1]) {
		t.Fatalf("window containing undefined value must be undefined, got %v", got[1])
	}
	if !almostEqual(got[2], 2.5) {
		t.Fatalf("mean[2]=%v want 2.5", got[2])
	}
}

func TestRollingStdSample(t *testing.T) {
	got := RollingStd([]float64{2, 4, 4, 4, 5, 5, 7, 9}, 8)
	// sample std of the classic example is sqrt(32/7)
	if !almostEqual(got[7], math.Sqrt(32.0/7.0)) {
		t.Fatalf("std=%v want %v", got[7], math.Sqrt(32.0/7.0))
	}
	if !math.IsNaN(RollingStd([]float64{1, 2}, 1)[1]) {
		t.Fatalf("window of 1 must be undefined")
	}
}

func TestCumReturnCompounds(t *testing.T) {
	got := CumReturn([]float64{math.NaN(), 0.1, -0.1, 0.5})
	if !math.IsNaN(got[0]) {
		t.Fatalf("cum[0] should be undefined")
	}
	want := []float64{0.1, 1.1*0.9 - 1, 1.1*0.9*1.5 - 1}
	for i, w := range want {
		if !almostEqual(got[i+1], w) {
			t.Fatalf("cum[%d]=%v want %v", i+1, got[i+1], w)
		}
	}
}

func TestShiftLagAndLead(t *testing.T) {
	xs := []float64{1, 2, 3}
	lag := Shift(xs, 1)
	lead := Shift(xs, -1)
	if !math.IsNaN(lag[0]) || lag[1] != 1 || lag[2] != 2 {
		t.Fatalf("unexpected lag %v", lag)
	}
	if lead[0] != 2 || lead[1] != 3 || !math.IsNaN(lead[2]) {
		t.Fatalf("unexpected lead %v", lead)
	}
}

func TestDirections(t *testing.T) {
	got := Directions([]float64{10, 12, 12, 9})
	if got[0] != models.DirectionEqual {
		t.Fatalf("undefined previous must map to equal, got %s", got[0])
	}
	want := []models.Direction{models.DirectionAbove, models.DirectionEqual, models.DirectionBelow}
	for i, w := range want {
		if got[i+1] != w {
			t.Fatalf("direction[%d]=%s want %s", i+1, got[i+1], w)
		}
	}
}

func TestConstantSeriesStatistics(t *testing.T) {
	const p = 42.5
	xs := make([]float64, 30)
	for i := range xs {
		xs[i] = p
	}
	ret := PctChange(xs)
	cum := CumReturn(ret)
	ma5 := RollingMean(xs, ShortWindow)
	ma20 := RollingMean(xs, LongWindow)
	sd5 := RollingStd(xs, ShortWindow)
	for i := 1; i < len(xs); i++ {
		if ret[i] != 0 {
			t.Fatalf("return[%d]=%v want 0", i, ret[i])
		}
		if cum[i] != 0 {
			t.Fatalf("cum[%d]=%v want 0", i, cum[i])
		}
	}
	for i := range xs {
		if !math.IsNaN(ma5[i]) && ma5[i] != p {
			t.Fatalf("ma5[%d]=%v want %v", i, ma5[i], p)
		}
		if !math.IsNaN(ma20[i]) && ma20[i] != p {
			t.Fatalf("ma20[%d]=%v want %v", i, ma20[i], p)
		}
		if !math.IsNaN(sd5[i]) && sd5[i] != 0 {
			t.Fatalf("std5[%d]=%v want 0", i, sd5[i])
		}
	}
}
