package features

import (
	"math"

	"NextClose/internal/domain/models"
)

// Series helpers. Undefined values are represented as NaN throughout, and every helper
// returns a slice of the same length as its input.

func undefined(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// PctChange computes r_t = (x_t - x_{t-1}) / x_{t-1}. The first value is undefined,
// as is any value whose predecessor is zero or undefined.
func PctChange(xs []float64) []float64 {
	out := undefined(len(xs))
	for i := 1; i < len(xs); i++ {
		prev := xs[i-1]
		if prev == 0 || math.IsNaN(prev) || math.IsNaN(xs[i]) {
			continue
		}
		out[i] = (xs[i] - prev) / prev
	}
	return out
}

// RollingMean computes the trailing mean over window w. A value is defined only once
// w observations are available and none of them is undefined.
func RollingMean(xs []float64, w int) []float64 {
	out := undefined(len(xs))
	if w <= 0 {
		return out
	}
	for i := w - 1; i < len(xs); i++ {
		sum := 0.0
		ok := true
		for _, x := range xs[i-w+1 : i+1] {
			if math.IsNaN(x) {
				ok = false
				break
			}
			sum += x
		}
		if ok {
			out[i] = sum / float64(w)
		}
	}
	return out
}

// RollingStd computes the trailing sample standard deviation (n-1 denominator)
// over window w. Windows smaller than 2 are never defined.
func RollingStd(xs []float64, w int) []float64 {
	out := undefined(len(xs))
	if w <= 1 {
		return out
	}
	for i := w - 1; i < len(xs); i++ {
		win := xs[i-w+1 : i+1]
		sum := 0.0
		ok := true
		for _, x := range win {
			if math.IsNaN(x) {
				ok = false
				break
			}
			sum += x
		}
		if !ok {
			continue
		}
		mean := sum / float64(w)
		ss := 0.0
		for _, x := range win {
			d := x - mean
			ss += d * d
		}
		out[i] = math.Sqrt(ss / float64(w-1))
	}
	return out
}

// CumReturn compounds returns into prod(1+r) - 1. Undefined returns stay undefined
// and do not reset the running product.
func CumReturn(returns []float64) []float64 {
	out := undefined(len(returns))
	prod := 1.0
	for i, r := range returns {
		if math.IsNaN(r) {
			continue
		}
		prod *= 1 + r
		out[i] = prod - 1
	}
	return out
}

// Shift moves values k positions forward in time (k > 0 is a lag, k < 0 a lead).
func Shift(xs []float64, k int) []float64 {
	out := undefined(len(xs))
	for i := range xs {
		j := i - k
		if j >= 0 && j < len(xs) {
			out[i] = xs[j]
		}
	}
	return out
}

// Compare classifies cur against prev. An undefined side always yields equal.
func Compare(cur, prev float64) models.Direction {
	switch {
	case cur > prev:
		return models.DirectionAbove
	case cur < prev:
		return models.DirectionBelow
	default:
		return models.DirectionEqual
	}
}

// Directions classifies every value of xs against its predecessor.
func Directions(xs []float64) []models.Direction {
	prev := Shift(xs, 1)
	out := make([]models.Direction, len(xs))
	for i := range xs {
		out[i] = Compare(xs[i], prev[i])
	}
	return out
}
