package common

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// 16-bit PCM bounds as floats.
const (
	Int16Max = float64(math.MaxInt16)
	Int16Min = float64(math.MinInt16)
)

// ClampInt16Range clamps x to [-32768, 32767]. NaN passes through unchanged,
// like the comparisons it is built from.
func ClampInt16Range(x float64) float64 {
	if x > Int16Max {
		return Int16Max
	}
	if x < Int16Min {
		return Int16Min
	}
	return x
}

// TruncateInt16 converts x to int16 by truncation toward zero, saturating at
// the int16 bounds and mapping NaN to 0.
func TruncateInt16(x float64) int16 {
	if math.IsNaN(x) {
		return 0
	}
	return int16(math.Trunc(ClampInt16Range(x)))
}

// Int16ToFloat64 widens PCM samples for metering.
func Int16ToFloat64(samples []int16) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = float64(s)
	}
	return out
}

// Levels summarizes the amplitude of a PCM buffer.
type Levels struct {
	Peak float64 `json:"peak"` // largest absolute sample value
	RMS  float64 `json:"rms"`
}

// PeakDBFS returns the peak level relative to full scale; -Inf for silence.
func (l Levels) PeakDBFS() float64 {
	return 20 * math.Log10(l.Peak/Int16Max)
}

// MeasureLevels computes peak and RMS levels of samples.
func MeasureLevels(samples []int16) Levels {
	if len(samples) == 0 {
		return Levels{}
	}

	data := Int16ToFloat64(samples)
	peak := math.Max(math.Abs(floats.Max(data)), math.Abs(floats.Min(data)))
	rms := floats.Norm(data, 2) / math.Sqrt(float64(len(data)))

	return Levels{Peak: peak, RMS: rms}
}
