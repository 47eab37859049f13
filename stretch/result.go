package stretch

import (
	"slices"
	"time"

	"github.com/RyanBlaney/sonido-stretch/algorithms/common"
	"gonum.org/v1/gonum/stat"
)

// Result is the output of one Stretcher run.
type Result struct {
	Samples    []int16 `json:"-"`
	PeakCounts []int   `json:"peak_counts"` // peaks resynthesized per frame
	Frames     int     `json:"frames"`
	InputLen   int     `json:"input_samples"`
	SampleRate float64 `json:"sample_rate"`
}

// Summary describes a Result for reporting.
type Summary struct {
	Frames         int           `json:"frames"`
	MeanPeaks      float64       `json:"mean_peaks"`
	MaxPeaks       int           `json:"max_peaks"`
	InputDuration  time.Duration `json:"input_duration"`
	OutputDuration time.Duration `json:"output_duration"`
	Levels         common.Levels `json:"levels"`
}

// Summary computes frame and level statistics of r.
func (r *Result) Summary() Summary {
	sum := Summary{
		Frames:         r.Frames,
		InputDuration:  samplesToDuration(r.InputLen, r.SampleRate),
		OutputDuration: samplesToDuration(len(r.Samples), r.SampleRate),
		Levels:         common.MeasureLevels(r.Samples),
	}

	if len(r.PeakCounts) > 0 {
		counts := make([]float64, len(r.PeakCounts))
		for i, c := range r.PeakCounts {
			counts[i] = float64(c)
		}
		sum.MeanPeaks = stat.Mean(counts, nil)
		sum.MaxPeaks = slices.Max(r.PeakCounts)
	}

	return sum
}

func samplesToDuration(n int, sampleRate float64) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(n) / sampleRate * float64(time.Second))
}
