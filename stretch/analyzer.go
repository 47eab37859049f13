package stretch

import (
	"math"
	"math/cmplx"
)

// SpectrumBins converts every element of a transformed frame into a
// FrequencyBin.
//
// The phase is atan2(re, im), real over imaginary. Synthesize is written
// against this convention, so it must not be swapped to atan2(im, re).
func SpectrumBins(spectrum Frame, sampleRate float64) []FrequencyBin {
	bins := make([]FrequencyBin, len(spectrum))
	n := float64(len(spectrum))

	for i, c := range spectrum {
		bins[i] = FrequencyBin{
			Amplitude: float32(20 * math.Log10(cmplx.Abs(complex128(c)))),
			Frequency: float32(float64(i) * sampleRate / n),
			Phase:     float32(math.Atan2(float64(real(c)), float64(imag(c))) * 180 / math.Pi),
		}
	}

	return bins
}

// LoudestBin returns the index of the bin with the highest amplitude, or -1
// for no bins. Ties go to the lowest index and NaN amplitudes never win; if
// every amplitude is NaN the first bin is returned.
func LoudestBin(bins []FrequencyBin) int {
	if len(bins) == 0 {
		return -1
	}

	best := -1
	for i, b := range bins {
		if isNaN32(b.Amplitude) {
			continue
		}
		if best < 0 || b.Amplitude > bins[best].Amplitude {
			best = i
		}
	}

	if best < 0 {
		return 0
	}
	return best
}

// SelectPeaks keeps every bin whose amplitude lies strictly within a tenth of
// the loudest amplitude of it, plus the loudest bin itself.
//
// The window max/10 only opens upward for positive dB maxima. For max <= 0
// the interval (max-max/10, max+max/10) is empty, so quiet frames reduce to
// their single loudest bin.
func SelectPeaks(bins []FrequencyBin) PeakSet {
	loudest := LoudestBin(bins)
	if loudest < 0 {
		return PeakSet{}
	}

	top := bins[loudest].Amplitude
	wiggle := top / 10
	lo, hi := top-wiggle, top+wiggle

	peaks := make(PeakSet, 0, 8)
	for i, b := range bins {
		if i == loudest || (b.Amplitude > lo && b.Amplitude < hi) {
			peaks = append(peaks, b)
		}
	}

	return peaks
}

// AnalyzeSpectrum computes the bins of a transformed frame and selects its
// peaks. The result is non-empty whenever spectrum is.
func AnalyzeSpectrum(spectrum Frame, sampleRate float64) PeakSet {
	return SelectPeaks(SpectrumBins(spectrum, sampleRate))
}

func isNaN32(f float32) bool {
	return math.IsNaN(float64(f))
}
