// Package stretch time-stretches mono 16-bit PCM by analyzing overlapping
// frames, keeping each frame's loudest spectral bins and resynthesizing them
// as a sum of sines of arbitrary duration.
//
// ExtractFrame, AnalyzeSpectrum, Synthesize and OutputWindow are pure per-frame
// steps; Stretcher drives them over a whole buffer.
package stretch

// Frame is a fixed-length block of complex samples, in the time domain before
// the transform and in the frequency domain after it.
type Frame []complex64

// FrequencyBin describes one transformed frame element.
type FrequencyBin struct {
	Amplitude float32 `json:"amplitude_db"` // 20*log10(|c|); -Inf for an empty bin
	Frequency float32 `json:"frequency_hz"` // bin * sampleRate / frameLength
	Phase     float32 `json:"phase_deg"`    // atan2(re, im) in degrees
}

// PeakSet holds the bins selected from one frame, in bin order.
type PeakSet []FrequencyBin
