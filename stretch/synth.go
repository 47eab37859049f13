package stretch

import (
	"errors"
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-stretch/algorithms/common"
	"github.com/RyanBlaney/sonido-stretch/stretch/config"
)

// ErrZeroAmplitude is returned under config.PolicyFail when a peak has a
// 0 dB amplitude.
var ErrZeroAmplitude = errors.New("peak amplitude is zero")

const (
	// each peak is weighted by peakWeight/amplitude_dB
	peakWeight = 100.0
	outputGain = 0.25
)

type oscillator struct {
	phase  float64
	omega  float64 // 2*pi*freq
	weight float64
}

// Synthesizer renders PeakSets into clamped float sample buffers, reusing its
// output buffer between calls. It is not safe for concurrent use.
type Synthesizer struct {
	sampleRate  float64
	policy      config.ZeroAmplitudePolicy
	buf         []float32
	oscillators []oscillator
}

// NewSynthesizer creates a Synthesizer for the given sample rate and policy.
func NewSynthesizer(sampleRate float64, policy config.ZeroAmplitudePolicy) *Synthesizer {
	return &Synthesizer{sampleRate: sampleRate, policy: policy}
}

// Synthesize renders duration samples. The returned slice is owned by s and is
// overwritten by the next call.
func (s *Synthesizer) Synthesize(peaks PeakSet, duration int) ([]float32, error) {
	duration = max(duration, 0)
	if cap(s.buf) < duration {
		s.buf = make([]float32, duration)
	}
	s.buf = s.buf[:duration]

	if err := s.render(s.buf, peaks); err != nil {
		return nil, err
	}
	return s.buf, nil
}

// Synthesize renders duration samples of
//
//	clamp(0.25 * 32767 * sum(sin(phase + 2*pi*freq*t/sampleRate) * 100/amp))
//
// over peaks, clamped to [-32768, 32767]. The phase is in degrees and is added
// to the radian argument as is. NaN samples come out as 0.
func Synthesize(peaks PeakSet, duration int, sampleRate float64, policy config.ZeroAmplitudePolicy) ([]float32, error) {
	out := make([]float32, max(duration, 0))
	s := NewSynthesizer(sampleRate, policy)
	if err := s.render(out, peaks); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Synthesizer) render(dst []float32, peaks PeakSet) error {
	s.oscillators = s.oscillators[:0]

	for _, p := range peaks {
		if p.Amplitude == 0 && s.policy == config.PolicyFail {
			return fmt.Errorf("%w: bin at %.2f Hz", ErrZeroAmplitude, p.Frequency)
		}

		weight := peakWeight / float64(p.Amplitude)
		if s.policy == config.PolicySkip && (math.IsInf(weight, 0) || math.IsNaN(weight)) {
			continue
		}

		s.oscillators = append(s.oscillators, oscillator{
			phase:  float64(p.Phase),
			omega:  2 * float64(p.Frequency) * math.Pi,
			weight: weight,
		})
	}

	for t := range dst {
		j := float64(t) / s.sampleRate

		amp := 0.0
		for _, o := range s.oscillators {
			amp += math.Sin(o.phase+o.omega*j) * o.weight
		}

		amp = amp * outputGain * common.Int16Max
		dst[t] = float32(clampSample(amp))
	}

	return nil
}

func clampSample(x float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	return common.ClampInt16Range(x)
}
