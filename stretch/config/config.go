package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/RyanBlaney/sonido-stretch/algorithms/spectral"
)

// ZeroAmplitudePolicy decides what the resynthesizer does with a peak whose
// dB amplitude is zero, where the 100/amp weight is infinite.
//
// A frame whose loudest bin sits at exactly 0 dB (a lone sample of value 1,
// for instance) yields such a peak. Under PolicySaturate that frame comes out
// as near full-scale clipping; PolicySkip, the default, leaves it silent.
type ZeroAmplitudePolicy string

const (
	// PolicySaturate lets infinities propagate; the affected samples clamp to
	// the int16 bounds and NaN samples become 0.
	PolicySaturate ZeroAmplitudePolicy = "saturate"
	// PolicySkip drops peaks whose weight is not finite.
	PolicySkip ZeroAmplitudePolicy = "skip"
	// PolicyFail aborts synthesis with an error.
	PolicyFail ZeroAmplitudePolicy = "fail"

	DefaultPolicy = PolicySkip
)

// ParsePolicy maps a case-insensitive name to a ZeroAmplitudePolicy. The empty
// string selects DefaultPolicy.
func ParsePolicy(name string) (ZeroAmplitudePolicy, error) {
	switch p := ZeroAmplitudePolicy(strings.ToLower(strings.TrimSpace(name))); p {
	case PolicySaturate, PolicySkip, PolicyFail:
		return p, nil
	case "":
		return DefaultPolicy, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPolicy, name)
	}
}

const (
	DefaultSampleRate        = 44100.0
	DefaultFrameLength       = 2048
	DefaultHopSize           = 1024
	DefaultSynthesisDuration = 2048
)

// Env var names read by ApplyEnv.
const (
	EnvSampleRate          = "SONIDO_STRETCH_SAMPLE_RATE"
	EnvFrameLength         = "SONIDO_STRETCH_FRAME_LENGTH"
	EnvHopSize             = "SONIDO_STRETCH_HOP_SIZE"
	EnvSynthesisDuration   = "SONIDO_STRETCH_SYNTHESIS_DURATION"
	EnvWorkers             = "SONIDO_STRETCH_WORKERS"
	EnvTransform           = "SONIDO_STRETCH_TRANSFORM"
	EnvZeroAmplitudePolicy = "SONIDO_STRETCH_ZERO_AMPLITUDE_POLICY"
)

var (
	ErrInvalidSampleRate  = errors.New("sample rate must be positive and finite")
	ErrInvalidFrameLength = errors.New("frame length must be positive")
	ErrInvalidHopSize     = errors.New("hop size must be positive")
	ErrInvalidDuration    = errors.New("synthesis duration must be positive")
	ErrInvalidWorkers     = errors.New("workers must not be negative")
	ErrInvalidPolicy      = errors.New("unknown zero amplitude policy")
)

// Config holds the per-run stretch parameters.
type Config struct {
	SampleRate        float64 `json:"sample_rate"`
	FrameLength       int     `json:"frame_length"`       // transform size
	HopSize           int     `json:"hop_size"`           // stride between frame starts
	SynthesisDuration int     `json:"synthesis_duration"` // samples produced per frame

	Workers             int                 `json:"workers"` // 0 picks a count from the CPU count
	Transform           spectral.Kind       `json:"transform"`
	ZeroAmplitudePolicy ZeroAmplitudePolicy `json:"zero_amplitude_policy"`
}

// DefaultConfig returns the parameters of the reference program: 2048-point
// frames every 1024 samples, each resynthesized to 2048 samples (2x stretch).
func DefaultConfig() Config {
	return Config{
		SampleRate:          DefaultSampleRate,
		FrameLength:         DefaultFrameLength,
		HopSize:             DefaultHopSize,
		SynthesisDuration:   DefaultSynthesisDuration,
		Workers:             0,
		Transform:           spectral.KindGoDSP,
		ZeroAmplitudePolicy: DefaultPolicy,
	}
}

// StretchRatio is the output/input duration ratio the parameters produce.
func (c Config) StretchRatio() float64 {
	if c.HopSize <= 0 {
		return 0
	}
	return float64(c.SynthesisDuration) / float64(c.HopSize)
}

// Validate checks the configuration. hop_size > frame_length is accepted;
// callers may warn about it (see HopExceedsFrame).
func (c Config) Validate() error {
	if c.SampleRate <= 0 || math.IsNaN(c.SampleRate) || math.IsInf(c.SampleRate, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidSampleRate, c.SampleRate)
	}
	if c.FrameLength <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidFrameLength, c.FrameLength)
	}
	if c.HopSize <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidHopSize, c.HopSize)
	}
	if c.SynthesisDuration <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidDuration, c.SynthesisDuration)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWorkers, c.Workers)
	}
	if _, err := spectral.ParseKind(string(c.Transform)); err != nil {
		return err
	}
	if _, err := ParsePolicy(string(c.ZeroAmplitudePolicy)); err != nil {
		return err
	}
	return nil
}

// HopExceedsFrame reports a hop larger than the frame, which skips input
// samples between frames.
func (c Config) HopExceedsFrame() bool {
	return c.HopSize > c.FrameLength
}

// Load reads a JSON config file. Fields missing from the file keep their
// default values; unknown fields are rejected.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, nil
}

// ApplyEnv overrides fields from SONIDO_STRETCH_* environment variables.
// Empty or unparsable numeric values leave the field unchanged.
func (c *Config) ApplyEnv() {
	c.SampleRate = envFloatOr(EnvSampleRate, c.SampleRate)
	c.FrameLength = envIntOr(EnvFrameLength, c.FrameLength)
	c.HopSize = envIntOr(EnvHopSize, c.HopSize)
	c.SynthesisDuration = envIntOr(EnvSynthesisDuration, c.SynthesisDuration)
	c.Workers = envIntOr(EnvWorkers, c.Workers)
	c.Transform = spectral.Kind(envOr(EnvTransform, string(c.Transform)))
	c.ZeroAmplitudePolicy = ZeroAmplitudePolicy(envOr(EnvZeroAmplitudePolicy, string(c.ZeroAmplitudePolicy)))
}

func envOr(key, def string) string {
	v := strings.TrimSpace(strings.Trim(os.Getenv(key), `"`))
	if v == "" {
		return def
	}
	return v
}

func envIntOr(key string, def int) int {
	v := envOr(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envFloatOr(key string, def float64) float64 {
	v := envOr(key, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}
