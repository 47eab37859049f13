package transcode

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/RyanBlaney/sonido-stretch/logging"
)

var (
	// ErrNoSamples is returned when a decode produced no audio.
	ErrNoSamples = errors.New("no audio samples decoded")
	// ErrFFmpegUnavailable is returned when the ffmpeg or ffprobe binary cannot be found.
	ErrFFmpegUnavailable = errors.New("ffmpeg not available")
)

// AudioData is mono 16-bit PCM ready for stretching.
type AudioData struct {
	PCM        []int16        `json:"-"`
	SampleRate int            `json:"sample_rate"`
	Duration   time.Duration  `json:"duration"`
	Source     *AudioMetadata `json:"source,omitempty"` // nil when the input was not probed
}

// DecoderConfig holds decoder configuration
type DecoderConfig struct {
	TargetSampleRate int           `json:"target_sample_rate"`
	MaxDuration      time.Duration `json:"max_duration"`
	ResampleQuality  string        `json:"resample_quality"` // "fast", "medium", "high"
	FFmpegPath       string        `json:"ffmpeg_path"`
	FFprobePath      string        `json:"ffprobe_path"`
	Timeout          time.Duration `json:"timeout"` // per ffmpeg/ffprobe invocation

	// Normalization is applied before stretching when enabled
	EnableNormalization bool    `json:"enable_normalization"`
	NormalizationMethod string  `json:"normalization_method"` // "loudnorm", "dynaudnorm", "compand"
	TargetLUFS          float64 `json:"target_lufs"`
	TargetPeak          float64 `json:"target_peak"`
	LoudnessRange       float64 `json:"loudness_range"`
}

// DefaultDecoderConfig returns default decoder configuration
func DefaultDecoderConfig() *DecoderConfig {
	return &DecoderConfig{
		TargetSampleRate:    44100,
		MaxDuration:         0, // No limit
		ResampleQuality:     "medium",
		FFmpegPath:          "ffmpeg",
		FFprobePath:         "ffprobe",
		Timeout:             60 * time.Second,
		EnableNormalization: false,
		NormalizationMethod: "loudnorm",
		TargetLUFS:          -16.0,
		TargetPeak:          -1.0,
		LoudnessRange:       8.0,
	}
}

// Decoder converts arbitrary audio files to mono s16le PCM using FFmpeg
type Decoder struct {
	config *DecoderConfig
	logger logging.Logger
}

// AudioMetadata holds detected audio properties from FFprobe
type AudioMetadata struct {
	SampleRate int     `json:"sample_rate"`
	Channels   int     `json:"channels"`
	Codec      string  `json:"codec"`
	Duration   float64 `json:"duration"`
	Bitrate    int     `json:"bitrate"`
	Format     string  `json:"format"`
}

// NewDecoder creates a new audio decoder
func NewDecoder(config *DecoderConfig) *Decoder {
	if config == nil {
		config = DefaultDecoderConfig()
	}
	return &Decoder{
		config: config,
		logger: logging.WithFields(logging.Fields{
			"component": "audio_decoder",
		}),
	}
}

// DecodeFile probes and decodes an audio file of any format FFmpeg reads.
func (d *Decoder) DecodeFile(ctx context.Context, filename string) (*AudioData, error) {
	logger := d.logger.WithContext(ctx).WithFields(logging.Fields{
		"function": "DecodeFile",
		"filename": filename,
	})

	logger.Debug("Starting audio file decode")

	metadata, err := d.ProbeFile(ctx, filename)
	if err != nil {
		logger.Error(err, "Failed to probe audio file")
		return nil, err
	}

	logger.Debug("Audio metadata detected", logging.Fields{
		"input_sample_rate": metadata.SampleRate,
		"input_channels":    metadata.Channels,
		"input_codec":       metadata.Codec,
		"input_duration":    metadata.Duration,
		"input_bitrate":     metadata.Bitrate,
	})

	args := d.buildFFmpegArgs(metadata.SampleRate)
	args = append([]string{"-i", filename}, args...)
	args = append(args, "pipe:1")

	output, err := d.run(ctx, d.config.FFmpegPath, args, nil, logger)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg decode failed: %w", err)
	}

	audio, err := d.processFFmpegOutput(output, logger)
	if err != nil {
		return nil, err
	}
	audio.Source = metadata
	return audio, nil
}

// DecodeReader decodes audio from an io.Reader. The input is not probed.
func (d *Decoder) DecodeReader(ctx context.Context, reader io.Reader) (*AudioData, error) {
	logger := d.logger.WithContext(ctx).WithFields(logging.Fields{
		"function": "DecodeReader",
	})

	data, err := io.ReadAll(reader)
	if err != nil {
		logger.Error(err, "Failed to read data from reader")
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty audio data: %w", ErrNoSamples)
	}

	logger.Debug("Data read from reader", logging.Fields{
		"data_size": len(data),
	})

	args := d.buildFFmpegArgs(0)
	args = append([]string{"-i", "pipe:0"}, args...)
	args = append(args, "pipe:1")

	output, err := d.run(ctx, d.config.FFmpegPath, args, bytes.NewReader(data), logger)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg decode failed: %w", err)
	}

	return d.processFFmpegOutput(output, logger)
}

// ProbeFile uses ffprobe to get audio information from a file
func (d *Decoder) ProbeFile(ctx context.Context, filename string) (*AudioMetadata, error) {
	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-select_streams", "a:0", // first audio stream only
		filename,
	}

	output, err := d.run(ctx, d.config.FFprobePath, args, nil, d.logger)
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	return parseFFprobeOutput(output)
}

// run executes an FFmpeg tool under the configured timeout and returns its
// stdout.
func (d *Decoder) run(ctx context.Context, path string, args []string, stdin io.Reader, logger logging.Logger) ([]byte, error) {
	if d.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.config.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, path, args...)
	if stdin != nil {
		cmd.Stdin = stdin
	}

	logger.Debug("Running command", logging.Fields{
		"path": path,
		"args": strings.Join(args, " "),
	})

	output, err := cmd.Output()
	if err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			logger.Error(err, "Command failed", logging.Fields{
				"path":   path,
				"stderr": string(exitError.Stderr),
			})
			return nil, fmt.Errorf("%w, stderr: %s", err, string(exitError.Stderr))
		}
		return nil, err
	}

	return output, nil
}

// parseFFprobeOutput parses ffprobe JSON to extract audio metadata
func parseFFprobeOutput(jsonData []byte) (*AudioMetadata, error) {
	var probe struct {
		Streams []struct {
			CodecType     string `json:"codec_type"`
			CodecName     string `json:"codec_name"`
			SampleRate    string `json:"sample_rate"`
			Channels      int    `json:"channels"`
			Duration      string `json:"duration"`
			BitRate       string `json:"bit_rate"`
			CodecLongName string `json:"codec_long_name"`
		} `json:"streams"`
	}

	if err := json.Unmarshal(jsonData, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	if len(probe.Streams) == 0 {
		return nil, fmt.Errorf("no audio streams found")
	}

	stream := probe.Streams[0]

	if stream.CodecType != "audio" {
		return nil, fmt.Errorf("stream is not audio type: %s", stream.CodecType)
	}

	sampleRate, err := strconv.Atoi(stream.SampleRate)
	if err != nil {
		sampleRate = 44100
	}

	duration, err := strconv.ParseFloat(stream.Duration, 64)
	if err != nil {
		duration = 0
	}

	bitrate, err := strconv.Atoi(stream.BitRate)
	if err != nil {
		bitrate = 0
	}

	if stream.Channels <= 0 || stream.Channels > 8 {
		return nil, fmt.Errorf("invalid channel count: %d", stream.Channels)
	}

	return &AudioMetadata{
		SampleRate: sampleRate,
		Channels:   stream.Channels,
		Codec:      stream.CodecName,
		Duration:   duration,
		Bitrate:    bitrate,
		Format:     stream.CodecLongName,
	}, nil
}

// buildFFmpegArgs returns the output options for mono s16le at the target
// rate. inputRate is 0 when unknown.
func (d *Decoder) buildFFmpegArgs(inputRate int) []string {
	args := []string{
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ac", "1",
		"-ar", strconv.Itoa(d.config.TargetSampleRate),
	}

	var filters []string
	if inputRate != d.config.TargetSampleRate {
		switch d.config.ResampleQuality {
		case "fast":
			filters = append(filters, "aresample=resampler=soxr:precision=16")
		case "medium":
			filters = append(filters, "aresample=resampler=soxr:precision=20")
		case "high":
			filters = append(filters, "aresample=resampler=soxr:precision=28")
		}
	}

	if d.config.EnableNormalization {
		if f := d.buildNormalizationFilter(); f != "" {
			filters = append(filters, f)
		}
	}

	if len(filters) > 0 {
		args = append(args, "-af", strings.Join(filters, ","))
	}

	if d.config.MaxDuration > 0 {
		args = append(args, "-t", fmt.Sprintf("%.2f", d.config.MaxDuration.Seconds()))
	}

	return append(args, "-v", "error")
}

// buildNormalizationFilter builds the ffmpeg filter for the configured
// normalization method.
func (d *Decoder) buildNormalizationFilter() string {
	switch d.config.NormalizationMethod {
	case "loudnorm":
		// EBU R128
		return fmt.Sprintf("loudnorm=I=%.1f:TP=%.1f:LRA=%.1f",
			d.config.TargetLUFS,
			d.config.TargetPeak,
			d.config.LoudnessRange)

	case "dynaudnorm":
		return "dynaudnorm=p=0.95:m=10:s=12"

	case "compand":
		return fmt.Sprintf("compand=0.1,0.3:-90/-90,-%.1f/-%.1f,0/0:6:0:-90:0.1",
			math.Abs(d.config.TargetPeak),
			math.Abs(d.config.TargetPeak))

	default:
		return ""
	}
}

func (d *Decoder) processFFmpegOutput(output []byte, logger logging.Logger) (*AudioData, error) {
	samples := bytesToInt16(output)
	if len(samples) == 0 {
		return nil, ErrNoSamples
	}

	duration := time.Duration(len(samples)) * time.Second / time.Duration(d.config.TargetSampleRate)

	logger.Debug("FFmpeg decode completed successfully", logging.Fields{
		"output_samples":     len(samples),
		"output_sample_rate": d.config.TargetSampleRate,
		"output_duration":    duration.Seconds(),
	})

	return &AudioData{
		PCM:        samples,
		SampleRate: d.config.TargetSampleRate,
		Duration:   duration,
	}, nil
}

// bytesToInt16 converts raw s16le bytes to samples. A trailing odd byte is
// dropped.
func bytesToInt16(data []byte) []int16 {
	count := len(data) / 2
	if count == 0 {
		return nil
	}

	samples := make([]int16, count)
	for i := range count {
		samples[i] = int16(binary.LittleEndian.Uint16(data[i*2 : i*2+2]))
	}

	return samples
}

// ValidateConfig validates the decoder configuration
func (d *Decoder) ValidateConfig() error {
	if d.config.TargetSampleRate <= 0 {
		return fmt.Errorf("target sample rate must be positive: %d", d.config.TargetSampleRate)
	}

	if d.config.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative: %v", d.config.Timeout)
	}

	return d.checkFFmpegAvailability()
}

// checkFFmpegAvailability checks if ffmpeg and ffprobe are available
func (d *Decoder) checkFFmpegAvailability() error {
	if _, err := exec.LookPath(d.config.FFmpegPath); err != nil {
		return fmt.Errorf("%w: ffmpeg not found at %s: %w", ErrFFmpegUnavailable, d.config.FFmpegPath, err)
	}

	if _, err := exec.LookPath(d.config.FFprobePath); err != nil {
		return fmt.Errorf("%w: ffprobe not found at %s: %w", ErrFFmpegUnavailable, d.config.FFprobePath, err)
	}

	return nil
}
