// Command sonido-stretch time-stretches a mono recording by resynthesizing the
// loudest spectral peaks of each analysis frame.
//
// Usage:
//
//	sonido-stretch -input in.wav -output out.wav [flags]
//
// Examples:
//
//	sonido-stretch -input voice.wav -output slow.wav
//	sonido-stretch -input song.mp3 -output slow.wav -hop 512 -duration 2048
//	cat take.flac | sonido-stretch -input - -output out.wav
//	sonido-stretch -input in.wav -output out.wav -transform gonum -zero-amp fail -log-json
//
// Settings are layered: defaults, then -config file, then SONIDO_STRETCH_*
// environment variables, then flags.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/RyanBlaney/sonido-stretch/algorithms/spectral"
	"github.com/RyanBlaney/sonido-stretch/logging"
	"github.com/RyanBlaney/sonido-stretch/stretch"
	"github.com/RyanBlaney/sonido-stretch/stretch/config"
	"github.com/RyanBlaney/sonido-stretch/transcode"
)

type options struct {
	input      string
	output     string
	configPath string
	ffmpeg     string
	logLevel   string
	logJSON    bool
	noColor    bool
	rateSet    bool

	// set only when the flag was given
	overrides []func(*config.Config) error
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("sonido-stretch", flag.ContinueOnError)
	fs.SetOutput(stderr)

	opts := &options{}
	fs.StringVar(&opts.input, "input", "", "input audio file, or - for stdin (WAV is read directly, other formats need ffmpeg)")
	fs.StringVar(&opts.output, "output", "", "output WAV file")
	fs.StringVar(&opts.configPath, "config", "", "JSON config file")
	fs.StringVar(&opts.ffmpeg, "ffmpeg", "ffmpeg", "path to the ffmpeg binary")
	fs.StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	fs.BoolVar(&opts.logJSON, "log-json", false, "write structured JSON logs")
	fs.BoolVar(&opts.noColor, "no-color", false, "disable colored log output")

	rate := fs.Float64("rate", config.DefaultSampleRate, "sample rate in Hz (defaults to the input file's rate)")
	frame := fs.Int("frame", config.DefaultFrameLength, "analysis frame length in samples")
	hop := fs.Int("hop", config.DefaultHopSize, "input samples between frame starts")
	duration := fs.Int("duration", config.DefaultSynthesisDuration, "output samples per frame")
	workers := fs.Int("workers", 0, "frame workers, 0 picks from the CPU count")
	transform := fs.String("transform", string(spectral.KindGoDSP), "FFT backend: godsp or gonum")
	zeroAmp := fs.String("zero-amp", string(config.DefaultPolicy), "0 dB peak handling: saturate, skip or fail")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: sonido-stretch -input FILE -output FILE [flags]\n\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if opts.input == "" || opts.output == "" {
		fs.Usage()
		return nil, errors.New("both -input and -output are required")
	}

	fs.Visit(func(f *flag.Flag) {
		var apply func(*config.Config) error
		switch f.Name {
		case "rate":
			opts.rateSet = true
			apply = func(c *config.Config) error { c.SampleRate = *rate; return nil }
		case "frame":
			apply = func(c *config.Config) error { c.FrameLength = *frame; return nil }
		case "hop":
			apply = func(c *config.Config) error { c.HopSize = *hop; return nil }
		case "duration":
			apply = func(c *config.Config) error { c.SynthesisDuration = *duration; return nil }
		case "workers":
			apply = func(c *config.Config) error { c.Workers = *workers; return nil }
		case "transform":
			apply = func(c *config.Config) error {
				kind, err := spectral.ParseKind(*transform)
				c.Transform = kind
				return err
			}
		case "zero-amp":
			apply = func(c *config.Config) error {
				policy, err := config.ParsePolicy(*zeroAmp)
				c.ZeroAmplitudePolicy = policy
				return err
			}
		}
		if apply != nil {
			opts.overrides = append(opts.overrides, apply)
		}
	})

	return opts, nil
}

// loadConfig layers defaults, the config file, the environment and flags.
func loadConfig(opts *options) (config.Config, error) {
	cfg := config.DefaultConfig()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.Load(opts.configPath); err != nil {
			return cfg, err
		}
	}

	cfg.ApplyEnv()

	for _, apply := range opts.overrides {
		if err := apply(&cfg); err != nil {
			return cfg, err
		}
	}

	return cfg, cfg.Validate()
}

func newLogger(opts *options) (logging.Logger, func(), error) {
	level, err := logging.ParseLevel(opts.logLevel)
	if err != nil {
		return nil, nil, err
	}

	if opts.logJSON {
		zl, err := logging.NewZapLogger(level)
		if err != nil {
			return nil, nil, err
		}
		return zl, func() { _ = zl.Sync() }, nil
	}

	var dl *logging.DefaultLogger
	if opts.noColor {
		dl = logging.NewDefaultLoggerNoColor()
	} else {
		dl = logging.NewDefaultLogger()
	}
	dl.SetLevel(level)
	return dl, func() {}, nil
}

// stdinPath selects standard input, which is always decoded through ffmpeg.
const stdinPath = "-"

func readInput(ctx context.Context, path, ffmpeg string, sampleRate int, stdin io.Reader, logger logging.Logger) (*transcode.AudioData, error) {
	if path != stdinPath && strings.EqualFold(filepath.Ext(path), ".wav") {
		audio, err := transcode.ReadWAVFile(path)
		if err == nil || !errors.Is(err, transcode.ErrUnsupportedFormat) {
			return audio, err
		}
		logger.Info("WAV is not mono 16-bit, converting with ffmpeg", logging.Fields{
			"reason": err.Error(),
		})
	}

	cfg := transcode.DefaultDecoderConfig()
	cfg.FFmpegPath = ffmpeg
	cfg.FFprobePath = filepath.Join(filepath.Dir(ffmpeg), "ffprobe")
	if filepath.Dir(ffmpeg) == "." {
		cfg.FFprobePath = "ffprobe"
	}
	cfg.TargetSampleRate = sampleRate

	dec := transcode.NewDecoder(cfg)
	if err := dec.ValidateConfig(); err != nil {
		return nil, err
	}

	if path == stdinPath {
		return dec.DecodeReader(ctx, stdin)
	}
	return dec.DecodeFile(ctx, path)
}

func printSummary(w io.Writer, s *stretch.Stretcher, sum stretch.Summary) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	cfg := s.Config()
	fmt.Fprintf(tw, "frames\t%d\n", sum.Frames)
	fmt.Fprintf(tw, "frame / hop / duration\t%d / %d / %d\n", cfg.FrameLength, cfg.HopSize, cfg.SynthesisDuration)
	fmt.Fprintf(tw, "stretch ratio\t%.3fx\n", s.StretchRatio())
	fmt.Fprintf(tw, "peaks per frame\tmean %.2f, max %d\n", sum.MeanPeaks, sum.MaxPeaks)
	fmt.Fprintf(tw, "input duration\t%v\n", sum.InputDuration)
	fmt.Fprintf(tw, "output duration\t%v\n", sum.OutputDuration)
	fmt.Fprintf(tw, "output peak\t%.2f dBFS\n", sum.Levels.PeakDBFS())
	fmt.Fprintf(tw, "output rms\t%.1f\n", sum.Levels.RMS)
	tw.Flush()
}

func run(ctx context.Context, opts *options, logger logging.Logger, stdin io.Reader, stdout io.Writer) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	audio, err := readInput(ctx, opts.input, opts.ffmpeg, int(cfg.SampleRate), stdin, logger)
	if err != nil {
		return fmt.Errorf("read %s: %w", opts.input, err)
	}
	if !opts.rateSet && audio.SampleRate > 0 {
		cfg.SampleRate = float64(audio.SampleRate)
	}

	logger.Info("Input loaded", logging.Fields{
		"input":       opts.input,
		"samples":     len(audio.PCM),
		"sample_rate": cfg.SampleRate,
	})

	s, err := stretch.New(cfg, stretch.WithLogger(logger.WithFields(logging.Fields{
		"component": "stretcher",
	})))
	if err != nil {
		return err
	}

	res, err := s.Process(ctx, audio.PCM)
	if err != nil {
		return fmt.Errorf("stretch: %w", err)
	}

	if err := transcode.WriteWAVFile(opts.output, res.Samples, int(cfg.SampleRate)); err != nil {
		return fmt.Errorf("write %s: %w", opts.output, err)
	}

	logger.Info("Output written", logging.Fields{
		"output":  opts.output,
		"samples": len(res.Samples),
	})

	printSummary(stdout, s, res.Summary())
	return nil
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, flush, err := newLogger(opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer flush()
	logging.SetGlobalLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, logger, os.Stdin, os.Stdout); err != nil {
		flush()
		logger.Fatal(err, "Stretch failed")
	}
}
