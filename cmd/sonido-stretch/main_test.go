package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/RyanBlaney/sonido-stretch/algorithms/spectral"
	"github.com/RyanBlaney/sonido-stretch/logging"
	"github.com/RyanBlaney/sonido-stretch/stretch/config"
	"github.com/RyanBlaney/sonido-stretch/transcode"
)

func TestParseFlagsRequiresInputAndOutput(t *testing.T) {
	if _, err := parseFlags([]string{"-input", "a.wav"}, io.Discard); err == nil {
		t.Fatal("expected an error without -output")
	}
}

func TestLoadConfigLayering(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stretch.json")
	if err := os.WriteFile(path, []byte(`{"hop_size": 512, "synthesis_duration": 4096, "workers": 3}`), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv(config.EnvSynthesisDuration, "1024")
	t.Setenv(config.EnvTransform, "gonum")

	opts, err := parseFlags([]string{
		"-input", "in.wav", "-output", "out.wav",
		"-config", path,
		"-workers", "2",
		"-zero-amp", "fail",
	}, io.Discard)
	if err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		t.Fatal(err)
	}

	// file
	if cfg.HopSize != 512 {
		t.Errorf("hop=%d, want 512", cfg.HopSize)
	}
	// env over file
	if cfg.SynthesisDuration != 1024 {
		t.Errorf("duration=%d, want 1024", cfg.SynthesisDuration)
	}
	if cfg.Transform != spectral.KindGonum {
		t.Errorf("transform=%q, want gonum", cfg.Transform)
	}
	// flags over everything
	if cfg.Workers != 2 {
		t.Errorf("workers=%d, want 2", cfg.Workers)
	}
	if cfg.ZeroAmplitudePolicy != config.PolicyFail {
		t.Errorf("policy=%q, want fail", cfg.ZeroAmplitudePolicy)
	}
	// untouched default
	if cfg.FrameLength != config.DefaultFrameLength {
		t.Errorf("frame=%d, want default", cfg.FrameLength)
	}
	if opts.rateSet {
		t.Error("rate was not given")
	}
}

func TestLoadConfigRejectsBadFlags(t *testing.T) {
	for _, args := range [][]string{
		{"-transform", "fftw"},
		{"-zero-amp", "ignore"},
		{"-hop", "0"},
	} {
		opts, err := parseFlags(append([]string{"-input", "a", "-output", "b"}, args...), io.Discard)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := loadConfig(opts); err == nil {
			t.Errorf("%v: expected an error", args)
		}
	}
}

func TestRunStretchesWAV(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.wav")
	out := filepath.Join(dir, "out.wav")

	samples := make([]int16, 22050)
	for i := range samples {
		samples[i] = int16(9000 * math.Sin(2*math.Pi*330*float64(i)/22050))
	}
	if err := transcode.WriteWAVFile(in, samples, 22050); err != nil {
		t.Fatal(err)
	}

	opts, err := parseFlags([]string{
		"-input", in, "-output", out,
		"-frame", "1024", "-hop", "735", "-duration", "1470",
	}, io.Discard)
	if err != nil {
		t.Fatal(err)
	}

	var stdout bytes.Buffer
	if err := run(context.Background(), opts, &logging.NoOpLogger{}, nil, &stdout); err != nil {
		t.Fatal(err)
	}

	audio, err := transcode.ReadWAVFile(out)
	if err != nil {
		t.Fatal(err)
	}
	// 30 frames of 1470 samples at the input's rate
	if audio.SampleRate != 22050 || len(audio.PCM) != 30*1470 {
		t.Fatalf("rate=%d len=%d", audio.SampleRate, len(audio.PCM))
	}

	report := stdout.String()
	for _, want := range []string{"frames", "30", "2.000x"} {
		if !strings.Contains(report, want) {
			t.Errorf("summary missing %q:\n%s", want, report)
		}
	}
}

func TestRunMissingInput(t *testing.T) {
	dir := t.TempDir()
	opts, err := parseFlags([]string{"-input", filepath.Join(dir, "nope.wav"), "-output", filepath.Join(dir, "out.wav")}, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if err := run(context.Background(), opts, &logging.NoOpLogger{}, nil, io.Discard); err == nil {
		t.Fatal("expected an error for a missing input")
	}
}

func TestReadInputNeedsFFmpegForNonWAV(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "take.flac")
	if err := os.WriteFile(in, []byte("fLaC"), 0o644); err != nil {
		t.Fatal(err)
	}
	missing := filepath.Join(dir, "bin", "ffmpeg")

	_, err := readInput(context.Background(), in, missing, 44100, nil, &logging.NoOpLogger{})
	if !errors.Is(err, transcode.ErrFFmpegUnavailable) {
		t.Fatalf("err=%v, want ErrFFmpegUnavailable", err)
	}
}

func TestReadInputStdin(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "ffmpeg")
	stdin := strings.NewReader("RIFF")

	_, err := readInput(context.Background(), stdinPath, missing, 44100, stdin, &logging.NoOpLogger{})
	if !errors.Is(err, transcode.ErrFFmpegUnavailable) {
		t.Fatalf("err=%v, want ErrFFmpegUnavailable", err)
	}
	// ffmpeg is checked before stdin is consumed
	if stdin.Len() != 4 {
		t.Fatalf("stdin read before validation, %d bytes left", stdin.Len())
	}
}

func TestReadInputWAVSkipsFFmpeg(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.WAV")
	if err := transcode.WriteWAVFile(in, []int16{1, 2, 3}, 8000); err != nil {
		t.Fatal(err)
	}

	audio, err := readInput(context.Background(), in, filepath.Join(dir, "ffmpeg"), 44100, nil, &logging.NoOpLogger{})
	if err != nil {
		t.Fatal(err)
	}
	if len(audio.PCM) != 3 || audio.SampleRate != 8000 {
		t.Fatalf("len=%d rate=%d", len(audio.PCM), audio.SampleRate)
	}
}
