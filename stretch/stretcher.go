package stretch

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/RyanBlaney/sonido-stretch/algorithms/spectral"
	"github.com/RyanBlaney/sonido-stretch/logging"
	"github.com/RyanBlaney/sonido-stretch/stretch/config"
)

// TransformerFactory builds one Transformer per worker.
type TransformerFactory func(size int) (spectral.Transformer, error)

// Option customizes a Stretcher.
type Option func(*Stretcher)

// WithLogger sets the logger; the global logger is used otherwise.
func WithLogger(logger logging.Logger) Option {
	return func(s *Stretcher) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTransformerFactory replaces the transform named in the config.
func WithTransformerFactory(factory TransformerFactory) Option {
	return func(s *Stretcher) {
		if factory != nil {
			s.newTransformer = factory
		}
	}
}

// Stretcher runs the per-frame pipeline over a whole sample buffer:
// extract, transform, analyze, resynthesize, window. Frame i starts at input
// offset i*hop and owns output samples [i*D, (i+1)*D).
type Stretcher struct {
	cfg            config.Config
	policy         config.ZeroAmplitudePolicy
	newTransformer TransformerFactory
	logger         logging.Logger
}

// New validates cfg and returns a Stretcher.
func New(cfg config.Config, opts ...Option) (*Stretcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid stretch config: %w", err)
	}

	policy, _ := config.ParsePolicy(string(cfg.ZeroAmplitudePolicy))
	kind, _ := spectral.ParseKind(string(cfg.Transform))

	s := &Stretcher{
		cfg:    cfg,
		policy: policy,
		newTransformer: func(size int) (spectral.Transformer, error) {
			return spectral.NewTransformer(kind, size)
		},
		logger: logging.WithFields(logging.Fields{
			"component": "stretcher",
		}),
	}

	for _, opt := range opts {
		opt(s)
	}

	if cfg.HopExceedsFrame() {
		s.logger.Warn("Hop size exceeds frame length, input samples between frames are skipped", logging.Fields{
			"hop_size":     cfg.HopSize,
			"frame_length": cfg.FrameLength,
		})
	}

	return s, nil
}

// Config returns the configuration the Stretcher was built with.
func (s *Stretcher) Config() config.Config { return s.cfg }

// StretchRatio returns synthesis duration / hop size.
func (s *Stretcher) StretchRatio() float64 { return s.cfg.StretchRatio() }

// FrameCount returns the number of frames for an input of n samples: one per
// hop-sized step starting inside the input.
func (s *Stretcher) FrameCount(n int) int {
	if n <= 0 {
		return 0
	}
	return (n + s.cfg.HopSize - 1) / s.cfg.HopSize
}

// OutputLength returns the number of samples produced for n input samples.
func (s *Stretcher) OutputLength(n int) int {
	return s.FrameCount(n) * s.cfg.SynthesisDuration
}

// Process stretches samples. samples is only read. Frames may be computed
// concurrently; the output is assembled in frame order and does not depend on
// the worker count. Cancelling ctx stops the run between frames.
func (s *Stretcher) Process(ctx context.Context, samples []int16) (*Result, error) {
	frames := s.FrameCount(len(samples))
	duration := s.cfg.SynthesisDuration

	result := &Result{
		Samples:    make([]int16, frames*duration),
		PeakCounts: make([]int, frames),
		Frames:     frames,
		InputLen:   len(samples),
		SampleRate: s.cfg.SampleRate,
	}
	if frames == 0 {
		return result, nil
	}

	numWorkers := s.workerCount(frames)

	logger := s.logger.WithContext(ctx).WithFields(logging.Fields{
		"function":      "Process",
		"input_samples": len(samples),
		"frames":        frames,
		"workers":       numWorkers,
	})
	logger.Debug("Starting stretch")

	workers := make([]*frameWorker, numWorkers)
	for i := range workers {
		w, err := s.newWorker()
		if err != nil {
			logger.Error(err, "Failed to create frame worker")
			return nil, err
		}
		workers[i] = w
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		errOnce  sync.Once
		firstErr error
	)
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	jobs := make(chan int)
	var wg sync.WaitGroup

	for _, w := range workers {
		wg.Add(1)
		go func(w *frameWorker) {
			defer wg.Done()

			for idx := range jobs {
				if runCtx.Err() != nil {
					continue
				}

				start := idx * s.cfg.HopSize
				dst := result.Samples[idx*duration : (idx+1)*duration : (idx+1)*duration]

				peaks, err := w.process(samples, start, dst)
				if err != nil {
					fail(fmt.Errorf("frame %d (offset %d): %w", idx, start, err))
					continue
				}
				result.PeakCounts[idx] = peaks

				logger.Debug("Frame resynthesized", logging.Fields{
					"frame":  idx,
					"offset": start,
					"peaks":  peaks,
				})
			}
		}(w)
	}

send:
	for idx := range frames {
		select {
		case <-runCtx.Done():
			break send
		case jobs <- idx:
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		logger.Error(firstErr, "Stretch failed")
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger.Debug("Stretch completed", logging.Fields{
		"output_samples": len(result.Samples),
	})

	return result, nil
}

// workerCount picks the pool size: the configured count, otherwise a count
// derived from the CPU count and the workload, never more than frames.
func (s *Stretcher) workerCount(frames int) int {
	n := s.cfg.Workers
	if n <= 0 {
		numCPU := runtime.NumCPU()
		switch {
		case frames < 100:
			n = numCPU / 2
		case frames < 1000:
			n = min(numCPU, 8)
		default:
			n = numCPU
		}
	}
	return max(min(n, frames), 1)
}

// frameWorker owns every buffer one goroutine needs to process frames.
type frameWorker struct {
	frame       Frame
	spectrum    Frame
	transformer spectral.Transformer
	synth       *Synthesizer
	window      *OutputWindow
	sampleRate  float64
}

func (s *Stretcher) newWorker() (*frameWorker, error) {
	tr, err := s.newTransformer(s.cfg.FrameLength)
	if err != nil {
		return nil, fmt.Errorf("create transformer: %w", err)
	}
	if tr.Size() != s.cfg.FrameLength {
		return nil, fmt.Errorf("%w: transformer size %d, frame length %d",
			spectral.ErrLengthInvalid, tr.Size(), s.cfg.FrameLength)
	}

	return &frameWorker{
		frame:       make(Frame, s.cfg.FrameLength),
		spectrum:    make(Frame, s.cfg.FrameLength),
		transformer: tr,
		synth:       NewSynthesizer(s.cfg.SampleRate, s.policy),
		window:      NewOutputWindow(s.cfg.SynthesisDuration),
		sampleRate:  s.cfg.SampleRate,
	}, nil
}

// process runs one frame and writes its samples into dst. It returns the
// number of peaks the frame was resynthesized from.
func (w *frameWorker) process(samples []int16, start int, dst []int16) (int, error) {
	ExtractFrameInto(w.frame, samples, start)

	if err := w.transformer.Transform(w.spectrum, w.frame); err != nil {
		return 0, fmt.Errorf("transform: %w", err)
	}

	peaks := AnalyzeSpectrum(w.spectrum, w.sampleRate)

	signal, err := w.synth.Synthesize(peaks, len(dst))
	if err != nil {
		return 0, err
	}

	if _, err := w.window.Apply(dst, signal); err != nil {
		return 0, err
	}

	return len(peaks), nil
}
