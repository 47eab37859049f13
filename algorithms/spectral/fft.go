package spectral

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/dsp/fourier"
)

// Transformer computes the forward DFT of fixed-size complex64 frames.
//
// Implementations are not safe for concurrent use; create one per goroutine.
type Transformer interface {
	// Transform writes the forward transform of src into dst. Both slices must
	// have length Size(). dst and src may alias.
	Transform(dst, src []complex64) error
	// Size returns the frame length the transformer was built for.
	Size() int
}

// Kind names a Transformer implementation.
type Kind string

const (
	KindGoDSP Kind = "godsp"
	KindGonum Kind = "gonum"
)

var (
	ErrInvalidSize   = errors.New("transform size must be positive")
	ErrLengthInvalid = errors.New("frame length does not match transform size")
	ErrUnknownKind   = errors.New("unknown transform kind")
)

// ParseKind maps a case-insensitive name to a Kind.
func ParseKind(name string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(name))); k {
	case KindGoDSP, KindGonum:
		return k, nil
	case "":
		return KindGoDSP, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, name)
	}
}

// NewTransformer builds the transformer of the given kind for frames of size n.
func NewTransformer(kind Kind, n int) (Transformer, error) {
	switch kind {
	case KindGoDSP, "":
		return NewGoDSP(n)
	case KindGonum:
		return NewGonum(n)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// GoDSP transforms frames with mjibson/go-dsp, which handles any length
// (radix-2 for powers of two, Bluestein otherwise).
type GoDSP struct {
	size int
	buf  []complex128
}

// NewGoDSP creates a go-dsp backed transformer for frames of size n.
func NewGoDSP(n int) (*GoDSP, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, n)
	}
	return &GoDSP{size: n, buf: make([]complex128, n)}, nil
}

// Size returns the frame length.
func (g *GoDSP) Size() int { return g.size }

// Transform computes the forward FFT of src into dst.
func (g *GoDSP) Transform(dst, src []complex64) error {
	if err := checkLengths(g.size, dst, src); err != nil {
		return err
	}

	widen(g.buf, src)
	narrow(dst, fft.FFT(g.buf))

	return nil
}

// Gonum transforms frames with gonum's dsp/fourier CmplxFFT.
type Gonum struct {
	size int
	plan *fourier.CmplxFFT
	in   []complex128
	out  []complex128
}

// NewGonum creates a gonum backed transformer for frames of size n.
func NewGonum(n int) (*Gonum, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, n)
	}
	return &Gonum{
		size: n,
		plan: fourier.NewCmplxFFT(n),
		in:   make([]complex128, n),
		out:  make([]complex128, n),
	}, nil
}

// Size returns the frame length.
func (g *Gonum) Size() int { return g.size }

// Transform computes the forward FFT of src into dst.
func (g *Gonum) Transform(dst, src []complex64) error {
	if err := checkLengths(g.size, dst, src); err != nil {
		return err
	}

	widen(g.in, src)
	narrow(dst, g.plan.Coefficients(g.out, g.in))

	return nil
}

func checkLengths(size int, dst, src []complex64) error {
	if len(src) != size {
		return fmt.Errorf("%w: src %d, size %d", ErrLengthInvalid, len(src), size)
	}
	if len(dst) != size {
		return fmt.Errorf("%w: dst %d, size %d", ErrLengthInvalid, len(dst), size)
	}
	return nil
}

func widen(dst []complex128, src []complex64) {
	for i, v := range src {
		dst[i] = complex128(v)
	}
}

func narrow(dst []complex64, src []complex128) {
	for i, v := range src {
		dst[i] = complex64(v)
	}
}
