package windowing

import (
	"math"
	"sync"
)

// Hamming represents a Hamming window function
type Hamming struct {
	size         int
	symmetric    bool
	coefficients []float64
}

// NewHamming creates a new Hamming window
func NewHamming(size int, symmetric bool) *Hamming {
	h := &Hamming{
		size:      max(size, 0),
		symmetric: symmetric,
	}
	h.generate()
	return h
}

var (
	cacheMu sync.Mutex
	cache   = make(map[int]*Hamming)
)

// SymmetricHamming returns the shared symmetric Hamming window of the given
// size. The returned window must not be modified.
func SymmetricHamming(size int) *Hamming {
	cacheMu.Lock()
	defer cacheMu.Unlock()

	if h, ok := cache[size]; ok {
		return h
	}

	h := NewHamming(size, true)
	cache[size] = h
	return h
}

// generate fills 0.54 - 0.46*cos(2*pi*n/D), with D = N-1 for symmetric and
// D = N for periodic windows. A single-point window is 1.
func (h *Hamming) generate() {
	h.coefficients = make([]float64, h.size)

	if h.size == 1 {
		h.coefficients[0] = 1
		return
	}

	denominator := float64(h.size)
	if h.symmetric {
		denominator = float64(h.size - 1)
	}

	for i := range h.size {
		h.coefficients[i] = 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/denominator)
	}
}

// Coefficient returns the i-th window coefficient.
func (h *Hamming) Coefficient(i int) float64 {
	return h.coefficients[i]
}

// GetCoefficients returns a copy of the window coefficients
func (h *Hamming) GetCoefficients() []float64 {
	coeffs := make([]float64, len(h.coefficients))
	copy(coeffs, h.coefficients)
	return coeffs
}

// GetSize returns the window size
func (h *Hamming) GetSize() int {
	return h.size
}

// IsSymmetric reports whether the window is symmetric rather than periodic.
func (h *Hamming) IsSymmetric() bool {
	return h.symmetric
}
