package stretch

import (
	"fmt"

	"github.com/RyanBlaney/sonido-stretch/algorithms/common"
	"github.com/RyanBlaney/sonido-stretch/algorithms/windowing"
)

// OutputWindow tapers resynthesized frames with a symmetric Hamming window and
// quantizes them to int16.
type OutputWindow struct {
	window *windowing.Hamming
}

// NewOutputWindow returns a window for frames of size samples.
func NewOutputWindow(size int) *OutputWindow {
	return &OutputWindow{window: windowing.SymmetricHamming(max(size, 0))}
}

// Size returns the frame length the window applies to.
func (w *OutputWindow) Size() int {
	return w.window.GetSize()
}

// Apply writes the windowed, truncated samples of src into dst, which is
// grown only if its capacity is too small, and returns it.
func (w *OutputWindow) Apply(dst []int16, src []float32) ([]int16, error) {
	size := w.window.GetSize()
	if len(src) != size {
		return nil, fmt.Errorf("signal length (%d) doesn't match window size (%d)", len(src), size)
	}

	if cap(dst) < size {
		dst = make([]int16, size)
	}
	dst = dst[:size]

	for i, x := range src {
		dst[i] = common.TruncateInt16(w.window.Coefficient(i) * float64(x))
	}

	return dst, nil
}

// ApplyOutputWindow windows and quantizes signal with a window of its own
// length.
func ApplyOutputWindow(signal []float32) []int16 {
	out, _ := NewOutputWindow(len(signal)).Apply(nil, signal)
	return out
}
