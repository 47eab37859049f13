package stretch

// ExtractFrame returns the length samples starting at start as a Frame with
// zero imaginary parts. Positions outside samples read as zero.
func ExtractFrame(samples []int16, start, length int) Frame {
	frame := make(Frame, max(length, 0))
	ExtractFrameInto(frame, samples, start)
	return frame
}

// ExtractFrameInto fills dst from samples starting at start, zero-padding past
// either end. samples is only read.
func ExtractFrameInto(dst Frame, samples []int16, start int) {
	for i := range dst {
		idx := start + i
		if idx >= 0 && idx < len(samples) {
			dst[i] = complex(float32(samples[idx]), 0)
		} else {
			dst[i] = 0
		}
	}
}
