package pipeline

// Accumulator is a per-connection growable PCM sample buffer, drained
// in whole-block chunks by the reader loop.
type Accumulator struct {
	buf []float32
}

// Append adds samples to the tail of the buffer.
func (a *Accumulator) Append(samples []float32) {
	a.buf = append(a.buf, samples...)
}

// Len returns the number of buffered samples.
func (a *Accumulator) Len() int {
	return len(a.buf)
}

// DrainBlock removes and returns the first n samples. Callers must
// ensure n <= Len.
func (a *Accumulator) DrainBlock(n int) []float32 {
	block := make([]float32, n)
	copy(block, a.buf[:n])
	a.buf = a.buf[n:]
	return block
}

// TakeAll removes and returns every buffered sample, leaving the
// buffer empty.
func (a *Accumulator) TakeAll() []float32 {
	out := a.buf
	a.buf = nil
	return out
}
