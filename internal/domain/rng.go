package domain

// Stream is a seeded pseudo-random stream of float64 values in [0, 1).
//
// The only state is a 32-bit counter advanced on every draw, so a stream is
// a pure function of its seed and the number of values drawn so far.
type Stream struct {
	state uint32
	draws int
}

// NewStream starts a stream at the given seed.
func NewStream(seed uint32) *Stream {
	return &Stream{state: seed}
}

// Next returns the next value of the stream.
func (s *Stream) Next() float64 {
	s.state += 0x6D2B79F5
	s.draws++

	a := s.state
	t := (a ^ a>>15) * (1 | a)
	t = (t + (t^t>>7)*(61|t)) ^ t
	return float64(t^t>>14) / 4294967296.0
}

// Draws reports how many values have been drawn.
func (s *Stream) Draws() int {
	return s.draws
}

// Generate returns the first n values of the stream for seed.
func Generate(seed uint32, n int) []float64 {
	if n <= 0 {
		return nil
	}
	s := NewStream(seed)
	out := make([]float64, n)
	for i := range out {
		out[i] = s.Next()
	}
	return out
}
