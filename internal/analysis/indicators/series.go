// Package indicators provides technical indicator calculations over daily price histories.
//
// Every calculator returns Series values aligned to the input: Values[i] belongs to
// input index Offset+i, where Offset is the indicator's warm-up length.
package indicators

import "math"

// Series is an indicator output aligned to the input it was computed from.
type Series struct {
	Offset int
	Values []float64
}

// Len returns the number of computed values.
func (s Series) Len() int {
	return len(s.Values)
}

// At returns the value for input index i. Indices inside the warm-up window,
// past the end, or holding an undefined (NaN) value report false.
func (s Series) At(i int) (float64, bool) {
	j := i - s.Offset
	if j < 0 || j >= len(s.Values) {
		return 0, false
	}
	v := s.Values[j]
	if math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// End returns the input index just past the last value.
func (s Series) End() int {
	return s.Offset + len(s.Values)
}

// Dense expands the series to length n, filling undefined slots with NaN.
func (s Series) Dense(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		if v, ok := s.At(i); ok {
			out[i] = v
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}
