package models

import (
	"fmt"
	"math"
)

// Samples holds pixel samples as three index-aligned arrays.
// Every filtering step must go through Subset so that Values, X and Y
// always keep the same length and order.
type Samples struct {
	// Values are the pixel intensities, possibly negative
	Values []float64

	// X is the column of each sample
	X []float64

	// Y is the row of each sample
	Y []float64
}

// NewGridSamples flattens a width x height image in row-major order
// (y varies slowest) into samples.
func NewGridSamples(data []float64, width, height int) (Samples, error) {
	if width <= 0 || height <= 0 {
		return Samples{}, fmt.Errorf("%w: invalid image size %dx%d", ErrConfiguration, width, height)
	}
	if width > math.MaxInt/height {
		return Samples{}, fmt.Errorf("%w: image size %dx%d overflows", ErrConfiguration, width, height)
	}
	if len(data) != width*height {
		return Samples{}, fmt.Errorf("%w: data length %d does not match %dx%d",
			ErrConfiguration, len(data), width, height)
	}

	s := Samples{
		Values: make([]float64, len(data)),
		X:      make([]float64, len(data)),
		Y:      make([]float64, len(data)),
	}
	copy(s.Values, data)
	for i := range data {
		s.X[i] = float64(i % width)
		s.Y[i] = float64(i / width)
	}
	return s, nil
}

// Len returns the number of samples.
func (s Samples) Len() int {
	return len(s.Values)
}

// Valid reports whether the three arrays are aligned.
func (s Samples) Valid() bool {
	return len(s.X) == len(s.Values) && len(s.Y) == len(s.Values)
}

// Subset returns the samples at the given indices, in the given order.
func (s Samples) Subset(indices []int) Samples {
	out := Samples{
		Values: make([]float64, len(indices)),
		X:      make([]float64, len(indices)),
		Y:      make([]float64, len(indices)),
	}
	for i, idx := range indices {
		out.Values[i] = s.Values[idx]
		out.X[i] = s.X[idx]
		out.Y[i] = s.Y[idx]
	}
	return out
}

// Weights returns abs(value) for every sample.
func (s Samples) Weights() []float64 {
	w := make([]float64, len(s.Values))
	for i, v := range s.Values {
		if v < 0 {
			v = -v
		}
		w[i] = v
	}
	return w
}
