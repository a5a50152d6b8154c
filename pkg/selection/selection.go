// Package selection discards samples that are unlikely to belong to any
// source before clustering or moment estimation.
package selection

import (
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/stat"

	"gaussinit/internal/models"
	"gaussinit/pkg/moments"
)

// Method is a data selection criterion.
type Method string

const (
	None              Method = ""
	ThreeSigma        Method = "3-sigma"
	MAD               Method = "mad"
	TwoMAD            Method = "2-mad"
	ThreeMAD          Method = "3-mad"
	FWHMEstimate      Method = "fwhm-estimate"
	TwoFWHMEstimate   Method = "2-fwhm-estimate"
	ThreeFWHMEstimate Method = "3-fwhm-estimate"
)

// madScale makes the median absolute deviation a consistent estimator of
// the standard deviation for normally distributed noise.
const madScale = 1.4826

// Methods lists every recognized selection method.
var Methods = []Method{
	ThreeSigma, MAD, TwoMAD, ThreeMAD, FWHMEstimate, TwoFWHMEstimate, ThreeFWHMEstimate,
}

// ParseMethod converts a method name. The empty string and "none" mean no
// selection.
func ParseMethod(name string) (Method, error) {
	if name == "" || name == "none" {
		return None, nil
	}
	for _, m := range Methods {
		if string(m) == name {
			return m, nil
		}
	}
	return None, fmt.Errorf("%w: unknown selection method %q", models.ErrConfiguration, name)
}

// IsFWHM reports whether the method needs a provisional moment estimate.
func (m Method) IsFWHM() bool {
	return m == FWHMEstimate || m == TwoFWHMEstimate || m == ThreeFWHMEstimate
}

// Multiplier returns the threshold multiplier k of the method.
func (m Method) Multiplier() float64 {
	switch m {
	case TwoMAD, TwoFWHMEstimate:
		return 2
	case ThreeSigma, ThreeMAD, ThreeFWHMEstimate:
		return 3
	default:
		return 1
	}
}

func (m Method) String() string {
	if m == None {
		return "none"
	}
	return string(m)
}

// Stats describes the statistic a selection was computed from.
type Stats struct {
	// Scale is the std or mad of the intensities (intensity methods)
	Scale float64

	// Threshold is k*Scale; samples with |value| above it are kept
	Threshold float64

	// FWHMX and FWHMY are the provisional widths (FWHM methods)
	FWHMX, FWHMY float64

	// CenterX and CenterY are the provisional center (FWHM methods)
	CenterX, CenterY float64

	// Radius is the kept radius around the provisional center
	Radius float64
}

// Indices returns the indices of the samples kept by the method, in
// increasing order. None keeps everything.
func Indices(method Method, samples models.Samples) ([]int, Stats, error) {
	if samples.Len() == 0 {
		return nil, Stats{}, fmt.Errorf("%w: no samples to select from", models.ErrEmptySelection)
	}
	if !samples.Valid() {
		return nil, Stats{}, fmt.Errorf("%w: sample arrays have different lengths", models.ErrConfiguration)
	}

	k := method.Multiplier()

	switch method {
	case None:
		indices := make([]int, samples.Len())
		for i := range indices {
			indices[i] = i
		}
		return indices, Stats{}, nil

	case ThreeSigma:
		std := stat.PopStdDev(samples.Values, nil)
		st := Stats{Scale: std, Threshold: k * std}
		return outside(samples.Values, st.Threshold), st, nil

	case MAD, TwoMAD, ThreeMAD:
		mad := madScale * medianAbsoluteDeviation(samples.Values)
		st := Stats{Scale: mad, Threshold: k * mad}
		return outside(samples.Values, st.Threshold), st, nil

	case FWHMEstimate, TwoFWHMEstimate, ThreeFWHMEstimate:
		c, err := moments.Estimate(samples)
		if err != nil {
			return nil, Stats{}, fmt.Errorf("provisional estimate for %s: %w", method, err)
		}
		size := math.Max(c.FWHMX(), c.FWHMY())
		st := Stats{
			FWHMX:   c.FWHMX(),
			FWHMY:   c.FWHMY(),
			CenterX: c.CenterX(),
			CenterY: c.CenterY(),
			Radius:  size / 2 * k,
		}
		var indices []int
		for i := range samples.Values {
			if math.Hypot(samples.X[i]-st.CenterX, samples.Y[i]-st.CenterY) <= st.Radius {
				indices = append(indices, i)
			}
		}
		return indices, st, nil
	}

	return nil, Stats{}, fmt.Errorf("%w: unknown selection method %q", models.ErrConfiguration, string(method))
}

// Filter applies the method to the samples and returns the kept subset,
// index-aligned and in the original order. An empty result is an
// ErrEmptySelection.
func Filter(method Method, samples models.Samples) (models.Samples, Stats, error) {
	indices, st, err := Indices(method, samples)
	if err != nil {
		return models.Samples{}, st, err
	}

	log.Debug().
		Str("method", method.String()).
		Int("selected", len(indices)).
		Int("total", samples.Len()).
		Float64("scale", st.Scale).
		Float64("threshold", st.Threshold).
		Float64("radius", st.Radius).
		Msg("data selection")

	if len(indices) == 0 {
		return models.Samples{}, st, fmt.Errorf("%w: %s excluded all %d samples",
			models.ErrEmptySelection, method, samples.Len())
	}
	return samples.Subset(indices), st, nil
}

// outside returns the indices of values strictly beyond +/- threshold.
func outside(values []float64, threshold float64) []int {
	var indices []int
	for i, v := range values {
		if v > threshold || v < -threshold {
			indices = append(indices, i)
		}
	}
	return indices
}

func medianAbsoluteDeviation(values []float64) float64 {
	m := median(values)
	dev := make([]float64, len(values))
	for i, v := range values {
		dev[i] = math.Abs(v - m)
	}
	return median(dev)
}

// median returns the middle value, averaging the two central values of an
// even-length input. The input is not modified.
func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
