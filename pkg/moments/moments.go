// Package moments estimates the parameters of a single 2D Gaussian from
// weighted image samples using the method of moments.
package moments

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"gaussinit/internal/models"
)

// SigmaToFWHM converts a standard deviation to a full width at half
// maximum: sqrt(8 ln 2).
const SigmaToFWHM = 2.3548200450309493

// zeroMomentTolerance bounds |m0| relative to the summed absolute weights.
// Below it the moments are dominated by cancellation error.
const zeroMomentTolerance = 1e-12

// Estimate returns amplitude, center, FWHM along both axes and the position
// angle of the Gaussian described by the samples. Values are used as
// weights as-is, so negative (absorption) components yield a negative
// amplitude.
//
// The position angle is -0.5*atan2(2*mxy, myy-mxx) in degrees, which is
// equal to the generating angle modulo 180.
func Estimate(samples models.Samples) (models.Component, error) {
	if samples.Len() == 0 {
		return models.Component{}, fmt.Errorf("%w: no samples for moment estimate", models.ErrEmptySelection)
	}
	if !samples.Valid() {
		return models.Component{}, fmt.Errorf("%w: sample arrays have different lengths", models.ErrConfiguration)
	}

	data, dataX, dataY := samples.Values, samples.X, samples.Y

	m0 := floats.Sum(data)
	if math.IsNaN(m0) || math.Abs(m0) <= zeroMomentTolerance*floats.Sum(samples.Weights()) {
		return models.Component{}, fmt.Errorf("%w: zeroth moment %v is near zero", models.ErrNumericDegeneracy, m0)
	}

	sq := make([]float64, len(data))

	mx := floats.Dot(dataX, data) / m0
	my := floats.Dot(dataY, data) / m0

	floats.MulTo(sq, dataX, dataX)
	mxx := floats.Dot(sq, data)/m0 - mx*mx
	floats.MulTo(sq, dataY, dataY)
	myy := floats.Dot(sq, data)/m0 - my*my
	floats.MulTo(sq, dataX, dataY)
	mxy := floats.Dot(sq, data)/m0 - mx*my

	amp := m0 * 0.5 * math.Pow(math.Abs(mxx*myy-mxy*mxy), -0.5) / math.Pi

	tmp := math.Sqrt((mxx-myy)*(mxx-myy) + 4*mxy*mxy)
	sigmaX := math.Sqrt(0.5 * math.Abs(mxx+myy+tmp))
	sigmaY := math.Sqrt(0.5 * math.Abs(mxx+myy-tmp))

	theta := -0.5 * math.Atan2(2*mxy, myy-mxx) * 180 / math.Pi

	c := models.Component{amp, mx, my, sigmaX * SigmaToFWHM, sigmaY * SigmaToFWHM, theta}
	if !c.Finite() {
		return c, fmt.Errorf("%w: moment estimate is not finite (%v)", models.ErrNumericDegeneracy, c)
	}
	return c, nil
}
