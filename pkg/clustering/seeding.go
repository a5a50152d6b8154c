// Package clustering partitions image samples among Gaussian components
// with an intensity-weighted K-means and scores partitions with the
// silhouette metric. Weights are abs(value), so absorption features
// attract centroids the same way emission features do.
package clustering

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"gaussinit/internal/models"
)

// KMeansPlusPlus picks n initial centroids. The first one is the sample
// with the largest abs(value); every following one is the sample with the
// largest abs(value) times distance to its nearest chosen centroid. The
// selection is deterministic, ties go to the lowest sample index.
func KMeansPlusPlus(samples models.Samples, n int) ([]float64, []float64, error) {
	if n < 1 {
		return nil, nil, fmt.Errorf("%w: cannot seed %d centroids", models.ErrConfiguration, n)
	}
	if samples.Len() == 0 {
		return nil, nil, fmt.Errorf("%w: no samples to seed centroids from", models.ErrEmptySelection)
	}
	if !samples.Valid() {
		return nil, nil, fmt.Errorf("%w: sample arrays have different lengths", models.ErrConfiguration)
	}

	weights := samples.Weights()
	centroidX := make([]float64, n)
	centroidY := make([]float64, n)

	first := floats.MaxIdx(weights)
	centroidX[0] = samples.X[first]
	centroidY[0] = samples.Y[first]

	if n == 1 {
		return centroidX, centroidY, nil
	}

	// nearest holds the weighted distance to the closest chosen centroid
	nearest := weightedDistances(make([]float64, samples.Len()), samples, weights, centroidX[0], centroidY[0])
	next := make([]float64, samples.Len())

	for i := 1; i < n; i++ {
		if i > 1 {
			weightedDistances(next, samples, weights, centroidX[i-1], centroidY[i-1])
			for j, d := range next {
				nearest[j] = math.Min(nearest[j], d)
			}
		}
		idx := floats.MaxIdx(nearest)
		centroidX[i] = samples.X[idx]
		centroidY[i] = samples.Y[idx]
	}

	return centroidX, centroidY, nil
}

// distances fills dst with the Euclidean distance of every sample to (cx, cy).
func distances(dst []float64, samples models.Samples, cx, cy float64) []float64 {
	for i := range dst {
		dx := samples.X[i] - cx
		dy := samples.Y[i] - cy
		dst[i] = math.Sqrt(dx*dx + dy*dy)
	}
	return dst
}

// weightedDistances fills dst with abs(value) * distance to (cx, cy).
func weightedDistances(dst []float64, samples models.Samples, weights []float64, cx, cy float64) []float64 {
	distances(dst, samples, cx, cy)
	floats.Mul(dst, weights)
	return dst
}
