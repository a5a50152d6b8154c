package clustering

import (
	"fmt"
	"math"

	"github.com/rs/zerolog/log"

	"gaussinit/internal/models"
)

// MaxIterations caps the number of K-means iterations.
const MaxIterations = 10

// convergenceShift is the centroid movement, per axis, below which
// K-means stops early.
const convergenceShift = 1.0

// Result is the outcome of a K-means run.
type Result struct {
	// Assignment maps every sample to its cluster index in [0, n)
	Assignment []int

	// CentroidX and CentroidY are the final cluster centers
	CentroidX, CentroidY []float64

	// Iterations is the number of iterations performed
	Iterations int

	// Converged is false when the iteration cap was reached first
	Converged bool
}

// Clusters returns the number of centroids.
func (r Result) Clusters() int {
	return len(r.CentroidX)
}

// Members returns the sample indices of every cluster, in sample order.
func (r Result) Members() [][]int {
	return Group(r.Assignment, r.Clusters())
}

// KMeans refines the initial centroids with an abs(value) weighted
// K-means. It runs at most MaxIterations iterations and stops as soon as
// no centroid moved by 1 or more along either axis.
//
// A cluster that receives no weight in an iteration keeps its previous
// centroid.
func KMeans(samples models.Samples, initX, initY []float64) (Result, error) {
	if len(initX) == 0 || len(initX) != len(initY) {
		return Result{}, fmt.Errorf("%w: got %d/%d initial centroid coordinates",
			models.ErrConfiguration, len(initX), len(initY))
	}
	if samples.Len() == 0 {
		return Result{}, fmt.Errorf("%w: no samples to cluster", models.ErrEmptySelection)
	}
	if !samples.Valid() {
		return Result{}, fmt.Errorf("%w: sample arrays have different lengths", models.ErrConfiguration)
	}

	n := len(initX)
	weights := samples.Weights()

	res := Result{
		CentroidX: append([]float64(nil), initX...),
		CentroidY: append([]float64(nil), initY...),
	}

	sumW := make([]float64, n)
	sumX := make([]float64, n)
	sumY := make([]float64, n)

	for res.Iterations < MaxIterations {
		res.Iterations++
		res.Assignment = assign(samples, weights, res.CentroidX, res.CentroidY)

		for j := 0; j < n; j++ {
			sumW[j], sumX[j], sumY[j] = 0, 0, 0
		}
		for i, c := range res.Assignment {
			sumW[c] += weights[i]
			sumX[c] += weights[i] * samples.X[i]
			sumY[c] += weights[i] * samples.Y[i]
		}

		converged := true
		for j := 0; j < n; j++ {
			if sumW[j] == 0 {
				log.Debug().
					Int("cluster", j).
					Int("iteration", res.Iterations).
					Msg("cluster has no weight, keeping previous centroid")
				continue
			}
			x := sumX[j] / sumW[j]
			y := sumY[j] / sumW[j]
			if math.Abs(x-res.CentroidX[j]) >= convergenceShift || math.Abs(y-res.CentroidY[j]) >= convergenceShift {
				converged = false
			}
			res.CentroidX[j] = x
			res.CentroidY[j] = y
		}

		if converged {
			res.Converged = true
			break
		}
	}

	log.Debug().
		Int("clusters", n).
		Int("iterations", res.Iterations).
		Bool("converged", res.Converged).
		Msg("k-means finished")

	return res, nil
}

// Assign maps every sample to the centroid with the smallest abs(value)
// weighted distance. Ties, including every zero-valued sample, go to the
// lowest centroid index.
func Assign(samples models.Samples, centroidX, centroidY []float64) []int {
	return assign(samples, samples.Weights(), centroidX, centroidY)
}

func assign(samples models.Samples, weights, centroidX, centroidY []float64) []int {
	assignment := make([]int, samples.Len())
	if len(centroidX) == 0 {
		return assignment
	}

	best := weightedDistances(make([]float64, samples.Len()), samples, weights, centroidX[0], centroidY[0])
	dist := make([]float64, samples.Len())
	for j := 1; j < len(centroidX); j++ {
		weightedDistances(dist, samples, weights, centroidX[j], centroidY[j])
		for i, d := range dist {
			if d < best[i] {
				best[i] = d
				assignment[i] = j
			}
		}
	}
	return assignment
}

// Group returns the sample indices of each of the n clusters named by
// assignment, in sample order. Clusters without samples stay nil.
func Group(assignment []int, n int) [][]int {
	groups := make([][]int, n)
	for i, c := range assignment {
		groups[c] = append(groups[c], i)
	}
	return groups
}
