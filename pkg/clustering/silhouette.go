package clustering

import (
	"fmt"
	"math"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/stat"

	"gaussinit/internal/models"
)

// Silhouette returns the mean silhouette score of a partition, in [-1, 1].
//
// For every sample, a is the mean (unweighted) distance to the other
// members of its cluster and b the mean distance to the members of the
// cluster whose centroid is the second closest to the sample. The sample
// score is (b-a)/max(a, b), or 0 when both are 0. Empty clusters and
// singletons contribute a mean distance of 0.
//
// Per-sample scores are computed by up to workers goroutines; workers <= 0
// uses every CPU. The result does not depend on the worker count.
func Silhouette(samples models.Samples, centroidX, centroidY []float64, assignment []int, workers int) (float64, error) {
	n := len(centroidX)
	if n < 2 || len(centroidY) != n {
		return 0, fmt.Errorf("%w: silhouette needs at least 2 clusters, got %d", models.ErrConfiguration, n)
	}
	if samples.Len() == 0 {
		return 0, fmt.Errorf("%w: no samples to score", models.ErrEmptySelection)
	}
	if len(assignment) != samples.Len() || !samples.Valid() {
		return 0, fmt.Errorf("%w: assignment has %d entries for %d samples",
			models.ErrConfiguration, len(assignment), samples.Len())
	}
	for i, c := range assignment {
		if c < 0 || c >= n {
			return 0, fmt.Errorf("%w: sample %d assigned to cluster %d of %d",
				models.ErrConfiguration, i, c, n)
		}
	}

	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > samples.Len() {
		workers = samples.Len()
	}

	groups := Group(assignment, n)
	scores := make([]float64, samples.Len())

	chunk := (samples.Len() + workers - 1) / workers
	var wg sync.WaitGroup
	for start := 0; start < samples.Len(); start += chunk {
		end := start + chunk
		if end > samples.Len() {
			end = samples.Len()
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				scores[i] = sampleScore(samples, i, assignment[i], groups, centroidX, centroidY)
			}
		}(start, end)
	}
	wg.Wait()

	return stat.Mean(scores, nil), nil
}

func sampleScore(samples models.Samples, i, own int, groups [][]int, centroidX, centroidY []float64) float64 {
	x, y := samples.X[i], samples.Y[i]

	a := meanDistance(samples, x, y, groups[own], i)
	b := meanDistance(samples, x, y, groups[secondNearest(x, y, centroidX, centroidY)], -1)

	m := math.Max(a, b)
	if m == 0 {
		return 0
	}
	return (b - a) / m
}

// secondNearest returns the index of the second entry when centroids are
// ranked by distance to (x, y). Equal distances rank by centroid index.
func secondNearest(x, y float64, centroidX, centroidY []float64) int {
	first, second := -1, -1
	var d1, d2 float64
	for j := range centroidX {
		dx := centroidX[j] - x
		dy := centroidY[j] - y
		d := math.Sqrt(dx*dx + dy*dy)
		switch {
		case first < 0 || d < d1:
			second, d2 = first, d1
			first, d1 = j, d
		case second < 0 || d < d2:
			second, d2 = j, d
		}
	}
	return second
}

// meanDistance is the mean distance from (x, y) to the listed samples,
// leaving out the sample at index skip.
func meanDistance(samples models.Samples, x, y float64, indices []int, skip int) float64 {
	var sum float64
	count := 0
	for _, j := range indices {
		if j == skip {
			continue
		}
		dx := samples.X[j] - x
		dy := samples.Y[j] - y
		sum += math.Sqrt(dx*dx + dy*dy)
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}
