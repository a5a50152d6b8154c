// Package estimator produces initial values for fitting one or more 2D
// elliptical Gaussians to an intensity image.
//
// The pipeline is:
//  1. Optionally select the samples used for clustering
//  2. Choose the number of components when it is not given, by
//     clustering with 1..MaxComponents components and scoring each
//     partition with the silhouette metric
//  3. Cluster the samples with a weighted K-means
//  4. Estimate every component with the method of moments
package estimator

import (
	"fmt"
	"runtime"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"

	"gaussinit/internal/models"
	"gaussinit/pkg/clustering"
	"gaussinit/pkg/moments"
	"gaussinit/pkg/selection"
)

const (
	// Auto requests automatic selection of the component count.
	Auto = 0

	// MaxComponents is the largest supported component count.
	MaxComponents = 10

	// AcceptScore is the best silhouette score needed to prefer more than
	// one component during automatic selection.
	AcceptScore = 0.6
)

// Params configures an Estimator. It is copied on construction.
type Params struct {
	// Selection filters the samples used for the moment estimates. The
	// FWHM family is applied per component, the others to the whole image.
	Selection selection.Method

	// ClusteringSelection filters the samples used for clustering.
	ClusteringSelection selection.Method

	// Workers bounds the goroutines used to score partitions
	Workers int

	// Observer receives intermediate results; nil means NopObserver
	Observer Observer
}

// DefaultParams returns parameters without any data selection.
func DefaultParams() Params {
	return Params{
		Workers:  runtime.NumCPU(),
		Observer: NopObserver{},
	}
}

// Estimator turns intensity images into Gaussian initial values. It holds
// no mutable state and may be shared between goroutines as long as its
// Observer is safe for concurrent use.
type Estimator struct {
	params Params
}

// New creates an estimator with the given parameters.
func New(params Params) *Estimator {
	if params.Observer == nil {
		params.Observer = NopObserver{}
	}
	return &Estimator{params: params}
}

// Params returns the estimator configuration.
func (e *Estimator) Params() Params {
	return e.params
}

// Estimate returns one parameter set per Gaussian component found in the
// width x height row-major intensity array, in cluster index order.
// n is the number of components, or Auto to choose it from the data.
func (e *Estimator) Estimate(data []float64, width, height, n int) ([]models.Component, error) {
	if n < Auto || n > MaxComponents {
		return nil, fmt.Errorf("%w: invalid Gaussian component number %d (must be %d..%d or auto)",
			models.ErrConfiguration, n, 1, MaxComponents)
	}

	samples, err := models.NewGridSamples(data, width, height)
	if err != nil {
		return nil, err
	}

	var clusteringSet models.Samples
	if n != 1 {
		clusteringSet, err = e.selectSamples(StageClustering, e.params.ClusteringSelection, samples)
		if err != nil {
			return nil, fmt.Errorf("clustering data selection: %w", err)
		}
	}

	if n == Auto {
		n, err = e.componentCount(clusteringSet)
		if err != nil {
			return nil, err
		}
	}

	var components []models.Component
	if n == 1 {
		components, err = e.estimateSingle(samples)
	} else {
		components, err = e.estimateClustered(samples, clusteringSet, n)
	}
	if err != nil {
		return nil, err
	}

	e.params.Observer.ComponentsEstimated(models.Image{Data: data, Width: width, Height: height}, components)
	return components, nil
}

// componentCount clusters with an increasing number of components until
// the silhouette score drops three times in a row, and returns the count
// with the best score if that score reaches AcceptScore, else 1.
func (e *Estimator) componentCount(samples models.Samples) (int, error) {
	scores := make([]float64, 0, MaxComponents-1)

	for count := 1; count <= MaxComponents; count++ {
		log.Info().Int("components", count).Msg("clustering")

		res, err := e.cluster(samples, count)
		if err != nil {
			return 0, err
		}

		if count > 1 {
			score, err := clustering.Silhouette(samples, res.CentroidX, res.CentroidY, res.Assignment, e.params.Workers)
			if err != nil {
				return 0, fmt.Errorf("scoring %d components: %w", count, err)
			}
			log.Debug().Int("components", count).Float64("score", score).Msg("silhouette score")
			scores = append(scores, score)
		}

		if decreasing(scores) {
			break
		}
	}

	n := 1
	best := floats.MaxIdx(scores)
	if scores[best] >= AcceptScore {
		n = best + 2
	}

	log.Info().
		Floats64("scores", scores).
		Int("components", n).
		Msg("best component number")
	e.params.Observer.ScoresComputed(scores, n)

	return n, nil
}

// decreasing reports whether the last three scores strictly decrease.
func decreasing(scores []float64) bool {
	k := len(scores)
	return k >= 3 && scores[k-1] < scores[k-2] && scores[k-2] < scores[k-3]
}

func (e *Estimator) cluster(samples models.Samples, n int) (clustering.Result, error) {
	cx, cy, err := clustering.KMeansPlusPlus(samples, n)
	if err != nil {
		return clustering.Result{}, fmt.Errorf("seeding %d components: %w", n, err)
	}
	res, err := clustering.KMeans(samples, cx, cy)
	if err != nil {
		return clustering.Result{}, fmt.Errorf("clustering %d components: %w", n, err)
	}
	return res, nil
}

func (e *Estimator) estimateSingle(samples models.Samples) ([]models.Component, error) {
	selected, err := e.selectSamples(StageEstimation, e.params.Selection, samples)
	if err != nil {
		return nil, fmt.Errorf("estimation data selection: %w", err)
	}

	c, err := moments.Estimate(selected)
	if err != nil {
		return nil, fmt.Errorf("component 0: %w", err)
	}
	return []models.Component{c}, nil
}

// estimateClustered clusters the clustering set, assigns the estimation
// set to the resulting centroids and estimates every cluster separately.
func (e *Estimator) estimateClustered(samples, clusteringSet models.Samples, n int) ([]models.Component, error) {
	res, err := e.cluster(clusteringSet, n)
	if err != nil {
		return nil, err
	}

	method := e.params.Selection
	estimationSet := samples
	if method != selection.None && !method.IsFWHM() {
		estimationSet, err = e.selectSamples(StageEstimation, method, samples)
		if err != nil {
			return nil, fmt.Errorf("estimation data selection: %w", err)
		}
	}

	assignment := clustering.Assign(estimationSet, res.CentroidX, res.CentroidY)
	groups := clustering.Group(assignment, n)

	components := make([]models.Component, n)
	for i, group := range groups {
		if len(group) == 0 {
			return nil, fmt.Errorf("%w: component %d has no samples", models.ErrNumericDegeneracy, i)
		}

		cluster := estimationSet.Subset(group)
		if method.IsFWHM() {
			cluster, err = e.selectSamples(StageComponent, method, cluster)
			if err != nil {
				return nil, fmt.Errorf("component %d data selection: %w", i, err)
			}
		}

		components[i], err = moments.Estimate(cluster)
		if err != nil {
			return nil, fmt.Errorf("component %d: %w", i, err)
		}
	}
	return components, nil
}

// selectSamples filters with the method and reports the result to the
// observer. None returns the samples unchanged.
func (e *Estimator) selectSamples(stage string, method selection.Method, samples models.Samples) (models.Samples, error) {
	if method == selection.None {
		return samples, nil
	}

	selected, _, err := selection.Filter(method, samples)
	if err != nil {
		return models.Samples{}, err
	}

	log.Info().
		Str("stage", stage).
		Str("method", method.String()).
		Int("selected", selected.Len()).
		Int("total", samples.Len()).
		Msg("selected data")
	e.params.Observer.SamplesSelected(stage, selected, samples.Len())

	return selected, nil
}

// Guess estimates n components without any data selection. Pass Auto to
// choose the component count from the data.
func Guess(data []float64, width, height, n int) ([]models.Component, error) {
	return New(DefaultParams()).Estimate(data, width, height, n)
}
