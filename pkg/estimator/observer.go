package estimator

import "gaussinit/internal/models"

// Stages reported to Observer.SamplesSelected.
const (
	StageClustering = "clustering"
	StageEstimation = "estimation"
	StageComponent  = "component"
)

// Observer receives intermediate results for diagnostics. Observers must
// not modify what they are given and cannot influence the estimate.
type Observer interface {
	// SamplesSelected is called after a selection filter ran. total is the
	// number of samples before filtering.
	SamplesSelected(stage string, selected models.Samples, total int)

	// ScoresComputed is called after the automatic component search.
	// scores[i] belongs to i+2 components.
	ScoresComputed(scores []float64, chosen int)

	// ComponentsEstimated is called with the final result.
	ComponentsEstimated(image models.Image, components []models.Component)
}

// NopObserver ignores everything.
type NopObserver struct{}

func (NopObserver) SamplesSelected(string, models.Samples, int)          {}
func (NopObserver) ScoresComputed([]float64, int)                        {}
func (NopObserver) ComponentsEstimated(models.Image, []models.Component) {}
