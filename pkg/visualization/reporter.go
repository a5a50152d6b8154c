package visualization

import (
	"fmt"
	"image"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"

	"gaussinit/internal/models"
	"gaussinit/pkg/estimator"
)

// OverlayScale is the upscaling factor of the estimate overlay.
const OverlayScale = 4

// Reporter writes diagnostic images to a directory while an estimate runs:
// the selected samples of every filter stage, the silhouette score curve
// and the estimated components drawn over the input image. Write errors
// are logged and never interrupt the estimate.
type Reporter struct {
	dir    string
	viewer *Viewer

	mu     sync.Mutex
	seq    int
	files  []string
	failed int
}

var _ estimator.Observer = (*Reporter)(nil)

// NewReporter creates a reporter for estimates of a width x height image.
func NewReporter(dir string, width, height int) *Reporter {
	return &Reporter{
		dir:    dir,
		viewer: NewViewer(nil, width, height),
	}
}

// Files returns the paths written so far.
func (r *Reporter) Files() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.files...)
}

// Failed returns the number of images that could not be written.
func (r *Reporter) Failed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failed
}

func (r *Reporter) SamplesSelected(stage string, selected models.Samples, total int) {
	img, err := r.viewer.RenderSamples(selected)
	if err != nil {
		r.fail("samples", err)
		return
	}

	r.mu.Lock()
	r.seq++
	name := fmt.Sprintf("%02d_selected_%s.png", r.seq, stage)
	r.mu.Unlock()

	log.Debug().
		Str("stage", stage).
		Int("selected", selected.Len()).
		Int("excluded", total-selected.Len()).
		Msg("plotting selected data")
	r.save(img, name)
}

func (r *Reporter) ScoresComputed(scores []float64, chosen int) {
	r.save(ScoreCurve(scores, chosen, estimator.AcceptScore), "silhouette_scores.png")
}

func (r *Reporter) ComponentsEstimated(input models.Image, components []models.Component) {
	img, err := NewImageViewer(input).Overlay(components, OverlayScale)
	if err != nil {
		r.fail("estimates", err)
		return
	}
	r.save(img, "estimates.png")
}

func (r *Reporter) save(img image.Image, name string) {
	path := filepath.Join(r.dir, name)
	if err := SaveImage(img, path); err != nil {
		r.fail(name, err)
		return
	}

	r.mu.Lock()
	r.files = append(r.files, path)
	r.mu.Unlock()
	log.Info().Str("file", path).Msg("saved plot")
}

func (r *Reporter) fail(what string, err error) {
	r.mu.Lock()
	r.failed++
	r.mu.Unlock()
	log.Warn().Err(err).Str("plot", what).Msg("could not write plot")
}
