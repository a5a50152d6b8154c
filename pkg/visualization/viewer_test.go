package visualization

import (
	"image"
	"math"
	"os"
	"path/filepath"
	"testing"

	"gaussinit/internal/models"
	"gaussinit/pkg/estimator"
	"gaussinit/pkg/selection"
	"gaussinit/pkg/synthetic"
)

// TestRender verifies that intensities are scaled onto the full gray range
func TestRender(t *testing.T) {
	width, height := 4, 3
	data := make([]float64, width*height)
	for i := range data {
		data[i] = float64(i) - 5
	}

	img, err := NewViewer(data, width, height).Render()
	if err != nil {
		t.Fatalf("Failed to render: %v", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() != width || bounds.Dy() != height {
		t.Errorf("Expected dimensions %dx%d, got %dx%d", width, height, bounds.Dx(), bounds.Dy())
	}
	if got := img.Gray16At(0, 0).Y; got != 0 {
		t.Errorf("Expected minimum to map to 0, got %d", got)
	}
	if got := img.Gray16At(width-1, height-1).Y; got != 65535 {
		t.Errorf("Expected maximum to map to 65535, got %d", got)
	}

	// mismatched data
	if _, err := NewViewer(data[:5], width, height).Render(); err == nil {
		t.Error("Expected error for short data, got nil")
	}
}

// TestRenderSamples verifies that excluded pixels stay black
func TestRenderSamples(t *testing.T) {
	width, height := 4, 4
	data := make([]float64, width*height)
	for i := range data {
		data[i] = float64(i)
	}
	all, err := models.NewGridSamples(data, width, height)
	if err != nil {
		t.Fatalf("Failed to build samples: %v", err)
	}
	kept := all.Subset([]int{5, 6, 10})

	img, err := NewViewer(data, width, height).RenderSamples(kept)
	if err != nil {
		t.Fatalf("Failed to render samples: %v", err)
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := img.Gray16At(x, y).Y
			switch y*width + x {
			case 5:
				if v != minVisible {
					t.Errorf("Expected lowest kept sample at %d, got %d", minVisible, v)
				}
			case 10:
				if v != 65535 {
					t.Errorf("Expected highest kept sample at 65535, got %d", v)
				}
			case 6:
				if v <= minVisible || v >= 65535 {
					t.Errorf("Expected intermediate gray level, got %d", v)
				}
			default:
				if v != 0 {
					t.Errorf("Expected excluded pixel (%d,%d) to be black, got %d", x, y, v)
				}
			}
		}
	}

	outside := models.Samples{Values: []float64{1}, X: []float64{4}, Y: []float64{0}}
	if _, err := NewViewer(data, width, height).RenderSamples(outside); err == nil {
		t.Error("Expected error for sample outside the image, got nil")
	}
}

// TestEllipse verifies the contour orientation for axis aligned components
func TestEllipse(t *testing.T) {
	tests := map[string]struct {
		component models.Component
		first     [2]float64
		second    [2]float64
	}{
		"pa 90": {models.Component{1, 10, 10, 8, 4, 90}, [2]float64{14, 10}, [2]float64{10, 12}},
		"pa 0":  {models.Component{1, 10, 10, 8, 4, 0}, [2]float64{10, 6}, [2]float64{12, 10}},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			pts := Ellipse(tt.component, 4)
			if len(pts) != 4 {
				t.Fatalf("Expected 4 points, got %d", len(pts))
			}
			for i, want := range [][2]float64{tt.first, tt.second} {
				if math.Abs(pts[i][0]-want[0]) > 1e-9 || math.Abs(pts[i][1]-want[1]) > 1e-9 {
					t.Errorf("Point %d: expected %v, got %v", i, want, pts[i])
				}
			}
		})
	}
}

// TestScoreCurve verifies the plot size and the chosen count marker
func TestScoreCurve(t *testing.T) {
	img := ScoreCurve([]float64{0.3, 0.9, 0.5}, 3, estimator.AcceptScore)

	bounds := img.Bounds()
	if bounds.Dx() != PlotWidth || bounds.Dy() != PlotHeight {
		t.Errorf("Expected %dx%d plot, got %dx%d", PlotWidth, PlotHeight, bounds.Dx(), bounds.Dy())
	}

	// the second score belongs to three components
	x := plotMargin + (PlotWidth-plotMargin/2-plotMargin)/2
	y := int(float64(PlotHeight-plotMargin) - 1.9/2*float64(PlotHeight-plotMargin-plotMargin/2))
	c := img.RGBAAt(x, y)
	if c.R < 200 || c.G > 80 || c.B > 80 {
		t.Errorf("Expected marker color at (%d,%d), got %v", x, y, c)
	}

	// a single score still renders
	if single := ScoreCurve([]float64{0.2}, 1, estimator.AcceptScore); single.Bounds().Dx() != PlotWidth {
		t.Error("Expected single score plot to render")
	}
}

// TestOverlay verifies scaling and the center marker
func TestOverlay(t *testing.T) {
	width, height := 16, 16
	c := models.Component{1, 8, 8, 6, 4, 30}
	img := synthetic.NewGenerator(width, height, 1).Render([]models.Component{c})

	out, err := NewImageViewer(img).Overlay([]models.Component{c}, 4)
	if err != nil {
		t.Fatalf("Failed to render overlay: %v", err)
	}
	if out.Bounds().Dx() != width*4 || out.Bounds().Dy() != height*4 {
		t.Errorf("Expected %dx%d overlay, got %v", width*4, height*4, out.Bounds())
	}

	center := out.RGBAAt(34, 34)
	if center.R < 200 || center.G > 80 {
		t.Errorf("Expected center marker at (34,34), got %v", center)
	}

	if _, err := NewImageViewer(img).Overlay(nil, 0); err == nil {
		t.Error("Expected error for zero scale, got nil")
	}
}

// TestSaveImage verifies that plots can be saved to disk
func TestSaveImage(t *testing.T) {
	tempDir := t.TempDir()
	img := image.NewGray16(image.Rect(0, 0, 8, 8))

	for _, name := range []string{"plot.jpg", "nested/plot.png"} {
		filename := filepath.Join(tempDir, name)
		if err := SaveImage(img, filename); err != nil {
			t.Fatalf("Failed to save %s: %v", name, err)
		}
		if _, err := os.Stat(filename); os.IsNotExist(err) {
			t.Errorf("Saved file does not exist: %s", filename)
		}
	}

	if err := SaveImage(img, filepath.Join(tempDir, "plot.bmp")); err == nil {
		t.Error("Expected error for unsupported format, got nil")
	}
}

// TestReporter runs an automatic estimate with the reporter attached
func TestReporter(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping file I/O test in short mode")
	}

	width, height := 40, 24
	img := synthetic.NewGenerator(width, height, 3).Render([]models.Component{
		{1, 10, 12, 4, 4, 0},
		{0.9, 30, 12, 4, 5, 45},
	})

	dir := t.TempDir()
	reporter := NewReporter(dir, width, height)

	params := estimator.DefaultParams()
	params.ClusteringSelection = selection.ThreeSigma
	params.Observer = reporter

	if _, err := estimator.New(params).Estimate(img.Data, width, height, estimator.Auto); err != nil {
		t.Fatalf("Failed to estimate: %v", err)
	}

	if reporter.Failed() != 0 {
		t.Errorf("Expected no failed plots, got %d", reporter.Failed())
	}
	for _, name := range []string{"01_selected_clustering.png", "silhouette_scores.png", "estimates.png"} {
		filename := filepath.Join(dir, name)
		if _, err := os.Stat(filename); os.IsNotExist(err) {
			t.Errorf("Expected plot does not exist: %s", filename)
		}
	}
	if len(reporter.Files()) != 3 {
		t.Errorf("Expected 3 plots, got %v", reporter.Files())
	}
}

// TestReporter_WriteFailure verifies that write errors are counted
func TestReporter_WriteFailure(t *testing.T) {
	blocked := filepath.Join(t.TempDir(), "blocked")
	if err := os.WriteFile(blocked, nil, 0644); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}

	reporter := NewReporter(blocked, 4, 4)
	reporter.ScoresComputed([]float64{0.1, 0.2}, 1)

	if reporter.Failed() != 1 {
		t.Errorf("Expected one failed plot, got %d", reporter.Failed())
	}
	if len(reporter.Files()) != 0 {
		t.Errorf("Expected no files, got %v", reporter.Files())
	}
}
