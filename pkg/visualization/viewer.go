// Package visualization renders intensity images, selected samples and
// estimated components as raster images for inspection.
package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gaussinit/internal/models"
)

// minVisible is the darkest gray used for a kept sample, so that kept
// samples at the minimum value stay distinguishable from excluded ones.
const minVisible = 4096

// Viewer renders one intensity image and samples drawn from it.
type Viewer struct {
	// data holds the row-major intensities
	data []float64

	// dimensions of the image
	width  int
	height int
}

// NewViewer creates a viewer for a width x height row-major image
func NewViewer(data []float64, width, height int) *Viewer {
	return &Viewer{
		data:   data,
		width:  width,
		height: height,
	}
}

// NewImageViewer creates a viewer for img.
func NewImageViewer(img models.Image) *Viewer {
	return NewViewer(img.Data, img.Width, img.Height)
}

// Bounds returns the image rectangle.
func (v *Viewer) Bounds() image.Rectangle {
	return image.Rect(0, 0, v.width, v.height)
}

// Render maps the whole image linearly onto 16 bit gray levels, from the
// minimum to the maximum intensity.
func (v *Viewer) Render() (*image.Gray16, error) {
	if len(v.data) != v.width*v.height {
		return nil, fmt.Errorf("data length %d does not match %dx%d", len(v.data), v.width, v.height)
	}

	lo, hi := valueRange(v.data)
	img := image.NewGray16(v.Bounds())
	for y := 0; y < v.height; y++ {
		for x := 0; x < v.width; x++ {
			img.SetGray16(x, y, color.Gray16{Y: grayLevel(v.data[y*v.width+x], lo, hi, 0)})
		}
	}
	return img, nil
}

// RenderSamples draws only the given samples, leaving every other pixel
// black. Sample coordinates outside the image are an error.
func (v *Viewer) RenderSamples(samples models.Samples) (*image.Gray16, error) {
	if !samples.Valid() {
		return nil, fmt.Errorf("%w: misaligned samples", models.ErrConfiguration)
	}

	lo, hi := valueRange(samples.Values)
	img := image.NewGray16(v.Bounds())
	for i, val := range samples.Values {
		x, y := int(samples.X[i]), int(samples.Y[i])
		if !image.Pt(x, y).In(img.Rect) {
			return nil, fmt.Errorf("sample %d at (%d, %d) lies outside %dx%d", i, x, y, v.width, v.height)
		}
		img.SetGray16(x, y, color.Gray16{Y: grayLevel(val, lo, hi, minVisible)})
	}
	return img, nil
}

// SaveImage writes img as JPEG or PNG depending on the file extension,
// creating the parent directory if needed.
func SaveImage(img image.Image, filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return err
	}

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return jpeg.Encode(file, img, &jpeg.Options{Quality: 90})
	case ".png":
		return png.Encode(file, img)
	default:
		return fmt.Errorf("unsupported image format: %s", filename)
	}
}

func valueRange(values []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

// grayLevel scales v from [lo, hi] to [floor, 65535]. A flat range maps to
// the brightest level.
func grayLevel(v, lo, hi float64, floor uint16) uint16 {
	if math.IsNaN(v) {
		return 0
	}
	if !(hi > lo) {
		return 65535
	}
	t := (v - lo) / (hi - lo)
	return uint16(math.Max(float64(floor), math.Min(65535, float64(floor)+t*float64(65535-floor))))
}
