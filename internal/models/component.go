package models

import (
	"fmt"
	"math"
)

// Component holds the initial values of one elliptical Gaussian, in order:
// amplitude, center x, center y, FWHM x, FWHM y, position angle (degrees).
type Component [6]float64

func (c Component) Amplitude() float64     { return c[0] }
func (c Component) CenterX() float64       { return c[1] }
func (c Component) CenterY() float64       { return c[2] }
func (c Component) FWHMX() float64         { return c[3] }
func (c Component) FWHMY() float64         { return c[4] }
func (c Component) PositionAngle() float64 { return c[5] }

// Finite reports whether every parameter is a finite number.
func (c Component) Finite() bool {
	for _, v := range c {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// String formats the component the way parameter tables are printed.
func (c Component) String() string {
	return fmt.Sprintf("amp: %.4f    center x: %.4f    center y: %.4f    fwhm x: %.4f    fwhm y: %.4f    pa: %.4f",
		c[0], c[1], c[2], c[3], c[4], c[5])
}

// Image is a flattened intensity map in row-major order
type Image struct {
	// Data is the image as a 1D array, len(Data) == Width*Height
	Data []float64

	// Width and Height are the image dimensions in pixels
	Width, Height int
}

// At returns the intensity at column x, row y.
func (img Image) At(x, y int) float64 {
	return img.Data[y*img.Width+x]
}
