// Package synthetic renders images made of elliptical 2D Gaussian
// components, optionally with Gaussian noise. It is used to exercise the
// estimator against known parameters.
package synthetic

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"gaussinit/internal/models"
)

// DefaultNoise is the standard deviation of the noise added by AddNoise
// when no other value is configured.
const DefaultNoise = 0.1

// MaxRandomComponents bounds the component count drawn by RandomComponents.
const MaxRandomComponents = 5

// Generator produces reproducible synthetic images for a fixed image size.
type Generator struct {
	width  int
	height int
	src    rand.Source
}

// NewGenerator creates a generator whose random draws are seeded with seed.
func NewGenerator(width, height int, seed uint64) *Generator {
	return &Generator{
		width:  width,
		height: height,
		src:    rand.NewSource(seed),
	}
}

// RandomComponents draws n random components. If n <= 0 the count itself
// is drawn from [1, MaxRandomComponents].
//
// Amplitudes are in [0.4, 1) with a one in three chance of being negative,
// centers lie in the central half of the image, widths between 1% and 20%
// of the image size and angles in [0, 360).
func (g *Generator) RandomComponents(n int) []models.Component {
	if n <= 0 {
		n = int(distuv.Uniform{Min: 1, Max: MaxRandomComponents + 1, Src: g.src}.Rand())
	}

	w, h := float64(g.width), float64(g.height)
	amp := distuv.Uniform{Min: 0.4, Max: 1, Src: g.src}
	negative := distuv.Bernoulli{P: 1.0 / 3, Src: g.src}
	cx := distuv.Uniform{Min: w * 0.25, Max: w * 0.75, Src: g.src}
	cy := distuv.Uniform{Min: h * 0.25, Max: h * 0.75, Src: g.src}
	fx := distuv.Uniform{Min: w * 0.01, Max: w * 0.2, Src: g.src}
	fy := distuv.Uniform{Min: h * 0.01, Max: h * 0.2, Src: g.src}
	pa := distuv.Uniform{Min: 0, Max: 360, Src: g.src}

	components := make([]models.Component, n)
	for i := range components {
		a := amp.Rand()
		if negative.Rand() == 1 {
			a = -a
		}
		components[i] = models.Component{a, cx.Rand(), cy.Rand(), fx.Rand(), fy.Rand(), pa.Rand()}
	}
	return components
}

// Render sums the given components over the image grid.
func (g *Generator) Render(components []models.Component) models.Image {
	img := models.Image{
		Data:   make([]float64, g.width*g.height),
		Width:  g.width,
		Height: g.height,
	}
	for _, c := range components {
		addComponent(img, c)
	}
	return img
}

// AddNoise adds zero-mean Gaussian noise with the given standard deviation.
func (g *Generator) AddNoise(img models.Image, std float64) {
	if std <= 0 {
		return
	}
	noise := distuv.Normal{Mu: 0, Sigma: std, Src: g.src}
	for i := range img.Data {
		img.Data[i] += noise.Rand()
	}
}

// addComponent evaluates one rotated Gaussian at every pixel. The position
// angle is counterclockwise with 0 along the y axis.
func addComponent(img models.Image, c models.Component) {
	sqFWHMToSigma := 1 / (8 * math.Ln2)

	dblSqStdX := 2 * c.FWHMX() * c.FWHMX() * sqFWHMToSigma
	dblSqStdY := 2 * c.FWHMY() * c.FWHMY() * sqFWHMToSigma
	theta := (c.PositionAngle() - 90) * math.Pi / 180

	cos, sin := math.Cos(theta), math.Sin(theta)
	sin2 := math.Sin(2 * theta)

	a := cos*cos/dblSqStdX + sin*sin/dblSqStdY
	dblB := 2 * (sin2/(2*dblSqStdX) - sin2/(2*dblSqStdY))
	cc := sin*sin/dblSqStdX + cos*cos/dblSqStdY

	for y := 0; y < img.Height; y++ {
		dy := float64(y) - c.CenterY()
		for x := 0; x < img.Width; x++ {
			dx := float64(x) - c.CenterX()
			img.Data[y*img.Width+x] += c.Amplitude() * math.Exp(-(a*dx*dx + dblB*dx*dy + cc*dy*dy))
		}
	}
}
