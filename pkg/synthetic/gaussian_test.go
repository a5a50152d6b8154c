package synthetic

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gaussinit/internal/models"
)

func TestRender(t *testing.T) {
	g := NewGenerator(64, 48, 0)
	img := g.Render([]models.Component{{2, 30, 20, 10, 10, 0}})

	require.Equal(t, 64, img.Width)
	require.Equal(t, 48, img.Height)
	require.Len(t, img.Data, 64*48)

	// the peak sits on the center pixel
	assert.InDelta(t, 2.0, img.At(30, 20), 1e-12)

	// half maximum at FWHM/2 from the center for a round Gaussian
	assert.InDelta(t, 1.0, img.At(35, 20), 1e-12)
	assert.InDelta(t, 1.0, img.At(30, 25), 1e-12)
}

func TestRender_Sum(t *testing.T) {
	g := NewGenerator(32, 32, 0)
	a := models.Component{1, 10, 10, 4, 3, 20}
	b := models.Component{-0.5, 20, 22, 5, 5, 0}

	both := g.Render([]models.Component{a, b})
	onlyA := g.Render([]models.Component{a})
	onlyB := g.Render([]models.Component{b})

	for i := range both.Data {
		assert.InDelta(t, onlyA.Data[i]+onlyB.Data[i], both.Data[i], 1e-12)
	}
}

func TestRandomComponents(t *testing.T) {
	width, height := 256, 200

	first := NewGenerator(width, height, 8).RandomComponents(3)
	second := NewGenerator(width, height, 8).RandomComponents(3)
	assert.Equal(t, first, second, "same seed must give the same components")

	for _, c := range first {
		assert.GreaterOrEqual(t, math.Abs(c.Amplitude()), 0.4)
		assert.Less(t, math.Abs(c.Amplitude()), 1.0)
		assert.GreaterOrEqual(t, c.CenterX(), float64(width)*0.25)
		assert.Less(t, c.CenterX(), float64(width)*0.75)
		assert.GreaterOrEqual(t, c.CenterY(), float64(height)*0.25)
		assert.Less(t, c.CenterY(), float64(height)*0.75)
		assert.GreaterOrEqual(t, c.PositionAngle(), 0.0)
		assert.Less(t, c.PositionAngle(), 360.0)
	}

	random := NewGenerator(width, height, 3).RandomComponents(0)
	assert.GreaterOrEqual(t, len(random), 1)
	assert.LessOrEqual(t, len(random), MaxRandomComponents)
}

func TestAddNoise(t *testing.T) {
	g := NewGenerator(100, 100, 4)
	img := g.Render(nil)
	g.AddNoise(img, DefaultNoise)

	var sum, sq float64
	for _, v := range img.Data {
		sum += v
		sq += v * v
	}
	n := float64(len(img.Data))
	mean := sum / n
	std := math.Sqrt(sq/n - mean*mean)

	assert.InDelta(t, 0, mean, 0.01)
	assert.InDelta(t, DefaultNoise, std, 0.01)

	quiet := g.Render(nil)
	g.AddNoise(quiet, 0)
	for _, v := range quiet.Data {
		assert.Equal(t, 0.0, v)
	}
}
