package visualization

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"gaussinit/internal/models"
)

// Plot sizes in pixels
const (
	PlotWidth  = 480
	PlotHeight = 320
	plotMargin = 40

	ellipseSegments = 72
)

var (
	background = color.RGBA{255, 255, 255, 255}
	foreground = color.RGBA{0, 0, 0, 255}
	curveColor = color.RGBA{31, 119, 180, 255}
	markColor  = color.RGBA{214, 39, 40, 255}
	guideColor = color.RGBA{160, 160, 160, 255}
)

// canvas strokes lines and writes labels on an RGBA image.
type canvas struct {
	img *image.RGBA
	z   *vector.Rasterizer
}

func newCanvas(img *image.RGBA) *canvas {
	b := img.Bounds()
	return &canvas{img: img, z: vector.NewRasterizer(b.Dx(), b.Dy())}
}

// line strokes the segment (x0, y0)-(x1, y1) as a filled quad.
func (c *canvas) line(x0, y0, x1, y1, width float64, col color.Color) {
	dx, dy := x1-x0, y1-y0
	l := math.Hypot(dx, dy)
	if l == 0 {
		return
	}
	nx, ny := -dy/l*width/2, dx/l*width/2

	b := c.img.Bounds()
	c.z.Reset(b.Dx(), b.Dy())
	c.z.MoveTo(float32(x0+nx), float32(y0+ny))
	c.z.LineTo(float32(x1+nx), float32(y1+ny))
	c.z.LineTo(float32(x1-nx), float32(y1-ny))
	c.z.LineTo(float32(x0-nx), float32(y0-ny))
	c.z.ClosePath()
	c.z.Draw(c.img, b, image.NewUniform(col), image.Point{})
}

// dot fills a small square centered on (x, y).
func (c *canvas) dot(x, y, size float64, col color.Color) {
	c.line(x-size/2, y, x+size/2, y, size, col)
}

// label writes text with its baseline starting at (x, y).
func (c *canvas) label(x, y int, text string, col color.Color) {
	d := font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

// ScoreCurve plots silhouette scores against the component count, where
// scores[i] belongs to i+2 components. accept is drawn as a horizontal guide
// and the chosen count is marked. The vertical axis spans [-1, 1].
func ScoreCurve(scores []float64, chosen int, accept float64) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, PlotWidth, PlotHeight))
	draw.Draw(img, img.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)
	c := newCanvas(img)

	left, right := float64(plotMargin), float64(PlotWidth-plotMargin/2)
	top, bottom := float64(plotMargin/2), float64(PlotHeight-plotMargin)

	px := func(i int) float64 {
		if len(scores) < 2 {
			return (left + right) / 2
		}
		return left + float64(i)*(right-left)/float64(len(scores)-1)
	}
	py := func(s float64) float64 {
		return bottom - (s+1)/2*(bottom-top)
	}

	c.line(left, bottom, right, bottom, 1, foreground)
	c.line(left, top, left, bottom, 1, foreground)
	c.line(left, py(0), right, py(0), 1, guideColor)
	c.line(left, py(accept), right, py(accept), 1, markColor)

	c.label(4, int(py(1))+4, "1", foreground)
	c.label(4, int(py(0))+4, "0", foreground)
	c.label(4, int(py(-1))+4, "-1", foreground)
	c.label(int(right)-80, PlotHeight-8, "components", foreground)

	for i := 1; i < len(scores); i++ {
		c.line(px(i-1), py(scores[i-1]), px(i), py(scores[i]), 2, curveColor)
	}
	for i, s := range scores {
		c.label(int(px(i))-3, int(bottom)+16, fmt.Sprint(i+2), foreground)
		col := color.Color(curveColor)
		if i+2 == chosen {
			col = markColor
		}
		c.dot(px(i), py(s), 6, col)
	}

	c.label(int(left)+8, int(top)+12, fmt.Sprintf("chosen: %d", chosen), foreground)
	return img
}

// Overlay renders the image scaled up by scale and draws the half maximum
// contour of every component with its index.
func (v *Viewer) Overlay(components []models.Component, scale int) (*image.RGBA, error) {
	if scale < 1 {
		return nil, fmt.Errorf("scale must be positive, got %d", scale)
	}

	gray, err := v.Render()
	if err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, v.width*scale, v.height*scale))
	draw.NearestNeighbor.Scale(img, img.Bounds(), gray, gray.Bounds(), draw.Src, nil)

	c := newCanvas(img)
	s := float64(scale)
	for i, comp := range components {
		if !comp.Finite() {
			continue
		}
		pts := Ellipse(comp, ellipseSegments)
		for j := range pts {
			p, q := pts[j], pts[(j+1)%len(pts)]
			c.line((p[0]+0.5)*s, (p[1]+0.5)*s, (q[0]+0.5)*s, (q[1]+0.5)*s, 2, markColor)
		}
		cx, cy := (comp.CenterX()+0.5)*s, (comp.CenterY()+0.5)*s
		c.dot(cx, cy, 4, markColor)
		c.label(int(cx)+4, int(cy)-4, fmt.Sprint(i), markColor)
	}
	return img, nil
}

// Ellipse returns n points on the half maximum contour of c in pixel
// coordinates. The FWHM x axis points along (pa - 90) degrees.
func Ellipse(c models.Component, n int) [][2]float64 {
	theta := (c.PositionAngle() - 90) * math.Pi / 180
	cos, sin := math.Cos(theta), math.Sin(theta)
	rx, ry := c.FWHMX()/2, c.FWHMY()/2

	pts := make([][2]float64, n)
	for i := range pts {
		t := 2 * math.Pi * float64(i) / float64(n)
		u, w := rx*math.Cos(t), ry*math.Sin(t)
		pts[i] = [2]float64{
			c.CenterX() + u*cos - w*sin,
			c.CenterY() + u*sin + w*cos,
		}
	}
	return pts
}
