// Package raster draws a filled engine batch into an RGBA image, the
// software counterpart of the GPU executor.
package raster

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/chewxy/math32"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/vector"

	"github.com/inamate/inamate/render-go/internal/engine"
)

// ErrNoPixels is returned for texture handles that do not expose pixels.
var ErrNoPixels = errors.New("raster: texture has no pixels")

// Pixels is implemented by texture handles the canvas can sample.
type Pixels interface {
	Image() *image.RGBA
}

// Canvas is an engine.Executor that rasterizes quads with bilinear texture
// sampling. Every quad is drawn in its first vertex's color.
type Canvas struct {
	dst        *image.RGBA
	mask       *image.Alpha
	rast       *vector.Rasterizer
	background color.RGBA
	quads      int
}

// NewCanvas creates a canvas of w x h pixels.
func NewCanvas(w, h int) *Canvas {
	r := image.Rect(0, 0, max(w, 1), max(h, 1))
	return &Canvas{
		dst:        image.NewRGBA(r),
		mask:       image.NewAlpha(r),
		rast:       vector.NewRasterizer(1, 1),
		background: color.RGBA{A: 0xff},
	}
}

// SetBackground sets the clear color from an ARGB value.
func (c *Canvas) SetBackground(argb uint32) {
	a := argb >> 24
	c.background = color.RGBA{
		R: uint8((argb >> 16 & 0xff) * a / 255),
		G: uint8((argb >> 8 & 0xff) * a / 255),
		B: uint8((argb & 0xff) * a / 255),
		A: uint8(a),
	}
}

// Image returns the canvas pixels. They are overwritten by the next Execute.
func (c *Canvas) Image() *image.RGBA { return c.dst }

// Quads returns the number of quads drawn by the last Execute.
func (c *Canvas) Quads() int { return c.quads }

// Execute clears the canvas and draws every quad of b.
func (c *Canvas) Execute(b *engine.Batch) error {
	draw.Draw(c.dst, c.dst.Bounds(), image.NewUniform(c.background), image.Point{}, draw.Src)
	c.quads = 0

	q := 0
	for _, run := range b.Runs() {
		px, ok := run.Texture.(Pixels)
		if !ok || px.Image() == nil {
			return fmt.Errorf("draw run of %d quads: %w", run.Quads, ErrNoPixels)
		}
		src := px.Image()
		for range run.Quads {
			var v [4]engine.Vertex
			for k := range v {
				v[k] = b.Vertex(q*4 + k)
			}
			c.drawQuad(src, v)
			q++
		}
	}
	return nil
}

func (c *Canvas) drawQuad(src *image.RGBA, v [4]engine.Vertex) {
	bounds, ok := c.quadBounds(v)
	if !ok {
		return
	}
	aff, ok := textureToScreen(src.Bounds(), v)
	if !ok {
		return
	}

	// Coverage mask of the quad polygon, limited to its bounding box.
	draw.Draw(c.mask, bounds, image.Transparent, image.Point{}, draw.Src)
	w, h := bounds.Dx(), bounds.Dy()
	c.rast.Reset(w, h)
	ox, oy := float32(bounds.Min.X), float32(bounds.Min.Y)
	c.rast.MoveTo(v[0].X-ox, v[0].Y-oy)
	for _, p := range v[1:] {
		c.rast.LineTo(p.X-ox, p.Y-oy)
	}
	c.rast.ClosePath()
	c.rast.Draw(c.mask, bounds, image.Opaque, image.Point{})

	var img image.Image = src
	if v[0].Color != 0xffffffff {
		img = newTint(src, v[0].Color)
	}
	draw.BiLinear.Transform(c.dst, aff, img, src.Bounds(), draw.Over, &draw.Options{
		DstMask:  c.mask,
		DstMaskP: image.Point{},
	})
	c.quads++
}

// quadBounds returns the pixel rectangle covering the quad, clipped to the
// canvas.
func (c *Canvas) quadBounds(v [4]engine.Vertex) (image.Rectangle, bool) {
	minX, minY := math32.Inf(1), math32.Inf(1)
	maxX, maxY := math32.Inf(-1), math32.Inf(-1)
	for _, p := range v {
		minX, maxX = math32.Min(minX, p.X), math32.Max(maxX, p.X)
		minY, maxY = math32.Min(minY, p.Y), math32.Max(maxY, p.Y)
	}
	if math32.IsNaN(minX) || math32.IsNaN(minY) || math32.IsInf(maxX, 0) || math32.IsInf(maxY, 0) {
		return image.Rectangle{}, false
	}
	r := image.Rect(
		int(math32.Floor(minX)), int(math32.Floor(minY)),
		int(math32.Ceil(maxX)), int(math32.Ceil(maxY)),
	).Intersect(c.dst.Bounds())
	return r, !r.Empty()
}

// textureToScreen solves the affine map from texture pixels to screen
// pixels using the three vertices with the largest texture-space triangle.
func textureToScreen(tb image.Rectangle, v [4]engine.Vertex) (f64.Aff3, bool) {
	tw, th := float64(tb.Dx()), float64(tb.Dy())
	var uv [4][2]float64
	for i, p := range v {
		u, w := engine.UnpackTexCoord(p.TexCoord)
		uv[i] = [2]float64{float64(tb.Min.X) + u*tw, float64(tb.Min.Y) + w*th}
	}

	best, bestArea := [3]int{}, 0.0
	for _, tri := range [4][3]int{{0, 1, 2}, {0, 2, 3}, {0, 1, 3}, {1, 2, 3}} {
		a, b, c := uv[tri[0]], uv[tri[1]], uv[tri[2]]
		area := (b[0]-a[0])*(c[1]-a[1]) - (c[0]-a[0])*(b[1]-a[1])
		if area < 0 {
			area = -area
		}
		if area > bestArea {
			best, bestArea = tri, area
		}
	}
	if bestArea < 1e-9 {
		return f64.Aff3{}, false
	}

	i, j, k := best[0], best[1], best[2]
	// T maps texture deltas, S screen deltas; the linear part is S * T^-1.
	t00, t01 := uv[j][0]-uv[i][0], uv[k][0]-uv[i][0]
	t10, t11 := uv[j][1]-uv[i][1], uv[k][1]-uv[i][1]
	s00, s01 := float64(v[j].X-v[i].X), float64(v[k].X-v[i].X)
	s10, s11 := float64(v[j].Y-v[i].Y), float64(v[k].Y-v[i].Y)

	det := t00*t11 - t01*t10
	if det == 0 {
		return f64.Aff3{}, false
	}
	i00, i01 := t11/det, -t01/det
	i10, i11 := -t10/det, t00/det

	xx := s00*i00 + s01*i10
	xy := s00*i01 + s01*i11
	yx := s10*i00 + s11*i10
	yy := s10*i01 + s11*i11
	x0 := float64(v[i].X) - xx*uv[i][0] - xy*uv[i][1]
	y0 := float64(v[i].Y) - yx*uv[i][0] - yy*uv[i][1]
	return f64.Aff3{xx, xy, x0, yx, yy, y0}, true
}
