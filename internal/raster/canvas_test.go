package raster

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/inamate/render-go/internal/engine"
)

type solidTexture struct {
	img *image.RGBA
}

func (t *solidTexture) Loaded() bool       { return true }
func (t *solidTexture) Image() *image.RGBA { return t.img }

func newSolid(c color.RGBA) *solidTexture {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return &solidTexture{img: img}
}

type blankTexture struct{}

func (blankTexture) Loaded() bool { return true }

func sceneWith(t *testing.T, tex engine.TextureSource, configure func(n *engine.Node)) *engine.RenderContext {
	t.Helper()
	ctx := engine.NewRenderContext(engine.Options{})
	root := ctx.CreateNode("root")
	require.NoError(t, ctx.SetRoot(root))

	n := ctx.CreateNode("quad")
	n.SetLocalTranslate(4, 4)
	n.SetDimensions(8, 8)
	n.SetDisplayedTextureSource(tex)
	if configure != nil {
		configure(n)
	}
	require.NoError(t, root.AddChild(n))
	return ctx
}

func TestCanvasDrawsTintedQuad(t *testing.T) {
	ctx := sceneWith(t, newSolid(color.RGBA{255, 255, 255, 255}), func(n *engine.Node) {
		n.SetColor(0xFFFF0000)
	})

	c := NewCanvas(16, 16)
	c.SetBackground(0xFF0000FF)
	stats, err := ctx.Frame(c)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Quads)
	assert.Equal(t, 1, c.Quads())

	center := c.Image().RGBAAt(8, 8)
	assert.InDelta(t, 255, int(center.R), 2)
	assert.InDelta(t, 0, int(center.B), 2)

	assert.Equal(t, color.RGBA{0, 0, 255, 255}, c.Image().RGBAAt(1, 1))
	assert.Equal(t, color.RGBA{0, 0, 255, 255}, c.Image().RGBAAt(14, 14))
}

func TestCanvasBlendsTranslucentQuad(t *testing.T) {
	ctx := sceneWith(t, newSolid(color.RGBA{255, 255, 255, 255}), func(n *engine.Node) {
		n.SetLocalAlpha(0.5)
	})

	c := NewCanvas(16, 16)
	c.SetBackground(0xFF000000)
	_, err := ctx.Frame(c)
	require.NoError(t, err)

	center := c.Image().RGBAAt(8, 8)
	assert.InDelta(t, 127, int(center.R), 3)
	assert.InDelta(t, 127, int(center.G), 3)
	assert.Equal(t, uint8(255), center.A)
}

func TestCanvasClearsBetweenFrames(t *testing.T) {
	var node *engine.Node
	ctx := sceneWith(t, newSolid(color.RGBA{255, 255, 255, 255}), func(n *engine.Node) {
		node = n
	})

	c := NewCanvas(16, 16)
	_, err := ctx.Frame(c)
	require.NoError(t, err)
	assert.Equal(t, uint8(255), c.Image().RGBAAt(8, 8).R)

	node.SetLocalAlpha(0)
	_, err = ctx.Frame(c)
	require.NoError(t, err)
	assert.Equal(t, 0, c.Quads())
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, c.Image().RGBAAt(8, 8))
}

func TestCanvasRejectsTextureWithoutPixels(t *testing.T) {
	ctx := sceneWith(t, blankTexture{}, nil)

	_, err := ctx.Frame(NewCanvas(16, 16))
	assert.ErrorIs(t, err, ErrNoPixels)

	ctx = sceneWith(t, &solidTexture{}, nil)
	_, err = ctx.Frame(NewCanvas(16, 16))
	assert.ErrorIs(t, err, ErrNoPixels)
}

func TestSetBackgroundPremultiplies(t *testing.T) {
	c := NewCanvas(2, 2)
	c.SetBackground(0x80FF0000)
	require.NoError(t, c.Execute(engine.NewBatch(engine.SlotsPerQuad, false)))
	px := c.Image().RGBAAt(0, 0)
	assert.Equal(t, uint8(0x80), px.A)
	assert.Equal(t, uint8(0x80), px.R)
}

func TestTint(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 1, 1))
	src.SetRGBA(0, 0, color.RGBA{200, 100, 50, 255})
	// ABGR premultiplied half-alpha white.
	got := newTint(src, 0x80808080).At(0, 0).(color.RGBA)
	assert.Equal(t, color.RGBA{100, 50, 25, 128}, got)
}
