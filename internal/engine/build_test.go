package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/inamate/render-go/internal/document"
)

type fakeResolver struct {
	textures map[string]*fakeTexture
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{textures: make(map[string]*fakeTexture)}
}

func (r *fakeResolver) Texture(a document.Asset) TextureSource {
	t, ok := r.textures[a.ID]
	if !ok {
		t = &fakeTexture{name: "tex_" + a.ID, loaded: true}
		r.textures[a.ID] = t
	}
	return t
}

func (r *fakeResolver) White() TextureSource { return testWhite }

func singleObjectDoc(obj document.ObjectNode) *document.InDocument {
	doc := document.NewEmptyDocument("proj", "Test", "scene", "root", "tl")
	root := doc.Objects["root"]
	root.Children = []string{obj.ID}
	doc.Objects["root"] = root
	doc.Objects[obj.ID] = obj
	return doc
}

func TestBuildScene(t *testing.T) {
	doc := singleObjectDoc(document.ObjectNode{
		ID:        "sprite",
		Type:      document.ObjectTypeSprite,
		Transform: document.Transform{X: 5, Y: 6, SX: 2, SY: 2},
		Style:     document.Style{Alpha: 0.5, Color: "#ff0000", ColorBr: "#0000ff"},
		Width:     10,
		Height:    20,
		Asset:     "a1",
		TexCoords: &document.TexCoords{ULX: 0, ULY: 0, BRX: 0.5, BRY: 0.5},
		ZIndex:    3,
		Visible:   true,
	})
	doc.Assets["a1"] = document.Asset{ID: "a1", URL: "a1.png"}

	ctx := NewRenderContext(Options{})
	res := newFakeResolver()
	scene, err := BuildScene(ctx, doc, "scene", res)
	require.NoError(t, err)
	assert.Equal(t, 2, scene.Len())
	assert.Equal(t, scene.Root, ctx.Root())
	assert.Equal(t, uint32(0xff1a1a2e), scene.Background)

	n := scene.Node("sprite")
	require.NotNil(t, n)
	assert.Equal(t, "sprite", n.Owner)
	assert.Equal(t, res.textures["a1"], n.Texture())
	assert.Equal(t, 3, n.ZIndex())
	assert.Equal(t, 0.5, n.LocalAlpha())
	ul, _, _, br := n.Colors()
	assert.Equal(t, uint32(0xffff0000), ul)
	assert.Equal(t, uint32(0xff0000ff), br)

	stats, err := ctx.Frame(nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Quads)
	m := n.WorldMatrix()
	assert.Equal(t, Matrix2D{2, 0, 0, 2, 5, 6}, m)

	scene.Destroy()
	assert.Nil(t, ctx.Root())
	assert.Equal(t, 0, scene.Len())
}

func TestBuildSceneInvisibleObject(t *testing.T) {
	doc := singleObjectDoc(document.ObjectNode{
		ID:        "r",
		Type:      document.ObjectTypeRect,
		Transform: document.Transform{SX: 1, SY: 1},
		Style:     document.Style{Alpha: 1, Color: "#ffffff"},
		Width:     10,
		Height:    10,
	})
	ctx := NewRenderContext(Options{})
	scene, err := BuildScene(ctx, doc, "scene", newFakeResolver())
	require.NoError(t, err)
	assert.Equal(t, 0.0, scene.Node("r").LocalAlpha())
	assert.Equal(t, TextureSource(testWhite), scene.Node("r").Texture())
}

func TestBuildSceneErrors(t *testing.T) {
	ctx := NewRenderContext(Options{})

	doc := document.NewEmptyDocument("proj", "Test", "scene", "root", "tl")
	_, err := BuildScene(ctx, doc, "missing", newFakeResolver())
	assert.ErrorIs(t, err, ErrUnknownObject)

	doc = singleObjectDoc(document.ObjectNode{ID: "g", Type: document.ObjectTypeGroup, Children: []string{"root"}})
	_, err = BuildScene(ctx, doc, "scene", newFakeResolver())
	assert.ErrorIs(t, err, ErrCycle)
	assert.Nil(t, ctx.Root())

	doc = singleObjectDoc(document.ObjectNode{ID: "s", Type: document.ObjectTypeSprite, Asset: "nope"})
	_, err = BuildScene(ctx, doc, "scene", newFakeResolver())
	assert.ErrorIs(t, err, ErrUnknownObject)

	doc = singleObjectDoc(document.ObjectNode{ID: "r", Type: document.ObjectTypeRect, Style: document.Style{Color: "red"}})
	_, err = BuildScene(ctx, doc, "scene", newFakeResolver())
	assert.Error(t, err)
}
