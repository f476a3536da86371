package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeTexture struct {
	name   string
	loaded bool
}

func (t *fakeTexture) Loaded() bool { return t.loaded }
func (t *fakeTexture) ID() string   { return t.name }

var testWhite = &fakeTexture{name: "white", loaded: true}

func newTestContext(t *testing.T, opts Options) (*RenderContext, *Node) {
	t.Helper()
	ctx := NewRenderContext(opts)
	root := ctx.CreateNode("root")
	require.NoError(t, ctx.SetRoot(root))
	return ctx, root
}

// rect creates a textured node at (x, y) with the given size and attaches
// it to parent.
func rect(t *testing.T, parent *Node, x, y, w, h float64) *Node {
	t.Helper()
	n := parent.ctx.CreateNode(nil)
	n.SetLocalTranslate(x, y)
	n.SetDimensions(w, h)
	n.SetDisplayedTextureSource(testWhite)
	require.NoError(t, parent.AddChild(n))
	return n
}

// group creates an untextured node attached to parent.
func group(t *testing.T, parent *Node) *Node {
	t.Helper()
	n := parent.ctx.CreateNode(nil)
	require.NoError(t, parent.AddChild(n))
	return n
}

func frame(t *testing.T, ctx *RenderContext) FrameStats {
	t.Helper()
	stats, err := ctx.Frame(nil)
	require.NoError(t, err)
	return stats
}

// quadColors returns the upper-left vertex color of every quad in the batch.
func quadColors(b *Batch) []uint32 {
	out := make([]uint32, b.Quads())
	for q := range out {
		out[q] = b.Vertex(q * 4).Color
	}
	return out
}
