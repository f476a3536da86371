package engine

import (
	"encoding/json"

	"github.com/inamate/inamate/render-go/internal/geom"
)

// Rect is an axis-aligned world-space rectangle.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// IsEmpty reports whether the rectangle has no area.
func (r Rect) IsEmpty() bool { return r.Width <= 0 || r.Height <= 0 }

// Union returns the smallest rectangle containing r and o.
func (r Rect) Union(o Rect) Rect {
	if r.IsEmpty() {
		return o
	}
	if o.IsEmpty() {
		return r
	}
	minX, minY := min(r.X, o.X), min(r.Y, o.Y)
	maxX, maxY := max(r.X+r.Width, o.X+o.Width), max(r.Y+r.Height, o.Y+o.Height)
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Contains reports whether (x, y) lies inside r.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width && y >= r.Y && y <= r.Y+r.Height
}

// RectToJSON serializes a Rect to JSON.
func RectToJSON(r Rect) string {
	data, _ := json.Marshal(r)
	return string(data)
}

// VisibleBounds returns the world-space bounding box of the visible part of
// n's own quad, after clipping.
func (n *Node) VisibleBounds() Rect {
	if !n.IsVisible() {
		return Rect{}
	}
	var minX, minY, maxX, maxY float64
	switch c := &n.clip; {
	case (n.clipping || n.clipParent != nil) && c.square:
		minX, minY, maxX, maxY = c.minX, c.minY, c.maxX, c.maxY
	case (n.clipping || n.clipParent != nil) && !c.noEffect:
		minX, minY, maxX, maxY = geom.Bounds(c.area)
	default:
		minX, minY, maxX, maxY = geom.Bounds(n.cornerPoints())
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// containsPoint reports whether the visible part of n's quad covers (x, y).
func (n *Node) containsPoint(x, y float64) bool {
	if n.rw == 0 || n.rh == 0 || !n.IsVisible() {
		return false
	}
	c := &n.clip
	if n.clipping || n.clipParent != nil {
		if c.square {
			return x >= c.minX && x <= c.maxX && y >= c.minY && y <= c.maxY
		}
		if !c.noEffect {
			return geom.PointInConvex(c.area, x, y)
		}
	}
	lx, ly, ok := n.WorldToLocal(x, y)
	return ok && lx >= 0 && lx <= n.rw && ly >= 0 && ly <= n.rh
}

// HitTest returns the front-most visible textured node covering (x, y), or
// nil. Nodes are tested in paint order as of the last update.
func (ctx *RenderContext) HitTest(x, y float64) *Node {
	if ctx.root == nil {
		return nil
	}
	var hit *Node
	ctx.root.walkPaintOrder(func(n *Node) {
		if n.texture != nil && n.containsPoint(x, y) {
			hit = n
		}
	})
	return hit
}

// walkPaintOrder visits visible nodes in the order fill emits them.
func (n *Node) walkPaintOrder(fn func(*Node)) {
	if n.world.alpha == 0 {
		return
	}
	fn(n)
	if n.zContextUsage > 0 {
		for _, c := range n.zIndexedChildren {
			c.walkPaintOrder(fn)
		}
		return
	}
	for _, c := range n.children {
		if c.zIndex == 0 {
			c.walkPaintOrder(fn)
		}
	}
}

// SelectionBounds returns the union of the visible bounds of nodes.
func SelectionBounds(nodes []*Node) Rect {
	var r Rect
	for _, n := range nodes {
		if n != nil {
			r = r.Union(n.VisibleBounds())
		}
	}
	return r
}
