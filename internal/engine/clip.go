package engine

import "github.com/inamate/inamate/render-go/internal/geom"

// clipState is the world-space region a node's pixels may cover. An
// axis-aligned region is kept as min/max bounds (square); any other region
// is a convex polygon in area.
type clipState struct {
	square                 bool
	minX, minY, maxX, maxY float64
	area                   []float64
	// empty: nothing of the node is visible.
	empty bool
	// noEffect: the region does not cut the node's own quad.
	noEffect bool
}

// ClipRegion is a read-only view of a node's clip state.
type ClipRegion struct {
	Active                 bool
	Square                 bool
	MinX, MinY, MaxX, MaxY float64
	Polygon                []float64
	Empty                  bool
	NoEffect               bool
}

// ClipRegion returns the clip region computed by the last update. Active is
// false when neither n nor any ancestor clips.
func (n *Node) ClipRegion() ClipRegion {
	c := &n.clip
	r := ClipRegion{
		Active:   n.clipping || n.clipParent != nil,
		Square:   c.square,
		MinX:     c.minX,
		MinY:     c.minY,
		MaxX:     c.maxX,
		MaxY:     c.maxY,
		Empty:    c.empty,
		NoEffect: c.noEffect,
	}
	if len(c.area) > 0 {
		r.Polygon = append([]float64(nil), c.area...)
	}
	return r
}

// clipPolygon returns the region as a polygon, converting a square region
// into its four corners.
func (c *clipState) clipPolygon() []float64 {
	if c.square {
		return []float64{c.minX, c.minY, c.maxX, c.minY, c.maxX, c.maxY, c.minX, c.maxY}
	}
	return c.area
}

// updateClipParents recomputes the nearest clipping ancestor for n and its
// subtree.
func (n *Node) updateClipParents() {
	var cp *Node
	if p := n.parent; p != nil {
		if p.clipping {
			cp = p
		} else {
			cp = p.clipParent
		}
	}
	if cp != n.clipParent {
		n.clipParent = cp
		n.setRecalc(RecalcClipping)
	}
	for _, c := range n.children {
		c.updateClipParents()
	}
}

// updateClip computes n's clip region from its world transform and the
// region of its nearest clipping ancestor. Only called when n clips or has a
// clipping ancestor.
func (n *Node) updateClip() {
	cp := n.clipParent
	c := &n.clip
	c.empty, c.noEffect = false, false

	if cp != nil && cp.clip.empty {
		c.empty = true
		c.square = false
		c.area = nil
		return
	}

	w := &n.world
	axisAligned := w.tb == 0 && w.tc == 0 && w.ta > 0 && w.td > 0
	if axisAligned && (cp == nil || cp.clip.square) {
		minX, minY := w.px, w.py
		maxX, maxY := w.px+n.rw*w.ta, w.py+n.rh*w.td
		c.square = true
		c.area = nil
		if cp == nil {
			c.minX, c.minY, c.maxX, c.maxY = minX, minY, maxX, maxY
			c.noEffect = true
			return
		}
		pc := &cp.clip
		c.minX, c.minY = max(minX, pc.minX), max(minY, pc.minY)
		c.maxX, c.maxY = min(maxX, pc.maxX), min(maxY, pc.maxY)
		c.empty = c.maxX < c.minX || c.maxY < c.minY
		c.noEffect = c.minX == minX && c.minY == minY && c.maxX == maxX && c.maxY == maxY
		return
	}

	corners := n.cornerPoints()
	c.square = false
	if cp == nil {
		c.area = corners
		c.noEffect = true
		return
	}

	area := geom.IntersectConvex(cp.clip.clipPolygon(), corners)
	c.area = area
	c.empty = len(area) == 0
	c.noEffect = geom.SamePolygon(area, corners)
}
