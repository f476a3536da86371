package engine

// addNode writes the visible part of n's quad. Clipped quads are drawn in
// the upper-left color only; per-corner gradients are not supported there.
func (b *Batch) addNode(n *Node) {
	tex := n.texture
	if tex == nil || !tex.Loaded() || n.clip.empty || n.rw == 0 || n.rh == 0 {
		return
	}
	w := &n.world
	alpha := w.alpha
	clipped := (n.clipping || n.clipParent != nil) && !n.clip.noEffect

	if !clipped {
		o, ok := b.reserve(tex)
		if !ok {
			return
		}
		ul := mergeColorAlpha(n.colorUl, alpha)
		ur := mergeColorAlpha(n.colorUr, alpha)
		br := mergeColorAlpha(n.colorBr, alpha)
		bl := mergeColorAlpha(n.colorBl, alpha)
		if w.tb == 0 && w.tc == 0 {
			x1, y1 := w.px, w.py
			x2, y2 := w.px+n.rw*w.ta, w.py+n.rh*w.td
			b.setVertex(o, x1, y1, n.txUl, ul)
			b.setVertex(o+4, x2, y1, n.txUr, ur)
			b.setVertex(o+8, x2, y2, n.txBr, br)
			b.setVertex(o+12, x1, y2, n.txBl, bl)
			return
		}
		c := n.cornerPoints()
		b.setVertex(o, c[0], c[1], n.txUl, ul)
		b.setVertex(o+4, c[2], c[3], n.txUr, ur)
		b.setVertex(o+8, c[4], c[5], n.txBr, br)
		b.setVertex(o+12, c[6], c[7], n.txBl, bl)
		return
	}

	det := w.ta*w.td - w.tb*w.tc
	if det == 0 {
		return
	}
	m := texMapper{n: n, det: det}
	color := mergeColorAlpha(n.colorUl, alpha)

	if n.clip.square {
		c := &n.clip
		o, ok := b.reserve(tex)
		if !ok {
			return
		}
		b.setVertex(o, c.minX, c.minY, m.at(c.minX, c.minY), color)
		b.setVertex(o+4, c.maxX, c.minY, m.at(c.maxX, c.minY), color)
		b.setVertex(o+8, c.maxX, c.maxY, m.at(c.maxX, c.maxY), color)
		b.setVertex(o+12, c.minX, c.maxY, m.at(c.minX, c.maxY), color)
		return
	}

	area := n.clip.area
	points := len(area) / 2
	if points < 3 {
		return
	}
	// Fan out from the first point. A trailing triangle becomes a quad
	// whose fourth vertex rolls over to the first point.
	quads := (points - 1) / 2
	for q := 0; q < quads; q++ {
		o, ok := b.reserve(tex)
		if !ok {
			b.dropped += quads - q - 1
			return
		}
		for k, p := range [4]int{0, 1 + 2*q, 2 + 2*q, 3 + 2*q} {
			if p >= points {
				p = 0
			}
			x, y := area[p*2], area[p*2+1]
			b.setVertex(o+k*SlotsPerVertex, x, y, m.at(x, y), color)
		}
	}
}

// texMapper maps world points back into the node's texture coordinates by
// inverting its world transform.
type texMapper struct {
	n   *Node
	det float64
}

func (m texMapper) at(x, y float64) uint32 {
	n, w := m.n, &m.n.world
	dx, dy := x-w.px, y-w.py
	lx := (w.td*dx - w.tb*dy) / m.det
	ly := (w.ta*dy - w.tc*dx) / m.det
	t := &n.texCoords
	u := t[0] + (t[2]-t[0])*lx/n.rw
	v := t[1] + (t[3]-t[1])*ly/n.rh
	return packTexCoord(u, v)
}
