package engine

// update runs n's part of the top-down propagation pass. p is the tree
// parent, or the context's sentinel for the root.
func (n *Node) update(p *Node) {
	ctx := n.ctx
	pw, w := &p.world, &n.world

	n.recalc |= p.pRecalc

	visible := pw.alpha > 0 && n.localAlpha > 0
	if !n.hasUpdates && ctx.forceUpdate == 0 && !(n.recalc != 0 && visible) && !(w.alpha > 0 && !visible) {
		return
	}

	ctx.stats.UpdatedNodes++
	if n.OnUpdate != nil {
		n.OnUpdate(n)
	}
	recalc := n.recalc
	n.hasUpdates = false

	forceUpdate := false
	if recalc.Has(RecalcAlpha) {
		wasVisible := w.alpha > 0
		a := pw.alpha * n.localAlpha
		if a < 1e-14 {
			a = 0
		}
		w.alpha = a
		forceUpdate = wasVisible != (a > 0)
	}

	if w.alpha == 0 && !forceUpdate {
		// Invisible and staying so: keep the work for when it shows up.
		n.recalc = recalc | RecalcRelayout
		return
	}

	if forceUpdate && w.alpha > 0 && n.zParent != nil && n.zParent.zContextUsage > 0 {
		// The ancestor is still on the stack and checks zSort after its
		// children; the sort renumbers its context before comparing.
		n.zParent.zSort = true
	}

	if recalc.Has(RecalcRelayout) && w.alpha > 0 {
		recalc |= recalcGeometry
	}

	if recalc.Has(RecalcTranslate | RecalcTransform) {
		w.px = pw.px + n.localPx*pw.ta + n.localPy*pw.tb
		w.py = pw.py + n.localPx*pw.tc + n.localPy*pw.td
	}
	if recalc.Has(RecalcTransform) {
		w.ta = n.localTa * pw.ta
		w.tb = n.localTd * pw.tb
		w.tc = n.localTa * pw.tc
		w.td = n.localTd * pw.td
		if n.isComplex {
			w.ta += n.localTc * pw.tb
			w.tb += n.localTb * pw.ta
			w.tc += n.localTc * pw.td
			w.td += n.localTb * pw.tc
		}
	}

	if recalc.Has(recalcGeometry) {
		if n.clipping || n.clipParent != nil {
			n.updateClip()
		} else {
			n.clip = clipState{}
		}
	}

	n.updateTreeOrder = ctx.updateTreeOrder
	ctx.updateTreeOrder++

	if ctx.fusedFrame && n.texture != nil && w.alpha > 0 {
		ctx.batch.addNode(n)
	}

	n.pRecalc = recalc & recalcInherited

	// A pending sort needs fresh tree order on every member, and a
	// visibility change must reach every descendant.
	forced := n.zSort || forceUpdate
	if forced {
		ctx.forceUpdate++
	}
	for i := 0; i < len(n.children); i++ {
		c := n.children[i]
		if ctx.forceUpdate > 0 || n.pRecalc != 0 || c.hasUpdates {
			c.update(n)
		}
	}
	if forced {
		ctx.forceUpdate--
	}

	if n.zSort {
		ctx.zSorts = append(ctx.zSorts, n)
	}

	n.pRecalc = 0
	n.recalc &^= recalc | RecalcRelayout
	if w.alpha == 0 {
		n.recalc |= RecalcRelayout
	}
}

// fill emits n and its paint-order descendants into b. Stacking contexts
// with z-indexed members paint their sorted list; everything else paints
// its z-index-0 children in tree order.
func (n *Node) fill(b *Batch) {
	if n.world.alpha == 0 {
		return
	}
	if n.texture != nil {
		b.addNode(n)
	}
	if n.zContextUsage > 0 {
		for _, c := range n.zIndexedChildren {
			c.fill(b)
		}
		return
	}
	for _, c := range n.children {
		if c.zIndex == 0 {
			c.fill(b)
		}
	}
}
