package engine

import "slices"

// A stacking context paints its z-indexed descendants in its own sorted
// list instead of in tree order. Nodes with z-index 0 are painted by their
// tree parent: when the parent has z-indexed members its list also holds
// its direct children, so a context's list is the complete paint order of
// everything directly beneath it.
//
// Membership rules:
//   - z-index 0: zParent is the tree parent.
//   - z-index != 0: zParent is the nearest stacking context above the node.
//   - zContextUsage counts the z-indexed members; the list exists only
//     while it is positive.

// ZIndex returns the node's z-index.
func (n *Node) ZIndex() int { return n.zIndex }

// ZParent returns the node whose paint list contains n.
func (n *Node) ZParent() *Node { return n.zParent }

// ZContextUsage returns the number of z-indexed members of n's context.
func (n *Node) ZContextUsage() int { return n.zContextUsage }

// ZIndexedChildren returns a copy of n's paint list.
func (n *Node) ZIndexedChildren() []*Node { return slices.Clone(n.zIndexedChildren) }

// ForceStackingContext reports whether n is forced to be a stacking context.
func (n *Node) ForceStackingContext() bool { return n.forceZContext }

// IsStackingContext reports whether n owns its own z-sorted list.
func (n *Node) IsStackingContext() bool {
	return n.forceZContext || n.zIndex != 0 || n.isRoot || n.parent == nil
}

// FindStackingContext returns the nearest stacking context strictly above n.
func (n *Node) FindStackingContext() *Node {
	if n.parent == nil {
		return nil
	}
	return n.parent.findZContext()
}

// findZContext returns n if it is a stacking context, else the nearest one
// above it.
func (n *Node) findZContext() *Node {
	for p := n; p != nil; p = p.parent {
		if p.IsStackingContext() {
			return p
		}
	}
	return nil
}

// SetZIndex changes the z-index, moving n between paint lists and, when n
// starts or stops being a stacking context, migrating its z-indexed
// descendants.
func (n *Node) SetZIndex(z int) {
	if n.zIndex == z {
		return
	}
	prevIsContext := n.IsStackingContext()
	var prevContext *Node
	if n.parent != nil {
		prevContext = n.parent.findZContext()
	}

	if (n.zIndex == 0) != (z == 0) {
		var target *Node
		if z == 0 {
			target = n.parent
		} else {
			target = prevContext
		}
		n.setZParent(nil)
		n.zIndex = z
		n.setZParent(target)
	} else {
		n.zIndex = z
		if n.zParent != nil && n.zParent.zContextUsage > 0 {
			n.zParent.enableZSort()
		}
	}

	if nowIsContext := n.IsStackingContext(); nowIsContext != prevIsContext {
		if nowIsContext {
			migrateZContext(n, prevContext, n)
		} else {
			migrateZContext(n, n, prevContext)
		}
	}
	n.setHasUpdates()
}

// SetForceStackingContext forces n to be a stacking context even with a
// z-index of 0.
func (n *Node) SetForceStackingContext(on bool) {
	if n.forceZContext == on {
		return
	}
	prevIsContext := n.IsStackingContext()
	n.forceZContext = on
	if nowIsContext := n.IsStackingContext(); nowIsContext != prevIsContext {
		above := n.FindStackingContext()
		if nowIsContext {
			migrateZContext(n, above, n)
		} else {
			migrateZContext(n, n, above)
		}
	}
	n.setHasUpdates()
}

// migrateZContext moves the z-indexed members of from that lie inside n's
// subtree over to to. When n == from every member qualifies. Members with
// z-index 0 stay where they are: they follow tree order.
func migrateZContext(n, from, to *Node) {
	if from == nil || from == to || from.zContextUsage == 0 {
		return
	}
	members := slices.Clone(from.zIndexedChildren)
	for _, c := range members {
		if c.zIndex == 0 || c.zParent != from {
			continue
		}
		if n != from && !n.IsAncestorOf(c) {
			continue
		}
		c.setZParent(to)
	}
}

// setZParent moves n from its current paint list to z's.
func (n *Node) setZParent(z *Node) {
	if n.zParent == z {
		return
	}
	if old := n.zParent; old != nil {
		if old.zContextUsage > 0 {
			old.removeZIndexed(n)
		}
		n.zParent = nil
		if n.zIndex != 0 {
			old.decZContextUsage()
		}
		old.setHasUpdates()
	}

	n.zParent = z
	if z == nil {
		return
	}
	hadUsage := z.zContextUsage > 0
	if n.zIndex != 0 {
		z.incZContextUsage()
	}
	if z.zContextUsage > 0 {
		// On the first increment the list was seeded from z's children,
		// which already contains n when z is its tree parent.
		if hadUsage || n.parent != z {
			z.zIndexedChildren = append(z.zIndexedChildren, n)
		}
		z.enableZSort()
	}
}

func (n *Node) incZContextUsage() {
	n.zContextUsage++
	if n.zContextUsage != 1 {
		return
	}
	n.zIndexedChildren = n.zIndexedChildren[:0]
	for _, c := range n.children {
		if c.zIndex == 0 || c.zParent == n {
			n.zIndexedChildren = append(n.zIndexedChildren, c)
		}
	}
	if n.ctx != nil {
		n.ctx.zContexts++
	}
}

func (n *Node) decZContextUsage() {
	n.zContextUsage--
	if n.zContextUsage != 0 {
		return
	}
	clear(n.zIndexedChildren)
	n.zIndexedChildren = n.zIndexedChildren[:0]
	n.zSort = false
	if n.ctx != nil {
		n.ctx.zContexts--
	}
}

func (n *Node) removeZIndexed(c *Node) {
	if i := slices.Index(n.zIndexedChildren, c); i >= 0 {
		n.zIndexedChildren = slices.Delete(n.zIndexedChildren, i, i+1)
	}
}

// enableZSort schedules a re-sort of n's paint list in the next update pass.
func (n *Node) enableZSort() {
	if n.zContextUsage == 0 {
		return
	}
	n.zSort = true
	n.setHasUpdates()
}

// sortZIndexedChildren orders the paint list by z-index, then by tree
// order. Insertion sort: the list is nearly sorted between frames and the
// sort must be stable.
func (n *Node) sortZIndexedChildren() {
	n.renumberTreeOrder()
	a := n.zIndexedChildren
	for i := 1; i < len(a); i++ {
		v := a[i]
		j := i - 1
		for j >= 0 && zLess(v, a[j]) {
			a[j+1] = a[j]
			j--
		}
		a[j+1] = v
	}
	n.zSort = false
}

// renumberTreeOrder gives every node of n's context a fresh tree order in
// preorder. Partial update passes only number the nodes they visit, so
// members numbered in different frames would not compare by tree position.
func (n *Node) renumberTreeOrder() {
	ctx := n.ctx
	if ctx == nil {
		return
	}
	var walk func(c *Node)
	walk = func(c *Node) {
		c.updateTreeOrder = ctx.updateTreeOrder
		ctx.updateTreeOrder++
		if c != n && c.IsStackingContext() {
			return
		}
		for _, cc := range c.children {
			walk(cc)
		}
	}
	walk(n)
}

func zLess(a, b *Node) bool {
	if a.zIndex != b.zIndex {
		return a.zIndex < b.zIndex
	}
	return a.updateTreeOrder < b.updateTreeOrder
}
