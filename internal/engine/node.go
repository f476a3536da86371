package engine

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

var (
	// ErrCycle is returned when a node would become its own ancestor.
	ErrCycle = errors.New("engine: node cannot be placed inside its own subtree")
	// ErrIndexRange is returned for child indices outside the children list.
	ErrIndexRange = errors.New("engine: child index out of range")
	// ErrDestroyed is returned when mutating the tree through a destroyed node.
	ErrDestroyed = errors.New("engine: node destroyed")
	// ErrForeignNode is returned when linking nodes of different contexts.
	ErrForeignNode = errors.New("engine: node belongs to another render context")
)

// Debug turns non-finite input into a panic instead of a logged rejection.
var Debug bool

// worldContext is the fully composed state of a node.
type worldContext struct {
	alpha  float64
	px, py float64
	ta, tb float64
	tc, td float64
}

// Node is one element of the render tree. It owns its local transform,
// alpha, dimensions and paint data, and derives world state from its parent
// during the update pass.
//
// Parents own their children slice; children keep a plain back-reference.
type Node struct {
	ID    string
	Owner any

	// OnUpdate, if set, runs at the start of the node's update visit. It may
	// mutate the tree; such mutations schedule one extra update pass.
	OnUpdate func(*Node)

	ctx      *RenderContext
	parent   *Node
	children []*Node

	recalc     Recalc
	pRecalc    Recalc
	hasUpdates bool
	isRoot     bool
	destroyed  bool

	localPx, localPy float64
	localTa, localTb float64
	localTc, localTd float64
	isComplex        bool
	localAlpha       float64

	world worldContext

	rw, rh float64

	clipping   bool
	clipParent *Node
	clip       clipState
	corners    [8]float64

	zIndex           int
	forceZContext    bool
	zParent          *Node
	zContextUsage    int
	zIndexedChildren []*Node
	zSort            bool

	colorUl, colorUr uint32
	colorBl, colorBr uint32

	texCoords              [4]float64 // ulx, uly, brx, bry
	txUl, txUr, txBr, txBl uint32
	texture                TextureSource
	updateTreeOrder        int
}

func newNode(ctx *RenderContext, id string, owner any) *Node {
	n := &Node{
		ID:         id,
		Owner:      owner,
		ctx:        ctx,
		localTa:    1,
		localTd:    1,
		localAlpha: 1,
		recalc:     RecalcAll,
		colorUl:    White,
		colorUr:    White,
		colorBl:    White,
		colorBr:    White,
	}
	n.setTexCoords(0, 0, 1, 1)
	return n
}

// --- Tree structure ---

// Parent returns the tree parent, or nil for the root and detached nodes.
func (n *Node) Parent() *Node { return n.parent }

// Children returns a copy of the children in tree order.
func (n *Node) Children() []*Node { return slices.Clone(n.children) }

// ChildCount returns the number of children.
func (n *Node) ChildCount() int { return len(n.children) }

// IsAncestorOf reports whether n is a strict ancestor of other.
func (n *Node) IsAncestorOf(other *Node) bool {
	for p := other.parent; p != nil; p = p.parent {
		if p == n {
			return true
		}
	}
	return false
}

// AddChild appends c to n's children.
func (n *Node) AddChild(c *Node) error {
	return n.AddChildAt(c, len(n.children))
}

// AddChildAt inserts c at index. A child that already belongs to n is moved.
func (n *Node) AddChildAt(c *Node, index int) error {
	if n.destroyed || c.destroyed {
		return ErrDestroyed
	}
	if c == n || c.IsAncestorOf(n) {
		return ErrCycle
	}
	if c.ctx != n.ctx {
		return fmt.Errorf("add child %s: %w", c.ID, ErrForeignNode)
	}

	if c.parent == n {
		from := slices.Index(n.children, c)
		if index < 0 || index >= len(n.children) {
			return ErrIndexRange
		}
		if from == index {
			return nil
		}
		n.children = slices.Delete(n.children, from, from+1)
		n.children = slices.Insert(n.children, index, c)
		n.treeOrderChanged()
		return nil
	}

	if index < 0 || index > len(n.children) {
		return ErrIndexRange
	}
	if old := c.parent; old != nil {
		old.children = slices.DeleteFunc(old.children, func(x *Node) bool { return x == c })
		old.treeOrderChanged()
	}
	n.children = slices.Insert(n.children, index, c)
	c.setParent(n)
	n.treeOrderChanged()
	return nil
}

// RemoveChildAt detaches and returns the child at index.
func (n *Node) RemoveChildAt(index int) (*Node, error) {
	if n.destroyed {
		return nil, ErrDestroyed
	}
	if index < 0 || index >= len(n.children) {
		return nil, ErrIndexRange
	}
	c := n.children[index]
	n.children = slices.Delete(n.children, index, index+1)
	c.setParent(nil)
	n.setHasUpdates()
	return c, nil
}

// RemoveChild detaches c if it is a child of n.
func (n *Node) RemoveChild(c *Node) error {
	if n.destroyed {
		return ErrDestroyed
	}
	i := slices.Index(n.children, c)
	if i < 0 {
		return fmt.Errorf("remove child %s: %w", c.ID, ErrIndexRange)
	}
	_, err := n.RemoveChildAt(i)
	return err
}

// RemoveAll detaches every child.
func (n *Node) RemoveAll() {
	for len(n.children) > 0 {
		_, _ = n.RemoveChildAt(len(n.children) - 1)
	}
}

// SetParent appends n to p's children, or detaches n when p is nil.
func (n *Node) SetParent(p *Node) error {
	if p == nil {
		if n.parent == nil {
			return nil
		}
		return n.parent.RemoveChild(n)
	}
	if n.parent == p {
		return nil
	}
	return p.AddChild(n)
}

// Destroy detaches n and tears down its subtree. It is safe to call more
// than once and on partially built trees.
func (n *Node) Destroy() {
	if n.destroyed {
		return
	}
	if n.parent != nil {
		_ = n.parent.RemoveChild(n)
	}
	for len(n.children) > 0 {
		n.children[len(n.children)-1].Destroy()
	}
	if n.ctx != nil && n.ctx.root == n {
		n.ctx.root = nil
		n.isRoot = false
	}
	if n.zContextUsage > 0 && n.ctx != nil {
		n.ctx.zContexts--
	}
	n.zContextUsage = 0
	n.zIndexedChildren = nil
	n.texture = nil
	n.OnUpdate = nil
	n.destroyed = true
}

// setParent updates every pointer derived from the tree parent: recalc,
// z-parent, stacking context membership of descendants and clip parents.
// The caller has already updated the children slices.
func (n *Node) setParent(p *Node) {
	if n.parent == p {
		return
	}
	prevIsContext := n.IsStackingContext()
	var oldContext *Node
	if n.parent != nil {
		oldContext = n.parent.findZContext()
	}

	n.parent = p
	if p != nil {
		n.setRecalc(RecalcAll)
	}

	switch {
	case n.zIndex == 0:
		n.setZParent(p)
	case p != nil:
		n.setZParent(p.findZContext())
	default:
		n.setZParent(nil)
	}

	var newContext *Node
	if p != nil {
		newContext = p.findZContext()
	}
	nowIsContext := n.IsStackingContext()
	switch {
	case !prevIsContext && nowIsContext:
		migrateZContext(n, oldContext, n)
	case prevIsContext && !nowIsContext:
		migrateZContext(n, n, newContext)
	case !nowIsContext && oldContext != newContext:
		migrateZContext(n, oldContext, newContext)
	}

	n.updateClipParents()
}

// treeOrderChanged schedules re-sorts of the stacking contexts whose paint
// order depends on the order of n's children.
func (n *Node) treeOrderChanged() {
	if n.zContextUsage > 0 {
		n.enableZSort()
	}
	if z := n.findZContext(); z != nil && z != n && z.zContextUsage > 0 {
		z.enableZSort()
	}
	n.setHasUpdates()
}

// --- Dirty tracking ---

func (n *Node) setRecalc(r Recalc) {
	n.recalc |= r
	n.setHasUpdates()
}

// setHasUpdates flags n and all of its ancestors so the update pass reaches n.
func (n *Node) setHasUpdates() {
	for p := n; p != nil; p = p.parent {
		p.hasUpdates = true
	}
	if n.ctx != nil && n.ctx.updating {
		n.ctx.mutated = true
	}
}

// HasUpdates reports whether n is waiting for the update pass.
func (n *Node) HasUpdates() bool { return n.hasUpdates }

// PendingRecalc returns the recalc bits not yet processed.
func (n *Node) PendingRecalc() Recalc { return n.recalc }

// --- Mutators ---

// SetLocalTransform sets the local 2x2 matrix. b is the x-from-y term and c
// the y-from-x term: x' = a*x + b*y, y' = c*x + d*y.
func (n *Node) SetLocalTransform(a, b, c, d float64) {
	if !assertFinite("transform", a, b, c, d) {
		return
	}
	if n.localTa == a && n.localTb == b && n.localTc == c && n.localTd == d {
		return
	}
	n.localTa, n.localTb, n.localTc, n.localTd = a, b, c, d
	n.isComplex = b != 0 || c != 0
	n.setRecalc(RecalcTransform)
}

// SetLocalTranslate sets the position relative to the parent.
func (n *Node) SetLocalTranslate(x, y float64) {
	if !assertFinite("translate", x, y) {
		return
	}
	if n.localPx == x && n.localPy == y {
		return
	}
	n.localPx, n.localPy = x, y
	n.setRecalc(RecalcTranslate)
}

// SetMatrix sets both the local 2x2 matrix and translation from m.
func (n *Node) SetMatrix(m Matrix2D) {
	n.SetLocalTransform(m.linear())
	n.SetLocalTranslate(m[4], m[5])
}

// SetLocalAlpha sets the local alpha, clamped to [0, 1].
func (n *Node) SetLocalAlpha(a float64) {
	if !assertFinite("alpha", a) {
		return
	}
	a = clamp01(a)
	if a < 1e-14 {
		a = 0
	}
	if n.localAlpha == a {
		return
	}
	n.localAlpha = a
	n.setRecalc(RecalcAlpha)
}

// SetDimensions sets the untransformed quad extent. Negative values clamp
// to zero.
func (n *Node) SetDimensions(w, h float64) {
	if !assertFinite("dimensions", w, h) {
		return
	}
	w, h = math.Max(w, 0), math.Max(h, 0)
	if n.rw == w && n.rh == h {
		return
	}
	n.rw, n.rh = w, h
	n.setRecalc(RecalcClipping)
}

// SetTextureCoords sets the normalized texture region shown by the quad,
// from the upper-left (ulx, uly) to the bottom-right (brx, bry) corner.
func (n *Node) SetTextureCoords(ulx, uly, brx, bry float64) {
	if !assertFinite("texture coords", ulx, uly, brx, bry) {
		return
	}
	if n.texCoords == [4]float64{ulx, uly, brx, bry} {
		return
	}
	n.setTexCoords(ulx, uly, brx, bry)
	n.setHasUpdates()
}

func (n *Node) setTexCoords(ulx, uly, brx, bry float64) {
	n.texCoords = [4]float64{ulx, uly, brx, bry}
	n.txUl = packTexCoord(ulx, uly)
	n.txUr = packTexCoord(brx, uly)
	n.txBr = packTexCoord(brx, bry)
	n.txBl = packTexCoord(ulx, bry)
}

// SetDisplayedTextureSource sets the texture drawn by the node. nil hides
// the node's own quad but keeps its children.
func (n *Node) SetDisplayedTextureSource(t TextureSource) {
	if n.texture == t {
		return
	}
	n.texture = t
	n.setHasUpdates()
}

// SetClipping makes n clip its descendants to its own quad.
func (n *Node) SetClipping(on bool) {
	if n.clipping == on {
		return
	}
	n.clipping = on
	for _, c := range n.children {
		c.updateClipParents()
	}
	n.setRecalc(RecalcClipping)
}

// SetColorUl sets the upper-left corner color (ARGB).
func (n *Node) SetColorUl(c uint32) { n.setColor(&n.colorUl, c) }

// SetColorUr sets the upper-right corner color (ARGB).
func (n *Node) SetColorUr(c uint32) { n.setColor(&n.colorUr, c) }

// SetColorBl sets the bottom-left corner color (ARGB).
func (n *Node) SetColorBl(c uint32) { n.setColor(&n.colorBl, c) }

// SetColorBr sets the bottom-right corner color (ARGB).
func (n *Node) SetColorBr(c uint32) { n.setColor(&n.colorBr, c) }

// SetColor sets all four corner colors.
func (n *Node) SetColor(c uint32) {
	n.SetColorUl(c)
	n.SetColorUr(c)
	n.SetColorBl(c)
	n.SetColorBr(c)
}

func (n *Node) setColor(dst *uint32, c uint32) {
	if *dst == c {
		return
	}
	*dst = c
	n.setHasUpdates()
}

// Colors returns the corner colors: upper-left, upper-right, bottom-left,
// bottom-right.
func (n *Node) Colors() (ul, ur, bl, br uint32) {
	return n.colorUl, n.colorUr, n.colorBl, n.colorBr
}

// --- Queries ---

// LocalAlpha returns the local alpha.
func (n *Node) LocalAlpha() float64 { return n.localAlpha }

// WorldAlpha returns the composed alpha computed by the last update.
func (n *Node) WorldAlpha() float64 { return n.world.alpha }

// WorldMatrix returns the composed transform computed by the last update.
func (n *Node) WorldMatrix() Matrix2D {
	w := &n.world
	return matrixOf(w.ta, w.tb, w.tc, w.td, w.px, w.py)
}

// WorldToLocal maps a world-space point into n's local space as of the
// last update. It fails when n's world transform is singular.
func (n *Node) WorldToLocal(x, y float64) (float64, float64, bool) {
	inv, ok := n.WorldMatrix().Invert()
	if !ok {
		return 0, 0, false
	}
	lx, ly := inv.TransformPoint(x, y)
	return lx, ly, true
}

// Dimensions returns the render width and height.
func (n *Node) Dimensions() (float64, float64) { return n.rw, n.rh }

// Texture returns the displayed texture source.
func (n *Node) Texture() TextureSource { return n.texture }

// Clipping reports whether n clips its descendants.
func (n *Node) Clipping() bool { return n.clipping }

// ClipParent returns the nearest clipping ancestor.
func (n *Node) ClipParent() *Node { return n.clipParent }

// IsVisible reports whether the last update left n with a non-zero world
// alpha and a non-empty clip region.
func (n *Node) IsVisible() bool {
	return n.world.alpha > 0 && !n.clip.empty
}

// UpdateTreeOrder returns the traversal counter assigned in the last update
// pass that visited n.
func (n *Node) UpdateTreeOrder() int { return n.updateTreeOrder }

// CornerPoints returns the world-space corners of the quad in the order
// upper-left, upper-right, bottom-right, bottom-left.
func (n *Node) CornerPoints() []float64 {
	return slices.Clone(n.cornerPoints())
}

func (n *Node) cornerPoints() []float64 {
	w := &n.world
	c := &n.corners
	c[0], c[1] = w.px, w.py
	c[2], c[3] = w.px+n.rw*w.ta, w.py+n.rw*w.tc
	c[4], c[5] = w.px+n.rw*w.ta+n.rh*w.tb, w.py+n.rw*w.tc+n.rh*w.td
	c[6], c[7] = w.px+n.rh*w.tb, w.py+n.rh*w.td
	return c[:]
}

func assertFinite(what string, vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			if Debug {
				panic(fmt.Sprintf("engine: non-finite %s value %v", what, vals))
			}
			Logger().Warn("rejected non-finite input", "property", what, "values", vals)
			return false
		}
	}
	return true
}
