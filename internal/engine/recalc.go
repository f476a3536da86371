package engine

// Recalc is the set of pending recalculations on a node. Bits are ORed down
// from the parent during the update pass and cleared once processed.
type Recalc uint8

const (
	// RecalcAlpha: local or inherited alpha changed; world alpha is stale.
	RecalcAlpha Recalc = 1
	// RecalcTranslate: local or inherited translation changed.
	RecalcTranslate Recalc = 2
	// RecalcTransform: local or inherited 2x2 matrix changed.
	RecalcTransform Recalc = 4
	// RecalcClipping: the clip region must be recomputed (clipping toggled,
	// dimensions changed, or an ancestor region changed).
	RecalcClipping Recalc = 8
	// RecalcRelayout survives an update that left the node invisible, so
	// that everything is recomputed once it becomes visible again.
	RecalcRelayout Recalc = 128

	// RecalcAll is what a freshly attached node needs.
	RecalcAll = RecalcAlpha | RecalcTranslate | RecalcTransform | RecalcClipping

	recalcInherited = RecalcAlpha | RecalcTranslate | RecalcTransform | RecalcClipping
	recalcGeometry  = RecalcTranslate | RecalcTransform | RecalcClipping
)

// Has reports whether any of the bits in f are set.
func (r Recalc) Has(f Recalc) bool { return r&f != 0 }
