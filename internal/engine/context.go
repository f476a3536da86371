package engine

import (
	"errors"
	"fmt"

	"github.com/inamate/inamate/render-go/internal/typeid"
)

// ErrHasParent is returned by SetRoot for a node that is attached somewhere.
var ErrHasParent = errors.New("engine: root node must not have a parent")

// Options configures a RenderContext.
type Options struct {
	// MaxSlots caps the vertex buffer (DefaultMaxSlots when zero).
	MaxSlots int
	// GrowBuffer doubles the buffer instead of dropping quads past MaxSlots.
	GrowBuffer bool
	// Fused emits quads during the update pass when no stacking context
	// has z-indexed members, skipping the separate fill pass.
	Fused bool
}

// FrameStats describes the last frame.
type FrameStats struct {
	Frame        uint64 `json:"frame"`
	Passes       int    `json:"passes"`
	UpdatedNodes int    `json:"updatedNodes"`
	Quads        int    `json:"quads"`
	DroppedQuads int    `json:"droppedQuads"`
	Runs         int    `json:"runs"`
	ZSorts       int    `json:"zSorts"`
	Fused        bool   `json:"fused"`
}

// Executor consumes a filled batch: a GPU uploader, a raster backend or a
// network sink.
type Executor interface {
	Execute(b *Batch) error
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(b *Batch) error

func (f ExecutorFunc) Execute(b *Batch) error { return f(b) }

// RenderContext owns one render tree and drives its frames. It is not safe
// for concurrent use; mutate the tree only between frames.
type RenderContext struct {
	opts     Options
	root     *Node
	sentinel *Node
	batch    *Batch

	frame           uint64
	updateTreeOrder int
	forceUpdate     int
	// zContexts counts nodes whose paint list is materialized.
	zContexts int
	zSorts    []*Node

	updating   bool
	mutated    bool
	fusedFrame bool

	stats FrameStats
}

// NewRenderContext creates an empty context.
func NewRenderContext(opts Options) *RenderContext {
	if opts.MaxSlots <= 0 {
		opts.MaxSlots = DefaultMaxSlots
	}
	return &RenderContext{
		opts:     opts,
		sentinel: &Node{world: worldContext{alpha: 1, ta: 1, td: 1}},
		batch:    NewBatch(opts.MaxSlots, opts.GrowBuffer),
	}
}

// CreateNode returns a detached node owned by owner.
func (ctx *RenderContext) CreateNode(owner any) *Node {
	return newNode(ctx, typeid.NewNodeID(), owner)
}

// SetRoot makes n the root of the tree. The previous root, if any, stays
// alive but is no longer drawn.
func (ctx *RenderContext) SetRoot(n *Node) error {
	if n == ctx.root {
		return nil
	}
	if n != nil {
		if n.destroyed {
			return ErrDestroyed
		}
		if n.parent != nil {
			return ErrHasParent
		}
		if n.ctx != ctx {
			return fmt.Errorf("set root %s: %w", n.ID, ErrForeignNode)
		}
	}
	if old := ctx.root; old != nil {
		old.isRoot = false
	}
	ctx.root = n
	if n != nil {
		n.isRoot = true
		n.setRecalc(RecalcAll)
		Logger().Info("render root set", "node", n.ID)
	}
	return nil
}

// Root returns the root node.
func (ctx *RenderContext) Root() *Node { return ctx.root }

// Batch returns the batch filled by the last frame.
func (ctx *RenderContext) Batch() *Batch { return ctx.batch }

// Stats returns the statistics of the last frame.
func (ctx *RenderContext) Stats() FrameStats { return ctx.stats }

// ZContexts returns the number of stacking contexts with z-indexed members.
func (ctx *RenderContext) ZContexts() int { return ctx.zContexts }

// Update runs the propagation pass. When callbacks mutate the tree during
// the pass, exactly one more pass runs; further mutations wait for the next
// frame.
func (ctx *RenderContext) Update() {
	ctx.frame++
	ctx.stats = FrameStats{Frame: ctx.frame}
	ctx.fusedFrame = false

	root := ctx.root
	if root == nil {
		return
	}
	for pass := 0; pass < 2; pass++ {
		fused := ctx.opts.Fused && ctx.zContexts == 0
		ctx.fusedFrame = fused
		ctx.forceUpdate = 0
		if fused {
			ctx.batch.Reset()
			ctx.forceUpdate = 1
		}
		ctx.mutated = false
		ctx.updating = true
		root.update(ctx.sentinel)
		ctx.updating = false
		ctx.forceUpdate = 0
		ctx.stats.Passes++

		ctx.runZSorts()
		if !ctx.mutated {
			break
		}
	}
	ctx.stats.Fused = ctx.fusedFrame
}

func (ctx *RenderContext) runZSorts() {
	for i, n := range ctx.zSorts {
		if n.zSort && n.zContextUsage > 0 {
			n.sortZIndexedChildren()
			ctx.stats.ZSorts++
		}
		ctx.zSorts[i] = nil
	}
	ctx.zSorts = ctx.zSorts[:0]
}

// Render fills the batch, unless the update pass already did, and hands it
// to exec. A nil exec only fills.
func (ctx *RenderContext) Render(exec Executor) error {
	b := ctx.batch
	if !ctx.fusedFrame {
		b.Reset()
		if ctx.root != nil {
			ctx.root.fill(b)
		}
	}
	ctx.stats.Quads = b.Quads()
	ctx.stats.DroppedQuads = b.Dropped()
	ctx.stats.Runs = len(b.Runs())

	log := Logger()
	if b.Dropped() > 0 {
		log.Warn("vertex buffer full, quads dropped",
			"frame", ctx.frame, "dropped", b.Dropped(), "capacity", b.Capacity())
	}
	log.Debug("frame rendered",
		"frame", ctx.frame,
		"passes", ctx.stats.Passes,
		"updated", ctx.stats.UpdatedNodes,
		"quads", ctx.stats.Quads,
		"runs", ctx.stats.Runs,
		"fused", ctx.stats.Fused)

	if exec == nil {
		return nil
	}
	if err := exec.Execute(b); err != nil {
		return fmt.Errorf("execute frame %d: %w", ctx.frame, err)
	}
	return nil
}

// Frame runs Update then Render.
func (ctx *RenderContext) Frame(exec Executor) (FrameStats, error) {
	ctx.Update()
	err := ctx.Render(exec)
	return ctx.stats, err
}
