package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildMixedTree builds a tree exercising translation, rotation, alpha and
// both clip paths, without z-indices.
func buildMixedTree(t *testing.T, root *Node) []*Node {
	t.Helper()
	a := rect(t, root, 10, 10, 200, 100)
	a.SetColorUr(0xff00ff00)
	b := rect(t, a, 20, 20, 50, 50)
	b.SetLocalAlpha(0.5)

	panel := rect(t, root, 0, 0, 100, 100)
	panel.SetMatrix(FromTransform(300, 100, 1, 1, 30, 0, 0, 0, 0))
	panel.SetClipping(true)
	stripe := rect(t, panel, -20, 40, 200, 20)
	stripe.SetMatrix(FromTransform(-20, 40, 1, 1, -15, 0, 0, 0, 0))

	box := rect(t, root, 400, 300, 100, 100)
	box.SetClipping(true)
	inner := rect(t, box, 50, 50, 100, 100)

	hidden := rect(t, root, 0, 0, 10, 10)
	hidden.SetLocalAlpha(0)
	rect(t, hidden, 0, 0, 10, 10)

	return []*Node{a, b, panel, stripe, box, inner, hidden}
}

func TestFusedMatchesFill(t *testing.T) {
	fusedCtx, fusedRoot := newTestContext(t, Options{Fused: true})
	plainCtx, plainRoot := newTestContext(t, Options{})
	fusedNodes := buildMixedTree(t, fusedRoot)
	plainNodes := buildMixedTree(t, plainRoot)

	fs := frame(t, fusedCtx)
	ps := frame(t, plainCtx)
	assert.True(t, fs.Fused)
	assert.False(t, ps.Fused)
	assert.Equal(t, ps.Quads, fs.Quads)
	assert.Equal(t, plainCtx.Batch().Slots(), fusedCtx.Batch().Slots())

	for _, nodes := range [][]*Node{fusedNodes, plainNodes} {
		nodes[0].SetLocalTranslate(15, 12)
		nodes[6].SetLocalAlpha(1)
		nodes[2].SetClipping(false)
	}
	fs = frame(t, fusedCtx)
	ps = frame(t, plainCtx)
	assert.Equal(t, ps.Quads, fs.Quads)
	assert.Equal(t, plainCtx.Batch().Slots(), fusedCtx.Batch().Slots())

	// Unchanged frame: fused mode still emits everything.
	fs = frame(t, fusedCtx)
	assert.Equal(t, ps.Quads, fs.Quads)
}

func TestFusedDisabledByZIndex(t *testing.T) {
	ctx, root := newTestContext(t, Options{Fused: true})
	n := rect(t, root, 0, 0, 10, 10)
	rect(t, root, 0, 0, 10, 10)

	assert.True(t, frame(t, ctx).Fused)

	n.SetZIndex(1)
	stats := frame(t, ctx)
	assert.False(t, stats.Fused)
	assert.Equal(t, 2, stats.Quads)

	n.SetZIndex(0)
	assert.True(t, frame(t, ctx).Fused)
}

func TestMutationDuringUpdateRunsSecondPass(t *testing.T) {
	ctx, root := newTestContext(t, Options{})
	first := rect(t, root, 0, 0, 10, 10)
	second := rect(t, root, 0, 0, 10, 10)
	frame(t, ctx)

	calls := 0
	second.OnUpdate = func(*Node) {
		calls++
		if calls == 1 {
			first.SetLocalTranslate(50, 60)
		}
	}
	second.SetLocalAlpha(0.9)

	stats := frame(t, ctx)
	assert.Equal(t, 2, stats.Passes)
	m := first.WorldMatrix()
	assert.Equal(t, 50.0, m[4])
	assert.Equal(t, 60.0, m[5])

	stats = frame(t, ctx)
	assert.Equal(t, 1, stats.Passes)
}

func TestMutationEveryPassIsCapped(t *testing.T) {
	ctx, root := newTestContext(t, Options{})
	ping := rect(t, root, 0, 0, 10, 10)
	pong := rect(t, root, 0, 0, 10, 10)
	x := 0.0
	ping.OnUpdate = func(*Node) {
		x++
		pong.SetLocalTranslate(x, 0)
	}
	pong.OnUpdate = func(*Node) {
		x++
		ping.SetLocalTranslate(x, 0)
	}

	stats := frame(t, ctx)
	assert.Equal(t, 2, stats.Passes)
	assert.True(t, ping.HasUpdates(), "the change from the last pass waits for the next frame")
}

func TestOverflowCounted(t *testing.T) {
	ctx, root := newTestContext(t, Options{MaxSlots: 2 * SlotsPerQuad})
	for range 3 {
		rect(t, root, 0, 0, 10, 10)
	}
	stats := frame(t, ctx)
	assert.Equal(t, 2, stats.Quads)
	assert.Equal(t, 1, stats.DroppedQuads)

	grow, groot := newTestContext(t, Options{MaxSlots: 2 * SlotsPerQuad, GrowBuffer: true})
	for range 3 {
		rect(t, groot, 0, 0, 10, 10)
	}
	stats = frame(t, grow)
	assert.Equal(t, 3, stats.Quads)
	assert.Equal(t, 0, stats.DroppedQuads)
}

func TestExecutorReceivesBatch(t *testing.T) {
	ctx, root := newTestContext(t, Options{})
	rect(t, root, 0, 0, 10, 10)

	var got *Batch
	_, err := ctx.Frame(ExecutorFunc(func(b *Batch) error {
		got = b
		return nil
	}))
	require.NoError(t, err)
	assert.Equal(t, ctx.Batch(), got)
	assert.Equal(t, 1, got.Quads())

	boom := errors.New("device lost")
	_, err = ctx.Frame(ExecutorFunc(func(*Batch) error { return boom }))
	assert.ErrorIs(t, err, boom)
}

func TestStatsFrameCounter(t *testing.T) {
	ctx, root := newTestContext(t, Options{})
	rect(t, root, 0, 0, 10, 10)
	frame(t, ctx)
	stats := frame(t, ctx)
	assert.Equal(t, uint64(2), stats.Frame)
	assert.Equal(t, stats, ctx.Stats())
	assert.Equal(t, 1, stats.Runs)
}

func TestUpdateSkipsCleanSubtrees(t *testing.T) {
	ctx, root := newTestContext(t, Options{})
	rect(t, root, 0, 0, 10, 10)
	b := rect(t, root, 0, 0, 10, 10)
	frame(t, ctx)

	b.SetLocalTranslate(1, 1)
	stats := frame(t, ctx)
	assert.Equal(t, 2, stats.UpdatedNodes, "root and the changed node")
}
