package engine

import (
	"encoding/binary"
	"math"
)

const (
	// SlotsPerVertex is the number of 32-bit slots one vertex occupies:
	// x and y as float32 bits, the packed texture coordinate, and the
	// packed premultiplied color.
	SlotsPerVertex = 4
	// SlotsPerQuad is four vertices.
	SlotsPerQuad = 4 * SlotsPerVertex
	// DefaultMaxSlots caps the vertex buffer per frame.
	DefaultMaxSlots = 262144
)

// TextureRun is a stretch of consecutive quads sharing one texture, i.e.
// one draw call.
type TextureRun struct {
	Texture TextureSource
	Quads   int
}

// Vertex is one decoded vertex of the batch.
type Vertex struct {
	X, Y     float32
	TexCoord uint32
	Color    uint32
}

// Batch is the per-frame vertex stream. Its buffers are reused between
// frames; Reset only rewinds them.
//
// Texture handles are compared with ==, so implementations of
// TextureSource must be comparable (pointer types in practice).
type Batch struct {
	slots   []uint32
	used    int
	runs    []TextureRun
	quads   int
	dropped int
	indices []uint32

	maxSlots int
	grow     bool
}

// NewBatch allocates a batch holding up to maxSlots slots. With grow set the
// buffer doubles instead of dropping quads once full.
func NewBatch(maxSlots int, grow bool) *Batch {
	if maxSlots <= 0 {
		maxSlots = DefaultMaxSlots
	}
	maxSlots -= maxSlots % SlotsPerQuad
	if maxSlots == 0 {
		maxSlots = SlotsPerQuad
	}
	return &Batch{
		slots:    make([]uint32, maxSlots),
		maxSlots: maxSlots,
		grow:     grow,
	}
}

// Reset rewinds the batch for a new frame.
func (b *Batch) Reset() {
	b.used = 0
	b.quads = 0
	b.dropped = 0
	clear(b.runs)
	b.runs = b.runs[:0]
}

// Quads returns the number of quads written this frame.
func (b *Batch) Quads() int { return b.quads }

// Dropped returns the number of quads skipped because the buffer was full.
func (b *Batch) Dropped() int { return b.dropped }

// Capacity returns the current buffer size in slots.
func (b *Batch) Capacity() int { return b.maxSlots }

// Runs returns the texture runs of this frame. The slice is reused by the
// next frame.
func (b *Batch) Runs() []TextureRun { return b.runs }

// Slots returns the written part of the vertex buffer.
func (b *Batch) Slots() []uint32 { return b.slots[:b.used] }

// Vertex decodes vertex i.
func (b *Batch) Vertex(i int) Vertex {
	o := i * SlotsPerVertex
	return Vertex{
		X:        math.Float32frombits(b.slots[o]),
		Y:        math.Float32frombits(b.slots[o+1]),
		TexCoord: b.slots[o+2],
		Color:    b.slots[o+3],
	}
}

// Indices returns the triangle index list for the quads written so far: two
// triangles per quad in the pattern 0,1,2 0,2,3.
func (b *Batch) Indices() []uint32 {
	want := b.quads * 6
	for q := len(b.indices) / 6; len(b.indices) < want; q++ {
		base := uint32(q * 4)
		b.indices = append(b.indices, base, base+1, base+2, base, base+2, base+3)
	}
	return b.indices[:want]
}

// Bytes returns the written slots as little-endian bytes for upload.
func (b *Batch) Bytes() []byte {
	out := make([]byte, b.used*4)
	for i, v := range b.slots[:b.used] {
		binary.LittleEndian.PutUint32(out[i*4:], v)
	}
	return out
}

// reserve claims room for one quad drawn with tex and returns its first
// slot. It returns false when the buffer is full.
func (b *Batch) reserve(tex TextureSource) (int, bool) {
	if b.used+SlotsPerQuad > b.maxSlots {
		if !b.grow {
			b.dropped++
			return 0, false
		}
		b.maxSlots *= 2
		next := make([]uint32, b.maxSlots)
		copy(next, b.slots[:b.used])
		b.slots = next
	}
	if n := len(b.runs); n == 0 || b.runs[n-1].Texture != tex {
		b.runs = append(b.runs, TextureRun{Texture: tex})
	}
	b.runs[len(b.runs)-1].Quads++
	off := b.used
	b.used += SlotsPerQuad
	b.quads++
	return off, true
}

func (b *Batch) setVertex(o int, x, y float64, tex, color uint32) {
	b.slots[o] = math.Float32bits(float32(x))
	b.slots[o+1] = math.Float32bits(float32(y))
	b.slots[o+2] = tex
	b.slots[o+3] = color
}
