package stream

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/pierrec/lz4/v4"
	"golang.org/x/crypto/blake2b"

	"github.com/inamate/inamate/render-go/internal/engine"
	"github.com/inamate/inamate/render-go/internal/typeid"
)

// ErrBadPayload is returned for frame payloads that do not decode.
var ErrBadPayload = errors.New("stream: malformed vertex payload")

// Encoder turns engine snapshots into frame payloads. It is not safe for
// concurrent use.
type Encoder struct {
	comp lz4.Compressor
	raw  []byte
	out  []byte
}

// Encode builds the payload for s and returns the digest of its visual
// content, which ignores frame counters.
func (e *Encoder) Encode(s engine.Snapshot) (FramePayload, [32]byte, error) {
	e.raw = e.raw[:0]
	for _, v := range s.Slots {
		e.raw = binary.LittleEndian.AppendUint32(e.raw, v)
	}

	h, _ := blake2b.New256(nil)
	h.Write(e.raw)
	var meta [12]byte
	binary.LittleEndian.PutUint32(meta[0:], uint32(s.Width))
	binary.LittleEndian.PutUint32(meta[4:], uint32(s.Height))
	binary.LittleEndian.PutUint32(meta[8:], s.Background)
	h.Write(meta[:])
	for _, r := range s.Runs {
		h.Write([]byte(r.Texture))
		h.Write(binary.LittleEndian.AppendUint32(nil, uint32(r.Quads)))
	}
	var digest [32]byte
	copy(digest[:], h.Sum(nil))

	p := FramePayload{
		ID:         typeid.NewFrameID(),
		Frame:      s.Frame,
		Playhead:   s.Playhead,
		Width:      s.Width,
		Height:     s.Height,
		Background: s.Background,
		Runs:       s.Runs,
		Quads:      s.Stats.Quads,
		RawSize:    len(e.raw),
	}

	if bound := lz4.CompressBlockBound(len(e.raw)); cap(e.out) < bound {
		e.out = make([]byte, bound)
	}
	n, err := e.comp.CompressBlock(e.raw, e.out[:cap(e.out)])
	if err != nil {
		return FramePayload{}, digest, fmt.Errorf("compress frame %d: %w", s.Frame, err)
	}
	if n == 0 || n >= len(e.raw) {
		// Incompressible (or empty): ship as is.
		p.Encoding = EncodingRaw
		p.Vertices = append([]byte(nil), e.raw...)
	} else {
		p.Encoding = EncodingLZ4
		p.Vertices = append([]byte(nil), e.out[:n]...)
	}
	return p, digest, nil
}

// DecodeVertices returns the batch slots carried by p.
func DecodeVertices(p FramePayload) ([]uint32, error) {
	if p.RawSize%4 != 0 {
		return nil, ErrBadPayload
	}
	raw := p.Vertices
	switch p.Encoding {
	case EncodingRaw:
	case EncodingLZ4:
		raw = make([]byte, p.RawSize)
		n, err := lz4.UncompressBlock(p.Vertices, raw)
		if err != nil {
			return nil, fmt.Errorf("decompress frame %d: %w", p.Frame, err)
		}
		raw = raw[:n]
	default:
		return nil, fmt.Errorf("encoding %q: %w", p.Encoding, ErrBadPayload)
	}
	if len(raw) != p.RawSize {
		return nil, ErrBadPayload
	}
	slots := make([]uint32, len(raw)/4)
	for i := range slots {
		slots[i] = binary.LittleEndian.Uint32(raw[i*4:])
	}
	return slots, nil
}
