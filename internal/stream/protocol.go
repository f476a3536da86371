package stream

import (
	"encoding/json"

	"github.com/inamate/inamate/render-go/internal/engine"
)

type Message struct {
	Type     string          `json:"type"`
	ClientID string          `json:"clientId,omitempty"`
	ViewerID string          `json:"viewerId,omitempty"`
	Seq      int64           `json:"seq,omitempty"`
	Payload  json.RawMessage `json:"payload"`
}

const (
	// Connection
	TypeWelcome = "welcome"
	TypeError   = "error"

	// Frames (server -> viewer)
	TypeFrame = "frame"

	// Viewers
	TypeViewerState = "viewer.state"
	TypeViewerJoin  = "viewer.join"
	TypeViewerLeave = "viewer.leave"
	TypePointer     = "pointer"

	// Picking (viewer -> server -> viewer)
	TypeHitRequest = "hit.request"
	TypeHitResult  = "hit.result"
)

// Vertex payload encodings.
const (
	EncodingLZ4 = "lz4"
	EncodingRaw = "raw"
)

// FramePayload carries one rendered frame. Vertices holds the batch slots
// as little-endian 32-bit words, lz4 block-compressed unless Encoding says
// raw.
type FramePayload struct {
	ID         string               `json:"id"`
	Frame      uint64               `json:"frame"`
	Playhead   int                  `json:"playhead"`
	Width      int                  `json:"width"`
	Height     int                  `json:"height"`
	Background uint32               `json:"background"`
	Runs       []engine.SnapshotRun `json:"runs"`
	Quads      int                  `json:"quads"`
	Encoding   string               `json:"encoding"`
	RawSize    int                  `json:"rawSize"`
	Vertices   []byte               `json:"vertices"`
}

type WelcomePayload struct {
	ClientID string `json:"clientId"`
	ViewerID string `json:"viewerId"`
}

type PointerPayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type ViewerStatePayload struct {
	Pointers map[string]*PointerPayload `json:"pointers"`
}

type ViewerJoinPayload struct {
	ViewerID string `json:"viewerId"`
}

type ViewerLeavePayload struct {
	ViewerID string `json:"viewerId"`
}

type HitRequestPayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type HitResultPayload struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	ObjectID string  `json:"objectId"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

func newMessage(typ string, payload any) (*Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{Type: typ, Payload: data}, nil
}
