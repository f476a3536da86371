package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/inamate/render-go/internal/engine"
)

func repeatingSnapshot(frame uint64, quads int) engine.Snapshot {
	slots := make([]uint32, quads*engine.SlotsPerQuad)
	for i := range slots {
		slots[i] = uint32(i % engine.SlotsPerQuad)
	}
	return engine.Snapshot{
		Frame:      frame,
		Playhead:   int(frame),
		Width:      320,
		Height:     240,
		Background: 0xff202020,
		Slots:      slots,
		Runs:       []engine.SnapshotRun{{Texture: "white", Quads: quads}},
		Stats:      engine.FrameStats{Frame: frame, Quads: quads},
	}
}

func TestEncodeRoundTripCompressed(t *testing.T) {
	var enc Encoder
	s := repeatingSnapshot(3, 64)

	p, _, err := enc.Encode(s)
	require.NoError(t, err)
	assert.Equal(t, EncodingLZ4, p.Encoding)
	assert.Less(t, len(p.Vertices), p.RawSize)
	assert.Equal(t, len(s.Slots)*4, p.RawSize)
	assert.Equal(t, 64, p.Quads)
	assert.True(t, strings.HasPrefix(p.ID, "frame_"))

	slots, err := DecodeVertices(p)
	require.NoError(t, err)
	assert.Equal(t, s.Slots, slots)
}

func TestEncodeEmptyIsRaw(t *testing.T) {
	var enc Encoder
	p, _, err := enc.Encode(engine.Snapshot{})
	require.NoError(t, err)
	assert.Equal(t, EncodingRaw, p.Encoding)

	slots, err := DecodeVertices(p)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestDecodeRejectsBadPayloads(t *testing.T) {
	_, err := DecodeVertices(FramePayload{Encoding: "zstd"})
	assert.ErrorIs(t, err, ErrBadPayload)

	_, err = DecodeVertices(FramePayload{Encoding: EncodingRaw, RawSize: 6, Vertices: make([]byte, 6)})
	assert.ErrorIs(t, err, ErrBadPayload)

	_, err = DecodeVertices(FramePayload{Encoding: EncodingRaw, RawSize: 8, Vertices: make([]byte, 4)})
	assert.ErrorIs(t, err, ErrBadPayload)
}

func TestDigestIgnoresFrameCounter(t *testing.T) {
	var enc Encoder
	_, d1, err := enc.Encode(repeatingSnapshot(1, 4))
	require.NoError(t, err)
	_, d2, err := enc.Encode(repeatingSnapshot(2, 4))
	require.NoError(t, err)
	assert.Equal(t, d1, d2)

	moved := repeatingSnapshot(2, 4)
	moved.Slots[0] = 99
	_, d3, err := enc.Encode(moved)
	require.NoError(t, err)
	assert.NotEqual(t, d1, d3)

	retextured := repeatingSnapshot(2, 4)
	retextured.Runs[0].Texture = "tex_other"
	_, d4, err := enc.Encode(retextured)
	require.NoError(t, err)
	assert.NotEqual(t, d1, d4)
}

func TestPublishSkipsDuplicates(t *testing.T) {
	hub := NewHub(nil)

	sent, err := hub.Publish(repeatingSnapshot(1, 2))
	require.NoError(t, err)
	assert.True(t, sent)

	sent, err = hub.Publish(repeatingSnapshot(2, 2))
	require.NoError(t, err)
	assert.False(t, sent)

	sent, err = hub.Publish(repeatingSnapshot(3, 3))
	require.NoError(t, err)
	assert.True(t, sent)

	assert.EqualValues(t, 2, hub.Published())
	assert.EqualValues(t, 1, hub.Skipped())
}

func TestViewerManager(t *testing.T) {
	vm := NewViewerManager()
	vm.Update("viewer_a", &PointerPayload{X: 1, Y: 2})
	vm.Update("viewer_b", &PointerPayload{X: 3, Y: 4})
	vm.Update("viewer_a", &PointerPayload{X: 5, Y: 6})

	all := vm.GetAll()
	require.Len(t, all, 2)
	assert.Equal(t, 5.0, all["viewer_a"].X)

	vm.Remove("viewer_b")
	msg := vm.StateMessage()
	require.NotNil(t, msg)
	assert.Equal(t, TypeViewerState, msg.Type)

	var state ViewerStatePayload
	require.NoError(t, json.Unmarshal(msg.Payload, &state))
	assert.Len(t, state.Pointers, 1)
	assert.Contains(t, state.Pointers, "viewer_a")
}

func readMessage(t *testing.T, ctx context.Context, conn *websocket.Conn) Message {
	t.Helper()
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestHubOverWebSocket(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	hub := NewHub(func(x, y float64) string {
		if x < 10 && y < 10 {
			return "obj_corner"
		}
		return ""
	})
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		NewClient(hub, conn, "viewer_test").Serve(r.Context())
	}))
	defer srv.Close()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	welcome := readMessage(t, ctx, conn)
	require.Equal(t, TypeWelcome, welcome.Type)
	var wp WelcomePayload
	require.NoError(t, json.Unmarshal(welcome.Payload, &wp))
	assert.Equal(t, "viewer_test", wp.ViewerID)
	assert.NotEmpty(t, wp.ClientID)

	assert.Equal(t, TypeViewerState, readMessage(t, ctx, conn).Type)
	assert.Equal(t, 1, hub.Clients())

	snap := repeatingSnapshot(7, 8)
	sent, err := hub.Publish(snap)
	require.NoError(t, err)
	require.True(t, sent)

	frame := readMessage(t, ctx, conn)
	require.Equal(t, TypeFrame, frame.Type)
	assert.EqualValues(t, 1, frame.Seq)
	var fp FramePayload
	require.NoError(t, json.Unmarshal(frame.Payload, &fp))
	assert.EqualValues(t, 7, fp.Frame)
	slots, err := DecodeVertices(fp)
	require.NoError(t, err)
	assert.Equal(t, snap.Slots, slots)

	req, err := json.Marshal(Message{Type: TypeHitRequest, Seq: 42, Payload: json.RawMessage(`{"x":4,"y":5}`)})
	require.NoError(t, err)
	require.NoError(t, conn.Write(ctx, websocket.MessageText, req))

	res := readMessage(t, ctx, conn)
	require.Equal(t, TypeHitResult, res.Type)
	assert.EqualValues(t, 42, res.Seq)
	var hit HitResultPayload
	require.NoError(t, json.Unmarshal(res.Payload, &hit))
	assert.Equal(t, "obj_corner", hit.ObjectID)
	assert.Equal(t, 4.0, hit.X)

	bad, err := json.Marshal(Message{Type: TypeHitRequest, Payload: json.RawMessage(`"nope"`)})
	require.NoError(t, err)
	require.NoError(t, conn.Write(ctx, websocket.MessageText, bad))
	assert.Equal(t, TypeError, readMessage(t, ctx, conn).Type)
}

func TestRegisterAfterStop(t *testing.T) {
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	hub.Run(ctx)

	c := &Client{hub: hub, send: make(chan []byte, 1), ViewerID: "viewer_late"}
	hub.Register(c)
	_, ok := <-c.send
	assert.False(t, ok, "send channel closed for a stopped hub")
	hub.unregisterClient(c)
	assert.Zero(t, hub.Clients())
}

func TestSlowViewerDropsMessages(t *testing.T) {
	c := &Client{send: make(chan []byte, 1), ViewerID: "viewer_slow"}
	c.Send(&Message{Type: TypeFrame})
	c.Send(&Message{Type: TypeFrame})
	assert.EqualValues(t, 1, c.Dropped())
}
