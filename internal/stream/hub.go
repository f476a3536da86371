package stream

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/inamate/inamate/render-go/internal/engine"
)

// HitFunc resolves a point in scene coordinates to an object ID.
type HitFunc func(x, y float64) string

// Hub fans rendered frames out to connected viewers.
type Hub struct {
	mu         sync.RWMutex
	clients    map[string]*Client // clientID -> client
	viewers    *ViewerManager
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	hit        HitFunc

	// Publish side, owned by the frame goroutine.
	enc        Encoder
	lastDigest [32]byte
	hasLast    bool

	// last frame message, sent to viewers as they join
	last *Message
	seq  atomic.Int64

	published atomic.Int64
	skipped   atomic.Int64
}

func NewHub(hit HitFunc) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		viewers:    NewViewerManager(),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		hit:        hit,
	}
}

// Run serves registrations until ctx is done, then disconnects every
// viewer. A hub runs once.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-ctx.Done():
			h.closeAll()
			return
		}
	}
}

// Register adds a client. It is a no-op once the hub has stopped.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.send)
	}
}

func (h *Hub) unregisterClient(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Clients returns the number of connected viewers.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Published returns how many frames were broadcast.
func (h *Hub) Published() int64 { return h.published.Load() }

// Skipped returns how many frames were identical to the previous one and
// not broadcast.
func (h *Hub) Skipped() int64 { return h.skipped.Load() }

// Publish broadcasts a snapshot unless it looks exactly like the last one.
// It reports whether the frame was sent. Call from one goroutine only.
func (h *Hub) Publish(s engine.Snapshot) (bool, error) {
	payload, digest, err := h.enc.Encode(s)
	if err != nil {
		return false, err
	}
	if h.hasLast && digest == h.lastDigest {
		h.skipped.Add(1)
		return false, nil
	}
	msg, err := newMessage(TypeFrame, payload)
	if err != nil {
		return false, err
	}
	msg.Seq = h.seq.Add(1)

	h.lastDigest, h.hasLast = digest, true
	h.mu.Lock()
	h.last = msg
	h.mu.Unlock()

	h.broadcast(msg, "")
	h.published.Add(1)
	return true, nil
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client.ClientID] = client
	last := h.last
	h.mu.Unlock()

	if welcome, err := newMessage(TypeWelcome, WelcomePayload{
		ClientID: client.ClientID,
		ViewerID: client.ViewerID,
	}); err == nil {
		client.Send(welcome)
	}
	if stateMsg := h.viewers.StateMessage(); stateMsg != nil {
		client.Send(stateMsg)
	}
	if last != nil {
		client.Send(last)
	}

	if joinMsg, err := newMessage(TypeViewerJoin, ViewerJoinPayload{ViewerID: client.ViewerID}); err == nil {
		joinMsg.ViewerID = client.ViewerID
		h.broadcast(joinMsg, client.ClientID)
	}

	slog.Info("viewer joined", "viewer", client.ViewerID, "client", client.ClientID)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client.ClientID]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client.ClientID)
	close(client.send)
	h.mu.Unlock()
	h.viewers.Remove(client.ViewerID)

	if leaveMsg, err := newMessage(TypeViewerLeave, ViewerLeavePayload{ViewerID: client.ViewerID}); err == nil {
		leaveMsg.ViewerID = client.ViewerID
		h.broadcast(leaveMsg, "")
	}

	slog.Info("viewer left", "viewer", client.ViewerID, "client", client.ClientID)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		close(c.send)
		delete(h.clients, id)
	}
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	switch msg.Type {
	case TypePointer:
		h.handlePointer(sender, msg)
	case TypeHitRequest:
		h.handleHitRequest(sender, msg)
	default:
		slog.Warn("unknown message type", "type", msg.Type, "viewer", sender.ViewerID)
	}
}

func (h *Hub) handlePointer(sender *Client, msg *Message) {
	var pointer PointerPayload
	if err := json.Unmarshal(msg.Payload, &pointer); err != nil {
		slog.Warn("invalid pointer payload", "error", err)
		return
	}
	h.viewers.Update(sender.ViewerID, &pointer)

	outPayload, _ := json.Marshal(pointer)
	h.broadcast(&Message{
		Type:     TypePointer,
		ViewerID: sender.ViewerID,
		Payload:  outPayload,
	}, sender.ClientID)
}

func (h *Hub) handleHitRequest(sender *Client, msg *Message) {
	var req HitRequestPayload
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		if errMsg, err := newMessage(TypeError, ErrorPayload{Message: "invalid hit request"}); err == nil {
			sender.Send(errMsg)
		}
		return
	}
	var id string
	if h.hit != nil {
		id = h.hit(req.X, req.Y)
	}
	if res, err := newMessage(TypeHitResult, HitResultPayload{X: req.X, Y: req.Y, ObjectID: id}); err == nil {
		res.Seq = msg.Seq
		sender.Send(res)
	}
}

func (h *Hub) broadcast(msg *Message, excludeClientID string) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("marshal message", "error", err)
		return
	}

	// Sends are non-blocking; holding the read lock keeps removeClient from
	// closing a channel mid-send.
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		if c.ClientID != excludeClientID {
			c.sendRaw(data, msg.Type)
		}
	}
}
