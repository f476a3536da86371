package stream

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	// Viewers only send pointer moves and hit requests.
	maxMsgSize = 16 * 1024
	sendBuffer = 16
)

// Client is one websocket connection of a viewer.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	dropped  atomic.Int64
	ViewerID string
	ClientID string
}

// NewClient wraps an accepted connection. Each connection gets a fresh
// client ID; one viewer may hold several.
func NewClient(hub *Hub, conn *websocket.Conn, viewerID string) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		ViewerID: viewerID,
		ClientID: uuid.NewString(),
	}
}

// Serve registers the client and pumps messages until the connection or
// ctx ends.
func (c *Client) Serve(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.hub.Register(c)
	go c.writePump(ctx)
	c.readPump(ctx)
}

// Dropped returns how many messages were discarded because the viewer
// fell behind.
func (c *Client) Dropped() int64 { return c.dropped.Load() }

func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.hub.unregisterClient(c)
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	c.conn.SetReadLimit(maxMsgSize)

	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			default:
				if !errors.Is(err, context.Canceled) {
					slog.Debug("read error", "error", err, "viewer", c.ViewerID)
				}
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Warn("invalid message", "error", err, "viewer", c.ViewerID)
			continue
		}
		msg.ViewerID = c.ViewerID
		msg.ClientID = c.ClientID

		c.hub.handleMessage(c, &msg)
	}
}

func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	write := func(data []byte) error {
		wctx, cancel := context.WithTimeout(ctx, writeWait)
		defer cancel()
		return c.conn.Write(wctx, websocket.MessageText, data)
	}

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				c.conn.Close(websocket.StatusNormalClosure, "")
				return
			}
			if err := write(data); err != nil {
				slog.Debug("write error", "error", err, "viewer", c.ViewerID)
				c.conn.Close(websocket.StatusInternalError, "write failed")
				return
			}
		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pctx)
			cancel()
			if err != nil {
				c.conn.Close(websocket.StatusPolicyViolation, "ping timeout")
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// Send queues msg. Slow viewers lose messages instead of stalling the
// frame loop.
func (c *Client) Send(msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("marshal message", "error", err)
		return
	}
	c.sendRaw(data, msg.Type)
}

func (c *Client) sendRaw(data []byte, typ string) {
	select {
	case c.send <- data:
	default:
		c.dropped.Add(1)
		slog.Warn("viewer send buffer full, dropping message", "viewer", c.ViewerID, "type", typ)
	}
}
