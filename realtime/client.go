package realtime

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 4096
	sendQueueSize  = 64
)

// EventHandler receives every decoded inbound event from one client.
type EventHandler func(c *Client, ev Envelope)

// Client is one websocket connection attached to the hub.
type Client struct {
	id      string
	hub     *Hub
	ws      *websocket.Conn
	send    chan []byte
	handler EventHandler
}

// ServeClient registers a freshly upgraded connection with the hub and runs
// its pumps. The handler is invoked from the read pump, one event at a time.
// ServeClient returns when the read pump ends; cleanup has completed by then.
func ServeClient(hub *Hub, ws *websocket.Conn, handler EventHandler) {
	c := &Client{
		id:      uuid.New().String(),
		hub:     hub,
		ws:      ws,
		send:    make(chan []byte, sendQueueSize),
		handler: handler,
	}
	hub.register(c)
	go c.writePump()
	c.readPump()
}

// ID returns the server-assigned connection id, used in logs.
func (c *Client) ID() string { return c.id }

// SendEvent queues an event for this client only.
func (c *Client) SendEvent(event string, data any) {
	frame, err := encodeEvent(event, data)
	if err != nil {
		slog.Error("encode event failed", "event", event, "err", err)
		return
	}
	c.enqueue(frame)
}

// enqueue hands a frame to the write pump. A client whose queue is full is
// too slow to keep; the frame is dropped and the connection closed so the
// read pump unblocks and unregisters it.
func (c *Client) enqueue(frame []byte) {
	select {
	case c.send <- frame:
	default:
		slog.Warn("send queue full, dropping client", "client", c.id)
		if c.ws != nil {
			c.ws.Close()
		}
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.ws.Close()
	}()
	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("websocket read error", "client", c.id, "err", err)
			}
			return
		}
		var ev Envelope
		if err := json.Unmarshal(raw, &ev); err != nil {
			// Malformed frames are logged and skipped, never fatal.
			slog.Warn("malformed event, ignoring", "client", c.id, "err", err)
			continue
		}
		if c.handler != nil {
			c.handler(c, ev)
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()
	for {
		select {
		case frame, ok := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
