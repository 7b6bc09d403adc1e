package realtime

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxControlSize = 4 << 10
)

// control is a client request to change its subscriptions.
type control struct {
	Action  string   `json:"action"`
	Streams []string `json:"streams"`
}

type client struct {
	hub     *Hub
	socket  *websocket.Conn
	id      string
	allowed map[string]struct{}
	streams map[string]struct{} // guarded by hub.mu
	send    chan Message
	done    chan struct{}
	once    sync.Once
}

func newClient(hub *Hub, socket *websocket.Conn, allowed map[string]struct{}) *client {
	return &client{
		hub:     hub,
		socket:  socket,
		id:      uuid.NewString(),
		allowed: allowed,
		streams: make(map[string]struct{}),
		send:    make(chan Message, hub.sendBuffer),
		done:    make(chan struct{}),
	}
}

func (c *client) permits(stream string) bool {
	if len(c.allowed) == 0 {
		return true
	}
	_, ok := c.allowed[stream]
	return ok
}

func (c *client) readLoop() {
	defer c.close()

	c.socket.SetReadLimit(maxControlSize)
	_ = c.socket.SetReadDeadline(time.Now().Add(pongWait))
	c.socket.SetPongHandler(func(string) error {
		return c.socket.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := c.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Debug("client closed unexpectedly", zap.String("client", c.id), zap.Error(err))
			}
			return
		}
		if len(payload) > 0 {
			c.handle(payload)
		}
	}
}

func (c *client) handle(payload []byte) {
	var msg control
	if err := json.Unmarshal(payload, &msg); err != nil {
		c.hub.log.Debug("malformed control frame", zap.String("client", c.id), zap.Error(err))
		return
	}

	switch strings.ToLower(strings.TrimSpace(msg.Action)) {
	case "subscribe":
		c.hub.subscribe(c, msg.Streams)
	case "unsubscribe":
		c.hub.unsubscribe(c, msg.Streams)
	case "ping":
		c.hub.mu.Lock()
		c.hub.deliverLocked(c, Message{Event: "pong"})
		c.hub.mu.Unlock()
	default:
		c.hub.log.Debug("unknown control action", zap.String("action", msg.Action), zap.String("client", c.id))
	}
}

func (c *client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
		_ = c.socket.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.socket.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(writeWait))
			return
		case msg := <-c.send:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.socket.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// close detaches the client and stops the write loop, which owns the socket.
// send is never closed so a racing broadcast cannot panic.
func (c *client) close() {
	c.once.Do(func() {
		c.hub.remove(c)
		close(c.done)
	})
}
