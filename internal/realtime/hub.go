package realtime

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/charlesng35/dabifac/pkg/logger"
)

const defaultSendBuffer = 64

// Message is the JSON frame delivered to page clients.
type Message struct {
	Stream string         `json:"stream"`
	Event  string         `json:"event"`
	Data   any            `json:"data,omitempty"`
	Meta   map[string]any `json:"meta,omitempty"`
}

// HubOption customises a Hub.
type HubOption func(*Hub)

// WithAllowedOrigins sets the browser origins allowed to open a socket in
// addition to same-host and loopback pages. A "*" entry allows every origin.
func WithAllowedOrigins(origins ...string) HubOption {
	return func(h *Hub) {
		h.origins = newOriginPolicy(origins)
	}
}

// WithRetainedStreams keeps the latest message of each named stream and replays
// it to clients that subscribe later, so a page opened after an activation still
// learns which snapshot is current.
func WithRetainedStreams(streams ...string) HubOption {
	return func(h *Hub) {
		for _, stream := range uniqueStreams(streams) {
			h.retain[stream] = struct{}{}
		}
	}
}

// WithSendBuffer bounds the per-client queue. A client that falls further
// behind is disconnected.
func WithSendBuffer(size int) HubOption {
	return func(h *Hub) {
		if size > 0 {
			h.sendBuffer = size
		}
	}
}

// Hub fans out stream events to connected page clients.
type Hub struct {
	mu         sync.RWMutex
	streams    map[string]map[*client]struct{}
	clients    map[*client]struct{}
	retain     map[string]struct{}
	retained   map[string]Message
	origins    originPolicy
	sendBuffer int
	upgrader   websocket.Upgrader
	log        *zap.Logger
}

// NewHub constructs a realtime hub.
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		streams:    make(map[string]map[*client]struct{}),
		clients:    make(map[*client]struct{}),
		retain:     make(map[string]struct{}),
		retained:   make(map[string]Message),
		origins:    newOriginPolicy(nil),
		sendBuffer: defaultSendBuffer,
		log:        logger.WithModule("realtime"),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     h.origins.check,
	}
	return h
}

// Serve upgrades the request and subscribes the client to streams. A nil
// allowed set permits every stream.
func (h *Hub) Serve(streams []string, allowed map[string]struct{}, w http.ResponseWriter, r *http.Request) {
	socket, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("upgrade failed", zap.Error(err))
		return
	}

	c := newClient(h, socket, allowed)
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	h.subscribe(c, streams)

	go c.writeLoop()
	c.readLoop()
}

// BroadcastStream delivers message to every subscriber of stream.
func (h *Hub) BroadcastStream(stream string, message Message) {
	stream = normalizeStream(stream)
	if stream == "" {
		return
	}
	message.Stream = stream

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.retain[stream]; ok {
		h.retained[stream] = message
	}
	for c := range h.streams[stream] {
		h.deliverLocked(c, message)
	}
}

// Subscribers returns the number of clients listening on stream.
func (h *Hub) Subscribers(stream string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.streams[normalizeStream(stream)])
}

// Clients returns the number of open sockets.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client. The hub stays usable for new connections.
func (h *Hub) Close() {
	h.mu.RLock()
	open := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		open = append(open, c)
	}
	h.mu.RUnlock()

	for _, c := range open {
		c.close()
	}
}

func (h *Hub) subscribe(c *client, streams []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, stream := range uniqueStreams(streams) {
		if !c.permits(stream) {
			h.log.Debug("stream not permitted", zap.String("stream", stream), zap.String("client", c.id))
			continue
		}
		if _, joined := c.streams[stream]; joined {
			continue
		}
		if h.streams[stream] == nil {
			h.streams[stream] = make(map[*client]struct{})
		}
		h.streams[stream][c] = struct{}{}
		c.streams[stream] = struct{}{}

		if last, ok := h.retained[stream]; ok {
			h.deliverLocked(c, last)
		}
	}
}

func (h *Hub) unsubscribe(c *client, streams []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, stream := range uniqueStreams(streams) {
		h.leaveLocked(c, stream)
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for stream := range c.streams {
		h.leaveLocked(c, stream)
	}
	delete(h.clients, c)
}

func (h *Hub) leaveLocked(c *client, stream string) {
	members, ok := h.streams[stream]
	if !ok {
		return
	}
	delete(members, c)
	if len(members) == 0 {
		delete(h.streams, stream)
	}
	delete(c.streams, stream)
}

// deliverLocked queues message without blocking. The caller holds h.mu.
func (h *Hub) deliverLocked(c *client, message Message) {
	select {
	case c.send <- message:
	default:
		h.log.Warn("disconnecting slow client", zap.String("client", c.id))
		// close re-enters the hub lock.
		go c.close()
	}
}
