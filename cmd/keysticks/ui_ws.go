package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// ============================================================================
// UI WebSocket Stream
// ============================================================================
// Every event drained from the UI channel is serialized once and fanned out
// to the connected clients as a JSON text frame {type, ts, data}. A client
// may narrow the stream with ?types=word_prediction,state_change; the first
// frame is always "ui_init" with the session, profile, layout and current
// suggestion list.
//
// Clients may also write IPC event envelopes; they are routed like events
// from keysticks-ctl.
//
// A client whose send queue is full is evicted. The UI loop never waits on a
// socket.
// ============================================================================

const (
	uiWriteTimeout = 5 * time.Second
	uiPongTimeout  = 30 * time.Second
	uiPingInterval = 20 * time.Second

	defaultUISendBuf      = 32
	defaultUIBroadcastBuf = 128
)

// envelope is the frame written to clients.
type envelope struct {
	Type string     `json:"type"`
	Ts   *time.Time `json:"ts,omitempty"`
	Data any        `json:"data,omitempty"`
}

// uiSnapshot is the data of the "ui_init" frame.
type uiSnapshot struct {
	Session     string             `json:"session"`
	Profile     string             `json:"profile,omitempty"`
	Layout      string             `json:"layout,omitempty"`
	Suggestions *suggestionsStatus `json:"suggestions,omitempty"`
}

// uiFrame is a serialized message and the event type it carries, so the hub
// can filter without decoding.
type uiFrame struct {
	kind EventType
	data []byte
}

func marshalUIFrame(ev Event, at time.Time) ([]byte, error) {
	ts := at.UTC()
	return json.Marshal(envelope{Type: ev.EventType().String(), Ts: &ts, Data: ev})
}

// parseEventTypes parses a comma separated list of event type names. An
// empty list accepts every type.
func parseEventTypes(s string) (map[EventType]bool, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	out := make(map[EventType]bool)
	for _, name := range strings.Split(s, ",") {
		if name = strings.TrimSpace(name); name == "" {
			continue
		}
		t, ok := parseEnum(eventTypeNames, name)
		if !ok {
			return nil, fmt.Errorf("unknown event type %q", name)
		}
		out[t] = true
	}
	return out, nil
}

// ============================================================================
// Hub
// ============================================================================

type Hub struct {
	logger *slog.Logger

	broadcast  chan uiFrame
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu      sync.Mutex
	clients map[*Client]struct{}
	dropped int

	sendBuf int
}

type HubConfig struct {
	// SendBuf is the per-client queue length.
	SendBuf int
	// BroadcastBuf is the queue length between the UI loop and the hub.
	BroadcastBuf int
}

func NewHub(logger *slog.Logger, cfg HubConfig) *Hub {
	return &Hub{
		logger:     logger,
		broadcast:  make(chan uiFrame, orDefault(cfg.BroadcastBuf, defaultUIBroadcastBuf)),
		register:   make(chan *Client, 16),
		unregister: make(chan *Client, 16),
		done:       make(chan struct{}),
		clients:    make(map[*Client]struct{}),
		sendBuf:    orDefault(cfg.SendBuf, defaultUISendBuf),
	}
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// Run serves registrations and broadcasts until ctx is canceled, then
// disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	h.logger.Debug("ui hub started")
	defer h.logger.Debug("ui hub stopped")

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return
		case c := <-h.register:
			h.add(c)
		case c := <-h.unregister:
			h.drop(c, "closed")
		case f := <-h.broadcast:
			h.fanout(f)
		}
	}
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Info("ui client connected", "client", c.id, "remote_addr", c.remoteAddr, "clients", n)
}

func (h *Hub) drop(c *Client, reason string) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()

	if !ok {
		return
	}
	c.close()
	h.logger.Info("ui client disconnected", "client", c.id, "remote_addr", c.remoteAddr, "reason", reason, "clients", n)
}

func (h *Hub) fanout(f uiFrame) {
	var full []*Client
	h.mu.Lock()
	for c := range h.clients {
		if !c.wants(f.kind) {
			continue
		}
		select {
		case c.send <- f.data:
		default:
			full = append(full, c)
		}
	}
	h.mu.Unlock()

	for _, c := range full {
		h.drop(c, "send queue full")
	}
}

func (h *Hub) shutdown() {
	close(h.done)
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*Client]struct{})
	h.mu.Unlock()
	for c := range clients {
		c.close()
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Dropped returns how many frames were discarded because the hub queue was
// full.
func (h *Hub) Dropped() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dropped
}

// BroadcastEvent serializes ev and queues it for the clients that want it.
// It never blocks; when the hub queue is full the frame is dropped.
func (h *Hub) BroadcastEvent(ev Event) {
	data, err := marshalUIFrame(ev, time.Now())
	if err != nil {
		h.logger.Warn("ui frame not encoded", "type", ev.EventType(), "error", err)
		return
	}
	select {
	case h.broadcast <- uiFrame{kind: ev.EventType(), data: data}:
	default:
		h.mu.Lock()
		h.dropped++
		h.mu.Unlock()
		h.logger.Debug("ui hub queue full, frame dropped", "type", ev.EventType())
	}
}

// ============================================================================
// Client
// ============================================================================

type Client struct {
	hub *Hub

	conn *websocket.Conn
	send chan []byte
	once sync.Once

	// accepts is the subscribed event types; nil accepts all.
	accepts map[EventType]bool

	id         string
	remoteAddr string
	logger     *slog.Logger
}

func NewClient(hub *Hub, conn *websocket.Conn, remoteAddr string, accepts map[EventType]bool, logger *slog.Logger) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, hub.sendBuf),
		accepts:    accepts,
		id:         uuid.NewString(),
		remoteAddr: remoteAddr,
		logger:     logger,
	}
}

func (c *Client) wants(t EventType) bool {
	return c.accepts == nil || c.accepts[t]
}

// close ends the write pump and the connection. Safe to call more than once.
func (c *Client) close() {
	c.once.Do(func() {
		close(c.send)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}

func (c *Client) logExit(pump string, err error) {
	var ce *websocket.CloseError
	switch {
	case errors.Is(err, websocket.ErrCloseSent):
	case errors.As(err, &ce):
		c.logger.Debug("ui client closed", "client", c.id, "pump", pump, "code", ce.Code, "reason", ce.Text)
	default:
		c.logger.Debug("ui client io error", "client", c.id, "pump", pump, "error", err)
	}
}

// writePump drains the send queue to the socket and keeps it alive with
// pings. A closed queue means the hub let the client go.
func (c *Client) writePump() {
	ping := time.NewTicker(uiPingInterval)
	defer ping.Stop()

	write := func(kind int, data []byte) error {
		_ = c.conn.SetWriteDeadline(time.Now().Add(uiWriteTimeout))
		return c.conn.WriteMessage(kind, data)
	}

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = write(websocket.CloseMessage, nil)
				return
			}
			if err := write(websocket.TextMessage, msg); err != nil {
				c.logExit("write", err)
				return
			}
		case <-ping.C:
			if err := write(websocket.PingMessage, nil); err != nil {
				c.logExit("ping", err)
				return
			}
		}
	}
}

// readPump decodes event envelopes written by the client and hands them to
// submit. It unregisters the client when the connection ends.
func (c *Client) readPump(submit func(Event)) {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(uiPongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(uiPongTimeout))
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			c.logExit("read", err)
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(uiPongTimeout))
		if submit == nil {
			continue
		}
		ev, err := UnmarshalEvent(msg)
		if err != nil {
			c.logger.Warn("ui client event rejected", "client", c.id, "error", err)
			continue
		}
		submit(ev)
	}
}

// ============================================================================
// HTTP Handler
// ============================================================================

type Server struct {
	logger *slog.Logger
	hub    *Hub

	// snapshot is the payload of the "ui_init" frame.
	snapshot func() uiSnapshot
	// submit receives events written by clients; nil makes the stream
	// read-only.
	submit func(Event)

	upgrader websocket.Upgrader
}

type ServerConfig struct {
	Hub HubConfig
}

// NewServer builds the stream. Register it on a mux and run Hub().Run.
func NewServer(logger *slog.Logger, snapshot func() uiSnapshot, submit func(Event), cfg ServerConfig) *Server {
	return &Server{
		logger:   logger,
		hub:      NewHub(logger, cfg.Hub),
		snapshot: snapshot,
		submit:   submit,
		upgrader: websocket.Upgrader{
			// The listener is local; on-screen keyboards load from file:// origins.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (s *Server) Hub() *Hub { return s.hub }

func (s *Server) Register(mux *http.ServeMux, path string) {
	if mux != nil {
		mux.HandleFunc(path, s.serveWS)
	}
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	accepts, err := parseEventTypes(r.URL.Query().Get("types"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("ui websocket upgrade failed", "remote_addr", r.RemoteAddr, "error", err)
		return
	}

	c := NewClient(s.hub, conn, r.RemoteAddr, accepts, s.logger)
	if s.snapshot != nil {
		now := time.Now().UTC()
		if init, err := json.Marshal(envelope{Type: "ui_init", Ts: &now, Data: s.snapshot()}); err == nil {
			// Queued before registering, so it goes out before any broadcast.
			c.send <- init
		} else {
			s.logger.Warn("ui_init not encoded", "error", err)
		}
	}
	s.hub.register <- c

	// r.Context() ends with this handler; the pumps run until the socket
	// closes.
	go c.writePump()
	go c.readPump(s.submit)
}
