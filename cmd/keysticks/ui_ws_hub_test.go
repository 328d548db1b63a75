package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// Hub tests use clients without a connection; Client.close skips a nil conn.

func startHub(t *testing.T, cfg HubConfig) (*Hub, func()) {
	t.Helper()
	hub := NewHub(discardLogger(), cfg)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		hub.Run(ctx)
	}()
	return hub, func() {
		cancel()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatalf("hub did not stop")
		}
	}
}

func joinHub(t *testing.T, hub *Hub, id string, buf int, accepts map[EventType]bool) *Client {
	t.Helper()
	c := &Client{
		hub:        hub,
		send:       make(chan []byte, buf),
		accepts:    accepts,
		id:         id,
		remoteAddr: id,
		logger:     discardLogger(),
	}
	hub.register <- c
	waitUntil(t, 500*time.Millisecond, func() bool {
		hub.mu.Lock()
		defer hub.mu.Unlock()
		_, ok := hub.clients[c]
		return ok
	}, id+" not registered")
	return c
}

func expectFrame(t *testing.T, c *Client, want string) {
	t.Helper()
	select {
	case got, ok := <-c.send:
		if !ok {
			t.Fatalf("%s: queue closed", c.id)
		}
		if !strings.Contains(string(got), want) {
			t.Fatalf("%s: expected a frame containing %s, got %s", c.id, want, got)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("%s: no frame", c.id)
	}
}

func TestHub_FanoutAndShutdown(t *testing.T) {
	hub, stop := startHub(t, HubConfig{SendBuf: 4, BroadcastBuf: 8})

	a := joinHub(t, hub, "a", 4, nil)
	b := joinHub(t, hub, "b", 4, nil)

	hub.BroadcastEvent(StateChangeEvent{Player: 1, State: StateVector{1, 1, 105}})
	expectFrame(t, a, `"state_change"`)
	expectFrame(t, b, `"state_change"`)

	stop()
	if n := hub.ClientCount(); n != 0 {
		t.Fatalf("expected no clients after shutdown, got %d", n)
	}
	if _, ok := <-a.send; ok {
		t.Errorf("expected client queues closed on shutdown")
	}
}

func TestHub_SubscriptionFilter(t *testing.T) {
	hub, stop := startHub(t, HubConfig{})
	defer stop()

	all := joinHub(t, hub, "all", 4, nil)
	words := joinHub(t, hub, "words", 4, map[EventType]bool{EventText: true})

	hub.BroadcastEvent(KeyboardStateEvent{})
	hub.BroadcastEvent(TextEvent{Text: "hi"})

	expectFrame(t, all, `"keyboard_state"`)
	expectFrame(t, all, `"hi"`)
	expectFrame(t, words, `"hi"`)
	select {
	case got := <-words.send:
		t.Errorf("filtered client got an extra frame %s", got)
	default:
	}
}

func TestHub_FullQueueEvictsClient(t *testing.T) {
	hub, stop := startHub(t, HubConfig{SendBuf: 1, BroadcastBuf: 8})
	defer stop()

	stuck := joinHub(t, hub, "stuck", 1, nil)
	live := joinHub(t, hub, "live", 8, nil)
	stuck.send <- []byte(`"queued"`)

	hub.BroadcastEvent(TextEvent{Text: "hello"})
	expectFrame(t, live, `"hello"`)

	<-stuck.send
	waitUntil(t, 750*time.Millisecond, func() bool {
		select {
		case _, ok := <-stuck.send:
			return !ok
		default:
			return false
		}
	}, "stuck client not evicted")

	if n := hub.ClientCount(); n != 1 {
		t.Fatalf("expected 1 client left, got %d", n)
	}
}

func TestHub_BroadcastNeverBlocks(t *testing.T) {
	// Not running: the queue fills and further frames are counted as dropped.
	hub := NewHub(discardLogger(), HubConfig{BroadcastBuf: 2})
	for i := 0; i < 5; i++ {
		hub.BroadcastEvent(TextEvent{Text: "x"})
	}
	if got := hub.Dropped(); got != 3 {
		t.Errorf("expected 3 dropped frames, got %d", got)
	}
}

func TestParseEventTypes(t *testing.T) {
	got, err := parseEventTypes(" text, State-Change ,")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(got) != 2 || !got[EventText] || !got[EventStateChange] {
		t.Errorf("unexpected set %v", got)
	}
	if got, err := parseEventTypes(""); err != nil || got != nil {
		t.Errorf("empty list should accept all, got %v, %v", got, err)
	}
	if _, err := parseEventTypes("text,bogus"); err == nil {
		t.Errorf("expected an unknown type to be rejected")
	}
}

func TestMarshalUIFrame(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	b, err := marshalUIFrame(KeyboardLayoutChangeEvent{Layout: "us", ID: 7}, at)
	if err != nil {
		t.Fatalf("marshalUIFrame: %v", err)
	}

	var got struct {
		Type string    `json:"type"`
		Ts   time.Time `json:"ts"`
		Data struct {
			Layout string `json:"layout"`
			ID     uint32 `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal frame: %v", err)
	}
	if got.Type != "keyboard_layout_change" || !got.Ts.Equal(at) {
		t.Errorf("unexpected envelope %+v", got)
	}
	if got.Data.Layout != "us" || got.Data.ID != 7 {
		t.Errorf("data: got %+v", got.Data)
	}
}

func newTestUIServer(t *testing.T, submit func(Event)) (*Server, string) {
	t.Helper()
	srv := NewServer(discardLogger(),
		func() uiSnapshot { return uiSnapshot{Session: "s1", Profile: "typing"} },
		submit,
		ServerConfig{Hub: HubConfig{SendBuf: 4}})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go srv.Hub().Run(ctx)

	mux := http.NewServeMux()
	srv.Register(mux, "/ws")
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return srv, "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

func TestServer_InitThenClientEvents(t *testing.T) {
	submitted := make(chan Event, 1)
	srv, url := newTestUIServer(t, func(ev Event) { submitted <- ev })

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read ui_init: %v", err)
	}
	var init struct {
		Type string     `json:"type"`
		Data uiSnapshot `json:"data"`
	}
	if err := json.Unmarshal(msg, &init); err != nil {
		t.Fatalf("unmarshal ui_init: %v", err)
	}
	if init.Type != "ui_init" || init.Data.Session != "s1" || init.Data.Profile != "typing" {
		t.Fatalf("unexpected first frame: %s", msg)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"text","data":{"text":"hi"}}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	select {
	case ev := <-submitted:
		if te, ok := ev.(TextEvent); !ok || te.Text != "hi" {
			t.Fatalf("expected TextEvent{hi}, got %#v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timeout waiting for client event")
	}

	waitUntil(t, time.Second, func() bool { return srv.Hub().ClientCount() == 1 }, "client not registered")
	srv.Hub().BroadcastEvent(TextEvent{Text: "broadcast"})
	_, msg, err = conn.ReadMessage()
	if err != nil {
		t.Fatalf("read broadcast: %v", err)
	}
	if !strings.Contains(string(msg), `"broadcast"`) {
		t.Fatalf("unexpected broadcast frame: %s", msg)
	}
}

func TestServer_RejectsUnknownTypes(t *testing.T) {
	_, url := newTestUIServer(t, nil)

	_, resp, err := websocket.DefaultDialer.Dial(url+"?types=bogus", nil)
	if err == nil {
		t.Fatalf("expected the handshake to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", resp)
	}
}

func waitUntil(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timeout: %s", msg)
}
