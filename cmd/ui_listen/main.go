package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

// ui_listen follows the keysticks UI stream and prints one line per frame.
// With -retry it reconnects after the daemon restarts.

type frame struct {
	Type string          `json:"type"`
	Ts   *time.Time      `json:"ts,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

type prediction struct {
	Kind        string   `json:"kind"`
	Prefix      string   `json:"prefix"`
	Suffix      string   `json:"suffix"`
	Suggestions []string `json:"suggestions"`
}

type listener struct {
	url   string
	raw   bool
	out   io.Writer
	retry time.Duration
}

func main() {
	var (
		wsURL = flag.String("ws", "ws://127.0.0.1:8787/ws", "keysticks UI websocket URL")
		types = flag.String("types", "", "Comma separated event types to subscribe to (default all)")
		raw   = flag.Bool("raw", false, "Print frames as received")
		retry = flag.Duration("retry", 0, "Reconnect delay after the stream ends (0 exits)")
	)
	flag.Parse()

	u, err := url.Parse(*wsURL)
	if err != nil {
		log.Fatalf("invalid websocket URL: %v", err)
	}
	if *types != "" {
		q := u.Query()
		q.Set("types", *types)
		u.RawQuery = q.Encode()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	l := &listener{url: u.String(), raw: *raw, out: os.Stdout, retry: *retry}
	if err := l.run(ctx); err != nil {
		log.Fatal(err)
	}
}

func (l *listener) run(ctx context.Context) error {
	for {
		err := l.follow(ctx)
		switch {
		case ctx.Err() != nil:
			return nil
		case l.retry <= 0:
			return err
		}
		log.Printf("stream ended (%v), reconnecting in %s", err, l.retry)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(l.retry):
		}
	}
}

// follow reads one connection until it fails or ctx ends.
func (l *listener) follow(ctx context.Context) error {
	d := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	conn, resp, err := d.DialContext(ctx, l.url, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("connect %s: %s", l.url, resp.Status)
		}
		return fmt.Errorf("connect %s: %w", l.url, err)
	}
	defer conn.Close()
	log.Printf("listening on %s", l.url)

	// The server pings every 20s.
	const idle = time.Minute
	_ = conn.SetReadDeadline(time.Now().Add(idle))
	conn.SetPingHandler(func(data string) error {
		_ = conn.SetReadDeadline(time.Now().Add(idle))
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(5*time.Second))
	})

	stopClose := context.AfterFunc(ctx, func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		_ = conn.Close()
	})
	defer stopClose()

	for {
		kind, msg, err := conn.ReadMessage()
		if err != nil {
			var ce *websocket.CloseError
			if errors.As(err, &ce) && ce.Code == websocket.CloseNormalClosure {
				return errors.New("closed by server")
			}
			return err
		}
		_ = conn.SetReadDeadline(time.Now().Add(idle))
		if kind == websocket.TextMessage {
			l.print(msg)
		}
	}
}

func (l *listener) print(msg []byte) {
	var f frame
	if l.raw || json.Unmarshal(msg, &f) != nil {
		fmt.Fprintln(l.out, string(msg))
		return
	}

	stamp := ""
	if f.Ts != nil {
		stamp = f.Ts.Local().Format("15:04:05.000") + " "
	}
	fmt.Fprintf(l.out, "%s%-22s %s\n", stamp, f.Type, describe(f))
}

// describe renders the data of the frames people read most; the rest is
// printed as JSON.
func describe(f frame) string {
	switch f.Type {
	case "word_prediction":
		var p prediction
		if json.Unmarshal(f.Data, &p) == nil && p.Kind == "suggestions_list" {
			return fmt.Sprintf("%s|%s -> %s", p.Prefix, p.Suffix, strings.Join(p.Suggestions, "  "))
		}
	case "text":
		var t struct {
			Text string `json:"text"`
		}
		if json.Unmarshal(f.Data, &t) == nil {
			return fmt.Sprintf("%q", t.Text)
		}
	}
	return string(f.Data)
}
