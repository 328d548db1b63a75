package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ============================================================================
// Control Socket
// ============================================================================
// keysticks-ctl, scripts and on-screen keyboards drive the daemon through a
// unix socket speaking line-delimited JSON:
//
//	-> {"id":"...","type":"load_profile","data":{"name":"typing"}}
//	<- {"id":"...","status":"ok"}
//	<- {"id":"...","status":"error","error":"..."}
//
// The id is optional and echoed back. Each event goes to the loop that owns
// it: engine events to the state loop, profile and program requests to the
// UI loop, language packages to the prediction loop.
// ============================================================================

const (
	ipcIdleTimeout = 5 * time.Minute
	ipcMaxLine     = 1 << 20
	ipcDialTimeout = 3 * time.Second
)

type IPCResponse struct {
	ID     string `json:"id,omitempty"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func ipcOK(id string) IPCResponse { return IPCResponse{ID: id, Status: "ok"} }

func ipcFailed(id string, err error) IPCResponse {
	return IPCResponse{ID: id, Status: "error", Error: err.Error()}
}

// eventRouter is the orchestrator as seen by external clients.
type eventRouter interface {
	SubmitStateEvent(ev Event)
	SubmitUIEvent(ev Event)
	SubmitPredictionEvent(ev Event)
}

func routeEvent(r eventRouter, ev Event) error {
	switch ev.(type) {
	case StateChangeEvent, RepeatKeyEvent, TextEvent, PredictionEvent:
		r.SubmitStateEvent(ev)
	case LoadProfileEvent, StartProgramEvent, ToggleControlsEvent:
		r.SubmitUIEvent(ev)
	case LanguagePackagesEvent:
		r.SubmitPredictionEvent(ev)
	default:
		return fmt.Errorf("%w: %s", errUnknownEvent, ev.EventType())
	}
	return nil
}

// handleIPCLine decodes one request line and routes it.
func handleIPCLine(line []byte, router eventRouter) IPCResponse {
	var req struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(line, &req)

	ev, err := UnmarshalEvent(line)
	if err != nil {
		return ipcFailed(req.ID, fmt.Errorf("parse event: %w", err))
	}
	if err := routeEvent(router, ev); err != nil {
		return ipcFailed(req.ID, err)
	}
	return ipcOK(req.ID)
}

type ipcServer struct {
	router eventRouter
	logger *slog.Logger

	mu    sync.Mutex
	conns map[net.Conn]struct{}
	wg    sync.WaitGroup
}

// runIPCServer listens on socketPath until ctx is canceled. On shutdown it
// closes open sessions, waits for them and removes the socket file.
func runIPCServer(ctx context.Context, socketPath string, router eventRouter, logger *slog.Logger) error {
	if err := os.RemoveAll(socketPath); err != nil {
		return fmt.Errorf("remove stale socket: %w", err)
	}
	ln, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", socketPath, err)
	}
	defer os.Remove(socketPath)

	if err := os.Chmod(socketPath, 0o660); err != nil {
		_ = ln.Close()
		return fmt.Errorf("chmod socket: %w", err)
	}

	s := &ipcServer{router: router, logger: logger, conns: make(map[net.Conn]struct{})}
	stop := context.AfterFunc(ctx, func() {
		_ = ln.Close()
		s.closeAll()
	})
	defer stop()

	logger.Info("ipc listening", "socket", socketPath)
	err = s.serve(ctx, ln)
	s.wg.Wait()
	return err
}

func (s *ipcServer) serve(ctx context.Context, ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		switch {
		case err == nil:
		case ctx.Err() != nil, errors.Is(err, net.ErrClosed):
			s.logger.Debug("ipc listener closed")
			return nil
		default:
			s.logger.Error("ipc accept failed", "error", err)
			continue
		}

		s.mu.Lock()
		s.conns[conn] = struct{}{}
		s.mu.Unlock()
		if ctx.Err() != nil {
			// Accepted while closeAll was running.
			_ = conn.Close()
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.session(conn)
		}()
	}
}

func (s *ipcServer) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.conns {
		_ = c.Close()
	}
}

// session answers requests on conn, one response line per request line.
func (s *ipcServer) session(conn net.Conn) {
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		_ = conn.Close()
	}()

	sc := bufio.NewScanner(conn)
	sc.Buffer(make([]byte, 0, 4096), ipcMaxLine)
	enc := json.NewEncoder(conn)

	_ = conn.SetReadDeadline(time.Now().Add(ipcIdleTimeout))
	for sc.Scan() {
		resp := handleIPCLine(sc.Bytes(), s.router)
		if resp.Status != "ok" {
			s.logger.Warn("ipc request rejected", "id", resp.ID, "error", resp.Error)
		}
		if err := enc.Encode(resp); err != nil {
			s.logger.Debug("ipc response not sent", "error", err)
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(ipcIdleTimeout))
	}
	if err := sc.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
		s.logger.Debug("ipc session ended", "error", err)
	}
}

// ============================================================================
// Client
// ============================================================================

// SendIPCEvent delivers ev to the daemon and waits for its answer.
func SendIPCEvent(socketPath string, ev Event) error {
	line, id, err := encodeIPCRequest(ev)
	if err != nil {
		return err
	}

	conn, err := net.DialTimeout("unix", socketPath, ipcDialTimeout)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", socketPath, err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(ipcDialTimeout))

	if _, err := conn.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("send event: %w", err)
	}
	var resp IPCResponse
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	switch {
	case resp.ID != "" && resp.ID != id:
		return fmt.Errorf("response id %q does not match request %q", resp.ID, id)
	case resp.Status != "ok":
		return fmt.Errorf("daemon: %s", resp.Error)
	}
	return nil
}

// encodeIPCRequest marshals ev as an envelope carrying a fresh request id.
func encodeIPCRequest(ev Event) ([]byte, string, error) {
	data, err := MarshalEvent(ev)
	if err != nil {
		return nil, "", fmt.Errorf("marshal event: %w", err)
	}
	var env map[string]json.RawMessage
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, "", fmt.Errorf("marshal event: %w", err)
	}
	id := uuid.NewString()
	env["id"], _ = json.Marshal(id)
	out, err := json.Marshal(env)
	if err != nil {
		return nil, "", fmt.Errorf("marshal event: %w", err)
	}
	return out, id, nil
}
